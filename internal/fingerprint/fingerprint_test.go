package fingerprint

import "testing"

// sha256 of the empty byte string; the digest of an empty fingerprint.
const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestExtract_Length(t *testing.T) {
	for _, gridSize := range []int{1, 2, 3, 5} {
		frame := Solid(120, 160, 3, 50)
		fp := Extract(frame, gridSize, ModeSum)
		if len(fp) != gridSize*gridSize {
			t.Errorf("grid %d: expected %d cells, got %d", gridSize, gridSize*gridSize, len(fp))
		}
	}
}

func TestExtract_SolidFrame(t *testing.T) {
	// Every cell of a solid frame sums its per-channel means: 3 channels at
	// value 30 gives 90 in each of the 9 cells.
	fp := Extract(Solid(90, 90, 3, 30), 3, ModeSum)
	if len(fp) != 9 {
		t.Fatalf("expected 9 cells, got %d", len(fp))
	}
	for i, v := range fp {
		if v != 90 {
			t.Errorf("cell %d: expected 90, got %d", i, v)
		}
	}
}

func TestExtract_ResolutionIndependentLength(t *testing.T) {
	small := Extract(Solid(30, 30, 3, 10), 3, ModeSum)
	large := Extract(Solid(1080, 1920, 3, 10), 3, ModeSum)
	if len(small) != len(large) {
		t.Errorf("fingerprint length should not depend on resolution: %d vs %d", len(small), len(large))
	}
}

func TestExtract_TruncatesTrailingPixels(t *testing.T) {
	// 100x100 at grid 3 uses only the leading 99x99 region; pixels beyond
	// it must not influence the fingerprint.
	a := Solid(100, 100, 3, 40)
	b := a.Clone()
	for col := 0; col < b.Cols; col++ {
		for ch := 0; ch < 3; ch++ {
			b.Set(99, col, ch, 255)
		}
	}
	for row := 0; row < b.Rows; row++ {
		for ch := 0; ch < 3; ch++ {
			b.Set(row, 99, ch, 255)
		}
	}

	fpA := Extract(a, 3, ModeSum)
	fpB := Extract(b, 3, ModeSum)
	for i := range fpA {
		if fpA[i] != fpB[i] {
			t.Errorf("cell %d: trailing pixels changed the fingerprint: %d vs %d", i, fpA[i], fpB[i])
		}
	}
}

func TestExtract_MalformedFrames(t *testing.T) {
	cases := []struct {
		name  string
		frame Frame
	}{
		{"zero value", Frame{}},
		{"zero rows", Frame{Rows: 0, Cols: 10, Channels: 3}},
		{"buffer mismatch", Frame{Rows: 10, Cols: 10, Channels: 3, Pix: make([]uint8, 5)}},
		{"smaller than grid", Solid(2, 2, 3, 10)},
	}
	for _, tc := range cases {
		if fp := Extract(tc.frame, 3, ModeSum); fp != nil {
			t.Errorf("%s: expected nil fingerprint, got %v", tc.name, fp)
		}
	}
}

func TestExtract_ConditionedMode(t *testing.T) {
	// Solid value 22 -> cell value 66, divisible by 3 and 11 but not 5:
	// conditioned component equals the value itself.
	fp := Extract(Solid(90, 90, 3, 22), 3, ModeConditioned)
	for i, v := range fp {
		if v != 66 {
			t.Errorf("cell %d: expected 66, got %d", i, v)
		}
	}

	// Solid value 30 -> cell value 90: not divisible by 11, so the
	// component stays 0; divisible by 5 multiplies the zero.
	fp = Extract(Solid(90, 90, 3, 30), 3, ModeConditioned)
	for i, v := range fp {
		if v != 0 {
			t.Errorf("cell %d: expected 0, got %d", i, v)
		}
	}
}

func TestDigest_Deterministic(t *testing.T) {
	fp := []int32{90, 90, 90, 91, 90, 90, 90, 90, 90}
	first := Digest(fp)
	for i := 0; i < 5; i++ {
		if d := Digest(fp); d != first {
			t.Fatalf("digest not deterministic: %s vs %s", d, first)
		}
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(first))
	}
}

func TestDigest_EqualFingerprintsEqualDigests(t *testing.T) {
	a := Extract(Solid(90, 90, 3, 30), 3, ModeSum)
	b := Extract(Solid(300, 300, 3, 30), 3, ModeSum)
	if Digest(a) != Digest(b) {
		t.Error("equal fingerprints must yield equal digests")
	}

	c := Extract(Solid(90, 90, 3, 31), 3, ModeSum)
	if Digest(a) == Digest(c) {
		t.Error("different fingerprints should yield different digests")
	}
}

func TestDigest_EmptyFingerprint(t *testing.T) {
	if d := Digest(nil); d != emptyDigest {
		t.Errorf("digest of nil fingerprint: expected %s, got %s", emptyDigest, d)
	}
	if d := Digest([]int32{}); d != emptyDigest {
		t.Errorf("digest of empty fingerprint: expected %s, got %s", emptyDigest, d)
	}
}

func TestDigest_NegativeValues(t *testing.T) {
	// Signed components must round-trip through the fixed byte encoding.
	a := Digest([]int32{-1, 0, 1})
	b := Digest([]int32{-1, 0, 1})
	c := Digest([]int32{1, 0, -1})
	if a != b {
		t.Error("digest of negative components not deterministic")
	}
	if a == c {
		t.Error("component order must matter")
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("conditioned") != ModeConditioned {
		t.Error("expected conditioned mode")
	}
	if ParseMode("sum") != ModeSum {
		t.Error("expected sum mode")
	}
	if ParseMode("") != ModeSum {
		t.Error("unknown mode should default to sum")
	}
}
