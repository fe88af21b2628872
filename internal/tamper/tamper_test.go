package tamper

import (
	"bytes"
	"testing"

	"streamauth/internal/fingerprint"
)

func TestInjector_Predicate(t *testing.T) {
	inj := NewInjector(5)

	if inj.ShouldTamper(0) {
		t.Error("frame 0 must never be tampered")
	}
	for _, id := range []uint64{5, 10, 15, 100} {
		if !inj.ShouldTamper(id) {
			t.Errorf("frame %d should be selected", id)
		}
	}
	for _, id := range []uint64{1, 4, 7, 13} {
		if inj.ShouldTamper(id) {
			t.Errorf("frame %d should not be selected", id)
		}
	}
}

func TestInjector_ApplyRotatesTransforms(t *testing.T) {
	inj := NewInjector(5)

	frame := fingerprint.Solid(300, 300, 3, 31)
	if inj.Apply(frame, 1) {
		t.Error("unselected frame must not be transformed")
	}

	// Frame 5 picks the second transform (LSB flip), which on a solid 31
	// frame lowers the region values to 30.
	if !inj.Apply(frame, 5) {
		t.Fatal("frame 5 should be transformed")
	}
	if frame.At(50, 50, 0) != 30 {
		t.Errorf("expected LSB flip at (50,50): got %d", frame.At(50, 50, 0))
	}
	if frame.At(0, 0, 0) != 31 {
		t.Error("pixels outside the region must be untouched")
	}
}

func TestFlipLSB_ChangesFingerprint(t *testing.T) {
	// 60x60 at grid 3 has 20x20 cells; the clamped flip region covers a
	// quarter of the last cell. Solid value 31 flips down to 30, shifting
	// the cell total from 93 to 92 after truncation.
	frame := fingerprint.Solid(60, 60, 3, 31)
	before := fingerprint.Extract(frame, 3, fingerprint.ModeSum)

	FlipLSB(frame, 5)
	after := fingerprint.Extract(frame, 3, fingerprint.ModeSum)

	if before[8] != 93 || after[8] != 92 {
		t.Errorf("expected last cell 93 -> 92, got %d -> %d", before[8], after[8])
	}
	if fingerprint.Digest(before) == fingerprint.Digest(after) {
		t.Error("flip should have changed the digest")
	}
}

func TestFlipLSB_TooSubtleToDetect(t *testing.T) {
	// On a 300x300 frame each cell is 100x100; a 20x20 flip moves the cell
	// mean by 0.12, which truncation swallows. Pixels change, the
	// fingerprint does not. That is the documented sensitivity limit.
	frame := fingerprint.Solid(300, 300, 3, 30)
	before := fingerprint.Extract(frame, 3, fingerprint.ModeSum)
	pixBefore := append([]uint8(nil), frame.Pix...)

	FlipLSB(frame, 5)

	if bytes.Equal(pixBefore, frame.Pix) {
		t.Fatal("flip should have changed pixels")
	}
	after := fingerprint.Extract(frame, 3, fingerprint.ModeSum)
	if fingerprint.Digest(before) != fingerprint.Digest(after) {
		t.Error("a sub-truncation flip should leave the fingerprint unchanged")
	}
}

func TestRollRegionRows_PreservesCellMeans(t *testing.T) {
	// A row roll permutes pixels inside the region. When the region sits
	// inside one cell the cell's pixel multiset, and therefore its mean,
	// is unchanged even though the frame content moved.
	frame := fingerprint.NewFrame(300, 300, 3)
	for row := 0; row < frame.Rows; row++ {
		for col := 0; col < frame.Cols; col++ {
			for ch := 0; ch < 3; ch++ {
				frame.Set(row, col, ch, uint8(row%251))
			}
		}
	}
	before := fingerprint.Extract(frame, 3, fingerprint.ModeSum)
	pixBefore := append([]uint8(nil), frame.Pix...)

	RollRegionRows(frame, 10)

	if bytes.Equal(pixBefore, frame.Pix) {
		t.Fatal("roll should have changed pixels")
	}
	// Row 119 wrapped to row 100.
	if frame.At(100, 100, 0) != uint8(119%251) {
		t.Errorf("expected wrapped row value %d at (100,100), got %d", 119%251, frame.At(100, 100, 0))
	}
	after := fingerprint.Extract(frame, 3, fingerprint.ModeSum)
	if fingerprint.Digest(before) != fingerprint.Digest(after) {
		t.Error("an in-cell roll should leave the fingerprint unchanged")
	}
}

func TestTransforms_ClampToFrameBounds(t *testing.T) {
	// Both transforms target regions beyond a tiny frame; they must not
	// write out of bounds.
	small := fingerprint.Solid(40, 40, 3, 10)
	RollRegionRows(small, 0)
	FlipLSB(small, 0)

	if !small.Valid() {
		t.Error("frame corrupted by clamped transform")
	}
}
