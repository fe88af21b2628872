package detector

import (
	"errors"
	"testing"

	"streamauth/internal/ledger"
	"streamauth/internal/tamper"
)

func baseFingerprint() []int32 {
	return []int32{90, 90, 90, 90, 90, 90, 90, 90, 90}
}

func TestDetector_FlagsDivergingFrames(t *testing.T) {
	// A 20-frame session where every 5th frame (skipping 0) receives a
	// transform that provably moves a cell value. Exactly frames 5, 10 and
	// 15 must end up in the tampered set.
	input := ledger.New()
	output := ledger.New()
	det := New(input, output, true)
	inj := tamper.NewInjector(5)

	for id := uint64(0); id < 20; id++ {
		inputFP := baseFingerprint()
		outputFP := baseFingerprint()
		if inj.ShouldTamper(id) {
			outputFP[4] += 50
		}
		if _, err := det.Evaluate(id, "2025-01-02 15:04:05", inputFP, outputFP); err != nil {
			t.Fatalf("frame %d: %v", id, err)
		}
	}

	got := det.TamperedFrames()
	want := []uint64{5, 10, 15}
	if len(got) != len(want) {
		t.Fatalf("expected tampered frames %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected tampered frames %v, got %v", want, got)
		}
	}

	if input.Len() != 20 || output.Len() != 20 {
		t.Errorf("expected 20 records per ledger, got %d/%d", input.Len(), output.Len())
	}
}

func TestDetector_IdenticalFingerprintsNotFlagged(t *testing.T) {
	det := New(ledger.New(), ledger.New(), false)

	res, err := det.Evaluate(0, "2025-01-02 15:04:05", baseFingerprint(), baseFingerprint())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if res.Tampered {
		t.Error("identical fingerprints must not be flagged")
	}
	if res.InputDigest != res.OutputDigest {
		t.Error("identical fingerprints must yield identical digests")
	}
	if len(det.TamperedFrames()) != 0 {
		t.Error("tampered set should be empty")
	}
}

func TestDetector_MalformedFrameSkipped(t *testing.T) {
	input := ledger.New()
	det := New(input, ledger.New(), false)

	_, err := det.Evaluate(0, "2025-01-02 15:04:05", nil, baseFingerprint())
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
	if input.Len() != 0 {
		t.Error("malformed frame must not reach the ledger")
	}

	// The session continues: the next frame evaluates normally.
	if _, err := det.Evaluate(1, "2025-01-02 15:04:06", baseFingerprint(), baseFingerprint()); err != nil {
		t.Fatalf("frame after malformed one failed: %v", err)
	}
}

func TestDetector_DuplicateFrameIDIsFatal(t *testing.T) {
	det := New(ledger.New(), ledger.New(), false)

	if _, err := det.Evaluate(0, "ts", baseFingerprint(), baseFingerprint()); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	_, err := det.Evaluate(0, "ts", baseFingerprint(), baseFingerprint())
	if !errors.Is(err, ledger.ErrDuplicateFrameID) {
		t.Fatalf("expected ErrDuplicateFrameID, got %v", err)
	}
}

func TestDetector_Status(t *testing.T) {
	det := New(ledger.New(), ledger.New(), false)

	st := det.Status()
	if st.FrameCount != 0 || len(st.TamperedFrames) != 0 {
		t.Error("fresh detector should report an empty status")
	}

	diverging := baseFingerprint()
	diverging[0] = 200
	det.Evaluate(0, "ts", baseFingerprint(), baseFingerprint())
	det.Evaluate(1, "ts", baseFingerprint(), diverging)

	st = det.Status()
	if st.FrameID != 1 {
		t.Errorf("expected latest frame 1, got %d", st.FrameID)
	}
	if st.FrameCount != 2 {
		t.Errorf("expected 2 frames, got %d", st.FrameCount)
	}
	if len(st.TamperedFrames) != 1 || st.TamperedFrames[0] != 1 {
		t.Errorf("expected tampered frames [1], got %v", st.TamperedFrames)
	}
	if st.InputDigest == st.OutputDigest {
		t.Error("latest digests should differ for a diverging frame")
	}
}

func TestDetector_KeepsFingerprintsWhenAsked(t *testing.T) {
	input := ledger.New()
	det := New(input, ledger.New(), true)
	det.Evaluate(0, "ts", baseFingerprint(), baseFingerprint())

	rec, _ := input.Get(0)
	if rec.Fingerprint == nil {
		t.Error("expected fingerprint stored alongside digest")
	}

	bare := ledger.New()
	det = New(bare, ledger.New(), false)
	det.Evaluate(0, "ts", baseFingerprint(), baseFingerprint())
	rec, _ = bare.Get(0)
	if rec.Fingerprint != nil {
		t.Error("expected digest-only record")
	}
}
