// Package verify derives a frame ledger directly from a recorded video so
// two independently captured files can be compared without live sha logs.
package verify

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"streamauth/internal/fingerprint"
	"streamauth/internal/ledger"
	"streamauth/internal/services/capture"
)

// analysisSize is the fixed resolution frames are scaled to before
// fingerprinting. Both videos must go through the same scaling for their
// fingerprints to be comparable.
const analysisSize = 300

// AnalyzeVideo fingerprints every frame of a video file and returns the
// resulting snapshot, fingerprints included. Frame ids follow decode order
// starting at 0.
func AnalyzeVideo(path string, gridSize int, mode fingerprint.Mode) (ledger.Snapshot, error) {
	video, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("open video %s: %w", path, err)
	}
	defer video.Close()

	mat := gocv.NewMat()
	defer mat.Close()
	resized := gocv.NewMat()
	defer resized.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	var records []ledger.Record
	var frameID uint64
	for video.Read(&mat) {
		if mat.Empty() {
			break
		}
		gocv.Resize(mat, &resized, image.Pt(analysisSize, analysisSize), 0, 0, gocv.InterpolationLinear)

		fp := fingerprint.Extract(capture.FrameFromMat(resized), gridSize, mode)
		if fp == nil {
			// Undecodable frame; skip it rather than abort the analysis.
			frameID++
			continue
		}

		records = append(records, ledger.Record{
			FrameID:     frameID,
			Timestamp:   timestamp,
			Digest:      fingerprint.Digest(fp),
			Fingerprint: fp,
		})
		frameID++
	}

	if len(records) == 0 {
		return ledger.Snapshot{}, fmt.Errorf("video %s yielded no frames", path)
	}
	return ledger.SnapshotOf(records), nil
}
