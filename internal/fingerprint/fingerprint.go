// Package fingerprint derives compact per-frame integrity fingerprints and
// their cryptographic digests. A fingerprint is a grid of per-cell values:
// the frame is split into gridSize×gridSize cells by integer division and
// each cell contributes the truncated sum of its per-channel mean pixel
// intensities. The fingerprint is a fragile spatial summary: any change
// that shifts a cell mean changes the digest.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// DefaultGridSize is the grid dimension used when nothing is configured.
const DefaultGridSize = 3

// Mode selects how a cell's channel-mean sum is turned into a fingerprint
// component. The two modes are not interchangeable: ledgers produced under
// different modes never compare equal, so a deployment picks one and keeps it.
type Mode string

const (
	// ModeSum emits the truncated sum of the cell's channel means directly.
	ModeSum Mode = "sum"

	// ModeConditioned gates the value through the modulo conditions used by
	// the batch analysis tooling: the component starts at zero, absorbs the
	// value only when divisible by both 3 and 11, and is multiplied by 5
	// when the value is divisible by 5.
	ModeConditioned Mode = "conditioned"
)

// ParseMode maps a config string to a Mode, defaulting to ModeSum.
func ParseMode(s string) Mode {
	if Mode(s) == ModeConditioned {
		return ModeConditioned
	}
	return ModeSum
}

// Extract computes the fingerprint of a frame: gridSize² int32 values in
// row-major cell order. Trailing rows and columns that don't fill a whole
// cell are dropped; cell bounds come from integer division, so the
// fingerprint length depends only on gridSize, never on resolution.
//
// Returns nil when the frame is malformed (non-positive dimensions, pixel
// buffer size mismatch) or too small to give every cell at least one pixel.
// Callers must treat a nil fingerprint as "no digest computable".
func Extract(frame Frame, gridSize int, mode Mode) []int32 {
	if gridSize <= 0 || !frame.Valid() {
		return nil
	}

	cellH := frame.Rows / gridSize
	cellW := frame.Cols / gridSize
	if cellH == 0 || cellW == 0 {
		return nil
	}

	fp := make([]int32, 0, gridSize*gridSize)
	for gy := 0; gy < gridSize; gy++ {
		for gx := 0; gx < gridSize; gx++ {
			fp = append(fp, cellValue(frame, gy*cellH, gx*cellW, cellH, cellW, mode))
		}
	}
	return fp
}

// cellValue sums the per-channel means of one cell and truncates to int32.
func cellValue(frame Frame, startY, startX, cellH, cellW int, mode Mode) int32 {
	sums := make([]float64, frame.Channels)
	for y := startY; y < startY+cellH; y++ {
		rowBase := (y*frame.Cols + startX) * frame.Channels
		for x := 0; x < cellW; x++ {
			for ch := 0; ch < frame.Channels; ch++ {
				sums[ch] += float64(frame.Pix[rowBase+x*frame.Channels+ch])
			}
		}
	}

	count := float64(cellH * cellW)
	total := 0.0
	for _, s := range sums {
		total += s / count
	}
	value := int32(total)

	if mode == ModeConditioned {
		var c int32
		if value%3 == 0 && value%11 == 0 {
			c += value
		}
		if value%5 == 0 {
			c *= 5
		}
		return c
	}
	return value
}

// Digest hashes a fingerprint into a 64-character lowercase hex string.
// The fingerprint is serialized as consecutive little-endian int32 values;
// the byte order is pinned so digests compare equal across architectures.
// Total over its domain: a nil or empty fingerprint digests the empty
// byte string.
func Digest(fp []int32) string {
	h := sha256.New()
	var buf [4]byte
	for _, v := range fp {
		binary.LittleEndian.PutUint32(buf[:], uint32(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
