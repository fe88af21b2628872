// Package tamper injects small, deterministic pixel-region transforms into
// output frames. It exists to exercise the divergence detector: the
// detector never sees the injection predicate, it only ever compares the
// fingerprints the transforms may or may not have shifted. A transform that
// is too subtle to move a cell's truncated mean goes undetected, a
// known sensitivity limit of the grid-mean fingerprint, tunable via grid
// size and transform magnitude.
package tamper

import "streamauth/internal/fingerprint"

// DefaultEveryN tampers every fifth frame, skipping frame 0.
const DefaultEveryN = 5

// Transform mutates a region of the frame in place. Transforms must be
// deterministic for a given frame and id.
type Transform func(frame fingerprint.Frame, frameID uint64)

// RollRegionRows rolls the rows of the 20×20 region anchored at (100,100)
// down by one, wrapping the last row to the top. Clamps to frame bounds.
func RollRegionRows(frame fingerprint.Frame, _ uint64) {
	rollRows(frame, 100, 100, 20, 20)
}

// FlipLSB flips the least significant bit of every channel value inside
// the 20×20 region anchored at (50,50). Clamps to frame bounds.
func FlipLSB(frame fingerprint.Frame, _ uint64) {
	flipLSB(frame, 50, 50, 20, 20)
}

func clampRegion(frame fingerprint.Frame, y, x, h, w int) (int, int, int, int) {
	if y > frame.Rows {
		y = frame.Rows
	}
	if x > frame.Cols {
		x = frame.Cols
	}
	if y+h > frame.Rows {
		h = frame.Rows - y
	}
	if x+w > frame.Cols {
		w = frame.Cols - x
	}
	return y, x, h, w
}

func rollRows(frame fingerprint.Frame, y, x, h, w int) {
	y, x, h, w = clampRegion(frame, y, x, h, w)
	if h < 2 || w < 1 {
		return
	}

	stride := w * frame.Channels
	last := make([]uint8, stride)
	rowStart := func(row int) int { return (row*frame.Cols + x) * frame.Channels }

	copy(last, frame.Pix[rowStart(y+h-1):rowStart(y+h-1)+stride])
	for row := y + h - 1; row > y; row-- {
		copy(frame.Pix[rowStart(row):rowStart(row)+stride], frame.Pix[rowStart(row-1):rowStart(row-1)+stride])
	}
	copy(frame.Pix[rowStart(y):rowStart(y)+stride], last)
}

func flipLSB(frame fingerprint.Frame, y, x, h, w int) {
	y, x, h, w = clampRegion(frame, y, x, h, w)
	for row := y; row < y+h; row++ {
		base := (row*frame.Cols + x) * frame.Channels
		for i := 0; i < w*frame.Channels; i++ {
			frame.Pix[base+i] ^= 1
		}
	}
}

// Injector selects which frames receive which transform. The default
// predicate tampers every Nth frame and never frame 0.
type Injector struct {
	EveryN     int
	Transforms []Transform
}

// NewInjector returns an injector with the default rotating transform list.
func NewInjector(everyN int) *Injector {
	if everyN <= 0 {
		everyN = DefaultEveryN
	}
	return &Injector{
		EveryN:     everyN,
		Transforms: []Transform{RollRegionRows, FlipLSB},
	}
}

// ShouldTamper reports whether a frame is selected for injection.
func (inj *Injector) ShouldTamper(frameID uint64) bool {
	return frameID > 0 && frameID%uint64(inj.EveryN) == 0
}

// Apply mutates the frame in place with the transform rotation picks for
// this frame id. No-op when the frame is not selected.
func (inj *Injector) Apply(frame fingerprint.Frame, frameID uint64) bool {
	if !inj.ShouldTamper(frameID) || len(inj.Transforms) == 0 {
		return false
	}
	inj.Transforms[frameID%uint64(len(inj.Transforms))](frame, frameID)
	return true
}
