package fingerprint

// Frame is a raw pixel buffer: row-major, channel-interleaved uint8 values
// (the layout a BGR camera frame arrives in). It owns its pixels, so copies
// of a Frame made with Clone can be mutated independently.
type Frame struct {
	Rows     int
	Cols     int
	Channels int
	Pix      []uint8
}

// NewFrame allocates a zeroed frame with the given dimensions.
func NewFrame(rows, cols, channels int) Frame {
	return Frame{
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		Pix:      make([]uint8, rows*cols*channels),
	}
}

// Solid returns a frame filled with the same value in every channel.
func Solid(rows, cols, channels int, value uint8) Frame {
	f := NewFrame(rows, cols, channels)
	for i := range f.Pix {
		f.Pix[i] = value
	}
	return f
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	c := f
	c.Pix = make([]uint8, len(f.Pix))
	copy(c.Pix, f.Pix)
	return c
}

// Valid reports whether the frame has positive dimensions and a pixel
// buffer of exactly rows*cols*channels bytes.
func (f Frame) Valid() bool {
	if f.Rows <= 0 || f.Cols <= 0 || f.Channels <= 0 {
		return false
	}
	return len(f.Pix) == f.Rows*f.Cols*f.Channels
}

// At returns the value of channel ch at (row, col). The caller is expected
// to stay in bounds; indexing follows the row-major interleaved layout.
func (f Frame) At(row, col, ch int) uint8 {
	return f.Pix[(row*f.Cols+col)*f.Channels+ch]
}

// Set writes the value of channel ch at (row, col).
func (f Frame) Set(row, col, ch int, value uint8) {
	f.Pix[(row*f.Cols+col)*f.Channels+ch] = value
}
