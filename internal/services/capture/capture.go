// Package capture provides frame sources for the recording pipeline: a real
// camera through gocv and a synthetic test pattern used when no camera can
// be opened. Frames leave this package as plain pixel buffers so everything
// downstream stays independent of OpenCV.
package capture

import (
	"fmt"

	"gocv.io/x/gocv"

	"streamauth/internal/fingerprint"
	"streamauth/internal/logger"
)

// Source delivers frames one at a time to the single capture loop.
type Source interface {
	// Read returns the next frame. ok is false when the source is exhausted
	// or failed; the session then pads out its remaining duration.
	Read() (frame fingerprint.Frame, ok bool)
	Close() error
}

// CameraSource reads frames from a gocv video capture device.
type CameraSource struct {
	cap *gocv.VideoCapture
	mat gocv.Mat
}

// OpenCamera opens a capture device and requests the given frame size.
func OpenCamera(deviceID, width, height int) (*CameraSource, error) {
	device, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", deviceID, err)
	}
	device.Set(gocv.VideoCaptureFrameWidth, float64(width))
	device.Set(gocv.VideoCaptureFrameHeight, float64(height))
	return &CameraSource{cap: device, mat: gocv.NewMat()}, nil
}

func (c *CameraSource) Read() (fingerprint.Frame, bool) {
	if !c.cap.Read(&c.mat) || c.mat.Empty() {
		return fingerprint.Frame{}, false
	}
	return FrameFromMat(c.mat), true
}

func (c *CameraSource) Close() error {
	c.mat.Close()
	return c.cap.Close()
}

// PatternSource generates a deterministic moving test pattern: a gray
// background with a bright bar that advances one row per frame. Stands in
// for the camera so sessions still produce comparable ledgers.
type PatternSource struct {
	rows, cols int
	seq        int
}

// NewPatternSource creates a test pattern source with the given frame size.
func NewPatternSource(rows, cols int) *PatternSource {
	return &PatternSource{rows: rows, cols: cols}
}

func (p *PatternSource) Read() (fingerprint.Frame, bool) {
	f := fingerprint.Solid(p.rows, p.cols, 3, 32)
	bar := p.seq % p.rows
	for col := 0; col < p.cols; col++ {
		for ch := 0; ch < 3; ch++ {
			f.Set(bar, col, ch, 220)
		}
	}
	p.seq++
	return f, true
}

func (p *PatternSource) Close() error { return nil }

// NewSource opens the configured camera, falling back to the synthetic
// pattern when the device is unavailable.
func NewSource(deviceID, width, height int, log *logger.Logger) Source {
	cam, err := OpenCamera(deviceID, width, height)
	if err != nil {
		log.Warning("No camera available (%v) - using test pattern", err)
		return NewPatternSource(height, width)
	}
	log.Info("📷 Camera %d opened at %dx%d", deviceID, width, height)
	return cam
}

// FrameFromMat copies a Mat's pixel data into a Frame.
func FrameFromMat(mat gocv.Mat) fingerprint.Frame {
	data := mat.ToBytes()
	pix := make([]uint8, len(data))
	copy(pix, data)
	return fingerprint.Frame{
		Rows:     mat.Rows(),
		Cols:     mat.Cols(),
		Channels: mat.Channels(),
		Pix:      pix,
	}
}

// MatFromFrame builds a Mat backed by a copy of the frame's pixels.
// The caller owns the returned Mat and must Close it.
func MatFromFrame(frame fingerprint.Frame) (gocv.Mat, error) {
	var matType gocv.MatType
	switch frame.Channels {
	case 1:
		matType = gocv.MatTypeCV8UC1
	case 3:
		matType = gocv.MatTypeCV8UC3
	case 4:
		matType = gocv.MatTypeCV8UC4
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count %d", frame.Channels)
	}
	return gocv.NewMatFromBytes(frame.Rows, frame.Cols, matType, frame.Pix)
}
