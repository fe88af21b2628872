package dto

// StatusResponse is the polling payload exposed after every frame: the
// latest input/output digests and the tampered frame ids accumulated so far.
type StatusResponse struct {
	Recording      bool     `json:"recording"`
	SessionID      string   `json:"session_id,omitempty"`
	FrameID        uint64   `json:"frame_id"`
	FrameCount     int      `json:"frame_count"`
	InputSHA       string   `json:"input_sha"`
	OutputSHA      string   `json:"output_sha"`
	Tampered       bool     `json:"tampered"`
	TamperedFrames []uint64 `json:"tampered_frames"`
	Viewers        int      `json:"viewers"`
}
