package dto

// VerdictResponse is the offline comparison result rendered over HTTP or
// by the verify CLI.
type VerdictResponse struct {
	Classification       string   `json:"classification"`
	MatchedFrameCount    int      `json:"matched_frame_count"`
	DifferingFrameCount  int      `json:"differing_frame_count"`
	HashMismatchFrameIDs []uint64 `json:"hash_mismatch_frame_ids"`
	CombinedDigestA      string   `json:"combined_digest_a,omitempty"`
	CombinedDigestB      string   `json:"combined_digest_b,omitempty"`
	CombinedEqual        bool     `json:"combined_equal"`
}
