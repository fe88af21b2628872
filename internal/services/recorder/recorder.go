// Package recorder runs recording sessions: one producer loop that captures
// frames, fingerprints the input and a possibly tampered output copy,
// feeds the divergence detector, streams the annotated output to viewers,
// and persists both ledgers when the session's wall-clock duration expires.
package recorder

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"streamauth/internal/config"
	"streamauth/internal/database"
	"streamauth/internal/detector"
	"streamauth/internal/dto"
	"streamauth/internal/fingerprint"
	"streamauth/internal/ledger"
	"streamauth/internal/logger"
	"streamauth/internal/services/capture"
	"streamauth/internal/services/websocket"
	"streamauth/internal/tamper"
)

// ErrSessionActive is returned when a session start is requested while one
// is already recording. The running session is unaffected.
var ErrSessionActive = errors.New("recorder: a recording session is already active")

// timestampLayout is the wall-clock format written into every record.
const timestampLayout = "2006-01-02 15:04:05"

// Recorder owns recording sessions. At most one session is active at a
// time; each session supersedes the previous one's in-memory state.
type Recorder struct {
	cfg *config.Config
	log *logger.Logger
	hub *websocket.HubService
	db  *database.Database

	slot frameSlot

	mu        sync.Mutex
	recording bool
	sessionID string
	det       *detector.Detector

	sourceFactory func() capture.Source
}

// New creates a recorder. db may be nil when no archive is configured.
func New(cfg *config.Config, log *logger.Logger, hub *websocket.HubService, db *database.Database) *Recorder {
	return &Recorder{cfg: cfg, log: log, hub: hub, db: db}
}

// SetSourceFactory replaces how sessions obtain their frame source. When
// unset, sessions open the configured camera and fall back to the synthetic
// pattern. Must be called before Start.
func (r *Recorder) SetSourceFactory(f func() capture.Source) {
	r.sourceFactory = f
}

// Start begins a recording session of the given duration. Fails with
// ErrSessionActive while a session is running; the caller decides whether
// to retry after the current session finishes.
func (r *Recorder) Start(duration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return ErrSessionActive
	}

	input := ledger.New()
	output := ledger.New()
	r.det = detector.New(input, output, r.cfg.KeepFingerprints)
	r.recording = true
	r.sessionID = uuid.NewString()

	go r.run(duration, input, output, r.det, r.sessionID)

	r.log.Info("🎥 Recording session %s started for %s", r.sessionID, duration)
	return nil
}

// Recording reports whether a session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Status returns the poll payload for the current (or last) session.
func (r *Recorder) Status() dto.StatusResponse {
	r.mu.Lock()
	det := r.det
	resp := dto.StatusResponse{
		Recording: r.recording,
		SessionID: r.sessionID,
	}
	r.mu.Unlock()

	if det != nil {
		st := det.Status()
		resp.FrameID = st.FrameID
		resp.FrameCount = st.FrameCount
		resp.InputSHA = st.InputDigest
		resp.OutputSHA = st.OutputDigest
		resp.TamperedFrames = st.TamperedFrames
		resp.Tampered = len(st.TamperedFrames) > 0
	}
	if resp.TamperedFrames == nil {
		resp.TamperedFrames = []uint64{}
	}
	resp.Viewers = r.hub.GetClientCount()
	return resp
}

// LatestFrame returns the most recent encoded output frame and its
// sequence number from the latest-value slot.
func (r *Recorder) LatestFrame() ([]byte, uint64) {
	return r.slot.Get()
}

// run is the producer loop. It executes the whole per-frame pipeline
// synchronously before the next tick: extract outside any lock, then
// append/update shared state inside the detector's own locking.
func (r *Recorder) run(duration time.Duration, input, output *ledger.Ledger, det *detector.Detector, sessionID string) {
	defer func() {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
	}()

	var source capture.Source
	if r.sourceFactory != nil {
		source = r.sourceFactory()
	} else {
		source = capture.NewSource(r.cfg.CameraID, r.cfg.FrameWidth, r.cfg.FrameHeight, r.log)
	}
	defer source.Close()

	interval := time.Duration(r.cfg.FrameIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	fps := sessionFPS(interval)

	writer, err := gocv.VideoWriterFile(r.cfg.VideoPath, "MJPG", fps, r.cfg.FrameWidth, r.cfg.FrameHeight, true)
	if err != nil {
		r.log.Warning("Video writer unavailable: %v", err)
		writer = nil
	} else {
		defer writer.Close()
	}

	injector := tamper.NewInjector(r.cfg.TamperEveryN)
	mode := fingerprint.ParseMode(r.cfg.FingerprintMode)

	var frameID uint64
	var lastInputFP []int32
	startedAt := time.Now()
	sourceAlive := true

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for time.Since(startedAt) < duration {
		<-ticker.C
		timestamp := time.Now().Format(timestampLayout)

		if !sourceAlive {
			// Session duration is an invariant: when the source is gone,
			// pad by replaying the last known frame's fingerprints.
			if lastInputFP != nil {
				if _, err := det.Evaluate(frameID, timestamp, lastInputFP, lastInputFP); err != nil {
					r.log.Error("Padding frame %d: %v", frameID, err)
					return
				}
				frameID++
			}
			continue
		}

		frame, ok := source.Read()
		if !ok {
			r.log.Warning("Frame source lost at frame %d - padding out session", frameID)
			sourceAlive = false
			continue
		}

		r.annotateTimestamp(&frame, timestamp)

		inputFP := fingerprint.Extract(frame, r.cfg.GridSize, mode)

		outFrame := frame.Clone()
		tampered := r.cfg.TamperEveryN > 0 && injector.Apply(outFrame, frameID)
		outputFP := fingerprint.Extract(outFrame, r.cfg.GridSize, mode)

		res, err := det.Evaluate(frameID, timestamp, inputFP, outputFP)
		if err != nil {
			if errors.Is(err, detector.ErrMalformedFrame) {
				r.log.Warning("Skipping malformed frame %d", frameID)
				frameID++
				continue
			}
			// Ledger misuse is fatal to the session.
			r.log.Error("Session %s aborted: %v", sessionID, err)
			return
		}
		lastInputFP = inputFP

		r.publish(outFrame, res, tampered, writer)
		frameID++
	}

	r.finish(sessionID, startedAt, input, output, det)
}

// sessionFPS converts the producer interval into the video frame rate.
// Float division, so fractional intervals keep their fractional rate.
func sessionFPS(interval time.Duration) float64 {
	return float64(time.Second) / float64(interval)
}

// annotateTimestamp draws the wall clock onto the frame. The overlay is
// applied before fingerprinting and identically on input and output, so it
// never contributes to divergence.
func (r *Recorder) annotateTimestamp(frame *fingerprint.Frame, timestamp string) {
	mat, err := capture.MatFromFrame(*frame)
	if err != nil {
		return
	}
	defer mat.Close()

	gocv.PutText(&mat, timestamp, image.Pt(10, 30), gocv.FontHersheySimplex, 1, color.RGBA{G: 255}, 2)
	*frame = capture.FrameFromMat(mat)
}

// publish encodes the output frame, stamps diverging frames with a marker,
// updates the latest-value slot, appends to the session video, and
// broadcasts the frame status to websocket viewers.
func (r *Recorder) publish(outFrame fingerprint.Frame, res detector.Result, injected bool, writer *gocv.VideoWriter) {
	mat, err := capture.MatFromFrame(outFrame)
	if err != nil {
		r.log.Error("Frame %d: %v", res.FrameID, err)
		return
	}
	defer mat.Close()

	if res.Tampered && r.cfg.TamperMarkers {
		gocv.PutText(&mat, "TAMPERED", image.Pt(outFrame.Cols-200, 50), gocv.FontHersheySimplex, 0.7, color.RGBA{R: 255}, 2)
	}

	if writer != nil && writer.IsOpened() {
		if err := writer.Write(mat); err != nil {
			r.log.Warning("Video write failed at frame %d: %v", res.FrameID, err)
		}
	}

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		r.log.Error("JPEG encode failed at frame %d: %v", res.FrameID, err)
		return
	}
	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())
	buf.Close()

	r.slot.Set(jpeg)

	msg, err := json.Marshal(r.Status())
	if err == nil {
		r.hub.Broadcast(msg)
	}

	if injected && !res.Tampered {
		// A transform too subtle to move any cell mean: pixels changed but
		// the fingerprint did not. Known sensitivity limit of the grid mean.
		r.log.Warning("Injected transform on frame %d left the fingerprint unchanged", res.FrameID)
	}
}

// finish finalizes both ledgers, computes combined digests, and persists
// the session. Persistence failures are reported but never touch the
// finalized in-memory snapshots.
func (r *Recorder) finish(sessionID string, startedAt time.Time, input, output *ledger.Ledger, det *detector.Detector) {
	inSnap := input.Finalize()
	outSnap := output.Finalize()

	aggregation := ledger.ParseAggregationMode(r.cfg.AggregationMode)

	inPath := filepath.Join(r.cfg.LedgerDirectory, "input_sha_log.json")
	outPath := filepath.Join(r.cfg.LedgerDirectory, "output_sha_log.json")
	if err := ledger.Save(inSnap, inPath); err != nil {
		r.log.Error("Saving input ledger: %v", err)
	}
	if err := ledger.Save(outSnap, outPath); err != nil {
		r.log.Error("Saving output ledger: %v", err)
	}

	if r.db != nil {
		r.archive(sessionID, "input", startedAt, inSnap, aggregation)
		r.archive(sessionID, "output", startedAt, outSnap, aggregation)
	}

	tampered := det.TamperedFrames()
	r.log.Info("🏁 Session %s finalized: %d frames, %d tampered", sessionID, inSnap.Len(), len(tampered))
}

func (r *Recorder) archive(sessionID, role string, startedAt time.Time, snap ledger.Snapshot, aggregation ledger.AggregationMode) {
	combined, err := ledger.Combine(snap, aggregation)
	if err != nil {
		r.log.Warning("Combined digest (%s): %v", role, err)
	}
	sess := &database.Session{
		ID:             fmt.Sprintf("%s-%s", sessionID, role),
		Role:           role,
		StartedAt:      startedAt,
		CombinedDigest: combined,
		Aggregation:    string(aggregation),
	}
	if err := r.db.SaveSession(sess, snap); err != nil {
		r.log.Error("Archiving %s ledger: %v", role, err)
	}
}
