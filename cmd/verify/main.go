// Command verify compares two frame ledgers and prints a tamper verdict.
// Ledgers can come from persisted JSON sha logs, from the session archive
// database, or be derived on the spot by analyzing two video files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"streamauth/internal/compare"
	"streamauth/internal/database"
	"streamauth/internal/fingerprint"
	"streamauth/internal/ledger"
	"streamauth/internal/verify"
)

func main() {
	ledgerA := flag.String("a", "", "Path to the first ledger JSON file")
	ledgerB := flag.String("b", "", "Path to the second ledger JSON file")
	videoA := flag.String("video-a", "", "Path to the first video file (analyzed instead of a ledger)")
	videoB := flag.String("video-b", "", "Path to the second video file")
	sessionA := flag.String("session-a", "", "Archived session id for side A")
	sessionB := flag.String("session-b", "", "Archived session id for side B")
	dbPath := flag.String("db", "data/sessions.db", "Session archive database path")
	gridSize := flag.Int("grid", fingerprint.DefaultGridSize, "Fingerprint grid size for video analysis")
	mode := flag.String("mode", "sum", "Fingerprint mode for video analysis: sum or conditioned")
	aggregation := flag.String("aggregation", "fingerprints", "Combined digest strategy: fingerprints or digests")
	tolerance := flag.Int("tolerance", compare.DefaultTolerance, "Per-cell fingerprint tolerance")
	threshold := flag.Float64("threshold", compare.DefaultThresholdRatio, "Differing/matched ratio for TAMPERED")
	flag.Parse()

	snapA, err := loadSide(*ledgerA, *videoA, *sessionA, *dbPath, *gridSize, *mode)
	if err != nil {
		log.Fatalf("Failed to load side A: %v", err)
	}
	snapB, err := loadSide(*ledgerB, *videoB, *sessionB, *dbPath, *gridSize, *mode)
	if err != nil {
		log.Fatalf("Failed to load side B: %v", err)
	}

	opts := compare.Options{Tolerance: int32(*tolerance), ThresholdRatio: *threshold}
	verdict, err := compare.Compare(snapA, snapB, opts)
	if err != nil {
		if errors.Is(err, compare.ErrNoCommonFrames) {
			log.Fatalf("Comparison impossible: %v", err)
		}
		log.Fatalf("Comparison failed: %v", err)
	}

	fmt.Printf("Matched frames:     %d\n", verdict.MatchedFrameCount)
	fmt.Printf("Differing frames:   %d (tolerance %d)\n", verdict.DifferingFrameCount, *tolerance)
	fmt.Printf("Hash mismatches:    %d\n", len(verdict.HashMismatchFrameIDs))
	if len(verdict.HashMismatchFrameIDs) > 0 {
		fmt.Printf("Mismatched frames:  %v\n", verdict.HashMismatchFrameIDs)
	}

	combined, err := compare.CombinedEqual(snapA, snapB, ledger.ParseAggregationMode(*aggregation))
	if err != nil {
		fmt.Printf("Combined digest:    unavailable (%v)\n", err)
	} else {
		fmt.Printf("Combined digest A:  %s\n", combined.DigestA)
		fmt.Printf("Combined digest B:  %s\n", combined.DigestB)
		fmt.Printf("Combined equal:     %v\n", combined.Equal)
	}

	if verdict.Classification == compare.Tampered {
		fmt.Println("❌ Verdict: TAMPERED")
		os.Exit(1)
	}
	fmt.Println("✅ Verdict: AUTHENTIC")
}

// loadSide resolves one comparison side from whichever input was given:
// a JSON sha log, a video file, or an archived session.
func loadSide(ledgerPath, videoPath, sessionID, dbPath string, gridSize int, mode string) (ledger.Snapshot, error) {
	switch {
	case ledgerPath != "":
		return ledger.Load(ledgerPath)
	case videoPath != "":
		fmt.Printf("Analyzing video %s...\n", videoPath)
		return verify.AnalyzeVideo(videoPath, gridSize, fingerprint.ParseMode(mode))
	case sessionID != "":
		db, err := database.New(dbPath)
		if err != nil {
			return ledger.Snapshot{}, err
		}
		defer db.Close()
		return db.LoadSnapshot(sessionID)
	default:
		return ledger.Snapshot{}, errors.New("no ledger, video, or session given (see -h)")
	}
}
