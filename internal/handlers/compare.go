package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"streamauth/internal/compare"
	"streamauth/internal/config"
	"streamauth/internal/dto"
	"streamauth/internal/ledger"
	"streamauth/internal/logger"
)

// CompareLedgersHandler runs the offline comparator over the last finalized
// session's input and output sha logs and returns the verdict.
func CompareLedgersHandler(cfg *config.Config, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inSnap, err := ledger.Load(filepath.Join(cfg.LedgerDirectory, "input_sha_log.json"))
		if err != nil {
			http.Error(w, "Input ledger not available", http.StatusNotFound)
			return
		}
		outSnap, err := ledger.Load(filepath.Join(cfg.LedgerDirectory, "output_sha_log.json"))
		if err != nil {
			http.Error(w, "Output ledger not available", http.StatusNotFound)
			return
		}

		opts := compare.Options{
			Tolerance:      int32(cfg.Tolerance),
			ThresholdRatio: cfg.ThresholdRatio,
		}
		verdict, err := compare.Compare(inSnap, outSnap, opts)
		if err != nil {
			if errors.Is(err, compare.ErrNoCommonFrames) {
				http.Error(w, "Ledgers share no frames", http.StatusUnprocessableEntity)
				return
			}
			log.Error("Comparison failed: %v", err)
			http.Error(w, "Comparison failed", http.StatusInternalServerError)
			return
		}

		resp := dto.VerdictResponse{
			Classification:       string(verdict.Classification),
			MatchedFrameCount:    verdict.MatchedFrameCount,
			DifferingFrameCount:  verdict.DifferingFrameCount,
			HashMismatchFrameIDs: verdict.HashMismatchFrameIDs,
		}
		if resp.HashMismatchFrameIDs == nil {
			resp.HashMismatchFrameIDs = []uint64{}
		}

		mode := ledger.ParseAggregationMode(cfg.AggregationMode)
		if combined, err := compare.CombinedEqual(inSnap, outSnap, mode); err == nil {
			resp.CombinedDigestA = combined.DigestA
			resp.CombinedDigestB = combined.DigestB
			resp.CombinedEqual = combined.Equal
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
