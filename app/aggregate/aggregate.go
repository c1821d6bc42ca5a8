// Package aggregate computes portfolio statistics from scratch on every
// call. Incremental counters were rejected on purpose: a full fold over the
// current activity set cannot drift, whatever order transitions commit in.
package aggregate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/mohdfarhan01/ACADVault/app/model"
)

// Compute folds a student's activity references into portfolio stats.
// The source checksum fingerprints the exact (id, version) set the stats
// were derived from, for staleness detection.
func Compute(refs []model.ActivityRef) model.PortfolioStats {
	var stats model.PortfolioStats
	stats.TotalActivities = len(refs)

	for _, ref := range refs {
		switch ref.Status {
		case model.StatusVerified:
			stats.VerifiedCount++
			stats.TotalPoints += ref.AwardedPoints
		case model.StatusPending:
			stats.PendingCount++
		case model.StatusRejected:
			stats.RejectedCount++
		}
	}

	stats.SourceChecksum = checksum(refs)
	return stats
}

func checksum(refs []model.ActivityRef) string {
	lines := make([]string, 0, len(refs))
	for _, ref := range refs {
		lines = append(lines, fmt.Sprintf("%s:%d", ref.ID, ref.Version))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
