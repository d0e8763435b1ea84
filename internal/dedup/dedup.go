package dedup

import (
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/normalize"
)

// Stats summarizes one deduplication run.
type Stats struct {
	Input  int
	Output int
	// Dropped is the number of older duplicates discarded.
	Dropped int
}

// CreatedAtMillis returns the creation time of a raw report in epoch
// milliseconds. Missing or unparsable timestamps count as 0 so that any real
// timestamp is newer.
func CreatedAtMillis(raw domain.RawReport) int64 {
	v, ok := normalize.CreatedAt(raw)
	if !ok {
		return 0
	}
	ts, ok := normalize.ParseTimestamp(v)
	if !ok {
		return 0
	}
	return ts.UnixMilli()
}

// Deduplicate keeps the newest report of every signature group. On equal
// timestamps the report that comes later in raws wins. Groups are returned in
// the order their signature was first seen; raws is not modified.
//
// Deduplicate needs the complete list of a report type: running it on a
// partial list keeps duplicates that the rest of the list would have replaced.
func Deduplicate(raws []domain.RawReport) []domain.RawReport {
	out, _ := DeduplicateWithStats(raws)
	return out
}

// DeduplicateWithStats is Deduplicate plus counts for logging and metrics.
func DeduplicateWithStats(raws []domain.RawReport) ([]domain.RawReport, Stats) {
	type champion struct {
		raw       domain.RawReport
		createdAt int64
	}

	order := make([]string, 0, len(raws))
	best := make(map[string]champion, len(raws))

	for _, raw := range raws {
		sig := SignatureOf(raw)
		ts := CreatedAtMillis(raw)

		current, seen := best[sig]
		if !seen {
			order = append(order, sig)
		}
		if !seen || ts >= current.createdAt {
			best[sig] = champion{raw: raw, createdAt: ts}
		}
	}

	out := make([]domain.RawReport, 0, len(order))
	for _, sig := range order {
		out = append(out, best[sig].raw)
	}

	return out, Stats{Input: len(raws), Output: len(out), Dropped: len(raws) - len(out)}
}
