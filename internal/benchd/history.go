package benchd

import (
	"sync"

	"github.com/AzyrRuthless/microbench/internal/suite"
)

// history keeps the most recent run records in memory. Nothing is
// persisted; a restart starts the window empty.
type history struct {
	mu      sync.Mutex
	limit   int
	records []suite.RunRecord
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = 1
	}
	return &history{limit: limit}
}

func (h *history) Add(records ...suite.RunRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, records...)
	if over := len(h.records) - h.limit; over > 0 {
		h.records = append(h.records[:0], h.records[over:]...)
	}
}

// Snapshot returns up to limit records, newest last. limit <= 0 means all.
func (h *history) Snapshot(limit int) []suite.RunRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]suite.RunRecord, n)
	copy(out, h.records[len(h.records)-n:])
	return out
}

func (h *history) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}
