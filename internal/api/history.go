package api

import (
	"context"
	"fmt"

	"github.com/oscalarm/oscalarm/common"
)

// MaxHistory caps the number of entries one call returns.
const MaxHistory = 500

// History lists recent transitions, newest first.
func (s *Api) History(ctx context.Context, limit int) (*common.HistoryResult, error) {
	res := &common.HistoryResult{Entries: []common.HistoryEntry{}}
	if s.history == nil {
		return res, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxHistory {
		limit = MaxHistory
	}
	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	for _, e := range entries {
		res.Entries = append(res.Entries, common.HistoryEntry{
			CycleID:     e.CycleID,
			At:          e.At,
			From:        e.From,
			To:          e.To,
			Event:       e.Event,
			Cause:       e.Cause,
			SnoozeCount: e.SnoozeCount,
		})
	}
	return res, nil
}
