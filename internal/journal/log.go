package journal

import (
	"context"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/pkg/logger"
)

// LogJournal writes fallback entries to the structured log as unredacted
// audit entries. Used when no Redis is configured; recovery then means
// grepping the logs for "fallback entry".
type LogJournal struct{}

func (LogJournal) Record(_ context.Context, entry domain.FallbackEntry) error {
	logger.Audit("fallback entry",
		"fallback_id", entry.ID,
		"email", entry.Email,
		"action", string(entry.Action),
		"source", entry.Source,
		"reason", entry.Reason,
		"occurred_at", entry.OccurredAt.Format("2006-01-02T15:04:05.000Z07:00"),
	)
	return nil
}
