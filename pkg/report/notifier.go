package report

import (
	"context"

	"followsync/pkg/logger"
)

// Sender delivers a report to one destination
type Sender interface {
	Name() string
	Send(ctx context.Context, r *Report) error
}

// Notifier delivers the tracker's report to every configured sender
type Notifier struct {
	tracker *Tracker
	senders []Sender
	logger  logger.Logger
}

// NewNotifier creates a notifier over tracker
func NewNotifier(tracker *Tracker, log logger.Logger, senders ...Sender) *Notifier {
	return &Notifier{tracker: tracker, senders: senders, logger: logger.OrDefault(log)}
}

// Enabled reports whether any sender is configured
func (n *Notifier) Enabled() bool {
	return len(n.senders) > 0
}

// Deliver builds the report and sends it to every sender. Failures are
// logged and never returned. The tracker is cleared once any sender succeeds.
func (n *Notifier) Deliver(ctx context.Context, runID, username string, dryRun bool) *Report {
	r := n.tracker.Build(runID, username, dryRun)
	if !n.Enabled() {
		return r
	}

	delivered := false
	for _, s := range n.senders {
		fields := map[string]interface{}{
			"sender":  s.Name(),
			"run_id":  runID,
			"summary": r.Summary(),
		}
		if err := s.Send(ctx, r); err != nil {
			n.logger.WithError(err).WarnWithFields("Failed to send report", fields)
			continue
		}
		delivered = true
		n.logger.InfoWithFields("Report sent", fields)
	}

	if delivered {
		n.tracker.Clear()
	}
	return r
}
