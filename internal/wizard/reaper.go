package wizard

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RunReaper periodically discards expired sessions. An expired session is an
// implicit cancellation: the user walked away mid-wizard and the draft must
// not linger. Blocks until ctx is done.
func (w *Wizard) RunReaper(ctx context.Context, interval time.Duration) {
	log.Info("Starting session reaper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping session reaper")
			return
		case <-ticker.C:
			w.reapOnce(ctx)
		}
	}
}

func (w *Wizard) reapOnce(ctx context.Context) {
	expired, err := w.repo.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		log.Errorf("Error reaping expired sessions: %v", err)
		return
	}

	for _, sess := range expired {
		w.notifyAsync(sess.UserID, "expired", "abandoned session discarded")
	}
}
