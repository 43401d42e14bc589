package engine

import (
	"context"
	"log/slog"

	"github.com/chihung93/kotlinconf-app/internal/domain"
	apperrors "github.com/chihung93/kotlinconf-app/internal/errors"
	"github.com/chihung93/kotlinconf-app/internal/metrics"
	"github.com/chihung93/kotlinconf-app/internal/views"
)

// Start launches the background sync scheduler: a startup sequence (sign-in,
// refresh when the local snapshot is empty) followed by the recurring cycle.
// The cycle runs for the lifetime of the engine; it is not tied to any UI
// lifecycle. Calling Start more than once is a no-op.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.started.Store(true)
		go e.run()
	})
}

// Stop halts the scheduler and releases all internal subscription wiring.
// Idempotent; safe to call before Start.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})

	if e.started.Load() {
		<-e.runDone
	}

	for _, handle := range e.wiring {
		handle.Cancel()
	}
	e.cards.release()
}

func (e *Engine) run() {
	defer close(e.runDone)

	e.startup()

	ticker := e.clock.NewTicker(e.syncInterval)
	defer ticker.Stop()

	for {
		e.cycle()

		select {
		case <-ticker.Chan():
		case <-e.stopCh:
			return
		}
	}
}

// startup authenticates the stored identity (best-effort) before the first
// cycle. The first cycle itself handles the empty-snapshot refresh.
func (e *Engine) startup() {
	userID := e.userID.Current()
	if userID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := e.api.SignIn(ctx, userID); err != nil {
		slog.Warn("Startup sign-in failed", "error", err)
	}
}

// cycle runs one scheduler pass: refresh when the snapshot is empty, then
// recompute the time-dependent views and re-pull the feed. Each sub-step's
// failure is reported and does not abort the remaining steps.
func (e *Engine) cycle() {
	metrics.SchedulerCyclesTotal.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if e.snapshot.Current().Empty() {
		if err := e.Refresh(ctx); err == nil {
			// Refresh ran the remaining steps itself.
			return
		}
		metrics.SchedulerStepFailuresTotal.WithLabelValues("refresh").Inc()
		// Refresh already reported; retried next tick. The remaining steps
		// still run so the feed stays fresh while /all is down.
	}

	e.updateLive()
	e.updateUpcoming()
	e.fetchFeed(ctx)
}

// Refresh fetches the complete conference payload and replaces the snapshot,
// favorite and vote slots wholesale, then runs the recurring-cycle steps
// once. A failed refresh leaves every slot at its previous value. Concurrent
// calls are collapsed into one fetch.
func (e *Engine) Refresh(ctx context.Context) error {
	_, err, _ := e.refreshGroup.Do("refresh", func() (any, error) {
		start := e.clock.Now()

		all, err := e.api.FetchAll(ctx, e.userID.Current())
		if err != nil {
			metrics.RefreshesTotal.WithLabelValues("failure").Inc()
			e.report(err)
			return nil, apperrors.AsStructuredError(err)
		}

		favorites := make(domain.FavoriteSet, len(all.Favorites))
		for _, id := range all.Favorites {
			favorites[id] = true
		}

		votes := make(domain.VoteMap, len(all.Votes))
		for _, vote := range all.Votes {
			if vote.Rating != domain.RatingNone {
				votes[vote.SessionID] = vote.Rating
			}
		}

		e.snapshot.Set(all.Snapshot)
		e.favorites.Set(favorites)
		e.votes.Set(votes)

		metrics.RefreshesTotal.WithLabelValues("success").Inc()
		metrics.RefreshDuration.Observe(e.clock.Since(start).Seconds())
		slog.Info("Conference data refreshed",
			"sessions", len(all.Snapshot.Sessions),
			"favorites", len(favorites),
			"votes", len(votes),
		)

		e.updateLive()
		e.updateUpcoming()
		e.fetchFeed(ctx)
		return nil, nil
	})
	return err
}

func (e *Engine) updateLive() {
	snapshot := e.snapshot.Current()
	if snapshot.Empty() {
		e.live.Set(map[string]bool{})
		return
	}
	e.live.Set(views.LiveSessionIDs(snapshot, e.now()))
}

func (e *Engine) updateUpcoming() {
	favorites := e.favorites.Current()
	if len(favorites) == 0 {
		e.upcoming.Set(map[string]bool{})
		return
	}
	e.upcoming.Set(views.UpcomingFavoriteIDs(e.snapshot.Current(), favorites, e.now(), e.location))
}

func (e *Engine) fetchFeed(ctx context.Context) {
	feed, err := e.api.FetchFeed(ctx)
	if err != nil {
		metrics.FeedFetchesTotal.WithLabelValues("failure").Inc()
		metrics.SchedulerStepFailuresTotal.WithLabelValues("feed").Inc()
		e.report(err)
		return
	}
	metrics.FeedFetchesTotal.WithLabelValues("success").Inc()
	e.feed.Set(feed)
}
