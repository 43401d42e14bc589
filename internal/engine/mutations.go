package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/chihung93/kotlinconf-app/internal/domain"
	apperrors "github.com/chihung93/kotlinconf-app/internal/errors"
	"github.com/chihung93/kotlinconf-app/internal/metrics"
)

// AcceptPrivacyPolicy assigns the installation's user identity on first call
// and registers it with the backend (best-effort: a failed sign-in keeps the
// identity, the next startup retries). Subsequent calls are no-ops.
func (e *Engine) AcceptPrivacyPolicy(ctx context.Context) error {
	if e.userID.Current() != "" {
		return nil
	}

	userID := uuid.NewString()
	e.userID.Set(userID)
	slog.Info("User identity assigned")

	if err := e.api.SignIn(ctx, userID); err != nil {
		slog.Warn("Sign-in after identity assignment failed", "error", err)
		e.report(err)
	}
	return nil
}

// RequestNotificationPermission forwards to the notification collaborator.
func (e *Engine) RequestNotificationPermission(ctx context.Context) (bool, error) {
	if e.notifier == nil {
		return false, nil
	}
	return e.notifier.RequestPermission(ctx)
}

// lockSession serializes mutations per session id so locally-observed state
// matches call order under rapid toggling.
func (e *Engine) lockSession(sessionID string) func() {
	e.mutMu.Lock()
	lock, ok := e.mutLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		e.mutLocks[sessionID] = lock
	}
	e.mutMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// ToggleFavorite flips the favorite membership of a session: the new
// membership is applied to the favorites slot immediately, then confirmed
// remotely. A failed remote call restores the prior membership and publishes
// the failure on the error channel. Adding a favorite also schedules a
// reminder notification; reminder failures never roll back the favorite.
func (e *Engine) ToggleFavorite(ctx context.Context, sessionID string) error {
	userID := e.userID.Current()
	if userID == "" {
		metrics.MutationsTotal.WithLabelValues("favorite", "rejected").Inc()
		return apperrors.UnauthorizedError("favorites require an assigned identity")
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	prior := e.favorites.Current()
	adding := !prior.Has(sessionID)

	if adding {
		e.favorites.Set(prior.With(sessionID))
	} else {
		e.favorites.Set(prior.Without(sessionID))
	}

	var remoteErr error
	if adding {
		remoteErr = e.api.AddFavorite(ctx, userID, sessionID)
	} else {
		remoteErr = e.api.RemoveFavorite(ctx, userID, sessionID)
	}

	if remoteErr != nil {
		e.favorites.Set(prior)
		metrics.MutationsTotal.WithLabelValues("favorite", "rolled_back").Inc()
		metrics.RollbacksTotal.Inc()
		e.report(remoteErr)
		return apperrors.AsStructuredError(remoteErr)
	}

	metrics.MutationsTotal.WithLabelValues("favorite", "applied").Inc()

	if adding {
		e.scheduleReminder(sessionID)
	} else {
		e.cancelReminder(sessionID)
	}
	return nil
}

// Vote records a rating for a session, retracting it when the submitted
// rating equals the recorded one. The new vote map is applied immediately
// and restored wholesale if the remote call fails.
func (e *Engine) Vote(ctx context.Context, sessionID string, rating domain.Rating) error {
	userID := e.userID.Current()
	if userID == "" {
		metrics.MutationsTotal.WithLabelValues("vote", "rejected").Inc()
		return apperrors.UnauthorizedError("voting requires an assigned identity")
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	prior := e.votes.Current()
	retracting := prior.Rating(sessionID) == rating

	if retracting {
		e.votes.Set(prior.Without(sessionID))
	} else {
		e.votes.Set(prior.With(sessionID, rating))
	}

	var remoteErr error
	if retracting {
		remoteErr = e.api.RemoveVote(ctx, userID, sessionID)
	} else {
		remoteErr = e.api.SetVote(ctx, userID, domain.VoteRecord{SessionID: sessionID, Rating: rating})
	}

	if remoteErr != nil {
		e.votes.Set(prior)
		metrics.MutationsTotal.WithLabelValues("vote", "rolled_back").Inc()
		metrics.RollbacksTotal.Inc()
		e.report(remoteErr)
		return apperrors.AsStructuredError(remoteErr)
	}

	metrics.MutationsTotal.WithLabelValues("vote", "applied").Inc()
	return nil
}

func (e *Engine) scheduleReminder(sessionID string) {
	if e.notifier == nil {
		return
	}

	session, err := e.Session(sessionID)
	if err != nil {
		slog.Warn("Reminder skipped, session unknown", "session_id", sessionID)
		return
	}

	at := session.StartsAt.Add(-e.reminderLead)
	notificationID, err := e.notifier.Schedule(session.Title, "Starts at "+session.StartsAt.In(e.location).Format("15:04"), at)
	if err != nil {
		slog.Warn("Reminder scheduling failed", "session_id", sessionID, "error", err)
		return
	}

	e.remindersMu.Lock()
	e.reminders[sessionID] = notificationID
	e.remindersMu.Unlock()
	metrics.NotificationsScheduledTotal.Inc()
}

func (e *Engine) cancelReminder(sessionID string) {
	if e.notifier == nil {
		return
	}

	e.remindersMu.Lock()
	notificationID, ok := e.reminders[sessionID]
	delete(e.reminders, sessionID)
	e.remindersMu.Unlock()

	if !ok {
		return
	}
	if err := e.notifier.Cancel(notificationID); err != nil {
		slog.Warn("Reminder cancel failed", "session_id", sessionID, "error", err)
	}
}
