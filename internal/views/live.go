package views

import (
	"time"

	"github.com/chihung93/kotlinconf-app/internal/domain"
)

// LiveSessionIDs returns the ids of sessions running at now: sessions with
// startsAt <= now <= endsAt. Empty snapshot yields an empty set.
func LiveSessionIDs(snapshot domain.ConferenceSnapshot, now time.Time) map[string]bool {
	live := make(map[string]bool)
	for _, session := range snapshot.Sessions {
		if !session.StartsAt.After(now) && !session.EndsAt.Before(now) {
			live[session.ID] = true
		}
	}
	return live
}

// UpcomingFavoriteIDs returns the favorited sessions whose start date falls
// on the same calendar day as now in the conference timezone. Empty favorite
// set yields an empty set.
func UpcomingFavoriteIDs(snapshot domain.ConferenceSnapshot, favorites domain.FavoriteSet, now time.Time, loc *time.Location) map[string]bool {
	upcoming := make(map[string]bool)
	if len(favorites) == 0 {
		return upcoming
	}

	today := now.In(loc)
	for _, session := range snapshot.Sessions {
		if !favorites.Has(session.ID) {
			continue
		}
		start := session.StartsAt.In(loc)
		if start.Year() == today.Year() && start.YearDay() == today.YearDay() {
			upcoming[session.ID] = true
		}
	}
	return upcoming
}
