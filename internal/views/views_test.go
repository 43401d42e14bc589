package views

import (
	"testing"
	"time"

	"github.com/chihung93/kotlinconf-app/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cph = time.FixedZone("CET", 3600)

func session(id, title string, start, end time.Time) domain.SessionData {
	return domain.SessionData{ID: id, Title: title, StartsAt: start, EndsAt: end}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2019, time.December, day, hour, minute, 0, 0, cph)
}

func TestGroupByDayEmptyInput(t *testing.T) {
	assert.Empty(t, GroupByDay(nil, cph))
	assert.Empty(t, GroupByDay([]domain.SessionData{}, cph))
}

func TestGroupByDayTwoDays(t *testing.T) {
	sessions := []domain.SessionData{
		session("b", "Coroutines", at(5, 10, 0), at(5, 10, 45)),
		session("a", "Keynote", at(4, 9, 0), at(4, 10, 0)),
		session("c", "Compose", at(5, 11, 0), at(5, 11, 45)),
	}

	groups := GroupByDay(sessions, cph)
	require.Len(t, groups, 5)

	// Day 1 marker, keynote slot, day 2 marker, two slots.
	assert.True(t, groups[0].DaySection)
	assert.Equal(t, "Wednesday, Dec 4", groups[0].Title)

	assert.False(t, groups[1].DaySection)
	require.Len(t, groups[1].Sessions, 1)
	assert.Equal(t, "a", groups[1].Sessions[0].ID)

	assert.True(t, groups[2].DaySection)
	assert.Equal(t, "Thursday, Dec 5", groups[2].Title)

	assert.Equal(t, "10:00", groups[3].Title)
	assert.Equal(t, "b", groups[3].Sessions[0].ID)
	assert.Equal(t, "11:00", groups[4].Title)
	assert.Equal(t, "c", groups[4].Sessions[0].ID)
}

func TestGroupByDayExactlyOneMarkerPerDay(t *testing.T) {
	sessions := []domain.SessionData{
		session("a", "Talk A", at(4, 10, 0), at(4, 10, 30)),
		session("b", "Talk B", at(4, 10, 0), at(4, 10, 30)),
		session("c", "Talk C", at(4, 14, 0), at(4, 14, 30)),
		session("d", "Talk D", at(5, 10, 0), at(5, 10, 30)),
	}

	groups := GroupByDay(sessions, cph)

	markers := 0
	for _, g := range groups {
		if g.DaySection {
			markers++
		}
	}
	assert.Equal(t, 2, markers)

	// Sessions sharing a start time share a slot group.
	require.False(t, groups[1].DaySection)
	assert.Len(t, groups[1].Sessions, 2)
}

func TestGroupByDayStartTimeOrderWithinDay(t *testing.T) {
	sessions := []domain.SessionData{
		session("late", "Late", at(4, 16, 0), at(4, 17, 0)),
		session("early", "Early", at(4, 9, 0), at(4, 10, 0)),
		session("mid", "Mid", at(4, 12, 30), at(4, 13, 0)),
	}

	groups := GroupByDay(sessions, cph)
	require.Len(t, groups, 4)

	var previous time.Time
	for _, g := range groups[1:] {
		assert.False(t, g.StartsAt.Before(previous))
		previous = g.StartsAt
	}
}

func TestGroupByDayLunchMarker(t *testing.T) {
	sessions := []domain.SessionData{
		session("a", "Talk A", at(5, 11, 0), at(5, 12, 0)),
		session("l", "Lunch break", at(5, 12, 0), at(5, 13, 0)),
		session("b", "Talk B", at(5, 13, 0), at(5, 14, 0)),
	}

	groups := GroupByDay(sessions, cph)
	require.Len(t, groups, 4)

	assert.True(t, groups[2].LunchSection)
	assert.Equal(t, "Lunch break", groups[2].Title)
	assert.Empty(t, groups[2].Sessions)
}

func TestLiveSessionIDsEmptySnapshot(t *testing.T) {
	live := LiveSessionIDs(domain.ConferenceSnapshot{}, at(5, 10, 15))
	assert.Empty(t, live)
}

func TestLiveSessionIDsScenario(t *testing.T) {
	snapshot := domain.ConferenceSnapshot{Sessions: []domain.SessionData{
		session("A", "Talk A", at(5, 10, 0), at(5, 10, 30)),
		session("B", "Talk B", at(5, 10, 30), at(5, 11, 0)),
	}}

	assert.Equal(t, map[string]bool{"A": true}, LiveSessionIDs(snapshot, at(5, 10, 15)))
	assert.Equal(t, map[string]bool{"B": true}, LiveSessionIDs(snapshot, at(5, 10, 45)))

	// Boundary: a session is live at both its start and end instants.
	boundary := LiveSessionIDs(snapshot, at(5, 10, 30))
	assert.Equal(t, map[string]bool{"A": true, "B": true}, boundary)
}

func TestLiveSessionIDsDeterministic(t *testing.T) {
	snapshot := domain.ConferenceSnapshot{Sessions: []domain.SessionData{
		session("A", "Talk A", at(5, 10, 0), at(5, 10, 30)),
	}}
	now := at(5, 10, 15)

	assert.Equal(t, LiveSessionIDs(snapshot, now), LiveSessionIDs(snapshot, now))
}

func TestUpcomingFavoriteIDsEmptyFavorites(t *testing.T) {
	snapshot := domain.ConferenceSnapshot{Sessions: []domain.SessionData{
		session("A", "Talk A", at(5, 10, 0), at(5, 10, 30)),
	}}

	upcoming := UpcomingFavoriteIDs(snapshot, domain.FavoriteSet{}, at(5, 9, 0), cph)
	assert.Empty(t, upcoming)
}

func TestUpcomingFavoriteIDsScenario(t *testing.T) {
	snapshot := domain.ConferenceSnapshot{Sessions: []domain.SessionData{
		session("A", "Talk A", at(5, 10, 0), at(5, 10, 30)),
		session("B", "Talk B", at(5, 10, 30), at(5, 11, 0)),
		session("C", "Talk C", at(6, 10, 0), at(6, 10, 30)),
	}}
	favorites := domain.FavoriteSet{"B": true, "C": true}

	upcoming := UpcomingFavoriteIDs(snapshot, favorites, at(5, 10, 45), cph)
	assert.Equal(t, map[string]bool{"B": true}, upcoming)
}

func TestUpcomingFavoriteIDsRespectsYear(t *testing.T) {
	nextYear := session("A", "Talk A",
		time.Date(2020, time.December, 5, 10, 0, 0, 0, cph),
		time.Date(2020, time.December, 5, 10, 30, 0, 0, cph))
	snapshot := domain.ConferenceSnapshot{Sessions: []domain.SessionData{nextYear}}

	upcoming := UpcomingFavoriteIDs(snapshot, domain.FavoriteSet{"A": true}, at(5, 9, 0), cph)
	assert.Empty(t, upcoming)
}
