package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chihung93/kotlinconf-app/internal/domain"
)

func TestSessionCard_AssemblesPresentation(t *testing.T) {
	e := newTestEngine(t, &fakeAPI{}, nil)

	card, err := e.SessionCard("a")
	require.NoError(t, err)

	assert.Equal(t, "Dec 4", card.Date)
	assert.Equal(t, "10:00-10:30", card.Time)
	assert.Equal(t, "Aud 1", card.Room.Name)
	assert.Equal(t, "yt-1", card.VideoID)
	require.Len(t, card.Speakers, 1)
	assert.Equal(t, "Ada Example", card.Speakers[0].FullName)

	assert.False(t, card.IsFavorite.Current())
	assert.Equal(t, domain.RatingNone, card.Rating.Current())
}

func TestSessionCard_Memoized(t *testing.T) {
	e := newTestEngine(t, &fakeAPI{}, nil)

	first, err := e.SessionCard("a")
	require.NoError(t, err)
	second, err := e.SessionCard("a")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestSessionCard_UnknownSession(t *testing.T) {
	e := newTestEngine(t, &fakeAPI{}, nil)

	_, err := e.SessionCard("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionCard_NoRoomAssigned(t *testing.T) {
	e := newTestEngine(t, &fakeAPI{}, nil)

	_, err := e.SessionCard("c")
	assert.ErrorIs(t, err, domain.ErrNoRoomAssigned)
}

func TestSessionCard_StatusSlotsTrackState(t *testing.T) {
	e := newTestEngine(t, &fakeAPI{}, nil)

	card, err := e.SessionCard("a")
	require.NoError(t, err)

	require.NoError(t, e.ToggleFavorite(context.Background(), "a"))
	assert.True(t, card.IsFavorite.Current())

	require.NoError(t, e.Vote(context.Background(), "a", domain.RatingGood))
	assert.Equal(t, domain.RatingGood, card.Rating.Current())

	e.live.Set(map[string]bool{"a": true})
	assert.True(t, card.IsLive.Current())

	require.NoError(t, e.ToggleFavorite(context.Background(), "a"))
	assert.False(t, card.IsFavorite.Current())
}

func TestCardCache_ReleaseClearsEntries(t *testing.T) {
	e := newTestEngine(t, &fakeAPI{}, nil)

	_, err := e.SessionCard("a")
	require.NoError(t, err)

	e.cards.release()

	_, ok := e.cards.get("a")
	assert.False(t, ok)
}
