package engine

import (
	"fmt"
	"sync"

	"github.com/chihung93/kotlinconf-app/internal/domain"
	"github.com/chihung93/kotlinconf-app/internal/metrics"
	"github.com/chihung93/kotlinconf-app/internal/slot"
)

// SessionCard is the per-session presentation aggregate: the session with
// its room, speakers and live video resolved, plus live slots tracking the
// session's favorite, vote and live status. The card struct itself is
// immutable; freshness flows through the three slots.
type SessionCard struct {
	Session  domain.SessionData
	Date     string
	Time     string
	Room     domain.RoomData
	VideoID  string
	Speakers []domain.SpeakerData

	IsFavorite *slot.Slot[bool]
	Rating     *slot.Slot[domain.Rating]
	IsLive     *slot.Slot[bool]
}

// cardCache memoizes assembled cards by session id and owns the subscription
// handles that feed each card's status slots. Entries are created once per
// session id and never evicted; session ids are append-only within a run.
// Owning the handles here keeps the wiring acyclic: the shared slots know
// nothing about cards.
type cardCache struct {
	mu      sync.Mutex
	cards   map[string]*SessionCard
	handles []*slot.Subscription
}

func newCardCache() *cardCache {
	return &cardCache{cards: make(map[string]*SessionCard)}
}

func (c *cardCache) get(sessionID string) (*SessionCard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	card, ok := c.cards[sessionID]
	return card, ok
}

// putIfAbsent stores the card unless another goroutine assembled one first,
// in which case the existing card wins and the caller must release its
// handles.
func (c *cardCache) putIfAbsent(sessionID string, card *SessionCard, handles ...*slot.Subscription) (*SessionCard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cards[sessionID]; ok {
		return existing, false
	}
	c.cards[sessionID] = card
	c.handles = append(c.handles, handles...)
	metrics.CardCacheSize.Set(float64(len(c.cards)))
	return card, true
}

func (c *cardCache) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, handle := range c.handles {
		handle.Cancel()
	}
	c.handles = nil
	c.cards = make(map[string]*SessionCard)
	metrics.CardCacheSize.Set(0)
}

// SessionCard assembles (or returns the memoized) card for a session. Fails
// with a NotFound condition when the session is unknown or has no assigned
// room.
func (e *Engine) SessionCard(sessionID string) (*SessionCard, error) {
	if card, ok := e.cards.get(sessionID); ok {
		return card, nil
	}

	session, err := e.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if session.RoomID == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNoRoomAssigned)
	}

	room, err := e.Room(*session.RoomID)
	if err != nil {
		return nil, err
	}

	speakers, err := e.SessionSpeakers(sessionID)
	if err != nil {
		return nil, err
	}

	var videoID string
	for _, video := range e.snapshot.Current().Videos {
		if video.RoomID == room.ID {
			videoID = video.VideoID
			break
		}
	}

	start := session.StartsAt.In(e.location)
	end := session.EndsAt.In(e.location)

	card := &SessionCard{
		Session:    session,
		Date:       start.Format("Jan 2"),
		Time:       fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04")),
		Room:       room,
		VideoID:    videoID,
		Speakers:   speakers,
		IsFavorite: slot.New("card_favorite", e.favorites.Current().Has(sessionID)),
		Rating:     slot.New("card_rating", e.votes.Current().Rating(sessionID)),
		IsLive:     slot.New("card_live", e.live.Current()[sessionID]),
	}

	favSub := e.favorites.Subscribe(func(favs domain.FavoriteSet) {
		card.IsFavorite.Set(favs.Has(sessionID))
	})
	voteSub := e.votes.Subscribe(func(votes domain.VoteMap) {
		card.Rating.Set(votes.Rating(sessionID))
	})
	liveSub := e.live.Subscribe(func(live map[string]bool) {
		card.IsLive.Set(live[sessionID])
	})

	winner, added := e.cards.putIfAbsent(sessionID, card, favSub, voteSub, liveSub)
	if !added {
		favSub.Cancel()
		voteSub.Cancel()
		liveSub.Cancel()
	}
	return winner, nil
}
