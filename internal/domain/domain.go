// Package domain holds the conference model types and the collaborator
// contracts the engine depends on. It has no dependencies on the rest of
// the module.
package domain

import (
	"context"
	"time"
)

// --- Model types ---

// SessionData is one talk/workshop/break as delivered by the backend.
// Immutable once part of a ConferenceSnapshot.
type SessionData struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	RoomID      *int      `json:"roomId"`
	SpeakerIDs  []string  `json:"speakers"`
}

type SpeakerData struct {
	ID         string   `json:"id"`
	FullName   string   `json:"fullName"`
	TagLine    string   `json:"tagLine"`
	Bio        string   `json:"bio"`
	PhotoURL   string   `json:"profilePicture"`
	SessionIDs []string `json:"sessions"`
}

type RoomData struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Sort int    `json:"sort"`
}

// LiveVideo maps a room to its live stream while the conference is running.
type LiveVideo struct {
	RoomID  int    `json:"room"`
	VideoID string `json:"videoId"`
}

// ConferenceSnapshot is the server-confirmed conference state at last fetch.
// Replaced wholesale on refresh, never mutated in place.
type ConferenceSnapshot struct {
	Sessions []SessionData `json:"sessions"`
	Speakers []SpeakerData `json:"speakers"`
	Rooms    []RoomData    `json:"rooms"`
	Videos   []LiveVideo   `json:"liveVideos"`
}

// Empty reports whether the snapshot has never been populated.
func (s ConferenceSnapshot) Empty() bool {
	return len(s.Sessions) == 0
}

// Rating is a vote level for a session. The zero value means "no vote".
type Rating string

const (
	RatingNone Rating = ""
	RatingBad  Rating = "bad"
	RatingOK   Rating = "ok"
	RatingGood Rating = "good"
)

// FavoriteSet holds the session ids the user has favorited. Values are
// treated as immutable snapshots: mutations go through With/Without which
// return copies, so a published set is never changed afterwards.
type FavoriteSet map[string]bool

func (f FavoriteSet) Has(sessionID string) bool { return f[sessionID] }

// With returns a copy of the set with sessionID added.
func (f FavoriteSet) With(sessionID string) FavoriteSet {
	next := make(FavoriteSet, len(f)+1)
	for id := range f {
		next[id] = true
	}
	next[sessionID] = true
	return next
}

// Without returns a copy of the set with sessionID removed.
func (f FavoriteSet) Without(sessionID string) FavoriteSet {
	next := make(FavoriteSet, len(f))
	for id := range f {
		if id != sessionID {
			next[id] = true
		}
	}
	return next
}

// VoteMap maps session ids to the user's rating. Same copy-on-write
// discipline as FavoriteSet.
type VoteMap map[string]Rating

func (v VoteMap) Rating(sessionID string) Rating { return v[sessionID] }

func (v VoteMap) With(sessionID string, rating Rating) VoteMap {
	next := make(VoteMap, len(v)+1)
	for id, r := range v {
		next[id] = r
	}
	next[sessionID] = rating
	return next
}

func (v VoteMap) Without(sessionID string) VoteMap {
	next := make(VoteMap, len(v))
	for id, r := range v {
		if id != sessionID {
			next[id] = r
		}
	}
	return next
}

// VoteRecord is the wire shape of a single vote.
type VoteRecord struct {
	SessionID string `json:"sessionId"`
	Rating    Rating `json:"rating"`
}

// FeedPost is one entry of the social feed snapshot.
type FeedPost struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	UserName   string    `json:"userName"`
	UserHandle string    `json:"userHandle"`
	AvatarURL  string    `json:"avatarUrl"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FeedSnapshot is the latest social feed payload, replaced wholesale on fetch.
type FeedSnapshot struct {
	Posts     []FeedPost `json:"posts"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

// AllData is the complete payload of a full refresh. Favorites and Votes are
// only populated when the request carried a user identity.
type AllData struct {
	Snapshot  ConferenceSnapshot
	Favorites []string
	Votes     []VoteRecord
}

// --- Collaborator interfaces ---

// API is the remote backend contract. Implementations translate transport
// failures into the typed errors of this package; callers never see raw
// status codes.
type API interface {
	SignIn(ctx context.Context, userID string) error
	FetchAll(ctx context.Context, userID string) (*AllData, error)
	AddFavorite(ctx context.Context, userID, sessionID string) error
	RemoveFavorite(ctx context.Context, userID, sessionID string) error
	SetVote(ctx context.Context, userID string, vote VoteRecord) error
	RemoveVote(ctx context.Context, userID, sessionID string) error
	FetchFeed(ctx context.Context) (FeedSnapshot, error)
}

// SlotStore persists observable slot values keyed by a stable name. A slot
// writes through on every Set and restores at construction.
type SlotStore interface {
	Restore(name string) (value []byte, found bool, err error)
	Persist(name string, value []byte) error
}

// Notifier schedules local reminder notifications. Fire-and-forget from the
// engine's perspective: failures never roll back the action that triggered
// the reminder.
type Notifier interface {
	Schedule(title, body string, at time.Time) (notificationID string, err error)
	Cancel(notificationID string) error
	RequestPermission(ctx context.Context) (bool, error)
}
