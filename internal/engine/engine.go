// Package engine implements the client-resident sync/state engine: the
// observable slots holding conference data and user state, the derived views
// recomputed from them, the periodic sync scheduler and the optimistic
// mutation coordinator. The UI talks to the engine exclusively through slot
// subscriptions and the mutation methods; the engine talks to the outside
// world exclusively through the collaborator interfaces in the domain
// package.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/chihung93/kotlinconf-app/internal/domain"
	apperrors "github.com/chihung93/kotlinconf-app/internal/errors"
	"github.com/chihung93/kotlinconf-app/internal/slot"
	"github.com/chihung93/kotlinconf-app/internal/views"
)

const (
	defaultSyncInterval = 60 * time.Second
	defaultReminderLead = 10 * time.Minute
	startupTimeout      = 30 * time.Second
)

// Options configures a new Engine. API is required; everything else has a
// sensible default.
type Options struct {
	API      domain.API
	Store    domain.SlotStore // nil disables persistence
	Notifier domain.Notifier  // nil disables reminders
	Clock    clockwork.Clock

	// Location is the conference timezone used for all calendar-dependent
	// derivations. Defaults to UTC.
	Location *time.Location

	// FrozenTime pins the reference time for live/upcoming computation.
	// Zero means the real clock is used.
	FrozenTime time.Time

	SyncInterval time.Duration
	ReminderLead time.Duration
}

// Engine is the single explicitly-constructed instance coordinating all
// state. Create it with New, start the background sync with Start, and
// release its resources with Stop.
type Engine struct {
	api      domain.API
	notifier domain.Notifier
	clock    clockwork.Clock

	location     *time.Location
	frozenTime   time.Time
	syncInterval time.Duration
	reminderLead time.Duration

	// Raw slots: server-confirmed or user-owned state.
	snapshot  *slot.Slot[domain.ConferenceSnapshot]
	favorites *slot.Slot[domain.FavoriteSet]
	votes     *slot.Slot[domain.VoteMap]
	userID    *slot.Slot[string]
	feed      *slot.Slot[domain.FeedSnapshot]

	// Derived slots, recomputed by the scheduler or by internal wiring.
	live             *slot.Slot[map[string]bool]
	upcoming         *slot.Slot[map[string]bool]
	schedule         *slot.Slot[[]views.ScheduleGroup]
	favoriteSchedule *slot.Slot[[]views.ScheduleGroup]
	speakers         *slot.Slot[[]domain.SpeakerData]

	// errs is the process-wide error notification channel (latest error,
	// nil until the first failure).
	errs *slot.Slot[*apperrors.Error]

	cards *cardCache

	refreshGroup singleflight.Group

	mutMu    sync.Mutex
	mutLocks map[string]*sync.Mutex

	remindersMu sync.Mutex
	reminders   map[string]string // session id -> notification id

	wiring []*slot.Subscription

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopCh    chan struct{}
	runDone   chan struct{}
}

// New creates an engine with all slots restored from the store (when given)
// and internal derived-view wiring in place. The sync scheduler does not run
// until Start is called.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = defaultSyncInterval
	}
	if opts.ReminderLead <= 0 {
		opts.ReminderLead = defaultReminderLead
	}

	e := &Engine{
		api:          opts.API,
		notifier:     opts.Notifier,
		clock:        opts.Clock,
		location:     opts.Location,
		frozenTime:   opts.FrozenTime,
		syncInterval: opts.SyncInterval,
		reminderLead: opts.ReminderLead,
		mutLocks:     make(map[string]*sync.Mutex),
		reminders:    make(map[string]string),
		stopCh:       make(chan struct{}),
		runDone:      make(chan struct{}),
	}

	e.snapshot = newSlot(opts.Store, "conference", domain.ConferenceSnapshot{})
	e.favorites = newSlot(opts.Store, "favorites", domain.FavoriteSet{})
	e.votes = newSlot(opts.Store, "votes", domain.VoteMap{})
	e.userID = newSlot(opts.Store, "user_id", "")

	e.feed = slot.New("feed", domain.FeedSnapshot{})
	e.live = slot.New("live_sessions", map[string]bool{})
	e.upcoming = slot.New("upcoming_favorites", map[string]bool{})
	e.schedule = slot.New("schedule", []views.ScheduleGroup(nil))
	e.favoriteSchedule = slot.New("favorite_schedule", []views.ScheduleGroup(nil))
	e.speakers = slot.New("speakers", []domain.SpeakerData(nil))
	e.errs = slot.New[*apperrors.Error]("errors", nil)

	e.cards = newCardCache()

	// Derived-view wiring: the schedule views follow their inputs, so a
	// restored snapshot populates them before the first refresh.
	e.wiring = append(e.wiring,
		e.snapshot.Subscribe(func(snap domain.ConferenceSnapshot) {
			e.schedule.Set(views.GroupByDay(snap.Sessions, e.location))
			e.speakers.Set(snap.Speakers)
			e.recomputeFavoriteSchedule()
		}),
		e.favorites.Subscribe(func(domain.FavoriteSet) {
			e.recomputeFavoriteSchedule()
		}),
	)

	return e
}

func newSlot[T any](store domain.SlotStore, name string, initial T) *slot.Slot[T] {
	if store == nil {
		return slot.New(name, initial)
	}
	return slot.NewPersistent(name, initial, store)
}

func (e *Engine) recomputeFavoriteSchedule() {
	snap := e.snapshot.Current()
	favs := e.favorites.Current()

	var sessions []domain.SessionData
	for _, session := range snap.Sessions {
		if favs.Has(session.ID) {
			sessions = append(sessions, session)
		}
	}
	e.favoriteSchedule.Set(views.GroupByDay(sessions, e.location))
}

// now returns the reference time for time-dependent derivations, in the
// conference timezone.
func (e *Engine) now() time.Time {
	if !e.frozenTime.IsZero() {
		return e.frozenTime.In(e.location)
	}
	return e.clock.Now().In(e.location)
}

// --- Slot accessors ---

func (e *Engine) Snapshot() *slot.Slot[domain.ConferenceSnapshot]     { return e.snapshot }
func (e *Engine) Favorites() *slot.Slot[domain.FavoriteSet]           { return e.favorites }
func (e *Engine) Votes() *slot.Slot[domain.VoteMap]                   { return e.votes }
func (e *Engine) Feed() *slot.Slot[domain.FeedSnapshot]               { return e.feed }
func (e *Engine) LiveSessions() *slot.Slot[map[string]bool]           { return e.live }
func (e *Engine) UpcomingFavorites() *slot.Slot[map[string]bool]      { return e.upcoming }
func (e *Engine) Schedule() *slot.Slot[[]views.ScheduleGroup]         { return e.schedule }
func (e *Engine) FavoriteSchedule() *slot.Slot[[]views.ScheduleGroup] { return e.favoriteSchedule }
func (e *Engine) Speakers() *slot.Slot[[]domain.SpeakerData]          { return e.speakers }

// Errors exposes the error notification channel: the latest recovered
// failure, nil until the first one. External observers subscribe here for
// user-facing messaging.
func (e *Engine) Errors() *slot.Slot[*apperrors.Error] { return e.errs }

// UserID returns the assigned user identity, empty until the privacy policy
// has been accepted.
func (e *Engine) UserID() string { return e.userID.Current() }

// --- Lookups ---

// Session finds a session by id in the current snapshot.
func (e *Engine) Session(id string) (domain.SessionData, error) {
	for _, session := range e.snapshot.Current().Sessions {
		if session.ID == id {
			return session, nil
		}
	}
	return domain.SessionData{}, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
}

// Speaker finds a speaker by id in the current snapshot.
func (e *Engine) Speaker(id string) (domain.SpeakerData, error) {
	for _, speaker := range e.snapshot.Current().Speakers {
		if speaker.ID == id {
			return speaker, nil
		}
	}
	return domain.SpeakerData{}, fmt.Errorf("speaker %s: %w", id, domain.ErrSpeakerNotFound)
}

// Room finds a room by id in the current snapshot.
func (e *Engine) Room(id int) (domain.RoomData, error) {
	for _, room := range e.snapshot.Current().Rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return domain.RoomData{}, fmt.Errorf("room %d: %w", id, domain.ErrRoomNotFound)
}

// SessionSpeakers resolves the speakers of a session.
func (e *Engine) SessionSpeakers(sessionID string) ([]domain.SpeakerData, error) {
	session, err := e.Session(sessionID)
	if err != nil {
		return nil, err
	}

	speakers := make([]domain.SpeakerData, 0, len(session.SpeakerIDs))
	for _, speakerID := range session.SpeakerIDs {
		speaker, err := e.Speaker(speakerID)
		if err != nil {
			return nil, err
		}
		speakers = append(speakers, speaker)
	}
	return speakers, nil
}

// SpeakerSessions resolves the session cards of a speaker.
func (e *Engine) SpeakerSessions(speakerID string) ([]*SessionCard, error) {
	speaker, err := e.Speaker(speakerID)
	if err != nil {
		return nil, err
	}

	cards := make([]*SessionCard, 0, len(speaker.SessionIDs))
	for _, sessionID := range speaker.SessionIDs {
		card, err := e.SessionCard(sessionID)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// Sessions returns cards for every session in the snapshot, sorted by title.
// Sessions without an assigned room are skipped; they are synthetic schedule
// entries, not presentable sessions.
func (e *Engine) Sessions() []*SessionCard {
	snap := e.snapshot.Current()

	ordered := make([]domain.SessionData, len(snap.Sessions))
	copy(ordered, snap.Sessions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Title < ordered[j].Title })

	cards := make([]*SessionCard, 0, len(ordered))
	for _, session := range ordered {
		card, err := e.SessionCard(session.ID)
		if err != nil {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

// report publishes a recovered failure on the error notification channel.
func (e *Engine) report(err error) {
	structured := apperrors.AsStructuredError(err)
	slog.Warn("Engine error reported", "type", structured.Type, "error", structured)
	e.errs.Set(structured)
}
