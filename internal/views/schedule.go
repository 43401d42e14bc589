// Package views holds the pure derivation functions of the engine: schedule
// grouping, live-session and upcoming-favorite computation. Nothing here
// touches the network or keeps state; every function is deterministic in its
// inputs, which makes the time-dependent behaviour testable with a fixed
// reference time.
package views

import (
	"sort"
	"strings"
	"time"

	"github.com/chihung93/kotlinconf-app/internal/domain"
)

// ScheduleGroup is one entry of the flattened schedule: either a synthetic
// marker (day or lunch section) or a time slot carrying sessions.
type ScheduleGroup struct {
	Title        string
	DaySection   bool
	LunchSection bool
	StartsAt     time.Time
	Sessions     []domain.SessionData
}

// GroupByDay partitions sessions into day buckets ordered by start time,
// rendered in the conference timezone. Each day begins with a day marker;
// within a day every distinct start time opens a new slot group, and slots
// consisting only of lunch-labeled sessions collapse into a lunch marker.
func GroupByDay(sessions []domain.SessionData, loc *time.Location) []ScheduleGroup {
	if len(sessions) == 0 {
		return nil
	}

	ordered := make([]domain.SessionData, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].StartsAt.Equal(ordered[j].StartsAt) {
			return ordered[i].StartsAt.Before(ordered[j].StartsAt)
		}
		return ordered[i].Title < ordered[j].Title
	})

	var groups []ScheduleGroup
	var currentDay time.Time
	var slot []domain.SessionData
	var slotStart time.Time

	flushSlot := func() {
		if len(slot) == 0 {
			return
		}
		local := slotStart.In(loc)
		if allLunch(slot) {
			groups = append(groups, ScheduleGroup{
				Title:        slot[0].Title,
				LunchSection: true,
				StartsAt:     slotStart,
			})
		} else {
			groups = append(groups, ScheduleGroup{
				Title:    local.Format("15:04"),
				StartsAt: slotStart,
				Sessions: slot,
			})
		}
		slot = nil
	}

	for _, session := range ordered {
		local := session.StartsAt.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

		if !day.Equal(currentDay) {
			flushSlot()
			currentDay = day
			groups = append(groups, ScheduleGroup{
				Title:      day.Format("Monday, Jan 2"),
				DaySection: true,
				StartsAt:   day,
			})
		}

		if len(slot) > 0 && !session.StartsAt.Equal(slotStart) {
			flushSlot()
		}
		if len(slot) == 0 {
			slotStart = session.StartsAt
		}
		slot = append(slot, session)
	}
	flushSlot()

	return groups
}

func allLunch(sessions []domain.SessionData) bool {
	for _, s := range sessions {
		if !strings.Contains(strings.ToLower(s.Title), "lunch") {
			return false
		}
	}
	return true
}
