package dynsched

import (
	"math"
	"time"
)

// Stats summarizes a user's own events and tasks for the profile dashboard.
type Stats struct {
	TotalEvents    int
	UpcomingEvents int
	TotalTasks     int
	CompletedTasks int
	// CompletionRate is a rounded percentage, 0 when there are no tasks.
	CompletionRate int
}

func ComputeStats(user User, events []Event, tasks []Task, now time.Time) Stats {
	var s Stats
	today := startOfDay(now)
	for _, e := range events {
		if e.UserID != user.ID {
			continue
		}
		s.TotalEvents++
		if !e.Date.Before(today) {
			s.UpcomingEvents++
		}
	}
	for _, t := range tasks {
		if t.UserID != user.ID {
			continue
		}
		s.TotalTasks++
		if t.Status == StatusCompleted {
			s.CompletedTasks++
		}
	}
	if s.TotalTasks > 0 {
		s.CompletionRate = int(math.Round(float64(s.CompletedTasks) / float64(s.TotalTasks) * 100))
	}
	return s
}

// EventsBetween keeps events dated within [start, end].
func EventsBetween(events []Event, start, end time.Time) []Event {
	var res []Event
	for _, e := range events {
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		res = append(res, e)
	}
	return res
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
