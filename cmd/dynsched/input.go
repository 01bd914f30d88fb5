package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/benjamonnguyen/dynsched"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// splitCommand separates "/cmd rest of line" into its parts.
func splitCommand(input string) (string, string) {
	input = strings.TrimSpace(input)
	name, arg, _ := strings.Cut(input, " ")
	return name, strings.TrimSpace(arg)
}

// parseTask reads "<name> [!priority] [due:YYYY-MM-DD] [#tag ...]".
func parseTask(input string) (dynsched.Task, error) {
	t := dynsched.Task{
		Priority: dynsched.PriorityMedium,
		Status:   dynsched.StatusPending,
	}

	var name []string
	for _, tok := range strings.Fields(input) {
		switch {
		case isTag(tok):
			if !slices.Contains(t.Tags, tok[1:]) {
				t.Tags = append(t.Tags, tok[1:])
			}
		case isPriority(tok):
			p, err := parsePriority(tok)
			if err != nil {
				return dynsched.Task{}, err
			}
			t.Priority = p
		case strings.HasPrefix(tok, "due:"):
			d, err := time.ParseInLocation(dateLayout, strings.TrimPrefix(tok, "due:"), time.Local)
			if err != nil {
				return dynsched.Task{}, fmt.Errorf("invalid due date %q, expected YYYY-MM-DD", tok)
			}
			t.DueDate = &d
		default:
			name = append(name, tok)
		}
	}

	t.Name = strings.Join(name, " ")
	if t.Name == "" {
		return dynsched.Task{}, errors.New("usage: /task <name> [!1-5] [due:YYYY-MM-DD] [#tag]")
	}
	return t, nil
}

// parseEvent reads "<YYYY-MM-DD> [HH:MM] <title> [!priority] [#category] [host:name] [-- agenda]".
func parseEvent(input string) (dynsched.Event, error) {
	const usage = "usage: /event <YYYY-MM-DD> [HH:MM] <title> [!1-5] [#category] [host:name] [-- agenda]"

	fields := strings.Fields(input)
	if len(fields) < 2 {
		return dynsched.Event{}, errors.New(usage)
	}
	day, err := time.ParseInLocation(dateLayout, fields[0], time.Local)
	if err != nil {
		return dynsched.Event{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", fields[0])
	}

	e := dynsched.Event{Date: day, Priority: dynsched.PriorityMedium}
	rest := fields[1:]
	if clock, err := time.Parse(clockLayout, rest[0]); err == nil {
		e.Date = time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
		rest = rest[1:]
	}
	if i := slices.Index(rest, "--"); i >= 0 {
		e.Agenda = strings.Join(rest[i+1:], " ")
		rest = rest[:i]
	}

	var title []string
	for _, tok := range rest {
		switch {
		case isTag(tok):
			e.Category = tok[1:]
		case isPriority(tok):
			p, err := parsePriority(tok)
			if err != nil {
				return dynsched.Event{}, err
			}
			e.Priority = p
		case strings.HasPrefix(tok, "host:"):
			e.Host = strings.TrimPrefix(tok, "host:")
		default:
			title = append(title, tok)
		}
	}

	e.Title = strings.Join(title, " ")
	if e.Title == "" {
		return dynsched.Event{}, errors.New(usage)
	}
	return e, nil
}

// parseRange reads "[YYYY-MM-DD YYYY-MM-DD]"; the end day is included whole.
func parseRange(input string) (time.Time, time.Time, error) {
	fields := strings.Fields(input)
	if len(fields) != 2 {
		return time.Time{}, time.Time{}, errors.New("usage: /events [YYYY-MM-DD YYYY-MM-DD]")
	}
	start, err := time.ParseInLocation(dateLayout, fields[0], time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", fields[0])
	}
	end, err := time.ParseInLocation(dateLayout, fields[1], time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", fields[1])
	}
	return start, end.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

func isTag(tok string) bool {
	return len(tok) > 1 && tok[0] == '#'
}

func isPriority(tok string) bool {
	return len(tok) > 1 && tok[0] == '!'
}

func parsePriority(tok string) (dynsched.Priority, error) {
	n, err := strconv.Atoi(tok[1:])
	p := dynsched.Priority(n)
	if err != nil || !p.Valid() {
		return 0, fmt.Errorf("priority must be !1 (highest) to !5 (lowest), got %q", tok)
	}
	return p, nil
}
