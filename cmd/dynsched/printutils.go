package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/dynsched"
)

const (
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorReset  = "\033[0m"
	dash        = '─'
)

var (
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(false)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("221"))
	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
)

func line(length int) string {
	var sb strings.Builder
	for range length {
		sb.WriteRune(dash)
	}
	return sb.String()
}

func colorize(color string, s string) string {
	return color + s + colorReset
}

func renderPriority(p dynsched.Priority) string {
	label := fmt.Sprintf("P%d", p)
	if p == dynsched.PriorityHighest || p == dynsched.PriorityHigh {
		return urgentStyle.Render(label)
	}
	return faintStyle.Render(label)
}

func renderTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, "#"+t)
	}
	return faintStyle.Render(strings.Join(parts, " "))
}

func renderEvents(events []dynsched.Event, timeFormat string) string {
	if len(events) == 0 {
		return faintStyle.Render("no events")
	}
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b dynsched.Event) int {
		return a.Date.Compare(b.Date)
	})

	lines := make([]string, 0, len(sorted))
	for _, e := range sorted {
		fields := []string{
			fmt.Sprintf("[%s]", e.Date.Format(timeFormat)),
			e.Title,
			renderPriority(e.Priority),
		}
		if e.Category != "" {
			fields = append(fields, renderTags([]string{e.Category}))
		}
		if e.Host != "" {
			fields = append(fields, faintStyle.Render("host "+e.Host))
		}
		fields = append(fields, faintStyle.Render("("+e.ID+")"))
		lines = append(lines, strings.Join(fields, " "))
		if e.Agenda != "" {
			lines = append(lines, faintStyle.Render("    "+e.Agenda))
		}
	}
	return strings.Join(lines, "\n")
}

func statusMark(s dynsched.TaskStatus) string {
	switch s {
	case dynsched.StatusCompleted:
		return "[x]"
	case dynsched.StatusInProgress:
		return "[~]"
	}
	return "[ ]"
}

func renderTasks(tasks []dynsched.Task, timeFormat string) string {
	if len(tasks) == 0 {
		return faintStyle.Render("no tasks")
	}
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b dynsched.Task) int {
		return int(a.Priority) - int(b.Priority)
	})

	lines := make([]string, 0, len(sorted))
	for _, t := range sorted {
		name := t.Name
		if t.Status == dynsched.StatusCompleted {
			name = doneStyle.Render(name)
		}
		fields := []string{statusMark(t.Status), name, renderPriority(t.Priority)}
		if t.DueDate != nil {
			fields = append(fields, accentStyle.Render("due "+t.DueDate.Format(timeFormat)))
		}
		if len(t.Tags) > 0 {
			fields = append(fields, renderTags(t.Tags))
		}
		fields = append(fields, faintStyle.Render("("+t.ID+")"))
		lines = append(lines, strings.Join(fields, " "))
	}
	return strings.Join(lines, "\n")
}

func renderProfile(u dynsched.User, s dynsched.Stats, avatar string) string {
	var sb strings.Builder
	sb.WriteString(accentStyle.Render(u.DisplayName()))
	if u.Username != "" && u.Username != u.DisplayName() {
		sb.WriteString(faintStyle.Render(" @" + u.Username))
	}
	sb.WriteRune('\n')
	if u.Email != "" {
		sb.WriteString(u.Email + "\n")
	}
	if !u.CreatedAt.IsZero() {
		sb.WriteString(faintStyle.Render("member since "+u.CreatedAt.Format(dateLayout)) + "\n")
	}
	if avatar != "" {
		sb.WriteString(faintStyle.Render("avatar "+avatar) + "\n")
	}
	sb.WriteString(line(24) + "\n")
	fmt.Fprintf(&sb, "events    %d (%d upcoming)\n", s.TotalEvents, s.UpcomingEvents)
	fmt.Fprintf(&sb, "tasks     %d (%d completed)\n", s.TotalTasks, s.CompletedTasks)
	fmt.Fprintf(&sb, "completion %d%%", s.CompletionRate)
	return sb.String()
}

// renderSuggestions prints each top-level key with its indented JSON value.
func renderSuggestions(s dynsched.Suggestions) string {
	if len(s) == 0 {
		return faintStyle.Render("no suggestions")
	}
	var sections []string
	for _, k := range slices.Sorted(maps.Keys(s)) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, s[k], "", "  "); err != nil {
			buf.Reset()
			buf.Write(s[k])
		}
		sections = append(sections, accentStyle.Render(k)+"\n"+buf.String())
	}
	return strings.Join(sections, "\n\n")
}

func formatSize(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}
