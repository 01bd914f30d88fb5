package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/benjamonnguyen/dynsched"
	"github.com/benjamonnguyen/dynsched/session"
)

const programUsage = `Usage:
  dynsched: start interactive mode
  dynsched <command> [args]: run a single command and exit

Enter "dynsched /h" for the list of commands`

const commandHelp = `COMMANDS:
  /login <username|email> <password>
  /register <username> <email> <password> [first_name] [last_name]
  /logout

  /me: profile and stats
  /events [YYYY-MM-DD YYYY-MM-DD]: list events, optionally within a date range
  /event <YYYY-MM-DD> [HH:MM] <title> [!1-5] [#category] [host:name] [-- agenda]
  /rmevent <id>

  /tasks [pending|in-progress|completed]
  /task <name> [!1-5] [due:YYYY-MM-DD] [#tag ...]
  /start <id>: mark task in progress
  /done <id>: mark task completed
  /rmtask <id>

  /suggest: schedule suggestions for open tasks
  /avatar [image_path]: set or show the profile image

  /h: help
  /q: quit
`

var errLoginRequired = &dynsched.APIError{
	Message:  "Please log in first: /login <username> <password>",
	Redirect: dynsched.LoginRoute,
}

// commands that work without a session
var publicCommands = map[string]bool{
	"/login":    true,
	"/register": true,
	"/logout":   true,
	"/h":        true,
}

type result struct {
	output string
	err    error
}

func failed(err error) result {
	return result{err: err}
}

// app executes commands for both the one-shot and interactive modes.
type app struct {
	l          dynsched.Logger
	sessions   *session.Store
	events     dynsched.EventService
	tasks      dynsched.TaskService
	schedule   dynsched.ScheduleService
	timeFormat string

	now      func() time.Time
	readFile func(string) ([]byte, error)
}

func newApp(
	l dynsched.Logger,
	sessions *session.Store,
	events dynsched.EventService,
	tasks dynsched.TaskService,
	schedule dynsched.ScheduleService,
	timeFormat string,
) *app {
	return &app{
		l:          l,
		sessions:   sessions,
		events:     events,
		tasks:      tasks,
		schedule:   schedule,
		timeFormat: timeFormat,
		now:        time.Now,
		readFile:   os.ReadFile,
	}
}

func (a *app) run(ctx context.Context, input string) result {
	name, arg := splitCommand(input)
	a.l.Debug("running command", "cmd", name)

	if !publicCommands[name] && !a.sessions.IsAuthenticated() {
		return failed(errLoginRequired)
	}

	switch name {
	case "/h":
		return result{output: commandHelp}
	case "/login":
		return a.login(ctx, arg)
	case "/register":
		return a.register(ctx, arg)
	case "/logout":
		if err := a.sessions.Logout(ctx); err != nil {
			return failed(err)
		}
		return result{output: "Logged out"}
	case "/me":
		return a.profile(ctx)
	case "/events":
		return a.listEvents(ctx, arg)
	case "/event":
		return a.createEvent(ctx, arg)
	case "/rmevent":
		if arg == "" {
			return failed(errors.New("usage: /rmevent <id>"))
		}
		if err := a.events.DeleteEvent(ctx, arg); err != nil {
			return failed(err)
		}
		return result{output: fmt.Sprintf("Deleted event %s", arg)}
	case "/tasks":
		return a.listTasks(ctx, arg)
	case "/task":
		return a.createTask(ctx, arg)
	case "/start":
		return a.setStatus(ctx, name, arg, dynsched.StatusInProgress)
	case "/done":
		return a.setStatus(ctx, name, arg, dynsched.StatusCompleted)
	case "/rmtask":
		if arg == "" {
			return failed(errors.New("usage: /rmtask <id>"))
		}
		if err := a.tasks.DeleteTask(ctx, arg); err != nil {
			return failed(err)
		}
		return result{output: fmt.Sprintf("Deleted task %s", arg)}
	case "/suggest":
		return a.suggest(ctx)
	case "/avatar":
		return a.avatar(ctx, arg)
	}
	return failed(fmt.Errorf("unknown command %q, enter /h for help", name))
}

func (a *app) login(ctx context.Context, arg string) result {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return failed(errors.New("usage: /login <username|email> <password>"))
	}
	if !a.sessions.Login(ctx, dynsched.Credentials{Identifier: fields[0], Password: fields[1]}) {
		return failed(errors.New(a.sessions.LastError()))
	}
	u, _ := a.sessions.CurrentUser()
	return result{output: "Welcome back, " + u.DisplayName()}
}

func (a *app) register(ctx context.Context, arg string) result {
	fields := strings.Fields(arg)
	if len(fields) < 3 || len(fields) > 5 {
		return failed(errors.New("usage: /register <username> <email> <password> [first_name] [last_name]"))
	}
	req := dynsched.RegisterRequest{Username: fields[0], Email: fields[1], Password: fields[2]}
	if len(fields) > 3 {
		req.FirstName = fields[3]
	}
	if len(fields) > 4 {
		req.LastName = fields[4]
	}
	if !a.sessions.Register(ctx, req) {
		return failed(errors.New(a.sessions.LastError()))
	}
	u, _ := a.sessions.CurrentUser()
	return result{output: "Account created. Welcome, " + u.DisplayName()}
}

// profile renders stats from whatever the lists returned; only a lost
// session aborts it.
func (a *app) profile(ctx context.Context) result {
	u, _ := a.sessions.CurrentUser()

	events, evErr := a.events.ListEvents(ctx)
	tasks, taskErr := a.tasks.ListTasks(ctx, dynsched.TaskFilter{})
	for _, err := range []error{evErr, taskErr} {
		if _, ok := dynsched.RedirectTarget(err); ok {
			return failed(err)
		}
	}

	var avatar string
	if dataURL, ok, err := a.sessions.ProfileImage(ctx); err != nil {
		a.l.Warn("failed reading profile image", "error", err)
	} else if ok {
		if mime, data, err := session.ParseDataURL(dataURL); err == nil {
			avatar = fmt.Sprintf("%s, %s", mime, formatSize(len(data)))
		}
	}

	out := renderProfile(u, dynsched.ComputeStats(u, events, tasks, a.now()), avatar)
	for _, err := range []error{evErr, taskErr} {
		if err != nil {
			out += "\n" + colorize(colorYellow, dynsched.Message(err))
		}
	}
	return result{output: out}
}

func (a *app) listEvents(ctx context.Context, arg string) result {
	events, err := a.events.ListEvents(ctx)
	if err != nil {
		return failed(err)
	}
	if arg != "" {
		start, end, err := parseRange(arg)
		if err != nil {
			return failed(err)
		}
		events = dynsched.EventsBetween(events, start, end)
	}
	return result{output: renderEvents(events, a.timeFormat)}
}

func (a *app) createEvent(ctx context.Context, arg string) result {
	e, err := parseEvent(arg)
	if err != nil {
		return failed(err)
	}
	created, err := a.events.CreateEvent(ctx, e)
	if err != nil {
		return failed(err)
	}
	return result{output: "Created event\n" + renderEvents([]dynsched.Event{created}, a.timeFormat)}
}

func (a *app) listTasks(ctx context.Context, arg string) result {
	var filter dynsched.TaskFilter
	if arg != "" {
		filter.Status = dynsched.TaskStatus(arg)
		if !filter.Status.Valid() {
			return failed(errors.New("usage: /tasks [pending|in-progress|completed]"))
		}
	}
	tasks, err := a.tasks.ListTasks(ctx, filter)
	if err != nil {
		return failed(err)
	}
	return result{output: renderTasks(tasks, dateLayout)}
}

func (a *app) createTask(ctx context.Context, arg string) result {
	t, err := parseTask(arg)
	if err != nil {
		return failed(err)
	}
	created, err := a.tasks.CreateTask(ctx, t)
	if err != nil {
		return failed(err)
	}
	return result{output: "Created task\n" + renderTasks([]dynsched.Task{created}, dateLayout)}
}

func (a *app) setStatus(ctx context.Context, cmd, id string, status dynsched.TaskStatus) result {
	if id == "" {
		return failed(fmt.Errorf("usage: %s <id>", cmd))
	}
	updated, err := a.tasks.UpdateTask(ctx, id, dynsched.TaskUpdate{Status: &status})
	if err != nil {
		return failed(err)
	}
	return result{output: renderTasks([]dynsched.Task{updated}, dateLayout)}
}

func (a *app) suggest(ctx context.Context) result {
	tasks, err := a.tasks.ListTasks(ctx, dynsched.TaskFilter{})
	if err != nil {
		return failed(err)
	}
	open := make([]dynsched.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status != dynsched.StatusCompleted {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return result{output: "No open tasks to schedule"}
	}

	s, err := a.schedule.GetScheduleSuggestions(ctx, open)
	if err != nil {
		return failed(err)
	}
	return result{output: renderSuggestions(s)}
}

func (a *app) avatar(ctx context.Context, path string) result {
	if path == "" {
		dataURL, ok, err := a.sessions.ProfileImage(ctx)
		if err != nil {
			return failed(err)
		}
		if !ok {
			return result{output: "No profile image. Set one with /avatar <image_path>"}
		}
		mime, data, err := session.ParseDataURL(dataURL)
		if err != nil {
			return failed(err)
		}
		return result{output: fmt.Sprintf("Profile image: %s, %s", mime, formatSize(len(data)))}
	}

	data, err := a.readFile(path)
	if err != nil {
		return failed(fmt.Errorf("read image: %w", err))
	}
	if err := a.sessions.SetProfileImage(ctx, data); err != nil {
		return failed(err)
	}
	return result{output: "Profile image updated"}
}
