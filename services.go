package dynsched

import "context"

type EventService interface {
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	CreateEvent(ctx context.Context, e Event) (Event, error)
	UpdateEvent(ctx context.Context, id string, u EventUpdate) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type TaskService interface {
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	CreateTask(ctx context.Context, t Task) (Task, error)
	UpdateTask(ctx context.Context, id string, u TaskUpdate) (Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type ScheduleService interface {
	GetScheduleSuggestions(ctx context.Context, tasks []Task) (Suggestions, error)
}
