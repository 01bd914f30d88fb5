package dynsched

import (
	"encoding/json"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	}
	return u.Email
}

// Priority is an ordinal where 1 is the highest.
type Priority int

const (
	PriorityHighest Priority = iota + 1
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityLowest
)

func (p Priority) Valid() bool {
	return p >= PriorityHighest && p <= PriorityLowest
}

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Event struct {
	ID       string    `json:"id,omitempty"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Host     string    `json:"host,omitempty"`
	Category string    `json:"category,omitempty"`
	Agenda   string    `json:"agenda,omitempty"`
	Priority Priority  `json:"priority"`
	UserID   string    `json:"user_id,omitempty"`
}

type EventUpdate struct {
	Title    *string    `json:"title,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Host     *string    `json:"host,omitempty"`
	Category *string    `json:"category,omitempty"`
	Agenda   *string    `json:"agenda,omitempty"`
	Priority *Priority  `json:"priority,omitempty"`
}

type Task struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"task_name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	Tags        []string   `json:"tags,omitempty"`
	UserID      string     `json:"user_id,omitempty"`
}

type TaskUpdate struct {
	Name        *string     `json:"task_name,omitempty"`
	Description *string     `json:"description,omitempty"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// TaskFilter narrows ListTasks; zero fields are not sent.
type TaskFilter struct {
	Priority Priority
	Status   TaskStatus
}

type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type LoginResult struct {
	User  User
	Token string
}

// Suggestions is the scheduling payload as returned by the server.
type Suggestions map[string]json.RawMessage
