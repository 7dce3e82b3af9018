package tasks

import "time"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return Status(s), true
	}
	return "", false
}

// ValidDueTime reports whether s is a wall-clock time in HH:MM form.
func ValidDueTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

type Task struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Status       Status     `json:"status"`
	DueDate      time.Time  `json:"dueDate"`
	DueTime      string     `json:"dueTime"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	UserID       int64      `json:"userId"`
}

// ListFilter scopes a list or stats query. OwnerID is ignored when
// AllOwners is set.
type ListFilter struct {
	OwnerID   int64
	AllOwners bool
	Status    Status
}

type Stats struct {
	Total      int             `json:"total"`
	Done       int             `json:"done"`
	Pending    int             `json:"pending"`
	InProgress int             `json:"inProgress"`
	ByCategory []CategoryStats `json:"byCategory"`
}

type CategoryStats struct {
	Category   string `json:"category"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"inProgress"`
	Overdue    int    `json:"overdue"`
}
