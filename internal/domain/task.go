package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Toggled flips pending and completed.
func (s Status) Toggled() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority lowercases the input and falls back to medium for anything unknown.
func ParsePriority(s string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	default:
		return PriorityMedium
	}
}

// StatusFilter selects tasks on the dashboards; the zero value behaves as FilterAll.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPending   StatusFilter = StatusFilter(StatusPending)
	FilterCompleted StatusFilter = StatusFilter(StatusCompleted)
)

func ParseStatusFilter(s string) StatusFilter {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterPending, FilterCompleted:
		return f
	default:
		return FilterAll
	}
}

func (f StatusFilter) Match(s Status) bool {
	return f == FilterAll || f == "" || Status(f) == s
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	OwnerUserID string    `json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

// DueDateDisplay renders the due date as DD/MM/YYYY, or the raw value when it cannot be parsed.
func (t *Task) DueDateDisplay() string {
	d, err := time.Parse(time.DateOnly, t.DueDate)
	if err != nil {
		return t.DueDate
	}
	return d.Format("02/01/2006")
}

// Matches reports a case-insensitive substring hit on title or description.
func (t *Task) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term)
}

// TaskFields is the user-editable part of a task.
type TaskFields struct {
	Title       string
	Description string
	DueDate     string
	Priority    string
}

// Normalize trims the fields and validates them. Priority never fails; it defaults to medium.
func (f TaskFields) Normalize() (TaskFields, error) {
	out := TaskFields{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		DueDate:     strings.TrimSpace(f.DueDate),
		Priority:    string(ParsePriority(f.Priority)),
	}
	if out.Title == "" {
		return out, NewValidationError("title", "title is required")
	}
	if out.DueDate == "" {
		return out, NewValidationError("dueDate", "due date is required")
	}
	if !ValidDueDate(out.DueDate) {
		return out, NewValidationError("dueDate", "invalid date format, use YYYY-MM-DD")
	}
	return out, nil
}

// Apply copies normalized fields onto the task, leaving identity, owner, status and creation time alone.
func (t *Task) Apply(f TaskFields) {
	t.Title = f.Title
	t.Description = f.Description
	t.DueDate = f.DueDate
	t.Priority = Priority(f.Priority)
}

// FilterTasks keeps tasks matching both the status filter and the search term, in input order.
func FilterTasks(tasks []Task, filter StatusFilter, term string) []Task {
	out := make([]Task, 0, len(tasks))
	for i := range tasks {
		if !filter.Match(tasks[i].Status) {
			continue
		}
		if !tasks[i].Matches(term) {
			continue
		}
		out = append(out, tasks[i])
	}
	return out
}
