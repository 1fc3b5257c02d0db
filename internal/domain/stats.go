package domain

import "math"

// Counters summarises a task list for the dashboard and profile pages.
type Counters struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Percent   int `json:"percent"`
}

func CountTasks(tasks []Task) Counters {
	c := Counters{Total: len(tasks)}
	for i := range tasks {
		switch tasks[i].Status {
		case StatusCompleted:
			c.Completed++
		case StatusPending:
			c.Pending++
		}
	}
	c.Percent = CompletionRate(c.Completed, c.Total)
	return c
}

// CompletionRate is round(completed/total*100), or 0 for an empty list.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
