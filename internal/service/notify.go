package service

// Notifier receives "data changed" events. ws.Hub implements it.
type Notifier interface {
	Notify(kind, message string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// Activity event kinds.
const (
	EventTaskCreated = "task_created"
	EventTaskUpdated = "task_updated"
	EventTaskDeleted = "task_deleted"
	EventUserCreated = "user_created"
	EventUserUpdated = "user_updated"
	EventUserDeleted = "user_deleted"
)
