package session

// NoticeKind classifies a user-facing notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind NoticeKind, message string)

func (f NotifierFunc) Notify(kind NoticeKind, message string) { f(kind, message) }

type discardNotifier struct{}

func (discardNotifier) Notify(NoticeKind, string) {}
