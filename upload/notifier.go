package upload

// NoticeKind categorizes user-facing notifications emitted by the pipeline.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notifier receives user-facing notifications about validation and upload
// events. The host typically renders these as toasts; tests inject a
// recording implementation. Implementations must be safe for concurrent
// use: per-file failure notices are emitted from transfer goroutines.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(NoticeKind, string) {}
