package notification

// NotificationSystem represents a delivery channel (e.g. email).
type NotificationSystem string

// NoticeType represents a kind of notification (e.g. "welcome").
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	WelcomeNotice NoticeType = "welcome"
	GoodbyeNotice NoticeType = "goodbye"
)

// NoticeTemplate holds the subject and text/template bodies for a notice.
// Subject is itself a template and may reference the notification data.
type NoticeTemplate struct {
	Subject string
	Text    string
}

// NotificationData carries one outbound notification
type NotificationData struct {
	To      string            // Recipient identifier (email address)
	Subject string            // Rendered subject
	Body    string            // Rendered content
	Data    map[string]string // Template data (e.g. recipient name)
}

// Notifier delivers a rendered notification over one system
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData) error
}
