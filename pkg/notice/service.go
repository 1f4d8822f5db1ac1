// Package notice registers the lifecycle email templates and exposes the
// fire-and-forget mailer used by the account service.
package notice

import (
	"embed"
	"log/slog"

	"github.com/taskhub/identity/pkg/notification"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NewManager creates a notification manager with the email notifier and
// the welcome/goodbye templates registered.
func NewManager(smtpConfig notification.SMTPConfig) (*notification.Manager, error) {
	manager := notification.NewManager()

	emailNotifier, err := notification.NewEmailNotifier(smtpConfig)
	if err != nil {
		return nil, err
	}
	manager.RegisterNotifier(notification.EmailSystem, emailNotifier)

	if err := registerTemplates(manager); err != nil {
		return nil, err
	}
	return manager, nil
}

func registerTemplates(manager *notification.Manager) error {
	err := manager.RegisterNotice(notification.WelcomeNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Welcome {{.Name}}, thanks for joining!",
		Text:    loadTemplate("templates/email/welcome.tmpl"),
	})
	if err != nil {
		return err
	}

	return manager.RegisterNotice(notification.GoodbyeNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "We are sorry to see you leave us",
		Text:    loadTemplate("templates/email/goodbye.tmpl"),
	})
}

// Mailer sends account lifecycle notices. All sends are best-effort:
// failures are logged and never surfaced to the triggering operation.
type Mailer struct {
	manager *notification.Manager
}

// NewMailer wraps a configured notification manager
func NewMailer(manager *notification.Manager) *Mailer {
	return &Mailer{manager: manager}
}

// NotifyWelcome sends the registration welcome email
func (m *Mailer) NotifyWelcome(email, name string) {
	m.send(notification.WelcomeNotice, email, name)
}

// NotifyGoodbye sends the account deletion farewell email
func (m *Mailer) NotifyGoodbye(email, name string) {
	m.send(notification.GoodbyeNotice, email, name)
}

func (m *Mailer) send(noticeType notification.NoticeType, email, name string) {
	err := m.manager.Send(noticeType, notification.EmailSystem, notification.NotificationData{
		To:   email,
		Data: map[string]string{"Name": name},
	})
	if err != nil {
		slog.Error("Failed to send notice", "type", noticeType, "to", email, "err", err)
	}
}
