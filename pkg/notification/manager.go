package notification

import (
	"bytes"
	"fmt"
	"text/template"
)

// Manager routes notices to registered notifiers, rendering the template
// registered for the notice type and system first.
type Manager struct {
	notifiers map[NotificationSystem]Notifier
	registry  map[NoticeType]map[NotificationSystem]NoticeTemplate
}

// NewManager creates an empty notification manager
func NewManager() *Manager {
	return &Manager{
		notifiers: make(map[NotificationSystem]Notifier),
		registry:  make(map[NoticeType]map[NotificationSystem]NoticeTemplate),
	}
}

// RegisterNotifier registers a notifier for a delivery system
func (m *Manager) RegisterNotifier(system NotificationSystem, notifier Notifier) {
	m.notifiers[system] = notifier
}

// RegisterNotice registers the template used for a notice type on a system
func (m *Manager) RegisterNotice(noticeType NoticeType, system NotificationSystem, tmpl NoticeTemplate) error {
	if noticeType == "" || system == "" {
		return fmt.Errorf("invalid input: notice type and system cannot be empty")
	}
	if tmpl.Subject == "" && tmpl.Text == "" {
		return fmt.Errorf("notice template requires a subject or a body")
	}

	if _, exists := m.registry[noticeType]; !exists {
		m.registry[noticeType] = make(map[NotificationSystem]NoticeTemplate)
	}
	m.registry[noticeType][system] = tmpl
	return nil
}

// Send renders the registered template with notification.Data and delivers
// the result through the system's notifier.
func (m *Manager) Send(noticeType NoticeType, system NotificationSystem, notification NotificationData) error {
	systemTemplates, exists := m.registry[noticeType]
	if !exists {
		return fmt.Errorf("no templates registered for notice type: %s", noticeType)
	}

	tmpl, exists := systemTemplates[system]
	if !exists {
		return fmt.Errorf("no template registered for system %s under notice type %s", system, noticeType)
	}

	notifier, exists := m.notifiers[system]
	if !exists {
		return fmt.Errorf("no notifier registered for system: %s", system)
	}

	subject, err := render("subject", tmpl.Subject, notification.Data)
	if err != nil {
		return err
	}
	body, err := render("body", tmpl.Text, notification.Data)
	if err != nil {
		return err
	}

	notification.Subject = subject
	notification.Body = body
	return notifier.Send(noticeType, notification)
}

func render(name, text string, data map[string]string) (string, error) {
	if text == "" {
		return "", nil
	}
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
