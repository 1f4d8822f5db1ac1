package notification

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterNotice(t *testing.T) {
	m := NewManager()

	t.Run("Valid", func(t *testing.T) {
		err := m.RegisterNotice(WelcomeNotice, EmailSystem, NoticeTemplate{
			Subject: "Welcome {{.Name}}",
			Text:    "Hello {{.Name}}",
		})
		assert.NoError(t, err)
	})

	t.Run("EmptyType", func(t *testing.T) {
		err := m.RegisterNotice("", EmailSystem, NoticeTemplate{Subject: "x"})
		assert.Error(t, err)
	})

	t.Run("EmptyTemplate", func(t *testing.T) {
		err := m.RegisterNotice(WelcomeNotice, EmailSystem, NoticeTemplate{})
		assert.Error(t, err)
	})
}

func TestSendRendersTemplate(t *testing.T) {
	m := NewManager()
	mock := &MockNotifier{}
	m.RegisterNotifier(EmailSystem, mock)
	require.NoError(t, m.RegisterNotice(WelcomeNotice, EmailSystem, NoticeTemplate{
		Subject: "Welcome {{.Name}}, thanks for joining!",
		Text:    "Welcome {{.Name}}, feel free to explore the app.",
	}))

	err := m.Send(WelcomeNotice, EmailSystem, NotificationData{
		To:   "ada@example.com",
		Data: map[string]string{"Name": "Ada"},
	})
	require.NoError(t, err)

	require.Len(t, mock.SentNotifications, 1)
	sent := mock.SentNotifications[0]
	assert.Equal(t, "ada@example.com", sent.To)
	assert.Equal(t, "Welcome Ada, thanks for joining!", sent.Subject)
	assert.Equal(t, "Welcome Ada, feel free to explore the app.", sent.Body)
}

func TestSendUnregistered(t *testing.T) {
	m := NewManager()

	err := m.Send(GoodbyeNotice, EmailSystem, NotificationData{To: "x@example.com"})
	assert.Error(t, err, "no template registered")
}

func TestSendPropagatesNotifierError(t *testing.T) {
	m := NewManager()
	mock := &MockNotifier{Err: errors.New("smtp down")}
	m.RegisterNotifier(EmailSystem, mock)
	require.NoError(t, m.RegisterNotice(GoodbyeNotice, EmailSystem, NoticeTemplate{
		Subject: "Goodbye",
		Text:    "Bye {{.Name}}",
	}))

	err := m.Send(GoodbyeNotice, EmailSystem, NotificationData{To: "x@example.com"})
	assert.Error(t, err)
}
