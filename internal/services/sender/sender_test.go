package sender

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shaveden/internal/lib/smtp"
	"shaveden/internal/models"
)

// Мок для smtp.Client
type ClientMock struct {
	mock.Mock
	written strings.Builder
}

func (m *ClientMock) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *ClientMock) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *ClientMock) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *ClientMock) Quit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *ClientMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type writeCloserMock struct {
	sb *strings.Builder
}

func (w *writeCloserMock) Write(p []byte) (int, error) { return w.sb.Write(p) }
func (w *writeCloserMock) Close() error                { return nil }

// Мок для smtp.Transporter
type TransporterMock struct {
	mock.Mock
}

func (m *TransporterMock) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *TransporterMock) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_HandleNotification(t *testing.T) {
	transport := new(TransporterMock)
	client := new(ClientMock)
	var sb strings.Builder

	transport.On("Connect").Return(client, nil).Once()
	transport.On("GetSMTPUser").Return("noreply@shaveden.app")
	client.On("Mail", "noreply@shaveden.app").Return(nil).Once()
	client.On("Rcpt", "fan@example.com").Return(nil).Once()
	client.On("Data").Return(&writeCloserMock{sb: &sb}, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	msg := models.Notification{
		Email: "fan@example.com",
		Kind:  models.KindTrialWarning,
		Context: map[string]string{
			"expires_at": "2025-06-04",
			"days_left":  "3",
		},
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	svc := New(transport, newNoopLogger())
	err = svc.HandleNotification(body)
	require.NoError(t, err)

	sent := sb.String()
	assert.Contains(t, sent, "To: fan@example.com")
	assert.Contains(t, sent, "trial is ending soon")
	assert.Contains(t, sent, "2025-06-04")
	client.AssertExpectations(t)
}

func TestService_HandleNotification_ConnectFailureRequeues(t *testing.T) {
	transport := new(TransporterMock)
	transport.On("Connect").Return(nil, errors.New("dial timeout")).Once()

	body, err := json.Marshal(models.Notification{Email: "fan@example.com", Kind: models.KindExpired})
	require.NoError(t, err)

	svc := New(transport, newNoopLogger())
	err = svc.HandleNotification(body)
	assert.Error(t, err)
}

func TestService_HandleNotification_BadPayloadDropped(t *testing.T) {
	transport := new(TransporterMock)

	svc := New(transport, newNoopLogger())
	err := svc.HandleNotification([]byte("not a json"))
	assert.NoError(t, err)
	transport.AssertNotCalled(t, "Connect")
}

func TestComposeEmail(t *testing.T) {
	tests := []struct {
		name        string
		msg         models.Notification
		wantSubject string
		wantInBody  string
	}{
		{
			name:        "trial warning",
			msg:         models.Notification{Kind: models.KindTrialWarning, Context: map[string]string{"expires_at": "2025-06-04", "days_left": "3"}},
			wantSubject: "Your ShaveDen trial is ending soon",
			wantInBody:  "2025-06-04",
		},
		{
			name:        "renewal reminder",
			msg:         models.Notification{Kind: models.KindRenewalReminder, Context: map[string]string{"expires_at": "2025-06-04", "days_left": "3"}},
			wantSubject: "Your ShaveDen subscription expires soon",
			wantInBody:  "Renew",
		},
		{
			name:        "expired",
			msg:         models.Notification{Kind: models.KindExpired},
			wantSubject: "Your ShaveDen subscription has expired",
			wantInBody:  "expired",
		},
		{
			name:        "unmatched webhook for admins",
			msg:         models.Notification{Kind: models.KindUnmatchedWebhook, Context: map[string]string{"supporter_email": "stranger@example.com"}},
			wantSubject: "ShaveDen: unmatched payment webhook",
			wantInBody:  "stranger@example.com",
		},
		{
			name:        "unknown kind gets generic text",
			msg:         models.Notification{Kind: "something_new"},
			wantSubject: "ShaveDen notification",
			wantInBody:  "notification",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, text := composeEmail(tt.msg)
			assert.Equal(t, tt.wantSubject, subject)
			assert.Contains(t, text, tt.wantInBody)
		})
	}
}
