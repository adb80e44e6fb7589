package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shaveden/internal/models"
	"shaveden/internal/storage/repository"
)

// Мок для UserFinder
type UserFinderMock struct {
	mock.Mock
}

func (m *UserFinderMock) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserFinderMock) ListAdmins(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// Мок для SubscriptionManager
type SubscriptionManagerMock struct {
	mock.Mock
}

func (m *SubscriptionManagerMock) Activate(ctx context.Context, userUID string, memberID *string, durationDays int, source string) error {
	args := m.Called(ctx, userUID, memberID, durationDays, source)
	return args.Error(0)
}

func (m *SubscriptionManagerMock) Expire(ctx context.Context, userUID, source string) error {
	args := m.Called(ctx, userUID, source)
	return args.Error(0)
}

func (m *SubscriptionManagerMock) Cancel(ctx context.Context, userUID, source string) error {
	args := m.Called(ctx, userUID, source)
	return args.Error(0)
}

// Мок для EventRecorder
type EventRecorderMock struct {
	mock.Mock
}

func (m *EventRecorderMock) InsertEvent(ctx context.Context, userUID *string, eventType string, details any) error {
	args := m.Called(ctx, userUID, eventType, details)
	return args.Error(0)
}

// Мок для ProcessedTracker
type ProcessedTrackerMock struct {
	mock.Mock
}

func (m *ProcessedTrackerMock) MarkWebhookProcessed(ctx context.Context, eventType, providerEventID string) (bool, error) {
	args := m.Called(ctx, eventType, providerEventID)
	return args.Bool(0), args.Error(1)
}

// Мок для Notifier
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Send(ctx context.Context, email, kind string, data map[string]string) error {
	args := m.Called(ctx, email, kind, data)
	return args.Error(0)
}

// Мок для Deduper
type DeduperMock struct {
	mock.Mock
}

func (m *DeduperMock) WasSentToday(ctx context.Context, userUID, kind string) (bool, error) {
	args := m.Called(ctx, userUID, kind)
	return args.Bool(0), args.Error(1)
}

func (m *DeduperMock) LogSent(ctx context.Context, userUID, kind string) error {
	args := m.Called(ctx, userUID, kind)
	return args.Error(0)
}

type serviceMocks struct {
	users     *UserFinderMock
	subs      *SubscriptionManagerMock
	events    *EventRecorderMock
	processed *ProcessedTrackerMock
	notifier  *NotifierMock
	dedup     *DeduperMock
}

func newService() (*Service, *serviceMocks) {
	m := &serviceMocks{
		users:     new(UserFinderMock),
		subs:      new(SubscriptionManagerMock),
		events:    new(EventRecorderMock),
		processed: new(ProcessedTrackerMock),
		notifier:  new(NotifierMock),
		dedup:     new(DeduperMock),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	svc := New(m.users, m.subs, m.events, m.processed, m.notifier, m.dedup, logger)
	return svc, m
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"type":"membership.started"}`)
	secret := "topsecret"

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		want      bool
	}{
		{
			name:      "valid signature",
			body:      body,
			signature: signBody(body, secret),
			secret:    secret,
			want:      true,
		},
		{
			name:      "tampered body",
			body:      []byte(`{"type":"membership.cancelled"}`),
			signature: signBody(body, secret),
			secret:    secret,
			want:      false,
		},
		{
			name:      "wrong secret",
			body:      body,
			signature: signBody(body, "другой"),
			secret:    secret,
			want:      false,
		},
		{
			name:      "missing signature",
			body:      body,
			signature: "",
			secret:    secret,
			want:      false,
		},
		{
			name:      "empty secret rejects everything",
			body:      body,
			signature: signBody(body, ""),
			secret:    "",
			want:      false,
		},
		{
			name:      "signature is not hex",
			body:      body,
			signature: "not-hex-at-all",
			secret:    secret,
			want:      false,
		},
		{
			name:      "signature with surrounding whitespace",
			body:      body,
			signature: "  " + signBody(body, secret) + "\n",
			secret:    secret,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.body, tt.signature, tt.secret))
		})
	}
}

func TestService_ProcessEvent_Activation(t *testing.T) {
	tests := []struct {
		name         string
		eventType    string
		level        string
		wantDuration int
	}{
		{name: "monthly membership", eventType: models.WebhookMembershipStarted, level: "Monthly Shaver", wantDuration: 30},
		{name: "yearly membership", eventType: models.WebhookMembershipStarted, level: "Yearly Supporter", wantDuration: 365},
		{name: "yearly detection is case-insensitive", eventType: models.WebhookMembershipRenewed, level: "ONE YEAR PLAN", wantDuration: 365},
		{name: "renewal resets window", eventType: models.WebhookMembershipRenewed, level: "basic", wantDuration: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService()
			user := &models.User{UID: "u1", Email: "fan@example.com"}
			m.users.On("FindUserByEmail", mock.Anything, "fan@example.com").Return(user, nil).Once()
			m.subs.On("Activate", mock.Anything, "u1", mock.Anything, tt.wantDuration, models.SourceWebhook).Return(nil).Once()

			err := svc.ProcessEvent(context.Background(), models.WebhookEvent{
				Type: tt.eventType,
				Data: models.WebhookData{SupporterEmail: "fan@example.com", SupporterID: "m-77", MembershipLevel: tt.level},
			})
			require.NoError(t, err)
			m.subs.AssertExpectations(t)
		})
	}
}

func TestService_ProcessEvent_Cancelled(t *testing.T) {
	svc, m := newService()
	user := &models.User{UID: "u1", Email: "fan@example.com"}
	m.users.On("FindUserByEmail", mock.Anything, "fan@example.com").Return(user, nil).Once()
	m.subs.On("Cancel", mock.Anything, "u1", models.SourceWebhook).Return(nil).Once()

	err := svc.ProcessEvent(context.Background(), models.WebhookEvent{
		Type: models.WebhookMembershipCancelled,
		Data: models.WebhookData{SupporterEmail: "fan@example.com"},
	})
	require.NoError(t, err)
	m.subs.AssertExpectations(t)
}

func TestService_ProcessEvent_Expired(t *testing.T) {
	t.Run("expiry notifies once", func(t *testing.T) {
		svc, m := newService()
		user := &models.User{UID: "u1", Email: "fan@example.com"}
		m.users.On("FindUserByEmail", mock.Anything, "fan@example.com").Return(user, nil).Once()
		m.subs.On("Expire", mock.Anything, "u1", models.SourceWebhook).Return(nil).Once()
		m.dedup.On("WasSentToday", mock.Anything, "u1", models.KindExpired).Return(false, nil).Once()
		m.notifier.On("Send", mock.Anything, "fan@example.com", models.KindExpired, mock.Anything).Return(nil).Once()
		m.dedup.On("LogSent", mock.Anything, "u1", models.KindExpired).Return(nil).Once()

		err := svc.ProcessEvent(context.Background(), models.WebhookEvent{
			Type: models.WebhookMembershipExpired,
			Data: models.WebhookData{SupporterEmail: "fan@example.com"},
		})
		require.NoError(t, err)
		m.dedup.AssertExpectations(t)
		m.notifier.AssertExpectations(t)
	})

	t.Run("duplicate daily notification suppressed", func(t *testing.T) {
		svc, m := newService()
		user := &models.User{UID: "u1", Email: "fan@example.com"}
		m.users.On("FindUserByEmail", mock.Anything, "fan@example.com").Return(user, nil).Once()
		m.subs.On("Expire", mock.Anything, "u1", models.SourceWebhook).Return(nil).Once()
		m.dedup.On("WasSentToday", mock.Anything, "u1", models.KindExpired).Return(true, nil).Once()

		err := svc.ProcessEvent(context.Background(), models.WebhookEvent{
			Type: models.WebhookMembershipExpired,
			Data: models.WebhookData{SupporterEmail: "fan@example.com"},
		})
		require.NoError(t, err)
		m.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("send failure does not fill ledger and does not fail event", func(t *testing.T) {
		svc, m := newService()
		user := &models.User{UID: "u1", Email: "fan@example.com"}
		m.users.On("FindUserByEmail", mock.Anything, "fan@example.com").Return(user, nil).Once()
		m.subs.On("Expire", mock.Anything, "u1", models.SourceWebhook).Return(nil).Once()
		m.dedup.On("WasSentToday", mock.Anything, "u1", models.KindExpired).Return(false, nil).Once()
		m.notifier.On("Send", mock.Anything, "fan@example.com", models.KindExpired, mock.Anything).Return(errors.New("smtp down")).Once()

		err := svc.ProcessEvent(context.Background(), models.WebhookEvent{
			Type: models.WebhookMembershipExpired,
			Data: models.WebhookData{SupporterEmail: "fan@example.com"},
		})
		require.NoError(t, err)
		m.dedup.AssertNotCalled(t, "LogSent", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_ProcessEvent_Unmatched(t *testing.T) {
	svc, m := newService()
	m.users.On("FindUserByEmail", mock.Anything, "stranger@example.com").Return(nil, repository.ErrUserNotFound).Once()
	m.events.On("InsertEvent", mock.Anything, (*string)(nil), models.EventWebhookUnmatch, mock.Anything).Return(nil).Once()
	admins := []*models.User{
		{UID: "a1", Email: "admin1@shaveden.app", Role: models.RoleAdmin},
		{UID: "a2", Email: "admin2@shaveden.app", Role: models.RoleAdmin},
	}
	m.users.On("ListAdmins", mock.Anything).Return(admins, nil).Once()
	m.notifier.On("Send", mock.Anything, "admin1@shaveden.app", models.KindUnmatchedWebhook, mock.Anything).Return(nil).Once()
	m.notifier.On("Send", mock.Anything, "admin2@shaveden.app", models.KindUnmatchedWebhook, mock.Anything).Return(nil).Once()

	err := svc.ProcessEvent(context.Background(), models.WebhookEvent{
		Type: models.WebhookMembershipStarted,
		Data: models.WebhookData{SupporterEmail: "stranger@example.com"},
	})
	require.NoError(t, err)
	m.subs.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.events.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
}

func TestService_ProcessEvent_UnknownType(t *testing.T) {
	svc, m := newService()
	m.events.On("InsertEvent", mock.Anything, (*string)(nil), models.EventWebhookIgnored, mock.Anything).Return(nil).Once()

	err := svc.ProcessEvent(context.Background(), models.WebhookEvent{
		Type: "donation.created",
		Data: models.WebhookData{SupporterEmail: "fan@example.com"},
	})
	require.NoError(t, err)
	m.users.AssertNotCalled(t, "FindUserByEmail", mock.Anything, mock.Anything)
	m.events.AssertExpectations(t)
}

func TestService_ProcessEvent_DuplicateEventID(t *testing.T) {
	svc, m := newService()
	m.processed.On("MarkWebhookProcessed", mock.Anything, models.WebhookMembershipStarted, "evt-1").Return(false, nil).Once()

	err := svc.ProcessEvent(context.Background(), models.WebhookEvent{
		Type: models.WebhookMembershipStarted,
		Data: models.WebhookData{SupporterEmail: "fan@example.com", ID: "evt-1"},
	})
	require.NoError(t, err)
	m.users.AssertNotCalled(t, "FindUserByEmail", mock.Anything, mock.Anything)
	m.subs.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
