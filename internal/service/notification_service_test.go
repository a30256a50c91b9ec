package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akciovadasz/backend/internal/apperror"
	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/repository"
)

// MockSender implements Sender for testing
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Name() string {
	return "mock"
}

func (m *MockSender) Send(ctx context.Context, event model.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newPrefs() *repository.PreferenceRepository {
	return repository.NewPreferenceRepository(repository.NewMemoryStore(), nil)
}

func sampleEvent() model.Event {
	return model.Event{
		Type:        model.EventPriceDrop,
		ProductID:   "a",
		ProductKey:  "a",
		ProductName: "Trappista sajt",
		Store:       model.StoreSpar,
		Title:       "Árcsökkenés!",
		Body:        "Trappista sajt most olcsóbb: 800 Ft!",
	}
}

func TestNotificationService_Notify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		permission model.Permission
		setupMock  func(first, second *MockSender)
	}{
		{
			name:       "granted delivers to every sender",
			permission: model.PermissionGranted,
			setupMock: func(first, second *MockSender) {
				first.On("Send", mock.Anything, mock.AnythingOfType("model.Event")).Return(nil).Once()
				second.On("Send", mock.Anything, mock.AnythingOfType("model.Event")).Return(nil).Once()
			},
		},
		{
			name:       "a failing sender does not stop the others",
			permission: model.PermissionGranted,
			setupMock: func(first, second *MockSender) {
				first.On("Send", mock.Anything, mock.Anything).Return(errors.New("offline")).Once()
				second.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:       "denied delivers nothing",
			permission: model.PermissionDenied,
			setupMock:  func(first, second *MockSender) {},
		},
		{
			name:       "default delivers nothing",
			permission: model.PermissionDefault,
			setupMock:  func(first, second *MockSender) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prefs := newPrefs()
			require.NoError(t, prefs.SavePermission(context.Background(), tt.permission))
			first, second := new(MockSender), new(MockSender)
			tt.setupMock(first, second)

			svc := NewNotificationService(prefs, nil, first, second)
			svc.Notify(context.Background(), sampleEvent())

			first.AssertExpectations(t)
			second.AssertExpectations(t)
			if tt.permission != model.PermissionGranted {
				first.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestNotificationService_SetPermission(t *testing.T) {
	t.Parallel()

	svc := NewNotificationService(newPrefs(), nil)
	ctx := context.Background()

	assert.Equal(t, model.PermissionDefault, svc.Permission(ctx))

	p, err := svc.SetPermission(ctx, " Granted ")
	require.NoError(t, err)
	assert.Equal(t, model.PermissionGranted, p)
	assert.True(t, svc.Granted(ctx))

	_, err = svc.SetPermission(ctx, "default")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, model.PermissionGranted, svc.Permission(ctx))

	p, err = svc.SetPermission(ctx, "denied")
	require.NoError(t, err)
	assert.Equal(t, model.PermissionDenied, p)
	assert.False(t, svc.Granted(ctx))
}

// Keys taken from a real browser subscription.
const (
	testP256dh = "BNNL5ZaTfK81qhXOx23-wewhigUeFb632jN6LvRWCFH1ubQr77FE_9qV1FuojuRmHP42zmf34rXgW80OvUVDgTk"
	testAuth   = "zqbxT6JKstKSY9JKibZLSQ"
)

type fakePushClient struct {
	mu       sync.Mutex
	statuses map[string]int
	hits     []string
}

func (c *fakePushClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	endpoint := req.URL.String()
	c.hits = append(c.hits, endpoint)
	status, ok := c.statuses[endpoint]
	if !ok {
		status = http.StatusCreated
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func newWebPushSender(t *testing.T, prefs *repository.PreferenceRepository, client webpush.HTTPClient) *WebPushSender {
	t.Helper()
	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return NewWebPushSender(WebPushConfig{PublicKey: public, PrivateKey: private, Subject: "ertesites@akciovadasz.hu"}, prefs, client, nil)
}

func TestWebPushSender_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := newPrefs()
	for _, endpoint := range []string{
		"https://push.example.test/live",
		"https://push.example.test/gone",
		"https://push.example.test/missing",
	} {
		require.NoError(t, prefs.AddPushSubscription(ctx, model.PushSubscription{Endpoint: endpoint, P256dh: testP256dh, Auth: testAuth}))
	}

	client := &fakePushClient{statuses: map[string]int{
		"https://push.example.test/gone":    http.StatusGone,
		"https://push.example.test/missing": http.StatusNotFound,
	}}
	sender := newWebPushSender(t, prefs, client)

	err := sender.Send(ctx, sampleEvent())

	require.NoError(t, err)
	assert.Len(t, client.hits, 3)
	subs := prefs.PushSubscriptions(ctx)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://push.example.test/live", subs[0].Endpoint)
}

func TestWebPushSender_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no subscriptions", func(t *testing.T) {
		sender := newWebPushSender(t, newPrefs(), &fakePushClient{})
		assert.ErrorIs(t, sender.Send(ctx, sampleEvent()), ErrNoSubscriptions)
	})

	t.Run("push service rejects", func(t *testing.T) {
		prefs := newPrefs()
		require.NoError(t, prefs.AddPushSubscription(ctx, model.PushSubscription{Endpoint: "https://push.example.test/x", P256dh: testP256dh, Auth: testAuth}))
		sender := newWebPushSender(t, prefs, &fakePushClient{statuses: map[string]int{"https://push.example.test/x": http.StatusBadRequest}})

		err := sender.Send(ctx, sampleEvent())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
		assert.Len(t, prefs.PushSubscriptions(ctx), 1)
	})

	t.Run("missing keys", func(t *testing.T) {
		assert.Nil(t, NewWebPushSender(WebPushConfig{}, newPrefs(), nil, nil))
	})
}

func TestNotificationService_Subscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("requires web push", func(t *testing.T) {
		svc := NewNotificationService(newPrefs(), nil, NewLogSender(nil))
		_, err := svc.PushPublicKey()
		assert.ErrorIs(t, err, ErrVAPIDNotConfigured)
		assert.ErrorIs(t, svc.Subscribe(ctx, model.PushSubscription{Endpoint: "e", P256dh: "p", Auth: "a"}), ErrVAPIDNotConfigured)
	})

	t.Run("stores and removes", func(t *testing.T) {
		prefs := newPrefs()
		push := newWebPushSender(t, prefs, &fakePushClient{})
		svc := NewNotificationService(prefs, nil, push)

		key, err := svc.PushPublicKey()
		require.NoError(t, err)
		assert.Equal(t, push.PublicKey(), key)

		assert.ErrorIs(t, svc.Subscribe(ctx, model.PushSubscription{Endpoint: "e"}), apperror.ErrBadRequest)
		require.NoError(t, svc.Subscribe(ctx, model.PushSubscription{Endpoint: "e", P256dh: "p", Auth: "a"}))
		assert.Len(t, prefs.PushSubscriptions(ctx), 1)

		require.NoError(t, svc.Unsubscribe(ctx, "e"))
		assert.Empty(t, prefs.PushSubscriptions(ctx))
		assert.ErrorIs(t, svc.Unsubscribe(ctx, ""), apperror.ErrBadRequest)
	})
}

type fakeTelegram struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestTelegramSender(t *testing.T) {
	t.Parallel()

	bot := &fakeTelegram{}
	sender := NewTelegramSender(bot, 4242)

	require.NoError(t, sender.Send(context.Background(), sampleEvent()))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(4242), bot.sent[0].ChatID)
	assert.Contains(t, bot.sent[0].Text, "Árcsökkenés!")
	assert.Contains(t, bot.sent[0].Text, "Trappista sajt most olcsóbb: 800 Ft!")
	assert.Contains(t, bot.sent[0].Text, "Spar")

	bot.err = errors.New("Forbidden: bot was blocked by the user")
	err := sender.Send(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "telegram send")
}

func TestNotificationService_SenderNames(t *testing.T) {
	t.Parallel()

	svc := NewNotificationService(newPrefs(), nil, NewLogSender(nil), NewTelegramSender(&fakeTelegram{}, 1))
	assert.Equal(t, []string{"log", "telegram"}, svc.SenderNames())
}
