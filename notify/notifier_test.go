package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu     sync.Mutex
	alerts []Alert
	err    error
}

func (r *recorder) Send(_ context.Context, a Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return r.err
}

func (r *recorder) sent() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.alerts...)
}

func TestLogLevels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	n := NewLog(zap.New(core))

	ctx := context.Background()
	require.NoError(t, n.Send(ctx, Alert{Level: Info, Title: "a", Message: "info"}))
	require.NoError(t, n.Send(ctx, Alert{Level: Warning, Title: "b", Message: "warn"}))
	require.NoError(t, n.Send(ctx, Alert{Level: Critical, Title: "c", Message: "crit"}))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "c", entries[2].ContextMap()["title"])
}

func TestMultiReturnsFirstError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a, b := &recorder{err: boom}, &recorder{}
	err := Multi{a, b}.Send(context.Background(), Alert{Title: "x"})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.sent(), 1)
	assert.Len(t, b.sent(), 1)
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	d := NewDispatcher(r, zap.NewNop(), 8)
	d.Notify(Alertf(Critical, "halt", "settlement unresolved for %d trades", 2))
	d.Notify(Alert{Level: Info, Title: "open"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	got := r.sent()
	require.Len(t, got, 2)
	assert.Equal(t, "settlement unresolved for 2 trades", got[0].Message)

	// after close, alerts are ignored
	d.Notify(Alert{Title: "late"})
	assert.Len(t, r.sent(), 2)
}

func TestDispatcherLogsFailures(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	d := NewDispatcher(&recorder{err: errors.New("down")}, zap.New(core), 1)
	d.Notify(Alert{Title: "x"})
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, 1, logs.FilterMessage("notification failed").Len())
}

func TestWebhookSend(t *testing.T) {
	t.Parallel()

	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Send(context.Background(), Alert{Level: Warning, Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, Warning, got.Level)
	assert.Equal(t, "binscan", got.Source)
	assert.NotEmpty(t, got.Timestamp)
}

func TestWebhookNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Send(context.Background(), Alert{Title: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook http 502")
}

type fakeBot struct {
	msgs []tgbot.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	if m, ok := c.(tgbot.MessageConfig); ok {
		f.msgs = append(f.msgs, m)
	}
	return tgbot.Message{}, f.err
}

func TestTelegramSend(t *testing.T) {
	t.Parallel()

	bot := &fakeBot{}
	tg := &Telegram{bot: bot, chatID: 42}
	require.NoError(t, tg.Send(context.Background(), Alert{Level: Critical, Title: "Halted", Message: "connectivity lost"}))

	require.Len(t, bot.msgs, 1)
	assert.Equal(t, int64(42), bot.msgs[0].ChatID)
	assert.Contains(t, bot.msgs[0].Text, "Halted")
	assert.Contains(t, bot.msgs[0].Text, "connectivity lost")

	bot.err = errors.New("403")
	assert.Error(t, tg.Send(context.Background(), Alert{Title: "x"}))
}

func TestTelegramAgainstAPI(t *testing.T) {
	t.Parallel()

	var text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/botTOKEN/getMe":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"scan","username":"scanbot"}}`))
		case "/botTOKEN/sendMessage":
			_ = r.ParseForm()
			text = r.FormValue("text")
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tg, err := NewTelegramWithEndpoint("TOKEN", srv.URL+"/bot%s/%s", 42)
	require.NoError(t, err)
	require.NoError(t, tg.Send(context.Background(), Alert{Level: Info, Title: "Trade opened", Message: "CALL EURUSD"}))
	assert.Contains(t, text, "CALL EURUSD")
}

func TestNewTelegramValidates(t *testing.T) {
	t.Parallel()

	_, err := NewTelegram("", 1)
	assert.Error(t, err)
	_, err = NewTelegram("tok", 0)
	assert.Error(t, err)
}
