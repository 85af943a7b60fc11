package homework

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewTelegramNotifierValidation(t *testing.T) {
	_, err := NewTelegramNotifier("", 42)
	assert.Error(t, err)
	_, err = NewTelegramNotifier("123:abc", 0)
	assert.Error(t, err)
}

func TestTelegramNotifierSendsToChat(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		rw.Header().Set("Content-Type", "application/json")
		rw.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":1600000000,"chat":{"id":42,"type":"private"},"text":"hi"}}`))
	}))
	defer srv.Close()

	tn, err := NewTelegramNotifier("123:abc", 42,
		WithTelegramAPIURL(srv.URL),
		WithTelegramTimeout(time.Second),
		WithTelegramLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)

	require.NoError(t, tn.Notify(context.Background(), "У вас проверили работу"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "У вас проверили работу", got["text"])
}

func TestTelegramNotifierAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusBadRequest)
		rw.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tn, err := NewTelegramNotifier("123:abc", 42, WithTelegramAPIURL(srv.URL))
	require.NoError(t, err)

	err = tn.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat 42")
}

func TestTelegramNotifierCancelledContext(t *testing.T) {
	tn, err := NewTelegramNotifier("123:abc", 42, WithTelegramAPIURL("http://127.0.0.1:0"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tn.Notify(ctx, "hello"), context.Canceled)
}
