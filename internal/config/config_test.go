package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(EnvPraktikumToken, "praktikum-token")
	t.Setenv(EnvTelegramToken, "123:abc")
	t.Setenv(EnvTelegramChatID, "42")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "praktikum-token", cfg.Praktikum.Token)
	assert.Equal(t, "https://praktikum.yandex.ru", cfg.Praktikum.APIURL)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, 20*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "bot.log", cfg.Logging.File)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":4040", cfg.StatusAddr)
	assert.Equal(t, "homework-watch:cursor", cfg.Redis.CursorKey)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Twilio.Enabled())
	assert.False(t, cfg.SNS.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvPollInterval, "90s")
	t.Setenv(EnvRetryDelay, "10s")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvRedisDB, "2")
	t.Setenv(EnvLogLevel, "INFO")
	t.Setenv(EnvTwilioAccountSID, "AC1")
	t.Setenv(EnvTwilioAuthToken, "token")
	t.Setenv(EnvTwilioPhoneNumber, "+15550001")
	t.Setenv(EnvSMSPhone, "+15550002")
	t.Setenv(EnvSNSTopicARN, "arn:aws:sns:eu-west-1:1:hw")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.RetryDelay)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Twilio.Enabled())
	assert.True(t, cfg.SNS.Enabled())
}

func TestLoadConfigFile(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvRetryDelay, "7s")
	path := filepath.Join(t.TempDir(), "watch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 2m\nretry_delay: 30s\nstatus_addr: \":9090\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, 7*time.Second, cfg.RetryDelay, "environment wins over the file")
	assert.Equal(t, ":9090", cfg.StatusAddr)
}

func TestLoadMissingConfigFile(t *testing.T) {
	setRequired(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantSubstr string
	}{
		{"missing token", map[string]string{EnvPraktikumToken: ""}, EnvPraktikumToken},
		{"missing chat", map[string]string{EnvTelegramChatID: ""}, EnvTelegramChatID},
		{"chat not a number", map[string]string{EnvTelegramChatID: "@me"}, "must be an integer"},
		{"interval too short", map[string]string{EnvPollInterval: "500ms"}, EnvPollInterval},
		{"retry too short", map[string]string{EnvRetryDelay: "0s"}, EnvRetryDelay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSubstr)
		})
	}
}
