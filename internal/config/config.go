// Package config loads the watcher's settings from a .env file, the
// environment, and an optional YAML file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Environment variable names.
const (
	EnvPraktikumToken    = "PRAKTIKUM_TOKEN"
	EnvPraktikumAPIURL   = "PRAKTIKUM_API_URL"
	EnvTelegramToken     = "TELEGRAM_TOKEN"
	EnvTelegramChatID    = "TELEGRAM_CHAT_ID"
	EnvTelegramAPIURL    = "TELEGRAM_API_URL"
	EnvPollInterval      = "POLL_INTERVAL"
	EnvRetryDelay        = "RETRY_DELAY"
	EnvRequestTimeout    = "REQUEST_TIMEOUT"
	EnvLogFile           = "LOG_FILE"
	EnvLogLevel          = "LOG_LEVEL"
	EnvEnvironment       = "ENV"
	EnvStatusAddr        = "STATUS_ADDR"
	EnvRedisAddr         = "REDIS_ADDR"
	EnvRedisPassword     = "REDIS_PASSWORD"
	EnvRedisDB           = "REDIS_DB"
	EnvCursorKey         = "CURSOR_KEY"
	EnvTwilioAccountSID  = "TWILIO_ACCOUNT_SID"
	EnvTwilioAuthToken   = "TWILIO_AUTH_TOKEN"
	EnvTwilioPhoneNumber = "TWILIO_PHONE_NUMBER"
	EnvSMSPhone          = "SMS_PHONE"
	EnvSNSTopicARN       = "SNS_TOPIC_ARN"
	EnvAWSRegion         = "AWS_REGION"
)

// Config is the complete watcher configuration.
type Config struct {
	Praktikum PraktikumConfig
	Telegram  TelegramConfig
	Twilio    TwilioConfig
	SNS       SNSConfig
	Redis     RedisConfig
	Logging   LoggingConfig

	PollInterval   time.Duration
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	StatusAddr     string
}

// PraktikumConfig holds the homework API credentials and host.
type PraktikumConfig struct {
	Token  string
	APIURL string
}

// TelegramConfig holds the bot token and the chat that receives messages.
type TelegramConfig struct {
	Token  string
	ChatID int64
	APIURL string
}

// TwilioConfig is optional; SMS is sent only when every field is set.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	Recipient   string
}

// Enabled reports whether SMS notifications are configured.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.PhoneNumber != "" && t.Recipient != ""
}

// SNSConfig is optional; messages are published only when TopicARN is set.
type SNSConfig struct {
	TopicARN string
	Region   string
}

// Enabled reports whether SNS notifications are configured.
func (s SNSConfig) Enabled() bool {
	return s.TopicARN != ""
}

// RedisConfig is optional; without an address the cursor lives in memory.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	CursorKey string
}

// Enabled reports whether the cursor should be kept in redis.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LoggingConfig selects the zap preset, level, and log file.
type LoggingConfig struct {
	File        string
	Level       string
	Environment string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(EnvPraktikumAPIURL, "https://praktikum.yandex.ru")
	v.SetDefault(EnvTelegramAPIURL, "https://api.telegram.org")
	v.SetDefault(EnvPollInterval, "5m")
	v.SetDefault(EnvRetryDelay, "5s")
	v.SetDefault(EnvRequestTimeout, "20s")
	v.SetDefault(EnvLogFile, "bot.log")
	v.SetDefault(EnvLogLevel, "debug")
	v.SetDefault(EnvEnvironment, "development")
	v.SetDefault(EnvStatusAddr, ":4040")
	v.SetDefault(EnvRedisDB, 0)
	v.SetDefault(EnvCursorKey, "homework-watch:cursor")
	v.SetDefault(EnvAWSRegion, "us-east-1")
}

// Load reads .env (if present), then the environment, then configFile (if
// not empty), and validates the result. Environment variables win over the
// file.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "error loading .env")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", configFile)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Praktikum: PraktikumConfig{
			Token:  v.GetString(EnvPraktikumToken),
			APIURL: v.GetString(EnvPraktikumAPIURL),
		},
		Telegram: TelegramConfig{
			Token:  v.GetString(EnvTelegramToken),
			APIURL: v.GetString(EnvTelegramAPIURL),
		},
		Twilio: TwilioConfig{
			AccountSID:  v.GetString(EnvTwilioAccountSID),
			AuthToken:   v.GetString(EnvTwilioAuthToken),
			PhoneNumber: v.GetString(EnvTwilioPhoneNumber),
			Recipient:   v.GetString(EnvSMSPhone),
		},
		SNS: SNSConfig{
			TopicARN: v.GetString(EnvSNSTopicARN),
			Region:   v.GetString(EnvAWSRegion),
		},
		Redis: RedisConfig{
			Address:   v.GetString(EnvRedisAddr),
			Password:  v.GetString(EnvRedisPassword),
			DB:        v.GetInt(EnvRedisDB),
			CursorKey: v.GetString(EnvCursorKey),
		},
		Logging: LoggingConfig{
			File:        v.GetString(EnvLogFile),
			Level:       strings.ToLower(v.GetString(EnvLogLevel)),
			Environment: strings.ToLower(v.GetString(EnvEnvironment)),
		},
		PollInterval:   v.GetDuration(EnvPollInterval),
		RetryDelay:     v.GetDuration(EnvRetryDelay),
		RequestTimeout: v.GetDuration(EnvRequestTimeout),
		StatusAddr:     v.GetString(EnvStatusAddr),
	}

	if chatID := strings.TrimSpace(v.GetString(EnvTelegramChatID)); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s must be an integer", EnvTelegramChatID)
		}
		cfg.Telegram.ChatID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks that required settings are present and delays are sane.
func (c *Config) Validate() error {
	var missing []string
	if c.Praktikum.Token == "" {
		missing = append(missing, EnvPraktikumToken)
	}
	if c.Telegram.Token == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if c.Telegram.ChatID == 0 {
		missing = append(missing, EnvTelegramChatID)
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.PollInterval < time.Second {
		return errors.Errorf("%s must be at least one second, got %v", EnvPollInterval, c.PollInterval)
	}
	if c.RetryDelay < time.Second {
		return errors.Errorf("%s must be at least one second, got %v", EnvRetryDelay, c.RetryDelay)
	}
	if c.RequestTimeout <= 0 {
		return errors.Errorf("%s must be positive, got %v", EnvRequestTimeout, c.RequestTimeout)
	}
	return nil
}
