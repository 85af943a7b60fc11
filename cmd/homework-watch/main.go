package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	homework "github.com/ianfoo/homework-watch"
	"github.com/ianfoo/homework-watch/internal/config"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var (
		configFile = flag.String("config", "", "Optional YAML config file")
		addr       = flag.String("addr", "", "Address on which to run the HTTP status server (overrides "+config.EnvStatusAddr+")")
		once       = flag.Bool("once", false, "Poll once and exit")
	)
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		exitUsage(err)
	}
	if *addr != "" {
		cfg.StatusAddr = *addr
	}
	log, err := logger(cfg.Logging)
	if err != nil {
		exit(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	watcher, cleanup, err := setup(ctx, cfg, log, reg)
	if err != nil {
		log.Errorw("unable to start", "err", err)
		exit(err)
	}
	defer cleanup()

	if *once {
		if err := watcher.RunOnce(ctx); err != nil {
			log.Errorw("poll failed", "err", err)
			os.Exit(1)
		}
		return
	}

	srv := setupHTTP(log, cfg.StatusAddr, homework.StatusHandler(watcher, reg))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Infow("starting", "status_addr", cfg.StatusAddr)
	watcher.Watch(ctx)
}

func logger(cfg config.LoggingConfig) (*zap.SugaredLogger, error) {
	var zcfg zap.Config
	switch cfg.Environment {
	case "prod", "production":
		zcfg = zap.NewProductionConfig()
	default:
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02, 15:04:05")
	zcfg.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.File)
	}
	log, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}

func setup(
	ctx context.Context,
	cfg *config.Config,
	log *zap.SugaredLogger,
	reg prometheus.Registerer) (*homework.Watcher, func(), error) {

	cleanup := func() {}

	client, err := homework.NewPraktikumClient(cfg.Praktikum.Token,
		homework.WithPraktikumBaseURL(cfg.Praktikum.APIURL),
		homework.WithPraktikumTimeout(cfg.RequestTimeout),
		homework.WithPraktikumLogger(log))
	if err != nil {
		return nil, cleanup, err
	}

	notifier, err := notifiers(ctx, cfg, log)
	if err != nil {
		return nil, cleanup, err
	}

	var cursor homework.CursorStore = &homework.MemoryCursor{}
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, cleanup, errors.Wrap(err, "redis ping failed")
		}
		cleanup = func() { rdb.Close() }
		cursor = homework.NewRedisCursor(rdb, cfg.Redis.CursorKey)
		log.Infow("storing cursor in redis",
			"addr", cfg.Redis.Address,
			"key", cfg.Redis.CursorKey)
	}

	watcher, err := homework.NewWatcher(client, notifier, cfg.PollInterval,
		homework.WithRetryDelay(cfg.RetryDelay),
		homework.WithCursorStore(cursor),
		homework.WithMetrics(homework.NewMetrics(reg)),
		homework.WithWatcherLogger(log))
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return watcher, cleanup, nil
}

func notifiers(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (homework.Notifier, error) {
	telegram, err := homework.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID,
		homework.WithTelegramAPIURL(cfg.Telegram.APIURL),
		homework.WithTelegramTimeout(cfg.RequestTimeout),
		homework.WithTelegramLogger(log))
	if err != nil {
		return nil, err
	}
	all := homework.MultiNotifier{telegram}

	if cfg.Twilio.Enabled() {
		twilio, err := homework.NewTwilioSMSSender(
			cfg.Twilio.AccountSID,
			cfg.Twilio.AuthToken,
			cfg.Twilio.PhoneNumber,
			cfg.Twilio.Recipient,
			homework.WithTwilioLogger(log))
		if err != nil {
			return nil, err
		}
		all = append(all, twilio)
	} else {
		log.Infow("SMS sending disabled",
			"sid_empty", cfg.Twilio.AccountSID == "",
			"token_empty", cfg.Twilio.AuthToken == "",
			"sender_empty", cfg.Twilio.PhoneNumber == "",
			"phone_empty", cfg.Twilio.Recipient == "")
	}

	if cfg.SNS.Enabled() {
		sns, err := homework.NewSNSNotifier(ctx, cfg.SNS.Region, cfg.SNS.TopicARN,
			homework.WithSNSLogger(log))
		if err != nil {
			return nil, err
		}
		all = append(all, sns)
	}
	return all, nil
}

func setupHTTP(log *zap.SugaredLogger, addr string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Errorw("error running HTTP server", "err", err)
		}
		log.Infow("HTTP server stopped")
	}()
	return srv
}

func exit(err error) {
	log.SetFlags(0)
	log.SetPrefix("")
	log.Fatal(err)
}

func exitUsage(err error) {
	log.SetFlags(0)
	log.SetPrefix(filepath.Base(os.Args[0]) + ": ")
	log.Print(err)
	flag.Usage()
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		`usage: %s [optional arguments]

Watches the Praktikum homework API and sends a Telegram message when the
review status of your latest homework changes.

Optional arguments:
  -config      YAML file with any of the settings below, keys in lower case.
  -addr        Address on which to run the HTTP status server.
               Default ":4040"
  -once        Poll a single time and exit.

environment (a .env file in the working directory is read first):
  %-20s OAuth token for the Praktikum API. Required.
  %-20s Telegram bot token. Required.
  %-20s Telegram chat to notify. Required.
  %-20s How often to poll. Defaults to 5m, must be 1s or greater.
  %-20s How long to wait after a failed poll. Defaults to 5s.
  %-20s Log file, in addition to standard error. Defaults to bot.log.
  %-20s Redis address for keeping the cursor across restarts.
  %-20s Twilio account SID, for optional SMS copies.
  %-20s Phone number to send SMS copies to.
  %-20s SNS topic to publish copies to.
`,
		filepath.Base(os.Args[0]),
		config.EnvPraktikumToken,
		config.EnvTelegramToken,
		config.EnvTelegramChatID,
		config.EnvPollInterval,
		config.EnvRetryDelay,
		config.EnvLogFile,
		config.EnvRedisAddr,
		config.EnvTwilioAccountSID,
		config.EnvSMSPhone,
		config.EnvSNSTopicARN)
}
