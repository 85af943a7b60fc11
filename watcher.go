package homework

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Default delays between polls.
const (
	DefaultInterval   = 5 * time.Minute
	DefaultRetryDelay = 5 * time.Second
)

// Snapshot is the watcher state exposed by the status server.
type Snapshot struct {
	Polls        int        `json:"polls"`
	LastPoll     *time.Time `json:"last_poll,omitempty"`
	Cursor       int64      `json:"cursor"`
	LastHomework *Homework  `json:"last_homework,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// Watcher polls the homework API and notifies when the newest submission
// changes review status.
type Watcher struct {
	// Interval is how long to wait after a successful poll.
	Interval time.Duration

	// RetryDelay is how long to wait after a failed poll.
	RetryDelay time.Duration

	fetcher  StatusFetcher
	notifier Notifier
	cursor   CursorStore
	metrics  *Metrics
	log      *zap.SugaredLogger
	now      func() time.Time

	// lastSent is the updateKey of the last delivered review. lastSent and
	// lastReported are only touched by the polling goroutine.
	lastSent     string
	lastReported string

	mu       sync.Mutex
	snapshot Snapshot
}

// NewWatcher returns a watcher fetching statuses with fetcher and sending
// messages through notifier every interval.
func NewWatcher(
	fetcher StatusFetcher,
	notifier Notifier,
	interval time.Duration,
	options ...func(*Watcher)) (*Watcher, error) {

	if fetcher == nil {
		return nil, errors.New("status fetcher must be specified")
	}
	if notifier == nil {
		return nil, errors.New("notifier must be specified")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	w := &Watcher{
		Interval:   interval,
		RetryDelay: DefaultRetryDelay,
		fetcher:    fetcher,
		notifier:   notifier,
		cursor:     &MemoryCursor{},
		metrics:    NewMetrics(nil),
		log:        zap.NewNop().Sugar(),
		now:        time.Now,
	}
	for _, o := range options {
		o(w)
	}
	return w, nil
}

// WithWatcherLogger sets the logger used by the watcher.
func WithWatcherLogger(logger *zap.SugaredLogger) func(*Watcher) {
	return func(w *Watcher) {
		w.log = logger
	}
}

// WithCursorStore replaces the in-memory cursor.
func WithCursorStore(store CursorStore) func(*Watcher) {
	return func(w *Watcher) {
		if store != nil {
			w.cursor = store
		}
	}
}

// WithMetrics sets the collectors the watcher updates.
func WithMetrics(m *Metrics) func(*Watcher) {
	return func(w *Watcher) {
		if m != nil {
			w.metrics = m
		}
	}
}

// WithRetryDelay sets the wait after a failed poll.
func WithRetryDelay(d time.Duration) func(*Watcher) {
	return func(w *Watcher) {
		if d > 0 {
			w.RetryDelay = d
		}
	}
}

// Watch polls immediately and then keeps polling until ctx is done,
// waiting Interval after a successful poll and RetryDelay after a failed
// one. Failures are reported through the notifier; an identical failure
// is reported once, and reported again only after a poll has succeeded.
func (w *Watcher) Watch(ctx context.Context) error {
	w.log.Infow("watching for homework reviews",
		"poll_interval", w.Interval,
		"retry_delay", w.RetryDelay)

	for {
		delay := w.Interval
		if err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			delay = w.RetryDelay
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.log.Infow("stopped watching for homework reviews")
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce polls once and reports a failure through the notifier, unless
// the same failure was already reported since the last successful poll.
func (w *Watcher) RunOnce(ctx context.Context) error {
	err := w.Poll(ctx)
	if err != nil && ctx.Err() == nil {
		w.reportError(ctx, err)
	}
	return err
}

// Poll runs a single fetch-parse-notify cycle. The cursor is advanced only
// once the newest homework has been delivered (or found unusable).
func (w *Watcher) Poll(ctx context.Context) error {
	log := w.log.With("poll_id", uuid.NewString())
	start := w.now()
	defer func() {
		w.metrics.PollDuration.Observe(w.now().Sub(start).Seconds())
	}()

	hw, cursor, err := w.poll(ctx, log)
	w.record(start, hw, cursor, err)
	if err != nil {
		w.metrics.Polls.WithLabelValues(resultError).Inc()
		return err
	}
	w.metrics.Polls.WithLabelValues(resultOK).Inc()
	w.metrics.Cursor.Set(float64(cursor))
	w.lastReported = ""
	return nil
}

func (w *Watcher) poll(ctx context.Context, log *zap.SugaredLogger) (*Homework, int64, error) {
	cursor, ok, err := w.cursor.Load(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "error loading cursor")
	}
	if !ok {
		cursor = w.now().Unix()
		log.Debugw("no stored cursor, starting from now", "cursor", cursor)
	}

	resp, err := w.fetcher.FetchStatuses(ctx, cursor)
	if err != nil {
		return nil, cursor, err
	}

	var latest *Homework
	if len(resp.Homeworks) > 0 {
		latest = &resp.Homeworks[0]
		if err := w.notifyHomework(ctx, log, *latest); err != nil {
			return latest, cursor, err
		}
	}

	next := cursor
	if resp.CurrentDate != 0 {
		next = resp.CurrentDate
	}
	if err := w.cursor.Save(ctx, next); err != nil {
		return latest, cursor, errors.Wrap(err, "error saving cursor")
	}
	if next != cursor {
		log.Debugw("advanced cursor", "cursor", next, "prev_cursor", cursor)
	}
	return latest, next, nil
}

func (w *Watcher) notifyHomework(ctx context.Context, log *zap.SugaredLogger, hw Homework) error {
	message, err := ParseHomeworkStatus(hw)
	if err != nil {
		log.Errorw("unable to build homework message",
			"homework_name", hw.Name,
			"status", hw.Status,
			"err", err)
		if nerr := w.notifier.Notify(ctx, "Unable to read homework status: "+err.Error()); nerr != nil {
			w.metrics.Notifications.WithLabelValues(kindSendFailed).Inc()
			return errors.Wrap(nerr, "error reporting unusable homework")
		}
		w.metrics.Notifications.WithLabelValues(kindError).Inc()
		return nil
	}

	key := updateKey(hw)
	if key == w.lastSent {
		log.Debugw("homework status unchanged, not notifying",
			"homework_name", hw.Name,
			"status", hw.Status)
		return nil
	}
	if err := w.notifier.Notify(ctx, message); err != nil {
		w.metrics.Notifications.WithLabelValues(kindSendFailed).Inc()
		return errors.Wrap(err, "error sending homework notification")
	}
	w.lastSent = key
	w.metrics.Notifications.WithLabelValues(kindReview).Inc()
	log.Infow("sent homework notification",
		"homework_name", hw.Name,
		"status", hw.Status)
	return nil
}

// updateKey identifies a single review of a homework. A resubmitted
// homework reviewed again has a new date_updated, so it gets a new key.
func updateKey(hw Homework) string {
	return strconv.FormatInt(hw.ID, 10) + "\x00" + hw.Name + "\x00" +
		string(hw.Status) + "\x00" + hw.DateUpdated
}

// reportError logs err and sends it through the notifier, unless the same
// error was already reported since the last successful poll.
func (w *Watcher) reportError(ctx context.Context, err error) {
	w.log.Errorw("homework poll failed",
		"retry_in", w.RetryDelay,
		"err", err)

	report := "Homework watcher error: " + err.Error()
	if report == w.lastReported {
		return
	}
	if nerr := w.notifier.Notify(ctx, report); nerr != nil {
		w.metrics.Notifications.WithLabelValues(kindSendFailed).Inc()
		w.log.Warnw("unable to report poll failure", "err", nerr)
		return
	}
	w.metrics.Notifications.WithLabelValues(kindError).Inc()
	w.lastReported = report
}

func (w *Watcher) record(at time.Time, hw *Homework, cursor int64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshot.Polls++
	w.snapshot.LastPoll = &at
	if cursor != 0 {
		w.snapshot.Cursor = cursor
	}
	if hw != nil {
		h := *hw
		w.snapshot.LastHomework = &h
	}
	w.snapshot.LastError = ""
	if err != nil {
		w.snapshot.LastError = err.Error()
	}
}

// Snapshot returns the state after the most recent poll.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.snapshot
	if s.LastPoll != nil {
		t := *s.LastPoll
		s.LastPoll = &t
	}
	if s.LastHomework != nil {
		h := *s.LastHomework
		s.LastHomework = &h
	}
	return s
}
