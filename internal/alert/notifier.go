package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"meditriage/internal/logger"
	"meditriage/internal/triage"
)

// MessageSender is the chat side of the notifier. *telegram.Client satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Stats is a snapshot of the degradation counters.
type Stats struct {
	RedFlagStoreFailures   int64     `json:"redFlagStoreFailures"`
	ConditionStoreFailures int64     `json:"conditionStoreFailures"`
	InternalFailures       int64     `json:"internalFailures"`
	AlertsSent             int64     `json:"alertsSent"`
	LastDegradedAt         time.Time `json:"lastDegradedAt,omitempty"`
}

type Options struct {
	Sender      MessageSender
	ChatID      int64
	MinInterval time.Duration
	Sentry      bool
	SendTimeout time.Duration
}

// Notifier counts and reports engine degradation. Store failures are a
// safety concern: the red-flag layer runs on its static list only while the
// catalog is unreachable.
type Notifier struct {
	opts Options
	log  *zap.Logger

	redFlagFailures   *atomic.Int64
	conditionFailures *atomic.Int64
	internalFailures  *atomic.Int64
	alertsSent        *atomic.Int64
	lastDegraded      *atomic.Time
	pending           sync.WaitGroup
	lastAlert         *atomic.Int64
}

var _ triage.Reporter = (*Notifier)(nil)

func NewNotifier(opts Options, log *zap.Logger) *Notifier {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	return &Notifier{
		opts:              opts,
		log:               log,
		redFlagFailures:   atomic.NewInt64(0),
		conditionFailures: atomic.NewInt64(0),
		internalFailures:  atomic.NewInt64(0),
		alertsSent:        atomic.NewInt64(0),
		lastDegraded:      atomic.NewTime(time.Time{}),
		lastAlert:         atomic.NewInt64(0),
	}
}

func (n *Notifier) StoreDegraded(ctx context.Context, component string, err error) {
	switch component {
	case triage.ComponentRedFlag:
		n.redFlagFailures.Inc()
	case triage.ComponentCondition:
		n.conditionFailures.Inc()
	}
	n.lastDegraded.Store(time.Now())

	logger.FromContext(ctx, n.log).Error("reference store degraded",
		zap.String("component", component), zap.Error(err), zap.String("event", "store_degraded"))

	n.capture(err, map[string]string{"component": component, "kind": "store_degraded"})

	if component == triage.ComponentRedFlag {
		n.alert(ctx, fmt.Sprintf("Triage red-flag lookup degraded to the static list: %v", err))
	}
}

func (n *Notifier) InternalFailure(ctx context.Context, err error) {
	n.internalFailures.Inc()
	logger.FromContext(ctx, n.log).Error("triage internal failure", zap.Error(err), zap.String("event", "internal_failure"))
	n.capture(err, map[string]string{"kind": "internal_failure"})
	n.alert(ctx, fmt.Sprintf("Triage request failed: %v", err))
}

func (n *Notifier) Stats() Stats {
	return Stats{
		RedFlagStoreFailures:   n.redFlagFailures.Load(),
		ConditionStoreFailures: n.conditionFailures.Load(),
		InternalFailures:       n.internalFailures.Load(),
		AlertsSent:             n.alertsSent.Load(),
		LastDegradedAt:         n.lastDegraded.Load(),
	}
}

func (n *Notifier) capture(err error, tags map[string]string) {
	if !n.opts.Sentry {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// alert sends at most one chat message per MinInterval, off the caller's
// goroutine.
func (n *Notifier) alert(ctx context.Context, text string) {
	if n.opts.Sender == nil || n.opts.ChatID == 0 {
		return
	}
	now := time.Now().UnixNano()
	last := n.lastAlert.Load()
	if last != 0 && time.Duration(now-last) < n.opts.MinInterval {
		return
	}
	if !n.lastAlert.CompareAndSwap(last, now) {
		return
	}

	ctx = context.WithoutCancel(ctx)
	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, n.opts.SendTimeout)
		defer cancel()
		if err := n.opts.Sender.SendMessage(ctx, n.opts.ChatID, text); err != nil {
			logger.FromContext(ctx, n.log).Warn("failed to send alert", zap.Error(err))
			return
		}
		n.alertsSent.Inc()
	}()
}

// Wait blocks until in-flight alerts are delivered.
func (n *Notifier) Wait() {
	n.pending.Wait()
}
