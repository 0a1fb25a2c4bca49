package service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"helpbot/metrics"
	"helpbot/store"
)

const probeTimeout = 5 * time.Second

// StoreProbe pings the message store and publishes the result as the
// helpbot_store_up gauge.
type StoreProbe struct {
	store  store.MessageStore
	logger *logrus.Logger

	mu   sync.Mutex
	up   bool
	seen bool
}

func NewStoreProbe(st store.MessageStore, logger *logrus.Logger) *StoreProbe {
	return &StoreProbe{store: st, logger: logger}
}

// Run performs one probe and reports whether the store answered.
func (p *StoreProbe) Run() bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	err := p.store.Ping(ctx)
	up := err == nil
	if up {
		metrics.StoreUp.Set(1)
	} else {
		metrics.StoreUp.Set(0)
	}

	p.mu.Lock()
	changed := !p.seen || p.up != up
	p.up, p.seen = up, true
	p.mu.Unlock()

	if changed {
		if up {
			p.logger.Infof("[%s] message store is reachable", "scheduled task")
		} else {
			p.logger.Errorf("[%s] message store is unreachable, %s", "scheduled task", err)
		}
	}
	return up
}

// StartStoreProbe probes once right away, then on every tick of schedule (cron syntax).
// The returned scheduler must be stopped by the caller.
func StartStoreProbe(schedule string, st store.MessageStore, logger *logrus.Logger) (*cron.Cron, error) {
	probe := NewStoreProbe(st, logger)
	probe.Run()

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { probe.Run() }); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
