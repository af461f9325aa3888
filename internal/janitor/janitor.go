// Package janitor periodically evicts idle in-memory conversations and games.
package janitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper drops entries idle as of now and returns how many it removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

// parser accepts 5-field expressions and descriptors such as "@every 5m".
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Janitor runs named sweepers on a cron schedule.
type Janitor struct {
	cron     *cron.Cron
	logger   *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
	sweepers map[string]Sweeper
	names    []string
}

// New validates the schedule and builds a stopped Janitor.
func New(schedule string, logger *zap.Logger) (*Janitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &Janitor{
		cron:     cron.New(cron.WithParser(parser)),
		logger:   logger,
		now:      time.Now,
		sweepers: make(map[string]Sweeper),
	}
	if _, err := j.cron.AddFunc(schedule, func() { j.RunOnce() }); err != nil {
		return nil, fmt.Errorf("janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Add registers a sweeper under name. Nil sweepers are ignored.
func (j *Janitor) Add(name string, s Sweeper) {
	if s == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.sweepers[name]; !ok {
		j.names = append(j.names, name)
	}
	j.sweepers[name] = s
}

// RunOnce sweeps every registered sweeper and returns the total evicted.
func (j *Janitor) RunOnce() int {
	j.mu.Lock()
	names := append([]string(nil), j.names...)
	sweepers := make([]Sweeper, len(names))
	for i, n := range names {
		sweepers[i] = j.sweepers[n]
	}
	j.mu.Unlock()

	now := j.now()
	total := 0
	for i, s := range sweepers {
		n := s.Sweep(now)
		total += n
		if n > 0 {
			j.logger.Info("janitor_evicted", zap.String("target", names[i]), zap.Int("count", n))
		}
	}
	return total
}

func (j *Janitor) Start() { j.cron.Start() }

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}
