package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "remindbot/pkg/logx"
)

// Payload carries enough to reconstruct the notification at fire time.
type Payload struct {
	ChatID int64
	Task   string
}

// FireFunc delivers one fired payload. It runs on a timer goroutine,
// concurrently with the request path, and must not mutate the reminder
// store.
type FireFunc func(ctx context.Context, p Payload)

// Job is a point-in-time view of one pending fire.
type Job struct {
	Name   string
	FireAt time.Time
}

type entry struct {
	timer   *time.Timer
	at      time.Time
	payload Payload
	ver     uint64
}

type Service struct {
	log  logx.Logger
	fire FireFunc

	mu      sync.Mutex
	entries map[string]*entry

	runCtx    context.Context
	runCancel context.CancelFunc

	loc *time.Location
	c   *cron.Cron
}

func New(log logx.Logger, loc *time.Location, fire FireFunc) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		log:     log,
		fire:    fire,
		entries: map[string]*entry{},
		loc:     loc,
	}
}

// Start makes the service live: timers registered from here on fire their
// payloads, and maintenance cron entries begin running.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return
	}
	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.c = cron.New(cron.WithLocation(s.loc))
	s.c.Start()
}

// Stop cancels the fire context, stops all pending timers and waits for the
// cron runner to drain.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	cancel := s.runCancel
	s.runCtx, s.runCancel = nil, nil
	c := s.c
	s.c = nil
	for name, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, name)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
}

// ScheduleAt registers a one-shot fire under name, replacing any previous
// registration with the same name. A fireAt in the past fires immediately.
func (s *Service) ScheduleAt(name string, fireAt time.Time, p Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ver uint64 = 1
	if prev, ok := s.entries[name]; ok {
		prev.timer.Stop()
		ver = prev.ver + 1
	}

	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}

	e := &entry{at: fireAt, payload: p, ver: ver}
	e.timer = time.AfterFunc(delay, func() { s.dispatch(name, ver) })
	s.entries[name] = e

	s.log.Debug("job scheduled",
		logx.String("name", name),
		logx.Time("fire_at", fireAt),
		logx.Duration("in", delay))
}

// dispatch runs on the timer goroutine. A version mismatch means the entry
// was replaced after this timer was armed; ignore the stale callback.
func (s *Service) dispatch(name string, ver uint64) {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok || e.ver != ver {
		s.mu.Unlock()
		return
	}
	delete(s.entries, name)
	ctx := s.runCtx
	p := e.payload
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}
	if s.fire != nil {
		s.fire(ctx, p)
	}
}

// CancelByName removes the job with the given name and reports how many
// registrations were removed. Zero matches is a no-op, not an error.
func (s *Service) CancelByName(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return 0
	}
	e.timer.Stop()
	delete(s.entries, name)
	s.log.Debug("job cancelled", logx.String("name", name))
	return 1
}

// Snapshot lists pending jobs sorted by fire time, then name.
func (s *Service) Snapshot() []Job {
	s.mu.Lock()
	jobs := make([]Job, 0, len(s.entries))
	for name, e := range s.entries {
		jobs = append(jobs, Job{Name: name, FireAt: e.at})
	}
	s.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].FireAt.Equal(jobs[j].FireAt) {
			return jobs[i].FireAt.Before(jobs[j].FireAt)
		}
		return jobs[i].Name < jobs[j].Name
	})
	return jobs
}

// AddDaily registers a maintenance job running every day at HH:MM in the
// scheduler timezone. Call after Start.
func (s *Service) AddDaily(name, atHHMM string, job func(ctx context.Context)) error {
	h, m, err := parseHHMM(atHHMM)
	if err != nil {
		return err
	}
	s.mu.Lock()
	c := s.c
	s.mu.Unlock()
	if c == nil {
		return errors.New("scheduler not started")
	}
	spec := fmt.Sprintf("%d %d * * *", m, h)
	_, err = c.AddFunc(spec, func() {
		s.mu.Lock()
		ctx := s.runCtx
		s.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		s.log.Debug("maintenance job running", logx.String("name", name))
		job(ctx)
	})
	return err
}

func parseHHMM(v string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &h, &m); err != nil {
		return 0, 0, fmt.Errorf("invalid HH:MM %q: %w", v, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	return h, m, nil
}
