package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"remindbot/internal/scheduler"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

// Notifier is the outbound message boundary the core talks to. The core
// never depends on the transport behind it. Implementations log their own
// delivery failures; the core does not retry.
type Notifier interface {
	// Prompt asks for the next conversation input.
	Prompt(ctx context.Context, owner int64, text string)
	// PromptRetry re-asks for the current conversation input after invalid input.
	PromptRetry(ctx context.Context, owner int64, text string)
	// ConfirmCreated acknowledges a committed reminder set.
	ConfirmCreated(ctx context.Context, owner int64, summary string)
	// Deliver sends a fired reminder.
	Deliver(ctx context.Context, owner int64, text string)
	// ListReply answers list/delete commands.
	ListReply(ctx context.Context, owner int64, text string)
}

// JobScheduler is the timed-job facility the service schedules fires
// against. Implemented by *scheduler.Service.
type JobScheduler interface {
	ScheduleAt(name string, fireAt time.Time, p scheduler.Payload)
	CancelByName(name string) int
}

// Service orchestrates reminder creation, deletion and startup
// reconciliation.
//
// All store and job mutation is serialized through s.mu, so the service can
// be driven both from the router's update loop and from maintenance jobs.
// The fire path never goes through the service.
type Service struct {
	log  logx.Logger
	out  Notifier
	jobs JobScheduler
	loc  *time.Location

	now func() time.Time

	mu    sync.Mutex
	store storage.Store
	conv  map[int64]*draft
}

func New(store storage.Store, jobs JobScheduler, out Notifier, loc *time.Location, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		log:   log,
		out:   out,
		jobs:  jobs,
		loc:   loc,
		now:   time.Now,
		store: store,
		conv:  map[int64]*draft{},
	}
}

// Create resolves every (day, hour) pair in input order (days outer, hours
// inner), persists one reminder per pair and schedules its fire. A pair
// whose calendar date cannot be constructed is skipped and reported in
// failed; sibling pairs are unaffected. A store write failure aborts the
// remainder and is returned, with everything created so far kept.
func (s *Service) Create(owner int64, task string, days, hours []int, now time.Time) (created []storage.Reminder, failed []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(owner, task, days, hours, now)
}

func (s *Service) createLocked(owner int64, task string, days, hours []int, now time.Time) (created []storage.Reminder, failed []string, err error) {
	for _, day := range days {
		for _, hour := range hours {
			fireAt, rerr := Occurrence(day, hour, now, s.loc)
			if rerr != nil {
				s.log.Warn("skipping unresolvable occurrence",
					logx.Int64("owner", owner),
					logx.Int("day", day),
					logx.Int("hour", hour),
					logx.Err(rerr))
				failed = append(failed, rerr.Error())
				continue
			}
			r := storage.NewReminder(owner, task, fireAt)
			if serr := s.store.Append(owner, r); serr != nil {
				return created, failed, fmt.Errorf("persist reminder: %w", serr)
			}
			s.jobs.ScheduleAt(r.ID, fireAt, scheduler.Payload{ChatID: owner, Task: task})
			created = append(created, r)
		}
	}
	s.log.Info("reminders created",
		logx.Int64("owner", owner),
		logx.Int("count", len(created)),
		logx.Int("failed", len(failed)))
	return created, failed, nil
}

// Delete removes the reminder at the 1-based display index and cancels its
// scheduled job. The index refers to the ordering the user last saw, which
// List keeps in step with the stored order.
func (s *Service) Delete(owner int64, displayIndex int) (storage.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.RemoveAt(owner, displayIndex-1)
	if err != nil {
		return storage.Reminder{}, err
	}
	n := s.jobs.CancelByName(removed.ID)
	s.log.Info("reminder deleted",
		logx.Int64("owner", owner),
		logx.String("id", removed.ID),
		logx.Int("jobs_cancelled", n))
	return removed, nil
}

// List returns the owner's reminders ascending by fire time.
func (s *Service) List(owner int64) ([]storage.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ListSorted(owner)
}

// Reconcile replays the persisted store into the scheduler at startup:
// future reminders are re-scheduled and kept, past-due ones are dropped.
// The filtered store is persisted. Returns the rescheduled count.
func (s *Service) Reconcile(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.Load()
	if err != nil {
		return 0, err
	}

	kept := make(map[string][]storage.Reminder, len(all))
	count := 0
	for key, list := range all {
		valid := []storage.Reminder{}
		for _, r := range list {
			fireAt, perr := r.FireAt(s.loc)
			if perr != nil {
				s.log.Warn("dropping unparseable reminder", logx.String("id", r.ID), logx.Err(perr))
				continue
			}
			if !fireAt.After(now) {
				continue
			}
			s.jobs.ScheduleAt(r.ID, fireAt, scheduler.Payload{ChatID: r.ChatID, Task: r.Task})
			valid = append(valid, r)
			count++
		}
		kept[key] = valid
	}

	if err := s.store.Save(kept); err != nil {
		return count, fmt.Errorf("persist reconciled store: %w", err)
	}
	s.log.Info("reminders reconciled", logx.Int("rescheduled", count))
	return count, nil
}

// PruneDue drops past-due records without touching scheduled jobs. It is
// the maintenance counterpart of Reconcile for long-running processes, so
// fired reminders don't accumulate between restarts.
func (s *Service) PruneDue(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.Load()
	if err != nil {
		return 0, err
	}

	dropped := 0
	kept := make(map[string][]storage.Reminder, len(all))
	for key, list := range all {
		valid := []storage.Reminder{}
		for _, r := range list {
			fireAt, perr := r.FireAt(s.loc)
			if perr == nil && fireAt.After(now) {
				valid = append(valid, r)
				continue
			}
			dropped++
		}
		kept[key] = valid
	}
	if dropped == 0 {
		return 0, nil
	}
	if err := s.store.Save(kept); err != nil {
		return 0, fmt.Errorf("persist pruned store: %w", err)
	}
	s.log.Info("past-due reminders pruned", logx.Int("dropped", dropped))
	return dropped, nil
}
