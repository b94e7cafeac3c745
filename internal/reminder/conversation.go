package reminder

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

// State is the position of one owner's creation flow.
type State int

const (
	StateIdle State = iota
	StateAwaitingTask
	StateAwaitingDates
	StateAwaitingTimes
)

// draft accumulates the creation flow's fields. It is cleared on commit or
// cancel (the terminal states).
type draft struct {
	state State
	task  string
	days  []int
}

// ActiveState reports where the owner's creation flow currently is.
func (s *Service) ActiveState(owner int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.conv[owner]; ok {
		return d.state
	}
	return StateIdle
}

// HandleAddCommand starts (or restarts) the creation flow for owner.
func (s *Service) HandleAddCommand(ctx context.Context, owner int64) {
	s.mu.Lock()
	s.conv[owner] = &draft{state: StateAwaitingTask}
	s.mu.Unlock()
	s.out.Prompt(ctx, owner, msgAskTask)
}

// HandleCancelCommand abandons any in-flight creation flow.
func (s *Service) HandleCancelCommand(ctx context.Context, owner int64) {
	s.mu.Lock()
	delete(s.conv, owner)
	s.mu.Unlock()
	s.out.ListReply(ctx, owner, msgCancelled)
}

// HandleText feeds free text into the active creation flow. It returns
// false when the owner has no flow in progress and the text should be
// handled elsewhere.
func (s *Service) HandleText(ctx context.Context, owner int64, text string) bool {
	switch s.ActiveState(owner) {
	case StateAwaitingTask:
		s.HandleTaskInput(ctx, owner, text)
	case StateAwaitingDates:
		s.HandleDatesInput(ctx, owner, text)
	case StateAwaitingTimes:
		s.HandleTimesInput(ctx, owner, text)
	default:
		return false
	}
	return true
}

// HandleTaskInput stores the task text and advances to date input.
func (s *Service) HandleTaskInput(ctx context.Context, owner int64, text string) {
	s.mu.Lock()
	d, ok := s.conv[owner]
	if !ok || d.state != StateAwaitingTask {
		s.mu.Unlock()
		return
	}
	d.task = strings.TrimSpace(text)
	d.state = StateAwaitingDates
	task := d.task
	s.mu.Unlock()

	s.out.Prompt(ctx, owner, "✅ Task: "+task+"\n\n"+msgAskDates)
}

// HandleDatesInput validates day input. Invalid input re-enters the same
// state with a retry prompt; it never advances.
func (s *Service) HandleDatesInput(ctx context.Context, owner int64, text string) {
	s.mu.Lock()
	d, ok := s.conv[owner]
	if !ok || d.state != StateAwaitingDates {
		s.mu.Unlock()
		return
	}
	days, err := ParseDays(text)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrEmptyResult) {
			s.out.PromptRetry(ctx, owner, msgBadDates)
		} else {
			s.out.PromptRetry(ctx, owner, msgBadDateFormat)
		}
		return
	}
	d.days = days
	d.state = StateAwaitingTimes
	s.mu.Unlock()

	s.out.Prompt(ctx, owner, "✅ Dates: "+joinInts(days)+"\n\n"+msgAskTimes)
}

// HandleTimesInput validates hour input and, on success, commits the draft:
// the reminder set is created, persisted and scheduled, and the draft is
// cleared.
func (s *Service) HandleTimesInput(ctx context.Context, owner int64, text string) {
	s.mu.Lock()
	d, ok := s.conv[owner]
	if !ok || d.state != StateAwaitingTimes {
		s.mu.Unlock()
		return
	}
	hours, err := ParseHours(text)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrEmptyResult) {
			s.out.PromptRetry(ctx, owner, msgBadTimes)
		} else {
			s.out.PromptRetry(ctx, owner, msgBadTimeFormat)
		}
		return
	}

	created, failed, cerr := s.createLocked(owner, d.task, d.days, hours, s.now())
	task, days := d.task, d.days
	delete(s.conv, owner)
	s.mu.Unlock()

	if cerr != nil {
		s.log.Error("reminder creation failed", logx.Int64("owner", owner), logx.Err(cerr))
		s.out.ListReply(ctx, owner, msgSaveFailed)
		return
	}
	s.out.ConfirmCreated(ctx, owner, confirmText(task, days, hours, len(created), len(failed)))
}

// HandleListCommand replies with the owner's reminders sorted by fire time.
func (s *Service) HandleListCommand(ctx context.Context, owner int64) {
	list, err := s.List(owner)
	if err != nil {
		s.log.Error("list reminders failed", logx.Int64("owner", owner), logx.Err(err))
		return
	}
	if len(list) == 0 {
		s.out.ListReply(ctx, owner, msgNoReminders)
		return
	}
	s.out.ListReply(ctx, owner, listText(list, s.loc))
}

// HandleDeleteCommand parses the raw /delete argument and removes the
// reminder at that display index.
func (s *Service) HandleDeleteCommand(ctx context.Context, owner int64, rawArg string) {
	arg := strings.TrimSpace(rawArg)
	if arg == "" {
		s.out.ListReply(ctx, owner, msgDeleteUsage)
		return
	}
	index, err := strconv.Atoi(arg)
	if err != nil {
		s.out.ListReply(ctx, owner, msgDeleteBadArg)
		return
	}
	removed, err := s.Delete(owner, index)
	if err != nil {
		if errors.Is(err, storage.ErrIndexOutOfRange) {
			s.out.ListReply(ctx, owner, msgDeleteBadIndex)
			return
		}
		s.log.Error("reminder delete failed", logx.Int64("owner", owner), logx.Err(err))
		s.out.ListReply(ctx, owner, msgSaveFailed)
		return
	}
	s.out.ListReply(ctx, owner, "✅ Reminder deleted: "+removed.Task)
}
