package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	logx "remindbot/pkg/logx"
)

type fireRecorder struct {
	mu    sync.Mutex
	fired []Payload
	ch    chan Payload
}

func newFireRecorder() *fireRecorder {
	return &fireRecorder{ch: make(chan Payload, 16)}
}

func (f *fireRecorder) fire(_ context.Context, p Payload) {
	f.mu.Lock()
	f.fired = append(f.fired, p)
	f.mu.Unlock()
	f.ch <- p
}

func (f *fireRecorder) wait(t *testing.T, d time.Duration) Payload {
	t.Helper()
	select {
	case p := <-f.ch:
		return p
	case <-time.After(d):
		t.Fatal("timed out waiting for fire")
		return Payload{}
	}
}

func (f *fireRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fired)
}

func newTestScheduler(t *testing.T) (*Service, *fireRecorder) {
	t.Helper()
	rec := newFireRecorder()
	s := New(logx.Nop(), time.UTC, rec.fire)
	s.Start(context.Background())
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s, rec
}

func TestScheduleAtPastFiresImmediately(t *testing.T) {
	t.Parallel()
	s, rec := newTestScheduler(t)

	s.ScheduleAt("r1", time.Now().Add(-time.Hour), Payload{ChatID: 42, Task: "late"})
	p := rec.wait(t, 2*time.Second)
	if p.ChatID != 42 || p.Task != "late" {
		t.Fatalf("fired payload = %+v", p)
	}
	if len(s.Snapshot()) != 0 {
		t.Fatal("fired job still pending")
	}
}

func TestScheduleAtShortDelayFires(t *testing.T) {
	t.Parallel()
	s, rec := newTestScheduler(t)

	s.ScheduleAt("r1", time.Now().Add(20*time.Millisecond), Payload{ChatID: 7, Task: "soon"})
	p := rec.wait(t, 2*time.Second)
	if p.Task != "soon" {
		t.Fatalf("fired payload = %+v", p)
	}
}

func TestCancelByName(t *testing.T) {
	t.Parallel()
	s, rec := newTestScheduler(t)

	s.ScheduleAt("r1", time.Now().Add(time.Hour), Payload{ChatID: 7})
	if n := s.CancelByName("r1"); n != 1 {
		t.Fatalf("CancelByName = %d, want 1", n)
	}
	if n := s.CancelByName("r1"); n != 0 {
		t.Fatalf("second CancelByName = %d, want 0", n)
	}
	if n := s.CancelByName("never-existed"); n != 0 {
		t.Fatalf("CancelByName unknown = %d, want 0", n)
	}
	if rec.count() != 0 {
		t.Fatal("cancelled job fired")
	}
}

func TestScheduleAtReplacesByName(t *testing.T) {
	t.Parallel()
	s, rec := newTestScheduler(t)

	// The first registration is replaced before it can fire; only the
	// second payload must be delivered.
	s.ScheduleAt("r1", time.Now().Add(time.Hour), Payload{Task: "old"})
	s.ScheduleAt("r1", time.Now().Add(20*time.Millisecond), Payload{Task: "new"})

	p := rec.wait(t, 2*time.Second)
	if p.Task != "new" {
		t.Fatalf("fired payload = %+v, want the replacement", p)
	}
	if len(s.Snapshot()) != 0 {
		t.Fatal("replaced job still pending")
	}
	time.Sleep(50 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("fired %d times, want 1", rec.count())
	}
}

func TestSnapshotOrder(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)

	base := time.Now().Add(time.Hour)
	s.ScheduleAt("b", base, Payload{})
	s.ScheduleAt("a", base, Payload{})
	s.ScheduleAt("c", base.Add(-time.Minute), Payload{})

	jobs := s.Snapshot()
	if len(jobs) != 3 {
		t.Fatalf("snapshot has %d jobs, want 3", len(jobs))
	}
	if jobs[0].Name != "c" || jobs[1].Name != "a" || jobs[2].Name != "b" {
		t.Fatalf("snapshot order = %v", jobs)
	}
}

func TestStopSilencesPendingTimers(t *testing.T) {
	t.Parallel()
	rec := newFireRecorder()
	s := New(logx.Nop(), time.UTC, rec.fire)
	s.Start(context.Background())

	s.ScheduleAt("r1", time.Now().Add(10*time.Millisecond), Payload{})
	s.Stop(context.Background())

	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatal("job fired after Stop")
	}
}

func TestAddDailyValidation(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)

	if err := s.AddDaily("ok", "03:30", func(context.Context) {}); err != nil {
		t.Fatalf("AddDaily error: %v", err)
	}
	if err := s.AddDaily("bad", "25:00", func(context.Context) {}); err == nil {
		t.Fatal("expected error for invalid hour")
	}
	if err := s.AddDaily("bad", "0330", func(context.Context) {}); err == nil {
		t.Fatal("expected error for missing colon")
	}

	stopped := New(logx.Nop(), time.UTC, nil)
	if err := stopped.AddDaily("x", "01:00", func(context.Context) {}); err == nil {
		t.Fatal("expected error before Start")
	}
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	h, m, err := parseHHMM("23:15")
	if err != nil {
		t.Fatalf("parseHHMM error: %v", err)
	}
	if h != 23 || m != 15 {
		t.Fatalf("unexpected result: %d:%d", h, m)
	}

	if _, _, err := parseHHMM("24:00"); err == nil {
		t.Fatal("expected error for invalid hour")
	}
}
