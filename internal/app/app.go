// Package app wires configuration, logging, storage, the scheduler and the
// Telegram transport into one runnable bot.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"remindbot/internal/config"
	"remindbot/internal/notify"
	"remindbot/internal/reminder"
	rtsup "remindbot/internal/runtime/supervisor"
	"remindbot/internal/scheduler"
	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
	teleadapter "remindbot/internal/transport/telegram/adapter"
	"remindbot/internal/transport/telegram/router"
	logx "remindbot/pkg/logx"
)

// defaultTimezone matches the zone the legacy bot hard-coded; configs can
// override it but persisted datetimes are naive, so changing it later
// reinterprets existing records.
const defaultTimezone = "Asia/Kolkata"

const pruneAt = "03:30"

type App struct {
	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service

	loc     *time.Location
	adapter kit.Adapter
	store   storage.Store
	sched   *scheduler.Service
	notif   *notify.Service
	rem     *reminder.Service
	rtr     *router.Router

	maintenance bool
	updates     chan kit.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validate(context.Background(), cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogging(cfg.Logging))
	log = log.With(logx.String("comp", "app"))

	loc, err := loadTimezone(cfg.Reminder.Timezone)
	if err != nil {
		return nil, err
	}

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := teleadapter.New(teleadapter.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, logSvc.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	storePath := strings.TrimSpace(cfg.Storage.Path)
	if storePath == "" {
		storePath = "./reminders.json"
	}
	st, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        storePath,
		BusyTimeout: busyTimeout,
	}, logSvc.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	notif := notify.New(notify.Config{RatePerSec: cfg.Notifier.RatePerSec},
		ad, logSvc.Logger().With(logx.String("comp", "notify")))

	sched := scheduler.New(logSvc.Logger().With(logx.String("comp", "scheduler")), loc,
		func(ctx context.Context, p scheduler.Payload) {
			notif.Deliver(ctx, p.ChatID, reminder.FireText(p.Task))
		})

	rem := reminder.New(st, sched, notif, loc, logSvc.Logger().With(logx.String("comp", "reminder")))

	rtr := router.New(ad, rem, notif, logSvc.Logger().With(logx.String("comp", "router")))

	return &App{
		cfgm:        cfgm,
		log:         log,
		logs:        logSvc,
		loc:         loc,
		adapter:     ad,
		store:       st,
		sched:       sched,
		notif:       notif,
		rem:         rem,
		rtr:         rtr,
		maintenance: cfg.Reminder.MaintenanceEnabled,
		updates:     make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	a.sched.Start(a.sup.Context())

	// Replay persisted reminders before accepting traffic, so a delete for a
	// rescheduled job can't race its registration.
	n, err := a.rem.Reconcile(time.Now().In(a.loc))
	if err != nil {
		return fmt.Errorf("reconcile reminders: %w", err)
	}
	a.log.Info("startup reconciliation done", logx.Int("rescheduled", n))

	if a.maintenance {
		err := a.sched.AddDaily("reminders.prune", pruneAt, func(ctx context.Context) {
			if _, err := a.rem.PruneDue(time.Now().In(a.loc)); err != nil {
				a.log.Warn("reminder prune failed", logx.Err(err))
			}
		})
		if err != nil {
			a.log.Warn("maintenance job registration failed", logx.Err(err))
		}
	}

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return fmt.Errorf("start telegram adapter: %w", err)
	}

	a.rtr.Start(a.sup.Context())
	a.sup.Go0("router.run", func(c context.Context) {
		a.rtr.Run(c, a.updates)
	})

	// Config hot reload: logging changes apply live, everything else needs a
	// restart and is only validated.
	a.cfgm.SetLogger(a.logs.Logger().With(logx.String("comp", "config")))
	a.cfgm.SetValidator(validate)
	a.sup.Go("config.watch", a.cfgm.Watch)
	sub := a.cfgm.Subscribe(4)
	a.sup.Go0("config.apply", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.logs.Apply(mapLogging(cfg.Logging))
				a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
			}
		}
	})

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("bot started", logx.String("tz", a.loc.String()))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.adapter != nil {
		_ = a.adapter.Stop(ctx)
	}
	if a.sup != nil {
		_ = a.sup.Stop(ctx)
	}
	if a.sched != nil {
		a.sched.Stop(ctx)
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

func mapLogging(lc config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   lc.Level,
		Console: lc.Console,
		File: logx.FileConfig{
			Enabled: lc.File.Enabled,
			Path:    lc.File.Path,
		},
	}
}

func loadTimezone(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("reminder.timezone: %w", err)
	}
	return loc, nil
}

func validate(_ context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if _, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
		return err
	}
	switch d := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)); d {
	case "", "file", "json", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", d)
	}
	if tz := strings.TrimSpace(cfg.Reminder.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("reminder.timezone: %w", err)
		}
	}
	if cfg.Notifier.RatePerSec < 0 {
		return fmt.Errorf("notifier.rate_per_sec must be >= 0")
	}
	return nil
}
