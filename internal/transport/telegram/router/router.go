// Package router consumes transport updates and drives the reminder
// conversation. All routing happens on one goroutine, which is what makes
// the store's single-writer discipline hold.
package router

import (
	"context"
	"strings"
	"time"

	"remindbot/internal/reminder"
	kit "remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

const handleTimeout = 15 * time.Second

type Router struct {
	log     logx.Logger
	adapter kit.Adapter
	rem     *reminder.Service
	out     reminder.Notifier
}

func New(adapter kit.Adapter, rem *reminder.Service, out reminder.Notifier, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{log: log, adapter: adapter, rem: rem, out: out}
}

// Commands lists the bot's command surface for /help and the platform menu.
func Commands() []kit.BotCommand {
	return []kit.BotCommand{
		{Command: "addreminder", Description: "Create a new reminder"},
		{Command: "myreminders", Description: "View all your reminders"},
		{Command: "delete", Description: "Delete a reminder by number"},
		{Command: "cancel", Description: "Cancel reminder creation"},
		{Command: "help", Description: "Show help"},
	}
}

// Start publishes the command menu (best-effort). The update loop itself
// runs via Run under the app supervisor.
func (r *Router) Start(ctx context.Context) {
	if mu, ok := r.adapter.(kit.CommandMenuUpdater); ok {
		if err := mu.UpdateMenuCommands(ctx, Commands()); err != nil {
			r.log.Debug("command menu update failed", logx.Err(err))
		}
	}
}

// Run processes updates until ctx is cancelled. One update is handled to
// completion before the next is read.
func (r *Router) Run(ctx context.Context, updates <-chan kit.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-updates:
			if !ok {
				return
			}
			r.handle(ctx, up)
		}
	}
}

func (r *Router) handle(ctx context.Context, up kit.Update) {
	if up.Kind != kit.UpdateMessage || up.Message == nil {
		return
	}
	msg := up.Message
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	hctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if !strings.HasPrefix(text, "/") {
		if !r.rem.HandleText(hctx, msg.ChatID, text) {
			r.log.Debug("text outside conversation ignored", logx.Int64("chat_id", msg.ChatID))
		}
		return
	}

	cmd, arg := splitCommand(text)
	r.log.Debug("command received",
		logx.String("cmd", cmd),
		logx.Int64("chat_id", msg.ChatID),
		logx.Int64("from", msg.FromID))

	switch cmd {
	case "start":
		r.out.ListReply(hctx, msg.ChatID, welcomeText)
	case "help":
		r.out.ListReply(hctx, msg.ChatID, helpText)
	case "addreminder":
		r.rem.HandleAddCommand(hctx, msg.ChatID)
	case "myreminders":
		r.rem.HandleListCommand(hctx, msg.ChatID)
	case "delete":
		r.rem.HandleDeleteCommand(hctx, msg.ChatID, arg)
	case "cancel":
		r.rem.HandleCancelCommand(hctx, msg.ChatID)
	default:
		r.log.Debug("unknown command", logx.String("cmd", cmd), logx.Int64("chat_id", msg.ChatID))
	}
}

// splitCommand returns the bare command name (no slash, no @botname suffix)
// and the raw argument remainder.
func splitCommand(text string) (string, string) {
	cmd := text
	arg := ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		cmd, arg = text[:i], strings.TrimSpace(text[i+1:])
	}
	cmd = strings.TrimPrefix(cmd, "/")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), arg
}
