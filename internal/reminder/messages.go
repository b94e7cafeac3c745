package reminder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"remindbot/internal/storage"
)

// User-facing texts for the conversation flow. Wording follows the original
// bot so existing users see familiar prompts.

const (
	msgAskTask = "🎯 What task do you want to be reminded about?\n\n" +
		"Example: Upload YouTube Video 💥"

	msgAskDates = "📅 Now, enter the dates (day of month) when you want reminders.\n\n" +
		"Format examples:\n" +
		"• Single date: 25\n" +
		"• Multiple dates: 13,17,21,25,29\n" +
		"• Range: 1-5 (days 1 through 5)"

	msgAskTimes = "⏰ Now, enter the times (hours in 24-hour format).\n\n" +
		"Format examples:\n" +
		"• Morning only: 6\n" +
		"• Multiple times: 6,12,21 (6 AM, 12 PM, 9 PM)\n" +
		"• All day: 6,12,18,21"

	msgBadDateFormat = "❌ Invalid format. Please use numbers only (e.g. 13,17,21)."
	msgBadDates      = "❌ Invalid dates. Please enter valid day numbers (1-31)."
	msgBadTimeFormat = "❌ Invalid format. Please use numbers only (e.g. 6,12,21)."
	msgBadTimes      = "❌ Invalid times. Please enter hours (0-23)."
	msgSaveFailed    = "⚠️ Could not save your reminders. Please try again later."
	msgCancelled     = "❌ Reminder creation cancelled."

	msgNoReminders = "📭 You don't have any active reminders.\n\nUse /addreminder to create one!"

	msgDeleteUsage    = "❌ Please specify reminder number.\n\nUsage: /delete 1"
	msgDeleteBadArg   = "❌ Please provide a valid number."
	msgDeleteBadIndex = "❌ Invalid reminder number. Use /myreminders to see your list."
)

const listTimeLayout = "January 02, 2006 at 03:04 PM"

// FireText is the message delivered when a reminder fires.
func FireText(task string) string {
	return "⏰ REMINDER\n\n" + task
}

func confirmText(task string, days, hours []int, created, failed int) string {
	var b strings.Builder
	b.WriteString("✅ Reminder Created!\n\n")
	fmt.Fprintf(&b, "📝 Task: %s\n", task)
	fmt.Fprintf(&b, "📅 Dates: %s\n", joinInts(days))
	fmt.Fprintf(&b, "⏰ Times: %s\n", joinHours(hours))
	fmt.Fprintf(&b, "📊 Total reminders: %d\n", created)
	if failed > 0 {
		fmt.Fprintf(&b, "⚠️ Skipped %d invalid calendar date(s)\n", failed)
	}
	b.WriteString("\nUse /myreminders to see all your reminders.")
	return b.String()
}

func listText(reminders []storage.Reminder, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("📋 Your Active Reminders:\n\n")
	for i, r := range reminders {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Task)
		when := r.Datetime
		if t, err := r.FireAt(loc); err == nil {
			when = t.Format(listTimeLayout)
		}
		fmt.Fprintf(&b, "   📅 %s\n\n", when)
	}
	b.WriteString("\nUse /delete [number] to remove a reminder.")
	return b.String()
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func joinHours(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d:00", v)
	}
	return strings.Join(parts, ", ")
}
