package router

const welcomeText = `🤖 Welcome to Reminder Bot!

I can help you set up reminders for any task. Here's what I can do:

📝 /addreminder - Create a new reminder
📋 /myreminders - View all your reminders
🗑️ /delete [number] - Delete a reminder by number
❓ /help - Show this help message

Let's get started! Use /addreminder to create your first reminder.`

const helpText = `📚 How to use Reminder Bot:

Creating a Reminder:
1. Send /addreminder
2. Tell me what task you want to be reminded about
3. Select the dates (format: 13,17,21 or single date: 25)
4. Select times (hours in 24-hour format)

Managing Reminders:
• /myreminders - See all active reminders
• /delete [number] - Remove a specific reminder
• /cancel - Abort reminder creation

Example:
/addreminder → "Upload YouTube Video" → "13,17,21,25,29" → "6,12,21"
This creates reminders on those dates at 6 AM, 12 PM, and 9 PM.`
