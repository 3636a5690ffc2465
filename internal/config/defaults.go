package config

import "time"

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDBPath = "relaybot.db"

	DefaultRelayMaxAttempts    = 3
	DefaultRelayRetryDelay     = time.Second
	DefaultRelayBroadcastPause = 50 * time.Millisecond
)

// DefaultMessages holds the default user-visible texts.
var DefaultMessages = MessagesConfig{
	WelcomeUser: "👋 Hi! I'm the feedback bot.\n\n" +
		"Send me a message and the administrator will reply to you as soon as possible.",
	WelcomeAdmin: "👋 Hi, administrator!\n\n" +
		"Available commands:\n" +
		"/broadcast - Start a broadcast\n" +
		"/stats - Broadcast statistics\n" +
		"/messages - Messages from users\n" +
		"/clear_stats - Clear statistics\n" +
		"/help - Help",
	HelpUser: "📚 How to use this bot:\n\n" +
		"Just send me a message and the administrator will reply to you as soon as possible.",
	HelpAdmin: "📚 How to use this bot:\n\n" +
		"/broadcast - Start a broadcast\n" +
		"/stats - View broadcast statistics\n" +
		"/messages - View messages from users\n" +
		"/clear_stats - Clear statistics\n" +
		"/help - Show this message\n\n" +
		"Use the 'Reply' button under a message to answer it",
	MessageReceived: "✅ Your message has been received! The administrator will reply to you soon.",

	BroadcastPrompt: "Send the message to broadcast.\n" +
		"All message types are supported (text, photo, video, etc.)",
	BroadcastStarted: "Starting broadcast...",
	BroadcastSummary: "✅ Broadcast finished!\n\n" +
		"Total recipients: %d\n" +
		"Delivered: %d\n" +
		"Failed: %d",

	ReplyPrompt:    "Send your reply to @%s",
	ReplySent:      "✅ Reply delivered!",
	ReplyFailed:    "❌ Failed to deliver the reply. Please try again.",
	NoMessages:     "No new messages from users.",
	NoStats:        "No broadcast statistics yet.",
	MessageDeleted: "✅ Message deleted!",
	StatsCleared:   "✅ Statistics cleared!",

	NotAuthorized: "You are not authorized to do that.",
	NotFound:      "Message not found.",
	UserNotFound:  "User not found.",
	GeneralError:  "❌ An error occurred. Please try again.",
}
