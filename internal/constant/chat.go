package constant

const (
	ChatMessageSenderUser = "user"
	ChatMessageSenderBot  = "bot"

	ChatSessionStatusActive = "active"
	ChatSessionStatusEnded  = "ended"

	// End reasons recorded on the session row.
	ChatSessionEndReasonEnded       = "ended"
	ChatSessionEndReasonInactivity  = "inactivity"
	ChatSessionEndReasonForcedLimit = "forced-limit"
)

const (
	AgentErrorDefaultMessage   = "Sorry, but I can't assist you with that."
	AgentSessionWarningMessage = "Mary will end this chat in 2 minutes due to inactivity. Just reply to continue the conversation."
	AgentSessionLimitMessage   = "Mary will end this chat in 5 minutes due to session limit."
	AgentSessionEndMessage     = "Thank you for contacting Mary! If you need help again later, feel free to reach out anytime."
)
