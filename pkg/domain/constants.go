package domain

// DefaultBaseState is the state a never-seen conversation starts in.
const DefaultBaseState = "main"

// Field constants for mapstructure and JSON standardization.
const (
	KeyUpdateID       = "update_id"
	KeyKind           = "kind"
	KeyConversationID = "conversation_id"
	KeyText           = "text"
	KeyCallback       = "callback"
)
