package domain

// UpdateKind identifies the type of inbound event.
type UpdateKind string

const (
	UpdateMessage  UpdateKind = "message"
	UpdateCallback UpdateKind = "callback"
)

// CallbackQuery is the payload of an inline-button press.
type CallbackQuery struct {
	ID          string `json:"id" mapstructure:"id"`
	Data        string `json:"data" mapstructure:"data"`
	MessageText string `json:"message_text" mapstructure:"message_text"`
}

// Update is the platform-neutral form of one inbound event.
// Receive adapters convert their wire format into an Update before dispatch.
type Update struct {
	ID             string         `json:"update_id" mapstructure:"update_id"`
	Kind           UpdateKind     `json:"kind" mapstructure:"kind"`
	ConversationID string         `json:"conversation_id" mapstructure:"conversation_id"`
	Text           string         `json:"text,omitempty" mapstructure:"text"`
	Callback       *CallbackQuery `json:"callback,omitempty" mapstructure:"callback"`

	// Raw keeps the original payload for bodies that need platform specific fields.
	Raw map[string]any `json:"raw,omitempty" mapstructure:"raw"`
}
