package llm

// Roles used in Message.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message represents a single message in a conversation.
// Content is an array of blocks so image attachments can sit next to text.
type Message struct {
	Role    string
	Content []ContentBlock
}

// ContentBlock is either text or an inline image.
type ContentBlock struct {
	Type string // "text" or "image"

	Text  string
	Image *Image
}

// NewTextMessage creates a simple text message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{Type: "text", Text: text},
		},
	}
}

// GetText returns the concatenated text content from all text blocks in the message.
func (m *Message) GetText() string {
	var result string
	for _, block := range m.Content {
		if block.Type == "text" {
			result += block.Text
		}
	}
	return result
}

// Messages renders the request as chat messages: an optional system message
// followed by one user message holding the prompt and any images.
func (r Request) Messages() []Message {
	var msgs []Message
	if r.System != "" {
		msgs = append(msgs, NewTextMessage(RoleSystem, r.System))
	}

	user := NewTextMessage(RoleUser, r.Prompt)
	for i := range r.Images {
		user.Content = append(user.Content, ContentBlock{Type: "image", Image: &r.Images[i]})
	}
	return append(msgs, user)
}
