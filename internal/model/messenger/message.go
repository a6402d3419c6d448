package messenger

// Recipient addresses an outbound message. Exactly one field is set:
// ID for regular replies, PostID or CommentID for private replies.
type Recipient struct {
	ID        string `json:"id,omitempty"`
	PostID    string `json:"post_id,omitempty"`
	CommentID string `json:"comment_id,omitempty"`
}

// User addresses a page-scoped user id.
func User(id string) Recipient {
	return Recipient{ID: id}
}

// String returns whichever identifier is set.
func (r Recipient) String() string {
	switch {
	case r.ID != "":
		return r.ID
	case r.PostID != "":
		return "post:" + r.PostID
	case r.CommentID != "":
		return "comment:" + r.CommentID
	default:
		return ""
	}
}

// Message is the message object of the Send API.
type Message struct {
	Text         string         `json:"text,omitempty"`
	QuickReplies []QuickReply   `json:"quick_replies,omitempty"`
	Attachment   *OutAttachment `json:"attachment,omitempty"`
}

// QuickReply is one option of a quick-reply set.
type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

// OutAttachment wraps a structured template.
type OutAttachment struct {
	Type    string          `json:"type"`
	Payload TemplatePayload `json:"payload"`
}

// TemplatePayload is the payload of a button template.
type TemplatePayload struct {
	TemplateType string   `json:"template_type"`
	Text         string   `json:"text,omitempty"`
	Buttons      []Button `json:"buttons,omitempty"`
}

// Button is a template button.
type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Payload string `json:"payload,omitempty"`
}

// Attachment is an inbound attachment; only the type is inspected.
type Attachment struct {
	Type string `json:"type"`
}

// Unit is one outbound message, optionally attributed to a persona.
type Unit struct {
	Message   Message
	PersonaID string
}

// Response is an ordered list of units. An empty response means "no reply".
type Response []Unit

// Empty reports whether there is nothing to send.
func (r Response) Empty() bool {
	return len(r) == 0
}

// SendRequest is the JSON body posted to the Send API.
type SendRequest struct {
	Recipient     Recipient `json:"recipient"`
	MessagingType string    `json:"messaging_type,omitempty"`
	Message       Message   `json:"message"`
	PersonaID     string    `json:"persona_id,omitempty"`
}

// MessagingTypeResponse marks a reply to a user-initiated message.
const MessagingTypeResponse = "RESPONSE"

// NewSendRequest serializes a unit for the given recipient.
func NewSendRequest(to Recipient, unit Unit) SendRequest {
	return SendRequest{
		Recipient:     to,
		MessagingType: MessagingTypeResponse,
		Message:       unit.Message,
		PersonaID:     unit.PersonaID,
	}
}

// Text builds a plain text unit.
func Text(text string) Unit {
	return Unit{Message: Message{Text: text}}
}

// TextWithPersona builds a text unit attributed to a persona.
func TextWithPersona(text, personaID string) Unit {
	u := Text(text)
	u.PersonaID = personaID
	return u
}

// QuickReplies builds a text unit with a quick-reply set.
func QuickReplies(text string, options []QuickReply) Unit {
	return Unit{Message: Message{Text: text, QuickReplies: options}}
}

// TextReply builds a text quick reply.
func TextReply(title, payload string) QuickReply {
	return QuickReply{ContentType: "text", Title: title, Payload: payload}
}

// ButtonTemplate builds a button template unit.
func ButtonTemplate(text string, buttons []Button) Unit {
	return Unit{Message: Message{Attachment: &OutAttachment{
		Type: "template",
		Payload: TemplatePayload{
			TemplateType: "button",
			Text:         text,
			Buttons:      buttons,
		},
	}}}
}

// PostbackButton builds a postback button.
func PostbackButton(title, payload string) Button {
	return Button{Type: "postback", Title: title, Payload: payload}
}
