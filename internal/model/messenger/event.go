package messenger

import "encoding/json"

// Callback is the body of a webhook POST.
type Callback struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// UnmarshalJSON decodes entries one by one. An entry whose shape does not
// match keeps only DecodeErr, so the rest of the batch still gets handled.
func (c *Callback) UnmarshalJSON(data []byte) error {
	var raw struct {
		Object string            `json:"object"`
		Entry  []json.RawMessage `json:"entry"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Object = raw.Object
	c.Entry = make([]Entry, len(raw.Entry))
	for i, item := range raw.Entry {
		if err := json.Unmarshal(item, &c.Entry[i]); err != nil {
			c.Entry[i] = Entry{DecodeErr: err}
		}
	}
	return nil
}

// Entry is one batched page entry. A page entry carries either messaging
// events or page change notifications.
type Entry struct {
	ID        string           `json:"id,omitempty"`
	Time      int64            `json:"time,omitempty"`
	Messaging []MessagingEvent `json:"messaging,omitempty"`
	Changes   []Change         `json:"changes,omitempty"`

	// DecodeErr is set when the entry could not be decoded.
	DecodeErr error `json:"-"`
}

// Change is a page subscription change notification.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue holds the fields of a feed change used for private replies.
type ChangeValue struct {
	Item      string `json:"item,omitempty"`
	Verb      string `json:"verb,omitempty"`
	PostID    string `json:"post_id,omitempty"`
	CommentID string `json:"comment_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Participant identifies a sender or recipient by page-scoped id.
type Participant struct {
	ID string `json:"id"`
}

// MessagingEvent is one element of an entry's messaging array.
type MessagingEvent struct {
	Sender    *Participant      `json:"sender,omitempty"`
	Recipient *Participant      `json:"recipient,omitempty"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Message   *IncomingMessage  `json:"message,omitempty"`
	Postback  *Postback         `json:"postback,omitempty"`
	Delivery  *Receipt          `json:"delivery,omitempty"`
	Read      *Receipt          `json:"read,omitempty"`
	Referral  *Referral         `json:"referral,omitempty"`
	Optin     json.RawMessage   `json:"optin,omitempty"`
}

// IncomingMessage is a message sent by the user to the page.
type IncomingMessage struct {
	MID         string        `json:"mid,omitempty"`
	Text        string        `json:"text,omitempty"`
	IsEcho      bool          `json:"is_echo,omitempty"`
	QuickReply  *QuickReplyIn `json:"quick_reply,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`
}

// QuickReplyIn carries the payload of a tapped quick reply.
type QuickReplyIn struct {
	Payload string `json:"payload"`
}

// Postback is sent when the user taps a postback button.
type Postback struct {
	Title    string    `json:"title,omitempty"`
	Payload  string    `json:"payload"`
	Referral *Referral `json:"referral,omitempty"`
}

// Referral describes how the user reached the conversation.
type Referral struct {
	Ref    string `json:"ref,omitempty"`
	Source string `json:"source,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Receipt covers both delivery and read receipts.
type Receipt struct {
	MIDs      []string `json:"mids,omitempty"`
	Watermark int64    `json:"watermark,omitempty"`
}
