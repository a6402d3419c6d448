package messenger

// Kind discriminates a normalized inbound event.
type Kind string

const (
	KindMessage    Kind = "message"
	KindPostback   Kind = "postback"
	KindPageChange Kind = "pageChange"
	KindDelivery   Kind = "delivery"
	KindRead       Kind = "read"
	KindUnknown    Kind = "unknown"
)

// Item types of a feed change that receive a private reply.
const (
	ItemPost    = "post"
	ItemComment = "comment"
)

// Envelope is the normalized view of one inbound provider event.
type Envelope struct {
	Kind     Kind
	SenderID string

	// Text is set for free-text messages, Payload for postbacks and
	// quick replies.
	Text           string
	Payload        string
	HasAttachments bool
	IsEcho         bool

	ChangeField string
	ItemType    string
	ObjectID    string
}

// Receipt reports whether the envelope is a delivery or read receipt.
func (e Envelope) Receipt() bool {
	return e.Kind == KindDelivery || e.Kind == KindRead
}

// Normalize classifies a messaging event. Receipts win over any other
// field so that they are always discarded.
func Normalize(ev MessagingEvent) Envelope {
	env := Envelope{Kind: KindUnknown}
	if ev.Sender != nil {
		env.SenderID = ev.Sender.ID
	}

	switch {
	case ev.Read != nil:
		env.Kind = KindRead
	case ev.Delivery != nil:
		env.Kind = KindDelivery
	case ev.Postback != nil:
		env.Kind = KindPostback
		env.Payload = ev.Postback.Payload
	case ev.Message != nil:
		env.Kind = KindMessage
		env.IsEcho = ev.Message.IsEcho
		env.HasAttachments = len(ev.Message.Attachments) > 0
		if ev.Message.QuickReply != nil {
			env.Payload = ev.Message.QuickReply.Payload
		} else {
			env.Text = ev.Message.Text
		}
	}
	return env
}

// NormalizeChange builds a page change envelope. ObjectID is resolved
// from the item type.
func NormalizeChange(ch Change) Envelope {
	env := Envelope{
		Kind:        KindPageChange,
		ChangeField: ch.Field,
		ItemType:    ch.Value.Item,
	}
	switch ch.Value.Item {
	case ItemPost:
		env.ObjectID = ch.Value.PostID
	case ItemComment:
		env.ObjectID = ch.Value.CommentID
	}
	return env
}
