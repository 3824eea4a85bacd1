package domain

// Direction says which way a relayed message travelled relative to the
// bridged Telegram account.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// AttachmentKind is the attachment type vocabulary of the pager platform.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentDocument AttachmentKind = "document"
	AttachmentFile     AttachmentKind = "file"
)

// Attachment is a single relayed attachment. The payload is always an
// externally reachable URL.
type Attachment struct {
	Kind AttachmentKind
	URL  string
}

// MediaKind is the media category reported by the Telegram side.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaVoice    MediaKind = "voice"
	MediaDocument MediaKind = "document"
	MediaUnknown  MediaKind = "unknown"
)

// AttachmentKindFor maps a Telegram media category to the pager attachment
// vocabulary. Unrecognized categories fall back to the generic file kind.
func AttachmentKindFor(kind MediaKind) AttachmentKind {
	switch kind {
	case MediaPhoto:
		return AttachmentImage
	case MediaVideo:
		return AttachmentVideo
	case MediaAudio, MediaVoice:
		return AttachmentAudio
	case MediaDocument:
		return AttachmentDocument
	default:
		return AttachmentFile
	}
}

// Media describes a downloadable media item attached to a Telegram message.
type Media struct {
	Kind     MediaKind
	FileID   string
	FileName string
	MimeType string
}

// Sender identifies who sent a Telegram message.
type Sender struct {
	ID        int64
	FirstName string
	Username  string
}

// DisplayName returns the name forwarded to the pager platform: the
// first name when set, otherwise the username, otherwise "".
func (s *Sender) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.FirstName != "" {
		return s.FirstName
	}
	return s.Username
}

// Event is one new-message event from the Telegram side.
type Event struct {
	IsPrivate bool
	PeerID    int64
	MessageID int64
	Outgoing  bool
	Text      string
	Sender    *Sender
	Media     *Media
}

// Direction returns the relay direction for this event.
func (e Event) Direction() Direction {
	if e.Outgoing {
		return DirectionOutgoing
	}
	return DirectionIncoming
}

// ContactInfo describes a Telegram contact discovered by phone import.
type ContactInfo struct {
	PeerID    int64
	FirstName string
	Username  string
}
