package pager

import "pagerbridge/internal/domain"

// EventMessageCreated is the only event type the bridge produces or
// consumes. Other event types are acknowledged as ignored for forward
// compatibility.
const EventMessageCreated = "message.created"

// Payload is the canonical webhook body exchanged with the pager platform,
// in both directions.
type Payload struct {
	Event   string         `json:"event"`
	Client  PayloadClient  `json:"client"`
	Message PayloadMessage `json:"message"`
}

// PayloadClient identifies the helpdesk-side client (the Telegram peer).
// Name and ImageURL are omitted entirely when unknown rather than sent as
// null.
type PayloadClient struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

type PayloadMessage struct {
	ExternalID  string              `json:"externalId"`
	Direction   string              `json:"direction"`
	Text        string              `json:"text"`
	Attachments []PayloadAttachment `json:"attachments"`
}

type PayloadAttachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

type AttachmentPayload struct {
	URL string `json:"url"`
}

// AttachmentsFromDomain converts relay attachments to wire shape. Always
// returns a non-nil slice so the JSON field serializes as [] rather than
// null.
func AttachmentsFromDomain(atts []domain.Attachment) []PayloadAttachment {
	out := make([]PayloadAttachment, 0, len(atts))
	for _, a := range atts {
		out = append(out, PayloadAttachment{
			Type:    string(a.Kind),
			Payload: AttachmentPayload{URL: a.URL},
		})
	}
	return out
}

// AttachmentsToDomain converts wire attachments to relay shape, applying
// the file-kind fallback for unrecognized types.
func AttachmentsToDomain(atts []PayloadAttachment) []domain.Attachment {
	out := make([]domain.Attachment, 0, len(atts))
	for _, a := range atts {
		kind := domain.AttachmentKind(a.Type)
		switch kind {
		case domain.AttachmentImage, domain.AttachmentVideo, domain.AttachmentAudio, domain.AttachmentDocument, domain.AttachmentFile:
		default:
			kind = domain.AttachmentFile
		}
		out = append(out, domain.Attachment{Kind: kind, URL: a.Payload.URL})
	}
	return out
}
