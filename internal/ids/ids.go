// Package ids converts between Telegram numeric identifiers and the
// string tags the pager platform uses as external identifiers. The
// contact and message codecs are pure bijections: every valid int64 maps
// to exactly one tag and back, and malformed tags are rejected rather
// than coerced.
package ids

import (
	"fmt"
	"strconv"
	"strings"

	"pagerbridge/internal/domain"
)

const (
	contactPrefix = "tg_user:"
	messagePrefix = "tg_msg:"
	ackPrefix     = "mtproto:"

	// ackNoID is the ack suffix when nothing was sent, e.g. the payload
	// carried only attachments and none of them could be delivered.
	ackNoID = "noid"
)

// MakeContactID creates the pager external identifier for a Telegram peer.
func MakeContactID(peerID int64) string {
	return contactPrefix + strconv.FormatInt(peerID, 10)
}

// ParseContactID extracts the Telegram peer ID from a contact tag.
func ParseContactID(tag string) (int64, error) {
	rest, ok := strings.CutPrefix(tag, contactPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q lacks %q prefix", domain.ErrInvalidIdentifier, tag, contactPrefix)
	}
	peerID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q suffix is not an integer", domain.ErrInvalidIdentifier, tag)
	}
	return peerID, nil
}

// MakeMessageID creates the pager external identifier for an inbound
// Telegram message.
func MakeMessageID(msgID int64) string {
	return messagePrefix + strconv.FormatInt(msgID, 10)
}

// ParseMessageID extracts the Telegram message ID from a message tag.
func ParseMessageID(tag string) (int64, error) {
	rest, ok := strings.CutPrefix(tag, messagePrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q lacks %q prefix", domain.ErrInvalidIdentifier, tag, messagePrefix)
	}
	msgID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q suffix is not an integer", domain.ErrInvalidIdentifier, tag)
	}
	return msgID, nil
}

// MakeAckID creates the external identifier returned for an outbound
// delivery: the peer plus the last successfully sent Telegram message ID,
// or a sentinel when nothing was sent.
func MakeAckID(peerID int64, sentID int64, sent bool) string {
	if !sent {
		return ackPrefix + strconv.FormatInt(peerID, 10) + ":" + ackNoID
	}
	return ackPrefix + strconv.FormatInt(peerID, 10) + ":" + strconv.FormatInt(sentID, 10)
}
