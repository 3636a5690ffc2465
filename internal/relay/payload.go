// Package relay implements the core relay subsystem: the per-admin
// conversation state machine, the bounded-retry delivery engine, the
// sequential broadcast coordinator, and the router that ties them to the
// record store.
package relay

import "github.com/go-telegram/bot/models"

// mediaPlaceholder is stored in place of text for non-text payloads.
const mediaPlaceholder = "Media message"

// PayloadKind identifies the content type of a relayed message.
type PayloadKind int

const (
	PayloadText PayloadKind = iota
	PayloadPhoto
	PayloadVideo
	PayloadDocument
)

// Payload is the content of one relayed message. Exactly the content type
// of the triggering message is forwarded, with no reformatting.
type Payload struct {
	Kind    PayloadKind
	Text    string // text payloads only
	FileID  string // photo, video, and document payloads
	Caption string // photo payloads only
}

// PayloadFromMessage extracts a relay payload from a Telegram message.
// Content types are checked in fixed precedence: text, photo, video,
// document. Returns false if the message carries none of them.
func PayloadFromMessage(msg *models.Message) (Payload, bool) {
	if msg == nil {
		return Payload{}, false
	}

	switch {
	case msg.Text != "":
		return Payload{Kind: PayloadText, Text: msg.Text}, true

	case len(msg.Photo) > 0:
		return Payload{
			Kind:    PayloadPhoto,
			FileID:  bestPhoto(msg.Photo).FileID,
			Caption: msg.Caption,
		}, true

	case msg.Video != nil:
		return Payload{Kind: PayloadVideo, FileID: msg.Video.FileID}, true

	case msg.Document != nil:
		return Payload{Kind: PayloadDocument, FileID: msg.Document.FileID}, true
	}

	return Payload{}, false
}

// DisplayText returns the payload text, or a media placeholder string for
// non-text payloads. Used when persisting message content.
func (p Payload) DisplayText() string {
	if p.Kind == PayloadText && p.Text != "" {
		return p.Text
	}
	return mediaPlaceholder
}

// bestPhoto selects the highest-resolution variant from a photo size set.
func bestPhoto(sizes []models.PhotoSize) models.PhotoSize {
	var best models.PhotoSize
	bestQuality := -1
	for _, ps := range sizes {
		quality := ps.Width * ps.Height
		if quality > bestQuality {
			bestQuality = quality
			best = ps
		}
	}
	return best
}
