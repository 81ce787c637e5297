package mapper

import (
	"fmt"

	"github.com/At1ass/VK-TUI/internal/domain"
	"github.com/At1ass/VK-TUI/internal/vkapi"
)

// MapAttachments converts the raw attachments array. Unrecognized types
// degrade to AttachmentOther with the raw type tag as title.
func MapAttachments(raw []vkapi.Attachment) []domain.AttachmentInfo {
	if len(raw) == 0 {
		return nil
	}
	out := make([]domain.AttachmentInfo, 0, len(raw))
	for _, a := range raw {
		out = append(out, mapAttachment(a))
	}
	return out
}

func mapAttachment(a vkapi.Attachment) domain.AttachmentInfo {
	switch {
	case a.Type == "photo" && a.Photo != nil:
		return domain.AttachmentInfo{
			Kind:  domain.AttachmentPhoto,
			Title: a.Photo.Text,
			URL:   bestPhotoURL(a.Photo.Sizes),
		}
	case a.Type == "doc" && a.Doc != nil:
		return domain.AttachmentInfo{
			Kind:     domain.AttachmentDoc,
			Title:    a.Doc.Title,
			URL:      a.Doc.URL,
			Size:     a.Doc.Size,
			Subtitle: a.Doc.Ext,
		}
	case a.Type == "link" && a.Link != nil:
		return domain.AttachmentInfo{
			Kind:  domain.AttachmentLink,
			Title: a.Link.Title,
			URL:   a.Link.URL,
		}
	case a.Type == "audio" && a.Audio != nil:
		return domain.AttachmentInfo{
			Kind:     domain.AttachmentAudio,
			Title:    a.Audio.Title,
			URL:      a.Audio.URL,
			Subtitle: a.Audio.Artist,
		}
	case a.Type == "sticker" && a.Sticker != nil:
		return domain.AttachmentInfo{
			Kind:  domain.AttachmentSticker,
			Title: fmt.Sprintf("sticker %d", a.Sticker.StickerID),
		}
	default:
		return domain.AttachmentInfo{
			Kind:  domain.AttachmentOther,
			Title: a.Type,
		}
	}
}

// bestPhotoURL picks the largest size by area.
func bestPhotoURL(sizes []vkapi.PhotoSize) string {
	best := ""
	area := 0
	for _, s := range sizes {
		if a := s.Width * s.Height; a >= area {
			area = a
			best = s.URL
		}
	}
	return best
}
