// Package jobs derives LogoJob lists from parsed payloads and from
// directories of already downloaded images.
package jobs

import (
	"github.com/logocruncher/logo-cruncher/internal/models"
)

// Normalize fans a parsed payload out into one job per attachment, walking
// items in order and, within each item, attachments in order. Items without
// attachments contribute nothing. The result is a local preview: the
// authoritative list comes back from the backend.
func Normalize(root *models.ParsedRoot) []models.LogoJob {
	out := make([]models.LogoJob, 0, root.AttachmentCount())
	if root == nil {
		return out
	}
	for _, item := range root.Data.Items {
		for _, a := range item.Attachments {
			out = append(out, models.LogoJob{ID: a.ID, URL: a.URL})
		}
	}
	return out
}

// FromItems applies the backend's per-item policy: each item yields at most
// one job keyed by the item id. The first attachment wins; otherwise the
// best-ranked URL in the note is used when it can be resolved offline.
// Items that yield nothing are reported in skipped.
func FromItems(root *models.ParsedRoot) (logos []models.LogoJob, skipped []int64) {
	logos = make([]models.LogoJob, 0)
	if root == nil {
		return logos, nil
	}
	for _, item := range root.Data.Items {
		if len(item.Attachments) > 0 {
			logos = append(logos, models.LogoJob{ID: item.ID, URL: item.Attachments[0].URL})
			continue
		}
		link, ok := BestNoteURL(item.Note)
		if ok && link.Kind.ResolvableOffline() {
			logos = append(logos, models.LogoJob{ID: item.ID, URL: link.URL})
			continue
		}
		skipped = append(skipped, item.ID)
	}
	return logos, skipped
}
