package jobs

import (
	"regexp"
	"strings"
)

// URLKind ranks links found in request notes. Lower values are preferred
// when a note carries several links.
type URLKind int

const (
	KindAttachment URLKind = iota
	KindTelegram
	KindRuStore
	KindAppStore
	KindVK
	KindAppGallery
	KindGooglePlay
	KindImage
	KindOther
)

var kindNames = map[URLKind]string{
	KindAttachment: "attachment",
	KindTelegram:   "telegram",
	KindRuStore:    "rustore",
	KindAppStore:   "appstore",
	KindVK:         "vk",
	KindAppGallery: "appgallery",
	KindGooglePlay: "googleplay",
	KindImage:      "image",
	KindOther:      "other",
}

func (k URLKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ResolvableOffline reports whether a link of this kind can become a job
// without fetching and scraping the page first.
func (k URLKind) ResolvableOffline() bool {
	switch k {
	case KindAttachment, KindVK, KindImage:
		return true
	default:
		return false
	}
}

// Link is a classified URL.
type Link struct {
	Kind URLKind
	URL  string
}

var hostPrefixes = []struct {
	prefix string
	kind   URLKind
}{
	{"https://vk.com/", KindVK},
	{"https://t.me/", KindTelegram},
	{"https://www.rustore.ru/", KindRuStore},
	{"https://apps.apple.com/", KindAppStore},
	{"https://appgallery.huawei.com/", KindAppGallery},
	{"https://play.google.com/store/apps/", KindGooglePlay},
}

var imageURLPattern = regexp.MustCompile(`\.(jpg|jpeg|png|gif|bmp|webp|svg|tiff|ico|jfif|avif|apng)([^a-z]|$)`)

func (l Link) less(o Link) bool {
	if l.Kind != o.Kind {
		return l.Kind < o.Kind
	}
	return l.URL < o.URL
}

// ClassifyURL determines the kind of a single URL.
func ClassifyURL(url string) Link {
	for _, hp := range hostPrefixes {
		if strings.HasPrefix(url, hp.prefix) {
			return Link{Kind: hp.kind, URL: url}
		}
	}
	if imageURLPattern.MatchString(strings.ToLower(url)) {
		return Link{Kind: KindImage, URL: url}
	}
	return Link{Kind: KindOther, URL: url}
}

// BestNoteURL scans a free-text note line by line and returns the
// best-ranked http(s) link. Links of the same kind are ordered by URL, so
// the result does not depend on line order.
func BestNoteURL(note string) (Link, bool) {
	var best Link
	found := false
	for _, line := range strings.Split(strings.TrimSpace(note), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "https://") && !strings.HasPrefix(line, "http://") {
			continue
		}
		link := ClassifyURL(line)
		if !found || link.less(best) {
			best = link
			found = true
		}
	}
	return best, found
}
