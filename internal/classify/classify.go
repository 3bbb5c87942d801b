// Package classify partitions file paths into displayable images and other
// files by extension, and derives display URLs for the images.
package classify

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/models"
)

// DisplayURLFunc converts a local path into a reference the rendering layer
// can load. It must be total.
type DisplayURLFunc func(path string) string

// Result is the outcome of Classify.
//   - All is the input, unchanged in order and length.
//   - Images is the ordered subsequence of image paths.
//   - ImageURLs[i] is the display URL of Images[i].
//   - Entries pairs every path with its kind, in input order.
type Result struct {
	All       []string
	Images    []string
	ImageURLs []string
	Entries   []models.FileEntry
}

// IsImageFile reports whether path ends in a recognised image extension,
// ignoring case.
func IsImageFile(path string) bool {
	ext := filepath.Ext(path)
	if len(ext) < 2 {
		return false
	}
	ext = strings.ToLower(ext[1:])
	for _, e := range constants.ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Classify partitions paths. A nil toURL leaves paths unchanged as their own
// display URL. Classify is pure: the same input always gives the same result.
func Classify(paths []string, toURL DisplayURLFunc) Result {
	if toURL == nil {
		toURL = Identity
	}

	res := Result{
		All:       make([]string, len(paths)),
		Images:    make([]string, 0, len(paths)),
		ImageURLs: make([]string, 0, len(paths)),
		Entries:   make([]models.FileEntry, 0, len(paths)),
	}
	copy(res.All, paths)

	for _, p := range paths {
		if !IsImageFile(p) {
			res.Entries = append(res.Entries, models.FileEntry{Path: p, Kind: models.FileKindOther})
			continue
		}
		u := toURL(p)
		res.Images = append(res.Images, p)
		res.ImageURLs = append(res.ImageURLs, u)
		res.Entries = append(res.Entries, models.FileEntry{Path: p, Kind: models.FileKindImage, DisplayURL: u})
	}
	return res
}

// Identity returns the path as is.
func Identity(path string) string {
	return path
}

// AssetURL returns a DisplayURLFunc that appends the percent-escaped path to
// prefix, so "/a b/c.png" becomes "asset://localhost/%2Fa%20b%2Fc.png".
// An empty prefix selects constants.DefaultDisplayURLPrefix.
func AssetURL(prefix string) DisplayURLFunc {
	if prefix == "" {
		prefix = constants.DefaultDisplayURLPrefix
	}
	return func(path string) string {
		return prefix + url.PathEscape(path)
	}
}
