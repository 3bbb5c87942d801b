package models

// FileKind classifies a path for display purposes.
type FileKind string

const (
	FileKindImage FileKind = "image"
	FileKindOther FileKind = "other"
)

// FileEntry is a path returned by the file listing together with its
// classification. DisplayURL is set only for images.
type FileEntry struct {
	Path       string   `json:"path"`
	Kind       FileKind `json:"kind"`
	DisplayURL string   `json:"displayUrl,omitempty"`
}

// IsImage reports whether the entry was classified as a displayable image.
func (f FileEntry) IsImage() bool {
	return f.Kind == FileKindImage
}
