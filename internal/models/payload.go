package models

// ParsedRoot is the validated shape of a pasted console payload:
// {"data": {"data": [...], "total": N}}.
type ParsedRoot struct {
	Data ParsedData
}

// ParsedData holds the ordered item list. Items keeps input order.
type ParsedData struct {
	Items []ParsedItem
	Total int64
}

// ParsedItem is a single request from the console export.
// Duplicate IDs are allowed; Attachments is never nil after parsing.
type ParsedItem struct {
	ID          int64
	Note        string
	Attachments []ParsedAttachment
}

// ParsedAttachment is a file reference attached to an item.
type ParsedAttachment struct {
	ID  int64
	URL string
}

// AttachmentCount returns the total number of attachments across all items.
func (r *ParsedRoot) AttachmentCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, item := range r.Data.Items {
		n += len(item.Attachments)
	}
	return n
}
