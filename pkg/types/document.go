package types

// Placeholder values for documents synthesized from a summary with no
// matching attachment.
const (
	PlaceholderDocumentName = "Attachment"
	UnknownMimeType         = "unknown"
)

// Document is one attachment in the trip's document store. Items reference
// documents by ID through their AttachmentIDs; they never hold a copy.
type Document struct {
	// ID is the document identity; it is the key in Resources.Documents.
	ID string `json:"id"`

	// Name is the original file name or link title.
	Name string `json:"name"`

	// MimeType is the payload media type.
	MimeType string `json:"mimeType"`

	// Data is the payload reference: a data URI, URL, or blob key.
	// Immutable once the document is created.
	Data string `json:"data,omitempty"`

	// Summary is the AI-distilled or user-written digest of the payload.
	Summary string `json:"summary"`

	// IncludeInPrint marks the document for the printable trip pack.
	IncludeInPrint bool `json:"includeInPrint"`

	// Size is the decoded payload size in bytes; nil until computed.
	Size *int64 `json:"size,omitempty"`

	// CreatedAt is an ISO-8601 timestamp; empty when unknown.
	CreatedAt string `json:"createdAt,omitempty"`

	Extra Extra `json:"-"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	d.Extra = CloneMap(d.Extra)
	if d.Size != nil {
		size := *d.Size
		d.Size = &size
	}
	return d
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
