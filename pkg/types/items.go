package types

// Task is a pre-trip to-do entry.
type Task struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	Done          bool       `json:"done"`
	DueDate       string     `json:"dueDate,omitempty"`
	Category      string     `json:"category,omitempty"`
	Cost          float64    `json:"cost"`
	Currency      string     `json:"currency,omitempty"`
	Paid          bool       `json:"paid,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	AttachmentIDs []string   `json:"attachmentIds"`
	Attachments   []Document `json:"attachments,omitempty"` // legacy inline copies

	Extra Extra `json:"-"`
}

// ItineraryItem is a scheduled event on the trip timeline.
type ItineraryItem struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Type          string     `json:"type,omitempty"`
	Date          string     `json:"date,omitempty"`
	Time          string     `json:"time,omitempty"`
	EndDate       string     `json:"endDate,omitempty"`
	EndTime       string     `json:"endTime,omitempty"`
	Location      string     `json:"location,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Cost          float64    `json:"cost"`
	Currency      string     `json:"currency,omitempty"`
	Paid          bool       `json:"paid"`
	IsEditing     bool       `json:"isEditing"`
	Timezone      string     `json:"timezone,omitempty"`
	Lat           *float64   `json:"lat,omitempty"`
	Lng           *float64   `json:"lng,omitempty"`
	AttachmentIDs []string   `json:"attachmentIds"`
	Attachments   []Document `json:"attachments,omitempty"` // legacy inline copies

	Extra Extra `json:"-"`
}

// PackingCategory groups packing entries under a display name.
type PackingCategory struct {
	ID       string        `json:"id"`
	Category string        `json:"category"`
	Items    []PackingItem `json:"items"`

	Extra Extra `json:"-"`
}

// PackingItem is a single thing to pack.
type PackingItem struct {
	ID                 string     `json:"id"`
	Text               string     `json:"text"`
	Packed             bool       `json:"packed"`
	Quantity           int        `json:"quantity,omitempty"`
	RecommendedBagType string     `json:"recommendedBagType,omitempty"`
	BagID              string     `json:"bagId,omitempty"`
	AttachmentIDs      []string   `json:"attachmentIds"`
	Attachments        []Document `json:"attachments,omitempty"` // legacy inline copies

	Extra Extra `json:"-"`
}

// Bag is a piece of luggage packing items can be assigned to.
type Bag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`

	Extra Extra `json:"-"`
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneDocuments(docs []Document) []Document {
	if docs == nil {
		return nil
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	t.Extra = CloneMap(t.Extra)
	t.AttachmentIDs = cloneStrings(t.AttachmentIDs)
	t.Attachments = cloneDocuments(t.Attachments)
	return t
}

// Clone returns a deep copy of it.
func (it ItineraryItem) Clone() ItineraryItem {
	it.Extra = CloneMap(it.Extra)
	it.Lat = cloneFloat(it.Lat)
	it.Lng = cloneFloat(it.Lng)
	it.AttachmentIDs = cloneStrings(it.AttachmentIDs)
	it.Attachments = cloneDocuments(it.Attachments)
	return it
}

// Clone returns a deep copy of p.
func (p PackingItem) Clone() PackingItem {
	p.Extra = CloneMap(p.Extra)
	p.AttachmentIDs = cloneStrings(p.AttachmentIDs)
	p.Attachments = cloneDocuments(p.Attachments)
	return p
}

// Clone returns a deep copy of c.
func (c PackingCategory) Clone() PackingCategory {
	c.Extra = CloneMap(c.Extra)
	if c.Items != nil {
		items := make([]PackingItem, len(c.Items))
		for i, it := range c.Items {
			items[i] = it.Clone()
		}
		c.Items = items
	}
	return c
}

// Clone returns a deep copy of b.
func (b Bag) Clone() Bag {
	b.Extra = CloneMap(b.Extra)
	return b
}
