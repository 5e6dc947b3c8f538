package translations

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	MaxKeyLength   = 255
)

// CreateInput carries validated fields for a new translation. Duplicate tag
// ids collapse to one association.
type CreateInput struct {
	Key      string
	LocaleID uuid.UUID
	Content  string
	Tags     []uuid.UUID
}

// UpdateInput is a partial update: nil fields are left untouched. A non-nil
// Tags replaces the whole tag set, an empty slice clears it.
type UpdateInput struct {
	Key     *string
	Content *string
	Tags    *[]uuid.UUID
}

// SearchFilters are combined with AND. Key and Content are case-sensitive
// substring matches, Locale and Tag are exact matches on code and name.
type SearchFilters struct {
	Key     string
	Content string
	Locale  string
	Tag     string
	Page    int
	PerPage int
}

// Normalize applies the paging defaults and bounds.
func (f SearchFilters) Normalize() SearchFilters {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PerPage <= 0:
		f.PerPage = DefaultPerPage
	case f.PerPage > MaxPerPage:
		f.PerPage = MaxPerPage
	}
	return f
}

// Page is one page of search results.
type Page struct {
	Data        []*Translation `json:"data"`
	CurrentPage int            `json:"current_page"`
	LastPage    int            `json:"last_page"`
	PerPage     int            `json:"per_page"`
	Total       int            `json:"total"`
}

func newPage(data []*Translation, filters SearchFilters, total int) *Page {
	if data == nil {
		data = []*Translation{}
	}
	lastPage := 1
	if total > 0 {
		lastPage = (total + filters.PerPage - 1) / filters.PerPage
	}
	return &Page{
		Data:        data,
		CurrentPage: filters.Page,
		LastPage:    lastPage,
		PerPage:     filters.PerPage,
		Total:       total,
	}
}

// ExportEntry is one key/content pair of an export.
type ExportEntry struct {
	Key     string `msgpack:"k" json:"key"`
	Content string `msgpack:"c" json:"content"`
}

// Export is every live translation of a locale, ordered by key. It encodes
// to a JSON object whose members keep that order.
type Export []ExportEntry

// MarshalJSON writes {"key":"content",...} in slice order.
func (e Export) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		content, err := json.Marshal(entry.Content)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(content)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Map returns the export as an unordered map.
func (e Export) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, entry := range e {
		out[entry.Key] = entry.Content
	}
	return out
}
