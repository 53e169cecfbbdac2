package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExternalID is the legacy platform's opaque identifier. The platform emits
// numbers, but custom types registered by plugins sometimes use strings.
type ExternalID string

func (id *ExternalID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ExternalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("external id: %w", err)
	}
	*id = ExternalID(n.String())
	return nil
}

func (id ExternalID) String() string { return string(id) }

// Rendered is the legacy platform's {"rendered": "..."} text field.
type Rendered struct {
	Rendered string `json:"rendered"`
	Raw      string `json:"raw,omitempty"`
}

type Media struct {
	ID        ExternalID `json:"id"`
	SourceURL string     `json:"source_url"`
	AltText   string     `json:"alt_text,omitempty"`
}

// Embedded carries the media resolved inline by the legacy API.
type Embedded struct {
	FeaturedMedia []Media `json:"wp:featuredmedia,omitempty"`
}

// FirstMediaURL returns the first non-empty embedded media source URL.
func (e *Embedded) FirstMediaURL() string {
	if e == nil || len(e.FeaturedMedia) == 0 {
		return ""
	}
	return strings.TrimSpace(e.FeaturedMedia[0].SourceURL)
}

type ExternalPost struct {
	ID       ExternalID `json:"id" validate:"required"`
	Date     string     `json:"date" validate:"required"`
	Title    Rendered   `json:"title"`
	Content  Rendered   `json:"content"`
	Excerpt  Rendered   `json:"excerpt"`
	Embedded *Embedded  `json:"_embedded,omitempty"`
}

type ExternalListing struct {
	ID       ExternalID `json:"id" validate:"required"`
	Title    Rendered   `json:"title"`
	Content  Rendered   `json:"content"`
	Meta     Meta       `json:"meta"`
	Embedded *Embedded  `json:"_embedded,omitempty"`
}

// Meta is the custom-field mapping of a listing. Values are coerced to
// strings; the legacy platform emits [] instead of {} when it is empty.
type Meta map[string]string

func (m *Meta) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || b[0] == '[' {
		*m = Meta{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("meta: %w", err)
	}
	out := make(Meta, len(raw))
	for k, v := range raw {
		if s, ok := metaString(v); ok {
			out[k] = s
		}
	}
	*m = out
	return nil
}

// Get returns the trimmed value for key, or def when absent or blank.
func (m Meta) Get(key, def string) string {
	if v := strings.TrimSpace(m[key]); v != "" {
		return v
	}
	return def
}

func metaString(v json.RawMessage) (string, bool) {
	var x any
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		return "", false
	}
	switch t := x.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case []any:
		// single-valued custom fields come back as one-element arrays
		for _, it := range t {
			if s, ok := it.(string); ok && s != "" {
				return s, true
			}
			if n, ok := it.(json.Number); ok {
				return n.String(), true
			}
		}
	}
	return "", false
}

// Batch is one fetch result: the records that passed boundary validation
// and the number that did not.
type Batch[T any] struct {
	Items    []T
	Rejected int
}
