package writers

import (
	"encoding/json"
	"io"

	"hal_bridge/internal/domain"
)

// WriteCompaniesJSON writes the full canonical records as a pretty-printed
// array. images is always present, empty rather than null.
func WriteCompaniesJSON(w io.Writer, companies []domain.Company) error {
	out := make([]domain.Company, len(companies))
	for i, c := range companies {
		if c.Images == nil {
			c.Images = []string{}
		}
		out[i] = c
	}
	return writeJSON(w, out)
}

func WriteBlogPostsJSON(w io.Writer, posts []domain.BlogPost) error {
	if posts == nil {
		posts = []domain.BlogPost{}
	}
	return writeJSON(w, posts)
}

// writeJSON keeps non-ASCII text and markup characters unescaped.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
