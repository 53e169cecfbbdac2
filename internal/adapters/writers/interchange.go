package writers

import (
	"encoding/xml"
	"io"
	"strings"

	"hal_bridge/internal/domain"
)

const wxrVersion = "1.2"

// Channel describes the exporting site in the interchange document header.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
}

type rssDoc struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	NSExcerpt string     `xml:"xmlns:excerpt,attr"`
	NSContent string     `xml:"xmlns:content,attr"`
	NSWfw     string     `xml:"xmlns:wfw,attr"`
	NSDC      string     `xml:"xmlns:dc,attr"`
	NSWP      string     `xml:"xmlns:wp,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	WXRVersion  string    `xml:"wp:wxr_version"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title    cdata      `xml:"title"`
	Link     string     `xml:"link"`
	PubDate  string     `xml:"pubDate,omitempty"`
	Creator  *cdata     `xml:"dc:creator,omitempty"`
	Content  cdata      `xml:"content:encoded"`
	Excerpt  *cdata     `xml:"excerpt:encoded,omitempty"`
	PostDate *cdata     `xml:"wp:post_date,omitempty"`
	PostType cdata      `xml:"wp:post_type"`
	Status   cdata      `xml:"wp:status"`
	Meta     []postMeta `xml:"wp:postmeta"`
}

type postMeta struct {
	Key   cdata `xml:"wp:meta_key"`
	Value cdata `xml:"wp:meta_value"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// WriteInterchange writes one well-formed interchange document: posts first,
// then companies, each in input order. No items still yields a valid document.
func WriteInterchange(w io.Writer, ch Channel, posts, companies []domain.InterchangeItem) error {
	doc := rssDoc{
		Version:   "2.0",
		NSExcerpt: "http://wordpress.org/export/1.2/excerpt/",
		NSContent: "http://purl.org/rss/1.0/modules/content/",
		NSWfw:     "http://wellformedweb.org/CommentAPI/",
		NSDC:      "http://purl.org/dc/elements/1.1/",
		NSWP:      "http://wordpress.org/export/1.2/",
		Channel: rssChannel{
			Title:       xmlSafe(ch.Title),
			Link:        xmlSafe(ch.Link),
			Description: xmlSafe(ch.Description),
			Language:    xmlSafe(ch.Language),
			WXRVersion:  wxrVersion,
			Items:       make([]rssItem, 0, len(posts)+len(companies)),
		},
	}
	for _, it := range posts {
		doc.Channel.Items = append(doc.Channel.Items, toRSSItem(it))
	}
	for _, it := range companies {
		doc.Channel.Items = append(doc.Channel.Items, toRSSItem(it))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func toRSSItem(it domain.InterchangeItem) rssItem {
	out := rssItem{
		Title:    text(it.Title),
		Link:     xmlSafe(it.Link),
		PubDate:  xmlSafe(it.PubDate),
		Content:  text(it.Content),
		PostType: text(it.PostType),
		Status:   text(it.Status),
	}
	if it.Creator != "" {
		out.Creator = ptr(text(it.Creator))
	}
	if it.Excerpt != "" || it.PostType == "post" {
		out.Excerpt = ptr(text(it.Excerpt))
	}
	if it.PostDate != "" {
		out.PostDate = ptr(text(it.PostDate))
	}
	for _, m := range it.Meta {
		out.Meta = append(out.Meta, postMeta{Key: text(m.Key), Value: text(m.Value)})
	}
	return out
}

func text(s string) cdata { return cdata{Text: xmlSafe(s)} }

func ptr[T any](v T) *T { return &v }

// xmlSafe drops runes outside the XML 1.0 Char production; CDATA cannot
// carry them either.
func xmlSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0x9 || r == 0xA || r == 0xD:
			return r
		case r >= 0x20 && r <= 0xD7FF:
			return r
		case r >= 0xE000 && r <= 0xFFFD:
			return r
		case r >= 0x10000 && r <= 0x10FFFF:
			return r
		}
		return -1
	}, s)
}
