package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hal_bridge/internal/content"
	"hal_bridge/internal/domain"
)

const (
	PlaceholderPostImage    = "https://via.placeholder.com/800x400/E0E0E0/666666?text=Blog+Post"
	PlaceholderCompanyImage = "https://via.placeholder.com/400x300/E0E0E0/666666?text=Company"
	DefaultCategory         = "other"
	DefaultCity             = "Kyiv"

	postExcerptLength   = 200
	listingDescLength   = 500
	StatusPublish       = "publish"
	StatusDraft         = "draft"
	PostTypePost        = "post"
	PostTypeListing     = "listing"
	tabularDateLayout   = "2006-01-02 15:04:05"
	interchangeDateForm = "Mon, 02 Jan 2006 15:04:05 +0000"
)

// layouts accepted for the legacy publish date; a value without a zone is UTC.
var publishLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

/********** import direction **********/

// MapExternalPost converts a legacy post into a canonical blog post. The
// secondary language duplicates the source text until it is translated.
func MapExternalPost(p domain.ExternalPost, now time.Time) (domain.BlogPost, error) {
	published, err := parsePublishDate(p.Date)
	if err != nil {
		return domain.BlogPost{}, err
	}

	title := content.CleanText(p.Title.Rendered)
	body := content.CleanText(p.Content.Rendered)
	excerpt := content.CleanText(p.Excerpt.Rendered)
	if excerpt == "" {
		excerpt = content.DeriveExcerpt(p.Content.Rendered, postExcerptLength)
	}

	image := p.Embedded.FirstMediaURL()
	if image == "" {
		image = PlaceholderPostImage
	}

	now = now.UTC()
	return domain.BlogPost{
		ID:          uuid.NewString(),
		ExternalID:  p.ID.String(),
		TitleUk:     title,
		TitleRu:     title,
		ContentUk:   body,
		ContentRu:   body,
		ExcerptUk:   excerpt,
		ExcerptRu:   excerpt,
		Image:       image,
		Author:      domain.DefaultAuthor,
		PublishedAt: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MapExternalListing converts a legacy listing into a canonical company.
// Category mapping is not attempted; every listing lands in "other".
func MapExternalListing(l domain.ExternalListing, now time.Time) domain.Company {
	name := content.CleanText(l.Title.Rendered)
	desc := content.DeriveExcerpt(l.Content.Rendered, listingDescLength)

	image := PlaceholderCompanyImage
	images := []string{}
	if l.Embedded != nil {
		primary := false
		for _, m := range l.Embedded.FeaturedMedia {
			u := strings.TrimSpace(m.SourceURL)
			switch {
			case u == "":
			case !primary:
				image, primary = u, true
			default:
				images = append(images, u)
			}
		}
	}

	var website *string
	if w := l.Meta.Get("website", ""); w != "" {
		website = &w
	}

	now = now.UTC()
	return domain.Company{
		ID:            uuid.NewString(),
		ExternalID:    l.ID.String(),
		Name:          name,
		NameRu:        name,
		Description:   desc,
		DescriptionRu: desc,
		Category:      DefaultCategory,
		Location: domain.Location{
			City:        l.Meta.Get("city", DefaultCity),
			Address:     l.Meta.Get("address", ""),
			Coordinates: coordinates(l.Meta),
		},
		Contacts: domain.Contacts{
			Phone:   l.Meta.Get("phone", ""),
			Email:   l.Meta.Get("email", ""),
			Website: website,
		},
		Image:       image,
		Images:      images,
		Rating:      0,
		ReviewCount: 0,
		IsNew:       false,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func parsePublishDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var last error
	for _, layout := range publishLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		last = err
	}
	return time.Time{}, &domain.ParseError{Field: "date", Value: s, Err: last}
}

// coordinates needs both latitude and longitude to parse.
func coordinates(m domain.Meta) *domain.Coordinates {
	lat, err1 := strconv.ParseFloat(m.Get("latitude", ""), 64)
	lng, err2 := strconv.ParseFloat(m.Get("longitude", ""), 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &domain.Coordinates{Lat: lat, Lng: lng}
}

/********** export direction **********/

func ToCompanyRow(c domain.Company) domain.Record {
	return domain.Record{
		"post_title":      c.Name,
		"post_title_ru":   c.NameRu,
		"post_content":    c.Description,
		"post_content_ru": c.DescriptionRu,
		"post_status":     companyStatus(c),
		"post_type":       PostTypeListing,
		"category":        c.Category,
		"phone":           c.Contacts.Phone,
		"email":           c.Contacts.Email,
		"website":         deref(c.Contacts.Website),
		"city":            c.Location.City,
		"address":         c.Location.Address,
		"image_url":       c.Image,
		"rating":          strconv.FormatFloat(c.Rating, 'f', -1, 64),
		"review_count":    strconv.Itoa(c.ReviewCount),
	}
}

// ToBlogRow flattens a post. A post without a publish date is stamped with now.
func ToBlogRow(p domain.BlogPost, now time.Time) domain.Record {
	return domain.Record{
		"post_title":      p.TitleUk,
		"post_title_ru":   p.TitleRu,
		"post_content":    p.ContentUk,
		"post_content_ru": p.ContentRu,
		"post_excerpt":    p.ExcerptUk,
		"post_excerpt_ru": p.ExcerptRu,
		"post_status":     StatusPublish,
		"post_type":       PostTypePost,
		"post_date":       publishedAt(p, now).Format(tabularDateLayout),
		"post_author":     author(p),
		"featured_image":  p.Image,
	}
}

func ToPostItem(p domain.BlogPost, siteURL string, now time.Time) domain.InterchangeItem {
	pub := publishedAt(p, now)
	return domain.InterchangeItem{
		Title:    p.TitleUk,
		Link:     fmt.Sprintf("%s/blog/%s", siteURL, p.ID),
		PubDate:  pub.Format(interchangeDateForm),
		PostDate: pub.Format(tabularDateLayout),
		Creator:  author(p),
		Content:  p.ContentUk,
		Excerpt:  p.ExcerptUk,
		PostType: PostTypePost,
		Status:   StatusPublish,
	}
}

func ToCompanyItem(c domain.Company, siteURL string) domain.InterchangeItem {
	return domain.InterchangeItem{
		Title:    c.Name,
		Link:     fmt.Sprintf("%s/company/%s", siteURL, c.ID),
		Content:  c.Description,
		PostType: PostTypeListing,
		Status:   companyStatus(c),
		Meta: []domain.MetaField{
			{Key: "_listing_phone", Value: c.Contacts.Phone},
			{Key: "_listing_email", Value: c.Contacts.Email},
			{Key: "_listing_category", Value: c.Category},
		},
	}
}

func companyStatus(c domain.Company) string {
	if c.IsActive {
		return StatusPublish
	}
	return StatusDraft
}

func publishedAt(p domain.BlogPost, now time.Time) time.Time {
	if p.PublishedAt.IsZero() {
		return now.UTC()
	}
	return p.PublishedAt.UTC()
}

func author(p domain.BlogPost) string {
	if a := strings.TrimSpace(p.Author); a != "" {
		return a
	}
	return domain.DefaultAuthor
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
