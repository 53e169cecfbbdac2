package domain

// Record is one flat row of a tabular export, keyed by column name.
type Record map[string]string

// InterchangeItem is one <item> of the interchange XML document.
type InterchangeItem struct {
	Title    string
	Link     string
	PubDate  string
	PostDate string
	Creator  string
	Content  string
	Excerpt  string
	PostType string
	Status   string
	Meta     []MetaField
}

type MetaField struct {
	Key   string
	Value string
}

// Fixed tabular column sets, in output order.
var (
	CompanyColumns = []string{
		"post_title", "post_title_ru", "post_content", "post_content_ru",
		"post_status", "post_type", "category", "phone", "email", "website",
		"city", "address", "image_url", "rating", "review_count",
	}
	BlogPostColumns = []string{
		"post_title", "post_title_ru", "post_content", "post_content_ru",
		"post_excerpt", "post_excerpt_ru", "post_status", "post_type",
		"post_date", "post_author", "featured_image",
	}
)
