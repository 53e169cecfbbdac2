package domain

import "time"

const DefaultAuthor = "HAL Team"

type BlogPost struct {
	ID          string    `json:"_id"`
	ExternalID  string    `json:"externalId,omitempty"`
	TitleUk     string    `json:"titleUk"`
	TitleRu     string    `json:"titleRu"`
	ContentUk   string    `json:"contentUk"`
	ContentRu   string    `json:"contentRu"`
	ExcerptUk   string    `json:"excerptUk"`
	ExcerptRu   string    `json:"excerptRu"`
	Image       string    `json:"image"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
