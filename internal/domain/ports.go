package domain

import "context"

type SaveResult int

const (
	Unchanged SaveResult = iota
	Inserted
	Updated
)

// ContentStore is the canonical document store. Save* upsert on ExternalID
// when it is set and insert otherwise; List* return every record in
// insertion order.
type ContentStore interface {
	Ping(ctx context.Context) error
	SaveCompany(ctx context.Context, c *Company) (SaveResult, error)
	SaveBlogPost(ctx context.Context, p *BlogPost) (SaveResult, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	ListBlogPosts(ctx context.Context) ([]BlogPost, error)
}

type LegacySource interface {
	FetchPosts(ctx context.Context, pageSize int) (Batch[ExternalPost], error)
	FetchListings(ctx context.Context, customType string, pageSize int) (Batch[ExternalListing], error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
