package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"hal_bridge/internal/domain"
)

// Open connects with the given DSN, forcing parseTime and UTC so the
// timestamp columns scan into time.Time, and pings once.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, persistErr("parse dsn", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	conn, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, persistErr("connector", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, persistErr("ping", err)
	}
	return db, nil
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return persistErr("ping", err)
	}
	return nil
}

func (r *Repo) SaveCompany(ctx context.Context, c *domain.Company) (domain.SaveResult, error) {
	return r.save(ctx, companySQL, "company", identity{&c.ID, c.ExternalID, &c.CreatedAt, &c.UpdatedAt}, c)
}

func (r *Repo) SaveBlogPost(ctx context.Context, p *domain.BlogPost) (domain.SaveResult, error) {
	return r.save(ctx, blogSQL, "blog post", identity{&p.ID, p.ExternalID, &p.CreatedAt, &p.UpdatedAt}, p)
}

func (r *Repo) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	return list(ctx, r.db, companySQL.listAll, func(c *domain.Company, id string, created, updated time.Time) {
		c.ID, c.CreatedAt, c.UpdatedAt = id, created, updated
	})
}

func (r *Repo) ListBlogPosts(ctx context.Context) ([]domain.BlogPost, error) {
	return list(ctx, r.db, blogSQL.listAll, func(p *domain.BlogPost, id string, created, updated time.Time) {
		p.ID, p.CreatedAt, p.UpdatedAt = id, created, updated
	})
}

// identity points at the fields of a record the store owns.
type identity struct {
	id        *string
	external  string
	createdAt *time.Time
	updatedAt *time.Time
}

// save upserts on external_id. MySQL reports 1 affected row for an insert,
// 2 for an update and 0 when the stored row already matched. On conflict the
// stored id and created_at are written back into the record.
func (r *Repo) save(ctx context.Context, q statements, kind string, ident identity, record any) (domain.SaveResult, error) {
	if *ident.id == "" {
		*ident.id = uuid.NewString()
	}
	now := time.Now().UTC()
	if ident.createdAt.IsZero() {
		*ident.createdAt = now
	}
	if ident.updatedAt.IsZero() {
		*ident.updatedAt = *ident.createdAt
	}

	body, err := json.Marshal(record)
	if err != nil {
		return domain.Unchanged, persistErr("encode "+kind, err)
	}

	res, err := r.db.ExecContext(ctx, q.upsert,
		*ident.id,
		nullable(ident.external),
		string(body),
		ident.createdAt.UTC(),
		ident.updatedAt.UTC(),
	)
	if err != nil {
		return domain.Unchanged, persistErr("save "+kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Unchanged, persistErr("save "+kind, err)
	}

	outcome := domain.Updated
	switch n {
	case 1:
		return domain.Inserted, nil
	case 0:
		outcome = domain.Unchanged
	}

	if ident.external != "" {
		if err := r.db.QueryRowContext(ctx, q.lookup, ident.external).Scan(ident.id, ident.createdAt); err != nil {
			return outcome, persistErr("lookup "+kind, err)
		}
	}
	return outcome, nil
}

// list decodes every document of a table in insertion order. The column
// values win over whatever the stored document says about identity.
func list[T any](ctx context.Context, db *sql.DB, query string, stamp func(*T, string, time.Time, time.Time)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistErr("list", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var (
			id               string
			doc              []byte
			created, updated time.Time
		)
		if err := rows.Scan(&id, &doc, &created, &updated); err != nil {
			return nil, persistErr("scan", err)
		}
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, persistErr("decode "+id, err)
		}
		stamp(&v, id, created.UTC(), updated.UTC())
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list", err)
	}
	return out, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: mysql %s: %w", domain.ErrPersistence, op, err)
}
