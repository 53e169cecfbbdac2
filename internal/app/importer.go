package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"hal_bridge/internal/adapters/observability"
	"hal_bridge/internal/domain"
)

type StageStatus string

const (
	StageOK      StageStatus = "ok"
	StageSkipped StageStatus = "skipped" // source reported nothing to migrate
	StageFailed  StageStatus = "failed"
)

// StageReport carries the counts of one import stage. Fetched counts records
// that passed boundary validation; Rejected those that did not.
type StageReport struct {
	Name      string      `json:"name"`
	Fetched   int         `json:"fetched"`
	Rejected  int         `json:"rejected"`
	Inserted  int         `json:"inserted"`
	Updated   int         `json:"updated"`
	Unchanged int         `json:"unchanged"`
	Failed    int         `json:"failed"`
	Status    StageStatus `json:"status"`
	Kind      domain.Kind `json:"kind,omitempty"`
	Err       string      `json:"error,omitempty"`
}

// Migrated is the number of records the store now holds for this stage.
func (r StageReport) Migrated() int { return r.Inserted + r.Updated + r.Unchanged }

type ImportReport struct {
	Posts    StageReport `json:"posts"`
	Listings StageReport `json:"listings"`
	Started  time.Time   `json:"started"`
	Finished time.Time   `json:"finished"`
}

type ImportService struct {
	src         domain.LegacySource
	store       domain.ContentStore
	listingType string
	pageSize    int
	now         func() time.Time
}

func NewImportService(src domain.LegacySource, store domain.ContentStore, listingType string, pageSize int) *ImportService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ImportService{src: src, store: store, listingType: listingType, pageSize: pageSize, now: time.Now}
}

// WithClock replaces the time source used to stamp mapped records.
func (s *ImportService) WithClock(now func() time.Time) *ImportService {
	s.now = now
	return s
}

// Run migrates posts, then listings. The two stages are independent: a fetch
// failure in one is recorded in its report and the other still runs. Only a
// persistence failure stops the run; it is returned with the partial report.
func (s *ImportService) Run(ctx context.Context) (ImportReport, error) {
	rep := ImportReport{Started: s.now().UTC()}

	if err := s.store.Ping(ctx); err != nil {
		rep.Finished = s.now().UTC()
		return rep, storeErr("ping store", err)
	}

	var err error
	if rep.Posts, err = s.importPosts(ctx); err != nil {
		rep.Finished = s.now().UTC()
		return rep, err
	}
	if rep.Listings, err = s.importListings(ctx); err != nil {
		rep.Finished = s.now().UTC()
		return rep, err
	}
	rep.Finished = s.now().UTC()
	return rep, nil
}

func (s *ImportService) importPosts(ctx context.Context) (StageReport, error) {
	st := StageReport{Name: "posts", Status: StageOK}
	log.Info().Str("stage", st.Name).Int("page_size", s.pageSize).Msg("stage started")

	batch, err := s.src.FetchPosts(ctx, s.pageSize)
	st.Fetched, st.Rejected = len(batch.Items), batch.Rejected
	if err != nil {
		s.fetchFailed(&st, err)
		return st, nil
	}

	for _, ext := range batch.Items {
		post, err := MapExternalPost(ext, s.now())
		if err != nil {
			st.Failed++
			log.Warn().Str("stage", st.Name).Str("external_id", ext.ID.String()).Err(err).Msg("record skipped")
			continue
		}
		res, err := s.store.SaveBlogPost(ctx, &post)
		if err != nil {
			return s.persistFailed(st, ext.ID.String(), err)
		}
		st.count(res)
	}
	s.finish(st)
	return st, nil
}

func (s *ImportService) importListings(ctx context.Context) (StageReport, error) {
	st := StageReport{Name: "listings", Status: StageOK}
	log.Info().Str("stage", st.Name).Str("type", s.listingType).Int("page_size", s.pageSize).Msg("stage started")

	batch, err := s.src.FetchListings(ctx, s.listingType, s.pageSize)
	st.Fetched, st.Rejected = len(batch.Items), batch.Rejected
	if err != nil {
		s.fetchFailed(&st, err)
		return st, nil
	}

	for _, ext := range batch.Items {
		company := MapExternalListing(ext, s.now())
		res, err := s.store.SaveCompany(ctx, &company)
		if err != nil {
			return s.persistFailed(st, ext.ID.String(), err)
		}
		st.count(res)
	}
	s.finish(st)
	return st, nil
}

func (st *StageReport) count(res domain.SaveResult) {
	switch res {
	case domain.Inserted:
		st.Inserted++
	case domain.Updated:
		st.Updated++
	default:
		st.Unchanged++
	}
}

// fetchFailed records a fetch error on the stage. Not found means the source
// has no such content type and the stage is skipped with zero records.
func (s *ImportService) fetchFailed(st *StageReport, err error) {
	st.Kind = domain.KindOf(err)
	st.Err = err.Error()

	var se *domain.StatusError
	switch {
	case st.Kind == domain.KindNotFound:
		st.Status = StageSkipped
		ev := log.Warn().Str("stage", st.Name).Err(err)
		if st.Name == "listings" {
			ev = ev.Str("type", s.listingType).
				Str("hint", "register the custom post type with show_in_rest enabled or set LEGACY_LISTING_TYPE")
		}
		ev.Msg("source has no such content type, nothing to migrate")
	case errors.As(err, &se):
		st.Status = StageFailed
		log.Error().Str("stage", st.Name).Int("status", se.Status).Err(err).Msg("fetch failed")
	default:
		st.Status = StageFailed
		log.Error().Str("stage", st.Name).Str("kind", string(st.Kind)).Err(err).Msg("fetch failed")
	}
	observability.ObserveRecords("import", st.Name, "rejected", st.Rejected)
}

func (s *ImportService) persistFailed(st StageReport, externalID string, err error) (StageReport, error) {
	err = storeErr(st.Name+" "+externalID, err)
	st.Status = StageFailed
	st.Kind = domain.KindPersistence
	st.Err = err.Error()
	s.finish(st)
	return st, err
}

func (s *ImportService) finish(st StageReport) {
	observability.ObserveRecords("import", st.Name, "inserted", st.Inserted)
	observability.ObserveRecords("import", st.Name, "updated", st.Updated)
	observability.ObserveRecords("import", st.Name, "unchanged", st.Unchanged)
	observability.ObserveRecords("import", st.Name, "failed", st.Failed)
	observability.ObserveRecords("import", st.Name, "rejected", st.Rejected)

	log.Info().
		Str("stage", st.Name).
		Int("fetched", st.Fetched).
		Int("inserted", st.Inserted).
		Int("updated", st.Updated).
		Int("unchanged", st.Unchanged).
		Int("failed", st.Failed).
		Int("rejected", st.Rejected).
		Str("status", string(st.Status)).
		Msg("stage finished")
}
