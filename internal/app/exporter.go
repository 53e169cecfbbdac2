package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"hal_bridge/internal/adapters/observability"
	"hal_bridge/internal/adapters/writers"
	"hal_bridge/internal/domain"
)

const (
	CompaniesCSVFile = "companies_for_wordpress.csv"
	BlogPostsCSVFile = "blog_posts_for_wordpress.csv"
	InterchangeFile  = "hal_wordpress_export.xml"
	CompaniesJSON    = "companies.json"
	BlogPostsJSON    = "blog_posts.json"
)

// FileReport is the outcome of one output file.
type FileReport struct {
	Format  string      `json:"format"`
	Path    string      `json:"path"`
	Records int         `json:"records"`
	Status  StageStatus `json:"status"`
	Err     string      `json:"error,omitempty"`
}

type ExportReport struct {
	Companies int          `json:"companies"`
	BlogPosts int          `json:"blog_posts"`
	Files     []FileReport `json:"files"`
	Started   time.Time    `json:"started"`
	Finished  time.Time    `json:"finished"`
}

// Failed returns the files that were not written.
func (r ExportReport) Failed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Status == StageFailed {
			out = append(out, f)
		}
	}
	return out
}

type ExportService struct {
	store   domain.ContentStore
	dir     string
	channel writers.Channel
	now     func() time.Time
}

// NewExportService writes into dir. channel.Link is the site root used for
// item links in the interchange document.
func NewExportService(store domain.ContentStore, dir string, channel writers.Channel) *ExportService {
	return &ExportService{store: store, dir: dir, channel: channel, now: time.Now}
}

func (s *ExportService) WithClock(now func() time.Time) *ExportService {
	s.now = now
	return s
}

type exportStage struct {
	format  string
	file    string
	records int
	write   func(io.Writer) error
}

// Run reads every company and post, then writes the tabular files, the
// interchange document and the JSON dumps in that order. A failing file is
// reported and the next one is still attempted. A store read failure aborts
// the run before anything is written.
func (s *ExportService) Run(ctx context.Context) (ExportReport, error) {
	now := s.now().UTC()
	rep := ExportReport{Started: now}

	if err := s.store.Ping(ctx); err != nil {
		return rep, storeErr("ping store", err)
	}
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return rep, storeErr("read companies", err)
	}
	posts, err := s.store.ListBlogPosts(ctx)
	if err != nil {
		return rep, storeErr("read blog posts", err)
	}
	rep.Companies, rep.BlogPosts = len(companies), len(posts)
	log.Info().Int("companies", rep.Companies).Int("blog_posts", rep.BlogPosts).Str("dir", s.dir).Msg("export started")

	for _, st := range s.stages(companies, posts, now) {
		rep.Files = append(rep.Files, s.runStage(st))
	}

	rep.Finished = s.now().UTC()
	return rep, nil
}

func (s *ExportService) stages(companies []domain.Company, posts []domain.BlogPost, now time.Time) []exportStage {
	site := s.channel.Link
	return []exportStage{
		{
			format: "csv", file: CompaniesCSVFile, records: len(companies),
			write: func(w io.Writer) error {
				rows := make([]domain.Record, 0, len(companies))
				for _, c := range companies {
					rows = append(rows, ToCompanyRow(c))
				}
				return writers.WriteTabular(w, domain.CompanyColumns, rows)
			},
		},
		{
			format: "csv", file: BlogPostsCSVFile, records: len(posts),
			write: func(w io.Writer) error {
				rows := make([]domain.Record, 0, len(posts))
				for _, p := range posts {
					rows = append(rows, ToBlogRow(p, now))
				}
				return writers.WriteTabular(w, domain.BlogPostColumns, rows)
			},
		},
		{
			format: "xml", file: InterchangeFile, records: len(posts) + len(companies),
			write: func(w io.Writer) error {
				postItems := make([]domain.InterchangeItem, 0, len(posts))
				for _, p := range posts {
					postItems = append(postItems, ToPostItem(p, site, now))
				}
				companyItems := make([]domain.InterchangeItem, 0, len(companies))
				for _, c := range companies {
					companyItems = append(companyItems, ToCompanyItem(c, site))
				}
				return writers.WriteInterchange(w, s.channel, postItems, companyItems)
			},
		},
		{
			format: "json", file: CompaniesJSON, records: len(companies),
			write: func(w io.Writer) error { return writers.WriteCompaniesJSON(w, companies) },
		},
		{
			format: "json", file: BlogPostsJSON, records: len(posts),
			write: func(w io.Writer) error { return writers.WriteBlogPostsJSON(w, posts) },
		},
	}
}

func (s *ExportService) runStage(st exportStage) FileReport {
	path := filepath.Join(s.dir, st.file)
	fr := FileReport{Format: st.format, Path: path, Records: st.records, Status: StageOK}

	err := writers.WriteFile(path, st.write)
	observability.ObserveExportFile(st.format, err)
	if err != nil {
		fr.Status = StageFailed
		fr.Err = err.Error()
		log.Error().Str("format", st.format).Str("path", path).Err(err).Msg("export file failed")
		return fr
	}
	log.Info().Str("format", st.format).Str("path", path).Int("records", st.records).Msg("export file written")
	return fr
}

// storeErr tags a store failure as persistence so callers treat it as fatal.
func storeErr(op string, err error) error {
	if !errors.Is(err, domain.ErrPersistence) {
		err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
