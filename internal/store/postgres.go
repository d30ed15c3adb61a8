// Package store persists extracted jobs in Postgres, keyed by the
// content fingerprint so re-scrapes update instead of duplicate.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jimezsa/jobharvest/internal/models"
)

// DefaultRetention is how long a posting survives without being seen
// again before Prune removes it.
const DefaultRetention = 60 * 24 * time.Hour

type Postgres struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Open connects and verifies the pool.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the jobs table and indexes if they are missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertJob inserts a job or, when the fingerprint already exists,
// refreshes the mutable columns and bumps last_updated.
func (p *Postgres) UpsertJob(ctx context.Context, job models.Job) error {
	if job.Fingerprint == "" {
		return fmt.Errorf("job %q has no fingerprint", job.URL)
	}

	tag, err := p.pool.Exec(ctx,
		`INSERT INTO jobs (
		   fingerprint, site, title, company, location, description,
		   requirements, qualifications, benefits,
		   salary, salary_min, salary_max, salary_currency, salary_type,
		   employment_type, experience_level, work_types, remote,
		   url, application_url, company_logo,
		   posted_at, expires_at, scraped_at, status, last_updated
		 ) VALUES (
		   $1, $2, $3, $4, $5, $6,
		   $7, $8, $9,
		   $10, $11, $12, $13, $14,
		   $15, $16, $17, $18,
		   $19, $20, $21,
		   $22, $23, $24, $25, now()
		 )
		 ON CONFLICT (fingerprint) DO UPDATE SET
		   title = EXCLUDED.title,
		   location = EXCLUDED.location,
		   description = EXCLUDED.description,
		   requirements = EXCLUDED.requirements,
		   qualifications = EXCLUDED.qualifications,
		   benefits = EXCLUDED.benefits,
		   salary = EXCLUDED.salary,
		   salary_min = EXCLUDED.salary_min,
		   salary_max = EXCLUDED.salary_max,
		   salary_currency = EXCLUDED.salary_currency,
		   salary_type = EXCLUDED.salary_type,
		   employment_type = EXCLUDED.employment_type,
		   experience_level = EXCLUDED.experience_level,
		   work_types = EXCLUDED.work_types,
		   remote = EXCLUDED.remote,
		   application_url = EXCLUDED.application_url,
		   company_logo = EXCLUDED.company_logo,
		   expires_at = EXCLUDED.expires_at,
		   scraped_at = EXCLUDED.scraped_at,
		   status = EXCLUDED.status,
		   last_updated = now()`,
		job.Fingerprint, job.Site, job.Title, job.Company, job.Location, job.Description,
		job.Requirements, job.Qualifications, job.Benefits,
		job.Salary, nullableInt(job.SalaryMin), nullableInt(job.SalaryMax), job.SalaryCurrency, job.SalaryType,
		job.EmploymentType, job.ExperienceLevel, job.WorkTypes, job.Remote,
		job.URL, job.ApplicationURL, job.CompanyLogo,
		job.PostedAt, job.ExpiresAt, job.ScrapedAt, job.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", job.Fingerprint, err)
	}

	p.logger.Debug().
		Str("fingerprint", job.Fingerprint).
		Str("title", job.Title).
		Str("company", job.Company).
		Int64("rows", tag.RowsAffected()).
		Msg("job upserted")
	return nil
}

// Prune removes postings not seen for the given duration and returns
// how many rows went away.
func (p *Postgres) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = DefaultRetention
	}
	cutoff := time.Now().Add(-olderThan)

	tag, err := p.pool.Exec(ctx, `DELETE FROM jobs WHERE scraped_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}

	if removed := tag.RowsAffected(); removed > 0 {
		p.logger.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("pruned stale jobs")
		return removed, nil
	}
	return 0, nil
}

// nullableInt maps the zero value to NULL so absent salary bounds do
// not read as zero dollars.
func nullableInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
