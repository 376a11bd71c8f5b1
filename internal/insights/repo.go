package insights

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrReportNotFound = errors.New("report not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, report Report) (_ *Report, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.insights.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if report.CreatedAt.IsZero() {
		return nil, errors.New("report timestamp empty")
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO insight_report (profile, summary, targets, response, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		report.Profile,
		report.Summary,
		report.Targets,
		report.Response,
		report.CreatedAt,
	).Scan(&report.ID)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	span.SetAttributes(attribute.Int("id", report.ID))
	return &report, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Report, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.insights.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	report := &Report{}
	err = r.db.
		QueryRow(ctx, `
			SELECT id, profile, summary, targets, response, created_at
			FROM insight_report
			WHERE id = $1
		`, id).
		Scan(&report.ID, &report.Profile, &report.Summary, &report.Targets, &report.Response, &report.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

// List returns the reports of the given zero-based page, newest first.
func (r *Repo) List(ctx context.Context, page, size int) (_ []*Report, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.insights.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", page), attribute.Int("size", size))

	rows, err := r.db.Query(ctx, `
		SELECT id, profile, summary, targets, response, created_at
		FROM insight_report
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2;
	`, size, size*page)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]*Report, 0, size)
	for rows.Next() {
		report := &Report{}
		if err := rows.Scan(&report.ID, &report.Profile, &report.Summary, &report.Targets, &report.Response, &report.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *Repo) Count(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.insights.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM insight_report;`).Scan(&count); err != nil {
		return -1, fmt.Errorf("count reports: %w", err)
	}
	return count, nil
}
