package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/cache"
	"github.com/2beens/fitcoach/internal/health"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
)

const MaxPageSize = 100

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=insights_test

type reportsRepo interface {
	Add(ctx context.Context, report Report) (*Report, error)
	Get(ctx context.Context, id int) (*Report, error)
	List(ctx context.Context, page, size int) ([]*Report, error)
	Count(ctx context.Context) (int, error)
}

var ErrInvalidPage = errors.New("invalid page params")

type Service struct {
	repo reportsRepo
	// stored reports never change, so they can be cached by id; nil disables
	reportCache cache.Cache
	now         func() time.Time
}

func NewService(repo reportsRepo, reportCache cache.Cache) *Service {
	return &Service{
		repo:        repo,
		reportCache: reportCache,
		now:         time.Now,
	}
}

// Record stores a generated insights response.
func (s *Service) Record(
	ctx context.Context,
	profile health.Profile,
	summary health.WeeklySummary,
	targets health.Targets,
	response string,
) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.insights.record")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	report, err := s.repo.Add(ctx, Report{
		Profile:   profile,
		Summary:   summary,
		Targets:   targets,
		Response:  response,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("add report: %w", err)
	}
	return report.ID, nil
}

func (s *Service) Get(ctx context.Context, id int) (_ *Report, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.insights.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.reportCache != nil {
		if cached, found := s.reportCache.Get(id); found {
			if report, ok := cached.(*Report); ok {
				return report, nil
			}
		}
	}

	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.reportCache != nil {
		s.reportCache.Set(id, report, 1)
	}
	return report, nil
}

// Page returns a one-based page of reports along with the total count.
func (s *Service) Page(ctx context.Context, page, size int) (_ *ReportsPage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.insights.page")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if page < 1 || size < 1 || size > MaxPageSize {
		return nil, fmt.Errorf("%w: page %d, size %d", ErrInvalidPage, page, size)
	}

	reports, err := s.repo.List(ctx, page-1, size)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &ReportsPage{
		Reports: reports,
		Total:   total,
	}, nil
}
