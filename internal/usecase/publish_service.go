package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/skater-value/internal/domain/publication"
	"github.com/riskibarqy/skater-value/internal/domain/valuation"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
)

// Publisher replaces whatever it holds under sheet.Name with the given sheet.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, sheet publication.Sheet) error
}

type ChartRenderer interface {
	RenderDiscrepancies(ctx context.Context, records []valuation.DiscrepancyRecord) error
}

type PublishInput struct {
	Sheets        []publication.Sheet
	Discrepancies []valuation.DiscrepancyRecord
}

type PublishService struct {
	publishers []Publisher
	chart      ChartRenderer
	workers    int
	logger     *logging.Logger
}

func NewPublishService(publishers []Publisher, chart ChartRenderer, workers int, logger *logging.Logger) *PublishService {
	if logger == nil {
		logger = logging.Default()
	}
	filtered := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	return &PublishService{
		publishers: filtered,
		chart:      chart,
		workers:    workers,
		logger:     logger.Named("publish"),
	}
}

type publishTask struct {
	name string
	run  func(ctx context.Context) error
}

// Publish hands each sink to the worker pool. A sink writes its sheets in order; sinks run
// independently and every failure is reported.
func (s *PublishService) Publish(ctx context.Context, input PublishInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PublishService.Publish")
	defer span.End()

	for _, sheet := range input.Sheets {
		if err := sheet.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	tasks := make([]publishTask, 0, len(s.publishers)+1)
	for _, p := range s.publishers {
		p := p
		tasks = append(tasks, publishTask{
			name: p.Name(),
			run: func(ctx context.Context) error {
				for _, sheet := range input.Sheets {
					if err := p.Publish(ctx, sheet); err != nil {
						return fmt.Errorf("sheet %q: %w", sheet.Name, err)
					}
				}
				return nil
			},
		})
	}
	if s.chart != nil {
		tasks = append(tasks, publishTask{
			name: "chart",
			run: func(ctx context.Context) error {
				return s.chart.RenderDiscrepancies(ctx, input.Discrepancies)
			},
		})
	}
	if len(tasks) == 0 {
		s.logger.WarnContext(ctx, "no sinks configured, nothing published")
		return nil
	}

	pool, err := ants.NewPool(normalizePublishWorkerCount(s.workers, len(tasks)))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for _, task := range tasks {
		task := task
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()

			start := time.Now()
			err := task.run(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "sink failed", "sink", task.name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", task.name, err))
				mu.Unlock()
				return
			}
			s.logger.InfoContext(ctx, "sink published",
				"sink", task.name,
				"sheets", len(input.Sheets),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submit sink to worker pool: %w", err)
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPublishFailed, errors.Join(errs...))
	}
	return nil
}

func normalizePublishWorkerCount(requested, tasks int) int {
	if requested <= 0 {
		requested = 4
	}
	if requested > tasks {
		requested = tasks
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}
