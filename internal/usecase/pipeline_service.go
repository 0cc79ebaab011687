package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
	"github.com/riskibarqy/skater-value/internal/domain/publication"
	"github.com/riskibarqy/skater-value/internal/domain/roster"
	"github.com/riskibarqy/skater-value/internal/domain/skaterstats"
	"github.com/riskibarqy/skater-value/internal/domain/valuation"
	"github.com/riskibarqy/skater-value/internal/platform/id"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	RunStatusSucceeded = "success"
	RunStatusFailed    = "failed"
)

type PipelineConfig struct {
	Schema        skaterstats.Schema
	Discrepancy   valuation.DiscrepancyOptions
	RosterEnabled bool
}

type PipelineResult struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Season        []valuation.RankedRecord
	PerGame       []valuation.RankedRecord
	Discrepancies []valuation.DiscrepancyRecord
	RosterSize    int
}

// ResultPublisher receives the finished tables of a run.
type ResultPublisher interface {
	Publish(ctx context.Context, input PublishInput) error
}

type PipelineService struct {
	loader    DatasetLoader
	publisher ResultPublisher
	ids       id.Generator
	cfg       PipelineConfig
	observer  RunObserver
	logger    *logging.Logger
	now       func() time.Time
}

func NewPipelineService(
	loader DatasetLoader,
	publisher ResultPublisher,
	ids id.Generator,
	cfg PipelineConfig,
	observer RunObserver,
	logger *logging.Logger,
) *PipelineService {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if observer == nil {
		observer = NewNopObserver()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if len(cfg.Schema.Categories) == 0 {
		cfg.Schema = skaterstats.DefaultSchema()
	}
	if cfg.Discrepancy.Limit <= 0 {
		cfg.Discrepancy.Limit = valuation.DefaultDiscrepancyLimit
	}

	return &PipelineService{
		loader:    loader,
		publisher: publisher,
		ids:       ids,
		cfg:       cfg,
		observer:  observer,
		logger:    logger.Named("pipeline"),
		now:       time.Now,
	}
}

// Run executes one full batch: load, merge, normalize, extract discrepancies, annotate and publish.
// Any failure before publishing aborts the run without output.
func (s *PipelineService) Run(ctx context.Context) (PipelineResult, error) {
	ctx, span := startRunSpan(ctx, "usecase.PipelineService.Run")
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		return PipelineResult{}, fmt.Errorf("generate run id: %w", err)
	}
	span.SetAttributes(attribute.String("run.id", runID))

	result := PipelineResult{RunID: runID, StartedAt: s.now()}
	logger := s.logger.With("run_id", runID)
	logger.InfoContext(ctx, "pipeline run started")

	err = s.run(ctx, logger, &result)
	result.FinishedAt = s.now()
	elapsed := result.FinishedAt.Sub(result.StartedAt)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.observer.ObserveRun(RunStatusFailed, 0, elapsed)
		logger.ErrorContext(ctx, "pipeline run failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return result, err
	}

	s.observer.ObserveRun(RunStatusSucceeded, len(result.Discrepancies), elapsed)
	logger.InfoContext(ctx, "pipeline run finished",
		"season_rows", len(result.Season),
		"per_game_rows", len(result.PerGame),
		"discrepancies", len(result.Discrepancies),
		"duration_ms", elapsed.Milliseconds(),
	)
	return result, nil
}

func (s *PipelineService) run(ctx context.Context, logger *logging.Logger, result *PipelineResult) error {
	schema := s.cfg.Schema

	var all, even []skaterstats.Record
	if err := s.stage("load", func() error {
		var err error
		all, err = s.loadRecords(ctx, dataset.NameAllStrengths, schema)
		if err != nil {
			return err
		}
		even, err = s.loadRecords(ctx, dataset.NameEvenStrength, schema)
		return err
	}); err != nil {
		return err
	}
	logger.InfoContext(ctx, "datasets loaded", "all_strengths_rows", len(all), "even_strength_rows", len(even))

	var merged []valuation.MergedRecord
	if err := s.stage("merge", func() error {
		var err error
		merged, err = valuation.Merge(all, even, schema)
		return err
	}); err != nil {
		return err
	}

	s.timeStage("normalize", func() {
		result.Season, result.PerGame = valuation.Normalize(merged, schema)
	})
	if excluded := len(result.Season) - len(result.PerGame); excluded > 0 {
		logger.InfoContext(ctx, "players without games left out of per-game ranking", "count", excluded)
	}

	s.timeStage("discrepancy", func() {
		result.Discrepancies = valuation.Discrepancies(result.Season, result.PerGame, s.cfg.Discrepancy)
	})

	if s.cfg.RosterEnabled {
		if err := s.stage("roster", func() error {
			table, err := s.loader.Load(ctx, dataset.NameRoster)
			if err != nil {
				return err
			}
			r, err := roster.Parse(table)
			if err != nil {
				return fmt.Errorf("%w: %s has unexpected shape: %w", ErrSourceUnavailable, dataset.NameRoster, err)
			}
			result.RosterSize = r.Len()
			result.Discrepancies = valuation.AnnotateStatus(result.Discrepancies, r.Status)
			return nil
		}); err != nil {
			return err
		}
	}

	if s.publisher == nil {
		return nil
	}
	return s.stage("publish", func() error {
		return s.publisher.Publish(ctx, PublishInput{
			Sheets: []publication.Sheet{
				publication.SeasonRankings(result.Season, schema),
				publication.PerGameRankings(result.PerGame, schema),
				publication.Discrepancies(result.Discrepancies),
			},
			Discrepancies: result.Discrepancies,
		})
	})
}

func (s *PipelineService) loadRecords(ctx context.Context, name string, schema skaterstats.Schema) ([]skaterstats.Record, error) {
	table, err := s.loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	records, err := skaterstats.ParseTable(table, schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has unexpected shape: %w", ErrSourceUnavailable, name, err)
	}
	return records, nil
}

func (s *PipelineService) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.observer.ObserveStage(name, time.Since(start))
	return err
}

// timeStage records the duration of a stage that cannot fail.
func (s *PipelineService) timeStage(name string, fn func()) {
	start := time.Now()
	fn()
	s.observer.ObserveStage(name, time.Since(start))
}
