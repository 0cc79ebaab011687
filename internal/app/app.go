package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/skater-value/external/fantrax"
	"github.com/riskibarqy/skater-value/external/naturalstattrick"
	"github.com/riskibarqy/skater-value/internal/config"
	"github.com/riskibarqy/skater-value/internal/domain/dataset"
	"github.com/riskibarqy/skater-value/internal/domain/skaterstats"
	"github.com/riskibarqy/skater-value/internal/domain/valuation"
	"github.com/riskibarqy/skater-value/internal/infrastructure/repository/filesystem"
	"github.com/riskibarqy/skater-value/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/skater-value/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/skater-value/internal/infrastructure/sink"
	"github.com/riskibarqy/skater-value/internal/observability"
	idgen "github.com/riskibarqy/skater-value/internal/platform/id"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
	"github.com/riskibarqy/skater-value/internal/usecase"
)

const metricsPushTimeout = 10 * time.Second

// App owns the wired pipeline and the resources it holds open between runs.
type App struct {
	cfg      config.Config
	logger   *logging.Logger
	pipeline *usecase.PipelineService
	metrics  *observability.Metrics
	db       *sqlx.DB
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var db *sqlx.DB
	if cfg.NeedsDatabase() {
		opened, err := openDB(ctx, cfg.DBURL, cfg.DBDisablePreparedBinary)
		if err != nil {
			return nil, err
		}
		db = opened
		logger.Info("postgres connected", "db", snapshotDBName(cfg.DBURL))
	}

	snapshots, err := newSnapshotRepository(cfg, db)
	if err != nil {
		closeDB(db, logger)
		return nil, err
	}

	metrics := observability.NewMetrics()
	loader := usecase.NewSnapshotLoader(snapshots, newSources(cfg, logger), cfg.Policies, metrics, logger)

	publishers := newPublishers(cfg, db, logger)
	var chart usecase.ChartRenderer
	if cfg.ChartEnabled {
		var echo io.Writer
		if cfg.ChartStdout {
			echo = os.Stdout
		}
		chart = sink.NewChartRenderer(cfg.ChartPath, echo, logger)
	}
	publisher := usecase.NewPublishService(publishers, chart, cfg.PublishWorkers, logger)

	pipeline := usecase.NewPipelineService(
		loader,
		publisher,
		idgen.NewRandomGenerator(),
		usecase.PipelineConfig{
			Schema: skaterstats.DefaultSchema(),
			Discrepancy: valuation.DiscrepancyOptions{
				MinGP: cfg.DiscrepancyMinGP,
				Limit: cfg.DiscrepancyLimit,
			},
			RosterEnabled: cfg.RosterEnabled,
		},
		metrics,
		logger,
	)

	logger.Info("pipeline wired",
		"season", cfg.Season,
		"snapshot_backend", cfg.SnapshotBackend,
		"publishers", len(publishers),
		"chart", cfg.ChartEnabled,
		"roster", cfg.RosterEnabled,
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline,
		metrics:  metrics,
		db:       db,
	}, nil
}

// RunOnce executes one pipeline run bounded by the configured run timeout, then pushes run metrics.
func (a *App) RunOnce(ctx context.Context) (usecase.PipelineResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, a.cfg.PipelineRunTimeout)
	defer cancel()

	result, runErr := a.pipeline.Run(runCtx)

	pushCtx, pushCancel := context.WithTimeout(context.WithoutCancel(ctx), metricsPushTimeout)
	defer pushCancel()
	if err := a.metrics.Push(pushCtx, a.cfg.MetricsPushgatewayURL, a.cfg.MetricsJobName); err != nil {
		a.logger.Warn("metrics push failed", "error", err)
	}

	return result, runErr
}

func (a *App) Close() {
	closeDB(a.db, a.logger)
}

func newSnapshotRepository(cfg config.Config, db *sqlx.DB) (dataset.Repository, error) {
	switch cfg.SnapshotBackend {
	case config.SnapshotBackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres snapshot backend requires a database handle")
		}
		return postgres.NewSnapshotRepository(db), nil
	case config.SnapshotBackendMemory:
		return memory.NewSnapshotRepository(), nil
	case config.SnapshotBackendFilesystem, "":
		repo, err := filesystem.NewSnapshotRepository(cfg.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("open snapshot dir: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

func newSources(cfg config.Config, logger *logging.Logger) *sourceRouter {
	sources := []routedSource{
		naturalstattrick.NewClient(naturalstattrick.ClientConfig{
			BaseURL: cfg.NSTBaseURL,
			Season:  cfg.Season,
			Timeout: cfg.NSTTimeout,
			URLs: map[string]string{
				dataset.NameAllStrengths: cfg.SourceURLs[dataset.NameAllStrengths],
				dataset.NameEvenStrength: cfg.SourceURLs[dataset.NameEvenStrength],
			},
			MaxRetries:     cfg.SourceMaxRetries,
			RetryBackoff:   cfg.SourceRetryBackoff,
			CircuitBreaker: cfg.SourceCircuit,
			Logger:         logger,
		}),
	}
	if cfg.RosterEnabled {
		sources = append(sources, fantrax.NewClient(fantrax.ClientConfig{
			ExportURL:     cfg.FantraxExportURL,
			SessionCookie: cfg.FantraxSessionCookie,
			Timeout:       cfg.FantraxTimeout,
			MaxRows:       cfg.RosterMaxRows,
			Location:      cfg.RosterLocation,
			MaxRetries:    cfg.SourceMaxRetries,
			RetryBackoff:  cfg.SourceRetryBackoff,
			Logger:        logger,
		}))
	}
	return newSourceRouter(sources...)
}

func newPublishers(cfg config.Config, db *sqlx.DB, logger *logging.Logger) []usecase.Publisher {
	var out []usecase.Publisher
	if cfg.PublishExcelPath != "" {
		out = append(out, sink.NewExcelPublisher(cfg.PublishExcelPath, logger))
	}
	if cfg.PublishJSONDir != "" {
		out = append(out, sink.NewJSONPublisher(cfg.PublishJSONDir, logger))
	}
	if cfg.PublishPostgresEnabled && db != nil {
		out = append(out, postgres.NewPublicationRepository(db))
	}
	return out
}

func closeDB(db *sqlx.DB, logger *logging.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("close postgres", "error", err)
	}
}
