package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/database/postgres"
	"github.com/kozaktomas/face-clock/internal/extractor"
	"github.com/kozaktomas/face-clock/internal/liveness"
	"github.com/kozaktomas/face-clock/internal/matcher"
	"github.com/kozaktomas/face-clock/internal/quality"
)

// appDeps bundles the wired components commands work with.
type appDeps struct {
	cfg       *config.Config
	engine    *attendance.Engine
	matcher   *matcher.Matcher
	employees *postgres.EmployeeRepository
	events    *postgres.EventRepository
	window    attendance.DayWindow
}

// connectDatabase initializes the PostgreSQL pool and runs migrations.
func connectDatabase(cfg *config.Config) (*postgres.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return pool, nil
}

// newSecondOpinion builds the configured liveness provider, or nil when the
// second opinion is disabled.
func newSecondOpinion(ctx context.Context, cfg *config.Config) (quality.SecondOpinion, error) {
	switch cfg.Liveness.Provider {
	case "":
		return nil, nil
	case "openai":
		if cfg.Liveness.OpenAIToken == "" {
			return nil, errors.New("LIVENESS_PROVIDER=openai requires OPENAI_TOKEN")
		}
		return liveness.NewOpenAIProvider(cfg.Liveness.OpenAIToken), nil
	case "gemini":
		if cfg.Liveness.GeminiAPIKey == "" {
			return nil, errors.New("LIVENESS_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return liveness.NewGeminiProvider(ctx, cfg.Liveness.GeminiAPIKey)
	default:
		return nil, fmt.Errorf("unknown liveness provider: %s", cfg.Liveness.Provider)
	}
}

// buildDeps wires the recognition pipeline over an initialized pool.
func buildDeps(ctx context.Context, cfg *config.Config, pool *postgres.Pool) (*appDeps, error) {
	loc, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_TIMEZONE %q: %w", cfg.Attendance.Timezone, err)
	}

	m, err := matcher.New(matcher.Config{
		Threshold:    cfg.Recognition.Threshold,
		Metric:       matcher.Metric(cfg.Recognition.Metric),
		ModelVersion: cfg.Embedding.ModelVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher: %w", err)
	}

	secondOpinion, err := newSecondOpinion(ctx, cfg)
	if err != nil {
		return nil, err
	}

	window := attendance.NewDayWindow(loc)
	employees := postgres.NewEmployeeRepository(pool)
	events := postgres.NewEventRepository(pool)
	engine := attendance.NewEngine(
		extractor.NewClient(cfg.Embedding.URL, cfg.Embedding.ModelVersion),
		quality.NewGate(cfg.Quality, secondOpinion),
		m,
		employees,
		events,
		window,
		cfg.Embedding.ModelVersion,
	)

	return &appDeps{
		cfg:       cfg,
		engine:    engine,
		matcher:   m,
		employees: employees,
		events:    events,
		window:    window,
	}, nil
}
