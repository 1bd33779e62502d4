package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/sinaqlab/sinaq-backend/internal/config"
	"github.com/sinaqlab/sinaq-backend/internal/database"
	"github.com/sinaqlab/sinaq-backend/internal/logger"
	"github.com/sinaqlab/sinaq-backend/internal/repository"
	"github.com/sinaqlab/sinaq-backend/internal/service"
)

// Re-scores every completed session from its persisted selection and answer
// rows. Run after fixing grading mistakes or correcting question data; the
// drift report shows which stored scores had gone stale.
func main() {
	var epsilon float64
	flag.Float64Var(&epsilon, "epsilon", 0, "Drift threshold override (0 uses SCORE_DRIFT_EPSILON)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if epsilon == 0 {
		epsilon = cfg.ScoreDriftEpsilon
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	selectionRepo := repository.NewSessionQuestionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)

	scoringService := service.NewScoringService(selectionRepo, answerRepo, sessionRepo, log)
	recalcService := service.NewRecalcService(scoringService, sessionRepo, epsilon, log)

	fmt.Println("=== Recalculating Session Scores ===")

	drifts, err := recalcService.RecalculateAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Recalculation failed")
	}

	if len(drifts) == 0 {
		fmt.Println("No score drift detected")
		return
	}

	fmt.Printf("%d sessions had drifted scores:\n", len(drifts))
	for _, d := range drifts {
		fmt.Printf("  %s: %.2f -> %.2f\n", d.SessionID, d.OldScore, d.NewScore)
	}
}
