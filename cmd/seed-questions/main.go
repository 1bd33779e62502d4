package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sinaqlab/sinaq-backend/internal/config"
	"github.com/sinaqlab/sinaq-backend/internal/database"
	"github.com/sinaqlab/sinaq-backend/internal/logger"
	"github.com/sinaqlab/sinaq-backend/internal/model"
)

// Seeds one template with a stratified question pool for local development.
func main() {
	var templateArg string
	var perStratum int
	flag.StringVar(&templateArg, "template", "", "Template UUID (random if empty)")
	flag.IntVar(&perStratum, "count", 10, "Questions per difficulty stratum")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	templateID := uuid.New()
	if templateArg != "" {
		parsed, err := uuid.Parse(templateArg)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid template UUID")
		}
		templateID = parsed
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Printf("=== Seeding %d questions into template %s ===\n", 3*perStratum, templateID)

	categories := []string{"algebra", "geometry", "statistics"}
	points := map[model.Difficulty]float64{
		model.DifficultyEasy:   1,
		model.DifficultyMedium: 2,
		model.DifficultyHard:   3,
	}

	order := 1
	for _, difficulty := range model.Difficulties {
		for i := 0; i < perStratum; i++ {
			options, _ := json.Marshal([]map[string]string{
				{"id": "a", "text": "Option A"},
				{"id": "b", "text": "Option B"},
				{"id": "c", "text": "Option C"},
				{"id": "d", "text": "Option D"},
			})
			correctSpec, _ := json.Marshal(model.CorrectAnswerSpec{OptionIDs: []string{"a"}})

			_, err := pool.Exec(ctx, `
				INSERT INTO questions
					(id, template_id, category, difficulty, points, question_type,
					 options, correct_spec, is_active, order_index)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)`,
				uuid.New(), templateID, categories[i%len(categories)], difficulty,
				points[difficulty], model.QuestionTypeSingleChoice, options, correctSpec, order,
			)
			if err != nil {
				log.Fatal().Err(err).Int("order", order).Msg("Insert failed")
			}
			order++
		}
		fmt.Printf("Seeded %d %s questions\n", perStratum, difficulty)
	}

	fmt.Println("Done. Template ID:", templateID)
}
