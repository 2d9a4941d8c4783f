package main

import (
	"context"
	"fmt"
	"time"

	"parishcore/internal/db"
	"parishcore/internal/seed"
	"parishcore/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo data",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "year",
			Usage: "Year to create budget rounds for",
			Value: time.Now().Year(),
		},
		&cli.IntFlag{
			Name:  "slot-budget",
			Usage: "Slot capacity per seeded round",
			Value: 25,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		memberRepo := store.NewMemberRepository(pool)
		newcomerRepo := store.NewNewcomerRepository(pool)
		priestRepo := store.NewPriestRepository(pool)
		roundRepo := store.NewRoundRepository(pool)

		logrus.Info("Seeding directory...")
		if err := seed.SeedDirectory(ctx, memberRepo, newcomerRepo, priestRepo); err != nil {
			return fmt.Errorf("failed to seed directory: %w", err)
		}

		logrus.Info("Seeding budget rounds...")
		rounds, err := seed.SeedRounds(ctx, roundRepo, c.Int("year"), c.Int("slot-budget"))
		if err != nil {
			return fmt.Errorf("failed to seed rounds: %w", err)
		}

		pp.Print(rounds)

		logrus.Info("Seed complete")

		return nil
	},
}
