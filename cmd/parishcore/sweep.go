package main

import (
	"context"
	"fmt"
	"time"

	"parishcore/internal/db"
	"parishcore/internal/notify"
	"parishcore/internal/sponsorship"
	"parishcore/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var sweepCommand = &cli.Command{
	Name:  "sweep",
	Usage: "Run one reminder sweep cycle and exit",
	Flags: []cli.Flag{
		&cli.TimestampFlag{
			Name:   "as-of",
			Usage:  "Sweep reference time (defaults to now)",
			Layout: "2006-01-02",
		},
	},
	Action: func(c *cli.Context) error {
		logger := logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})

		config, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, config)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		asOf := time.Now()
		if t := c.Timestamp("as-of"); t != nil {
			asOf = *t
		}

		caseRepo := store.NewCaseRepository(pool)
		timelineRepo := store.NewTimelineRepository(pool)
		notifier := notify.NewLogNotifier(logger)

		scheduler := sponsorship.NewScheduler(logger, caseRepo, timelineRepo, notifier, uint64(config.SweepBatchSize))

		sent, err := scheduler.Sweep(ctx, asOf)
		if err != nil {
			return err
		}

		logger.WithField("sent", sent).Info("sweep finished")

		return nil
	},
}
