package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parishcore/internal/db"
	"parishcore/internal/notify"
	"parishcore/internal/server"
	"parishcore/internal/sponsorship"
	"parishcore/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP API and the background reminder sweep",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	caseRepo := store.NewCaseRepository(pool)
	roundRepo := store.NewRoundRepository(pool)
	timelineRepo := store.NewTimelineRepository(pool)
	noteRepo := store.NewNoteRepository(pool)
	memberRepo := store.NewMemberRepository(pool)
	newcomerRepo := store.NewNewcomerRepository(pool)
	priestRepo := store.NewPriestRepository(pool)

	notifier := notify.NewLogNotifier(logger)

	engine := sponsorship.NewEngine(logger, caseRepo, roundRepo, timelineRepo, noteRepo, memberRepo, newcomerRepo)
	scheduler := sponsorship.NewScheduler(logger, caseRepo, timelineRepo, notifier, uint64(config.SweepBatchSize))
	metrics := sponsorship.NewAggregator(caseRepo, roundRepo)

	srv := server.New(config, logger, engine, scheduler, metrics, priestRepo)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("port", config.ServerPort).Info("starting http server")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		interval := time.Duration(config.SweepIntervalSec) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.WithField("interval", interval.String()).Info("reminder sweep started")

		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				if _, err := scheduler.Sweep(gCtx, time.Now()); err != nil {
					logger.WithError(err).Error("reminder sweep failed")
				}
			}
		}
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Stop(shutdownCtx)
	})

	return g.Wait()
}
