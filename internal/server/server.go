package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"parishcore/internal/sponsorship"
	"parishcore/internal/store"
	"parishcore/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/sirupsen/logrus"
)

var decoder = newDecoder()

func newDecoder() *form.Decoder {
	d := form.NewDecoder()

	// Accept both date-only and RFC3339 timestamps on form/query fields.
	d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
		if t, err := time.Parse("2006-01-02", vals[0]); err == nil {
			return t, nil
		}
		return time.Parse(time.RFC3339, vals[0])
	}, time.Time{})

	return d
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	engine    *sponsorship.Engine
	scheduler *sponsorship.Scheduler
	metrics   *sponsorship.Aggregator
	priests   *store.PriestRepository

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	engine *sponsorship.Engine,
	scheduler *sponsorship.Scheduler,
	metrics *sponsorship.Aggregator,
	priests *store.PriestRepository,
) *Service {
	mux := flow.New()

	s := &Service{
		logger:    logger,
		config:    config,
		engine:    engine,
		scheduler: scheduler,
		metrics:   metrics,
		priests:   priests,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
