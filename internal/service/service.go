// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package service implements the watch service that periodically refreshes the viewing
// conditions of the configured cities and prints them as waybar compatible JSON.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"

	"github.com/wneessen/aurora-radar/internal/cities"
	"github.com/wneessen/aurora-radar/internal/conditions"
	"github.com/wneessen/aurora-radar/internal/config"
	"github.com/wneessen/aurora-radar/internal/logger"
	"github.com/wneessen/aurora-radar/internal/presenter"
)

const refreshJobName = "conditions_refresh_job"

type Service struct {
	config     *config.Config
	logger     *logger.Logger
	conditions *conditions.Service
	presenter  *presenter.Presenter
	scheduler  gocron.Scheduler
	cities     []cities.City
	closer     io.Closer
	signals    signalSource

	outputLock sync.Mutex
	output     io.Writer
}

// Option configures a Service.
type Option func(*Service)

// WithOutput sets the writer the JSON output is written to. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Service) {
		s.output = w
	}
}

// WithConditions replaces the conditions.Service that is otherwise built from the config.
func WithConditions(cond *conditions.Service) Option {
	return func(s *Service) {
		s.conditions = cond
	}
}

func New(conf *config.Config, log *logger.Logger, loc *spreak.Localizer, opts ...Option) (*Service, error) {
	if conf == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	watched := make([]cities.City, 0, len(conf.Watch.Cities))
	for _, slug := range conf.Watch.Cities {
		city, err := cities.BySlug(slug)
		if err != nil {
			return nil, fmt.Errorf("failed to look up watch city %q: %w", slug, err)
		}
		watched = append(watched, city)
	}
	if len(watched) == 0 {
		return nil, errors.New("no cities to watch")
	}

	pres, err := presenter.New(conf, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	service := &Service{
		config:    conf,
		logger:    log,
		presenter: pres,
		scheduler: scheduler,
		cities:    watched,
		closer:    nopCloser{},
		signals:   stdLibSignalSource{},
		output:    os.Stdout,
	}
	for _, opt := range opts {
		opt(service)
	}

	if service.conditions == nil {
		cond, closer, err := NewConditions(conf, log)
		if err != nil {
			return nil, err
		}
		service.conditions = cond
		service.closer = closer
	}

	return service, nil
}

// Run refreshes the conditions immediately and then in the configured interval until ctx is
// cancelled. A SIGUSR1 triggers an additional refresh.
func (s *Service) Run(ctx context.Context) error {
	if err := s.createScheduledJob(ctx, s.config.Watch.Interval, s.refresh, refreshJobName); err != nil {
		return err
	}
	s.scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	s.signals.Notify(sigChan, syscall.SIGUSR1)
	go s.HandleRefreshSignal(ctx, sigChan)

	<-ctx.Done()
	s.signals.Stop(sigChan)

	err := s.scheduler.Shutdown()
	if closeErr := s.closer.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close cache backend: %w", closeErr))
	}
	return err
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// refresh fetches the conditions of all watched cities and prints the rendered output.
func (s *Service) refresh(ctx context.Context) {
	contexts := make([]presenter.TemplateContext, 0, len(s.cities))
	for _, city := range s.cities {
		snapshot, err := s.conditions.GetConditions(ctx, city.Coordinate.Lat, city.Coordinate.Lon)
		if err != nil {
			s.logger.Error("failed to get conditions", slog.String("city", city.Slug), logger.Err(err))
			continue
		}
		s.logger.Debug("conditions refreshed", slog.String("city", city.Slug),
			slog.Int("score", snapshot.Score), slog.String("badge", snapshot.Badge.String()))
		contexts = append(contexts, s.presenter.BuildContext(city, snapshot))
	}
	if len(contexts) == 0 {
		return
	}

	output, err := s.presenter.Render(contexts...)
	if err != nil {
		s.logger.Error("failed to render conditions", logger.Err(err))
		return
	}

	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	if err = json.NewEncoder(s.output).Encode(output); err != nil {
		s.logger.Error("failed to encode conditions output", logger.Err(err))
	}
}
