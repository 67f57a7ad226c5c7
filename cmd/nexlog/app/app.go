// Package app wires nexlog's composition root: the scheduler, its input
// adapters, and its HTTP query/cluster surface, following
// cmd/tempo/app.App's shape -- a root struct holding every component plus a
// services.Manager, with Run() starting everything and blocking until a
// signal or a service failure stops it.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/services"
	"github.com/grafana/dskit/signals"
	"github.com/gorilla/mux"

	"github.com/grafana/nexlog/modules/scheduler"
	"github.com/grafana/nexlog/pkg/api"
	"github.com/grafana/nexlog/pkg/ingest/busconsumer"
	"github.com/grafana/nexlog/pkg/ingest/containerreader"
	utillog "github.com/grafana/nexlog/pkg/util/log"
)

// App is nexlog's root datastructure.
type App struct {
	cfg Config

	Scheduler *scheduler.Scheduler
	handler   *api.Handler
	server    *http.Server

	readers     []*containerreader.Reader
	busConsumer *busconsumer.Consumer

	serviceMap map[string]services.Service
}

// New builds an App from cfg. It does not start anything; call Run for
// that.
func New(cfg Config) (*App, error) {
	a := &App{cfg: cfg}

	a.Scheduler = scheduler.New(cfg.Scheduler)
	a.handler = api.NewHandler(a.Scheduler, cfg.Server)

	for _, ws := range cfg.WatchedSources {
		a.readers = append(a.readers, containerreader.New(cfg.ContainerReader, ws.Path, ws.SourceID, a.Scheduler))
	}

	if cfg.BusConsumerEnabled {
		consumer, err := busconsumer.New(cfg.BusConsumer, a.Scheduler, "kafka")
		if err != nil {
			return nil, fmt.Errorf("failed to build bus consumer: %w", err)
		}
		a.busConsumer = consumer
	}

	router := mux.NewRouter()
	a.handler.RegisterRoutes(router)
	a.server = &http.Server{Addr: cfg.Server.ListenAddress, Handler: router}

	a.serviceMap = map[string]services.Service{
		"scheduler": a.Scheduler,
	}
	for i, r := range a.readers {
		a.serviceMap[fmt.Sprintf("container-reader-%d", i)] = services.NewBasicService(nil, r.Run, nil)
	}
	if a.busConsumer != nil {
		a.serviceMap["bus-consumer"] = services.NewBasicService(nil, a.busConsumer.Run, nil)
	}
	a.serviceMap["http-server"] = services.NewBasicService(nil, a.runHTTPServer, a.stopHTTPServer)

	return a, nil
}

func (a *App) runHTTPServer(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (a *App) stopHTTPServer(_ error) error {
	return a.server.Shutdown(context.Background())
}

// Run starts every service and blocks until a termination signal arrives or
// a service fails, mirroring cmd/tempo/app.App.Run's service-manager
// listener pattern.
func (a *App) Run() error {
	servs := make([]services.Service, 0, len(a.serviceMap))
	for _, s := range a.serviceMap {
		servs = append(servs, s)
	}

	sm, err := services.NewManager(servs...)
	if err != nil {
		return fmt.Errorf("failed to build service manager: %w", err)
	}

	healthy := func() { level.Info(utillog.Logger).Log("msg", "nexlog started") }
	stopped := func() { level.Info(utillog.Logger).Log("msg", "nexlog stopped") }
	serviceFailed := func(service services.Service) {
		sm.StopAsync()
		for name, s := range a.serviceMap {
			if s == service {
				level.Error(utillog.Logger).Log("msg", "module failed", "module", name, "err", service.FailureCase())
				return
			}
		}
	}
	sm.AddListener(services.NewManagerListener(healthy, stopped, serviceFailed))

	handler := signals.NewHandler(utillog.Logger)
	go func() {
		handler.Loop()
		sm.StopAsync()
	}()

	ctx := context.Background()
	if err := sm.StartAsync(ctx); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	if err := sm.AwaitStopped(ctx); err != nil {
		return fmt.Errorf("error waiting for services to stop: %w", err)
	}
	return nil
}
