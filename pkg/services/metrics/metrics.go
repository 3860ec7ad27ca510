package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/adenium-io/adenium-go/pkg/config"
	"go.uber.org/zap"
)

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string
}

// NewService configures logger and returns new service instance.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		serviceType: name,
		log:         log.With(zap.String("service", name)),
	}
}

// Start runs http service with the exposed endpoint on the configured port.
func (ms *Service) Start() {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return
	}
	for _, srv := range ms.http {
		ms.log.Info("starting service", zap.String("endpoint", srv.Addr))
		go func(srv *http.Server) {
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to start service", zap.String("endpoint", srv.Addr), zap.Error(err))
			}
		}(srv)
	}
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	if !ms.config.Enabled {
		return
	}
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
	_ = ms.log.Sync()
}
