package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/aurora-is-near/aurora-go/pkg/config"
	"go.uber.org/zap"
)

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string

	wg sync.WaitGroup
	// addrs are the actual listening addresses.
	addrs []string
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
// Listening errors are returned, the service is stopped in this case.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	for _, srv := range ms.http {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			ms.ShutDown()
			return err
		}
		ms.addrs = append(ms.addrs, ln.Addr().String())
		ms.log.Info("service is running", zap.String("endpoint", ln.Addr().String()))
		ms.wg.Add(1)
		go func(srv *http.Server) {
			defer ms.wg.Done()
			err := srv.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to start service", zap.String("endpoint", ln.Addr().String()), zap.Error(err))
			}
		}(srv)
	}
	return nil
}

// Addresses returns the addresses the service listens on.
func (ms *Service) Addresses() []string {
	return ms.addrs
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
	ms.wg.Wait()
}
