package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/matheus3301/floodline/internal/config"
	"github.com/matheus3301/floodline/internal/worker"
	"go.uber.org/zap"
)

// Gateway serves the worker's HTTP face on gateway.listen.
type Gateway struct {
	server   *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewGateway binds the gateway listener.
func NewGateway(cfg *config.Config, l *worker.Lifecycle, logger *zap.Logger) (*Gateway, error) {
	listener, err := net.Listen("tcp", cfg.Gateway.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen gateway: %w", err)
	}
	return &Gateway{
		server: &http.Server{
			Handler:           worker.NewGateway(l, logger.Named("gateway")),
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		logger:   logger,
	}, nil
}

// Addr returns the bound address.
func (g *Gateway) Addr() string {
	return g.listener.Addr().String()
}

// Start serves until Stop is called.
func (g *Gateway) Start() error {
	g.logger.Info("gateway starting", zap.String("addr", g.Addr()))
	if err := g.server.Serve(g.listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the gateway down gracefully.
func (g *Gateway) Stop(ctx context.Context) {
	g.logger.Info("gateway stopping")
	if err := g.server.Shutdown(ctx); err != nil {
		g.logger.Warn("gateway shutdown", zap.Error(err))
	}
}
