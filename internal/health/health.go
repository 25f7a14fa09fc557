// Package health serves the standard gRPC health protocol, driven by periodic
// probes of the service's backing stores.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/cory-johannsen/fitquest/internal/config"
)

// Probe reports whether one dependency is healthy.
type Probe func(ctx context.Context) error

// Server is a gRPC server exposing grpc.health.v1.Health. Each probe is
// published under its own service name; the empty name is SERVING only
// while every probe passes.
type Server struct {
	cfg      config.HealthConfig
	logger   *zap.Logger
	grpc     *grpc.Server
	health   *grpchealth.Server
	probes   map[string]Probe
	names    []string
	listener net.Listener

	mu   sync.Mutex
	stop context.CancelFunc
	done chan struct{}
}

// NewServer creates a health Server. Probes are not run until Start.
//
// Precondition: cfg.ProbeInterval and cfg.ProbeTimeout must be positive.
func NewServer(cfg config.HealthConfig, logger *zap.Logger, probes map[string]Probe) *Server {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)

	srv := grpc.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, name := range names {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		grpc:   srv,
		health: hs,
		probes: probes,
		names:  names,
	}
}

// WithListener serves on l instead of listening on the configured address.
func (s *Server) WithListener(l net.Listener) *Server {
	s.listener = l
	return s
}

// ProbeOnce runs every probe and publishes the results.
//
// Postcondition: Returns the names of failing probes, sorted.
func (s *Server) ProbeOnce(ctx context.Context) []string {
	var failing []string
	for _, name := range s.names {
		pctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
		err := s.probes[name](pctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			failing = append(failing, name)
			s.logger.Warn("health probe failed", zap.String("probe", name), zap.Error(err))
		}
		s.health.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if len(failing) > 0 {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)
	return failing
}

func (s *Server) probeLoop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.ProbeInterval)
	defer ticker.Stop()
	for {
		s.ProbeOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Start probes on an interval and serves gRPC until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	lis := s.listener
	if lis == nil {
		var err error
		lis, err = net.Listen("tcp", s.cfg.Addr())
		if err != nil {
			return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
		}
	}

	probeCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.stop = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()
	go s.probeLoop(probeCtx)

	s.logger.Info("grpc health server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		cancel()
		return err
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains the gRPC server, forcing
// it closed if ctx expires first.
func (s *Server) Stop(ctx context.Context) error {
	s.health.Shutdown()

	s.mu.Lock()
	cancel, done := s.stop, s.done
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.grpc.Stop()
		return ctx.Err()
	}
}
