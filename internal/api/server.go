// Package api provides the gRPC server of backtestvault, exposing the run
// catalog, normalized statistics and reconstructed holdings.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"

	"backtestvault/internal/config"
)

// Server hosts the gRPC endpoints.
type Server struct {
	cfg      *config.Config
	grpcAddr string
	gs       *grpc.Server
	log      *slog.Logger
}

// NewServer creates a new Server configured from the given Config with the
// result service registered.
func NewServer(cfg *config.Config, results *ResultService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(log)))
	if results != nil {
		results.RegisterGRPC(gs)
	}
	return &Server{
		cfg:      cfg,
		grpcAddr: cfg.GRPCAddr(),
		gs:       gs,
		log:      log,
	}
}

// ListenAndServe starts the gRPC listener and blocks until the context is
// cancelled or a fatal error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.grpcAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("grpc server listening", "addr", lis.Addr().String())
		errCh <- s.gs.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections and waits for in-flight requests,
// forcing a stop when ctx expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.gs.Stop()
		return ctx.Err()
	}
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("grpc request failed", "method", info.FullMethod, "elapsed", time.Since(start), "error", err)
		} else {
			log.Debug("grpc request", "method", info.FullMethod, "elapsed", time.Since(start))
		}
		return resp, err
	}
}
