/*
 * Copyright 2026 PulseWatch Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package lifecycle runs a service to completion: it starts the service and
// an optional gRPC health endpoint, waits for a shutdown signal or a fatal
// error, and stops everything within a bounded grace period.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

const (
	// ShutdownTimeout bounds how long Stop may take before the process exits
	// anyway.
	ShutdownTimeout = 10 * time.Second
)

// Service defines the interface that all services must implement.
type Service interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// ServerOptions holds configuration for running a service.
type ServerOptions struct {
	ServiceName string
	Service     Service

	// GrpcAddr, when set, exposes a gRPC health endpoint for external
	// liveness probes.
	GrpcAddr string
}

// RunServer starts a service with the provided options and handles lifecycle.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Printf("*** Starting service %s", opts.ServiceName)

	errChan := make(chan error, 1)

	var hs *healthServer

	if opts.GrpcAddr != "" {
		hs = newHealthServer(opts.GrpcAddr, opts.ServiceName)

		go func() {
			if err := hs.start(); err != nil {
				select {
				case errChan <- err:
				default:
					log.Printf("Health server error: %v", err)
				}
			}
		}()
	}

	go func() {
		if err := opts.Service.Start(ctx); err != nil {
			select {
			case errChan <- err:
			default:
				log.Printf("Service error: %v", err)
			}
		}
	}()

	return handleShutdown(ctx, cancel, hs, opts.Service, errChan)
}

func handleShutdown(
	ctx context.Context, cancel context.CancelFunc, hs *healthServer, svc Service, errChan chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating shutdown", sig)
	case err := <-errChan:
		log.Printf("Received error: %v, initiating shutdown", err)
		runErr = fmt.Errorf("service error: %w", err)
	case <-ctx.Done():
		log.Printf("Context canceled, initiating shutdown")
		runErr = ctx.Err()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if hs != nil {
		hs.stop()
	}

	if err := svc.Stop(shutdownCtx); err != nil {
		log.Printf("Error during service shutdown: %v", err)

		if runErr == nil {
			runErr = fmt.Errorf("shutdown error: %w", err)
		}
	}

	return runErr
}

// healthServer is a minimal gRPC server exposing only the standard health
// service.
type healthServer struct {
	addr        string
	serviceName string
	srv         *grpc.Server
	check       *health.Server
}

func newHealthServer(addr, serviceName string) *healthServer {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 10 * time.Minute,
			Time:              120 * time.Second,
			Timeout:           20 * time.Second,
		}),
	)

	check := health.NewServer()
	check.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, check)

	return &healthServer{
		addr:        addr,
		serviceName: serviceName,
		srv:         srv,
		check:       check,
	}
}

func (h *healthServer) start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}

	log.Printf("gRPC health server listening on %s", h.addr)

	if err := h.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("health server failed: %w", err)
	}

	return nil
}

func (h *healthServer) stop() {
	h.check.SetServingStatus(h.serviceName, healthpb.HealthCheckResponse_NOT_SERVING)

	stopped := make(chan struct{})
	go func() {
		h.srv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		log.Printf("gRPC health server stopped gracefully")
	case <-time.After(5 * time.Second):
		log.Printf("gRPC health server shutdown timed out, forcing stop")
		h.srv.Stop()
	}
}

// recoveryInterceptor handles panics in RPC handlers.
func recoveryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in %s: %v", info.FullMethod, r)

			err = errInternal
		}
	}()

	return handler(ctx, req)
}

var errInternal = errors.New("internal error")
