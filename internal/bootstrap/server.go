package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/surgefare/api"
	"github.com/Domenick1991/surgefare/config"
	bookingsapi "github.com/Domenick1991/surgefare/internal/api/bookings_service_api"
	flightsapi "github.com/Domenick1991/surgefare/internal/api/flights_service_api"
	"github.com/Domenick1991/surgefare/internal/api/grpcstatus"
	"github.com/Domenick1991/surgefare/internal/middleware"
	"github.com/Domenick1991/surgefare/internal/service/booking"
	"github.com/Domenick1991/surgefare/internal/service/flights"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

const (
	shutdownTimeout = 5 * time.Second

	limiterEvictEvery = time.Minute
	limiterIdle       = 10 * time.Minute
)

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	limiter    *middleware.ClientLimiter
}

// Run starts the gRPC and HTTP servers and blocks until ctx is canceled or
// one of them fails. Both are drained before it returns.
func Run(ctx context.Context, cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) error {
	s := newServers(cfg, flightSvc, bookingSvc)

	grpcLis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTP.Address)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen HTTP %s: %w", cfg.HTTP.Address, err)
	}
	return s.serve(ctx, grpcLis, httpLis)
}

func (s *Servers) serve(ctx context.Context, grpcLis, httpLis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	if s.limiter != nil {
		g.Go(func() error {
			s.limiter.RunEviction(gctx, limiterEvictEvery, limiterIdle)
			return nil
		})
	}

	g.Go(func() error {
		logrus.WithField("address", grpcLis.Addr().String()).Info("gRPC server listening")
		if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logrus.WithField("address", httpLis.Addr().String()).Info("HTTP server listening")
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newServers(cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) *Servers {
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcstatus.UnaryLogger()))
	flightsapi.Register(grpcSrv, flightsapi.NewServer(flightSvc, bookingSvc))
	bookingsapi.Register(grpcSrv, bookingsapi.NewServer(bookingSvc))
	reflection.Register(grpcSrv)

	var limiter *middleware.ClientLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = middleware.NewClientLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)
	}
	router := api.NewRouter(api.RouterConfig{
		CORSOrigin:     cfg.HTTP.CORSOrigin,
		BookingLimiter: limiter,
	}, flightSvc, bookingSvc)

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		limiter: limiter,
	}
}
