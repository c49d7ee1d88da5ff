// Package server поднимает gRPC сервер со стандартным протоколом проверки
// здоровья. Статус отражает доступность сервиса с моделью.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"helmet-detector-go/pkg/models"
)

// ServiceName имя сервиса в протоколе grpc.health.v1
const ServiceName = "helmet.detector.v1.Detector"

// ModelHealthChecker проверяет доступность сервиса с моделью
type ModelHealthChecker interface {
	CheckHealth(ctx context.Context) (*models.HealthResponse, error)
}

// HealthServer gRPC сервер здоровья
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	checker    ModelHealthChecker
	interval   time.Duration
	logger     *logrus.Logger
}

// NewHealthServer создает сервер; статус обновляется каждые interval
func NewHealthServer(checker ModelHealthChecker, interval time.Duration, logger *logrus.Logger) *HealthServer {
	s := &HealthServer{
		health:   health.NewServer(),
		checker:  checker,
		interval: interval,
		logger:   logger,
	}

	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logUnary))
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)

	// До первой проверки сервис считается недоступным
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve обслуживает listener до отмены ctx
func (s *HealthServer) Serve(ctx context.Context, listener net.Listener) error {
	go s.watch(ctx)
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	}()

	s.logger.Infof("gRPC health сервер запущен на %s", listener.Addr())
	if err := s.grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("grpc server failed: %w", err)
	}
	return nil
}

// Refresh проверяет сервис модели и обновляет статус
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	resp, err := s.checker.CheckHealth(checkCtx)
	switch {
	case err != nil:
		s.logger.Debugf("Сервис модели недоступен: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	case !resp.ModelLoaded:
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status
}

func (s *HealthServer) watch(ctx context.Context) {
	s.Refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func (s *HealthServer) logUnary(ctx context.Context, req interface{},
	info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	entry := s.logger.WithFields(logrus.Fields{
		"method":   info.FullMethod,
		"duration": time.Since(start),
	})
	if err != nil {
		entry.Warnf("gRPC вызов завершился с ошибкой: %v", err)
	} else {
		entry.Debug("gRPC вызов")
	}
	return resp, err
}
