// Package health 提供 gRPC 健康检查端点，供外部监控轮询进程是否在工作
package health

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/zoeyai/popupguard/internal/logger"
)

// Service 健康检查使用的服务名，空服务名反映同一状态
const Service = "popupguard.Watcher"

// ErrAlreadyStarted 重复启动
var ErrAlreadyStarted = errors.New("健康检查服务已启动")

// Server 健康检查服务
type Server struct {
	mu     sync.Mutex
	addr   string
	srv    *grpc.Server
	health *grpchealth.Server
	lis    net.Listener
	done   chan struct{}
}

// New 创建服务，初始状态为 NOT_SERVING
func New(addr string) *Server {
	s := &Server{
		addr:   addr,
		health: grpchealth.NewServer(),
	}
	s.SetServing(false)
	return s
}

// Start 监听地址并在后台提供服务
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return ErrAlreadyStarted
	}

	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.addr, err)
	}

	s.srv = grpc.NewServer()
	healthpb.RegisterHealthServer(s.srv, s.health)
	s.lis = lis
	s.done = make(chan struct{})

	go func(srv *grpc.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Warn("健康检查服务异常退出: %v", err)
		}
	}(s.srv, s.done)

	logger.Info("健康检查服务: %s", lis.Addr())
	return nil
}

// Addr 实际监听地址，未启动时返回配置的地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lis != nil {
		return s.lis.Addr().String()
	}
	return s.addr
}

// SetServing 更新服务状态
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(Service, status)
}

// Stop 标记为 NOT_SERVING 并停止服务，可重复调用
func (s *Server) Stop() {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.srv, s.lis = nil, nil
	s.mu.Unlock()

	s.health.Shutdown()
	if srv == nil {
		return
	}
	// Watch 流不会自行结束，不能用 GracefulStop
	srv.Stop()
	<-done
}
