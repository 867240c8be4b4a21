// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/config"
	"github.com/gurkanbulca/teamboard/internal/database"
	"github.com/gurkanbulca/teamboard/internal/gateway"
	"github.com/gurkanbulca/teamboard/internal/invite"
	"github.com/gurkanbulca/teamboard/internal/middleware"
	"github.com/gurkanbulca/teamboard/internal/repository"
	"github.com/gurkanbulca/teamboard/internal/service"
	"github.com/gurkanbulca/teamboard/pkg/auth"
)

func main() {
	// Load configuration (.env is applied inside config.Load)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Connecting to %s...", cfg.Database.Driver)
	db, err := database.Open(cfg.ToDatabaseConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}()

	if cfg.Server.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			log.Fatalf("Failed to run auto migration: %v", err)
		}
	}

	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.SessionDuration)
	securityLogger := service.NewSecurityLogger(log.Default())
	repo := repository.New(db)

	authService := service.NewAuthService(repo, tokenManager, nil, securityLogger)
	projectService := service.NewProjectService(repo, invite.NewManager(cfg.Invite.Attempts, nil), securityLogger)
	taskService := service.NewTaskService(repo)

	// Initialize middleware
	metadataExtractor := middleware.NewMetadataExtractorInterceptor()
	authInterceptor := middleware.NewAuthInterceptor(tokenManager)
	validationInterceptor := middleware.NewEnhancedValidationInterceptor(middleware.DefaultValidationConfig())

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			metadataExtractor.Unary(),
			validationInterceptor.Unary(),
			authInterceptor.Unary(),
			loggingInterceptor,
		),
		grpc.ChainStreamInterceptor(
			metadataExtractor.Stream(),
			validationInterceptor.Stream(),
			authInterceptor.Stream(),
		),
	)

	taskboardv1.RegisterAuthServiceServer(grpcServer, authService)
	taskboardv1.RegisterProjectServiceServer(grpcServer, projectService)
	taskboardv1.RegisterTaskServiceServer(grpcServer, taskService)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	for _, name := range []string{taskboardv1.AuthServiceName, taskboardv1.ProjectServiceName, taskboardv1.TaskServiceName, ""} {
		healthServer.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	if cfg.Server.EnableReflection {
		reflection.Register(grpcServer)
		log.Println("gRPC reflection enabled (disable in production)")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:           gateway.New(authInterceptor, projectService, taskService).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Teamboard gRPC server listening on port %s", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	go func() {
		log.Printf("🌐 HTTP gateway listening on port %s", cfg.Server.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("📴 Shutting down server...")
	healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP gateway shutdown: %v", err)
	}
	grpcServer.GracefulStop()
	log.Println("✅ Server shutdown complete")
}

// loggingInterceptor logs incoming requests
func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	clientInfo := middleware.GetClientInfoFromContext(ctx)
	resp, err := handler(ctx, req)
	duration := time.Since(start)
	logLevel := "INFO"
	if err != nil {
		logLevel = "ERROR"
	}
	log.Printf("[%s] %s completed in %v (user: %s, ip: %s)",
		logLevel, info.FullMethod, duration, clientInfo.UserHandle, clientInfo.IPAddress)
	if err != nil {
		log.Printf("[ERROR] %s error: %v", info.FullMethod, err)
	}
	return resp, err
}
