package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobboard-chat/internal/auth"
	"jobboard-chat/internal/chat"
	"jobboard-chat/internal/config"
	"jobboard-chat/internal/database"
	"jobboard-chat/internal/job"
	"jobboard-chat/internal/message"
	"jobboard-chat/internal/room"
	"jobboard-chat/internal/user"
	ws "jobboard-chat/internal/websocket"
)

func main() {
	cfg := config.LoadConfig()

	log.Println("🚀 Starting job-board chat server...")

	mongodb, err := database.NewMongoDB(&database.MongoConfig{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnectTimeout: 10 * time.Second,
		PingTimeout:    5 * time.Second,
		MaxPoolSize:    100,
		MinPoolSize:    5,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongodb.Close()

	if err := mongodb.CreateIndexes(); err != nil {
		log.Fatalf("❌ Failed to create indexes: %v", err)
	}

	userRepo := user.NewMongoRepository(mongodb)
	jobRepo := job.NewMongoRepository(mongodb)
	roomRepo := room.NewMongoRepository(mongodb)
	messageRepo := message.NewMongoRepository(mongodb)

	roomService := room.NewService(roomRepo, jobRepo, userRepo, messageRepo)
	messageService := message.NewService(messageRepo, roomRepo, userRepo, cfg.HistoryDefaultLimit, cfg.HistoryMaxLimit)

	verifier := auth.NewTokenVerifier(cfg.JWTSecret)
	registry := ws.NewRegistry(cfg.MaxConnections)

	monitor := ws.NewMonitor(registry, cfg.HeartbeatInterval)
	monitor.Start()
	defer monitor.Stop()

	wsHandler := chat.NewHandler(registry, roomService, messageService, verifier, cfg)
	restHandler := chat.NewRESTHandler(roomService, messageService, userRepo, verifier, wsHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/chat", wsHandler.HandleWebSocket)
	restHandler.Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := mongodb.HealthCheck(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      status,
			"connections": registry.Count(),
		})
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	go func() {
		log.Printf("✅ Chat server listening on %s", cfg.Addr)
		log.Printf("🔗 Websocket endpoint: ws://localhost%s/ws/chat", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down chat server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Server shutdown error: %v", err)
	}

	for _, conn := range registry.Snapshot() {
		conn.Close()
	}

	log.Println("✅ Chat server stopped")
}
