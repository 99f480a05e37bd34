package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	authpb "messaging-service/pb/auth"
	userpb "messaging-service/pb/user"

	"messaging-service/internal/config"
	"messaging-service/internal/conversations"
	"messaging-service/internal/db"
	grpcclient "messaging-service/internal/grpc"
	"messaging-service/internal/handlers"
	"messaging-service/internal/keys"
	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
	"messaging-service/internal/presence"
	"messaging-service/internal/rabbitmq"
	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/ws"
)

const serviceName = "messaging-service"

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint, serviceName, cfg.Server.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	database, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	authConn, err := grpc.Dial(cfg.GRPC.AuthAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		log.Fatalf("failed to connect to auth grpc: %v", err)
	}
	defer authConn.Close()

	userConn, err := grpc.Dial(cfg.GRPC.UserAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		log.Fatalf("failed to connect to user grpc: %v", err)
	}
	defer userConn.Close()

	authClient := grpcclient.NewAuthClient(authpb.NewAuthServiceClient(authConn))
	userClient := grpcclient.NewUserClient(userpb.NewUserInternalClient(userConn))

	var redisClient *redis.Client
	if cfg.Redis.Presence == "redis" || cfg.Redis.Broker == "redis" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var registry presence.Registry
	if cfg.Redis.Presence == "redis" {
		registry = presence.NewRedisRegistry(redisClient, 2*cfg.Realtime.PongWait)
	} else {
		registry = presence.NewMemoryRegistry()
	}

	hub := ws.NewHub()
	var broker ws.Broker = hub
	if cfg.Redis.Broker == "redis" {
		redisBroker := ws.NewRedisBroker(hub, redisClient)
		go redisBroker.Run(ctx)
		broker = redisBroker
	}

	keyRepo := repositories.NewKeyRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	keyService := keys.NewService(keyRepo, cfg.Keys.MasterSecret)
	aggregator := conversations.NewAggregator(messageRepo, userClient, registry)
	gateway := ws.NewGateway(hub, broker, registry, messageRepo, userClient, authClient, cfg.Realtime)

	if cfg.AMQP.URL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Printf("websocket event publisher disabled: %v", err)
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode: %s", rabbitmq.Mode(auditPublisher))
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, cfg.Telemetry.AuditRouting, serviceName, cfg.Server.Environment)

	keyHandler := handlers.NewKeyHandler(keyService)
	messageHandler := handlers.NewMessageHandler(messageRepo, userClient, keyService, gateway)
	conversationHandler := handlers.NewConversationHandler(aggregator, messageRepo)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authClient)

	router.POST("/keys", authMiddleware, keyHandler.GenerateKeys)
	router.GET("/keys/:user_id", authMiddleware, keyHandler.GetPublicKey)

	router.POST("/sessions/start", authMiddleware, messageHandler.StartSession)
	router.GET("/sessions/:session_id/messages", authMiddleware, messageHandler.ListSessionMessages)
	router.POST("/sessions/:session_id/read", authMiddleware, messageHandler.MarkSessionRead)

	router.POST("/messages", authMiddleware, messageHandler.PostMessage)
	router.GET("/messages/:message_id/material", authMiddleware, messageHandler.GetMaterial)
	router.DELETE("/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)

	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.GET("/conversations/unread-count", authMiddleware, conversationHandler.UnreadCount)

	router.GET("/ws", gateway.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.Server.Debug)

	log.Printf("listening on :%s (env=%s, presence=%s, broker=%s)",
		cfg.Server.Port, cfg.Server.Environment, cfg.Redis.Presence, cfg.Redis.Broker)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
