/**
 * @description
 * This is the main entry point for the settlement engine. It is responsible
 * for initializing all components of the service: configuration, the
 * PostgreSQL connection pool, the oracle gateway client, the RabbitMQ
 * producer and consumer, the optional Redis rate limiter, the repository, the
 * core application service, the upkeep scheduler, and the HTTP server. It
 * wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/oracleclient, pkg/rabbitmq: Oracle gateway and message broker clients.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Abbas-Dev-786/securitifi/internal/api"
	"github.com/Abbas-Dev-786/securitifi/internal/app"
	"github.com/Abbas-Dev-786/securitifi/internal/config"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/Abbas-Dev-786/securitifi/pkg/oracleclient"
	"github.com/Abbas-Dev-786/securitifi/pkg/rabbitmq"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	custodyID, err := uuid.Parse(strings.TrimSpace(cfg.CustodyAccountID))
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"custody account id must be a UUID\" env=CUSTODY_ACCOUNT_ID err=%v", err)
	}
	if cfg.ChainSelector == 0 {
		log.Fatalf("level=fatal component=bootstrap msg=\"chain selector must be configured\" env=CHAIN_SELECTOR")
	}

	log.Printf("level=info component=bootstrap msg=\"starting settlement engine\" chain=%s selector=%d port=%s",
		cfg.ChainName, cfg.ChainSelector, cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Pool sizing tuned for the row-lock heavy settlement workload.
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer for events and bridge transport.
	var producer rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the oracle gateway client.
	oracleClient := oracleclient.NewClient(cfg.OracleAPIBaseURL, cfg.OracleAPIKey)

	// Optional Redis-backed rate limiting for ledger and bridge writes.
	var redisClient *redis.Client
	if cfg.TransferRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; transfer rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; transfer rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; transfer rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	roles := app.NewRoles(
		config.SplitAccountIDs(cfg.VerifierAccountIDs),
		config.SplitAccountIDs(cfg.ConfiguratorAccountIDs),
	)
	settlementService := app.NewService(
		repository,
		oracleClient,
		producer,
		roles,
		custodyID,
		cfg.ChainName,
		cfg.ChainSelector,
		cfg.LTVCeilingBps,
		time.Duration(cfg.PriceStalenessSeconds)*time.Second,
		time.Duration(cfg.ReserveStalenessSeconds)*time.Second,
		cfg.MinReserveConfidence,
		time.Duration(cfg.DistributionPeriodDays)*24*time.Hour,
	)
	if redisClient != nil {
		settlementService.SetRateLimiter(
			app.NewRedisTransferRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
			cfg.TransferRateLimitPerMinute,
		)
	}

	// Wire up the bridge transport consumer: delivery callbacks for our
	// outbound transfers, and inbound transfers addressed to this chain.
	bridgeConsumer := settlementService.BridgeConsumer()

	rabbitConsumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq consumer init failed\" err=%v", err)
	}
	defer rabbitConsumer.Close()

	deliveryBindings := map[string]func([]byte) bool{
		fmt.Sprintf("bridge.delivery.%d", cfg.ChainSelector): bridgeConsumer.HandleDeliveryCallback,
	}
	if err := rabbitConsumer.ConsumeWithBindings(app.BridgeExchange, cfg.BridgeDeliveryQueue, deliveryBindings); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"delivery consumer start failed\" err=%v", err)
	}

	inboundBindings := map[string]func([]byte) bool{
		fmt.Sprintf("bridge.outbound.%d", cfg.ChainSelector): bridgeConsumer.HandleInboundTransfer,
	}
	if err := rabbitConsumer.ConsumeWithBindings(app.BridgeExchange, cfg.BridgeInboundQueue, inboundBindings); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"inbound consumer start failed\" err=%v", err)
	}

	// Start the upkeep scheduler for reserve rechecks and rent distribution.
	upkeep := app.NewUpkeep(settlementService, cfg.UpkeepSchedule)
	upkeep.Start()
	defer func() {
		<-upkeep.Stop().Done()
	}()

	// Initialize the API handlers and router.
	settlementHandlers := api.NewSettlementHandlers(settlementService)
	router := chi.NewRouter()
	router.Mount("/", api.SettlementRoutes(settlementHandlers, cfg.InternalAPIKey))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
