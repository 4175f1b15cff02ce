// Command sentinela is the composition root: it wires configuration,
// logging, telemetry, the agent registry/pool, the orchestrator and
// executor, the priority queue/worker pool/scheduler, the transparency
// boundary, the Postgres store, the alert service, the event bus, and
// the operational gRPC surface into one running process.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"

	"github.com/sentinela-labs/sentinela/agent"
	"github.com/sentinela-labs/sentinela/alert"
	"github.com/sentinela-labs/sentinela/config"
	"github.com/sentinela-labs/sentinela/eventbus"
	"github.com/sentinela-labs/sentinela/executor"
	"github.com/sentinela-labs/sentinela/internal/migrations"
	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/monitor"
	"github.com/sentinela-labs/sentinela/orchestrator"
	"github.com/sentinela-labs/sentinela/queue"
	"github.com/sentinela-labs/sentinela/rpcapi"
	"github.com/sentinela-labs/sentinela/specialists"
	"github.com/sentinela-labs/sentinela/store"
	"github.com/sentinela-labs/sentinela/telemetry"
	"github.com/sentinela-labs/sentinela/transparency"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logFormat := logging.FormatJSON
	if cfg.Logging.Format == "text" {
		logFormat = logging.FormatText
	}
	logger := logging.NewProductionLogger(logFormat, logging.Level(cfg.Logging.Level))

	var tel telemetry.Telemetry = telemetry.NoOpTelemetry{}
	var promRegistry *telemetry.PrometheusRegistry
	if cfg.Telemetry.Enabled {
		promRegistry = telemetry.NewPrometheusRegistry()
		telemetry.Init(promRegistry)
		logging.SetMetricsRegistry(promRegistry)
		tel = telemetry.NewOtelTelemetry(cfg.Telemetry.ServiceName, promRegistry)

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promRegistry.Handler())
			addr := fmt.Sprintf(":%d", cfg.Telemetry.PrometheusPort)
			logger.Info("metrics server starting", map[string]interface{}{"addr": addr})
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrations.Apply(cfg.Postgres.DSN); err != nil {
		logger.Error("running database migrations", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	pgPool, err := store.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.ConnMaxLifetime)
	if err != nil {
		logger.Error("connecting to postgres", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer pgPool.Close()

	bus, err := eventbus.Connect(os.Getenv("SENTINELA_NATS_URL"), logger)
	if err != nil {
		logger.Error("connecting to event bus", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer bus.Close()

	anomalyStore := store.NewPostgresStore(pgPool, logger, bus)

	alertService := alert.New(cfg.Alert.WebhookURLs, cfg.Alert.AlertEmails, cfg.Alert.EmailEnabled, anomalyStore, nil, logger)
	if _, err := bus.SubscribeAnomalyPersisted("sentinela-alert-fanout", alertService.DispatchOnPersisted); err != nil {
		logger.Error("subscribing alert fanout to anomaly-persisted events", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	registry := agent.NewRegistry(logger)
	pool := agent.NewPool(cfg.Executor.EnablePooling)
	specialists.RegisterAll(registry, pool)
	if err := registry.InitializeAll(ctx); err != nil {
		logger.Error("initializing agents", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer registry.ShutdownAll(context.Background())

	exec := executor.New(registry, pool, cfg.Executor.MaxConcurrent, time.Duration(cfg.Executor.DefaultTimeoutSeconds)*time.Second, logger, tel)

	planner, err := orchestrator.NewPlanner(nil)
	if err != nil {
		logger.Error("building planner", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	orch := orchestrator.New(registry, planner, exec, logger, tel, 5*time.Minute)

	redisClient := redis.NewClient(mustParseRedisURL(cfg.Redis.URL, logger))
	durableStore := queue.NewRedisStore(redisClient)
	taskQueue := queue.New(durableStore, time.Duration(cfg.Queue.ResultRetentionSeconds)*time.Second, logger)
	if err := taskQueue.Recover(ctx); err != nil {
		logger.Warn("recovering queue from durable store", map[string]interface{}{"error": err.Error()})
	}

	transparencyClient := transparency.NewClient(os.Getenv("SENTINELA_TRANSPARENCY_API_KEY"), cfg.RateLimit.TransparencyRequestsPerMinute, transparency.WithLogger(logger))
	dispensaSource := transparency.NewDispensaSource(os.Getenv("SENTINELA_TRANSPARENCY_BASE_URL"), os.Getenv("SENTINELA_TRANSPARENCY_API_KEY"))

	monitorCfg := monitor.Config{
		ValueThreshold:        cfg.Monitor.ValueThreshold,
		DailyContractLimit:    cfg.Monitor.DailyContractLimit,
		PriorityOrganizations: cfg.Monitor.PriorityOrganizations,
		SystemUserID:          cfg.Monitor.SystemUserID,
		InvestigationSleep:    500 * time.Millisecond,
		BatchSleep:            time.Second,
	}
	autoMonitor := monitor.New(monitorCfg, transparencyClient, registry, anomalyStore, "anomaly_detector", logger, tel)

	registerQueueHandlers(taskQueue, autoMonitor, registry, dispensaSource, cfg)

	workerPool := queue.NewPool(taskQueue, cfg.Queue.MaxWorkers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	var etcdClient *clientv3.Client
	if endpoints := os.Getenv("SENTINELA_ETCD_ENDPOINTS"); endpoints != "" {
		etcdClient, err = clientv3.New(clientv3.Config{Endpoints: []string{endpoints}, DialTimeout: 5 * time.Second})
		if err != nil {
			logger.Warn("connecting to etcd, scheduler will run unelected", map[string]interface{}{"error": err.Error()})
			etcdClient = nil
		}
	}

	scheduler := queue.NewScheduler(taskQueue, queue.DefaultJobs(), etcdClient, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	rpcServer := rpcapi.NewServer(orch, autoMonitor, taskQueue, scheduler, logger)
	grpcServer := grpc.NewServer()
	rpcServer.Register(grpcServer)

	grpcPort := os.Getenv("SENTINELA_GRPC_PORT")
	if grpcPort == "" {
		grpcPort = "9443"
	}
	listener, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		logger.Error("binding gRPC listener", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	go func() {
		logger.Info("operational surface starting", map[string]interface{}{"port": grpcPort})
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("gRPC server stopped", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining", nil)
	grpcServer.GracefulStop()
}

// registerQueueHandlers binds the seeded schedule's task types to the
// operations they actually invoke.
func registerQueueHandlers(q *queue.Queue, mon *monitor.Monitor, registry *agent.Registry, dispensa *transparency.DispensaSource, cfg *config.Config) {
	q.RegisterHandler("queue.clear_completed", func(ctx context.Context, payload, metadata map[string]interface{}) (interface{}, error) {
		q.ClearCompleted()
		return map[string]interface{}{"cleared": true}, nil
	})

	q.RegisterHandler("system.health_ping", func(ctx context.Context, payload, metadata map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"healthy": true}, nil
	})

	q.RegisterHandler("monitor.scan_new_contracts", func(ctx context.Context, payload, metadata map[string]interface{}) (interface{}, error) {
		summary, err := mon.MonitorNewContracts(ctx, cfg.Monitor.LookbackHoursDefault, nil)
		if err != nil {
			return nil, err
		}
		return summary, nil
	})

	q.RegisterHandler("monitor.scan_priority_organizations", func(ctx context.Context, payload, metadata map[string]interface{}) (interface{}, error) {
		summary, err := mon.MonitorNewContracts(ctx, cfg.Monitor.LookbackHoursDefault, cfg.Monitor.PriorityOrganizations)
		if err != nil {
			return nil, err
		}
		return summary, nil
	})

	q.RegisterHandler("monitor.historical_reanalysis", func(ctx context.Context, payload, metadata map[string]interface{}) (interface{}, error) {
		summary, err := mon.ReanalyzeHistoricalContracts(ctx, cfg.Monitor.MonthsBackDefault, cfg.Monitor.BatchSize)
		if err != nil {
			return nil, err
		}
		return summary, nil
	})

	q.RegisterHandler("monitor.health_probe", func(ctx context.Context, payload, metadata map[string]interface{}) (interface{}, error) {
		_, err := registry.Lookup("anomaly_detector")
		return map[string]interface{}{"healthy": err == nil}, nil
	})

	q.RegisterHandler("monitor.external_source_scan", func(ctx context.Context, payload, metadata map[string]interface{}) (interface{}, error) {
		records, err := dispensa.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"records_fetched": len(records)}, nil
	})

	q.RegisterHandler("monitor.external_source_health_probe", func(ctx context.Context, payload, metadata map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"healthy": dispensa.Health(ctx)}, nil
	})
}

func mustParseRedisURL(rawURL string, logger logging.Logger) *redis.Options {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		logger.Error("parsing redis URL, falling back to localhost default", map[string]interface{}{"error": err.Error()})
		opts = &redis.Options{Addr: "localhost:6379"}
	}
	return opts
}
