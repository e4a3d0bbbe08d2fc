package main

import (
	"fmt"
	"os"

	"sales-service/config"
	"sales-service/internal/broker"
	"sales-service/internal/redisclient"
	"sales-service/internal/service"
	"sales-service/internal/store"
	"sales-service/internal/util"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ordersctl",
	Short: "Operator tool for the sales order store",
	Long: `ordersctl loads order line items into the sales store and lists them,
using the same validation and upsert rules as the HTTP service.

Connection settings come from the environment (or .env), exactly as for
the server: DATABASE_URL, REDIS_ADDR, KAFKA_BROKERS.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openOrderService wires the store plus the optional cache and events so
// CLI writes invalidate cached rows and emit change events like the server.
func openOrderService() (*service.OrderService, func(), error) {
	cfg := config.Load()
	if err := util.InitLogger(cfg.Server.Env); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Database.Backend == "memory" {
		return nil, nil, fmt.Errorf("STORE_BACKEND=memory is not persistent; point DATABASE_URL at Postgres")
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closers := []func() error{db.Close}

	var cache service.OrderCache
	if cfg.Redis.Addr != "" {
		rc, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		cache = rc
		closers = append(closers, rc.Close)
	}

	var events service.OrderEventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		events = broker.NewEventPublisher(producer)
		closers = append(closers, producer.Close)
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		util.SyncLogger()
	}
	return service.NewOrderService(db, cache, events), cleanup, nil
}
