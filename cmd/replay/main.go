// Command replay applies subscribe and unsubscribe requests recorded in the
// Redis fallback journal to the directory store once it is reachable again.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/subscription-intake/internal/config"
	"github.com/ignite/subscription-intake/internal/journal"
	"github.com/ignite/subscription-intake/internal/repository/dynamo"
	"github.com/ignite/subscription-intake/internal/repository/postgres"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	limit := flag.Int("limit", 0, "maximum entries to replay (0 = all)")
	list := flag.Bool("list", false, "print pending entries without replaying")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Journal.RedisURL == "" {
		log.Fatal("journal.redis_url (or REDIS_URL) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	client, err := journal.Connect(ctx, cfg.Journal.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer client.Close()
	j := journal.NewRedisJournal(client, cfg.Journal.Key, cfg.Journal.MaxLen)

	if *list {
		if err := printPending(ctx, j, *limit); err != nil {
			log.Fatal(err)
		}
		return
	}

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	stats, err := j.Replay(ctx, store, *limit)
	fmt.Printf("subscribed=%d unsubscribed=%d skipped=%d\n", stats.Subscribed, stats.Unsubscribed, stats.Skipped)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay stopped: %v\n", err)
		os.Exit(1)
	}
}

func printPending(ctx context.Context, j *journal.RedisJournal, limit int) error {
	n, err := j.Len(ctx)
	if err != nil {
		return err
	}
	entries, err := j.Entries(ctx, int64(limit))
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %-11s  %s  %s\n", e.OccurredAt.Format(time.RFC3339), e.Action, e.Email, e.ID)
	}
	fmt.Printf("Pending: %d\n", n)
	return nil
}

// openStore opens a persistent directory store. Replaying into the memory
// store would be pointless, so it is rejected.
func openStore(ctx context.Context, cfg config.StorageConfig) (subscription.DirectoryStore, func(), error) {
	switch cfg.Type {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(2)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		return postgres.NewSubscriptionRepo(db, cfg.Table), func() { db.Close() }, nil
	case "dynamodb":
		table := cfg.DynamoDBTable
		if table == "" {
			table = cfg.Table
		}
		repo, err := dynamo.NewFromConfig(ctx, table, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}
	return nil, nil, fmt.Errorf("storage type %q cannot be replayed into", cfg.Type)
}
