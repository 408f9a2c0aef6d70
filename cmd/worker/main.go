package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campusattend/internal/attendance"
	"campusattend/internal/config"
	"campusattend/internal/notify"
	"campusattend/internal/queue"
	"campusattend/internal/store"
	"campusattend/internal/strategy"
)

// Worker consumes mark events, refreshes the per-event analytics cache,
// and forwards status changes to the notification service.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	var docs store.DocStore
	if cfg.StoreBackend == "memory" {
		docs = store.NewMemoryDocStore()
	} else {
		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer db.Close()
		docs = store.NewPostgresDocStore(db.Client)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "campusattend:marks")
	}

	repo := attendance.NewRepository(docs)
	svc := attendance.NewService(repo, strategy.NewClassifier(nil))
	notifier := notify.New(cfg.NotifyServiceURL, cfg.NotifySkip)

	if !cfg.NotifySkip {
		if err := notifier.Health(ctx); err != nil {
			log.Printf("WARNING: notification service not available: %v", err)
		} else {
			log.Println("notification service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "mark" {
			continue
		}

		ev, err := queue.DecodeMarkEvent(msg)
		if err != nil {
			log.Printf("decode mark event failed: %v", err)
			continue
		}

		analytics, err := svc.Analytics(ctx, ev.EventID, 0)
		if err != nil {
			log.Printf("analytics refresh for %s failed: %v", ev.EventID, err)
			continue
		}
		raw, _ := json.Marshal(analytics)
		if err := redisClient.Client.Set(ctx, "attana:"+ev.EventID, raw, cfg.AnalyticsCacheTTL).Err(); err != nil {
			log.Printf("analytics cache write for %s failed: %v", ev.EventID, err)
		}

		if err := notifier.StatusChanged(ctx, notify.StatusChange{
			EventID:       ev.EventID,
			ParticipantID: ev.ParticipantID,
			Status:        ev.Status,
			Percentage:    ev.Percentage,
		}); err != nil {
			log.Printf("notify for %s/%s failed: %v", ev.EventID, ev.ParticipantID, err)
		}
	}

	log.Println("worker stopped")
}
