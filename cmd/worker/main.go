package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eas/internal/analytics"
	"eas/internal/attendance"
	"eas/internal/campus"
	"eas/internal/config"
	"eas/internal/faceclient"
	"eas/internal/metrics"
	"eas/internal/queue"
	"eas/internal/store"
)

// Worker consumes queue messages, scores submissions through the face
// service, and keeps the analytics rollups fresh.
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

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	}

	campusRepo := campus.NewRepository(db.Client)
	att := attendance.NewService(attendance.NewRepository(db.Client), nil, nil, nil)
	an := analytics.NewService(analytics.NewRepository(db.Client), campusRepo, cfg.DefaultTimezone)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	// Check face service health on startup
	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: Face service not available: %v", err)
			log.Println("Worker will retry face scoring when submissions arrive")
		} else {
			log.Println("Face service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	ticker := time.NewTicker(cfg.AnalyticsInterval)
	defer ticker.Stop()

	log.Println("worker started, waiting for messages...")
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				log.Println("worker stopped")
				return
			}
			handle(ctx, msg, att, an, face)
		case <-ticker.C:
			if err := an.RecomputeAll(ctx); err != nil {
				log.Printf("scheduled recompute failed: %v", err)
			}
		}
	}
}

func handle(ctx context.Context, msg queue.Message, att *attendance.Service, an *analytics.Service, face *faceclient.Client) {
	switch msg.Type {
	case queue.TypeAttendanceSubmitted:
		processSubmission(ctx, string(msg.Body), att, an, face)
	case queue.TypeAnalyticsRecompute:
		if err := an.RecomputeAll(ctx); err != nil {
			log.Printf("recompute failed: %v", err)
		}
	default:
		log.Printf("skipping unknown message type %q", msg.Type)
	}
}

func processSubmission(ctx context.Context, id string, att *attendance.Service, an *analytics.Service, face *faceclient.Client) {
	log.Printf("processing attendance %s", id)

	rec, err := att.Get(ctx, id)
	if err != nil {
		log.Printf("fetch attendance %s failed: %v", id, err)
		return
	}
	if rec == nil {
		log.Printf("attendance %s no longer exists", id)
		return
	}

	if rec.FrontPhotoURL == "" {
		metrics.FaceScores.WithLabelValues("skipped").Inc()
	} else {
		result, err := face.Verify(ctx, rec.UserID, rec.FrontPhotoURL)
		if err != nil {
			log.Printf("face verify failed for %s: %v", id, err)
			metrics.FaceScores.WithLabelValues("failed").Inc()
		} else {
			log.Printf("attendance %s: similarity %.2f (threshold %.2f)", id, result.Similarity, result.Threshold)
			if err := att.RecordFaceScore(ctx, id, result.Similarity); err != nil {
				log.Printf("store face score for %s failed: %v", id, err)
			} else {
				metrics.FaceScores.WithLabelValues("scored").Inc()
			}
		}
	}

	if err := an.RecordSubmitted(ctx, rec.CampusID, rec.SubmittedAt); err != nil {
		log.Printf("analytics update for %s failed: %v", id, err)
	}
}
