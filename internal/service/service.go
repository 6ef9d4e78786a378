package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"catalog/selector/internal/domain"
	"catalog/selector/internal/domain/task"
	"catalog/selector/internal/queue"
	"catalog/selector/internal/repository"
)

var submissionStream = queue.StreamName((&task.SubmissionTask{}).TaskType())

// Service moves accepted submissions from the HTTP layer to Postgres through a Redis stream.
type Service struct {
	repository  repository.SubmissionRepository
	queue       queue.Queue
	limiter     ratelimit.Limiter
	groupName   string
	minIdleTime time.Duration
}

func NewService(
	repository repository.SubmissionRepository,
	queue queue.Queue,
	maxWritesPerSecond int,
	groupName string,
	minIdleTime int,
) *Service {
	if minIdleTime <= 0 {
		minIdleTime = 60
	}

	limiter := ratelimit.NewUnlimited()
	if maxWritesPerSecond > 0 {
		limiter = ratelimit.New(maxWritesPerSecond)
	}

	return &Service{
		repository:  repository,
		queue:       queue,
		limiter:     limiter,
		groupName:   groupName,
		minIdleTime: time.Duration(minIdleTime) * time.Second,
	}
}

// Publish enqueues a successful submission and returns its id.
func (s *Service) Publish(ctx context.Context, sessionID string, sel domain.Selection, result *domain.SubmissionResult) (string, error) {
	t := &task.SubmissionTask{
		SubmissionID: uuid.New().String(),
		SessionID:    sessionID,
		Selection:    sel,
		Result:       result,
		SubmittedAt:  time.Now().UTC(),
	}

	if _, err := s.queue.AddTask(ctx, t); err != nil {
		return "", fmt.Errorf("failed to publish submission for session %s: %w", sessionID, err)
	}

	log.Infof("📨 Published submission %s for session %s", t.SubmissionID, sessionID)
	return t.SubmissionID, nil
}

// RunWorkers consumes the submission stream with numWorkers consumers plus an
// auto-claimer for messages left pending by dead consumers. It returns when ctx is done.
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	if err := s.queue.EnsureStreamsExist(ctx, (&task.SubmissionTask{}).TaskType()); err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runAutoClaimer(ctx)
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.runWorker(ctx, workerID)
		}(i + 1)
	}

	wg.Wait()
	return nil
}

func (s *Service) runAutoClaimer(ctx context.Context) {
	ticker := time.NewTicker(s.minIdleTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			consumer := fmt.Sprintf("autoclaimer-%d", time.Now().UnixNano())
			claimed, err := s.queue.AutoClaim(ctx, s.groupName, consumer, submissionStream, s.minIdleTime)
			if err != nil {
				log.Errorf("❌ Failed to auto-claim messages for %s: %v", submissionStream, err)
				continue
			}
			if len(claimed) > 0 {
				log.Infof("🔄 Auto-claimed %d submission messages", len(claimed))
			}
			for i := range claimed {
				if err := s.processMessage(ctx, &claimed[i]); err != nil {
					log.Errorf("❌ Failed to process auto-claimed message %s: %v", claimed[i].ID, err)
				}
			}
		}
	}
}

func (s *Service) runWorker(ctx context.Context, workerID int) {
	consumer := fmt.Sprintf("submission-worker-%d", workerID)
	log.Infof("🚀 Starting submission worker %d as consumer %s", workerID, consumer)

	for {
		select {
		case <-ctx.Done():
			log.Infof("🛑 Submission worker %d stopping", workerID)
			return
		default:
		}

		msg, err := s.queue.GetTask(ctx, s.groupName, consumer, submissionStream)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Errorf("❌ Failed to get task from %s: %v", submissionStream, err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if msg == nil {
			continue
		}

		if err := s.processMessage(ctx, msg); err != nil {
			log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
		}
	}
}

// processMessage persists one submission and acks it. Failed saves stay
// pending so the auto-claimer retries them; undecodable messages are acked and dropped.
func (s *Service) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return s.drop(ctx, msg, fmt.Errorf("invalid task type in message %s", msg.ID))
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return s.drop(ctx, msg, fmt.Errorf("invalid task data in message %s", msg.ID))
	}

	switch taskType {
	case "SubmissionTask":
		submission, err := task.UnmarshalTask[*task.SubmissionTask]([]byte(taskData))
		if err != nil {
			return s.drop(ctx, msg, fmt.Errorf("failed to unmarshal submission task data: %w", err))
		}

		s.limiter.Take()
		if err := s.repository.SaveSubmission(ctx, submission); err != nil {
			return err
		}
		log.Debugf("Saved submission %s", submission.SubmissionID)

	default:
		return s.drop(ctx, msg, fmt.Errorf("unknown task type: %s", taskType))
	}

	if err := s.queue.AckTask(ctx, submissionStream, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

func (s *Service) drop(ctx context.Context, msg *redis.XMessage, cause error) error {
	if err := s.queue.AckTask(ctx, submissionStream, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("%v (ack failed: %w)", cause, err)
	}
	log.Warnf("🗑️ Dropped message %s: %v", msg.ID, cause)
	return cause
}
