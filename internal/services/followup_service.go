package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// FollowUpJob asks for follow-up tasks to be derived from a finished call.
type FollowUpJob struct {
	CallID  string `json:"call_id"`
	Summary string `json:"summary"`
}

type FollowUpQueue interface {
	Enqueue(ctx context.Context, job FollowUpJob) error
}

// FollowUpService turns a call summary into tasks on the task list.
type FollowUpService interface {
	Process(ctx context.Context, job FollowUpJob) error
}

type followUpService struct {
	assistant AssistantService
	knowledge KnowledgeService
}

func NewFollowUpService(assistant AssistantService, knowledge KnowledgeService) FollowUpService {
	return &followUpService{assistant: assistant, knowledge: knowledge}
}

func (s *followUpService) Process(ctx context.Context, job FollowUpJob) error {
	tasks := s.assistant.ExtractTasks(ctx, job.Summary)
	if len(tasks) == 0 {
		return nil
	}
	for i := range tasks {
		tasks[i].CallID = job.CallID
	}
	return s.knowledge.PrependTasks(ctx, tasks)
}

// InlineFollowUpQueue runs each job on its own goroutine. It is the queue
// used when no Redis is configured.
type InlineFollowUpQueue struct {
	Service FollowUpService
	Logger  logrus.FieldLogger

	wg sync.WaitGroup
}

func (q *InlineFollowUpQueue) Enqueue(ctx context.Context, job FollowUpJob) error {
	ctx = context.WithoutCancel(ctx)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.Service.Process(ctx, job); err != nil && q.Logger != nil {
			q.Logger.WithError(err).WithField("call_id", job.CallID).Warn("follow-up processing failed")
		}
	}()
	return nil
}

// Wait blocks until every enqueued job has finished.
func (q *InlineFollowUpQueue) Wait() { q.wg.Wait() }
