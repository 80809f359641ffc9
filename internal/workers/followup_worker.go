package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/barta/internal/services"
)

const (
	DefaultStream = "calls:followup"
	DefaultGroup  = "followup-workers"
)

// FollowUpQueue publishes follow-up jobs onto a Redis stream.
type FollowUpQueue struct {
	Redis  *redis.Client
	Stream string
	// MaxLen approximately caps the stream; zero leaves it unbounded.
	MaxLen int64
}

func (q *FollowUpQueue) Enqueue(ctx context.Context, job services.FollowUpJob) error {
	stream := q.Stream
	if stream == "" {
		stream = DefaultStream
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: q.MaxLen,
		Approx: q.MaxLen > 0,
		Values: map[string]any{
			"call_id": job.CallID,
			"summary": job.Summary,
		},
	}).Err()
}

// FollowUpWorkerPool consumes the follow-up stream as a consumer group and
// turns every call summary into tasks.
type FollowUpWorkerPool struct {
	Redis      *redis.Client
	FollowUps  services.FollowUpService
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *FollowUpWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.FollowUps == nil {
		return errors.New("FollowUpWorkerPool missing dependency: Redis/FollowUps must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *FollowUpWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// handleMsg never retries: a failed extraction leaves the task list as is.
func (p *FollowUpWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	job, ok := jobFromMessage(msg)
	if !ok {
		return
	}
	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"call_id":  job.CallID,
	})
	if err := p.FollowUps.Process(ctx, job); err != nil {
		log.WithError(err).Warn("follow-up processing failed")
		return
	}
	log.Debug("follow-up processed")
}

func jobFromMessage(msg redis.XMessage) (services.FollowUpJob, bool) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}
	job := services.FollowUpJob{CallID: getStr("call_id"), Summary: getStr("summary")}
	return job, job.Summary != ""
}
