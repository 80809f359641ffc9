package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/yoockh/barta/internal/services"
)

type recordingFollowUps struct {
	jobs []services.FollowUpJob
	err  error
}

func (r *recordingFollowUps) Process(_ context.Context, job services.FollowUpJob) error {
	r.jobs = append(r.jobs, job)
	return r.err
}

func TestJobFromMessage(t *testing.T) {
	job, ok := jobFromMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"call_id": "c1", "summary": "send a quote"}})
	assert.True(t, ok)
	assert.Equal(t, services.FollowUpJob{CallID: "c1", Summary: "send a quote"}, job)

	_, ok = jobFromMessage(redis.XMessage{ID: "2-0", Values: map[string]any{"call_id": "c2"}})
	assert.False(t, ok)

	_, ok = jobFromMessage(redis.XMessage{ID: "3-0", Values: map[string]any{"summary": 42}})
	assert.False(t, ok)
}

func TestHandleMsgProcessesValidJobsOnly(t *testing.T) {
	logger, hook := test.NewNullLogger()
	f := &recordingFollowUps{}
	p := &FollowUpWorkerPool{FollowUps: f, Logger: logger}

	p.handleMsg(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]any{"call_id": "c1", "summary": "s"}})
	p.handleMsg(context.Background(), redis.XMessage{ID: "2-0", Values: map[string]any{}})
	assert.Len(t, f.jobs, 1)

	f.err = errors.New("store down")
	p.handleMsg(context.Background(), redis.XMessage{ID: "3-0", Values: map[string]any{"call_id": "c3", "summary": "s"}})
	assert.Len(t, f.jobs, 2)
	if assert.NotNil(t, hook.LastEntry()) {
		assert.Equal(t, "c3", hook.LastEntry().Data["call_id"])
	}
}

func TestStartRequiresDependencies(t *testing.T) {
	assert.Error(t, (&FollowUpWorkerPool{}).Start(context.Background()))
}
