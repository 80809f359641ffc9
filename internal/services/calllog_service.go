package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/barta/internal/events"
	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/repositories"
	"github.com/yoockh/barta/internal/storage"
	"github.com/yoockh/barta/internal/utils"
)

const MissedCallTranscript = "Call was missed or terminated prematurely."

// CallRecord is what a finished live session reports.
type CallRecord struct {
	ID         string
	Status     models.CallStatus
	Duration   time.Duration
	Transcript string
	// Recording is the captured caller audio as 16 kHz PCM16.
	Recording []byte
}

type CallLogService interface {
	Record(ctx context.Context, rec CallRecord) (*models.CallLog, error)
	List(ctx context.Context) ([]models.CallLog, error)
	// RecordingURL returns a short-lived link to the archived caller audio.
	RecordingURL(ctx context.Context, id string) (string, error)
}

type callLogService struct {
	logs      repositories.CallLogRepository
	assistant AssistantService
	followUps FollowUpQueue
	archive   storage.RecordingArchive
	signer    storage.Signer
	events    events.Publisher
	log       logrus.FieldLogger
}

type CallLogDeps struct {
	Logs      repositories.CallLogRepository
	Assistant AssistantService
	FollowUps FollowUpQueue
	// Archive, Signer and Events are optional.
	Archive storage.RecordingArchive
	Signer  storage.Signer
	Events  events.Publisher
	Logger  logrus.FieldLogger
}

func NewCallLogService(d CallLogDeps) CallLogService {
	log := d.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &callLogService{
		logs:      d.Logs,
		assistant: d.Assistant,
		followUps: d.FollowUps,
		archive:   d.Archive,
		signer:    d.Signer,
		events:    d.Events,
		log:       log.WithField("component", "call_logs"),
	}
}

func (s *callLogService) Record(ctx context.Context, rec CallRecord) (*models.CallLog, error) {
	const op = "CallLogService.Record"

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = models.CallCompleted
	}
	log := s.log.WithFields(logrus.Fields{"call_id": rec.ID, "status": rec.Status})

	cl := &models.CallLog{
		ID:              rec.ID,
		Duration:        models.FormatDuration(rec.Duration),
		DurationSeconds: int64(rec.Duration / time.Second),
		Status:          rec.Status,
		Timestamp:       time.Now().UTC(),
	}

	if rec.Status == models.CallCompleted {
		cl.Transcript = s.assistant.Summarize(ctx, cl.Duration, rec.Transcript)
	} else {
		cl.Transcript = MissedCallTranscript
	}

	if s.archive != nil && len(rec.Recording) > 0 {
		url, err := s.archive.Archive(ctx, rec.ID, rec.Recording)
		if err != nil {
			log.WithError(err).Warn("recording archive failed")
		} else {
			cl.RecordingURL = url
		}
	}

	if err := s.logs.Prepend(ctx, cl); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save call log", err)
	}
	log.WithField("duration", cl.Duration).Info("call logged")

	if rec.Status == models.CallCompleted && s.followUps != nil {
		if err := s.followUps.Enqueue(ctx, FollowUpJob{CallID: cl.ID, Summary: cl.Transcript}); err != nil {
			log.WithError(err).Warn("follow-up enqueue failed")
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, events.New(events.TypeCallLog, cl)); err != nil {
			log.WithError(err).Debug("call log event not published")
		}
	}
	return cl, nil
}

func (s *callLogService) List(ctx context.Context) ([]models.CallLog, error) {
	out, err := s.logs.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, "CallLogService.List", "failed to list call logs", err)
	}
	return out, nil
}

const recordingURLTTL = 15 * time.Minute

func (s *callLogService) RecordingURL(ctx context.Context, id string) (string, error) {
	const op = "CallLogService.RecordingURL"

	if s.signer == nil {
		return "", utils.E(utils.CodeUnsupported, op, "recording archive is not configured", nil)
	}
	logs, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	for _, cl := range logs {
		if cl.ID != id {
			continue
		}
		if cl.RecordingURL == "" {
			return "", utils.E(utils.CodeNotFound, op, "call has no recording", utils.ErrNotFound)
		}
		url, err := s.signer.SignedGetURL(ctx, cl.RecordingURL, recordingURLTTL)
		if err != nil {
			return "", utils.E(utils.CodeUnavailable, op, "failed to sign recording url", err)
		}
		return url, nil
	}
	return "", utils.E(utils.CodeNotFound, op, "call not found", utils.ErrNotFound)
}
