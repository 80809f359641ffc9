package services

import (
	"context"

	"github.com/yoockh/barta/internal/models"
)

const (
	yieldPerCall = 3.5
	baseYield    = 4205.5
)

type StatsService interface {
	Get(ctx context.Context) (*models.Stats, error)
}

type statsService struct {
	knowledge KnowledgeService
	calls     CallLogService
}

func NewStatsService(knowledge KnowledgeService, calls CallLogService) StatsService {
	return &statsService{knowledge: knowledge, calls: calls}
}

func (s *statsService) Get(ctx context.Context) (*models.Stats, error) {
	calls, err := s.calls.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.knowledge.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := s.knowledge.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	pending := 0
	for _, t := range tasks {
		if !t.Completed {
			pending++
		}
	}
	return &models.Stats{
		TotalCalls:    len(calls),
		PendingTasks:  pending,
		TemplateCount: len(templates),
		TotalYield:    float64(len(calls))*yieldPerCall + baseYield,
	}, nil
}
