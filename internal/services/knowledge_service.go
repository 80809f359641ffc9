package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/repositories"
	"github.com/yoockh/barta/internal/utils"
)

// KnowledgeService manages the templates, triggers and follow-up tasks the
// agent works from.
type KnowledgeService interface {
	Seed(ctx context.Context) error

	ListTemplates(ctx context.Context) ([]models.Template, error)
	AddTemplate(ctx context.Context, name, content string) (*models.Template, error)
	DeleteTemplate(ctx context.Context, id string) error

	ListTriggers(ctx context.Context) ([]models.Trigger, error)
	AddTrigger(ctx context.Context, keyword string, action models.TriggerAction, response string) (*models.Trigger, error)
	DeleteTrigger(ctx context.Context, id string) error

	ListTasks(ctx context.Context) ([]models.Task, error)
	ToggleTask(ctx context.Context, id string) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	PrependTasks(ctx context.Context, tasks []models.Task) error
}

type knowledgeService struct {
	templates repositories.TemplateRepository
	triggers  repositories.TriggerRepository
	tasks     repositories.TaskRepository
}

func NewKnowledgeService(templates repositories.TemplateRepository, triggers repositories.TriggerRepository, tasks repositories.TaskRepository) KnowledgeService {
	return &knowledgeService{templates: templates, triggers: triggers, tasks: tasks}
}

func (s *knowledgeService) Seed(ctx context.Context) error {
	const op = "KnowledgeService.Seed"

	if err := s.templates.Seed(ctx, models.DefaultTemplates()); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to seed templates", err)
	}
	if err := s.triggers.Seed(ctx, models.DefaultTriggers()); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to seed triggers", err)
	}
	return nil
}

func (s *knowledgeService) ListTemplates(ctx context.Context) ([]models.Template, error) {
	out, err := s.templates.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, "KnowledgeService.ListTemplates", "failed to list templates", err)
	}
	return out, nil
}

func (s *knowledgeService) AddTemplate(ctx context.Context, name, content string) (*models.Template, error) {
	const op = "KnowledgeService.AddTemplate"

	name, content = strings.TrimSpace(name), strings.TrimSpace(content)
	if name == "" || content == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name and content are required", nil)
	}

	t := &models.Template{ID: uuid.NewString(), Name: name, Content: content}
	if err := s.templates.Insert(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save template", err)
	}
	return t, nil
}

func (s *knowledgeService) DeleteTemplate(ctx context.Context, id string) error {
	return deleteByID(ctx, "KnowledgeService.DeleteTemplate", "template", id, s.templates.Delete)
}

func (s *knowledgeService) ListTriggers(ctx context.Context) ([]models.Trigger, error) {
	out, err := s.triggers.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, "KnowledgeService.ListTriggers", "failed to list triggers", err)
	}
	return out, nil
}

func (s *knowledgeService) AddTrigger(ctx context.Context, keyword string, action models.TriggerAction, response string) (*models.Trigger, error) {
	const op = "KnowledgeService.AddTrigger"

	keyword, response = strings.TrimSpace(keyword), strings.TrimSpace(response)
	if keyword == "" || response == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "keyword and response are required", nil)
	}
	if action == "" {
		action = models.TriggerPredefined
	}
	if action != models.TriggerPredefined && action != models.TriggerAIGuided {
		return nil, utils.E(utils.CodeInvalidArgument, op, "action must be predefined or ai_guided", nil)
	}

	t := &models.Trigger{ID: uuid.NewString(), Keyword: keyword, Action: action, Response: response}
	if err := s.triggers.Insert(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save trigger", err)
	}
	return t, nil
}

func (s *knowledgeService) DeleteTrigger(ctx context.Context, id string) error {
	return deleteByID(ctx, "KnowledgeService.DeleteTrigger", "trigger", id, s.triggers.Delete)
}

func (s *knowledgeService) ListTasks(ctx context.Context) ([]models.Task, error) {
	out, err := s.tasks.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, "KnowledgeService.ListTasks", "failed to list tasks", err)
	}
	return out, nil
}

func (s *knowledgeService) ToggleTask(ctx context.Context, id string) (*models.Task, error) {
	const op = "KnowledgeService.ToggleTask"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	t, err := s.tasks.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "task not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to toggle task", err)
	}
	return t, nil
}

func (s *knowledgeService) DeleteTask(ctx context.Context, id string) error {
	return deleteByID(ctx, "KnowledgeService.DeleteTask", "task", id, s.tasks.Delete)
}

func (s *knowledgeService) PrependTasks(ctx context.Context, tasks []models.Task) error {
	const op = "KnowledgeService.PrependTasks"

	if len(tasks) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = uuid.NewString()
		}
		if tasks[i].Timestamp.IsZero() {
			tasks[i].Timestamp = now
		}
	}
	if err := s.tasks.Prepend(ctx, tasks, models.MaxTasks); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save tasks", err)
	}
	return nil
}

func deleteByID(ctx context.Context, op, what, id string, del func(context.Context, string) error) error {
	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if err := del(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, what+" not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete "+what, err)
	}
	return nil
}
