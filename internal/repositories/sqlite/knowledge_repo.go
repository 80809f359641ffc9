package sqlite

import (
	"context"

	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/repositories"
	"github.com/yoockh/barta/internal/utils"
)

type templateRepo struct{ s *Store }

func NewTemplateRepo(s *Store) repositories.TemplateRepository { return &templateRepo{s: s} }

func (r *templateRepo) List(ctx context.Context) ([]models.Template, error) {
	return list[models.Template](ctx, r.s, keyTemplates)
}

func (r *templateRepo) Insert(ctx context.Context, t *models.Template) error {
	return mutate(ctx, r.s, keyTemplates, func(cur []models.Template) ([]models.Template, error) {
		return append(cur, *t), nil
	})
}

func (r *templateRepo) Delete(ctx context.Context, id string) error {
	return mutate(ctx, r.s, keyTemplates, func(cur []models.Template) ([]models.Template, error) {
		for i := range cur {
			if cur[i].ID == id {
				return append(cur[:i], cur[i+1:]...), nil
			}
		}
		return nil, utils.ErrNotFound
	})
}

func (r *templateRepo) Seed(ctx context.Context, defaults []models.Template) error {
	return seed(ctx, r.s, keyTemplates, defaults)
}

type triggerRepo struct{ s *Store }

func NewTriggerRepo(s *Store) repositories.TriggerRepository { return &triggerRepo{s: s} }

func (r *triggerRepo) List(ctx context.Context) ([]models.Trigger, error) {
	return list[models.Trigger](ctx, r.s, keyTriggers)
}

func (r *triggerRepo) Insert(ctx context.Context, t *models.Trigger) error {
	return mutate(ctx, r.s, keyTriggers, func(cur []models.Trigger) ([]models.Trigger, error) {
		return append(cur, *t), nil
	})
}

func (r *triggerRepo) Delete(ctx context.Context, id string) error {
	return mutate(ctx, r.s, keyTriggers, func(cur []models.Trigger) ([]models.Trigger, error) {
		for i := range cur {
			if cur[i].ID == id {
				return append(cur[:i], cur[i+1:]...), nil
			}
		}
		return nil, utils.ErrNotFound
	})
}

func (r *triggerRepo) Seed(ctx context.Context, defaults []models.Trigger) error {
	return seed(ctx, r.s, keyTriggers, defaults)
}

type taskRepo struct{ s *Store }

func NewTaskRepo(s *Store) repositories.TaskRepository { return &taskRepo{s: s} }

func (r *taskRepo) List(ctx context.Context) ([]models.Task, error) {
	return list[models.Task](ctx, r.s, keyTasks)
}

func (r *taskRepo) Prepend(ctx context.Context, tasks []models.Task, max int) error {
	return mutate(ctx, r.s, keyTasks, func(cur []models.Task) ([]models.Task, error) {
		next := append(append([]models.Task{}, tasks...), cur...)
		if max > 0 && len(next) > max {
			next = next[:max]
		}
		return next, nil
	})
}

func (r *taskRepo) Toggle(ctx context.Context, id string) (*models.Task, error) {
	var out *models.Task
	err := mutate(ctx, r.s, keyTasks, func(cur []models.Task) ([]models.Task, error) {
		for i := range cur {
			if cur[i].ID == id {
				cur[i].Completed = !cur[i].Completed
				t := cur[i]
				out = &t
				return cur, nil
			}
		}
		return nil, utils.ErrNotFound
	})
	return out, err
}

func (r *taskRepo) Delete(ctx context.Context, id string) error {
	return mutate(ctx, r.s, keyTasks, func(cur []models.Task) ([]models.Task, error) {
		for i := range cur {
			if cur[i].ID == id {
				return append(cur[:i], cur[i+1:]...), nil
			}
		}
		return nil, utils.ErrNotFound
	})
}

type callLogRepo struct{ s *Store }

func NewCallLogRepo(s *Store) repositories.CallLogRepository { return &callLogRepo{s: s} }

func (r *callLogRepo) List(ctx context.Context) ([]models.CallLog, error) {
	return list[models.CallLog](ctx, r.s, keyCallLogs)
}

func (r *callLogRepo) Prepend(ctx context.Context, log *models.CallLog) error {
	return mutate(ctx, r.s, keyCallLogs, func(cur []models.CallLog) ([]models.CallLog, error) {
		return append([]models.CallLog{*log}, cur...), nil
	})
}
