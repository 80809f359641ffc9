// Package repositories declares the persistence contracts of the knowledge
// base. Each collection is independent; there is no cross-collection
// transaction.
package repositories

import (
	"context"

	"github.com/yoockh/barta/internal/models"
)

type TemplateRepository interface {
	// List returns templates in insertion order.
	List(ctx context.Context) ([]models.Template, error)
	Insert(ctx context.Context, t *models.Template) error
	Delete(ctx context.Context, id string) error
	// Seed writes defaults only if the collection has never been initialized.
	Seed(ctx context.Context, defaults []models.Template) error
}

type TriggerRepository interface {
	List(ctx context.Context) ([]models.Trigger, error)
	Insert(ctx context.Context, t *models.Trigger) error
	Delete(ctx context.Context, id string) error
	Seed(ctx context.Context, defaults []models.Trigger) error
}

type TaskRepository interface {
	// List returns tasks newest first.
	List(ctx context.Context) ([]models.Task, error)
	// Prepend puts tasks in front, keeping their order, and trims the list to max.
	Prepend(ctx context.Context, tasks []models.Task, max int) error
	Toggle(ctx context.Context, id string) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type CallLogRepository interface {
	// List returns call logs newest first.
	List(ctx context.Context) ([]models.CallLog, error)
	Prepend(ctx context.Context, log *models.CallLog) error
}

type MessageRepository interface {
	Insert(ctx context.Context, m *models.Message) error
	// List returns the latest limit messages, oldest first.
	List(ctx context.Context, limit int) ([]models.Message, error)
	// Nearest returns agent replies whose inquiry embedding is closest to embedding.
	Nearest(ctx context.Context, embedding []float32, limit int) ([]models.Message, error)
}
