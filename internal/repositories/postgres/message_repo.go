package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) repositories.MessageRepository {
	return &messageRepo{db: db}
}

// Migrate creates the vector extension and the messages table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	return db.WithContext(ctx).AutoMigrate(&models.Message{})
}

func (r *messageRepo) Insert(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *messageRepo) List(ctx context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []models.Message
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// DESC for the limit, ASC for the caller
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *messageRepo) Nearest(ctx context.Context, embedding []float32, limit int) ([]models.Message, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}

	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("sender = ? AND embedding IS NOT NULL", models.SenderAgent).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{pgvector.NewVector(embedding)}},
		}).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
