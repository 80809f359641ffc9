package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/repositories/sqlite"
	"github.com/yoockh/barta/internal/utils"
)

func newKnowledge(t *testing.T) KnowledgeService {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	k := NewKnowledgeService(sqlite.NewTemplateRepo(store), sqlite.NewTriggerRepo(store), sqlite.NewTaskRepo(store))
	require.NoError(t, k.Seed(context.Background()))
	return k
}

func TestKnowledgeSeedsDefaults(t *testing.T) {
	k := newKnowledge(t)
	ctx := context.Background()

	templates, err := k.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTemplates(), templates)

	triggers, err := k.ListTriggers(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTriggers(), triggers)
}

func TestKnowledgeTemplates(t *testing.T) {
	k := newKnowledge(t)
	ctx := context.Background()

	_, err := k.AddTemplate(ctx, " ", "content")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	tpl, err := k.AddTemplate(ctx, "Hours", "We are open 9-5.")
	require.NoError(t, err)
	assert.NotEmpty(t, tpl.ID)

	require.NoError(t, k.DeleteTemplate(ctx, tpl.ID))
	assert.True(t, utils.IsCode(k.DeleteTemplate(ctx, tpl.ID), utils.CodeNotFound))
}

func TestKnowledgeTriggers(t *testing.T) {
	k := newKnowledge(t)
	ctx := context.Background()

	tr, err := k.AddTrigger(ctx, "price", "", "Our package is $99.")
	require.NoError(t, err)
	assert.Equal(t, models.TriggerPredefined, tr.Action)

	_, err = k.AddTrigger(ctx, "price", "shout", "x")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = k.AddTrigger(ctx, "", models.TriggerAIGuided, "x")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestKnowledgeTasksCapAndToggle(t *testing.T) {
	k := newKnowledge(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, k.PrependTasks(ctx, []models.Task{
			{Title: "a", Priority: models.PriorityLow},
			{Title: "b", Priority: models.PriorityHigh},
		}))
	}
	tasks, err := k.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, models.MaxTasks)
	assert.Equal(t, "a", tasks[0].Title)

	got, err := k.ToggleTask(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	_, err = k.ToggleTask(ctx, "missing")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	require.NoError(t, k.DeleteTask(ctx, tasks[0].ID))
	tasks, err = k.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, models.MaxTasks-1)
}
