package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/barta/internal/events"
	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/utils"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1, 0, 0}, nil }

func newChat(t *testing.T, a *stubAssistant) (*chatService, *memMessages, *ConsoleState, KnowledgeService) {
	t.Helper()
	msgs := &memMessages{}
	state := NewConsoleState()
	k := newKnowledge(t)
	c := NewChatService(ChatDeps{
		Messages:  msgs,
		Knowledge: k,
		Assistant: a,
		State:     state,
		Events:    events.NewLocalBus(),
		Logger:    quietLogger(),
	}).(*chatService)
	return c, msgs, state, k
}

func TestChatPredefinedTriggerSkipsGeneration(t *testing.T) {
	a := &stubAssistant{reply: "generated"}
	c, msgs, _, _ := newChat(t, a)

	reply, err := c.Send(context.Background(), "Hello there")
	require.NoError(t, err)
	c.wg.Wait()

	assert.Equal(t, "Hi there! How can Barta-AI help your business today?", reply.Text)
	assert.Equal(t, "t1", reply.TriggerID)
	assert.Equal(t, models.SenderAgent, reply.Sender)
	assert.Empty(t, a.replies)
	assert.Equal(t, models.MessageMetadata{TriggerAction: models.TriggerPredefined}, reply.Metadata.Data())

	history, err := c.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.SenderUser, history[0].Sender)
	assert.Equal(t, "Hello there", history[0].Text)
	assert.Len(t, msgs.msgs, 2)
}

func TestChatAIGuidedTriggerPassesGuidance(t *testing.T) {
	a := &stubAssistant{reply: "We have a spring discount."}
	c, _, _, k := newChat(t, a)
	_, err := k.AddTrigger(context.Background(), "discount", models.TriggerAIGuided, "mention 10% off")
	require.NoError(t, err)

	reply, err := c.Send(context.Background(), "Any DISCOUNT?")
	require.NoError(t, err)
	c.wg.Wait()

	assert.Equal(t, "We have a spring discount.", reply.Text)
	require.Len(t, a.replies, 1)
	assert.Equal(t, "mention 10% off", a.replies[0].Guidance)
	assert.Equal(t, DefaultIntent, a.replies[0].Intent)
	assert.Len(t, a.replies[0].Templates, 2)
	assert.Equal(t, models.TriggerAIGuided, reply.Metadata.Data().TriggerAction)
	assert.False(t, reply.Metadata.Data().Fallback)
}

func TestChatNoTriggerUsesReplyAndAppliesSuggestion(t *testing.T) {
	a := &stubAssistant{reply: "It starts at $99.", suggestion: Suggestion{TemplateID: "1", Intent: "Pricing"}}
	c, msgs, state, _ := newChat(t, a)
	c.Embedder = fakeEmbedder{}

	reply, err := c.Send(context.Background(), "how much does it cost")
	require.NoError(t, err)
	c.wg.Wait()

	assert.Equal(t, "It starts at $99.", reply.Text)
	assert.Empty(t, reply.TriggerID)
	assert.NotNil(t, reply.Embedding)
	assert.Equal(t, ConsoleSnapshot{Intent: "Pricing", SuggestedTemplateID: "1"}, state.Snapshot())
	assert.Equal(t, 1, a.suggestions)

	_, err = c.Send(context.Background(), "and for teams?")
	require.NoError(t, err)
	c.wg.Wait()
	require.Len(t, a.replies, 2)
	assert.Equal(t, []string{"It starts at $99."}, a.replies[1].Related)
	assert.Equal(t, models.MessageMetadata{Related: []string{"It starts at $99."}}, msgs.msgs[3].Metadata.Data())
}

func TestChatMarksFallbackReplies(t *testing.T) {
	c, _, _, _ := newChat(t, &stubAssistant{reply: ReplyFallback})
	reply, err := c.Send(context.Background(), "are you open on sunday")
	require.NoError(t, err)
	c.wg.Wait()

	assert.True(t, reply.Metadata.Data().Fallback)
	assert.Empty(t, reply.Metadata.Data().TriggerAction)
}

func TestChatRejectsBlank(t *testing.T) {
	c, msgs, _, _ := newChat(t, &stubAssistant{})
	_, err := c.Send(context.Background(), "   ")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	assert.Empty(t, msgs.msgs)
}

func TestChatClearsStaleSuggestion(t *testing.T) {
	c, _, state, _ := newChat(t, &stubAssistant{reply: "ok"})
	state.Apply(Suggestion{TemplateID: "2", Intent: "Booking"})

	_, err := c.Send(context.Background(), "something unrelated")
	require.NoError(t, err)
	c.wg.Wait()

	assert.Equal(t, ConsoleSnapshot{Intent: "Booking"}, state.Snapshot())
}
