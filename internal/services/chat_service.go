package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/barta/internal/events"
	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/providers/llm"
	"github.com/yoockh/barta/internal/repositories"
	"github.com/yoockh/barta/internal/utils"
)

const (
	historyLimit = 200
	relatedLimit = 3
)

type ChatService interface {
	// Send records the inquiry and returns the agent's reply.
	Send(ctx context.Context, text string) (*models.Message, error)
	History(ctx context.Context) ([]models.Message, error)
}

type ChatDeps struct {
	Messages  repositories.MessageRepository
	Knowledge KnowledgeService
	Assistant AssistantService
	State     *ConsoleState
	// Embedder and Events are optional.
	Embedder llm.Embedder
	Events   events.Publisher
	Logger   logrus.FieldLogger
}

type chatService struct {
	ChatDeps
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func NewChatService(d ChatDeps) ChatService {
	log := d.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &chatService{ChatDeps: d, log: log.WithField("component", "chat")}
}

func (s *chatService) Send(ctx context.Context, text string) (*models.Message, error) {
	const op = "ChatService.Send"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}

	templates, err := s.Knowledge.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	triggers, err := s.Knowledge.ListTriggers(ctx)
	if err != nil {
		return nil, err
	}

	inquiry := &models.Message{
		ID:        uuid.NewString(),
		Sender:    models.SenderUser,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.Messages.Insert(ctx, inquiry); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save message", err)
	}
	s.publish(ctx, events.New(events.TypeMessage, inquiry))

	s.State.ClearSuggestion()
	s.suggestAsync(ctx, text, templates)

	reply := &models.Message{ID: uuid.NewString(), Sender: models.SenderAgent}

	lowered := strings.ToLower(text)
	var matched *models.Trigger
	for i := range triggers {
		if triggers[i].Matches(lowered) {
			matched = &triggers[i]
			break
		}
	}

	var meta models.MessageMetadata
	if matched != nil {
		meta.TriggerAction = matched.Action
		reply.TriggerID = matched.ID
	}
	if matched != nil && matched.Action == models.TriggerPredefined {
		reply.Text = matched.Response
	} else {
		in := ReplyInput{Message: text, Intent: s.State.Intent(), Templates: templates}
		if matched != nil {
			in.Guidance = matched.Response
		}
		emb := s.embed(ctx, text)
		if emb != nil {
			in.Related = s.related(ctx, emb)
			v := pgvector.NewVector(emb)
			reply.Embedding = &v
		}
		reply.Text = s.Assistant.Reply(ctx, in)
		meta.Related = in.Related
		meta.Fallback = reply.Text == ReplyFallback
	}
	reply.Metadata = datatypes.NewJSONType(meta)
	reply.Intent = s.State.Intent()
	reply.Timestamp = time.Now().UTC()

	if err := s.Messages.Insert(ctx, reply); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save reply", err)
	}
	s.publish(ctx, events.New(events.TypeMessage, reply))
	return reply, nil
}

func (s *chatService) History(ctx context.Context) ([]models.Message, error) {
	out, err := s.Messages.List(ctx, historyLimit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, "ChatService.History", "failed to list messages", err)
	}
	return out, nil
}

// suggestAsync applies the template suggestion whenever it resolves, even
// after the reply has been returned.
func (s *chatService) suggestAsync(ctx context.Context, text string, templates []models.Template) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sg := s.Assistant.SuggestTemplate(ctx, text, templates)
		if sg == (Suggestion{}) {
			return
		}
		snap := s.State.Apply(sg)
		s.publish(ctx, events.New(events.TypeSuggestion, snap))
	}()
}

func (s *chatService) embed(ctx context.Context, text string) []float32 {
	if s.Embedder == nil {
		return nil
	}
	emb, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		s.log.WithError(err).Debug("embedding failed")
		return nil
	}
	return emb
}

func (s *chatService) related(ctx context.Context, emb []float32) []string {
	near, err := s.Messages.Nearest(ctx, emb, relatedLimit)
	if err != nil {
		s.log.WithError(err).Debug("related replies lookup failed")
		return nil
	}
	out := make([]string, 0, len(near))
	for _, m := range near {
		out = append(out, m.Text)
	}
	return out
}

func (s *chatService) publish(ctx context.Context, ev events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).Debug("event not published")
	}
}
