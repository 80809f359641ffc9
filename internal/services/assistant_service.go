package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/barta/internal/cache"
	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/providers/llm"
)

const (
	SummaryFallback      = "Call completed. Summary unavailable."
	SummaryEmptyFallback = "Business inquiry handled by AI agent."
	ReplyFallback        = "Error processing request."
	ReplyEmptyFallback   = "Thinking..."

	suggestionTTL = 10 * time.Minute
)

// GenerationError wraps any failure of the text endpoint, including
// responses that do not match the requested schema. It never reaches users.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string { return e.Op + ": generation failed: " + e.Err.Error() }

func (e *GenerationError) Unwrap() error { return e.Err }

type Suggestion struct {
	TemplateID string `json:"template_id,omitempty"`
	Intent     string `json:"intent,omitempty"`
}

type ReplyInput struct {
	Message   string
	Intent    string
	Templates []models.Template
	// Guidance comes from an ai_guided trigger.
	Guidance string
	// Related holds earlier replies to similar inquiries.
	Related []string
}

// AssistantService groups the one-shot text-generation calls. None of its
// methods fail: every error is logged and replaced by a fixed fallback.
type AssistantService interface {
	Summarize(ctx context.Context, duration, transcript string) string
	ExtractTasks(ctx context.Context, summary string) []models.Task
	SuggestTemplate(ctx context.Context, message string, templates []models.Template) Suggestion
	Reply(ctx context.Context, in ReplyInput) string
}

type assistantService struct {
	llm   llm.Provider
	cache cache.Cache
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewAssistantService(provider llm.Provider, c cache.Cache, log logrus.FieldLogger) AssistantService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &assistantService{
		llm:   provider,
		cache: c,
		log:   log.WithField("component", "assistant"),
		now:   time.Now,
	}
}

func (s *assistantService) generate(ctx context.Context, op string, req llm.Request) (string, error) {
	if s.llm == nil {
		return "", &GenerationError{Op: op, Err: errors.New("no text provider configured")}
	}
	out, err := s.llm.Generate(ctx, req)
	if err != nil {
		return "", &GenerationError{Op: op, Err: err}
	}
	return out, nil
}

func (s *assistantService) Summarize(ctx context.Context, duration, transcript string) string {
	const op = "AssistantService.Summarize"

	prompt := fmt.Sprintf("Generate a realistic 1-sentence business summary for a phone call that lasted %s. The caller was interested in our services. Mention a possible next step.", duration)
	if t := strings.TrimSpace(transcript); t != "" {
		prompt = fmt.Sprintf("Write a 1-sentence business summary of a phone call that lasted %s. Mention a possible next step. What the caller said: %q", duration, t)
	}

	out, err := s.generate(ctx, op, llm.Request{
		Prompt:            prompt,
		SystemInstruction: "You are an AI assistant summarizing business calls. Be concise and professional.",
	})
	if err != nil {
		s.log.WithError(err).Warn("summary generation failed")
		return SummaryFallback
	}
	if strings.TrimSpace(out) == "" {
		return SummaryEmptyFallback
	}
	return strings.TrimSpace(out)
}

var taskSchema = &llm.Schema{
	Type: llm.TypeArray,
	Items: &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"title":       {Type: llm.TypeString},
			"description": {Type: llm.TypeString},
			"priority":    {Type: llm.TypeString, Enum: []string{"low", "medium", "high"}},
		},
		Required: []string{"title", "description", "priority"},
	},
}

type generatedTask struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
}

func (g generatedTask) validate() error {
	switch {
	case g.Title == nil || strings.TrimSpace(*g.Title) == "":
		return errors.New("task title missing")
	case g.Description == nil:
		return errors.New("task description missing")
	case g.Priority == nil || !models.Priority(strings.ToLower(strings.TrimSpace(*g.Priority))).Valid():
		return errors.New("task priority missing or invalid")
	}
	return nil
}

func (s *assistantService) ExtractTasks(ctx context.Context, summary string) []models.Task {
	tasks, err := s.extractTasks(ctx, summary)
	if err != nil {
		s.log.WithError(err).Warn("task extraction failed")
		return nil
	}
	return tasks
}

func (s *assistantService) extractTasks(ctx context.Context, summary string) ([]models.Task, error) {
	const op = "AssistantService.ExtractTasks"

	out, err := s.generate(ctx, op, llm.Request{
		Prompt:            fmt.Sprintf("Based on this call summary: %q, generate 1-2 actionable follow-up tasks for a business owner.", summary),
		SystemInstruction: "You are an operations assistant. Extract specific business follow-up tasks.",
		Schema:            taskSchema,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out) == "" {
		out = "[]"
	}

	var raw []generatedTask
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, &GenerationError{Op: op, Err: fmt.Errorf("malformed task json: %w", err)}
	}

	now := s.now().UTC()
	tasks := make([]models.Task, 0, len(raw))
	for i, g := range raw {
		if err := g.validate(); err != nil {
			return nil, &GenerationError{Op: op, Err: fmt.Errorf("task %d: %w", i, err)}
		}
		tasks = append(tasks, models.Task{
			ID:          uuid.NewString(),
			Title:       strings.TrimSpace(*g.Title),
			Description: strings.TrimSpace(*g.Description),
			Priority:    models.Priority(strings.ToLower(strings.TrimSpace(*g.Priority))),
			Timestamp:   now,
		})
	}
	return tasks, nil
}

var suggestionSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"templateId": {Type: llm.TypeString, Nullable: true, Description: "The ID of the most relevant template, or null if none fit."},
		"intent":     {Type: llm.TypeString, Description: "One word category for the inquiry (e.g. Pricing, Booking, Greeting)"},
	},
}

type generatedSuggestion struct {
	TemplateID *string `json:"templateId"`
	Intent     *string `json:"intent"`
}

func (s *assistantService) SuggestTemplate(ctx context.Context, message string, templates []models.Template) Suggestion {
	const op = "AssistantService.SuggestTemplate"

	if len(templates) == 0 || strings.TrimSpace(message) == "" {
		return Suggestion{}
	}

	key := cache.Key("suggest", message, templates)
	if s.cache != nil {
		var hit Suggestion
		if ok, err := s.cache.GetJSON(ctx, key, &hit); err == nil && ok {
			return hit
		}
	}

	catalog, _ := json.Marshal(templates)
	out, err := s.generate(ctx, op, llm.Request{
		Prompt:            fmt.Sprintf("User message: %q. Available templates: %s. Which template and intent match best?", message, catalog),
		SystemInstruction: "Analyze business inquiries to identify intent and route to templates.",
		Schema:            suggestionSchema,
	})
	if err != nil {
		s.log.WithError(err).Debug("template suggestion failed")
		return Suggestion{}
	}

	var g generatedSuggestion
	if strings.TrimSpace(out) != "" {
		if err := json.Unmarshal([]byte(out), &g); err != nil {
			s.log.WithError(&GenerationError{Op: op, Err: err}).Debug("template suggestion unparseable")
			return Suggestion{}
		}
	}

	var sg Suggestion
	if g.Intent != nil {
		sg.Intent = strings.TrimSpace(*g.Intent)
	}
	if g.TemplateID != nil {
		for _, t := range templates {
			if t.ID == *g.TemplateID {
				sg.TemplateID = t.ID
				break
			}
		}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, sg, suggestionTTL); err != nil {
			s.log.WithError(err).Debug("suggestion cache write failed")
		}
	}
	return sg
}

func (s *assistantService) Reply(ctx context.Context, in ReplyInput) string {
	const op = "AssistantService.Reply"

	contents := make([]string, 0, len(in.Templates))
	for _, t := range in.Templates {
		contents = append(contents, t.Content)
	}
	intent := in.Intent
	if intent == "" {
		intent = DefaultIntent
	}

	var sys strings.Builder
	fmt.Fprintf(&sys, "Automated SMS Agent. Intent Detected: %s. Knowledge Context: %s", intent, strings.Join(contents, " | "))
	if g := strings.TrimSpace(in.Guidance); g != "" {
		fmt.Fprintf(&sys, ". Operator guidance: %s", g)
	}
	if len(in.Related) > 0 {
		fmt.Fprintf(&sys, ". Earlier replies to similar inquiries: %s", strings.Join(in.Related, " | "))
	}

	out, err := s.generate(ctx, op, llm.Request{Prompt: in.Message, SystemInstruction: sys.String()})
	if err != nil {
		s.log.WithError(err).Warn("reply generation failed")
		return ReplyFallback
	}
	if strings.TrimSpace(out) == "" {
		return ReplyEmptyFallback
	}
	return out
}
