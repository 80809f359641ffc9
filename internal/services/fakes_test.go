package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/providers/llm"
)

type fakeLLM struct {
	mu    sync.Mutex
	reqs  []llm.Request
	out   string
	err   error
	reply func(req llm.Request) (string, error)
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.reply != nil {
		return f.reply(req)
	}
	return f.out, f.err
}

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type memCache struct {
	mu   sync.Mutex
	data map[string]any
}

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	*(dst.(*Suggestion)) = v.(Suggestion)
	return true, nil
}

func (c *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string]any{}
	}
	c.data[key] = val
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// stubAssistant records calls instead of generating text.
type stubAssistant struct {
	mu          sync.Mutex
	summary     string
	tasks       []models.Task
	suggestion  Suggestion
	reply       string
	replies     []ReplyInput
	summarized  []string
	suggestions int
}

func (a *stubAssistant) Summarize(_ context.Context, duration, transcript string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summarized = append(a.summarized, duration+"|"+transcript)
	return a.summary
}

func (a *stubAssistant) ExtractTasks(context.Context, string) []models.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Task(nil), a.tasks...)
}

func (a *stubAssistant) SuggestTemplate(context.Context, string, []models.Template) Suggestion {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.suggestions++
	return a.suggestion
}

func (a *stubAssistant) Reply(_ context.Context, in ReplyInput) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replies = append(a.replies, in)
	return a.reply
}

type memMessages struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (m *memMessages) Insert(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memMessages) List(_ context.Context, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Message(nil), m.msgs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memMessages) Nearest(context.Context, []float32, int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.msgs {
		if msg.Sender == models.SenderAgent && msg.Embedding != nil {
			out = append(out, msg)
		}
	}
	return out, nil
}
