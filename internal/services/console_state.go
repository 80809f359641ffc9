package services

import "sync"

const DefaultIntent = "General"

// ConsoleState is the intent and suggested template shared by the chat and
// the live call. Suggestions land from background goroutines in whatever
// order they resolve, so the last writer wins.
type ConsoleState struct {
	mu                  sync.RWMutex
	intent              string
	suggestedTemplateID string
}

func NewConsoleState() *ConsoleState {
	return &ConsoleState{intent: DefaultIntent}
}

type ConsoleSnapshot struct {
	Intent              string `json:"intent"`
	SuggestedTemplateID string `json:"suggested_template_id,omitempty"`
}

func (s *ConsoleState) Snapshot() ConsoleSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ConsoleSnapshot{Intent: s.intent, SuggestedTemplateID: s.suggestedTemplateID}
}

func (s *ConsoleState) Intent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.intent
}

// Apply records the non-empty parts of a suggestion.
func (s *ConsoleState) Apply(sg Suggestion) ConsoleSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sg.Intent != "" {
		s.intent = sg.Intent
	}
	if sg.TemplateID != "" {
		s.suggestedTemplateID = sg.TemplateID
	}
	return ConsoleSnapshot{Intent: s.intent, SuggestedTemplateID: s.suggestedTemplateID}
}

func (s *ConsoleState) ClearSuggestion() {
	s.mu.Lock()
	s.suggestedTemplateID = ""
	s.mu.Unlock()
}
