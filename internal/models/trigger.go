package models

import "strings"

type TriggerAction string

const (
	TriggerPredefined TriggerAction = "predefined"
	TriggerAIGuided   TriggerAction = "ai_guided"
)

// Trigger short-circuits the chat reply when its keyword appears in a message.
type Trigger struct {
	ID       string        `bson:"id" json:"id"`
	Keyword  string        `bson:"keyword" json:"keyword"`
	Action   TriggerAction `bson:"action" json:"action"`
	Response string        `bson:"response" json:"response"` // fixed reply, or guidance for ai_guided
}

// Matches reports whether the lowercased message contains the keyword.
func (t Trigger) Matches(lowered string) bool {
	kw := strings.ToLower(strings.TrimSpace(t.Keyword))
	return kw != "" && strings.Contains(lowered, kw)
}

func DefaultTriggers() []Trigger {
	return []Trigger{
		{ID: "t1", Keyword: "hello", Action: TriggerPredefined, Response: "Hi there! How can Barta-AI help your business today?"},
	}
}
