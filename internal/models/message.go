package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Message is one entry of the SMS-style chat history.
type Message struct {
	ID        string                              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Sender    Sender                              `gorm:"column:sender;type:text" json:"sender"`
	Text      string                              `gorm:"column:text;type:text" json:"text"`
	Intent    string                              `gorm:"column:intent;type:text" json:"intent,omitempty"`
	TriggerID string                              `gorm:"column:trigger_id;type:text" json:"trigger_id,omitempty"`
	Embedding *pgvector.Vector                    `gorm:"column:embedding;type:vector(768)" json:"-"`
	Timestamp time.Time                           `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata  datatypes.JSONType[MessageMetadata] `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

// MessageMetadata records how an agent reply was produced.
type MessageMetadata struct {
	TriggerAction TriggerAction `json:"trigger_action,omitempty"`
	Related       []string      `json:"related,omitempty"` // earlier replies given as context
	Fallback      bool          `json:"fallback,omitempty"`
}

func (Message) TableName() string { return "messages" }
