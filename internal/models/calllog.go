package models

import (
	"fmt"
	"time"
)

type CallStatus string

const (
	CallCompleted CallStatus = "completed"
	CallMissed    CallStatus = "missed"
	CallActive    CallStatus = "active"
)

type CallLog struct {
	ID              string     `bson:"id" json:"id"`
	Duration        string     `bson:"duration" json:"duration"` // "3m 7s"
	DurationSeconds int64      `bson:"duration_seconds" json:"duration_seconds"`
	Status          CallStatus `bson:"status" json:"status"`
	Transcript      string     `bson:"transcript" json:"transcript"`
	RecordingURL    string     `bson:"recording_url,omitempty" json:"recording_url,omitempty"`
	Timestamp       time.Time  `bson:"timestamp" json:"timestamp"`
}

// FormatDuration renders whole elapsed seconds as "<m>m <s>s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int64(d / time.Second)
	return fmt.Sprintf("%dm %ds", sec/60, sec%60)
}
