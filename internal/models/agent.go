package models

type AgentStatus string

const (
	AgentIdle      AgentStatus = "IDLE"
	AgentListening AgentStatus = "LISTENING"
	AgentSpeaking  AgentStatus = "SPEAKING"
	AgentError     AgentStatus = "ERROR"
)

func (s AgentStatus) Valid() bool {
	switch s {
	case AgentIdle, AgentListening, AgentSpeaking, AgentError:
		return true
	}
	return false
}
