package models

type Stats struct {
	TotalCalls    int     `json:"total_calls"`
	PendingTasks  int     `json:"pending_tasks"`
	TemplateCount int     `json:"template_count"`
	TotalYield    float64 `json:"total_yield"`
}
