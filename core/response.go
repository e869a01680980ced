package core

import "time"

type ResponseBase[T any] struct {
	Status  string `json:"status"`
	Content T      `json:"content"`
	Error   string `json:"error,omitempty"`
}

// V1Error is the error envelope of the /api/v1 surface
type V1Error struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
}

func NewV1Error(code, message string) V1Error {
	return V1Error{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// FanoutResult is the per-target outcome of a federation fan-out
type FanoutResult struct {
	Target string `json:"target"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
