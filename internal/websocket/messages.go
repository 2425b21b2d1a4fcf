package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeProgress  MessageType = "progress"
	MessageTypeFinished  MessageType = "finished"
	MessageTypeSubscribe MessageType = "subscribe"
	MessageTypePing      MessageType = "ping"
	MessageTypePong      MessageType = "pong"
	MessageTypeError     MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// ProgressMessage reports per-stage completion for an analysis run.
type ProgressMessage struct {
	BaseMessage
	RunID   string  `json:"run_id"`
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
}

// FinishedMessage is the terminal event for an analysis run. ReportID is
// empty when the run failed; Error is empty when it succeeded.
type FinishedMessage struct {
	BaseMessage
	RunID    string `json:"run_id"`
	ReportID string `json:"report_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SubscribeMessage narrows a client to events of specific runs. A client
// with no subscriptions receives every event.
type SubscribeMessage struct {
	BaseMessage
	RunID string `json:"run_id"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageValidator provides validation for incoming WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeSubscribe:
		var msg SubscribeMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid subscribe message: %w", err)
		}
		if msg.RunID == "" {
			return nil, fmt.Errorf("run_id is required")
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// CreateProgressMessage creates a progress event for one pipeline stage
func CreateProgressMessage(runID, stage string, percent float64) *ProgressMessage {
	return &ProgressMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeProgress,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		RunID:   runID,
		Stage:   stage,
		Percent: percent,
	}
}

// CreateFinishedMessage creates the terminal event for a run
func CreateFinishedMessage(runID, reportID string, err error) *FinishedMessage {
	msg := &FinishedMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeFinished,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		RunID:    runID,
		ReportID: reportID,
	}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Data: data,
	}
}
