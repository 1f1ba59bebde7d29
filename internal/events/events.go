package events

import (
	"encoding/json"
	"time"
)

const Version = 1

// Event types.
const (
	TypeNotice         = "notice"
	TypeLeadsChanged   = "leads_changed"
	TypeRunsChanged    = "runs_changed"
	TypeExportSettled  = "export_settled"
	TypeConfigReloaded = "config_reloaded"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a short-lived user-facing message. Nothing stores it; clients
// that are not subscribed when it is published never see it.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}
