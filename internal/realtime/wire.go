package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcoot/cardtable/internal/model"
)

// Message is the JSON envelope every outgoing event is wrapped in
type Message struct {
	Event model.EventName `json:"event"`
	Data  any             `json:"data"`
}

// RawMessage is a Message with its data left undecoded, for clients
type RawMessage struct {
	Event model.EventName `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewMessage wraps an event for the wire
func NewMessage(event model.Event) Message {
	data := event.Payload
	if data == nil {
		data = struct{}{}
	}
	return Message{Event: event.Name, Data: data}
}

// EncodeSSE formats an event as an SSE frame whose data is the JSON payload
func EncodeSSE(event model.Event) ([]byte, error) {
	data, err := json.Marshal(NewMessage(event).Data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event.Name, err)
	}
	return formatSSEMessage(string(event.Name), string(data)), nil
}

// formatSSEMessage formats an SSE message with event name and data
// Multi-line data is properly formatted with "data: " prefix on each line
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	lines := strings.Split(s, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
