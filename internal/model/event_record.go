package model

import "encoding/json"

// EventRecord is the JSON read-back form of PoolEvent. The payload stays raw
// until the consumer dispatches on the event name.
type EventRecord struct {
	Sequence  uint64          `json:"sequence"`
	Pool      string          `json:"pool"`
	Timestamp uint32          `json:"timestamp"`
	EventName string          `json:"event_name"`
	Decoded   json.RawMessage `json:"decoded"`
}
