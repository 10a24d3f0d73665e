package model

// PoolEvent is one emitted pool event enriched with ordering metadata.
// Sequence is assigned by the emitting engine and strictly increases per pool.
type PoolEvent struct {
	Sequence  uint64      `json:"sequence"`
	Pool      string      `json:"pool"`
	Timestamp uint32      `json:"timestamp"`
	EventName string      `json:"event_name"`
	Decoded   interface{} `json:"decoded"`
}
