package model

import (
	"encoding/json"
	"testing"
)

func TestEventRecordRoundTrip(t *testing.T) {
	event := PoolEvent{
		Sequence:  7,
		Pool:      "0xcccccccccccccccccccccccccccccccccccccccc",
		Timestamp: 1234,
		EventName: "Swap",
		Decoded: SwapEventData{
			Sender:       "0x1111111111111111111111111111111111111111",
			Recipient:    "0x1111111111111111111111111111111111111111",
			Amount0:      "1000",
			Amount1:      "-996",
			SqrtPriceX96: "79228162514264337593543950336",
			Liquidity:    "1000000",
			Tick:         -1,
		},
	}

	line, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var record EventRecord
	if err := json.Unmarshal(line, &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record.Sequence != 7 || record.EventName != "Swap" || record.Timestamp != 1234 {
		t.Fatalf("header mismatch: %+v", record)
	}

	// The payload stays raw until dispatched on the event name.
	var swap SwapEventData
	if err := json.Unmarshal(record.Decoded, &swap); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if swap.Amount0 != "1000" || swap.Amount1 != "-996" || swap.Tick != -1 {
		t.Fatalf("payload mismatch: %+v", swap)
	}
}
