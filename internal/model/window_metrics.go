package model

// WindowMetrics aggregates one pool's event stream over a fixed time window.
// Amount fields are decimal strings in raw token units.
type WindowMetrics struct {
	Pool            string  `json:"pool"`
	WindowSizeSecs  uint32  `json:"window_size_secs"`
	WindowStart     uint32  `json:"window_start"`
	WindowEnd       uint32  `json:"window_end"`
	SwapCount       uint64  `json:"swap_count"`
	MintCount       uint64  `json:"mint_count"`
	BurnCount       uint64  `json:"burn_count"`
	FlashCount      uint64  `json:"flash_count"`
	Volume0         string  `json:"volume0"`
	Volume1         string  `json:"volume1"`
	Fee0            string  `json:"fee0"`
	Fee1            string  `json:"fee1"`
	FeeRate0        *string `json:"fee_rate0,omitempty"`
	FeeRate1        *string `json:"fee_rate1,omitempty"`
	EndSqrtPriceX96 string  `json:"end_sqrt_price_x96,omitempty"`
	EndTick         int32   `json:"end_tick"`
	EndLiquidity    string  `json:"end_liquidity,omitempty"`
}
