package model

// Payload structs carried in PoolEvent.Decoded, one per emitted event name.
// Field names and JSON tags of the four canonical pool events (Swap, Mint,
// Burn, Collect) follow the on-chain ABI layout, so a recorded stream reads
// the same as decoded log output. Amounts are decimal strings in raw token
// units.

// InitializeEventData records the starting price of a pool.
type InitializeEventData struct {
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
}

// SwapEventData reports the signed amount deltas of a swap together with the
// price, tick, and in-range liquidity after it completed.
type SwapEventData struct {
	Sender       string `json:"sender"`
	Recipient    string `json:"recipient"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Liquidity    string `json:"liquidity"`
	Tick         int32  `json:"tick"`
}

// MintEventData reports liquidity added to a range and the token amounts the
// minter paid for it.
type MintEventData struct {
	Sender    string `json:"sender"`
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// BurnEventData reports liquidity removed from a range and the principal
// amounts credited to the position.
type BurnEventData struct {
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// CollectEventData reports owed tokens paid out of a position.
type CollectEventData struct {
	Owner     string `json:"owner"`
	Recipient string `json:"recipient"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}

// FlashEventData reports a flash loan. Paid amounts include the fee, so
// paid minus amount is the fee retained by the pool.
type FlashEventData struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	Paid0     string `json:"paid0"`
	Paid1     string `json:"paid1"`
}

// IncreaseObservationCardinalityNextEventData records growth of the oracle
// ring buffer's target cardinality.
type IncreaseObservationCardinalityNextEventData struct {
	CardinalityNextOld uint16 `json:"observation_cardinality_next_old"`
	CardinalityNextNew uint16 `json:"observation_cardinality_next_new"`
}

// SetFeeProtocolEventData records a change of the per-token protocol fee
// denominators.
type SetFeeProtocolEventData struct {
	FeeProtocol0Old uint8 `json:"fee_protocol0_old"`
	FeeProtocol1Old uint8 `json:"fee_protocol1_old"`
	FeeProtocol0New uint8 `json:"fee_protocol0_new"`
	FeeProtocol1New uint8 `json:"fee_protocol1_new"`
}

// CollectProtocolEventData records a withdrawal from the protocol fee
// accumulators.
type CollectProtocolEventData struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
}
