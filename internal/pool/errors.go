package pool

import "errors"

var (
	ErrInvalidConfig       = errors.New("pool: invalid configuration")
	ErrNotInitialized      = errors.New("pool: not initialized")
	ErrAlreadyInitialized  = errors.New("pool: already initialized")
	ErrLocked              = errors.New("pool: locked")
	ErrInvalidTickRange    = errors.New("pool: lower tick must be below upper tick")
	ErrTickOutOfBounds     = errors.New("pool: tick outside global bounds")
	ErrTickNotSpaced       = errors.New("pool: tick is not a multiple of spacing")
	ErrTickNotInitialized  = errors.New("pool: range endpoint not initialized")
	ErrLiquidityOverflow   = errors.New("pool: liquidity exceeds 128 bits")
	ErrNoLiquidity         = errors.New("pool: no in-range liquidity")
	ErrZeroAmount          = errors.New("pool: amount must be non-zero")
	ErrPriceLimitOutOfRange = errors.New("pool: price limit outside allowed range")
	ErrInsufficientInput   = errors.New("pool: insufficient input amount paid")
	ErrUnauthorized        = errors.New("pool: caller is not the owner")
	ErrInvalidFeeProtocol  = errors.New("pool: protocol fee fraction out of range")
)
