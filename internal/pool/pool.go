// Package pool implements the concentrated-liquidity pool engine: a
// single-instance state machine over tick-indexed liquidity, a position
// ledger, and a ring-buffer oracle. Token custody and payment settlement are
// delegated to injected TokenVault and PaymentCallback collaborators.
package pool

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"liquidityEngine/internal/model"
	"liquidityEngine/internal/oracle"
	"liquidityEngine/internal/position"
	"liquidityEngine/internal/swapmath"
	"liquidityEngine/internal/tickbitmap"
	"liquidityEngine/internal/tickbook"
	"liquidityEngine/internal/tickmath"
)

// Config carries the pool's immutables. Token0 must order before Token1.
type Config struct {
	Token0      common.Address
	Token1      common.Address
	Fee         uint32
	TickSpacing int32
	// Address is the pool's own vault account.
	Address common.Address
	// Owner may change and collect the protocol fee.
	Owner common.Address
}

// Slot0 is the packed mutable header of the pool.
type Slot0 struct {
	SqrtPriceX96               *uint256.Int
	Tick                       int32
	ObservationIndex           uint16
	ObservationCardinality     uint16
	ObservationCardinalityNext uint16
	// FeeProtocol packs two nibbles, token0 low, token1 high; each nibble is
	// 0 or in [4,10] and denotes the 1/n protocol share of swap fees.
	FeeProtocol uint8
	Unlocked    bool
}

// Pool is one pool instance. All mutating methods are cooperatively atomic:
// a reentrancy flag in slot0 rejects reentry through payment callbacks, and a
// mutex serializes the flag transitions across OS threads.
type Pool struct {
	cfg                 Config
	maxLiquidityPerTick *uint256.Int

	mu    sync.Mutex
	slot0 Slot0

	feeGrowthGlobal0X128 *uint256.Int
	feeGrowthGlobal1X128 *uint256.Int
	protocolFees0        uint128.Uint128
	protocolFees1        uint128.Uint128
	liquidity            *uint256.Int

	ticks        tickbook.Book
	bitmap       tickbitmap.Bitmap
	positions    position.Ledger
	observations *oracle.Oracle

	vault  TokenVault
	clock  Clock
	sink   EventSink
	logger *zap.Logger
	seq    uint64
}

// New constructs an uninitialized pool. A nil logger disables logging and a
// nil sink discards events.
func New(cfg Config, vault TokenVault, clock Clock, sink EventSink, logger *zap.Logger) (*Pool, error) {
	if bytes.Compare(cfg.Token0.Bytes(), cfg.Token1.Bytes()) >= 0 {
		return nil, fmt.Errorf("%w: token0 must order before token1", ErrInvalidConfig)
	}
	if cfg.Fee >= swapmath.FeeDenominator {
		return nil, fmt.Errorf("%w: fee %d out of range", ErrInvalidConfig, cfg.Fee)
	}
	if cfg.TickSpacing <= 0 || cfg.TickSpacing >= 16384 {
		return nil, fmt.Errorf("%w: tick spacing %d out of range", ErrInvalidConfig, cfg.TickSpacing)
	}
	if vault == nil || clock == nil {
		return nil, fmt.Errorf("%w: vault and clock are required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		cfg:                  cfg,
		maxLiquidityPerTick:  tickbook.MaxLiquidityPerTick(cfg.TickSpacing),
		slot0:                Slot0{SqrtPriceX96: new(uint256.Int)},
		feeGrowthGlobal0X128: new(uint256.Int),
		feeGrowthGlobal1X128: new(uint256.Int),
		liquidity:            new(uint256.Int),
		ticks:                tickbook.New(),
		bitmap:               tickbitmap.New(),
		positions:            position.New(),
		observations:         oracle.New(),
		vault:                vault,
		clock:                clock,
		sink:                 sink,
		logger:               logger,
	}, nil
}

// Initialize sets the starting price, seeds the oracle, and unlocks the pool.
func (p *Pool) Initialize(sqrtPriceX96 *uint256.Int) error {
	if !p.slot0.SqrtPriceX96.IsZero() {
		return ErrAlreadyInitialized
	}
	tick, err := tickmath.TickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	cardinality, cardinalityNext := p.observations.Initialize(p.clock.Now())
	p.slot0 = Slot0{
		SqrtPriceX96:               new(uint256.Int).Set(sqrtPriceX96),
		Tick:                       tick,
		ObservationCardinality:     cardinality,
		ObservationCardinalityNext: cardinalityNext,
		Unlocked:                   true,
	}

	p.logger.Info("pool initialized",
		zap.String("sqrt_price_x96", sqrtPriceX96.Dec()),
		zap.Int32("tick", tick),
	)
	p.emit("Initialize", model.InitializeEventData{
		SqrtPriceX96: sqrtPriceX96.Dec(),
		Tick:         tick,
	})
	return nil
}

// Slot0 returns a copy of the pool header.
func (p *Pool) Slot0() Slot0 {
	s := p.slot0
	s.SqrtPriceX96 = new(uint256.Int).Set(p.slot0.SqrtPriceX96)
	return s
}

// Liquidity returns the current in-range liquidity.
func (p *Pool) Liquidity() *uint256.Int {
	return new(uint256.Int).Set(p.liquidity)
}

// FeeGrowthGlobal returns both global fee accumulators.
func (p *Pool) FeeGrowthGlobal() (*uint256.Int, *uint256.Int) {
	return new(uint256.Int).Set(p.feeGrowthGlobal0X128), new(uint256.Int).Set(p.feeGrowthGlobal1X128)
}

// ProtocolFees returns the accrued protocol fees.
func (p *Pool) ProtocolFees() (uint128.Uint128, uint128.Uint128) {
	return p.protocolFees0, p.protocolFees1
}

// Position returns a copy of the record for (owner, lower, upper).
func (p *Pool) Position(owner common.Address, lower, upper int32) position.Info {
	info := p.positions.Get(owner, lower, upper)
	return position.Info{
		Liquidity:                new(uint256.Int).Set(info.Liquidity),
		FeeGrowthInside0LastX128: new(uint256.Int).Set(info.FeeGrowthInside0LastX128),
		FeeGrowthInside1LastX128: new(uint256.Int).Set(info.FeeGrowthInside1LastX128),
		TokensOwed0:              info.TokensOwed0,
		TokensOwed1:              info.TokensOwed1,
	}
}

// Tick returns a copy of the record for tick and whether it is initialized.
func (p *Pool) Tick(tick int32) (tickbook.Info, bool) {
	info, ok := p.ticks[tick]
	if !ok {
		return tickbook.Info{}, false
	}
	return *info.Clone(), info.Initialized
}

// lock takes the reentrancy flag, failing when the pool is mid-operation or
// not yet initialized.
func (p *Pool) lock() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.slot0.Unlocked {
		return ErrLocked
	}
	p.slot0.Unlocked = false
	return nil
}

func (p *Pool) unlock() {
	p.mu.Lock()
	p.slot0.Unlocked = true
	p.mu.Unlock()
}

func (p *Pool) balance0() (*uint256.Int, error) {
	return p.vault.BalanceOf(p.cfg.Token0, p.cfg.Address)
}

func (p *Pool) balance1() (*uint256.Int, error) {
	return p.vault.BalanceOf(p.cfg.Token1, p.cfg.Address)
}

func (p *Pool) emit(name string, decoded interface{}) {
	if p.sink == nil {
		return
	}
	p.seq++
	p.sink.Record(model.PoolEvent{
		Sequence:  p.seq,
		Pool:      p.cfg.Address.Hex(),
		Timestamp: p.clock.Now(),
		EventName: name,
		Decoded:   decoded,
	})
}

// applyLiquidityDelta adds a signed delta to a 128-bit liquidity value.
func applyLiquidityDelta(liquidity *uint256.Int, delta *big.Int) (*uint256.Int, error) {
	next := new(big.Int).Add(liquidity.ToBig(), delta)
	if next.Sign() < 0 || next.BitLen() > 128 {
		return nil, ErrLiquidityOverflow
	}
	out, _ := uint256.FromBig(next)
	return out, nil
}

// owedFromBig truncates a non-negative amount to a 128-bit owed increment.
// Overflow wraps; owners collect before the accumulator would overflow.
func owedFromBig(amount *big.Int) uint128.Uint128 {
	masked := new(big.Int).And(amount, maxUint128Big)
	return uint128.FromBig(masked)
}

var maxUint128Big = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
