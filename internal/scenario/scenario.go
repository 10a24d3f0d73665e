// Package scenario loads and executes simulator scripts: a pool definition,
// funded accounts, and an ordered list of operations.
package scenario

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tidwall/gjson"
	"lukechampine.com/uint128"
)

var ErrBadScenario = errors.New("scenario: invalid scenario file")

// PoolParams describes the pool a scenario runs against.
type PoolParams struct {
	Token0      common.Address
	Token1      common.Address
	Address     common.Address
	Owner       common.Address
	Fee         uint32
	TickSpacing int32
}

// Account is a funded actor.
type Account struct {
	Address  common.Address
	Balance0 *uint256.Int
	Balance1 *uint256.Int
}

// Step is one operation. Fields are interpreted per Op.
type Step struct {
	Op string

	Sender    common.Address
	Owner     common.Address
	Recipient common.Address

	TickLower int32
	TickUpper int32

	Amount            *uint256.Int
	Amount0           *uint256.Int
	Amount1           *uint256.Int
	Amount0Requested  uint128.Uint128
	Amount1Requested  uint128.Uint128
	AmountSpecified   *big.Int
	SqrtPriceX96      *uint256.Int
	SqrtPriceLimitX96 *uint256.Int
	ZeroForOne        bool

	Seconds         uint32
	CardinalityNext uint16
	FeeProtocol0    uint8
	FeeProtocol1    uint8
}

// Scenario is a parsed scenario file.
type Scenario struct {
	Pool      PoolParams
	StartTime uint32
	Accounts  []Account
	Steps     []Step
}

// Load reads and parses a scenario file.
func Load(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a scenario document.
func Parse(raw []byte) (Scenario, error) {
	if !gjson.ValidBytes(raw) {
		return Scenario{}, fmt.Errorf("%w: not valid JSON", ErrBadScenario)
	}
	doc := gjson.ParseBytes(raw)

	var s Scenario
	poolNode := doc.Get("pool")
	if !poolNode.Exists() {
		return Scenario{}, fmt.Errorf("%w: missing pool section", ErrBadScenario)
	}
	s.Pool = PoolParams{
		Token0:      common.HexToAddress(poolNode.Get("token0").String()),
		Token1:      common.HexToAddress(poolNode.Get("token1").String()),
		Address:     common.HexToAddress(poolNode.Get("address").String()),
		Owner:       common.HexToAddress(poolNode.Get("owner").String()),
		Fee:         uint32(poolNode.Get("fee").Uint()),
		TickSpacing: int32(poolNode.Get("tick_spacing").Int()),
	}
	s.StartTime = uint32(doc.Get("start_time").Uint())
	if s.StartTime == 0 {
		s.StartTime = 1
	}

	for i, node := range doc.Get("accounts").Array() {
		balance0, err := parseU256(node.Get("balance0"))
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: account %d balance0: %v", ErrBadScenario, i, err)
		}
		balance1, err := parseU256(node.Get("balance1"))
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: account %d balance1: %v", ErrBadScenario, i, err)
		}
		s.Accounts = append(s.Accounts, Account{
			Address:  common.HexToAddress(node.Get("address").String()),
			Balance0: balance0,
			Balance1: balance1,
		})
	}

	for i, node := range doc.Get("steps").Array() {
		step, err := parseStep(node)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: step %d: %v", ErrBadScenario, i, err)
		}
		s.Steps = append(s.Steps, step)
	}
	if len(s.Steps) == 0 {
		return Scenario{}, fmt.Errorf("%w: no steps", ErrBadScenario)
	}
	return s, nil
}

func parseStep(node gjson.Result) (Step, error) {
	step := Step{
		Op:        node.Get("op").String(),
		Sender:    common.HexToAddress(node.Get("sender").String()),
		Owner:     common.HexToAddress(node.Get("owner").String()),
		Recipient: common.HexToAddress(node.Get("recipient").String()),
		TickLower: int32(node.Get("tick_lower").Int()),
		TickUpper: int32(node.Get("tick_upper").Int()),
		ZeroForOne: node.Get("zero_for_one").Bool(),
		Seconds:         uint32(node.Get("seconds").Uint()),
		CardinalityNext: uint16(node.Get("cardinality_next").Uint()),
		FeeProtocol0:    uint8(node.Get("fee_protocol0").Uint()),
		FeeProtocol1:    uint8(node.Get("fee_protocol1").Uint()),
	}
	if step.Op == "" {
		return Step{}, fmt.Errorf("missing op")
	}

	var err error
	if step.Amount, err = parseU256(node.Get("amount")); err != nil {
		return Step{}, fmt.Errorf("amount: %v", err)
	}
	if step.Amount0, err = parseU256(node.Get("amount0")); err != nil {
		return Step{}, fmt.Errorf("amount0: %v", err)
	}
	if step.Amount1, err = parseU256(node.Get("amount1")); err != nil {
		return Step{}, fmt.Errorf("amount1: %v", err)
	}
	if step.SqrtPriceX96, err = parseU256(node.Get("sqrt_price_x96")); err != nil {
		return Step{}, fmt.Errorf("sqrt_price_x96: %v", err)
	}
	if step.SqrtPriceLimitX96, err = parseU256(node.Get("sqrt_price_limit_x96")); err != nil {
		return Step{}, fmt.Errorf("sqrt_price_limit_x96: %v", err)
	}
	if step.Amount0Requested, err = parseU128(node.Get("amount0_requested")); err != nil {
		return Step{}, fmt.Errorf("amount0_requested: %v", err)
	}
	if step.Amount1Requested, err = parseU128(node.Get("amount1_requested")); err != nil {
		return Step{}, fmt.Errorf("amount1_requested: %v", err)
	}

	if raw := node.Get("amount_specified"); raw.Exists() {
		amount, ok := new(big.Int).SetString(raw.String(), 10)
		if !ok {
			return Step{}, fmt.Errorf("amount_specified: bad integer %q", raw.String())
		}
		step.AmountSpecified = amount
	}
	return step, nil
}

func parseU256(raw gjson.Result) (*uint256.Int, error) {
	if !raw.Exists() || raw.String() == "" {
		return new(uint256.Int), nil
	}
	out, err := uint256.FromDecimal(raw.String())
	if err != nil {
		return nil, fmt.Errorf("bad integer %q", raw.String())
	}
	return out, nil
}

func parseU128(raw gjson.Result) (uint128.Uint128, error) {
	if !raw.Exists() || raw.String() == "" {
		return uint128.Zero, nil
	}
	if raw.String() == "max" {
		return uint128.Max, nil
	}
	val, ok := new(big.Int).SetString(raw.String(), 10)
	if !ok || val.Sign() < 0 || val.BitLen() > 128 {
		return uint128.Zero, fmt.Errorf("bad integer %q", raw.String())
	}
	return uint128.FromBig(val), nil
}
