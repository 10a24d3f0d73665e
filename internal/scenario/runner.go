package scenario

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityEngine/internal/pool"
	"liquidityEngine/internal/vault"
)

// Runner executes scenario steps against a freshly built pool, funding
// accounts in an in-memory vault and auto-paying callbacks from the step's
// sender (from the recipient for flash repayments).
type Runner struct {
	scenario Scenario
	pool     *pool.Pool
	vault    *vault.Vault
	clock    *pool.ManualClock
	logger   *zap.Logger
}

// NewRunner builds the pool, vault, and clock for one scenario.
func NewRunner(s Scenario, sink pool.EventSink, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := vault.New()
	for _, account := range s.Accounts {
		v.Credit(s.Pool.Token0, account.Address, account.Balance0)
		v.Credit(s.Pool.Token1, account.Address, account.Balance1)
	}

	clock := pool.NewManualClock(s.StartTime)
	p, err := pool.New(pool.Config{
		Token0:      s.Pool.Token0,
		Token1:      s.Pool.Token1,
		Fee:         s.Pool.Fee,
		TickSpacing: s.Pool.TickSpacing,
		Address:     s.Pool.Address,
		Owner:       s.Pool.Owner,
	}, v.Bind(s.Pool.Address), clock, sink, logger)
	if err != nil {
		return nil, err
	}

	return &Runner{scenario: s, pool: p, vault: v, clock: clock, logger: logger}, nil
}

// Pool returns the pool under simulation.
func (r *Runner) Pool() *pool.Pool {
	return r.pool
}

// Vault returns the backing token ledger.
func (r *Runner) Vault() *vault.Vault {
	return r.vault
}

// Clock returns the simulation clock.
func (r *Runner) Clock() *pool.ManualClock {
	return r.clock
}

// Run executes every step in order, stopping at the first failure.
func (r *Runner) Run() error {
	for i, step := range r.scenario.Steps {
		if err := r.runStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		r.logger.Debug("step done", zap.Int("index", i), zap.String("op", step.Op))
	}
	return nil
}

func (r *Runner) runStep(step Step) error {
	sender := r.actor(step.Sender)
	switch step.Op {
	case "initialize":
		return r.pool.Initialize(step.SqrtPriceX96)
	case "grow_oracle":
		return r.pool.IncreaseObservationCardinalityNext(step.CardinalityNext)
	case "advance_time":
		r.clock.Advance(step.Seconds)
		return nil
	case "mint":
		owner := step.Owner
		if owner == (common.Address{}) {
			owner = sender
		}
		_, _, err := r.pool.Mint(sender, owner, step.TickLower, step.TickUpper, step.Amount, r.payer(sender, nil, nil), nil)
		return err
	case "swap":
		recipient := step.Recipient
		if recipient == (common.Address{}) {
			recipient = sender
		}
		_, _, err := r.pool.Swap(sender, recipient, step.ZeroForOne, step.AmountSpecified, step.SqrtPriceLimitX96, r.payer(sender, nil, nil), nil)
		return err
	case "burn":
		owner := step.Owner
		if owner == (common.Address{}) {
			owner = sender
		}
		_, _, err := r.pool.Burn(owner, step.TickLower, step.TickUpper, step.Amount)
		return err
	case "collect":
		owner := step.Owner
		if owner == (common.Address{}) {
			owner = sender
		}
		recipient := step.Recipient
		if recipient == (common.Address{}) {
			recipient = owner
		}
		_, _, err := r.pool.Collect(owner, recipient, step.TickLower, step.TickUpper, step.Amount0Requested, step.Amount1Requested)
		return err
	case "flash":
		recipient := step.Recipient
		if recipient == (common.Address{}) {
			recipient = sender
		}
		return r.pool.Flash(sender, recipient, step.Amount0, step.Amount1, r.payer(recipient, step.Amount0, step.Amount1), nil)
	case "set_protocol_fee":
		return r.pool.SetFeeProtocol(sender, step.FeeProtocol0, step.FeeProtocol1)
	case "collect_protocol":
		recipient := step.Recipient
		if recipient == (common.Address{}) {
			recipient = sender
		}
		_, _, err := r.pool.CollectProtocol(sender, recipient, step.Amount0Requested, step.Amount1Requested)
		return err
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// actor resolves an unset address to the scenario's first account.
func (r *Runner) actor(addr common.Address) common.Address {
	if addr != (common.Address{}) && len(r.scenario.Accounts) > 0 {
		return addr
	}
	if len(r.scenario.Accounts) > 0 {
		return r.scenario.Accounts[0].Address
	}
	return addr
}

func (r *Runner) payer(payerAddr common.Address, loan0, loan1 *uint256.Int) pool.PaymentCallback {
	return &autopay{
		vault:    r.vault,
		payer:    payerAddr,
		poolAddr: r.scenario.Pool.Address,
		token0:   r.scenario.Pool.Token0,
		token1:   r.scenario.Pool.Token1,
		loan0:    loan0,
		loan1:    loan1,
	}
}

// autopay settles callbacks by transferring the owed amounts from the payer
// to the pool. For flash, repayment is loan plus fee.
type autopay struct {
	vault    *vault.Vault
	payer    common.Address
	poolAddr common.Address
	token0   common.Address
	token1   common.Address
	loan0    *uint256.Int
	loan1    *uint256.Int
}

func (a *autopay) OnMintPayment(owed0, owed1 *uint256.Int, _ []byte) error {
	if !owed0.IsZero() {
		if err := a.vault.TransferFrom(a.token0, a.payer, a.poolAddr, owed0); err != nil {
			return err
		}
	}
	if !owed1.IsZero() {
		if err := a.vault.TransferFrom(a.token1, a.payer, a.poolAddr, owed1); err != nil {
			return err
		}
	}
	return nil
}

func (a *autopay) OnSwapPayment(delta0, delta1 *big.Int, _ []byte) error {
	if delta0.Sign() > 0 {
		owed, _ := uint256.FromBig(delta0)
		if err := a.vault.TransferFrom(a.token0, a.payer, a.poolAddr, owed); err != nil {
			return err
		}
	}
	if delta1.Sign() > 0 {
		owed, _ := uint256.FromBig(delta1)
		if err := a.vault.TransferFrom(a.token1, a.payer, a.poolAddr, owed); err != nil {
			return err
		}
	}
	return nil
}

func (a *autopay) OnFlashPayment(fee0, fee1 *uint256.Int, _ []byte) error {
	repay0 := new(uint256.Int).Set(fee0)
	if a.loan0 != nil {
		repay0.Add(repay0, a.loan0)
	}
	repay1 := new(uint256.Int).Set(fee1)
	if a.loan1 != nil {
		repay1.Add(repay1, a.loan1)
	}
	if !repay0.IsZero() {
		if err := a.vault.TransferFrom(a.token0, a.payer, a.poolAddr, repay0); err != nil {
			return err
		}
	}
	if !repay1.IsZero() {
		if err := a.vault.TransferFrom(a.token1, a.payer, a.poolAddr, repay1); err != nil {
			return err
		}
	}
	return nil
}
