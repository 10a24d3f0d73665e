package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"liquidityEngine/internal/fixedpoint"
	"liquidityEngine/internal/model"
	"liquidityEngine/internal/swapmath"
)

// Flash lends amount0 and amount1 to recipient for the duration of the
// callback. Repayment must cover the loan plus the pool fee on each amount;
// the fee is apportioned to the protocol and to fee growth like a swap fee.
func (p *Pool) Flash(sender, recipient common.Address, amount0, amount1 *uint256.Int, cb PaymentCallback, data []byte) error {
	if cb == nil {
		return fmt.Errorf("%w: nil payment callback", ErrInvalidConfig)
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if p.liquidity.IsZero() {
		return ErrNoLiquidity
	}

	fee0, err := fixedpoint.MulDivRoundingUp(amount0, uint256.NewInt(uint64(p.cfg.Fee)), uint256.NewInt(swapmath.FeeDenominator))
	if err != nil {
		return fmt.Errorf("flash: %w", err)
	}
	fee1, err := fixedpoint.MulDivRoundingUp(amount1, uint256.NewInt(uint64(p.cfg.Fee)), uint256.NewInt(swapmath.FeeDenominator))
	if err != nil {
		return fmt.Errorf("flash: %w", err)
	}

	balance0Before, err := p.balance0()
	if err != nil {
		return fmt.Errorf("flash: %w", err)
	}
	balance1Before, err := p.balance1()
	if err != nil {
		return fmt.Errorf("flash: %w", err)
	}

	if !amount0.IsZero() {
		if err = p.vault.Transfer(p.cfg.Token0, recipient, amount0); err != nil {
			return fmt.Errorf("flash loan transfer: %w", err)
		}
	}
	if !amount1.IsZero() {
		if err = p.vault.Transfer(p.cfg.Token1, recipient, amount1); err != nil {
			return fmt.Errorf("flash loan transfer: %w", err)
		}
	}

	if err = cb.OnFlashPayment(fee0, fee1, data); err != nil {
		return fmt.Errorf("flash payment callback: %w", err)
	}

	balance0After, err := p.balance0()
	if err != nil {
		return fmt.Errorf("flash: %w", err)
	}
	balance1After, err := p.balance1()
	if err != nil {
		return fmt.Errorf("flash: %w", err)
	}

	required0 := new(uint256.Int).Add(balance0Before, fee0)
	required1 := new(uint256.Int).Add(balance1Before, fee1)
	if balance0After.Lt(required0) || balance1After.Lt(required1) {
		return ErrInsufficientInput
	}

	paid0 := new(uint256.Int).Sub(balance0After, balance0Before)
	paid1 := new(uint256.Int).Sub(balance1After, balance1Before)

	if err = p.accrueFlashFee(paid0, p.slot0.FeeProtocol%16, &p.protocolFees0, p.feeGrowthGlobal0X128); err != nil {
		return fmt.Errorf("flash: %w", err)
	}
	if err = p.accrueFlashFee(paid1, p.slot0.FeeProtocol>>4, &p.protocolFees1, p.feeGrowthGlobal1X128); err != nil {
		return fmt.Errorf("flash: %w", err)
	}

	p.logger.Debug("flash",
		zap.String("recipient", recipient.Hex()),
		zap.String("amount0", amount0.Dec()),
		zap.String("amount1", amount1.Dec()),
	)
	p.emit("Flash", model.FlashEventData{
		Sender:    sender.Hex(),
		Recipient: recipient.Hex(),
		Amount0:   amount0.Dec(),
		Amount1:   amount1.Dec(),
		Paid0:     paid0.Dec(),
		Paid1:     paid1.Dec(),
	})
	return nil
}

// accrueFlashFee splits one token's repaid fee between the protocol
// accumulator and global fee growth.
func (p *Pool) accrueFlashFee(paid *uint256.Int, feeProtocol uint8, protocolFees *uint128.Uint128, feeGrowthGlobalX128 *uint256.Int) error {
	if paid.IsZero() {
		return nil
	}
	remainder := new(uint256.Int).Set(paid)
	if feeProtocol > 0 {
		slice := new(uint256.Int).Div(paid, uint256.NewInt(uint64(feeProtocol)))
		remainder.Sub(remainder, slice)
		*protocolFees = protocolFees.AddWrap(u128FromU256(slice))
	}
	growth, err := fixedpoint.MulDiv(remainder, fixedpoint.Q128, p.liquidity)
	if err != nil {
		return err
	}
	feeGrowthGlobalX128.Add(feeGrowthGlobalX128, growth)
	return nil
}
