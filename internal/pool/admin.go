package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"liquidityEngine/internal/model"
)

func validFeeProtocolNibble(v uint8) bool {
	return v == 0 || (v >= 4 && v <= 10)
}

// SetFeeProtocol sets the protocol's 1/n share of swap fees per token.
func (p *Pool) SetFeeProtocol(caller common.Address, feeProtocol0, feeProtocol1 uint8) error {
	if caller != p.cfg.Owner {
		return ErrUnauthorized
	}
	if !validFeeProtocolNibble(feeProtocol0) || !validFeeProtocolNibble(feeProtocol1) {
		return fmt.Errorf("%w: %d/%d", ErrInvalidFeeProtocol, feeProtocol0, feeProtocol1)
	}
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	old := p.slot0.FeeProtocol
	p.slot0.FeeProtocol = feeProtocol0 | feeProtocol1<<4

	p.logger.Info("protocol fee updated",
		zap.Uint8("fee_protocol0", feeProtocol0),
		zap.Uint8("fee_protocol1", feeProtocol1),
	)
	p.emit("SetFeeProtocol", model.SetFeeProtocolEventData{
		FeeProtocol0Old: old % 16,
		FeeProtocol1Old: old >> 4,
		FeeProtocol0New: feeProtocol0,
		FeeProtocol1New: feeProtocol1,
	})
	return nil
}

// CollectProtocol pays out accrued protocol fees, keeping one unit of any
// non-empty accumulator behind.
func (p *Pool) CollectProtocol(caller, recipient common.Address, amount0Requested, amount1Requested uint128.Uint128) (uint128.Uint128, uint128.Uint128, error) {
	if caller != p.cfg.Owner {
		return uint128.Zero, uint128.Zero, ErrUnauthorized
	}
	if err := p.lock(); err != nil {
		return uint128.Zero, uint128.Zero, err
	}
	defer p.unlock()

	amount0 := min128(amount0Requested, p.protocolFees0)
	amount1 := min128(amount1Requested, p.protocolFees1)

	if !amount0.IsZero() {
		if amount0.Equals(p.protocolFees0) {
			amount0 = amount0.Sub64(1)
		}
		p.protocolFees0 = p.protocolFees0.Sub(amount0)
		if !amount0.IsZero() {
			if err := p.vault.Transfer(p.cfg.Token0, recipient, u256FromU128(amount0)); err != nil {
				p.protocolFees0 = p.protocolFees0.Add(amount0)
				return uint128.Zero, uint128.Zero, fmt.Errorf("collect protocol: %w", err)
			}
		}
	}
	if !amount1.IsZero() {
		if amount1.Equals(p.protocolFees1) {
			amount1 = amount1.Sub64(1)
		}
		p.protocolFees1 = p.protocolFees1.Sub(amount1)
		if !amount1.IsZero() {
			if err := p.vault.Transfer(p.cfg.Token1, recipient, u256FromU128(amount1)); err != nil {
				p.protocolFees1 = p.protocolFees1.Add(amount1)
				return uint128.Zero, uint128.Zero, fmt.Errorf("collect protocol: %w", err)
			}
		}
	}

	p.emit("CollectProtocol", model.CollectProtocolEventData{
		Sender:    caller.Hex(),
		Recipient: recipient.Hex(),
		Amount0:   amount0.String(),
		Amount1:   amount1.String(),
	})
	return amount0, amount1, nil
}
