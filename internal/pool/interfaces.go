package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityEngine/internal/model"
)

// TokenVault abstracts token custody. Balance reads must reflect transfers
// performed earlier in the same call chain.
type TokenVault interface {
	BalanceOf(token, account common.Address) (*uint256.Int, error)
	Transfer(token, to common.Address, amount *uint256.Int) error
}

// PaymentCallback is invoked by the engine mid-operation to settle payment.
// Each method must ensure the stated post-balance before returning. Signed
// swap deltas are positive when the caller owes the pool.
type PaymentCallback interface {
	OnMintPayment(owed0, owed1 *uint256.Int, data []byte) error
	OnSwapPayment(delta0, delta1 *big.Int, data []byte) error
	OnFlashPayment(fee0, fee1 *uint256.Int, data []byte) error
}

// EventSink receives every event the engine emits, in sequence order.
type EventSink interface {
	Record(event model.PoolEvent)
}
