package sqrtprice

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	sqrtPriceOne  = uint256.MustFromDecimal("79228162514264337593543950336") // price 1
	sqrtPrice121  = uint256.MustFromDecimal("87150978765690771352898345369") // price 1.21
	oneEther      = uint256.MustFromDecimal("1000000000000000000")
	pointOneEther = uint256.MustFromDecimal("100000000000000000")
)

func TestAmount0Delta(t *testing.T) {
	up, err := Amount0Delta(sqrtPriceOne, sqrtPrice121, oneEther, true)
	require.NoError(t, err)
	require.Equal(t, "90909090909090910", up.Dec())

	down, err := Amount0Delta(sqrtPriceOne, sqrtPrice121, oneEther, false)
	require.NoError(t, err)
	require.Equal(t, "90909090909090909", down.Dec())

	// Order of the two prices does not matter.
	swapped, err := Amount0Delta(sqrtPrice121, sqrtPriceOne, oneEther, true)
	require.NoError(t, err)
	require.Equal(t, up, swapped)

	zero, err := Amount0Delta(sqrtPriceOne, sqrtPriceOne, oneEther, true)
	require.NoError(t, err)
	require.True(t, zero.IsZero())
}

func TestAmount0DeltaZeroPrice(t *testing.T) {
	_, err := Amount0Delta(new(uint256.Int), sqrtPriceOne, oneEther, true)
	require.ErrorIs(t, err, ErrSqrtPriceZero)
}

func TestAmount1Delta(t *testing.T) {
	up, err := Amount1Delta(sqrtPriceOne, sqrtPrice121, oneEther, true)
	require.NoError(t, err)
	require.Equal(t, "100000000000000000", up.Dec())

	down, err := Amount1Delta(sqrtPriceOne, sqrtPrice121, oneEther, false)
	require.NoError(t, err)
	require.Equal(t, "99999999999999999", down.Dec())
}

func TestSignedDeltas(t *testing.T) {
	liquidity := new(big.Int).SetUint64(1e18)

	pos0, err := Amount0DeltaSigned(sqrtPriceOne, sqrtPrice121, liquidity)
	require.NoError(t, err)
	require.Equal(t, "90909090909090910", pos0.String())

	neg0, err := Amount0DeltaSigned(sqrtPriceOne, sqrtPrice121, new(big.Int).Neg(liquidity))
	require.NoError(t, err)
	require.Equal(t, "-90909090909090909", neg0.String())

	pos1, err := Amount1DeltaSigned(sqrtPriceOne, sqrtPrice121, liquidity)
	require.NoError(t, err)
	require.Equal(t, "100000000000000000", pos1.String())

	neg1, err := Amount1DeltaSigned(sqrtPriceOne, sqrtPrice121, new(big.Int).Neg(liquidity))
	require.NoError(t, err)
	require.Equal(t, "-99999999999999999", neg1.String())
}

func TestNextSqrtPriceFromInput(t *testing.T) {
	// Adding token1 raises the price by amount * Q96 / L exactly.
	next, err := NextSqrtPriceFromInput(sqrtPriceOne, oneEther, pointOneEther, false)
	require.NoError(t, err)
	require.Equal(t, sqrtPrice121, next)

	// Zero input leaves the price unchanged.
	same, err := NextSqrtPriceFromInput(sqrtPriceOne, oneEther, new(uint256.Int), true)
	require.NoError(t, err)
	require.Equal(t, sqrtPriceOne, same)

	// Adding token0 lowers the price.
	lower, err := NextSqrtPriceFromInput(sqrtPriceOne, oneEther, pointOneEther, true)
	require.NoError(t, err)
	require.True(t, lower.Lt(sqrtPriceOne))

	_, err = NextSqrtPriceFromInput(new(uint256.Int), oneEther, pointOneEther, true)
	require.ErrorIs(t, err, ErrSqrtPriceZero)
	_, err = NextSqrtPriceFromInput(sqrtPriceOne, new(uint256.Int), pointOneEther, true)
	require.ErrorIs(t, err, ErrLiquidityZero)
}

func TestNextSqrtPriceFromOutput(t *testing.T) {
	// Removing token1 lowers the price by ceil(amount * Q96 / L).
	next, err := NextSqrtPriceFromOutput(sqrtPriceOne, oneEther, pointOneEther, true)
	require.NoError(t, err)
	require.Equal(t, "71305346262837903834189555302", next.Dec())

	// Removing token0 raises the price.
	higher, err := NextSqrtPriceFromOutput(sqrtPriceOne, oneEther, pointOneEther, false)
	require.NoError(t, err)
	require.True(t, higher.Gt(sqrtPriceOne))

	// The pool cannot pay out its entire virtual reserve of token1.
	_, err = NextSqrtPriceFromOutput(sqrtPriceOne, oneEther, oneEther, true)
	require.ErrorIs(t, err, ErrInsufficientPool)
}

func TestNextPriceRoundingNeverOverpays(t *testing.T) {
	// Recomputing the output from the price move must not exceed the
	// requested output.
	amountOut := pointOneEther
	next, err := NextSqrtPriceFromOutput(sqrtPriceOne, oneEther, amountOut, true)
	require.NoError(t, err)
	back, err := Amount1Delta(next, sqrtPriceOne, oneEther, false)
	require.NoError(t, err)
	require.False(t, back.Gt(amountOut))
}
