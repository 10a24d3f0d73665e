package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	out, err := MulDiv(uint256.NewInt(5), uint256.NewInt(10), uint256.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(25), out)

	out, err = MulDiv(uint256.NewInt(50), uint256.NewInt(1), uint256.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(16), out)
}

func TestMulDivFullPrecision(t *testing.T) {
	// a*b overflows 256 bits but the quotient fits.
	out, err := MulDiv(Q128, Q128, Q128)
	require.NoError(t, err)
	require.Equal(t, Q128, out)

	max := new(uint256.Int).SetAllOne()
	out, err = MulDiv(max, max, max)
	require.NoError(t, err)
	require.Equal(t, max, out)
}

func TestMulDivErrors(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	_, err := MulDiv(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(0))
	require.ErrorIs(t, err, ErrDenominatorZero)

	_, err = MulDiv(max, max, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrMulDivOverflow)

	_, err = MulDivRoundingUp(max, max, uint256.NewInt(2))
	require.ErrorIs(t, err, ErrMulDivOverflow)
}

func TestMulDivRoundingUp(t *testing.T) {
	out, err := MulDivRoundingUp(uint256.NewInt(50), uint256.NewInt(1), uint256.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(17), out)

	// Exact division does not round.
	out, err = MulDivRoundingUp(uint256.NewInt(50), uint256.NewInt(2), uint256.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(25), out)
}

func TestDivRoundingUp(t *testing.T) {
	out, err := DivRoundingUp(uint256.NewInt(10), uint256.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(4), out)

	out, err = DivRoundingUp(uint256.NewInt(9), uint256.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(3), out)

	_, err = DivRoundingUp(uint256.NewInt(1), uint256.NewInt(0))
	require.ErrorIs(t, err, ErrDenominatorZero)
}

func TestQConstants(t *testing.T) {
	require.Equal(t, "79228162514264337593543950336", Q96.Dec())
	require.Equal(t, "340282366920938463463374607431768211456", Q128.Dec())
	require.Equal(t, "340282366920938463463374607431768211455", MaxUint128.Dec())
	require.Equal(t, 160, MaxUint160.BitLen())
}
