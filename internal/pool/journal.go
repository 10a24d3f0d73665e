package pool

import (
	"github.com/holiman/uint256"

	"liquidityEngine/internal/tickbook"
)

// journal collects inverse actions so a failed operation can unwind its
// in-place mutations. Entries run in reverse order on revert.
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	j.undo = append(j.undo, fn)
}

func (j *journal) revert() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// snapshotTick records the current state of one tick record, including its
// absence.
func (j *journal) snapshotTick(book tickbook.Book, tick int32) {
	info, ok := book[tick]
	if !ok {
		j.record(func() { delete(book, tick) })
		return
	}
	saved := info.Clone()
	j.record(func() { book[tick] = saved })
}

// snapshotCore records slot0, active liquidity, and the oracle slots a write
// from the current index could land in.
func (p *Pool) snapshotCore(j *journal) {
	slot0 := p.slot0
	slot0.SqrtPriceX96 = new(uint256.Int).Set(p.slot0.SqrtPriceX96)
	liquidity := new(uint256.Int).Set(p.liquidity)

	index := p.slot0.ObservationIndex
	cardinality := p.slot0.ObservationCardinality
	cardinalityNext := p.slot0.ObservationCardinalityNext

	j.record(func() {
		p.slot0 = slot0
		p.liquidity = liquidity
	})
	if cardinality == 0 {
		return
	}
	// A write targets (index+1) modulo either the current or the grown
	// cardinality; save both candidate slots.
	a := (index + 1) % cardinality
	obsA := p.observations.At(a)
	j.record(func() { p.observations.Set(a, obsA) })
	if cardinalityNext > 0 {
		b := (index + 1) % cardinalityNext
		if b != a {
			obsB := p.observations.At(b)
			j.record(func() { p.observations.Set(b, obsB) })
		}
	}
}
