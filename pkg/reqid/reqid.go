// Package reqid maps a live subscription id to the (phase, expiry, symbol)
// triple it stands for. The mapping is pure arithmetic: three disjoint id
// ranges, no side table, so an incoming quote classifies itself.
package reqid

import "fmt"

// Phase tells which leg of the scan a subscription belongs to.
type Phase int

const (
	PhaseUnderlying Phase = iota
	PhaseOption
)

func (p Phase) String() string {
	if p == PhaseOption {
		return "option"
	}
	return "underlying"
}

// MaxSymbols bounds the symbol catalog. The arithmetic packs the symbol
// index into the low four decimal digits of the id, so index 10000 would
// collide with the next expiry's range. Enforced here rather than left as
// a silent wraparound.
const MaxSymbols = 10000

// optionOffset lifts option-leg ids above every plausible underlying id.
const optionOffset = 200000

// Encode builds the subscription id for a phase and catalog position.
// Panics on a symbol index outside the supported range; universes are
// validated against MaxSymbols at load time, so hitting this is a bug.
func Encode(phase Phase, expiryIdx, symbolIdx int) int {
	if symbolIdx < 0 || symbolIdx >= MaxSymbols {
		panic(fmt.Sprintf("reqid: symbol index %d outside [0,%d)", symbolIdx, MaxSymbols))
	}
	if expiryIdx < 0 {
		panic(fmt.Sprintf("reqid: negative expiry index %d", expiryIdx))
	}
	id := MaxSymbols*expiryIdx + symbolIdx
	if phase == PhaseOption {
		id += optionOffset
	}
	return id
}

// Decode recovers the phase and catalog position from a subscription id.
func Decode(id int) (Phase, int, int) {
	phase := PhaseUnderlying
	if id >= optionOffset {
		phase = PhaseOption
		id -= optionOffset
	}
	return phase, id / MaxSymbols, id % MaxSymbols
}
