// Package storage provides the storage-layout rules: the append-only
// discipline for linear storage, gap bookkeeping, and ERC-7201 namespace
// evolution. Cross-version rules no-op for contracts without a reference
// version.
package storage

import (
	"math/big"

	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// Rules returns the full storage rule set.
func Rules() []lint.Rule {
	return []lint.Rule{
		NewNoDeletedVariableRule(),
		NewNoInsertedVariableRule(),
		NewNoRetypedVariableRule(),
		NewGapConsistencyRule(),
		NewNamespaceImmutableIDRule(),
		NewNamespaceAppendOnlyRule(),
		NewNoUnknownEncodingRule(),
	}
}

// inOldGap reports whether a slot falls inside a gap region of the old
// layout, and which contract owns that gap.
func inOldGap(ctx *lint.Context, slot *big.Int) (string, bool) {
	old := ctx.Delta.Old
	for _, gap := range old.Gaps() {
		slots := ctx.GapMatcher.GapSlots(old, gap)
		if slots == 0 {
			continue
		}
		end := new(big.Int).Add(gap.Slot, new(big.Int).SetUint64(slots))
		if slot.Cmp(gap.Slot) >= 0 && slot.Cmp(end) < 0 {
			return gap.Contract, true
		}
	}
	return "", false
}

// itemSlots returns the number of slots an item occupies in its layout.
func itemSlots(l *layout.Layout, item layout.Item) uint64 {
	if t, ok := l.Type(item.Type); ok && t.Slots() > 1 {
		return t.Slots()
	}
	return 1
}
