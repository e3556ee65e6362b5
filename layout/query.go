package layout

import (
	"math/big"
)

// ItemsOf returns the items declared by the given fully qualified contract,
// preserving slot order.
func (l *Layout) ItemsOf(contract string) []Item {
	items := make([]Item, 0, len(l.items))
	for _, item := range l.items {
		if item.Contract == contract {
			items = append(items, item)
		}
	}
	return items
}

// ItemByLabel returns the first item with the given label.
func (l *Layout) ItemByLabel(label string) (Item, bool) {
	for _, item := range l.items {
		if item.Label == label {
			return item, true
		}
	}
	return Item{}, false
}

// DeclaringContracts returns the distinct declaring contracts in slot order
// of first appearance. For a linearized layout this is base-most first.
func (l *Layout) DeclaringContracts() []string {
	seen := make(map[string]bool, 4)
	contracts := make([]string, 0, 4)
	for _, item := range l.items {
		if !seen[item.Contract] {
			seen[item.Contract] = true
			contracts = append(contracts, item.Contract)
		}
	}
	return contracts
}

// EndSlot returns the first slot past the layout's linear extent: the slot
// after the last item's final occupied slot. An empty layout ends at slot 0.
func (l *Layout) EndSlot() *big.Int {
	if len(l.items) == 0 {
		return big.NewInt(0)
	}

	last := l.items[len(l.items)-1]
	end := new(big.Int).Set(last.Slot)

	slots := uint64(1)
	if t, ok := l.Type(last.Type); ok && t.Slots() > 1 {
		slots = t.Slots()
	}
	return end.Add(end, new(big.Int).SetUint64(slots))
}

// Covers reports whether the given slot lies inside the layout's linear
// extent (before EndSlot).
func (l *Layout) Covers(slot *big.Int) bool {
	if slot.Sign() < 0 {
		return false
	}
	return slot.Cmp(l.EndSlot()) < 0
}

// IsEmpty reports whether the layout has no linear items and no namespaces.
func (l *Layout) IsEmpty() bool {
	return len(l.items) == 0 && len(l.namespaces) == 0
}
