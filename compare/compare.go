// Package compare computes structural diffs between two storage layouts of
// the same contract across versions. It is a pure classifier: it records what
// moved, what was deleted and what was appended, and leaves turning those
// changes into findings to the lint rules.
package compare

import (
	"math/big"

	"github.com/CoveMB/openzeppelin-upgrades/layout"
)

// Pair is an old item and the new item occupying the same location.
type Pair struct {
	Old layout.Item
	New layout.Item

	// LabelChanged reports a different variable name at the same location.
	LabelChanged bool

	// Renamed reports a label change that the new declaration acknowledges
	// with a rename annotation naming the old label.
	Renamed bool

	// TypeChanged reports a different type ref at the same location.
	TypeChanged bool

	// Compatible reports whether the new type is layout-compatible with the
	// old one (see TypesCompatible). Always true when TypeChanged is false.
	Compatible bool
}

// Delta is the classified difference between two layouts.
type Delta struct {
	Old *layout.Layout
	New *layout.Layout

	// Pairs are location-matched items, in slot order.
	Pairs []Pair

	// Deleted are old items whose location holds nothing in the new layout.
	Deleted []layout.Item

	// Appended are unmatched new items past the old layout's end of data,
	// including items packing into free tail bytes of the last old slot.
	Appended []layout.Item

	// Inserted are unmatched new items inside the old layout's extent. An
	// insertion shifts every successor and is never upgrade-safe on its own.
	Inserted []layout.Item

	// GapDelta maps each declaring contract to the gap slots it gained
	// (positive) or gave up (negative) between versions.
	GapDelta map[string]int64

	// Namespaces are per-id diffs for ERC-7201 namespaces present in both
	// layouts. Added and Removed hold the ids present on only one side.
	Namespaces []NamespaceDelta
	Added      []layout.Namespace
	Removed    []layout.Namespace
}

// NamespaceDelta is the member-level diff of one ERC-7201 namespace. Member
// slots are relative to the namespace's base slot, so the linear classifier
// applies unchanged.
type NamespaceDelta struct {
	ID  string
	Old layout.Namespace
	New layout.Namespace

	// StructChanged reports that the namespace points at a different struct
	// type ref. Member diffs below still apply.
	StructChanged bool

	Pairs    []Pair
	Deleted  []layout.Item
	Appended []layout.Item
	Inserted []layout.Item
}

// HasChanges reports whether the delta contains any structural difference.
func (d *Delta) HasChanges() bool {
	if len(d.Deleted) > 0 || len(d.Appended) > 0 || len(d.Inserted) > 0 {
		return true
	}
	if len(d.Added) > 0 || len(d.Removed) > 0 {
		return true
	}
	for _, p := range d.Pairs {
		if p.LabelChanged || p.TypeChanged {
			return true
		}
	}
	for _, ns := range d.Namespaces {
		if ns.StructChanged || len(ns.Deleted) > 0 || len(ns.Appended) > 0 || len(ns.Inserted) > 0 {
			return true
		}
		for _, p := range ns.Pairs {
			if p.LabelChanged || p.TypeChanged {
				return true
			}
		}
	}
	return false
}

// AppendedSlotsOf returns the number of slots the appends declared by the
// given contract occupy in the new layout.
func (d *Delta) AppendedSlotsOf(contract string) int64 {
	var total int64
	for _, item := range d.Appended {
		if item.Contract != contract {
			continue
		}
		slots := uint64(1)
		if t, ok := d.New.Type(item.Type); ok && t.Slots() > 1 {
			slots = t.Slots()
		}
		total += int64(slots)
	}
	return total
}

// Compare diffs two layouts of the same contract. Old is the reference
// version, new the version under check.
func Compare(old, newer *layout.Layout) *Delta {
	d := &Delta{Old: old, New: newer}

	endSlot, endByte := dataEnd(old.Items(), old)
	d.Pairs, d.Deleted, d.Appended, d.Inserted =
		classify(old.Items(), newer.Items(), old, newer, endSlot, endByte)

	d.GapDelta = gapDelta(old, newer)
	d.diffNamespaces()

	return d
}

// classify location-matches two sorted item lists. Unmatched new items split
// into appends (past the old end of data) and inserts (inside the old
// extent). endByte is the first free byte of the last old slot, 0 when that
// slot is fully occupied; an item starting at or past it packs into the tail
// without shifting anything and counts as an append.
func classify(oldItems, newItems []layout.Item, oldLay, newLay *layout.Layout, oldEnd *big.Int, endByte int) (pairs []Pair, deleted, appended, inserted []layout.Item) {
	matchedNew := make([]bool, len(newItems))

	for _, o := range oldItems {
		found := false
		for j, n := range newItems {
			if matchedNew[j] || !o.SameLocation(n) {
				continue
			}
			matchedNew[j] = true
			pairs = append(pairs, makePair(o, n, oldLay, newLay))
			found = true
			break
		}
		if !found {
			deleted = append(deleted, o)
		}
	}

	lastSlot := new(big.Int).Sub(oldEnd, big.NewInt(1))
	for j, n := range newItems {
		if matchedNew[j] {
			continue
		}
		switch {
		case n.Slot.Cmp(oldEnd) >= 0:
			appended = append(appended, n)
		case endByte > 0 && n.Slot.Cmp(lastSlot) == 0 && n.Offset >= endByte:
			appended = append(appended, n)
		default:
			inserted = append(inserted, n)
		}
	}

	return pairs, deleted, appended, inserted
}

// dataEnd computes the byte-granular end of the items' linear extent: the
// first slot past it, and the first free byte within the last occupied slot
// (0 when that slot is full). An empty list ends at slot 0.
func dataEnd(items []layout.Item, lay *layout.Layout) (*big.Int, int) {
	if len(items) == 0 {
		return big.NewInt(0), 0
	}

	last := items[len(items)-1]
	bytes := uint64(layout.SlotBytes)
	if t, ok := lay.Type(last.Type); ok && t.NumberOfBytes > 0 {
		bytes = t.NumberOfBytes
	}

	total := uint64(last.Offset) + bytes
	slots := (total + layout.SlotBytes - 1) / layout.SlotBytes
	end := new(big.Int).Add(last.Slot, new(big.Int).SetUint64(slots))
	return end, int(total % layout.SlotBytes)
}

func makePair(o, n layout.Item, oldLay, newLay *layout.Layout) Pair {
	p := Pair{Old: o, New: n, Compatible: true}

	if o.Label != n.Label {
		p.LabelChanged = true
		p.Renamed = n.RenamedFrom == o.Label
	}
	if o.Type != n.Type {
		p.TypeChanged = true
		p.Compatible = TypesCompatible(oldLay, newLay, o.Type, n.Type)
	}

	return p
}

// gapDelta sums gap slots per declaring contract on each side and returns the
// per-contract difference, omitting contracts whose gaps are unchanged.
func gapDelta(old, newer *layout.Layout) map[string]int64 {
	matcher := layout.MustGapMatcher("")

	sum := func(l *layout.Layout, sign int64, into map[string]int64) {
		for _, gap := range l.Gaps() {
			into[gap.Contract] += sign * int64(matcher.GapSlots(l, gap))
		}
	}

	delta := map[string]int64{}
	sum(newer, 1, delta)
	sum(old, -1, delta)

	for contract, n := range delta {
		if n == 0 {
			delete(delta, contract)
		}
	}
	return delta
}

// diffNamespaces matches namespaces by id and diffs the members of each
// matched pair's struct type.
func (d *Delta) diffNamespaces() {
	for _, o := range d.Old.Namespaces() {
		n, ok := d.New.Namespace(o.ID)
		if !ok {
			d.Removed = append(d.Removed, o)
			continue
		}

		nd := NamespaceDelta{
			ID:            o.ID,
			Old:           o,
			New:           n,
			StructChanged: o.Struct != n.Struct,
		}

		oldMembers := namespaceMembers(d.Old, o)
		newMembers := namespaceMembers(d.New, n)
		endSlot, endByte := dataEnd(oldMembers, d.Old)
		nd.Pairs, nd.Deleted, nd.Appended, nd.Inserted =
			classify(oldMembers, newMembers, d.Old, d.New, endSlot, endByte)

		d.Namespaces = append(d.Namespaces, nd)
	}

	for _, n := range d.New.Namespaces() {
		if _, ok := d.Old.Namespace(n.ID); !ok {
			d.Added = append(d.Added, n)
		}
	}
}

// namespaceMembers resolves the members of a namespace's struct type. Member
// slots are already relative to the struct start.
func namespaceMembers(l *layout.Layout, ns layout.Namespace) []layout.Item {
	if ns.Struct == "" {
		return nil
	}
	t, ok := l.Type(ns.Struct)
	if !ok {
		return nil
	}
	return t.Members
}
