package layout

import (
	"math/big"
	"sort"
)

// SlotBytes is the width of one EVM storage slot in bytes.
const SlotBytes = 32

// TypeRef is a solc type identifier such as "t_uint256" or
// "t_mapping(t_address,t_uint256)". Refs are resolved against the layout's
// type registry.
type TypeRef string

// Encoding describes how a type occupies storage.
type Encoding string

const (
	// EncodingInplace stores the value directly in its slot(s).
	EncodingInplace Encoding = "inplace"

	// EncodingMapping stores values at keccak-derived slots; the declaration
	// slot itself holds nothing.
	EncodingMapping Encoding = "mapping"

	// EncodingDynamicArray stores the length in the declaration slot and the
	// elements at keccak-derived slots.
	EncodingDynamicArray Encoding = "dynamic_array"

	// EncodingBytes stores short byte strings in place and long ones at
	// keccak-derived slots.
	EncodingBytes Encoding = "bytes"
)

// Known reports whether the encoding is one solc is documented to emit.
func (e Encoding) Known() bool {
	switch e {
	case EncodingInplace, EncodingMapping, EncodingDynamicArray, EncodingBytes:
		return true
	default:
		return false
	}
}

// Item is a single state variable (or struct member) placed in storage.
type Item struct {
	// ASTID is the solc AST node id of the declaration.
	ASTID int

	// Contract is the fully qualified declaring contract, e.g.
	// "contracts/Token.sol:Token". Empty for struct members.
	Contract string

	// Label is the variable name.
	Label string

	// Slot is the storage slot the item starts in.
	Slot *big.Int

	// Offset is the byte offset within the slot (0 for full-slot items).
	Offset int

	// Type references the item's type in the layout's registry.
	Type TypeRef

	// RenamedFrom holds the previous label when the declaration carries a
	// "@custom:oz-renamed-from <old>" annotation. Filled by the extractor.
	RenamedFrom string
}

// SameLocation reports whether two items start at the same slot and offset.
func (i Item) SameLocation(other Item) bool {
	return i.Offset == other.Offset && i.Slot.Cmp(other.Slot) == 0
}

// Type describes the storage shape of a solc type.
type Type struct {
	// Encoding describes how values of this type occupy storage.
	Encoding Encoding

	// Label is the human-readable type name, e.g. "uint256" or
	// "mapping(address => uint256)".
	Label string

	// NumberOfBytes is the in-place footprint. For mappings and dynamic
	// arrays solc reports 32 (the declaration slot).
	NumberOfBytes uint64

	// Key and Value are set for mapping types.
	Key   TypeRef
	Value TypeRef

	// Base is set for array types (both fixed and dynamic).
	Base TypeRef

	// Members is set for struct types, in declaration order with slots
	// relative to the struct start.
	Members []Item
}

// Slots returns the number of whole slots an in-place value occupies.
func (t Type) Slots() uint64 {
	return (t.NumberOfBytes + SlotBytes - 1) / SlotBytes
}

// Namespace is an ERC-7201 namespaced storage root: a struct anchored at a
// slot derived from its id rather than at the inheritance-ordered layout.
type Namespace struct {
	// ID is the namespace identifier, e.g. "openzeppelin.storage.Ownable".
	ID string

	// BaseSlot is the derived anchor slot (see SlotForNamespace).
	BaseSlot *big.Int

	// Struct references the namespaced struct type in the registry.
	Struct TypeRef

	// Contract is the fully qualified contract declaring the namespace.
	Contract string
}

// Layout is the complete storage layout of one contract: its ordered linear
// items, the type registry they reference, and any ERC-7201 namespaces.
type Layout struct {
	// Contract is the fully qualified name of the contract this layout
	// belongs to, e.g. "contracts/Token.sol:Token".
	Contract string

	items      []Item
	types      map[TypeRef]Type
	namespaces []Namespace

	// Cached computed properties.
	gapItems []Item // lazy, see Gaps
}

// NewLayout creates an empty layout for the named contract.
func NewLayout(contract string) *Layout {
	return &Layout{
		Contract: contract,
		types:    make(map[TypeRef]Type),
	}
}

// Items returns the linear storage items sorted by (slot, offset).
func (l *Layout) Items() []Item {
	return l.items
}

// Type resolves a type ref against the registry.
func (l *Layout) Type(ref TypeRef) (Type, bool) {
	t, ok := l.types[ref]
	return t, ok
}

// Types returns the full type registry.
func (l *Layout) Types() map[TypeRef]Type {
	return l.types
}

// Namespaces returns the ERC-7201 namespaces attached to this layout,
// sorted by id.
func (l *Layout) Namespaces() []Namespace {
	return l.namespaces
}

// Namespace returns the namespace with the given id, if present.
func (l *Layout) Namespace(id string) (Namespace, bool) {
	for _, ns := range l.namespaces {
		if ns.ID == id {
			return ns, true
		}
	}
	return Namespace{}, false
}

// AddNamespace attaches an ERC-7201 namespace to the layout. The extractor
// calls this after resolving storage-location annotations from the AST.
func (l *Layout) AddNamespace(ns Namespace) {
	l.namespaces = append(l.namespaces, ns)
	sort.Slice(l.namespaces, func(i, j int) bool {
		return l.namespaces[i].ID < l.namespaces[j].ID
	})
}

// MarkRenamed records a rename annotation on the item with the given label.
// It reports whether an item carried that label.
func (l *Layout) MarkRenamed(label, renamedFrom string) bool {
	for i := range l.items {
		if l.items[i].Label == label {
			l.items[i].RenamedFrom = renamedFrom
			return true
		}
	}
	return false
}

// sortItems restores the (slot, offset) ordering invariant.
func (l *Layout) sortItems() {
	sort.SliceStable(l.items, func(i, j int) bool {
		if c := l.items[i].Slot.Cmp(l.items[j].Slot); c != 0 {
			return c < 0
		}
		return l.items[i].Offset < l.items[j].Offset
	})
}
