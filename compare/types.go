package compare

import (
	"github.com/CoveMB/openzeppelin-upgrades/layout"
)

// refPair keys the memo of in-flight compatibility checks so recursive type
// shapes terminate.
type refPair struct {
	old layout.TypeRef
	new layout.TypeRef
}

// TypesCompatible reports whether a new type may replace an old one without
// shifting storage. Identical refs are compatible outright; otherwise both
// types must share encoding and footprint and have pairwise-compatible
// element or member types. A retype that passes this check still changes
// value interpretation (uint256 to int256, say) and is reported as a warning
// by the rules, not silently accepted.
func TypesCompatible(oldLay, newLay *layout.Layout, oldRef, newRef layout.TypeRef) bool {
	return typesCompatible(oldLay, newLay, oldRef, newRef, map[refPair]bool{})
}

func typesCompatible(oldLay, newLay *layout.Layout, oldRef, newRef layout.TypeRef, seen map[refPair]bool) bool {
	if oldRef == newRef {
		return true
	}

	key := refPair{old: oldRef, new: newRef}
	if seen[key] {
		// Already being compared higher in the recursion; assume compatible
		// and let the outer frame decide.
		return true
	}
	seen[key] = true

	oldType, ok := oldLay.Type(oldRef)
	if !ok {
		return false
	}
	newType, ok := newLay.Type(newRef)
	if !ok {
		return false
	}

	if oldType.Encoding != newType.Encoding || oldType.NumberOfBytes != newType.NumberOfBytes {
		return false
	}

	switch oldType.Encoding {
	case layout.EncodingMapping:
		// Mapping keys feed the slot derivation, so key types must hash the
		// same way; values live at derived slots and only need compatibility.
		if !keysCompatible(oldLay, newLay, oldType.Key, newType.Key) {
			return false
		}
		return typesCompatible(oldLay, newLay, oldType.Value, newType.Value, seen)

	case layout.EncodingDynamicArray:
		return typesCompatible(oldLay, newLay, oldType.Base, newType.Base, seen)

	case layout.EncodingInplace:
		if oldType.Base != "" || newType.Base != "" {
			return typesCompatible(oldLay, newLay, oldType.Base, newType.Base, seen)
		}
		return membersCompatible(oldLay, newLay, oldType.Members, newType.Members, seen)

	case layout.EncodingBytes:
		return true

	default:
		// Unknown encodings carry no structure we can reason about.
		return false
	}
}

// keysCompatible compares mapping key types by storage footprint. The key
// never occupies storage itself, but its ABI encoding feeds keccak, so the
// in-place width must match.
func keysCompatible(oldLay, newLay *layout.Layout, oldRef, newRef layout.TypeRef) bool {
	if oldRef == newRef {
		return true
	}
	oldType, ok := oldLay.Type(oldRef)
	if !ok {
		return false
	}
	newType, ok := newLay.Type(newRef)
	if !ok {
		return false
	}
	return oldType.Encoding == newType.Encoding && oldType.NumberOfBytes == newType.NumberOfBytes
}

func membersCompatible(oldLay, newLay *layout.Layout, oldMembers, newMembers []layout.Item, seen map[refPair]bool) bool {
	if len(oldMembers) != len(newMembers) {
		return false
	}
	for i := range oldMembers {
		o, n := oldMembers[i], newMembers[i]
		if !o.SameLocation(n) {
			return false
		}
		if !typesCompatible(oldLay, newLay, o.Type, n.Type, seen) {
			return false
		}
	}
	return true
}
