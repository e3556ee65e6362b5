package layout

import (
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// erc7201Prefix is the storage-location annotation scheme this checker
// understands, per ERC-7201 ("Namespaced Storage Layout").
const erc7201Prefix = "erc7201:"

// SlotForNamespace derives the ERC-7201 anchor slot for a namespace id:
//
//	keccak256(abi.encode(uint256(keccak256(id)) - 1)) & ~bytes32(uint256(0xff))
//
// The formula keeps the slot out of reach of both sequential layout slots and
// direct keccak preimages, and the cleared low byte leaves room for future
// in-namespace addressing schemes.
func SlotForNamespace(id string) *big.Int {
	inner := keccak256([]byte(id))

	n := new(big.Int).SetBytes(inner)
	n.Sub(n, big.NewInt(1))

	// abi.encode(uint256) is the 32-byte big-endian representation.
	enc := make([]byte, SlotBytes)
	n.FillBytes(enc)

	outer := keccak256(enc)
	outer[len(outer)-1] = 0 // & ~0xff

	return new(big.Int).SetBytes(outer)
}

// ParseStorageLocation extracts the namespace id from a
// "@custom:storage-location erc7201:<id>" annotation value. It returns the id
// and true when the value uses the erc7201 scheme.
func ParseStorageLocation(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, erc7201Prefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(value, erc7201Prefix))
	if id == "" {
		return "", false
	}
	return id, true
}

// NewNamespace builds a Namespace for the given id with its derived base slot.
func NewNamespace(id, contract string, structRef TypeRef) Namespace {
	return Namespace{
		ID:       id,
		BaseSlot: SlotForNamespace(id),
		Struct:   structRef,
		Contract: contract,
	}
}

// keccak256 computes the legacy Keccak-256 digest used by the EVM (not the
// finalized NIST SHA3-256).
func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
