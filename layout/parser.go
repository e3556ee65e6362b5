// Package layout models solc storage layouts and extracts them from compiler
// output. It is the checker's contract-layout extractor: items, types and
// ERC-7201 namespaces decoded into a queryable domain model.
package layout

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"strconv"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
)

// ParseOptions provides options for decoding storage layouts.
type ParseOptions struct {
	// Contract sets the fully qualified contract name recorded on the layout.
	// When empty it is inferred from the first storage item's declaring
	// contract.
	Contract string

	// AllowDanglingTypes downgrades missing type registry entries from a
	// decode error to a condition reported later by lint rules. The default
	// rejects dangling refs.
	AllowDanglingTypes bool
}

// wire structures mirroring solc's storageLayout JSON output.

type wireLayout struct {
	Storage []wireItem          `json:"storage"`
	Types   map[string]wireType `json:"types"`
}

type wireItem struct {
	ASTID    int    `json:"astId"`
	Contract string `json:"contract"`
	Label    string `json:"label"`
	Offset   int    `json:"offset"`
	Slot     string `json:"slot"`
	Type     string `json:"type"`
}

type wireType struct {
	Encoding      string     `json:"encoding"`
	Label         string     `json:"label"`
	NumberOfBytes string     `json:"numberOfBytes"`
	Key           string     `json:"key,omitempty"`
	Value         string     `json:"value,omitempty"`
	Base          string     `json:"base,omitempty"`
	Members       []wireItem `json:"members,omitempty"`
}

// Parse decodes a solc storageLayout JSON document.
func Parse(data []byte) (*Layout, error) {
	return ParseWithOptions(data, nil)
}

// ParseString decodes a solc storageLayout JSON document from a string.
func ParseString(content string) (*Layout, error) {
	return ParseWithOptions([]byte(content), nil)
}

// ParseReader decodes a solc storageLayout JSON document from a reader.
func ParseReader(r io.Reader) (*Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLayoutDecodeFailed, "failed to read storage layout")
	}
	return ParseWithOptions(data, nil)
}

// ParseContext decodes a solc storageLayout JSON document with cancellation
// support.
func ParseContext(ctx context.Context, data []byte) (*Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeLayoutDecodeFailed, "context cancelled")
	}
	return ParseWithOptions(data, nil)
}

// ParseWithOptions decodes a solc storageLayout JSON document with custom
// options.
func ParseWithOptions(data []byte, opts *ParseOptions) (*Layout, error) {
	if opts == nil {
		opts = &ParseOptions{}
	}

	var wire wireLayout
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, errors.Wrap(err, errors.CodeLayoutDecodeFailed, "invalid storage layout JSON")
	}

	return convertWire(&wire, opts)
}

// convertWire converts the wire representation into the domain model and
// enforces decode-time invariants.
func convertWire(wire *wireLayout, opts *ParseOptions) (*Layout, error) {
	contract := opts.Contract
	if contract == "" && len(wire.Storage) > 0 {
		contract = wire.Storage[0].Contract
	}

	l := NewLayout(contract)

	for ref, wt := range wire.Types {
		t, err := convertType(ref, wt)
		if err != nil {
			return nil, err
		}
		l.types[TypeRef(ref)] = t
	}

	for _, wi := range wire.Storage {
		item, err := convertItem(wi)
		if err != nil {
			return nil, err
		}
		if _, ok := l.types[item.Type]; !ok && !opts.AllowDanglingTypes {
			return nil, errors.Newf(errors.CodeDanglingType,
				"storage item %q references type %q absent from the registry", item.Label, item.Type)
		}
		l.items = append(l.items, item)
	}

	// Solc emits items in declaration order; the model guarantees slot order.
	l.sortItems()

	return l, nil
}

// convertItem converts one wire item, parsing its decimal slot string.
func convertItem(wi wireItem) (Item, error) {
	slot, ok := new(big.Int).SetString(wi.Slot, 10)
	if !ok {
		return Item{}, errors.Newf(errors.CodeLayoutDecodeFailed,
			"storage item %q has invalid slot %q", wi.Label, wi.Slot)
	}
	if wi.Offset < 0 || wi.Offset >= SlotBytes {
		return Item{}, errors.Newf(errors.CodeLayoutDecodeFailed,
			"storage item %q has invalid offset %d", wi.Label, wi.Offset)
	}

	return Item{
		ASTID:    wi.ASTID,
		Contract: wi.Contract,
		Label:    wi.Label,
		Offset:   wi.Offset,
		Slot:     slot,
		Type:     TypeRef(wi.Type),
	}, nil
}

// convertType converts one wire type entry. Unknown encodings are preserved
// so lint rules can flag them; malformed sizes are decode errors.
func convertType(ref string, wt wireType) (Type, error) {
	size, err := strconv.ParseUint(wt.NumberOfBytes, 10, 64)
	if err != nil {
		return Type{}, errors.Wrap(err, errors.CodeLayoutDecodeFailed,
			"type "+ref+" has invalid numberOfBytes "+strconv.Quote(wt.NumberOfBytes))
	}

	t := Type{
		Encoding:      Encoding(wt.Encoding),
		Label:         wt.Label,
		NumberOfBytes: size,
		Key:           TypeRef(wt.Key),
		Value:         TypeRef(wt.Value),
		Base:          TypeRef(wt.Base),
	}

	for _, wm := range wt.Members {
		member, memberErr := convertItem(wm)
		if memberErr != nil {
			return Type{}, memberErr
		}
		t.Members = append(t.Members, member)
	}

	return t, nil
}
