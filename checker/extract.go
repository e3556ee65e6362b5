package checker

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/CoveMB/openzeppelin-upgrades/artifact"
	"github.com/CoveMB/openzeppelin-upgrades/compare"
	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// ContractDelta pairs a contract with its storage delta.
type ContractDelta struct {
	Contract string         `json:"contract"`
	Delta    *compare.Delta `json:"delta"`
}

// DiffResult is the raw comparator output for two artifact sets.
type DiffResult struct {
	// Contracts holds the delta for every contract present in both sets,
	// sorted by fully qualified name.
	Contracts []ContractDelta `json:"contracts"`

	// OnlyInNew lists contracts with no counterpart in the reference set.
	OnlyInNew []string `json:"onlyInNew,omitempty"`

	// OnlyInOld lists reference contracts gone from the current set.
	OnlyInOld []string `json:"onlyInOld,omitempty"`
}

// diffSets compares every current contract against its reference
// counterpart.
func diffSets(reference, current *artifact.Set) *DiffResult {
	result := &DiffResult{}

	seen := map[string]bool{}
	for _, name := range current.Names() {
		art, err := current.Get(name)
		if err != nil {
			continue
		}
		seen[art.FQN()] = true

		prev, err := reference.Get(art.FQN())
		if err != nil {
			result.OnlyInNew = append(result.OnlyInNew, art.FQN())
			continue
		}

		result.Contracts = append(result.Contracts, ContractDelta{
			Contract: art.FQN(),
			Delta:    compare.Compare(prev.Layout, art.Layout),
		})
	}

	for _, name := range reference.Names() {
		art, err := reference.Get(name)
		if err != nil {
			continue
		}
		if !seen[art.FQN()] {
			result.OnlyInOld = append(result.OnlyInOld, art.FQN())
		}
	}

	return result
}

// WriteLayouts renders the extracted storage layouts of a set.
// Supported formats are text and json.
func WriteLayouts(w io.Writer, set *artifact.Set, format lint.Format) error {
	switch format {
	case lint.FormatJSON:
		return writeLayoutsJSON(w, set)
	case lint.FormatText:
		return writeLayoutsText(w, set)
	default:
		return errors.Newf(errors.CodeInvalidInput,
			"checker: format %s not supported for layout extraction", format)
	}
}

func writeLayoutsText(w io.Writer, set *artifact.Set) error {
	for _, name := range set.Names() {
		art, err := set.Get(name)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, "%s\n", art.FQN()); err != nil {
			return err
		}
		for _, item := range art.Layout.Items() {
			typeLabel := string(item.Type)
			if t, ok := art.Layout.Type(item.Type); ok {
				typeLabel = t.Label
			}
			suffix := ""
			if item.RenamedFrom != "" {
				suffix = fmt.Sprintf(" (renamed from %s)", item.RenamedFrom)
			}
			_, err := fmt.Fprintf(w, "  slot %s+%d  %-24s %s%s\n",
				item.Slot, item.Offset, item.Label, typeLabel, suffix)
			if err != nil {
				return err
			}
		}
		for _, ns := range art.Layout.Namespaces() {
			_, err := fmt.Fprintf(w, "  namespace %s @ 0x%064x\n", ns.ID, ns.BaseSlot)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// layoutJSON is the JSON projection of one extracted layout.
type layoutJSON struct {
	Contract   string           `json:"contract"`
	Items      []layoutItemJSON `json:"items"`
	Namespaces []namespaceJSON  `json:"namespaces,omitempty"`
}

type layoutItemJSON struct {
	Label       string `json:"label"`
	Slot        string `json:"slot"`
	Offset      int    `json:"offset"`
	Type        string `json:"type"`
	RenamedFrom string `json:"renamedFrom,omitempty"`
}

type namespaceJSON struct {
	ID       string `json:"id"`
	BaseSlot string `json:"baseSlot"`
	Struct   string `json:"struct,omitempty"`
}

func writeLayoutsJSON(w io.Writer, set *artifact.Set) error {
	var out []layoutJSON
	for _, name := range set.Names() {
		art, err := set.Get(name)
		if err != nil {
			return err
		}
		out = append(out, projectLayout(art))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func projectLayout(art *artifact.Artifact) layoutJSON {
	projected := layoutJSON{Contract: art.FQN()}

	for _, item := range art.Layout.Items() {
		typeLabel := string(item.Type)
		if t, ok := art.Layout.Type(item.Type); ok {
			typeLabel = t.Label
		}
		projected.Items = append(projected.Items, layoutItemJSON{
			Label:       item.Label,
			Slot:        item.Slot.String(),
			Offset:      item.Offset,
			Type:        typeLabel,
			RenamedFrom: item.RenamedFrom,
		})
	}

	for _, ns := range art.Layout.Namespaces() {
		projected.Namespaces = append(projected.Namespaces, namespaceJSON{
			ID:       ns.ID,
			BaseSlot: fmt.Sprintf("0x%064x", ns.BaseSlot),
			Struct:   string(ns.Struct),
		})
	}

	return projected
}

// WriteDiff renders a diff result. Text gives a per-contract summary, json
// the full deltas.
func WriteDiff(w io.Writer, result *DiffResult, format lint.Format) error {
	switch format {
	case lint.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case lint.FormatText:
		return writeDiffText(w, result)
	default:
		return errors.Newf(errors.CodeInvalidInput,
			"checker: format %s not supported for diff output", format)
	}
}

func writeDiffText(w io.Writer, result *DiffResult) error {
	for _, cd := range result.Contracts {
		delta := cd.Delta
		if !delta.HasChanges() {
			if _, err := fmt.Fprintf(w, "%s: no storage changes\n", cd.Contract); err != nil {
				return err
			}
			continue
		}

		if _, err := fmt.Fprintf(w, "%s:\n", cd.Contract); err != nil {
			return err
		}
		if err := writeDeltaSummary(w, delta); err != nil {
			return err
		}
	}

	for _, name := range result.OnlyInNew {
		if _, err := fmt.Fprintf(w, "%s: new contract\n", name); err != nil {
			return err
		}
	}
	for _, name := range result.OnlyInOld {
		if _, err := fmt.Fprintf(w, "%s: removed contract\n", name); err != nil {
			return err
		}
	}
	return nil
}

func writeDeltaSummary(w io.Writer, delta *compare.Delta) error {
	write := func(format string, args ...interface{}) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	}

	for _, item := range delta.Deleted {
		if err := write("  deleted  %s (slot %s)\n", item.Label, item.Slot); err != nil {
			return err
		}
	}
	for _, item := range delta.Inserted {
		if err := write("  inserted %s (slot %s)\n", item.Label, item.Slot); err != nil {
			return err
		}
	}
	for _, item := range delta.Appended {
		if err := write("  appended %s (slot %s)\n", item.Label, item.Slot); err != nil {
			return err
		}
	}
	for _, pair := range delta.Pairs {
		switch {
		case pair.TypeChanged:
			if err := write("  retyped  %s (%s -> %s)\n",
				pair.New.Label, typeLabel(delta.Old, pair.Old.Type), typeLabel(delta.New, pair.New.Type)); err != nil {
				return err
			}
		case pair.Renamed:
			if err := write("  renamed  %s -> %s\n", pair.Old.Label, pair.New.Label); err != nil {
				return err
			}
		case pair.LabelChanged:
			if err := write("  relabeled %s -> %s\n", pair.Old.Label, pair.New.Label); err != nil {
				return err
			}
		}
	}
	gapContracts := make([]string, 0, len(delta.GapDelta))
	for contract := range delta.GapDelta {
		gapContracts = append(gapContracts, contract)
	}
	sort.Strings(gapContracts)
	for _, contract := range gapContracts {
		if err := write("  gap      %s %+d slots\n", contract, delta.GapDelta[contract]); err != nil {
			return err
		}
	}
	for _, ns := range delta.Added {
		if err := write("  namespace added %s\n", ns.ID); err != nil {
			return err
		}
	}
	for _, ns := range delta.Removed {
		if err := write("  namespace removed %s\n", ns.ID); err != nil {
			return err
		}
	}
	return nil
}

func typeLabel(l *layout.Layout, ref layout.TypeRef) string {
	if t, ok := l.Type(ref); ok {
		return t.Label
	}
	return string(ref)
}
