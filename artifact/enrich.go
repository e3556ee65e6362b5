package artifact

import (
	"sort"
	"strings"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/CoveMB/openzeppelin-upgrades/solast"
)

// Natspec tags the extractor interprets.
const (
	storageLocationTag = "@custom:storage-location"
	renamedFromTag     = "@custom:oz-renamed-from"
)

// enrich fills the layout with information only the AST carries: ERC-7201
// namespace declarations from struct storage-location annotations, and rename
// markers from oz-renamed-from annotations on state variables. Bases declared
// in the same source unit are included; bases compiled into other units are
// enriched through their own artifacts.
func enrich(art *Artifact) error {
	contract, ok := art.AST.Contract(art.Name)
	if !ok {
		return nil
	}

	for _, c := range contractAndBases(art.AST, contract) {
		for _, st := range solast.StructsOf(c) {
			loc, ok := docTag(st.Documentation.Text, storageLocationTag)
			if !ok {
				continue
			}
			id, ok := layout.ParseStorageLocation(loc)
			if !ok {
				return errors.New(errors.CodeInvalidArtifact,
					"unsupported storage location formula").
					WithContext("location", loc).
					WithContext("struct", st.Name).
					WithContext("contract", art.FQN())
			}
			art.Layout.AddNamespace(layout.NewNamespace(id, art.Layout.Contract, structTypeRef(art.Layout, c, st)))
		}

		for _, v := range solast.StateVariablesOf(c) {
			if from, ok := docTag(v.Documentation.Text, renamedFromTag); ok {
				art.Layout.MarkRenamed(v.Name, from)
			}
		}
	}

	return nil
}

// contractAndBases resolves the contract's linearized bases against the
// definitions present in the same source unit, most-derived first.
func contractAndBases(unit *solast.SourceUnit, contract *solast.Node) []*solast.Node {
	byID := map[int]*solast.Node{}
	for _, c := range unit.Contracts() {
		byID[c.ID] = c
	}

	if len(contract.LinearizedBaseContracts) == 0 {
		return []*solast.Node{contract}
	}

	out := make([]*solast.Node, 0, len(contract.LinearizedBaseContracts))
	for _, id := range contract.LinearizedBaseContracts {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// structTypeRef finds the registry ref of a namespaced struct. The struct
// only appears in the type registry when some declared variable uses it, so
// an empty ref is a valid outcome.
func structTypeRef(l *layout.Layout, contract, st *solast.Node) layout.TypeRef {
	canonical := st.CanonicalName
	if canonical == "" {
		canonical = contract.Name + "." + st.Name
	}

	refs := make([]string, 0, len(l.Types()))
	for ref := range l.Types() {
		refs = append(refs, string(ref))
	}
	sort.Strings(refs)

	for _, ref := range refs {
		if t, ok := l.Type(layout.TypeRef(ref)); ok && t.Label == "struct "+canonical {
			return layout.TypeRef(ref)
		}
	}
	return ""
}

// docTag extracts the value following a natspec tag in a documentation
// string. The value is the whitespace-delimited token after the tag.
func docTag(doc, tag string) (string, bool) {
	fields := strings.Fields(doc)
	for i, f := range fields {
		if f == tag && i+1 < len(fields) {
			return fields[i+1], true
		}
	}
	return "", false
}
