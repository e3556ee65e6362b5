package storage

import (
	"fmt"
	"testing"

	"github.com/CoveMB/openzeppelin-upgrades/artifact"
	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boxFQN = "contracts/Box.sol:Box"

func layoutJSON(items string, extraTypes string) string {
	types := `
		"t_uint256": {"encoding": "inplace", "label": "uint256", "numberOfBytes": "32"},
		"t_int256": {"encoding": "inplace", "label": "int256", "numberOfBytes": "32"},
		"t_uint128": {"encoding": "inplace", "label": "uint128", "numberOfBytes": "16"},
		"t_address": {"encoding": "inplace", "label": "address", "numberOfBytes": "20"}`
	if extraTypes != "" {
		types += ", " + extraTypes
	}
	return fmt.Sprintf(`{"storage": [%s], "types": {%s}}`, items, types)
}

func item(astID int, label, slot string, offset int, typeRef string) string {
	return fmt.Sprintf(`{
		"astId": %d,
		"contract": %q,
		"label": %q,
		"offset": %d,
		"slot": %q,
		"type": %q
	}`, astID, boxFQN, label, offset, slot, typeRef)
}

func gapType(size int) string {
	return fmt.Sprintf(
		`"t_array(t_uint256)%d_storage": {"encoding": "inplace", "label": "uint256[%d]", "numberOfBytes": "%d", "base": "t_uint256"}`,
		size, size, size*32)
}

func setOf(t *testing.T, doc string) *artifact.Set {
	t.Helper()
	l, err := layout.ParseString(doc)
	require.NoError(t, err)
	return &artifact.Set{Artifacts: []*artifact.Artifact{{
		Name:       "Box",
		SourcePath: "contracts/Box.sol",
		Layout:     l,
	}}}
}

func runRule(t *testing.T, rule lint.Rule, oldDoc, newDoc string) []lint.Issue {
	t.Helper()
	ctx := lint.NewContext(setOf(t, oldDoc), setOf(t, newDoc))
	return rule.Check(ctx)
}

func TestNoDeletedVariableRule(t *testing.T) {
	oldDoc := layoutJSON(
		item(1, "value", "0", 0, "t_uint256")+","+item(2, "extra", "1", 0, "t_uint256"), "")
	newDoc := layoutJSON(item(1, "value", "0", 0, "t_uint256"), "")

	t.Run("flags deleted variable", func(t *testing.T) {
		issues := runRule(t, NewNoDeletedVariableRule(), oldDoc, newDoc)
		require.Len(t, issues, 1)
		assert.Equal(t, lint.SeverityError, issues[0].Severity)
		assert.Equal(t, "extra", issues[0].Location.Member)
		assert.Equal(t, "1", issues[0].Location.Slot)
	})

	t.Run("clean on identical layouts", func(t *testing.T) {
		assert.Empty(t, runRule(t, NewNoDeletedVariableRule(), oldDoc, oldDoc))
	})

	t.Run("removed gap is left to gap-consistency", func(t *testing.T) {
		withGap := layoutJSON(
			item(1, "value", "0", 0, "t_uint256")+","+
				item(2, "__gap", "1", 0, "t_array(t_uint256)49_storage"),
			gapType(49))
		noGap := layoutJSON(item(1, "value", "0", 0, "t_uint256"), "")

		assert.Empty(t, runRule(t, NewNoDeletedVariableRule(), withGap, noGap))
	})
}

func TestNoInsertedVariableRule(t *testing.T) {
	t.Run("flags insertion into packed slot", func(t *testing.T) {
		oldDoc := layoutJSON(
			item(1, "small", "0", 0, "t_uint128")+","+item(2, "value", "1", 0, "t_uint256"), "")
		newDoc := layoutJSON(
			item(1, "small", "0", 0, "t_uint128")+","+
				item(3, "sneaky", "0", 16, "t_uint128")+","+
				item(2, "value", "1", 0, "t_uint256"), "")

		issues := runRule(t, NewNoInsertedVariableRule(), oldDoc, newDoc)
		require.Len(t, issues, 1)
		assert.Equal(t, "sneaky", issues[0].Location.Member)
	})

	t.Run("packing into the free tail of the last slot is clean", func(t *testing.T) {
		oldDoc := layoutJSON(item(1, "small", "0", 0, "t_uint128"), "")
		newDoc := layoutJSON(
			item(1, "small", "0", 0, "t_uint128")+","+item(2, "tail", "0", 16, "t_uint128"), "")

		assert.Empty(t, runRule(t, NewNoInsertedVariableRule(), oldDoc, newDoc))
	})

	t.Run("variable placed into a shrunk gap is exempt", func(t *testing.T) {
		oldDoc := layoutJSON(
			item(1, "owner", "0", 0, "t_address")+","+
				item(2, "__gap", "1", 0, "t_array(t_uint256)49_storage"),
			gapType(49))
		newDoc := layoutJSON(
			item(1, "owner", "0", 0, "t_address")+","+
				item(2, "__gap", "1", 0, "t_array(t_uint256)48_storage")+","+
				item(3, "fresh", "49", 0, "t_uint256"),
			gapType(48))

		assert.Empty(t, runRule(t, NewNoInsertedVariableRule(), oldDoc, newDoc))
	})
}

func TestNoRetypedVariableRule(t *testing.T) {
	base := layoutJSON(item(1, "value", "0", 0, "t_uint256"), "")

	t.Run("incompatible retype is an error", func(t *testing.T) {
		newDoc := layoutJSON(item(1, "value", "0", 0, "t_uint128"), "")
		issues := runRule(t, NewNoRetypedVariableRule(), base, newDoc)
		require.Len(t, issues, 1)
		assert.Equal(t, lint.SeverityError, issues[0].Severity)
	})

	t.Run("compatible retype is a warning", func(t *testing.T) {
		newDoc := layoutJSON(item(1, "value", "0", 0, "t_int256"), "")
		issues := runRule(t, NewNoRetypedVariableRule(), base, newDoc)
		require.Len(t, issues, 1)
		assert.Equal(t, lint.SeverityWarning, issues[0].Severity)
	})

	t.Run("silent rename is an error with a fix", func(t *testing.T) {
		newDoc := layoutJSON(item(1, "amount", "0", 0, "t_uint256"), "")
		issues := runRule(t, NewNoRetypedVariableRule(), base, newDoc)
		require.Len(t, issues, 1)
		assert.Equal(t, lint.SeverityError, issues[0].Severity)
		require.NotNil(t, issues[0].Fix)
		assert.Contains(t, issues[0].Fix.After, "@custom:oz-renamed-from value")
	})

	t.Run("annotated rename is a warning", func(t *testing.T) {
		newSet := setOf(t, layoutJSON(item(1, "amount", "0", 0, "t_uint256"), ""))
		newSet.Artifacts[0].Layout.MarkRenamed("amount", "value")

		ctx := lint.NewContext(setOf(t, base), newSet)
		issues := NewNoRetypedVariableRule().Check(ctx)
		require.Len(t, issues, 1)
		assert.Equal(t, lint.SeverityWarning, issues[0].Severity)
	})

	t.Run("gap resize is not a retype", func(t *testing.T) {
		oldDoc := layoutJSON(item(1, "__gap", "0", 0, "t_array(t_uint256)49_storage"), gapType(49))
		newDoc := layoutJSON(item(1, "__gap", "0", 0, "t_array(t_uint256)48_storage"), gapType(48))
		assert.Empty(t, runRule(t, NewNoRetypedVariableRule(), oldDoc, newDoc))
	})
}

func TestGapConsistencyRule(t *testing.T) {
	oldDoc := layoutJSON(
		item(1, "owner", "0", 0, "t_address")+","+
			item(2, "__gap", "1", 0, "t_array(t_uint256)49_storage"),
		gapType(49))

	t.Run("exact shrink is clean", func(t *testing.T) {
		newDoc := layoutJSON(
			item(1, "owner", "0", 0, "t_address")+","+
				item(2, "__gap", "1", 0, "t_array(t_uint256)48_storage")+","+
				item(3, "fresh", "49", 0, "t_uint256"),
			gapType(48))

		assert.Empty(t, runRule(t, NewGapConsistencyRule(), oldDoc, newDoc))
	})

	t.Run("over-shrunk gap is an error", func(t *testing.T) {
		newDoc := layoutJSON(
			item(1, "owner", "0", 0, "t_address")+","+
				item(2, "__gap", "1", 0, "t_array(t_uint256)47_storage")+","+
				item(3, "fresh", "48", 0, "t_uint256"),
			gapType(47))

		issues := runRule(t, NewGapConsistencyRule(), oldDoc, newDoc)
		require.Len(t, issues, 1)
		assert.Equal(t, lint.SeverityError, issues[0].Severity)
		assert.Equal(t, int64(2), issues[0].Context["shrunk_by"])
		assert.Equal(t, int64(1), issues[0].Context["consumed"])
	})

	t.Run("grown gap is an error", func(t *testing.T) {
		newDoc := layoutJSON(
			item(1, "owner", "0", 0, "t_address")+","+
				item(2, "__gap", "1", 0, "t_array(t_uint256)50_storage"),
			gapType(50))

		issues := runRule(t, NewGapConsistencyRule(), oldDoc, newDoc)
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0].Message, "grew")
	})
}

func TestNamespaceImmutableIDRule(t *testing.T) {
	oldSet := setOf(t, layoutJSON("", ""))
	oldSet.Artifacts[0].Layout.AddNamespace(
		layout.NewNamespace("box.storage.Main", boxFQN, ""))
	newSet := setOf(t, layoutJSON("", ""))

	issues := NewNamespaceImmutableIDRule().Check(lint.NewContext(oldSet, newSet))
	require.Len(t, issues, 1)
	assert.Equal(t, lint.SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "box.storage.Main")
}

func TestNamespaceAppendOnlyRule(t *testing.T) {
	structType := func(members string) string {
		return fmt.Sprintf(
			`"t_struct(Main)9_storage": {"encoding": "inplace", "label": "struct Box.Main", "numberOfBytes": "64", "members": [%s]}`,
			members)
	}
	member := func(astID int, label, slot, typeRef string) string {
		return fmt.Sprintf(`{"astId": %d, "contract": "", "label": %q, "offset": 0, "slot": %q, "type": %q}`,
			astID, label, slot, typeRef)
	}
	namespacedSet := func(t *testing.T, members string) *artifact.Set {
		set := setOf(t, layoutJSON("", structType(members)))
		set.Artifacts[0].Layout.AddNamespace(
			layout.NewNamespace("box.storage.Main", boxFQN, "t_struct(Main)9_storage"))
		return set
	}

	oldSet := namespacedSet(t, member(1, "owner", "0", "t_address")+","+member(2, "count", "1", "t_uint256"))

	t.Run("appended member is clean", func(t *testing.T) {
		newSet := namespacedSet(t, member(1, "owner", "0", "t_address")+","+
			member(2, "count", "1", "t_uint256")+","+member(3, "paused", "2", "t_uint256"))

		assert.Empty(t, NewNamespaceAppendOnlyRule().Check(lint.NewContext(oldSet, newSet)))
	})

	t.Run("deleted member is an error", func(t *testing.T) {
		newSet := namespacedSet(t, member(1, "owner", "0", "t_address"))

		issues := NewNamespaceAppendOnlyRule().Check(lint.NewContext(oldSet, newSet))
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0].Message, "deleted")
		assert.Equal(t, "box.storage.Main.count", issues[0].Location.Member)
	})

	t.Run("retyped member severity follows compatibility", func(t *testing.T) {
		newSet := namespacedSet(t, member(1, "owner", "0", "t_address")+","+member(2, "count", "1", "t_int256"))

		issues := NewNamespaceAppendOnlyRule().Check(lint.NewContext(oldSet, newSet))
		require.Len(t, issues, 1)
		assert.Equal(t, lint.SeverityWarning, issues[0].Severity)
	})
}

func TestNoUnknownEncodingRule(t *testing.T) {
	t.Run("known encodings are clean", func(t *testing.T) {
		doc := layoutJSON(item(1, "value", "0", 0, "t_uint256"), "")
		issues := NewNoUnknownEncodingRule().Check(lint.NewContext(nil, setOf(t, doc)))
		assert.Empty(t, issues)
	})

	t.Run("unknown encoding is an error", func(t *testing.T) {
		doc := layoutJSON(
			item(1, "weird", "0", 0, "t_exotic"),
			`"t_exotic": {"encoding": "quantum", "label": "exotic", "numberOfBytes": "32"}`)

		issues := NewNoUnknownEncodingRule().Check(lint.NewContext(nil, setOf(t, doc)))
		require.Len(t, issues, 1)
		assert.Equal(t, "quantum", issues[0].Context["encoding"])
	})
}

func TestRulesSet(t *testing.T) {
	rules := Rules()
	require.Len(t, rules, 7)

	seen := map[string]bool{}
	for _, rule := range rules {
		assert.NotEmpty(t, rule.Name())
		assert.NotEmpty(t, rule.Description())
		assert.False(t, seen[rule.Name()], "duplicate rule name %s", rule.Name())
		seen[rule.Name()] = true
	}
}
