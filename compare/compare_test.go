package compare

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// layoutJSON builds a storage layout document from item fragments, with the
// common scalar types pre-registered.
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
		"contract": "contracts/Box.sol:Box",
		"label": %q,
		"offset": %d,
		"slot": %q,
		"type": %q
	}`, astID, label, offset, slot, typeRef)
}

func mustLayout(t *testing.T, doc string) *layout.Layout {
	t.Helper()
	l, err := layout.ParseString(doc)
	require.NoError(t, err)
	return l
}

var bigIntCmp = cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })

func TestCompareIdentical(t *testing.T) {
	doc := layoutJSON(item(1, "value", "0", 0, "t_uint256"), "")
	d := Compare(mustLayout(t, doc), mustLayout(t, doc))

	assert.False(t, d.HasChanges())
	require.Len(t, d.Pairs, 1)
	assert.Empty(t, cmp.Diff(d.Pairs[0].Old, d.Pairs[0].New, bigIntCmp))
}

func TestCompareAppend(t *testing.T) {
	old := mustLayout(t, layoutJSON(item(1, "value", "0", 0, "t_uint256"), ""))
	newer := mustLayout(t, layoutJSON(
		item(1, "value", "0", 0, "t_uint256")+","+item(2, "extra", "1", 0, "t_uint256"), ""))

	d := Compare(old, newer)

	assert.True(t, d.HasChanges())
	assert.Empty(t, d.Deleted)
	assert.Empty(t, d.Inserted)
	require.Len(t, d.Appended, 1)
	assert.Equal(t, "extra", d.Appended[0].Label)
	assert.Equal(t, int64(1), d.AppendedSlotsOf("contracts/Box.sol:Box"))
}

func TestCompareDelete(t *testing.T) {
	old := mustLayout(t, layoutJSON(
		item(1, "value", "0", 0, "t_uint256")+","+item(2, "extra", "1", 0, "t_uint256"), ""))
	newer := mustLayout(t, layoutJSON(item(1, "value", "0", 0, "t_uint256"), ""))

	d := Compare(old, newer)

	require.Len(t, d.Deleted, 1)
	assert.Equal(t, "extra", d.Deleted[0].Label)
	assert.Empty(t, d.Appended)
}

func TestCompareInsertIntoPacking(t *testing.T) {
	t.Run("free tail of the last slot is an append", func(t *testing.T) {
		// The old layout's data ends at byte 16 of slot 0; a new half-slot
		// variable packed after it shifts nothing.
		old := mustLayout(t, layoutJSON(item(1, "small", "0", 0, "t_uint128"), ""))
		newer := mustLayout(t, layoutJSON(
			item(1, "small", "0", 0, "t_uint128")+","+item(2, "tail", "0", 16, "t_uint128"), ""))

		d := Compare(old, newer)

		assert.Empty(t, d.Inserted)
		require.Len(t, d.Appended, 1)
		assert.Equal(t, "tail", d.Appended[0].Label)
	})

	t.Run("free bytes before the end of data are an insert", func(t *testing.T) {
		// Same packing, but the old layout continues past slot 0, so the
		// spare bytes are not a tail.
		old := mustLayout(t, layoutJSON(
			item(1, "small", "0", 0, "t_uint128")+","+item(2, "value", "1", 0, "t_uint256"), ""))
		newer := mustLayout(t, layoutJSON(
			item(1, "small", "0", 0, "t_uint128")+","+
				item(3, "sneaky", "0", 16, "t_uint128")+","+
				item(2, "value", "1", 0, "t_uint256"), ""))

		d := Compare(old, newer)

		assert.Empty(t, d.Appended)
		require.Len(t, d.Inserted, 1)
		assert.Equal(t, "sneaky", d.Inserted[0].Label)
	})

	t.Run("overlap with occupied bytes is an insert", func(t *testing.T) {
		old := mustLayout(t, layoutJSON(item(1, "small", "0", 0, "t_uint128"), ""))
		newer := mustLayout(t, layoutJSON(
			item(1, "small", "0", 0, "t_uint128")+","+item(2, "clash", "0", 8, "t_uint128"), ""))

		d := Compare(old, newer)

		require.Len(t, d.Inserted, 1)
		assert.Equal(t, "clash", d.Inserted[0].Label)
	})
}

func TestCompareRetype(t *testing.T) {
	t.Run("compatible retype", func(t *testing.T) {
		old := mustLayout(t, layoutJSON(item(1, "value", "0", 0, "t_uint256"), ""))
		newer := mustLayout(t, layoutJSON(item(1, "value", "0", 0, "t_int256"), ""))

		d := Compare(old, newer)

		require.Len(t, d.Pairs, 1)
		assert.True(t, d.Pairs[0].TypeChanged)
		assert.True(t, d.Pairs[0].Compatible)
		assert.False(t, d.Pairs[0].LabelChanged)
	})

	t.Run("incompatible retype", func(t *testing.T) {
		old := mustLayout(t, layoutJSON(item(1, "value", "0", 0, "t_uint256"), ""))
		newer := mustLayout(t, layoutJSON(item(1, "value", "0", 0, "t_uint128"), ""))

		d := Compare(old, newer)

		require.Len(t, d.Pairs, 1)
		assert.True(t, d.Pairs[0].TypeChanged)
		assert.False(t, d.Pairs[0].Compatible)
	})
}

func TestCompareRename(t *testing.T) {
	old := mustLayout(t, layoutJSON(item(1, "supply", "0", 0, "t_uint256"), ""))

	t.Run("annotated rename", func(t *testing.T) {
		newer := mustLayout(t, layoutJSON(item(1, "totalSupply", "0", 0, "t_uint256"), ""))
		newer.MarkRenamed("totalSupply", "supply")

		d := Compare(old, newer)

		require.Len(t, d.Pairs, 1)
		assert.True(t, d.Pairs[0].LabelChanged)
		assert.True(t, d.Pairs[0].Renamed)
	})

	t.Run("silent rename", func(t *testing.T) {
		newer := mustLayout(t, layoutJSON(item(1, "totalSupply", "0", 0, "t_uint256"), ""))

		d := Compare(old, newer)

		require.Len(t, d.Pairs, 1)
		assert.True(t, d.Pairs[0].LabelChanged)
		assert.False(t, d.Pairs[0].Renamed)
	})
}

func gapType(size int) string {
	return fmt.Sprintf(
		`"t_array(t_uint256)%d_storage": {"encoding": "inplace", "label": "uint256[%d]", "numberOfBytes": "%d", "base": "t_uint256"}`,
		size, size, size*32)
}

func TestCompareGapDelta(t *testing.T) {
	old := mustLayout(t, layoutJSON(
		item(1, "owner", "0", 0, "t_address")+","+
			item(2, "__gap", "1", 0, "t_array(t_uint256)49_storage"),
		gapType(49)))
	newer := mustLayout(t, layoutJSON(
		item(1, "owner", "0", 0, "t_address")+","+
			item(2, "__gap", "1", 0, "t_array(t_uint256)48_storage")+","+
			item(3, "extra", "49", 0, "t_uint256"),
		gapType(48)))

	d := Compare(old, newer)

	assert.Equal(t, map[string]int64{"contracts/Box.sol:Box": -1}, d.GapDelta)
	// The variable filling the freed slot sits inside the old extent.
	require.Len(t, d.Inserted, 1)
	assert.Equal(t, "extra", d.Inserted[0].Label)
}

func TestCompareNamespaces(t *testing.T) {
	structType := func(members string) string {
		return fmt.Sprintf(
			`"t_struct(Main)9_storage": {"encoding": "inplace", "label": "struct Box.Main", "numberOfBytes": "64", "members": [%s]}`,
			members)
	}
	member := func(astID int, label, slot string, typeRef string) string {
		return fmt.Sprintf(`{"astId": %d, "contract": "", "label": %q, "offset": 0, "slot": %q, "type": %q}`,
			astID, label, slot, typeRef)
	}

	oldDoc := layoutJSON("", structType(member(1, "owner", "0", "t_address")))
	newDoc := layoutJSON("", structType(
		member(1, "owner", "0", "t_address")+","+member(2, "paused", "1", "t_uint256")))

	old := mustLayout(t, oldDoc)
	old.AddNamespace(layout.NewNamespace("box.storage.Main", "contracts/Box.sol:Box", "t_struct(Main)9_storage"))
	old.AddNamespace(layout.NewNamespace("box.storage.Gone", "contracts/Box.sol:Box", ""))

	newer := mustLayout(t, newDoc)
	newer.AddNamespace(layout.NewNamespace("box.storage.Main", "contracts/Box.sol:Box", "t_struct(Main)9_storage"))
	newer.AddNamespace(layout.NewNamespace("box.storage.Fresh", "contracts/Box.sol:Box", ""))

	d := Compare(old, newer)

	require.Len(t, d.Removed, 1)
	assert.Equal(t, "box.storage.Gone", d.Removed[0].ID)
	require.Len(t, d.Added, 1)
	assert.Equal(t, "box.storage.Fresh", d.Added[0].ID)

	require.Len(t, d.Namespaces, 1)
	nd := d.Namespaces[0]
	assert.Equal(t, "box.storage.Main", nd.ID)
	assert.False(t, nd.StructChanged)
	require.Len(t, nd.Pairs, 1)
	require.Len(t, nd.Appended, 1)
	assert.Equal(t, "paused", nd.Appended[0].Label)
	assert.Empty(t, nd.Deleted)
	assert.Empty(t, nd.Inserted)
	assert.True(t, d.HasChanges())
}
