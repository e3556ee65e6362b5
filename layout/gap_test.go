package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gappedLayoutJSON = `{
  "storage": [
    {"astId": 3, "contract": "base.sol:Base", "label": "owner", "offset": 0, "slot": "0", "type": "t_address"},
    {"astId": 5, "contract": "base.sol:Base", "label": "__gap", "offset": 0, "slot": "1", "type": "t_array(t_uint256)49_storage"},
    {"astId": 9, "contract": "child.sol:Child", "label": "supply", "offset": 0, "slot": "50", "type": "t_uint256"},
    {"astId": 11, "contract": "child.sol:Child", "label": "balances", "offset": 0, "slot": "51", "type": "t_mapping(t_address,t_uint256)"}
  ],
  "types": {
    "t_address": {"encoding": "inplace", "label": "address", "numberOfBytes": "20"},
    "t_uint256": {"encoding": "inplace", "label": "uint256", "numberOfBytes": "32"},
    "t_array(t_uint256)49_storage": {"encoding": "inplace", "base": "t_uint256", "label": "uint256[49]", "numberOfBytes": "1568"},
    "t_mapping(t_address,t_uint256)": {"encoding": "mapping", "key": "t_address", "value": "t_uint256", "label": "mapping(address => uint256)", "numberOfBytes": "32"}
  }
}`

func TestGaps(t *testing.T) {
	l, err := ParseString(gappedLayoutJSON)
	require.NoError(t, err)

	gaps := l.Gaps()
	require.Len(t, gaps, 1)
	assert.Equal(t, "__gap", gaps[0].Label)
	assert.Equal(t, "1", gaps[0].Slot.String())
}

func TestGapMatcher(t *testing.T) {
	l, err := ParseString(gappedLayoutJSON)
	require.NoError(t, err)

	matcher := MustGapMatcher("")
	gap, ok := l.ItemByLabel("__gap")
	require.True(t, ok)

	t.Run("recognizes fixed uint256 array", func(t *testing.T) {
		assert.True(t, matcher.IsGap(l, gap))
		assert.Equal(t, uint64(49), matcher.GapSlots(l, gap))
	})

	t.Run("rejects non-gap labels", func(t *testing.T) {
		owner, ok := l.ItemByLabel("owner")
		require.True(t, ok)
		assert.False(t, matcher.IsGap(l, owner))
		assert.Zero(t, matcher.GapSlots(l, owner))
	})

	t.Run("rejects mappings even when label matches", func(t *testing.T) {
		loose, err := NewGapMatcher(`^balances$`)
		require.NoError(t, err)

		balances, ok := l.ItemByLabel("balances")
		require.True(t, ok)
		assert.False(t, loose.IsGap(l, balances))
	})

	t.Run("custom pattern", func(t *testing.T) {
		custom, err := NewGapMatcher(`^__gap.*$`)
		require.NoError(t, err)
		assert.True(t, custom.IsGap(l, gap))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := NewGapMatcher(`[`)
		assert.Error(t, err)
	})
}
