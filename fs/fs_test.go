package fs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryFSRoundTrip(t *testing.T) {
	filesystem := NewInMemoryFS()

	require.NoError(t, filesystem.MkdirAll("out/Token.sol", 0o755))
	require.NoError(t, filesystem.WriteFile("out/Token.sol/Token.json", []byte(`{"abi":[]}`), 0o644))

	data, err := filesystem.ReadFile("out/Token.sol/Token.json")
	require.NoError(t, err)
	assert.Equal(t, `{"abi":[]}`, string(data))
}

func TestExists(t *testing.T) {
	filesystem := NewInMemoryFS()
	require.NoError(t, filesystem.WriteFile("upgradeguard.cue", []byte("format: \"text\""), 0o644))

	t.Run("existing file", func(t *testing.T) {
		ok, err := filesystem.Exists("upgradeguard.cue")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing file", func(t *testing.T) {
		ok, err := filesystem.Exists("missing.cue")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestReadDir(t *testing.T) {
	filesystem := NewInMemoryFS()
	require.NoError(t, filesystem.WriteFile("out/A.sol/A.json", []byte("{}"), 0o644))
	require.NoError(t, filesystem.WriteFile("out/B.sol/B.json", []byte("{}"), 0o644))

	entries, err := filesystem.ReadDir("out")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := []string{entries[0].Name(), entries[1].Name()}
	assert.ElementsMatch(t, []string{"A.sol", "B.sol"}, names)
}

func TestOpenAndStat(t *testing.T) {
	filesystem := NewInMemoryFS()
	content := []byte("contract artifact")
	require.NoError(t, filesystem.WriteFile("artifact.json", content, 0o644))

	f, err := filesystem.Open("artifact.json")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	buf := make([]byte, len(content))
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(content), n)
	assert.Equal(t, content, buf)

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size())
}

func TestRemove(t *testing.T) {
	filesystem := NewInMemoryFS()
	require.NoError(t, filesystem.WriteFile("stale.json", []byte("{}"), 0o644))
	require.NoError(t, filesystem.Remove("stale.json"))

	_, err := filesystem.ReadFile("stale.json")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(unwrapAll(err)))
}

// unwrapAll peels wrapping added by the facade so os.IsNotExist applies.
func unwrapAll(err error) error {
	for {
		unwrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapped.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}
