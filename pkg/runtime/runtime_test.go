package runtime_test

import (
	"testing"

	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-actor-dispatch/pkg/runtime"
)

func TestAbortf(t *testing.T) {
	thrown := func() (thrown interface{}) {
		defer func() {
			thrown = recover()
		}()
		runtime.Abortf(exitcode.ErrForbidden, "caller %s may not call", "f01234")
		return
	}()

	abort, ok := thrown.(runtime.ExecutionPanic)
	require.True(t, ok)
	assert.Equal(t, exitcode.ErrForbidden, abort.Code())
	assert.Contains(t, abort.Error(), "f01234")
}

func TestMemoryHostBlocks(t *testing.T) {
	host := runtime.NewMemoryHost()

	t.Run("handle zero carries no bytes", func(t *testing.T) {
		raw, err := host.ParamsRaw(runtime.NoDataBlockID)
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("put then read back", func(t *testing.T) {
		id, err := host.PutBlock(runtime.DagCBOR, []byte{0x01, 0x02})
		require.NoError(t, err)
		assert.Equal(t, uint32(1), id)

		raw, err := host.ParamsRaw(id)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02}, raw)
	})

	t.Run("unknown handle is an error", func(t *testing.T) {
		_, err := host.ParamsRaw(42)
		assert.Error(t, err)
	})
}

func TestMemoryHostRoot(t *testing.T) {
	host := runtime.NewMemoryHost()

	_, err := host.Root()
	assert.Error(t, err, "fresh host has no root")

	c, err := host.StoreBlock(runtime.DagCBOR, runtime.HashBlake2b256, []byte("state"))
	require.NoError(t, err)
	require.NoError(t, host.SetRoot(c))

	got, err := host.Root()
	require.NoError(t, err)
	assert.Equal(t, c, got)

	raw, found, err := host.GetBlock(c)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("state"), raw)

	host.ClearRoot()
	_, err = host.Root()
	assert.Error(t, err)
}

func TestMemoryHostGetBlockAbsent(t *testing.T) {
	host := runtime.NewMemoryHost()
	missing, err := cid.NewPrefixV1(runtime.DagCBOR, runtime.HashBlake2b256).Sum([]byte("absent"))
	require.NoError(t, err)

	_, found, err := host.GetBlock(missing)
	require.NoError(t, err)
	assert.False(t, found)
}
