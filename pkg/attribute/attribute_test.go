package attribute_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-actor-dispatch/pkg/attribute"
)

func TestParseActorConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := attribute.ParseActorConfig("state = Counter")
		require.NoError(t, err)
		assert.Equal(t, "Counter", cfg.StateType)
		assert.Equal(t, attribute.MethodNum, cfg.Mode)
		assert.True(t, cfg.Invoke)
	})

	t.Run("all keys", func(t *testing.T) {
		cfg, err := attribute.ParseActorConfig(`state = Counter, dispatch = "abi_selector", invoke = false`)
		require.NoError(t, err)
		assert.Equal(t, "Counter", cfg.StateType)
		assert.Equal(t, attribute.AbiSelector, cfg.Mode)
		assert.False(t, cfg.Invoke)
	})

	t.Run("spacing is flexible", func(t *testing.T) {
		cfg, err := attribute.ParseActorConfig(`state=Counter,dispatch=method_num`)
		require.NoError(t, err)
		assert.Equal(t, "Counter", cfg.StateType)
		assert.Equal(t, attribute.MethodNum, cfg.Mode)
	})

	t.Run("missing state is an error", func(t *testing.T) {
		_, err := attribute.ParseActorConfig("dispatch = method_num")
		assert.Error(t, err)

		_, err = attribute.ParseActorConfig("")
		assert.Error(t, err)

		_, err = attribute.ParseActorConfig(`state = ""`)
		assert.Error(t, err)
	})

	t.Run("unrecognized dispatch value is an error", func(t *testing.T) {
		_, err := attribute.ParseActorConfig("state = Counter, dispatch = by_name")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "by_name")
	})

	t.Run("bad invoke literal is an error", func(t *testing.T) {
		_, err := attribute.ParseActorConfig("state = Counter, invoke = maybe")
		assert.Error(t, err)
	})

	t.Run("unknown key is an error", func(t *testing.T) {
		_, err := attribute.ParseActorConfig("state = Counter, color = red")
		assert.Error(t, err)
	})

	t.Run("bare token is an error", func(t *testing.T) {
		_, err := attribute.ParseActorConfig("state = Counter, invoke")
		assert.Error(t, err)
	})
}

func TestParseBinding(t *testing.T) {
	t.Run("numeric", func(t *testing.T) {
		b, err := attribute.ParseBinding("binding = 2")
		require.NoError(t, err)
		assert.Equal(t, "2", b)
	})

	t.Run("quoted selector", func(t *testing.T) {
		b, err := attribute.ParseBinding(`binding = "increment"`)
		require.NoError(t, err)
		assert.Equal(t, "increment", b)
	})

	t.Run("missing binding key is an error", func(t *testing.T) {
		_, err := attribute.ParseBinding("method = 2")
		assert.Error(t, err)

		_, err = attribute.ParseBinding("")
		assert.Error(t, err)
	})

	t.Run("extra keys are an error", func(t *testing.T) {
		_, err := attribute.ParseBinding("binding = 2, invoke = true")
		assert.Error(t, err)
	})

	t.Run("empty value is an error", func(t *testing.T) {
		_, err := attribute.ParseBinding("binding = ")
		assert.Error(t, err)
	})
}
