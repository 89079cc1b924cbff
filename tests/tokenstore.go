package testutil

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
)

// CheckTokenStore runs the behaviour every core.TokenStore must have against store.
func CheckTokenStore(t *testing.T, store core.TokenStore) {
	ctx := context.Background()

	_, err := store.Load(ctx, "sid-1")
	assert.Equal(t, core.ErrTokenNotFound, errors.Cause(err), "unknown key")

	require.NoError(t, store.Save(ctx, "sid-1", "tok-1"))
	require.NoError(t, store.Save(ctx, "sid-2", "tok-2"))
	token, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.Save(ctx, "sid-1", "tok-1b"), "overwrite")
	token, err = store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1b", token)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Load(ctx, "sid-1")
	assert.Equal(t, core.ErrTokenNotFound, errors.Cause(err), "deleted key")

	token, err = store.Load(ctx, "sid-2")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token, "other keys are untouched")

	assert.NoError(t, store.Delete(ctx, "lol"), "unknown keys can be deleted")
}
