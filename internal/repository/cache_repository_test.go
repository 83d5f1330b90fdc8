package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "timetable", nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "week:MP2I:3", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "week:MP2I:3", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "week:*"))
	require.NoError(t, repo.Close())
}

func TestCacheRepositoryKeyNamespace(t *testing.T) {
	assert.Equal(t, "timetable:week:1", NewCacheRepository(nil, "timetable", nil).key("week:1"))
	assert.Equal(t, "week:1", NewCacheRepository(nil, "", nil).key("week:1"))
}
