package tag_system

import (
	"context"
	"testing"

	"neovuln/internal/config"
	"neovuln/internal/model/system"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) TagService {
	t.Helper()
	db, err := database.NewSQLiteConnection(&config.SQLiteConfig{Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))
	return NewTagService(db)
}

func TestGetOrCreateTag(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	t.Run("三段式标签创建父标签", func(t *testing.T) {
		tag, err := s.GetOrCreateTag(ctx, "openssl:debian-12:apt")
		require.NoError(t, err)
		require.NotNil(t, tag.ParentID)
		assert.Equal(t, "openssl:debian-12:", *tag.ParentName)

		parent, err := s.GetTag(ctx, *tag.ParentID)
		require.NoError(t, err)
		assert.Equal(t, "openssl:debian-12:", parent.TagName)
		// 父标签以自身为父
		require.NotNil(t, parent.ParentID)
		assert.Equal(t, parent.TagID, *parent.ParentID)
	})

	t.Run("名称含冒号时父标签只去掉最后一段", func(t *testing.T) {
		tag, err := s.GetOrCreateTag(ctx, "org.springframework:spring-core:maven:pom")
		require.NoError(t, err)
		require.NotNil(t, tag.ParentName)
		assert.Equal(t, "org.springframework:spring-core:maven:", *tag.ParentName)

		parent, err := s.GetTag(ctx, *tag.ParentID)
		require.NoError(t, err)
		require.NotNil(t, parent.ParentID)
		assert.Equal(t, parent.TagID, *parent.ParentID)
	})

	t.Run("重复获取返回同一行", func(t *testing.T) {
		first, err := s.GetOrCreateTag(ctx, "flask:pypi:pip")
		require.NoError(t, err)
		second, err := s.GetOrCreateTag(ctx, " flask:pypi:pip ")
		require.NoError(t, err)
		assert.Equal(t, first.TagID, second.TagID)
	})

	t.Run("两段式标签没有父标签", func(t *testing.T) {
		tag, err := s.GetOrCreateTag(ctx, "nginx:docker")
		require.NoError(t, err)
		assert.Nil(t, tag.ParentID)
		assert.Nil(t, tag.ParentName)
	})

	t.Run("空名称", func(t *testing.T) {
		_, err := s.GetOrCreateTag(ctx, "  ")
		assert.True(t, system.IsValidationError(err))
	})
}

func TestGetOrCreateTagsDeduplicates(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	tags, err := s.GetOrCreateTags(ctx, []string{"b:npm:npm", "a:npm:npm", "b:npm:npm"})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "b:npm:npm", tags[0].TagName)
	assert.Equal(t, "a:npm:npm", tags[1].TagName)
}

func TestListAndSearchTags(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.GetOrCreateTags(ctx, []string{"requests:pypi:pip", "urllib3:pypi:pip", "lodash:npm:npm"})
	require.NoError(t, err)

	// 每个子标签各带一个父标签
	tags, total, err := s.ListTags(ctx, &tag_system.ListTagsRequest{Keyword: "pypi"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, tags, 4)
	assert.Equal(t, "requests:pypi:", tags[0].TagName)

	tags, _, err = s.ListTags(ctx, &tag_system.ListTagsRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	found, err := s.SearchTags(ctx, "lodash")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = s.GetTag(ctx, "missing")
	assert.ErrorIs(t, err, system.ErrNotFound)
}
