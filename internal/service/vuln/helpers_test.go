package vuln

import (
	"context"
	"testing"
	"time"

	"neovuln/internal/config"
	"neovuln/internal/model/pteam"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/pkg/database"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
	systemrepo "neovuln/internal/repo/mysql/system"
	redisrepo "neovuln/internal/repo/redis"
	tagservice "neovuln/internal/service/tag_system"
	"neovuln/internal/service/ticket"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t       *testing.T
	ctx     context.Context
	db      *gorm.DB
	actor   string
	tags    tagservice.TagService
	topics  TopicService
	actions ActionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewSQLiteConnection(&config.SQLiteConfig{Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))

	ctx := context.Background()
	accounts := systemrepo.NewAccountRepository(db)
	_, err = accounts.EnsureByEmail(ctx, "system@example.com")
	require.NoError(t, err)
	actor, err := accounts.EnsureByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	engine, err := ticket.NewEngine(ctx, db, "system@example.com")
	require.NoError(t, err)
	cache := redisrepo.NewSummaryCache(nil, time.Minute, "test:")
	tags := tagservice.NewTagService(db)

	return &testEnv{
		t:       t,
		ctx:     ctx,
		db:      db,
		actor:   actor.UserID,
		tags:    tags,
		topics:  NewTopicService(db, engine, tags, cache),
		actions: NewActionService(db, engine, cache),
	}
}

func (e *testEnv) tag(name string) *tag_system.Tag {
	e.t.Helper()
	tag, err := e.tags.GetOrCreateTag(e.ctx, name)
	require.NoError(e.t, err)
	return tag
}

// pteamWith 创建团队并声明标签版本
func (e *testEnv) pteamWith(tagName string, versions ...string) *pteam.PTeam {
	e.t.Helper()
	p := &pteam.PTeam{PTeamName: "team"}
	require.NoError(e.t, e.db.Create(p).Error)
	tag := e.tag(tagName)
	for _, v := range versions {
		require.NoError(e.t, e.db.Create(&pteam.PTeamTagReference{
			PTeamID: p.PTeamID, TagID: tag.TagID, Group: "svc", Target: "requirements.txt", Version: v,
		}).Error)
	}
	return p
}

func (e *testEnv) current(p *pteam.PTeam, topicID, tagID string) *pteam.CurrentPTeamTopicTagStatus {
	e.t.Helper()
	row, err := pteamrepo.NewStatusRepository(e.db).GetCurrent(e.ctx, pteam.StatusKey{
		PTeamID: p.PTeamID, TopicID: topicID, TagID: tagID,
	})
	require.NoError(e.t, err)
	return row
}

func (e *testEnv) currentCount(p *pteam.PTeam) int {
	e.t.Helper()
	rows, err := pteamrepo.NewStatusRepository(e.db).ListCurrentByPTeam(e.ctx, p.PTeamID)
	require.NoError(e.t, err)
	return len(rows)
}
