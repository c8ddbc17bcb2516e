package ticket

import (
	"context"
	"testing"

	"neovuln/internal/config"
	model "neovuln/internal/model/basemodel"
	"neovuln/internal/model/pteam"
	"neovuln/internal/model/tag_system"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/database"
	"neovuln/internal/pkg/tagtree"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
	systemrepo "neovuln/internal/repo/mysql/system"
	vulnrepo "neovuln/internal/repo/mysql/vuln"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testSystemEmail = "system@example.com"

// fixture 内存 SQLite 上的引擎与测试数据构造器
type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewSQLiteConnection(&config.SQLiteConfig{Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))

	ctx := context.Background()
	_, err = systemrepo.NewAccountRepository(db).EnsureByEmail(ctx, testSystemEmail)
	require.NoError(t, err)

	engine, err := NewEngine(ctx, db, testSystemEmail)
	require.NoError(t, err)

	return &fixture{t: t, ctx: ctx, db: db, engine: engine}
}

// tag 按名称取标签，不存在时连同父标签一起创建
func (f *fixture) tag(name string) *tag_system.Tag {
	f.t.Helper()
	var existing tag_system.Tag
	if err := f.db.Where("tag_name = ?", name).First(&existing).Error; err == nil {
		return &existing
	}

	tag := &tag_system.Tag{TagID: model.NewID(), TagName: name}
	if parentName, ok := tagtree.ParentOf(name); ok {
		if parentName == name {
			id, n := tag.TagID, name
			tag.ParentID, tag.ParentName = &id, &n
		} else {
			parent := f.tag(parentName)
			tag.ParentID, tag.ParentName = &parent.TagID, &parent.TagName
		}
	}
	require.NoError(f.t, f.db.Create(tag).Error)
	return tag
}

func (f *fixture) pteam(name string) *pteam.PTeam {
	f.t.Helper()
	p := &pteam.PTeam{PTeamName: name}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

func (f *fixture) reference(p *pteam.PTeam, tag *tag_system.Tag, versions ...string) {
	f.t.Helper()
	for _, v := range versions {
		require.NoError(f.t, f.db.Create(&pteam.PTeamTagReference{
			PTeamID: p.PTeamID,
			TagID:   tag.TagID,
			Group:   "svc",
			Target:  "target",
			Version: v,
		}).Error)
	}
}

func (f *fixture) topic(title string, threatImpact int, tags ...*tag_system.Tag) *vuln.Topic {
	f.t.Helper()
	topic := &vuln.Topic{
		Title:              title,
		Abstract:           "abstract of " + title,
		ThreatImpact:       threatImpact,
		ContentFingerprint: "fingerprint",
		CreatedBy:          f.engine.SystemUserID(),
	}
	require.NoError(f.t, f.db.Create(topic).Error)
	ids := make([]string, 0, len(tags))
	for _, tag := range tags {
		ids = append(ids, tag.TagID)
	}
	repo := vulnrepo.NewTopicRepository(f.db)
	require.NoError(f.t, repo.ReplaceTags(f.ctx, topic.TopicID, ids))
	return f.reload(topic)
}

func (f *fixture) reload(topic *vuln.Topic) *vuln.Topic {
	f.t.Helper()
	loaded, err := vulnrepo.NewTopicRepository(f.db).GetByID(f.ctx, topic.TopicID)
	require.NoError(f.t, err)
	require.NotNil(f.t, loaded)
	return loaded
}

func (f *fixture) setTopicDisabled(topic *vuln.Topic, disabled bool) *vuln.Topic {
	f.t.Helper()
	require.NoError(f.t, vulnrepo.NewTopicRepository(f.db).Update(f.ctx, topic.TopicID, map[string]interface{}{
		"disabled":   disabled,
		"updated_at": model.Now(),
	}))
	return f.reload(topic)
}

func (f *fixture) action(topic *vuln.Topic, vulnerable map[string][]string) *vuln.TopicAction {
	f.t.Helper()
	tags := make([]string, 0, len(vulnerable))
	for name := range vulnerable {
		tags = append(tags, name)
	}
	action := &vuln.TopicAction{
		TopicID:     topic.TopicID,
		Action:      "upgrade",
		ActionType:  vuln.ActionTypeElimination,
		Recommended: true,
		Ext:         datatypes.NewJSONType(vuln.ActionExt{Tags: tags, VulnerableVersions: vulnerable}),
		CreatedBy:   f.engine.SystemUserID(),
	}
	require.NoError(f.t, f.db.Create(action).Error)
	return action
}

func (f *fixture) key(p *pteam.PTeam, topic *vuln.Topic, tag *tag_system.Tag) pteam.StatusKey {
	return pteam.StatusKey{PTeamID: p.PTeamID, TopicID: topic.TopicID, TagID: tag.TagID}
}

func (f *fixture) latest(key pteam.StatusKey) *pteam.PTeamTopicTagStatus {
	f.t.Helper()
	s, err := pteamrepo.NewStatusRepository(f.db).LatestStatus(f.ctx, key)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) current(key pteam.StatusKey) *pteam.CurrentPTeamTopicTagStatus {
	f.t.Helper()
	c, err := pteamrepo.NewStatusRepository(f.db).GetCurrent(f.ctx, key)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) currentRows() []pteam.CurrentPTeamTopicTagStatus {
	f.t.Helper()
	var rows []pteam.CurrentPTeamTopicTagStatus
	require.NoError(f.t, f.db.Order("pteam_id, topic_id, tag_id").Find(&rows).Error)
	return rows
}

func (f *fixture) count(m interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(m).Count(&n).Error)
	return n
}
