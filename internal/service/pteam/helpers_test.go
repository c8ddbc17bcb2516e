package pteam

import (
	"context"
	"strings"
	"testing"
	"time"

	"neovuln/internal/config"
	"neovuln/internal/model/pteam"
	"neovuln/internal/model/vuln"
	"neovuln/internal/pkg/database"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
	systemrepo "neovuln/internal/repo/mysql/system"
	redisrepo "neovuln/internal/repo/redis"
	tagservice "neovuln/internal/service/tag_system"
	"neovuln/internal/service/ticket"
	vulnservice "neovuln/internal/service/vuln"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	mr     *miniredis.Miniredis
	actor  string
	tags   tagservice.TagService
	topics vulnservice.TopicService
	svc    PTeamService
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
	actor, err := accounts.EnsureByEmail(ctx, "bob@example.com")
	require.NoError(t, err)

	engine, err := ticket.NewEngine(ctx, db, "system@example.com")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := redisrepo.NewSummaryCache(client, time.Minute, "summary:")

	tags := tagservice.NewTagService(db)
	return &testEnv{
		t:      t,
		ctx:    ctx,
		db:     db,
		mr:     mr,
		actor:  actor.UserID,
		tags:   tags,
		topics: vulnservice.NewTopicService(db, engine, tags, cache),
		svc:    NewPTeamService(db, engine, tags, cache),
	}
}

func (e *testEnv) pteam(name string) *pteam.PTeam {
	e.t.Helper()
	p, err := e.svc.CreatePTeam(e.ctx, &pteam.CreatePTeamRequest{PTeamName: name}, e.actor)
	require.NoError(e.t, err)
	return p
}

func (e *testEnv) upload(p *pteam.PTeam, group string, lines ...string) *pteam.UploadReferencesResponse {
	e.t.Helper()
	resp, err := e.svc.UploadReferences(e.ctx, p.PTeamID, group, strings.NewReader(strings.Join(lines, "\n")), e.actor)
	require.NoError(e.t, err)
	return resp
}

// flaskTopic 带父标签 flask:pypi: 的话题，vulnerable 为空时不带处置动作
func (e *testEnv) flaskTopic(title string, vulnerable ...string) *vuln.Topic {
	e.t.Helper()
	req := &vuln.CreateTopicRequest{
		Title:        title,
		Abstract:     "abstract",
		ThreatImpact: 2,
		Tags:         []string{"flask:pypi:"},
	}
	if len(vulnerable) > 0 {
		req.Actions = []*vuln.CreateActionRequest{{
			Action:     "upgrade flask",
			ActionType: vuln.ActionTypeElimination,
			Ext: vuln.ActionExt{
				Tags:               []string{"flask:pypi:pip"},
				VulnerableVersions: map[string][]string{"flask:pypi:pip": vulnerable},
			},
		}}
	}
	topic, err := e.topics.CreateTopic(e.ctx, req, e.actor)
	require.NoError(e.t, err)
	return topic
}

func (e *testEnv) tagID(name string) string {
	e.t.Helper()
	tag, err := e.tags.GetOrCreateTag(e.ctx, name)
	require.NoError(e.t, err)
	return tag.TagID
}

func (e *testEnv) current(p *pteam.PTeam, topic *vuln.Topic, tagID string) *pteam.CurrentPTeamTopicTagStatus {
	e.t.Helper()
	row, err := pteamrepo.NewStatusRepository(e.db).GetCurrent(e.ctx, pteam.StatusKey{
		PTeamID: p.PTeamID, TopicID: topic.TopicID, TagID: tagID,
	})
	require.NoError(e.t, err)
	return row
}

func flaskLine(versions ...string) string {
	refs := make([]string, 0, len(versions))
	for _, v := range versions {
		refs = append(refs, `{"target":"requirements.txt","version":"`+v+`"}`)
	}
	return `{"tag_name":"flask:pypi:pip","references":[` + strings.Join(refs, ",") + `]}`
}
