package ticket

import (
	"testing"

	"neovuln/internal/model/pteam"
	vulnrepo "neovuln/internal/repo/mysql/vuln"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherTopicTagsChanged(t *testing.T) {
	f := newFixture(t)
	tag := f.tag("pkgA")
	p := f.pteam("team")
	f.reference(p, tag, "2.0")
	topic := f.topic("topic", 1)
	f.action(topic, map[string][]string{"pkgA": {"<1.0"}})
	d := NewDispatcher(f.engine)

	require.NoError(t, d.TopicCreated(f.ctx, topic))
	assert.Empty(t, f.currentRows())

	// 标签变化后才会覆盖到团队
	require.NoError(t, vulnrepo.NewTopicRepository(f.db).ReplaceTags(f.ctx, topic.TopicID, []string{tag.TagID}))
	require.NoError(t, d.TopicUpdated(f.ctx, f.reload(topic), TopicChange{TagsChanged: true}))

	row := f.current(f.key(p, topic, tag))
	require.NotNil(t, row)
	assert.Equal(t, pteam.TopicStatusCompleted, row.TopicStatus)
}

func TestDispatcherTopicLifecycle(t *testing.T) {
	f := newFixture(t)
	tag := f.tag("pkgA")
	p := f.pteam("team")
	f.reference(p, tag, "2.0")
	topic := f.topic("topic", 1, tag)
	d := NewDispatcher(f.engine)

	require.NoError(t, d.TopicCreated(f.ctx, topic))
	row := f.current(f.key(p, topic, tag))
	require.NotNil(t, row)
	assert.Equal(t, pteam.TopicStatusAlerted, row.TopicStatus)

	// 动作创建后重新判断，2.0 不在受影响范围内
	f.action(topic, map[string][]string{"pkgA": {"<1.0"}})
	require.NoError(t, d.ActionCreated(f.ctx, topic))
	row = f.current(f.key(p, topic, tag))
	require.NotNil(t, row)
	assert.Equal(t, pteam.TopicStatusCompleted, row.TopicStatus)

	// 只改威胁等级不会触发自动关闭，但会重算
	require.NoError(t, f.db.Model(topic).Update("threat_impact", 3).Error)
	require.NoError(t, d.TopicUpdated(f.ctx, f.reload(topic), TopicChange{ThreatImpactChanged: true}))
	row = f.current(f.key(p, topic, tag))
	require.NotNil(t, row)
	assert.Nil(t, row.ThreatImpact)

	require.NoError(t, d.ActionDeleted(f.ctx, topic, "any"))
	assert.Equal(t, pteam.TopicStatusCompleted, f.current(f.key(p, topic, tag)).TopicStatus)

	require.NoError(t, d.TopicDeleted(f.ctx, topic.TopicID))
	assert.Empty(t, f.currentRows())
}

func TestDispatcherTopicReenabled(t *testing.T) {
	f := newFixture(t)
	tag := f.tag("pkgA")
	p := f.pteam("team")
	f.reference(p, tag, "2.0")
	topic := f.setTopicDisabled(f.topic("topic", 1, tag), true)
	f.action(topic, map[string][]string{"pkgA": {"<1.0"}})
	d := NewDispatcher(f.engine)

	require.NoError(t, d.TopicCreated(f.ctx, topic))
	assert.Empty(t, f.currentRows())

	enabled := f.setTopicDisabled(topic, false)
	require.NoError(t, d.TopicUpdated(f.ctx, enabled, TopicChange{Reenabled: true}))
	row := f.current(f.key(p, topic, tag))
	require.NotNil(t, row)
	assert.Equal(t, pteam.TopicStatusCompleted, row.TopicStatus)
}

func TestDispatcherPTeamLifecycle(t *testing.T) {
	f := newFixture(t)
	tag := f.tag("pkgA")
	topic := f.topic("topic", 1, tag)
	f.action(topic, map[string][]string{"pkgA": {"<1.0"}})
	d := NewDispatcher(f.engine)

	p := f.pteam("team")
	require.NoError(t, d.PTeamCreated(f.ctx, p))
	assert.Empty(t, f.currentRows())

	// 上传的版本仍受影响
	f.reference(p, tag, "0.5")
	require.NoError(t, d.ReferencesUploaded(f.ctx, p, []string{tag.TagID}))
	row := f.current(f.key(p, topic, tag))
	require.NotNil(t, row)
	assert.Equal(t, pteam.TopicStatusAlerted, row.TopicStatus)

	// 禁用团队
	require.NoError(t, f.db.Model(&pteam.PTeamTagReference{}).Where("pteam_id = ?", p.PTeamID).
		Update("version", "1.5").Error)
	p.Disabled = true
	require.NoError(t, d.PTeamUpdated(f.ctx, p, false))
	assert.Empty(t, f.currentRows())

	// 重新启用时按新版本自动关闭
	p.Disabled = false
	require.NoError(t, d.PTeamUpdated(f.ctx, p, true))
	row = f.current(f.key(p, topic, tag))
	require.NotNil(t, row)
	assert.Equal(t, pteam.TopicStatusCompleted, row.TopicStatus)
}

func TestDispatcherActionDeletedKeepsStatus(t *testing.T) {
	f := newFixture(t)
	tag := f.tag("pkgA")
	p := f.pteam("team")
	f.reference(p, tag, "2.0")
	topic := f.topic("topic", 1, tag)
	action := f.action(topic, map[string][]string{"pkgA": {"<1.0"}})
	d := NewDispatcher(f.engine)

	require.NoError(t, d.TopicCreated(f.ctx, topic))
	key := f.key(p, topic, tag)
	require.Equal(t, pteam.TopicStatusCompleted, f.current(key).TopicStatus)
	history := f.count(&pteam.PTeamTopicTagStatus{})

	// 删除唯一的动作后，已关闭的工单既不重开也不新增历史
	require.NoError(t, vulnrepo.NewActionRepository(f.db).Delete(f.ctx, action.ActionID))
	require.NoError(t, d.ActionDeleted(f.ctx, topic, action.ActionID))

	assert.Equal(t, history, f.count(&pteam.PTeamTopicTagStatus{}))
	assert.Equal(t, pteam.TopicStatusCompleted, f.latest(key).TopicStatus)
	assert.Equal(t, pteam.TopicStatusCompleted, f.current(key).TopicStatus)
}
