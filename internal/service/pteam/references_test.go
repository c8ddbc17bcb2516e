package pteam

import (
	"strings"
	"testing"

	"neovuln/internal/model/pteam"
	"neovuln/internal/model/system"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReferenceLines(t *testing.T) {
	content := `
{"tag_name":"flask:pypi:pip","references":[{"target":"a","version":"2.0"},{"target":"b","version":" 2.1 "}]}

{"tag_name":"openssl:debian-12:apt","references":[{"target":"","version":"3.0.11-1~deb12u2"}]}
`
	lines, err := ParseReferenceLines(strings.NewReader(content), 0)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "flask:pypi:pip", lines[0].TagName)
	assert.Equal(t, []pteam.ReferenceItem{{Target: "a", Version: "2.0"}, {Target: "b", Version: "2.1"}}, lines[0].References)
	assert.Equal(t, "3.0.11-1~deb12u2", lines[1].References[0].Version)

	bad := []struct {
		name    string
		content string
	}{
		{"空文件", "\n\n"},
		{"非 JSON", "tag_name=flask"},
		{"缺少 tag_name", `{"references":[{"target":"a","version":"1"}]}`},
		{"缺少 references", `{"tag_name":"flask:pypi:pip"}`},
		{"缺少 version", `{"tag_name":"flask:pypi:pip","references":[{"target":"a"}]}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReferenceLines(strings.NewReader(tt.content), 0)
			assert.True(t, system.IsValidationError(err))
		})
	}
}

func TestParseReferenceLinesTooLong(t *testing.T) {
	line := `{"tag_name":"flask:pypi:pip","references":[{"target":"` + strings.Repeat("a", 256) + `","version":"1.0"}]}`
	_, err := ParseReferenceLines(strings.NewReader(line), 128)
	assert.True(t, system.IsValidationError(err))

	lines, err := ParseReferenceLines(strings.NewReader(line), 1024)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestChangedVersionTags(t *testing.T) {
	ref := func(tag, group, version string) *pteam.PTeamTagReference {
		return &pteam.PTeamTagReference{TagID: tag, Group: group, Version: version}
	}
	before := []*pteam.PTeamTagReference{
		ref("a", "g1", "1.0"),
		ref("b", "g1", "1.0"),
		ref("c", "g1", "1.0"),
		ref("c", "g2", "2.0"),
	}
	after := []*pteam.PTeamTagReference{
		ref("a", "g1", "1.0"),
		ref("b", "g1", "1.1"),
		ref("c", "g2", "2.0"),
		ref("d", "g1", "1.0"),
	}
	assert.Equal(t, []string{"b", "c", "d"}, changedVersionTags(before, after))
	assert.Empty(t, changedVersionTags(after, after))
}

func TestUploadReferences(t *testing.T) {
	env := newTestEnv(t)
	p := env.pteam("team")
	topic := env.flaskTopic("flask advisory", "<1.0")
	tagID := env.tagID("flask:pypi:pip")

	resp := env.upload(p, "svc", flaskLine("0.5", "0.5"))
	assert.Equal(t, 1, resp.Tags)
	assert.Equal(t, 1, resp.References)
	assert.Equal(t, []string{tagID}, resp.ChangedTags)
	assert.Equal(t, pteam.TopicStatusAlerted, env.current(p, topic, tagID).TopicStatus)

	// 版本集合不变
	resp = env.upload(p, "svc", flaskLine("0.5"))
	assert.Empty(t, resp.ChangedTags)

	// 另一个分组的引用不受影响，版本集合按团队汇总
	env.upload(p, "other", flaskLine("2.0"))
	assert.Equal(t, pteam.TopicStatusAlerted, env.current(p, topic, tagID).TopicStatus)

	resp = env.upload(p, "svc", flaskLine("2.0"))
	assert.Equal(t, []string{tagID}, resp.ChangedTags)
	row := env.current(p, topic, tagID)
	require.NotNil(t, row)
	assert.Equal(t, pteam.TopicStatusCompleted, row.TopicStatus)

	detail, err := env.svc.GetPTeam(env.ctx, p.PTeamID)
	require.NoError(t, err)
	require.Len(t, detail.References, 2)
	assert.Equal(t, "flask:pypi:pip", detail.References[0].TagName)

	// 替换为其他标签后旧工单行被移除
	env.upload(p, "svc", `{"tag_name":"requests:pypi:pip","references":[{"target":"x","version":"1.0"}]}`)
	env.upload(p, "other", `{"tag_name":"requests:pypi:pip","references":[{"target":"x","version":"1.0"}]}`)
	assert.Nil(t, env.current(p, topic, tagID))
}

func TestUploadReferencesValidation(t *testing.T) {
	env := newTestEnv(t)
	p := env.pteam("team")

	_, err := env.svc.UploadReferences(env.ctx, p.PTeamID, " ", strings.NewReader(flaskLine("1.0")), env.actor)
	assert.True(t, system.IsValidationError(err))

	_, err = env.svc.UploadReferences(env.ctx, "missing", "svc", strings.NewReader(flaskLine("1.0")), env.actor)
	assert.ErrorIs(t, err, system.ErrPTeamNotFound)
}
