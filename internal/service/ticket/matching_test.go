package ticket

import (
	"testing"

	"neovuln/internal/model/tag_system"
	"neovuln/internal/model/vuln"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func strPtr(s string) *string { return &s }

func newAction(id string, vulnerable map[string][]string) *vuln.TopicAction {
	return &vuln.TopicAction{
		ActionID: id,
		Ext:      datatypes.NewJSONType(vuln.ActionExt{VulnerableVersions: vulnerable}),
	}
}

func TestPickActionsForPTeamTag(t *testing.T) {
	child := &tag_system.Tag{TagID: "c", TagName: "a:a:a1", ParentID: strPtr("p"), ParentName: strPtr("a:a:")}
	group := &tag_system.Tag{TagID: "p", TagName: "a:a:", ParentID: strPtr("p"), ParentName: strPtr("a:a:")}

	byChild := newAction("1", map[string][]string{"a:a:a1": {"<1.0"}})
	byParent := newAction("2", map[string][]string{"a:a:": {"<2.0"}})
	emptyList := newAction("3", map[string][]string{"a:a:a1": {}})
	noExt := newAction("4", nil)
	other := newAction("5", map[string][]string{"b:b:b1": {"<1.0"}})
	actions := []*vuln.TopicAction{byChild, byParent, emptyList, noExt, other}

	assert.Equal(t, []*vuln.TopicAction{byChild, byParent}, pickActionsForPTeamTag(actions, child))
	// 组级标签以自身为父标签，只按自身名称匹配
	assert.Equal(t, []*vuln.TopicAction{byParent}, pickActionsForPTeamTag(actions, group))
	assert.Empty(t, pickActionsForPTeamTag([]*vuln.TopicAction{emptyList, noExt}, child))
}

func TestPickVulnerableVersionStrings(t *testing.T) {
	tag := &tag_system.Tag{TagID: "c", TagName: "a:a:a1", ParentID: strPtr("p"), ParentName: strPtr("a:a:")}
	actions := []*vuln.TopicAction{
		newAction("1", map[string][]string{"a:a:a1": {">=1.0 <1.2 || >=2.0 <2.1", "<0.5"}}),
		newAction("2", map[string][]string{"a:a:": {"<0.5"}, "x:y:z": {"<9"}}),
	}

	got := pickVulnerableVersionStrings(actions, tag)
	assert.Equal(t, []string{"<0.5", ">=1.0 <1.2", ">=2.0 <2.1"}, got)
}

func TestDetectVulnerable(t *testing.T) {
	tests := []struct {
		name       string
		tagName    string
		ranges     []string
		versions   []string
		vulnerable bool
		wantErr    bool
	}{
		{name: "below bound", tagName: "pkgA", ranges: []string{">=0 <1.1"}, versions: []string{"1.0"}, vulnerable: true},
		{name: "above bound", tagName: "pkgA", ranges: []string{">=0 <1.2.4"}, versions: []string{"1.2.5"}},
		{name: "any version matches", tagName: "pkgA", ranges: []string{"<1.3.0"}, versions: []string{"2.0", "1.2.5"}, vulnerable: true},
		{name: "unparsable version", tagName: "pkgA", ranges: []string{"<1.0"}, versions: []string{"a"}, wantErr: true},
		{name: "ambiguous range", tagName: "pkgA", ranges: []string{">=1.0 >1.0"}, versions: []string{"1.0"}, wantErr: true},
		{name: "debian epochs", tagName: "libc6:debian-12:dpkg", ranges: []string{"<2:1.0"}, versions: []string{"1:2.0-1"}, wantErr: true},
		{name: "debian revision", tagName: "libc6:debian-12:dpkg", ranges: []string{"<2.36-9+deb12u4"}, versions: []string{"2.36-9+deb12u7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := detectVulnerable(tt.tagName, tt.ranges, tt.versions)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.vulnerable, got)
		})
	}
}
