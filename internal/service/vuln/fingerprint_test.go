package vuln

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentFingerprint(t *testing.T) {
	base := ContentFingerprint("title", "abstract", 1, []string{"b", "a"})
	assert.Len(t, base, 32)

	// 标签顺序与重复不影响指纹
	assert.Equal(t, base, ContentFingerprint("title", "abstract", 1, []string{"a", "b", "a"}))

	assert.NotEqual(t, base, ContentFingerprint("title2", "abstract", 1, []string{"a", "b"}))
	assert.NotEqual(t, base, ContentFingerprint("title", "abstract2", 1, []string{"a", "b"}))
	assert.NotEqual(t, base, ContentFingerprint("title", "abstract", 2, []string{"a", "b"}))
	assert.NotEqual(t, base, ContentFingerprint("title", "abstract", 1, []string{"a"}))
}

func TestActionTagsMismatch(t *testing.T) {
	topicTags := []string{"flask:pypi:", "openssl:debian-12:apt"}

	tests := []struct {
		name       string
		actionTags []string
		want       []string
	}{
		{"无动作标签", nil, nil},
		{"与话题标签相同", []string{"openssl:debian-12:apt"}, nil},
		{"父标签在话题中", []string{"flask:pypi:pip"}, nil},
		{"无关标签", []string{"django:pypi:pip", "flask:pypi:"}, []string{"django:pypi:pip"}},
		{"子标签不能代表父标签", []string{"openssl:debian-12:"}, []string{"openssl:debian-12:"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, actionTagsMismatch(topicTags, tt.actionTags))
		})
	}
}
