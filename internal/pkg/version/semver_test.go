package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemverParseVersion(t *testing.T) {
	tests := []struct {
		input    string
		wantErr  bool
		segments []int
		pre      string
	}{
		{input: "", wantErr: true},
		{input: "a", wantErr: true},
		{input: "a.1", wantErr: true},
		{input: ".", wantErr: true},
		{input: ".2", wantErr: true},
		{input: "-1.2", wantErr: true},
		{input: "1", segments: []int{1, 0, 0}},
		{input: "1.", segments: []int{1, 0, 0}},
		{input: "1.2", segments: []int{1, 2, 0}},
		{input: "1.2.", segments: []int{1, 2, 0}},
		{input: "1.2.3", segments: []int{1, 2, 3}},
		{input: "1.2.3.", segments: []int{1, 2, 3}},
		{input: "1.2.3.4", segments: []int{1, 2, 3, 4}},
		{input: "4.7.2.1.", segments: []int{4, 7, 2, 1}},
		{input: "1.2.3.0", segments: []int{1, 2, 3}},
		{input: "1.2.3-4", segments: []int{1, 2, 3}, pre: "4"},
		{input: "1.2.3-4.5", segments: []int{1, 2, 3}, pre: "4.5"},
		{input: "1.2.3-4-5", segments: []int{1, 2, 3}, pre: "4-5"},
		{input: "1.2.3-rc4.alpha5", segments: []int{1, 2, 3}, pre: "rc4.alpha5"},
		{input: "1.2.3-rc4+build5", segments: []int{1, 2, 3}, pre: "rc4"},
		{input: "1.2.3-", wantErr: true},
		{input: "1.2.3+", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Semver.ParseVersion(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrVersionMatch))
				return
			}
			require.NoError(t, err)
			sv := v.(*SemverVersion)
			assert.Equal(t, tt.segments, sv.Segments())
			assert.Equal(t, tt.pre, sv.Prerelease())
		})
	}
}

func TestSemverCompare(t *testing.T) {
	tests := []struct {
		left, right string
		want        int
	}{
		{left: "2", right: "2.0.0", want: 0},
		{left: "1.2", right: "1.2.0", want: 0},
		{left: "1.3", right: "1.2.3", want: 1},
		{left: "1.2.3.4", right: "1.2.3.5", want: -1},
		{left: "4.7.2.5", right: "4.7.2.1", want: 1},
		{left: "1.2.3.0", right: "1.2.3", want: 0},
		{left: "1.2.4", right: "1.2.3.9", want: 1},
		{left: "1.2.3.0-rc1", right: "1.2.3", want: -1},
		{left: "1.2.3.1-rc1", right: "1.2.3.1", want: -1},
		{left: "1.2.3-rc1", right: "1.2.3", want: -1},
		{left: "1.2.3-rc1", right: "1.2.3-rc1", want: 0},
		{left: "1.2.3-rc1", right: "1.2.3-rc2", want: -1},
		{left: "1.2.3-rc1+build1", right: "1.2.3-rc1", want: 0},
		{left: "1.2.3-rc1+build1", right: "1.2.3-rc1+build2", want: 0},
		{left: "1.10.0", right: "1.9.0", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.left+"_vs_"+tt.right, func(t *testing.T) {
			l, err := Semver.ParseVersion(tt.left)
			require.NoError(t, err)
			r, err := Semver.ParseVersion(tt.right)
			require.NoError(t, err)

			got, err := l.Compare(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPyPICompare(t *testing.T) {
	tests := []struct {
		left, right string
		want        int
	}{
		{left: "1.0", right: "1.0.0", want: 0},
		{left: "1.0.0.0", right: "1.0", want: 0},
		{left: "2.0a1", right: "2.0", want: -1},
		{left: "2.0a2", right: "2.0b1", want: -1},
		{left: "2.0rc1", right: "2.0b9", want: 1},
		{left: "2.0a10", right: "2.0a9", want: 1},
		{left: "1!1.0", right: "2.0", want: 1},
		{left: "1.0+local.1", right: "1.0", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.left+"_vs_"+tt.right, func(t *testing.T) {
			l, err := PyPI.ParseVersion(tt.left)
			require.NoError(t, err)
			r, err := PyPI.ParseVersion(tt.right)
			require.NoError(t, err)

			got, err := l.Compare(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPyPIRejectsUnsupported(t *testing.T) {
	for _, input := range []string{"", "1.0.post1", "1.0.dev3", "abc", "1..0"} {
		_, err := PyPI.ParseVersion(input)
		assert.Error(t, err, input)
		assert.True(t, errors.Is(err, ErrVersionMatch), input)
	}
}

func TestForTagName(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{tag: "libssl3:ubuntu-22.04:dpkg", want: FamilyDebian},
		{tag: "libssl3:debian-12:", want: FamilyDebian},
		{tag: "libssl3:alpine-3.18:dpkg", want: FamilyDebian},
		{tag: "axios:npm:npm", want: FamilySemver},
		{tag: "requests:pypi:", want: FamilyPyPI},
		{tag: "requests:python-pkg:pip", want: FamilyPyPI},
		{tag: "pkgA", want: FamilySemver},
		{tag: "foo:unknown-eco:bar", want: FamilySemver},
		{tag: "dotnet-runtime:nuget:", want: FamilySemver},
		{tag: "org.example:lib:debian-12:dpkg", want: FamilyDebian},
		{tag: "org.example:lib:pypi:", want: FamilyPyPI},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, ForTagName(tt.tag).Name())
		})
	}
}
