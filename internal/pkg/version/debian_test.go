package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebianParseVersion(t *testing.T) {
	tests := []struct {
		input    string
		wantErr  bool
		epoch    int
		upstream string
		revision string
	}{
		{input: "", wantErr: true},
		{input: "a", wantErr: true},
		{input: "a.1", wantErr: true},
		{input: "1", upstream: "1", revision: "0"},
		{input: "1.2", upstream: "1.2", revision: "0"},
		{input: ":", wantErr: true},
		{input: ":2", wantErr: true},
		{input: "-1:2", wantErr: true},
		{input: "a:1.2", wantErr: true},
		{input: "1a:1.2", wantErr: true},
		{input: "1:", wantErr: true},
		{input: "1:2", epoch: 1, upstream: "2", revision: "0"},
		{input: "1:2.3", epoch: 1, upstream: "2.3", revision: "0"},
		{input: "0:2", upstream: "2", revision: "0"},
		{input: "1.2:3", wantErr: true},
		{input: "1.2-3.4", upstream: "1.2", revision: "3.4"},
		{input: "1.2-3-4", upstream: "1.2-3", revision: "4"},
		{input: "1.2-", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Debian.ParseVersion(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				var invalidErr *InvalidVersionError
				assert.True(t, errors.As(err, &invalidErr))
				assert.True(t, errors.Is(err, ErrVersionMatch))
				return
			}
			require.NoError(t, err)
			dv := v.(*DebianVersion)
			assert.Equal(t, tt.epoch, dv.Epoch())
			assert.Equal(t, tt.upstream, dv.Upstream())
			assert.Equal(t, tt.revision, dv.Revision())
		})
	}
}

func TestDebianCompare(t *testing.T) {
	tests := []struct {
		left, right string
		want        int
		uncomp      bool
	}{
		{left: "1.2", right: "1.2", want: 0},
		{left: "1.2", right: "1.2~0", want: 1},
		{left: "1.2", right: "1.2.0", want: -1},
		{left: "1.3", right: "1.2.3", want: 1},
		{left: "1.0", right: "1.00", want: 0},
		{left: "1.2a", right: "1.2+", want: -1},
		{left: "9.50~dfsg-5ubuntu4.6", right: "9.50~dfsg-6ubuntu4.6", want: -1},
		{left: "2.3.4~dsfg", right: "2.3.4", want: -1},
		{left: "0:2.3", right: "2.3", want: 0},
		{left: "2.3", right: "0:2.3", want: 0},
		{left: "1:1.2", right: "1.2.0", uncomp: true},
		{left: "1.2", right: "1:1.2.0", uncomp: true},
	}
	for _, tt := range tests {
		t.Run(tt.left+"_vs_"+tt.right, func(t *testing.T) {
			l, err := Debian.ParseVersion(tt.left)
			require.NoError(t, err)
			r, err := Debian.ParseVersion(tt.right)
			require.NoError(t, err)

			got, err := l.Compare(r)
			if tt.uncomp {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUncomparable))
				assert.Contains(t, err.Error(), "cannot compare with different epochs")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDebianCompareWithOtherFamily(t *testing.T) {
	d, err := Debian.ParseVersion("1.2.3")
	require.NoError(t, err)
	s, err := Semver.ParseVersion("1.2.3")
	require.NoError(t, err)

	_, err = d.Compare(s)
	assert.True(t, errors.Is(err, ErrUncomparable))
	_, err = s.Compare(d)
	assert.True(t, errors.Is(err, ErrUncomparable))
}
