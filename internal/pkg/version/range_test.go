package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, f Family, s string) Version {
	t.Helper()
	v, err := f.ParseVersion(s)
	require.NoError(t, err)
	return v
}

func TestNewRangeAmbiguous(t *testing.T) {
	v := mustParse(t, Semver, "1.0")
	tests := []struct {
		name           string
		eq, ge, gt, le Version
		lt             Version
	}{
		{name: "empty"},
		{name: "eq_ge", eq: v, ge: v},
		{name: "eq_gt", eq: v, gt: v},
		{name: "eq_le", eq: v, le: v},
		{name: "eq_lt", eq: v, lt: v},
		{name: "ge_gt", ge: v, gt: v},
		{name: "le_lt", le: v, lt: v},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRange(tt.eq, tt.ge, tt.gt, tt.le, tt.lt)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAmbiguousRange))
			assert.True(t, errors.Is(err, ErrVersionMatch))
		})
	}
}

func TestNewRangeMixedFamilies(t *testing.T) {
	d := mustParse(t, Debian, "1.0")
	s := mustParse(t, Semver, "1.0")

	r, err := NewRange(nil, d, nil, nil, d)
	require.NoError(t, err)
	assert.NotNil(t, r)

	_, err = NewRange(nil, s, nil, nil, d)
	assert.True(t, errors.Is(err, ErrAmbiguousRange))
}

func TestDebianRangeDetectMatched(t *testing.T) {
	tests := []struct {
		reference  string
		vulnerable string
		want       bool
		uncomp     bool
	}{
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: "=9.50~dfsg-5ubuntu4.6", want: true},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: "=9.50~dfsg-6ubuntu4.6", want: false},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: "<=9.50~dfsg-5ubuntu4.6", want: true},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: "<=9.50~dfsg-4ubuntu4.6", want: false},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: "<9.50~dfsg-6ubuntu4.6", want: true},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: "<9.50~dfsg-5ubuntu4.6", want: false},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: ">=9.50~dfsg-5ubuntu4.6", want: true},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: ">=9.50~dfsg-6ubuntu4.6", want: false},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: ">9.50~dfsg-4ubuntu4.6", want: true},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: ">9.50~dfsg-5ubuntu4.6", want: false},
		{reference: "0:9.50~dfsg-5ubuntu4.6", vulnerable: "=9.50~dfsg-5ubuntu4.6", want: true},
		{reference: "9.50~dfsg-5ubuntu4.6", vulnerable: "=0:9.50~dfsg-5ubuntu4.6", want: true},
		{reference: "1:9.50~dfsg-5ubuntu4.6", vulnerable: "=9.50~dfsg-5ubuntu4.6", uncomp: true},
		{reference: "1:9.50~dfsg-5ubuntu4.6", vulnerable: "=2:9.50~dfsg-5ubuntu4.6", uncomp: true},
		{reference: "1:9.50~dfsg-5ubuntu4.6", vulnerable: "=1:9.50~dfsg-5ubuntu4.6", want: true},
		{reference: "2.3.4", vulnerable: ">=2.0.0 <2.3.4", want: false},
		{reference: "2.3.4", vulnerable: ">=2.0.0 <2.3.5", want: true},
		{reference: "2.3.4", vulnerable: ">=2.0.0 <=2.3.3", want: false},
		{reference: "2.3.4", vulnerable: ">=2.0.0 <=2.3.4", want: true},
		{reference: "2.3.4", vulnerable: ">=2.0.0 <2.3.4~dfsg", want: false},
		{reference: "2.3.4~dsfg", vulnerable: ">=2.0.0 <2.3.4", want: true},
		{reference: "2.3.4~dsfg5-ubuntu4.6", vulnerable: ">=2.0.0 <2.3.4~sdfg5", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.reference+"_in_"+tt.vulnerable, func(t *testing.T) {
			r, err := Debian.ParseRange(tt.vulnerable)
			require.NoError(t, err)
			ref := mustParse(t, Debian, tt.reference)

			got, err := r.DetectMatched([]Version{ref})
			if tt.uncomp {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUncomparable))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSemverRangeDetectMatched(t *testing.T) {
	tests := []struct {
		reference  string
		vulnerable string
		want       bool
	}{
		{reference: "2.3.4", vulnerable: "=2.3.4", want: true},
		{reference: "2.3.4", vulnerable: "=2.3.5", want: false},
		{reference: "2.3.4", vulnerable: "<=2.3.4", want: true},
		{reference: "2.3.4", vulnerable: "<=2.3.3", want: false},
		{reference: "2.3.4", vulnerable: "<2.3.5", want: true},
		{reference: "2.3.4", vulnerable: "<2.3.4", want: false},
		{reference: "2.3.4", vulnerable: ">=2.3.4", want: true},
		{reference: "2.3.4", vulnerable: ">=2.3.5", want: false},
		{reference: "2.3.4", vulnerable: ">2.3.3", want: true},
		{reference: "2.3.4", vulnerable: ">2.3.4", want: false},
		{reference: "2.3.4.5", vulnerable: "=2.3.4.6", want: true},
		{reference: "2.3.4", vulnerable: ">2.3.4-rc0", want: true},
		{reference: "2.3.4-rc1", vulnerable: ">2.3.4-rc0", want: true},
		{reference: "2.3.4+build1", vulnerable: "=2.3.4", want: true},
		{reference: "2.3.4+build1", vulnerable: "=2.3.4+build2", want: true},
		{reference: "1.0", vulnerable: ">=0 <1.1", want: true},
		{reference: "1.2.5", vulnerable: ">=0 <1.2.4", want: false},
		{reference: "1.2.5", vulnerable: ">=0 <1.3.0", want: true},
		{reference: "1.2.5", vulnerable: ">= 1.0 AND < 1.3", want: true},
		{reference: "1.2.5", vulnerable: ">=1.0 && <1.2", want: false},
		{reference: "1.2.5", vulnerable: "==1.2.5", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.reference+"_in_"+tt.vulnerable, func(t *testing.T) {
			r, err := Semver.ParseRange(tt.vulnerable)
			require.NoError(t, err)
			got, err := r.DetectMatched([]Version{mustParse(t, Semver, tt.reference)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRangeWithDifferentFamily(t *testing.T) {
	r, err := Semver.ParseRange("=1.2.3")
	require.NoError(t, err)

	_, err = r.Contains(mustParse(t, Debian, "1.2.3"))
	assert.True(t, errors.Is(err, ErrUncomparable))

	ok, err := r.Contains(mustParse(t, Semver, "1.2.3"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseRangeErrors(t *testing.T) {
	tests := []struct {
		expr      string
		ambiguous bool
	}{
		{expr: "", ambiguous: true},
		{expr: "   ", ambiguous: true},
		{expr: ">=1.0 >1.1", ambiguous: true},
		{expr: "=1.0 <2.0", ambiguous: true},
		{expr: ">=1.0 >=1.1", ambiguous: true},
		{expr: "1.0"},
		{expr: ">="},
		{expr: ">=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Semver.ParseRange(tt.expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrVersionMatch))
			if tt.ambiguous {
				assert.True(t, errors.Is(err, ErrAmbiguousRange))
			} else {
				var invalidErr *InvalidVersionError
				assert.True(t, errors.As(err, &invalidErr))
			}
		})
	}
}

func TestParseRanges(t *testing.T) {
	ranges, err := ParseRanges(Semver, "<1.0 || >=2.0 <2.5 OR =3.0")
	require.NoError(t, err)
	require.Len(t, ranges, 3)
	assert.Equal(t, "<1.0", ranges[0].String())
	assert.Equal(t, ">=2.0 <2.5", ranges[1].String())
	assert.Equal(t, "=3.0", ranges[2].String())

	refs := []Version{mustParse(t, Semver, "1.5"), mustParse(t, Semver, "2.6")}
	matched, err := DetectMatched(ranges, refs)
	require.NoError(t, err)
	assert.False(t, matched)

	refs = append(refs, mustParse(t, Semver, "2.1"))
	matched, err = DetectMatched(ranges, refs)
	require.NoError(t, err)
	assert.True(t, matched)

	_, err = ParseRanges(Semver, "<1.0 ||")
	assert.True(t, errors.Is(err, ErrAmbiguousRange))
}
