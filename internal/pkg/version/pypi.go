package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// pypiFamily PEP 440 版本的常用子集: [N!]release[{a|b|rc}N][+local]
// post/dev 版本的排序与预发布规则相反，无法确定时拒绝解析，交给人工确认
type pypiFamily struct{}

// PyPIVersion PyPI 版本
type PyPIVersion struct {
	raw   string
	epoch uint64
	v     *goversion.Version
}

var pypiPattern = regexp.MustCompile(
	`^v?(?:(\d+)!)?(\d+(?:\.\d+)*)(?:[-_.]?(a|alpha|b|beta|c|rc|pre|preview)[-_.]?(\d*))?(\+[a-z0-9]+(?:[-_.][a-z0-9]+)*)?$`)

var pypiPreLabels = map[string]string{
	"a": "a", "alpha": "a",
	"b": "b", "beta": "b",
	"c": "rc", "rc": "rc", "pre": "rc", "preview": "rc",
}

func (pypiFamily) Name() string { return FamilyPyPI }

func (f pypiFamily) ParseVersion(s string) (Version, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return nil, invalid(FamilyPyPI, s, "empty version")
	}
	if strings.Contains(normalized, "post") || strings.Contains(normalized, "dev") {
		return nil, invalid(FamilyPyPI, s, "post and dev releases are not supported")
	}

	m := pypiPattern.FindStringSubmatch(normalized)
	if m == nil {
		return nil, invalid(FamilyPyPI, s, "not a PEP 440 version")
	}

	var epoch uint64
	if m[1] != "" {
		e, err := strconv.ParseUint(m[1], 10, 63)
		if err != nil {
			return nil, invalid(FamilyPyPI, s, "epoch out of range")
		}
		epoch = e
	}

	nums, err := parseNumericCore(m[2])
	if err != nil {
		return nil, invalid(FamilyPyPI, s, err.Error())
	}
	// 去掉末尾多余的 0 段，保证 1.0 与 1.0.0.0 的段数一致
	for len(nums) > 3 && nums[len(nums)-1] == 0 {
		nums = nums[:len(nums)-1]
	}
	segs := make([]string, len(nums))
	for i, n := range nums {
		segs[i] = strconv.FormatUint(n, 10)
	}
	canonical := strings.Join(segs, ".")

	if m[3] != "" {
		n := m[4]
		if n == "" {
			n = "0"
		}
		// 标签与序号分开，序号才能按数值比较
		canonical += fmt.Sprintf("-%s.%s", pypiPreLabels[m[3]], n)
	}

	v, err := goversion.NewVersion(canonical)
	if err != nil {
		return nil, invalid(FamilyPyPI, s, err.Error())
	}
	return &PyPIVersion{raw: s, epoch: epoch, v: v}, nil
}

func (f pypiFamily) ParseRange(expr string) (*Range, error) {
	return parseRange(f, expr)
}

func (v *PyPIVersion) Family() string { return FamilyPyPI }
func (v *PyPIVersion) String() string { return v.raw }

func (v *PyPIVersion) Compare(other Version) (int, error) {
	o, ok := other.(*PyPIVersion)
	if !ok {
		return 0, uncomparable(v, other, "different version families")
	}
	if v.epoch != o.epoch {
		if v.epoch < o.epoch {
			return -1, nil
		}
		return 1, nil
	}
	return v.v.Compare(o.v), nil
}
