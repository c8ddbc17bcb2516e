package version

import (
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// semverFamily 宽松的语义化版本
// MAJOR[.MINOR[.PATCH[.N...]]] 不足三段补 0，超过三段的数字段全部保留参与比较，允许末尾多一个点；
// 预发布与构建元数据遵循 semver，构建元数据不参与比较
type semverFamily struct{}

// SemverVersion 语义化版本
type SemverVersion struct {
	raw string
	v   *goversion.Version
}

func (semverFamily) Name() string { return FamilySemver }

func (f semverFamily) ParseVersion(s string) (Version, error) {
	canonical, err := coerceSemver(s)
	if err != nil {
		return nil, invalid(FamilySemver, s, err.Error())
	}
	v, err := goversion.NewSemver(canonical)
	if err != nil {
		return nil, invalid(FamilySemver, s, err.Error())
	}
	return &SemverVersion{raw: s, v: v}, nil
}

func (f semverFamily) ParseRange(expr string) (*Range, error) {
	return parseRange(f, expr)
}

func (v *SemverVersion) Family() string { return FamilySemver }
func (v *SemverVersion) String() string { return v.raw }

// Segments 返回全部数字段，至少三段
func (v *SemverVersion) Segments() []int { return v.v.Segments() }

// Prerelease 返回预发布标识，没有时为空串
func (v *SemverVersion) Prerelease() string { return v.v.Prerelease() }

// Metadata 返回构建元数据
func (v *SemverVersion) Metadata() string { return v.v.Metadata() }

func (v *SemverVersion) Compare(other Version) (int, error) {
	o, ok := other.(*SemverVersion)
	if !ok {
		return 0, uncomparable(v, other, "different version families")
	}
	return v.v.Compare(o.v), nil
}

// coerceSemver 把宽松写法规整为 MAJOR.MINOR.PATCH[.N...][-pre][+build]
func coerceSemver(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("is not a valid semver string")
	}

	rest, build, hasBuild := strings.Cut(s, "+")
	core, pre, hasPre := strings.Cut(rest, "-")

	nums, err := parseNumericCore(core)
	if err != nil {
		return "", err
	}
	for len(nums) < 3 {
		nums = append(nums, 0)
	}
	// PATCH 之后的尾部 0 段去掉，1.2.3.0 与 1.2.3 段数一致，预发布比较才不会被跳过
	for len(nums) > 3 && nums[len(nums)-1] == 0 {
		nums = nums[:len(nums)-1]
	}

	var b strings.Builder
	for i, n := range nums {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(n, 10))
	}
	if hasPre {
		if !validIdentifiers(pre) {
			return "", fmt.Errorf("invalid prerelease %q", pre)
		}
		b.WriteString("-")
		b.WriteString(pre)
	}
	if hasBuild {
		if !validIdentifiers(build) {
			return "", fmt.Errorf("invalid build metadata %q", build)
		}
		b.WriteString("+")
		b.WriteString(build)
	}
	return b.String(), nil
}

// parseNumericCore 解析点分数字段
// 第一段必须存在，只有最后一段允许为空(末尾的点)
func parseNumericCore(core string) ([]uint64, error) {
	parts := strings.Split(core, ".")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	nums := make([]uint64, 0, len(parts))
	for _, p := range parts {
		if p == "" || !allDigits(p) {
			return nil, fmt.Errorf("is not a valid numeric version %q", core)
		}
		n, err := strconv.ParseUint(p, 10, 63)
		if err != nil {
			return nil, fmt.Errorf("numeric segment %q out of range", p)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// validIdentifiers 点分标识符，每段非空且只含字母数字和连字符
func validIdentifiers(s string) bool {
	if s == "" {
		return false
	}
	for _, id := range strings.Split(s, ".") {
		if id == "" {
			return false
		}
		for i := 0; i < len(id); i++ {
			c := id[i]
			if !isDigit(c) && !isLetter(c) && c != '-' {
				return false
			}
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}
