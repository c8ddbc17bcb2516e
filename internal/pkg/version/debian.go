package version

import (
	"strconv"
	"strings"

	debversion "github.com/knqyf263/go-deb-version"
)

// debianFamily dpkg 版本族: [epoch:]upstream[-revision]
type debianFamily struct{}

// DebianVersion dpkg 版本
// 解析与字符校验交给 go-deb-version，排序使用 dpkg 的 verrevcmp 规则，
// epoch 不同的两个版本视为不可比较
type DebianVersion struct {
	raw      string
	epoch    int
	upstream string
	revision string
}

func (debianFamily) Name() string { return FamilyDebian }

func (f debianFamily) ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalid(FamilyDebian, s, "empty version")
	}
	if strings.HasSuffix(s, "-") {
		return nil, invalid(FamilyDebian, s, "empty revision")
	}
	// 没有 epoch 时 upstream 不允许出现冒号
	if epoch, _, found := strings.Cut(s, ":"); found {
		if _, err := strconv.Atoi(epoch); err != nil {
			return nil, invalid(FamilyDebian, s, "epoch must be an integer")
		}
	}

	parsed, err := debversion.NewVersion(s)
	if err != nil {
		return nil, invalid(FamilyDebian, s, err.Error())
	}

	revision := parsed.Revision()
	if revision == "" {
		revision = "0"
	}
	return &DebianVersion{
		raw:      s,
		epoch:    parsed.Epoch(),
		upstream: parsed.Version(),
		revision: revision,
	}, nil
}

func (f debianFamily) ParseRange(expr string) (*Range, error) {
	return parseRange(f, expr)
}

func (v *DebianVersion) Family() string   { return FamilyDebian }
func (v *DebianVersion) String() string   { return v.raw }
func (v *DebianVersion) Epoch() int       { return v.epoch }
func (v *DebianVersion) Upstream() string { return v.upstream }
func (v *DebianVersion) Revision() string { return v.revision }

func (v *DebianVersion) Compare(other Version) (int, error) {
	o, ok := other.(*DebianVersion)
	if !ok {
		return 0, uncomparable(v, other, "different version families")
	}
	if v.epoch != o.epoch {
		return 0, uncomparable(v, other, "cannot compare with different epochs")
	}
	if c := verrevcmp(v.upstream, o.upstream); c != 0 {
		return c, nil
	}
	return verrevcmp(v.revision, o.revision), nil
}

// dpkgOrder 非数字字符的排序权重: ~ 最小，其次是串尾，字母小于其他符号
func dpkgOrder(c byte) int {
	switch {
	case isDigit(c):
		return 0
	case isLetter(c):
		return int(c)
	case c == '~':
		return -1
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// verrevcmp dpkg 的版本片段比较：非数字段逐字符按权重比较，数字段按数值比较
func verrevcmp(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			ac, bc := 0, 0
			if i < len(a) {
				ac = dpkgOrder(a[i])
			}
			if j < len(b) {
				bc = dpkgOrder(b[j])
			}
			if ac != bc {
				return sign(ac - bc)
			}
			i++
			j++
		}

		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}

		firstDiff := 0
		for i < len(a) && isDigit(a[i]) && j < len(b) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			return sign(firstDiff)
		}
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
