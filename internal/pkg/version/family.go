/*
 * @author: sun977
 * @date: 2025.12.02
 * @description: 版本族
 *   不同生态的版本串语法和排序规则不同，按标签名的生态段选择版本族。
 *   新增生态时增加一个 Family 实现并在 ForTagName 中登记。
 */

package version

import (
	"strings"

	"neovuln/internal/pkg/tagtree"
)

// Version 某个版本族内的一个版本
type Version interface {
	// Family 所属版本族名称
	Family() string
	// String 原始版本串
	String() string
	// Compare 与同族版本比较，返回 -1/0/1；无法比较时返回 ErrUncomparable
	Compare(other Version) (int, error)
}

// Family 版本族
type Family interface {
	Name() string
	ParseVersion(s string) (Version, error)
	ParseRange(expr string) (*Range, error)
}

const (
	FamilyDebian = "debian"
	FamilySemver = "semver"
	FamilyPyPI   = "pypi"
)

var (
	Debian Family = debianFamily{}
	Semver Family = semverFamily{}
	PyPI   Family = pypiFamily{}
)

var (
	debianEcosystems      = []string{"debian", "ubuntu"}
	debianPackageManagers = []string{"dpkg", "apt", "deb"}
	pypiEcosystems        = []string{"pypi", "python"}
	pypiPackageManagers   = []string{"pip", "pipenv", "poetry", "uv"}
)

// ForTagName 根据标签名选择版本族
// 生态段以 debian/ubuntu 开头或包管理器为 dpkg 系列时按 dpkg 规则比较；
// npm 及无法识别的生态使用宽松的语义化版本作为兜底
func ForTagName(tagName string) Family {
	eco := strings.ToLower(tagtree.Ecosystem(tagName))
	mgr := strings.ToLower(tagtree.PackageManager(tagName))

	switch {
	case hasAnyPrefix(eco, debianEcosystems) || containsString(debianPackageManagers, mgr):
		return Debian
	case hasAnyPrefix(eco, pypiEcosystems) || containsString(pypiPackageManagers, mgr):
		return PyPI
	default:
		return Semver
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
