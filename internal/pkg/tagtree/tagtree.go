/*
 * @author: sun977
 * @date: 2025.12.02
 * @description: 标签层级解析
 *   标签名形如 "名称:生态:包管理器"，至少三段；名称本身可能含冒号(如 maven 的 group:artifact)。
 *   父标签是去掉最后一段(保留末尾冒号)后的名称，只有一层。
 */

package tagtree

import "strings"

const (
	separator   = ":"
	minSegments = 3
)

// ParentOf 计算标签的父标签名
// "eco:ns:leaf" -> "eco:ns:", true；段数不足三段时没有父标签
// 注意 "eco:ns:" 本身也是三段，其父标签就是它自己
func ParentOf(name string) (string, bool) {
	if strings.Count(name, separator) < minSegments-1 {
		return "", false
	}
	return name[:strings.LastIndex(name, separator)] + separator, true
}

// IsSelfParent 判断标签是否以自身为父标签(组级标签)
func IsSelfParent(name string) bool {
	parent, ok := ParentOf(name)
	return ok && parent == name
}

// Covers 团队引用的标签是否覆盖话题上的标签
// 话题标签等于团队标签本身，或等于团队标签的父标签时成立；反方向不成立
func Covers(teamTagID string, teamTagParentID *string, topicTagID string) bool {
	if topicTagID == teamTagID {
		return true
	}
	return teamTagParentID != nil && *teamTagParentID == topicTagID
}

// Ecosystem 返回标签名的生态段(倒数第二段)，用于选择版本族
func Ecosystem(name string) string {
	parts := strings.Split(name, separator)
	if len(parts) < minSegments {
		return ""
	}
	return parts[len(parts)-2]
}

// PackageManager 返回标签名的包管理器段(最后一段)，父标签为空
func PackageManager(name string) string {
	parts := strings.Split(name, separator)
	if len(parts) < minSegments {
		return ""
	}
	return parts[len(parts)-1]
}
