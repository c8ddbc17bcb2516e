package ticket

import (
	"sort"
	"strings"

	"neovuln/internal/model/tag_system"
	"neovuln/internal/model/vuln"
)

// vulnerableKeys 查找受影响版本时使用的键: 标签名，以及与标签名不同的父标签名
func vulnerableKeys(tag *tag_system.Tag) []string {
	keys := []string{tag.TagName}
	if parent := tag.ParentNameOrEmpty(); parent != "" && parent != tag.TagName {
		keys = append(keys, parent)
	}
	return keys
}

// pickActionsForPTeamTag 选出对该标签声明了受影响版本的处置动作
// 没有声明受影响版本的动作无法证明已修复，不参与自动关闭
func pickActionsForPTeamTag(actions []*vuln.TopicAction, tag *tag_system.Tag) []*vuln.TopicAction {
	keys := vulnerableKeys(tag)
	var picked []*vuln.TopicAction
	for _, action := range actions {
		ext := action.ExtData()
		for _, key := range keys {
			if len(ext.VulnerableVersions[key]) > 0 {
				picked = append(picked, action)
				break
			}
		}
	}
	return picked
}

// pickVulnerableVersionStrings 汇总动作声明的受影响版本范围
// 每个范围表达式再按 "||" 拆成独立的子范围，结果去重并排序
func pickVulnerableVersionStrings(actions []*vuln.TopicAction, tag *tag_system.Tag) []string {
	keys := vulnerableKeys(tag)
	seen := make(map[string]struct{})
	for _, action := range actions {
		ext := action.ExtData()
		for _, key := range keys {
			for _, expr := range ext.VulnerableVersions[key] {
				for _, part := range strings.Split(expr, "||") {
					seen[strings.TrimSpace(part)] = struct{}{}
				}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
