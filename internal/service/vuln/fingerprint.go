package vuln

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"

	"neovuln/internal/pkg/tagtree"
)

// ContentFingerprint 话题内容指纹，用于外部同步时判断通告内容是否变化
// 对 {abstract, tag_names(去重排序), threat_impact, title} 的 JSON(键有序)取 md5
func ContentFingerprint(title, abstract string, threatImpact int, tagNames []string) string {
	data := map[string]interface{}{
		"title":         title,
		"abstract":      abstract,
		"threat_impact": threatImpact,
		"tag_names":     sortedUnique(tagNames),
	}
	// map 的键按字典序输出
	raw, _ := json.Marshal(data)
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// actionTagsMismatch 返回不属于话题标签(本身或其父标签在话题标签中)的动作标签
func actionTagsMismatch(topicTagNames, actionTags []string) []string {
	if len(actionTags) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(topicTagNames))
	for _, name := range topicTagNames {
		known[name] = struct{}{}
	}
	var mismatched []string
	for _, name := range actionTags {
		if _, ok := known[name]; ok {
			continue
		}
		if parent, ok := tagtree.ParentOf(name); ok {
			if _, ok := known[parent]; ok {
				continue
			}
		}
		mismatched = append(mismatched, name)
	}
	return mismatched
}
