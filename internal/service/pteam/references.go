package pteam

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"neovuln/internal/model/pteam"
	"neovuln/internal/model/system"
	"neovuln/internal/pkg/logger"
	"neovuln/internal/pkg/utils"
	pteamrepo "neovuln/internal/repo/mysql/pteam"
	"neovuln/internal/service/ticket"

	"gorm.io/gorm"
)

// DefaultMaxLineBytes 单行 JSONL 的默认最大长度
const DefaultMaxLineBytes = 1 << 20

type rawReferenceLine struct {
	TagName    string `json:"tag_name"`
	References []struct {
		Target  *string `json:"target"`
		Version *string `json:"version"`
	} `json:"references"`
}

// ParseReferenceLines 解析引用文件，每行形如
// {"tag_name": "flask:pypi:pip", "references": [{"target": "requirements.txt", "version": "2.0.1"}]}
// maxLineBytes 不大于 0 时使用 DefaultMaxLineBytes
func ParseReferenceLines(r io.Reader, maxLineBytes int) ([]pteam.ReferenceLine, error) {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, maxLineBytes)), maxLineBytes)

	var lines []pteam.ReferenceLine
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var raw rawReferenceLine
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, system.NewValidationError("file", fmt.Sprintf("第 %d 行不是合法的 JSON: %s", lineNo, truncate(text, 32)))
		}
		if strings.TrimSpace(raw.TagName) == "" {
			return nil, system.NewValidationError("file", fmt.Sprintf("第 %d 行缺少 tag_name", lineNo))
		}
		if len(raw.References) == 0 {
			return nil, system.NewValidationError("file", fmt.Sprintf("第 %d 行缺少 references", lineNo))
		}

		line := pteam.ReferenceLine{TagName: strings.TrimSpace(raw.TagName)}
		for _, ref := range raw.References {
			if ref.Target == nil || ref.Version == nil {
				return nil, system.NewValidationError("file", fmt.Sprintf("第 %d 行缺少 target 或 version", lineNo))
			}
			line.References = append(line.References, pteam.ReferenceItem{
				Target:  *ref.Target,
				Version: strings.TrimSpace(*ref.Version),
			})
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, system.NewValidationError("file", fmt.Sprintf("第 %d 行超过 %d 字节", lineNo+1, maxLineBytes))
		}
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}
	if len(lines) == 0 {
		return nil, system.NewValidationError("file", "引用文件为空")
	}
	return lines, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (s *pteamService) UploadReferences(ctx context.Context, pteamID, group string, r io.Reader, actorID string) (*pteam.UploadReferencesResponse, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return nil, system.NewValidationError("group", "分组不能为空")
	}
	lines, err := ParseReferenceLines(r, s.maxLineBytes)
	if err != nil {
		return nil, err
	}

	resp := &pteam.UploadReferencesResponse{PTeamID: pteamID, Group: group, ChangedTags: []string{}}
	touched, err := s.engine.InTransaction(ctx, func(tx *gorm.DB, engine *ticket.Engine) error {
		p, err := s.getPTeam(ctx, pteamrepo.NewPTeamRepository(tx), pteamID, false)
		if err != nil {
			return err
		}
		refs := pteamrepo.NewReferenceRepository(tx)
		tags := s.tags.WithDB(tx)

		before, err := refs.ListByPTeam(ctx, pteamID)
		if err != nil {
			return fmt.Errorf("failed to list references: %w", err)
		}

		type refKey struct{ tagID, target, version string }
		seen := make(map[refKey]struct{})
		tagIDs := make(map[string]struct{})
		var rows []*pteam.PTeamTagReference
		for _, line := range lines {
			tag, err := tags.GetOrCreateTag(ctx, line.TagName)
			if err != nil {
				return err
			}
			tagIDs[tag.TagID] = struct{}{}
			for _, item := range line.References {
				k := refKey{tag.TagID, item.Target, item.Version}
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				rows = append(rows, &pteam.PTeamTagReference{
					PTeamID: pteamID,
					TagID:   tag.TagID,
					Group:   group,
					Target:  item.Target,
					Version: item.Version,
				})
			}
		}

		if err := refs.DeleteByGroup(ctx, pteamID, group); err != nil {
			return fmt.Errorf("failed to delete references: %w", err)
		}
		if err := refs.CreateBatch(ctx, rows); err != nil {
			return fmt.Errorf("failed to create references: %w", err)
		}

		after, err := refs.ListByPTeam(ctx, pteamID)
		if err != nil {
			return fmt.Errorf("failed to list references: %w", err)
		}
		resp.ChangedTags = changedVersionTags(before, after)
		resp.Tags = len(tagIDs)
		resp.References = len(rows)

		// 只对版本集合发生变化且仍被引用的标签尝试自动关闭
		stillReferenced := versionSets(after)
		var autoClose []string
		for _, id := range resp.ChangedTags {
			if _, ok := stillReferenced[id]; ok {
				autoClose = append(autoClose, id)
			}
		}
		return ticket.NewDispatcher(engine).ReferencesUploaded(ctx, p, autoClose)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateQuietly(ctx, touched...)

	logger.LogBusinessOperation("upload_references", actorID, "", utils.GetClientIPFromContext(ctx),
		utils.GetRequestIDFromContext(ctx), "success", "references uploaded",
		map[string]interface{}{
			"pteam_id":     pteamID,
			"group":        group,
			"tags":         resp.Tags,
			"references":   resp.References,
			"changed_tags": len(resp.ChangedTags),
		})
	return resp, nil
}

// versionSets 按标签汇总团队声明的版本集合(跨分组)
func versionSets(refs []*pteam.PTeamTagReference) map[string]map[string]struct{} {
	sets := make(map[string]map[string]struct{})
	for _, ref := range refs {
		set, ok := sets[ref.TagID]
		if !ok {
			set = make(map[string]struct{})
			sets[ref.TagID] = set
		}
		set[ref.Version] = struct{}{}
	}
	return sets
}

// changedVersionTags 上传前后版本集合不同的标签ID(已排序)
func changedVersionTags(before, after []*pteam.PTeamTagReference) []string {
	old, cur := versionSets(before), versionSets(after)
	changed := []string{}
	for id, set := range cur {
		if !sameSet(set, old[id]) {
			changed = append(changed, id)
		}
	}
	for id := range old {
		if _, ok := cur[id]; !ok {
			changed = append(changed, id)
		}
	}
	sort.Strings(changed)
	return changed
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
