package pteam

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"neovuln/internal/model/pteam"
	"neovuln/internal/pkg/logger"
)

var summaryStatuses = []pteam.TopicStatus{
	pteam.TopicStatusAlerted,
	pteam.TopicStatusAcknowledged,
	pteam.TopicStatusScheduled,
	pteam.TopicStatusCompleted,
}

// Summary 团队每个引用标签的工单统计，优先读缓存
func (s *pteamService) Summary(ctx context.Context, pteamID string) (*pteam.PTeamSummary, error) {
	if _, err := s.getPTeam(ctx, s.pteams, pteamID, false); err != nil {
		return nil, err
	}

	cached, err := s.cache.Get(ctx, pteamID)
	if err != nil {
		logger.LogError(err, "", "", "", "get_summary", "CACHE", map[string]interface{}{"pteam_id": pteamID})
	}
	if cached != nil {
		return cached, nil
	}

	summary, err := s.buildSummary(ctx, pteamID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, summary); err != nil {
		logger.LogError(err, "", "", "", "set_summary", "CACHE", map[string]interface{}{"pteam_id": pteamID})
	}
	return summary, nil
}

func (s *pteamService) buildSummary(ctx context.Context, pteamID string) (*pteam.PTeamSummary, error) {
	refs, err := s.refs.ListByPTeam(ctx, pteamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	tagByID, err := s.loadTags(ctx, refs)
	if err != nil {
		return nil, err
	}
	rows, err := s.statuses.ListCurrentByPTeam(ctx, pteamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list current statuses: %w", err)
	}

	byTag := make(map[string]*pteam.TagSummary)
	for _, ref := range refs {
		if _, ok := byTag[ref.TagID]; ok {
			continue
		}
		item := &pteam.TagSummary{
			TagID:             ref.TagID,
			ThreatImpactCount: map[string]int{"1": 0, "2": 0, "3": 0, "4": 0},
			StatusCount:       make(map[string]int, len(summaryStatuses)),
		}
		if tag, ok := tagByID[ref.TagID]; ok {
			item.TagName = tag.TagName
		}
		for _, st := range summaryStatuses {
			item.StatusCount[string(st)] = 0
		}
		byTag[ref.TagID] = item
	}

	for _, row := range rows {
		item, ok := byTag[row.TagID]
		if !ok {
			continue
		}
		item.StatusCount[string(row.TopicStatus)]++
		if row.TopicStatus == pteam.TopicStatusCompleted {
			continue
		}
		if row.ThreatImpact != nil {
			item.ThreatImpactCount[strconv.Itoa(*row.ThreatImpact)]++
		}
		if row.UpdatedAt != nil && (item.UpdatedAt == nil || row.UpdatedAt.After(*item.UpdatedAt)) {
			at := *row.UpdatedAt
			item.UpdatedAt = &at
		}
	}

	summary := &pteam.PTeamSummary{PTeamID: pteamID, Tags: make([]*pteam.TagSummary, 0, len(byTag))}
	for _, item := range byTag {
		summary.Tags = append(summary.Tags, item)
	}
	sort.Slice(summary.Tags, func(i, j int) bool {
		return summary.Tags[i].TagName < summary.Tags[j].TagName
	})
	return summary, nil
}
