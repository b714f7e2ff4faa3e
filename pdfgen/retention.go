package pdfgen

import (
	"context"
	"sort"
	"time"
)

// RetentionRule defines a TTL override for matching generations.
type RetentionRule struct {
	Name string
	Tag  string
	Role string
	TTL  time.Duration
}

// RetentionRules configures TTL lookups for generated PDFs.
type RetentionRules struct {
	DefaultTTL time.Duration
	ByName     map[string]time.Duration
	ByTag      map[string]time.Duration
	ByRole     map[string]time.Duration
	Rules      []RetentionRule
}

// TTL returns a TTL for the provided request.
func (r RetentionRules) TTL(ctx context.Context, actor Actor, req GenerateRequest) (time.Duration, error) {
	_ = ctx

	if ttl, ok := matchRetentionRules(r.Rules, req.Name, req.Tags, actor.Roles); ok {
		return ttl, nil
	}
	if ttl, ok := r.ByName[req.Name]; ok {
		return ttl, nil
	}
	for _, tag := range req.Tags {
		if ttl, ok := r.ByTag[tag]; ok {
			return ttl, nil
		}
	}
	for _, role := range actor.Roles {
		if ttl, ok := r.ByRole[role]; ok {
			return ttl, nil
		}
	}
	return r.DefaultTTL, nil
}

func matchRetentionRules(rules []RetentionRule, name string, tags, roles []string) (time.Duration, bool) {
	type match struct {
		ttl   time.Duration
		score int
		index int
	}
	var matches []match
	for idx, rule := range rules {
		if rule.Name != "" && rule.Name != name {
			continue
		}
		if rule.Tag != "" && !containsString(tags, rule.Tag) {
			continue
		}
		if rule.Role != "" && !containsString(roles, rule.Role) {
			continue
		}
		score := 0
		if rule.Name != "" {
			score += 4
		}
		if rule.Tag != "" {
			score += 2
		}
		if rule.Role != "" {
			score += 1
		}
		matches = append(matches, match{ttl: rule.TTL, score: score, index: idx})
	}
	if len(matches) == 0 {
		return 0, false
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].index < matches[j].index
		}
		return matches[i].score > matches[j].score
	})
	return matches[0].ttl, true
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
