package pdfgen

import (
	"context"
	"testing"
	"time"
)

func TestRetentionRules_Default(t *testing.T) {
	rules := RetentionRules{DefaultTTL: time.Hour}

	ttl, err := rules.TTL(context.Background(), Actor{}, GenerateRequest{Name: "invoice"})
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != time.Hour {
		t.Fatalf("expected default ttl, got %s", ttl)
	}
}

func TestRetentionRules_ByNameBeatsByTag(t *testing.T) {
	rules := RetentionRules{
		DefaultTTL: time.Hour,
		ByName:     map[string]time.Duration{"invoice": 2 * time.Hour},
		ByTag:      map[string]time.Duration{"billing": 3 * time.Hour},
	}

	ttl, err := rules.TTL(context.Background(), Actor{}, GenerateRequest{Name: "invoice", Tags: []string{"billing"}})
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != 2*time.Hour {
		t.Fatalf("expected by-name ttl, got %s", ttl)
	}
}

func TestRetentionRules_ScoredRules(t *testing.T) {
	rules := RetentionRules{
		DefaultTTL: time.Hour,
		Rules: []RetentionRule{
			{Tag: "billing", TTL: 2 * time.Hour},
			{Name: "invoice", Tag: "billing", TTL: 4 * time.Hour},
			{Role: "admin", TTL: 3 * time.Hour},
		},
	}

	actor := Actor{Roles: []string{"admin"}}
	req := GenerateRequest{Name: "invoice", Tags: []string{"billing"}}

	ttl, err := rules.TTL(context.Background(), actor, req)
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != 4*time.Hour {
		t.Fatalf("expected most specific rule, got %s", ttl)
	}
}

func TestRetentionRules_RoleFallback(t *testing.T) {
	rules := RetentionRules{
		DefaultTTL: time.Hour,
		ByRole:     map[string]time.Duration{"auditor": 30 * 24 * time.Hour},
	}

	actor := Actor{Roles: []string{"auditor"}}
	ttl, err := rules.TTL(context.Background(), actor, GenerateRequest{Name: "report"})
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != 30*24*time.Hour {
		t.Fatalf("expected role ttl, got %s", ttl)
	}
}
