package quality

import (
	"context"
	"testing"

	"github.com/bakkerme/feedscan/internal/config"
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/scan"
)

var ruleEntries = []scan.Entry{
	{Title: "Sponsored: buy now", Link: "https://example.com/ad", Timestamp: "x", Kind: scan.KindRSS},
	{Title: "CVE-2024-1234 patched", Link: "https://example.com/cve", Timestamp: "x", Kind: scan.KindRSS},
	{Title: "Release notes", Link: "https://example.com/release", Timestamp: "x", Kind: scan.KindAtom},
}

func TestRuleProcessorDropsMatches(t *testing.T) {
	processor, err := NewRuleProcessor(&config.RuleConfig{
		Name:   "no_sponsored",
		Rule:   `title startsWith "Sponsored"`,
		Result: ResultDrop,
	})
	if err != nil {
		t.Fatalf("expected rule to compile, got error: %v", err)
	}

	filtered, err := processor.Evaluate(context.Background(), core.FeedRef{URL: "https://example.com/feed"}, ruleEntries)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 entries after filtering, got %d", len(filtered))
	}
	if filtered[0].Link != "https://example.com/cve" || filtered[1].Link != "https://example.com/release" {
		t.Errorf("expected order to be preserved, got %+v", filtered)
	}
}

func TestRuleProcessorPassKeepsOnlyMatches(t *testing.T) {
	processor, err := NewRuleProcessor(&config.RuleConfig{
		Name:   "security_only",
		Rule:   `category == "cybersecurity" && title contains "CVE"`,
		Result: ResultPass,
	})
	if err != nil {
		t.Fatalf("expected rule to compile, got error: %v", err)
	}

	filtered, err := processor.Evaluate(context.Background(), core.FeedRef{Category: "cybersecurity"}, ruleEntries)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Link != "https://example.com/cve" {
		t.Fatalf("expected only the CVE entry, got %+v", filtered)
	}
}

func TestRuleProcessorSeesKind(t *testing.T) {
	processor, err := NewRuleProcessor(&config.RuleConfig{Name: "atom_only", Rule: `kind == "atom"`, Result: ResultPass})
	if err != nil {
		t.Fatalf("expected rule to compile, got error: %v", err)
	}
	filtered, err := processor.Evaluate(context.Background(), core.FeedRef{}, ruleEntries)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Kind != scan.KindAtom {
		t.Fatalf("expected only the atom entry, got %+v", filtered)
	}
}

func TestRuleProcessorKeepsEntryWhenEvaluationFails(t *testing.T) {
	processor, err := NewRuleProcessor(&config.RuleConfig{Name: "bad_regex", Rule: `title matches link`, Result: ResultDrop})
	if err != nil {
		t.Fatalf("expected rule to compile, got error: %v", err)
	}
	entries := []scan.Entry{{Title: "x", Link: "(", Timestamp: "x", Kind: scan.KindRSS}}
	filtered, err := processor.Evaluate(context.Background(), core.FeedRef{}, entries)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected entry to survive a failing rule, got %+v", filtered)
	}
}

func TestNewRuleProcessorRejectsBadRules(t *testing.T) {
	cases := []*config.RuleConfig{
		nil,
		{Name: "", Rule: "true", Result: ResultDrop},
		{Name: "r", Rule: "true", Result: "maybe"},
		{Name: "r", Rule: `title + 1`, Result: ResultDrop},
		{Name: "r", Rule: `unknown_field == "x"`, Result: ResultDrop},
	}
	for i, cfg := range cases {
		if _, err := NewRuleProcessor(cfg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
