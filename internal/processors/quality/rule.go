package quality

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bakkerme/feedscan/internal/config"
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/scan"
)

const (
	ResultDrop = "drop"
	ResultPass = "pass"
)

// ruleEnv is what a rule expression can see for one entry.
type ruleEnv struct {
	Title     string `expr:"title"`
	Link      string `expr:"link"`
	Timestamp string `expr:"timestamp"`
	Kind      string `expr:"kind"`
	Feed      string `expr:"feed"`
	Category  string `expr:"category"`
}

// RuleProcessor filters entries with a boolean expr-lang expression. With
// result "drop" matching entries are removed; with "pass" only matching
// entries are kept. An entry whose evaluation fails is kept.
type RuleProcessor struct {
	name    string
	config  config.RuleConfig
	program *vm.Program
}

func NewRuleProcessor(cfg *config.RuleConfig) (*RuleProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rule config is required")
	}
	p := &RuleProcessor{name: cfg.Name, config: *cfg}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	program, err := expr.Compile(cfg.Rule, expr.Env(ruleEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile rule %s: %w", cfg.Name, err)
	}
	p.program = program
	return p, nil
}

func (p *RuleProcessor) Name() string {
	return p.name
}

func (p *RuleProcessor) Validate() error {
	if p.config.Name == "" || p.config.Rule == "" {
		return fmt.Errorf("rule name and expression are required")
	}
	if p.config.Result != ResultDrop && p.config.Result != ResultPass {
		return fmt.Errorf("rule %s: result must be %q or %q", p.config.Name, ResultPass, ResultDrop)
	}
	return nil
}

func (p *RuleProcessor) Evaluate(ctx context.Context, ref core.FeedRef, entries []scan.Entry) ([]scan.Entry, error) {
	logger := core.LoggerFromContext(ctx)
	filtered := make([]scan.Entry, 0, len(entries))

	for _, entry := range entries {
		output, err := expr.Run(p.program, ruleEnv{
			Title:     entry.Title,
			Link:      entry.Link,
			Timestamp: entry.Timestamp,
			Kind:      entry.Kind.String(),
			Feed:      ref.URL,
			Category:  ref.Category,
		})
		if err != nil {
			logger.Warn("rule evaluation failed", "rule", p.name, "feed_url", ref.URL, "link", entry.Link, "error", err)
			filtered = append(filtered, entry)
			continue
		}
		matched, ok := output.(bool)
		if !ok {
			return nil, fmt.Errorf("rule %s did not return bool", p.name)
		}

		keep := matched == (p.config.Result == ResultPass)
		if !keep {
			logger.Debug("entry dropped by rule", "rule", p.name, "link", entry.Link)
			continue
		}
		filtered = append(filtered, entry)
	}

	return filtered, nil
}
