package output

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/bakkerme/feedscan/internal/config"
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/outputs/email"
	"github.com/bakkerme/feedscan/internal/report"
)

// EmailProcessor mails the run digest. Without a template the body is the
// digest rendered to HTML.
type EmailProcessor struct {
	name     string
	config   config.EmailOutput
	sender   email.Sender
	template *template.Template
}

func NewEmailProcessor(cfg *config.EmailOutput, sender email.Sender) (*EmailProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("email config is required")
	}
	p := &EmailProcessor{
		name:   "email",
		config: *cfg,
		sender: sender,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cfg.Template != "" {
		tmpl, err := template.New("email").Parse(cfg.Template)
		if err != nil {
			return nil, fmt.Errorf("parse email template failed: %w", err)
		}
		p.template = tmpl
	}
	return p, nil
}

func (p *EmailProcessor) Name() string {
	return p.name
}

func (p *EmailProcessor) Validate() error {
	if p.sender == nil {
		return fmt.Errorf("email sender is required")
	}
	if p.config.To == "" || p.config.Subject == "" {
		return fmt.Errorf("email to and subject are required")
	}
	return nil
}

func (p *EmailProcessor) Deliver(ctx context.Context, run *core.Run) error {
	if run == nil {
		return fmt.Errorf("run is required")
	}
	if p.config.SkipEmpty && run.Total == 0 {
		core.LoggerFromContext(ctx).Info("skipping email for empty run", "run_id", run.ID)
		return nil
	}
	body, err := p.render(run)
	if err != nil {
		return err
	}
	return p.sender.Send(ctx, email.Message{
		From:    p.config.From,
		To:      p.config.To,
		Subject: p.config.Subject,
		HTML:    body,
		Text:    report.PlainText(run),
	})
}

func (p *EmailProcessor) render(run *core.Run) (string, error) {
	digest := report.Digest(run)
	digestHTML, err := report.RenderHTML(digest)
	if err != nil {
		return "", err
	}
	if p.template == nil {
		return digestHTML, nil
	}

	data := struct {
		Run        *core.Run
		Feeds      []core.FeedResult
		Total      int
		Digest     string
		DigestHTML template.HTML
	}{
		Run:        run,
		Feeds:      run.Feeds,
		Total:      run.Total,
		Digest:     digest,
		DigestHTML: template.HTML(digestHTML),
	}
	var builder strings.Builder
	if err := p.template.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("execute email template failed: %w", err)
	}
	return builder.String(), nil
}
