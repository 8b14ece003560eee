package report

import (
	_ "embed"
	"fmt"

	"github.com/osteele/liquid"
)

const Subject = "🏅 Your Weekly Posting Badge Report"

//go:embed templates/badge_weekly_report.liquid
var weeklyTemplate string

// Renderer holds the parsed weekly report template.
type Renderer struct {
	tpl *liquid.Template
}

func NewRenderer() (*Renderer, error) {
	tpl, err := liquid.NewEngine().ParseString(weeklyTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse weekly report template: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

type View struct {
	ClientName    string
	Compliant     int
	Total         int
	Badge         bool
	Remaining     int
	DashboardLink string
}

func (v View) bindings() map[string]any {
	plural := "s"
	if v.Remaining == 1 {
		plural = ""
	}
	return map[string]any{
		"client_name":      v.ClientName,
		"compliant":        v.Compliant,
		"total":            v.Total,
		"badge":            v.Badge,
		"remaining":        v.Remaining,
		"remaining_plural": plural,
		"dashboard_link":   v.DashboardLink,
	}
}

func (r *Renderer) Render(v View) (string, error) {
	out, err := r.tpl.RenderString(v.bindings())
	if err != nil {
		return "", fmt.Errorf("render weekly report: %w", err)
	}
	return out, nil
}
