package writer

import (
	"context"
	"io"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/web2proposal/internal/model"
)

// MaxItemsPerSection is the number of bullets a template section lists.
const MaxItemsPerSection = 5

// section describes one heading of the template document.
type section struct {
	heading     string
	lead        string
	placeholder string
	items       func(model.Plan) []string
}

// Sections appear in this order in every document.
var sections = []section{
	{
		heading:     "一、背景",
		lead:        "基于收集的信息，相关背景如下：",
		placeholder: "（待补充背景信息）",
		items:       func(p model.Plan) []string { return p.Background.KeyFacts },
	},
	{
		heading:     "二、现状分析",
		lead:        "当前情况分析如下：",
		placeholder: "（待补充现状信息）",
		items:       func(p model.Plan) []string { return p.CurrentSituation.MainPoints },
	},
	{
		heading:     "三、核心问题总结",
		lead:        "通过分析，主要问题包括：",
		placeholder: "（待补充问题信息）",
		items:       func(p model.Plan) []string { return p.KeyProblems.Problems },
	},
	{
		heading:     "四、可行方案建议",
		lead:        "基于以上分析，建议采取以下方案：",
		placeholder: "（待补充方案信息）",
		items:       func(p model.Plan) []string { return p.ProposedSolutions.Solutions },
	},
}

// SectionHeadings returns the four section headings in document order.
func SectionHeadings() []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.heading
	}
	return out
}

// TemplateStrategy renders the plan into a fixed markdown skeleton.
// Every section is always present; an empty one carries a placeholder line.
type TemplateStrategy struct{}

// Write implements Strategy.
func (TemplateStrategy) Write(_ context.Context, plan model.Plan, title string) string {
	md := markdown.NewMarkdown(io.Discard)
	md.H1(singleLine(title))
	md.PlainText("")

	for _, s := range sections {
		md.H2(s.heading)
		md.PlainText("")

		items := nonBlank(s.items(plan))
		if len(items) == 0 {
			md.PlainText(s.placeholder)
			md.PlainText("")
			continue
		}

		if len(items) > MaxItemsPerSection {
			items = items[:MaxItemsPerSection]
		}
		md.PlainText(s.lead)
		md.PlainText("")
		md.BulletList(items...)
		md.PlainText("")
	}

	return strings.TrimRight(md.String(), "\r\n") + "\n"
}

// nonBlank returns the items with whitespace collapsed, skipping empty ones.
func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if line := singleLine(item); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// singleLine collapses all whitespace in s, newlines included, to single spaces.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
