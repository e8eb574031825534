package render

import "papercv/internal/resume"

// compactTemplate 是高密度单列模板：字号与间距整体收紧，适合内容多的简历。
type compactTemplate struct{}

func (t *compactTemplate) ID() string      { return "compact" }
func (t *compactTemplate) Name() string    { return "Compact" }
func (t *compactTemplate) TwoColumn() bool { return false }

func (t *compactTemplate) metrics(s resume.Settings) metrics {
	dense := t.densify(s)
	return newMetrics(dense, 0)
}

func (t *compactTemplate) css(s resume.Settings) string {
	dense := t.densify(s)
	return buildBaseCSS(dense) + `
.personal .full-name { font-size: 1.6em; }
.section-title { margin-bottom: 2px; }
`
}

// densify 收紧行距与间距。必须同时作用于 metrics 与 css，
// 否则分页估算会和实际排版脱节。
func (t *compactTemplate) densify(s resume.Settings) resume.Settings {
	s.LineHeight = s.LineHeight * 0.85
	if s.LineHeight < 1.0 {
		s.LineHeight = 1.0
	}
	s.SpacingPx = s.SpacingPx * 2 / 3
	return s
}
