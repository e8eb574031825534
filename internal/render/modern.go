package render

import "papercv/internal/resume"

// modernTemplate 是双列模板：主列放叙述性区块，侧列放技能、语言等紧凑区块。
type modernTemplate struct{}

// 侧列占内容区宽度的比例，同时参与分页的字符宽度估算。
const modernSideRatio = 0.32

func (t *modernTemplate) ID() string      { return "modern" }
func (t *modernTemplate) Name() string    { return "Modern" }
func (t *modernTemplate) TwoColumn() bool { return true }

func (t *modernTemplate) metrics(s resume.Settings) metrics {
	return newMetrics(s, modernSideRatio)
}

func (t *modernTemplate) css(s resume.Settings) string {
	return buildBaseCSS(s) + buildTwoColumnCSS(s, modernSideRatio) + `
.col-side .section-title { font-size: 1em; }
.col-side .entry-head { display: block; }
`
}
