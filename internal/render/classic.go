package render

import "papercv/internal/resume"

// classicTemplate 是单列、ATS 友好的默认模板：
// 不用多列排版，区块严格按全局 Order 顺序线性排列。
type classicTemplate struct{}

func (t *classicTemplate) ID() string      { return "classic" }
func (t *classicTemplate) Name() string    { return "Classic" }
func (t *classicTemplate) TwoColumn() bool { return false }

func (t *classicTemplate) metrics(s resume.Settings) metrics {
	return newMetrics(s, 0)
}

func (t *classicTemplate) css(s resume.Settings) string {
	return buildBaseCSS(s) + `
.section-title {
  border-bottom: 1px solid currentColor;
  padding-bottom: 2px;
}
`
}
