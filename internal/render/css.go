package render

import (
	"fmt"

	"papercv/internal/resume"
)

// buildBaseCSS 生成所有模板共享的页面与排版样式。
// 页面几何必须与分页估算（layout.go）使用同一组常量。
func buildBaseCSS(s resume.Settings) string {
	return fmt.Sprintf(`
body {
  margin: 0;
  padding: 0;
  font-family: '%s', sans-serif;
  font-size: %dpt;
  line-height: %.2f;
  color: %s;
  background: #f0f0f0;
}
.page {
  width: %dpx;
  height: %dpx;
  background: %s;
  margin: 0 auto;
  box-sizing: border-box;
  overflow: hidden;
  aspect-ratio: 210 / 297;
}
.page-inner {
  height: 100%%;
  padding: %dpx;
  box-sizing: border-box;
}
.section-title {
  color: %s;
  font-size: 1.1em;
  margin: 0 0 %dpx 0;
  text-transform: uppercase;
  letter-spacing: 0.04em;
}
.entry { margin-bottom: %dpx; }
.entry-head { display: flex; justify-content: space-between; }
.entry-head .heading { font-weight: bold; }
.entry-head .meta { color: %s; white-space: nowrap; }
.entry .sub { color: %s; }
.entry .body { margin: 2px 0 0 0; }
.personal { margin-bottom: %dpx; }
.personal .full-name {
  margin: 0;
  color: %s;
  font-size: 2em;
}
.personal .job-title { color: %s; font-size: 1.2em; }
.personal .contact { color: %s; }
.personal .summary { margin: 4px 0 0 0; }
.personal .photo {
  float: right;
  width: 72px;
  height: 72px;
  object-fit: cover;
  border-radius: 4px;
}
.level .dot {
  display: inline-block;
  width: 8px;
  height: 8px;
  margin-right: 3px;
  border-radius: 50%%;
  background: #d1d5db;
}
.level .dot.filled { background: %s; }
`,
		s.FontFamily,
		s.FontSizePt,
		s.LineHeight,
		s.Colors.Text,
		pageWidthPx,
		pageHeightPx,
		s.Colors.Background,
		s.MarginPx,
		s.Colors.Primary,
		s.SpacingPx/2,
		s.SpacingPx,
		s.Colors.Accent,
		s.Colors.Accent,
		s.SpacingPx,
		s.Colors.Primary,
		s.Colors.Accent,
		s.Colors.Accent,
		s.Colors.Accent,
	)
}

// buildTwoColumnCSS 为双列模板追加列布局样式。
func buildTwoColumnCSS(s resume.Settings, sideRatio float64) string {
	return fmt.Sprintf(`
.page-inner { display: flex; gap: %dpx; }
.col-main { flex: 1 1 auto; min-width: 0; }
.col-side {
  flex: 0 0 %.0f%%;
  box-sizing: border-box;
  padding-left: %dpx;
  border-left: 2px solid %s;
}
`,
		s.SpacingPx,
		sideRatio*100,
		s.SpacingPx,
		s.Colors.Primary,
	)
}

// PrintBaseCSS 是通过 /static/print-base.css 提供的共享打印样式：
// 固定 A4 纸面、保留背景色、分页符与阴影清理。
// 样式快照采集器会在导出时把它与文档内联样式一起打包。
const PrintBaseCSS = `html, body {
  margin: 0;
  padding: 0;
}
@media print {
  * {
    -webkit-print-color-adjust: exact !important;
    print-color-adjust: exact !important;
  }
  @page {
    size: A4;
    margin: 0;
  }
  body {
    background: white !important;
    margin: 0 !important;
    padding: 0 !important;
  }
  .page {
    box-shadow: none !important;
    margin: 0 auto !important;
    page-break-after: always;
  }
  .page:last-child {
    page-break-after: auto;
  }
}
@media screen {
  .page {
    box-shadow: 0 2px 8px rgba(0, 0, 0, 0.15);
    margin: 16px auto;
  }
}
`
