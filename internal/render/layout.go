package render

import (
	"strings"

	"papercv/internal/resume"
)

// A4 @ 96 DPI，与前端编辑画布保持一致。
const (
	pageWidthPx  = 794
	pageHeightPx = 1122
)

// metrics 把视觉设置折算成分页用的整数几何量。
// 所有估算都是内容与设置的确定函数，与视口和缩放无关。
type metrics struct {
	lineH      int // 单行文本高度（px）
	gap        int // 条目间距（px）
	printableH int // 单页可排版高度（px）
	mainCPL    int // 主列每行字符数估算
	sideCPL    int // 侧列每行字符数估算（单列模板与 mainCPL 相同）
}

// newMetrics 由设置推导几何量。sideRatio 为侧列宽度占比，单列模板传 0。
func newMetrics(s resume.Settings, sideRatio float64) metrics {
	// pt → px（96/72），再乘行高系数。
	glyphH := float64(s.FontSizePt) * 96.0 / 72.0
	lineH := int(glyphH*s.LineHeight + 0.5)
	if lineH < 8 {
		lineH = 8
	}

	contentW := pageWidthPx - 2*s.MarginPx
	mainW := contentW
	sideW := contentW
	if sideRatio > 0 {
		sideW = int(float64(contentW) * sideRatio)
		mainW = contentW - sideW - s.SpacingPx
	}

	// 平均字宽按字号的 0.52 估算，适用于常见无衬线字体。
	charW := glyphH * 0.52
	if charW < 1 {
		charW = 1
	}

	return metrics{
		lineH:      lineH,
		gap:        s.SpacingPx,
		printableH: pageHeightPx - 2*s.MarginPx,
		mainCPL:    maxInt(int(float64(mainW)/charW), 10),
		sideCPL:    maxInt(int(float64(sideW)/charW), 10),
	}
}

// personalView 是个人信息区块的渲染视图。
type personalView struct {
	FullName string
	JobTitle string
	Contact  string
	Summary  string
	PhotoSrc string
}

// entryView 是所有列表型区块共用的条目视图。
type entryView struct {
	Heading  string
	Sub      string
	Meta     string
	Body     string
	HasLevel bool
	Level    int
}

// blockView 是分页的原子单位：区块标题、单个条目或个人信息头。
// 块不跨页拆分，高度在构造时一次性估算。
type blockView struct {
	Kind     string // "personal" | "title" | "entry"
	Section  resume.SectionType
	Title    string
	Personal *personalView
	Entry    *entryView
	Height   int
}

type page struct {
	Index int
	Left  []blockView
	Right []blockView
}

// sectionTitles 是内建区块的展示标题。
var sectionTitles = map[resume.SectionType]string{
	resume.SectionExperience:     "Experience",
	resume.SectionEducation:      "Education",
	resume.SectionSkills:         "Skills",
	resume.SectionLanguages:      "Languages",
	resume.SectionProjects:       "Projects",
	resume.SectionCertifications: "Certifications",
	resume.SectionAwards:         "Awards",
}

// buildBlocks 把可见区块按列展开为块序列。merge 为真时全部并入主列
//（单列模板仍按全局 Order 渲染）。空区块（无条目）整体跳过，不渲染孤立标题。
func buildBlocks(r *resume.Resume, m metrics, merge bool) (left, right []blockView) {
	customByID := make(map[string]*resume.CustomSection, len(r.CustomSections))
	for i := range r.CustomSections {
		customByID[r.CustomSections[i].ID] = &r.CustomSections[i]
	}

	for _, ref := range visibleRefs(r) {
		col := ref.Column
		if merge {
			col = resume.ColumnLeft
		}
		cpl := m.mainCPL
		if col == resume.ColumnRight {
			cpl = m.sideCPL
		}

		blocks := sectionBlocks(r, ref, customByID, m, cpl)
		if len(blocks) == 0 {
			continue
		}
		if col == resume.ColumnRight {
			right = append(right, blocks...)
		} else {
			left = append(left, blocks...)
		}
	}
	return left, right
}

func sectionBlocks(
	r *resume.Resume,
	ref resume.SectionRef,
	customByID map[string]*resume.CustomSection,
	m metrics,
	cpl int,
) []blockView {
	switch ref.Type {
	case resume.SectionPersonalInfo:
		return personalBlocks(r.PersonalInfo, m, cpl)
	case resume.SectionExperience:
		entries := make([]entryView, 0, len(r.Experience))
		for _, e := range r.Experience {
			entries = append(entries, entryView{
				Heading: e.Position,
				Sub:     e.Company,
				Meta:    dateRange(e.StartDate, e.EndDate, e.Current),
				Body:    e.Description,
			})
		}
		return listBlocks(ref.Type, sectionTitles[ref.Type], entries, m, cpl)
	case resume.SectionEducation:
		entries := make([]entryView, 0, len(r.Education))
		for _, e := range r.Education {
			entries = append(entries, entryView{
				Heading: joinNonEmpty(", ", e.Degree, e.Field),
				Sub:     e.School,
				Meta:    dateRange(e.StartDate, e.EndDate, false),
				Body:    e.Description,
			})
		}
		return listBlocks(ref.Type, sectionTitles[ref.Type], entries, m, cpl)
	case resume.SectionSkills:
		entries := make([]entryView, 0, len(r.Skills))
		for _, s := range r.Skills {
			entries = append(entries, entryView{
				Heading:  s.Name,
				HasLevel: s.Level > 0,
				Level:    s.Level,
			})
		}
		return listBlocks(ref.Type, sectionTitles[ref.Type], entries, m, cpl)
	case resume.SectionLanguages:
		entries := make([]entryView, 0, len(r.Languages))
		for _, l := range r.Languages {
			entries = append(entries, entryView{Heading: l.Name, Sub: l.Proficiency})
		}
		return listBlocks(ref.Type, sectionTitles[ref.Type], entries, m, cpl)
	case resume.SectionProjects:
		entries := make([]entryView, 0, len(r.Projects))
		for _, p := range r.Projects {
			entries = append(entries, entryView{
				Heading: p.Name,
				Sub:     p.URL,
				Body:    p.Description,
			})
		}
		return listBlocks(ref.Type, sectionTitles[ref.Type], entries, m, cpl)
	case resume.SectionCertifications:
		entries := make([]entryView, 0, len(r.Certifications))
		for _, c := range r.Certifications {
			entries = append(entries, entryView{Heading: c.Name, Sub: c.Issuer, Meta: c.Date})
		}
		return listBlocks(ref.Type, sectionTitles[ref.Type], entries, m, cpl)
	case resume.SectionAwards:
		entries := make([]entryView, 0, len(r.Awards))
		for _, a := range r.Awards {
			entries = append(entries, entryView{
				Heading: a.Title,
				Sub:     a.Issuer,
				Meta:    a.Date,
				Body:    a.Description,
			})
		}
		return listBlocks(ref.Type, sectionTitles[ref.Type], entries, m, cpl)
	case resume.SectionCustom:
		cs, ok := customByID[ref.CustomSectionID]
		if !ok {
			return nil
		}
		entries := make([]entryView, 0, len(cs.Items))
		for _, item := range cs.Items {
			entries = append(entries, entryView{
				Heading: item.Title,
				Sub:     item.Subtitle,
				Meta:    item.Date,
				Body:    item.Description,
			})
		}
		return listBlocks(ref.Type, cs.Title, entries, m, cpl)
	default:
		return nil
	}
}

func personalBlocks(p resume.PersonalInfo, m metrics, cpl int) []blockView {
	view := personalView{
		FullName: p.FullName,
		JobTitle: p.JobTitle,
		Contact:  joinNonEmpty("  ·  ", p.Email, p.Phone, p.Location, p.Website),
		Summary:  p.Summary,
		PhotoSrc: photoSrc(p.PhotoKey),
	}
	if view.FullName == "" && view.JobTitle == "" && view.Contact == "" && view.Summary == "" {
		return nil
	}

	height := 2 * m.lineH // 姓名按两行字高估算
	if view.JobTitle != "" {
		height += m.lineH
	}
	if view.Contact != "" {
		height += m.lineH
	}
	if view.Summary != "" {
		height += textLines(view.Summary, cpl) * m.lineH
	}
	height += m.gap

	return []blockView{{
		Kind:     "personal",
		Section:  resume.SectionPersonalInfo,
		Personal: &view,
		Height:   height,
	}}
}

func listBlocks(t resume.SectionType, title string, entries []entryView, m metrics, cpl int) []blockView {
	kept := entries[:0]
	for _, e := range entries {
		if e.Heading == "" && e.Sub == "" && e.Body == "" {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return nil
	}

	blocks := make([]blockView, 0, len(kept)+1)
	blocks = append(blocks, blockView{
		Kind:    "title",
		Section: t,
		Title:   title,
		Height:  m.lineH + m.gap/2,
	})
	for i := range kept {
		e := kept[i]
		height := m.lineH // heading 行（含 meta）
		if e.Sub != "" {
			height += m.lineH
		}
		if e.HasLevel {
			height += m.lineH
		}
		if e.Body != "" {
			height += textLines(e.Body, cpl) * m.lineH
		}
		height += m.gap
		blocks = append(blocks, blockView{
			Kind:    "entry",
			Section: t,
			Entry:   &e,
			Height:  height,
		})
	}
	return blocks
}

// photoSrc 只放行已内联或可直接访问的图片来源；
// 裸对象键在预览文档里不可解析，由内部负载接口在导出前替换为 data URI。
func photoSrc(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "data:") || strings.HasPrefix(key, "https://") || strings.HasPrefix(key, "http://") {
		return key
	}
	return ""
}

// textLines 估算折行后的行数：按 \n 分段，每段向上取整。
func textLines(text string, cpl int) int {
	if cpl <= 0 {
		cpl = 1
	}
	lines := 0
	for _, seg := range strings.Split(text, "\n") {
		n := len([]rune(seg))
		if n == 0 {
			lines++
			continue
		}
		lines += (n + cpl - 1) / cpl
	}
	return lines
}

func dateRange(start, end string, current bool) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if current {
		end = "Present"
	}
	switch {
	case start == "" && end == "":
		return ""
	case start == "":
		return end
	case end == "":
		return start
	default:
		return start + " – " + end
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, sep)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
