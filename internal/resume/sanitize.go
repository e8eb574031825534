package resume

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Sanitize 把来路不明的原始 JSON 整形成满足全部不变量的 Resume。
// 约定：
// - 绝不失败：无法解析的输入退化为带默认值的空简历；
// - 字段级容错：缺失、null、类型不符的字段各自退化为默认值，不影响其它字段；
// - 幂等：Sanitize(Sanitize(r)) == Sanitize(r)。
func Sanitize(raw []byte) Resume {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		r := New()
		Normalize(&r)
		return r
	}

	r := Resume{
		ID:           fieldString(m, "id"),
		Title:        fieldString(m, "title"),
		CreatedAt:    fieldTime(m, "createdAt"),
		UpdatedAt:    fieldTime(m, "updatedAt"),
		PersonalInfo: buildPersonalInfo(fieldMap(m, "personalInfo")),
		Settings:     buildSettings(fieldMap(m, "settings")),
	}

	for _, em := range fieldSlice(m, "experience") {
		r.Experience = append(r.Experience, Experience{
			ID:          fieldString(em, "id"),
			Company:     fieldString(em, "company"),
			Position:    fieldString(em, "position"),
			StartDate:   fieldString(em, "startDate"),
			EndDate:     fieldString(em, "endDate"),
			Current:     fieldBool(em, "current"),
			Description: fieldString(em, "description"),
		})
	}
	for _, em := range fieldSlice(m, "education") {
		r.Education = append(r.Education, Education{
			ID:          fieldString(em, "id"),
			School:      fieldString(em, "school"),
			Degree:      fieldString(em, "degree"),
			Field:       fieldString(em, "field"),
			StartDate:   fieldString(em, "startDate"),
			EndDate:     fieldString(em, "endDate"),
			Description: fieldString(em, "description"),
		})
	}
	for _, em := range fieldSlice(m, "skills") {
		r.Skills = append(r.Skills, Skill{
			ID:    fieldString(em, "id"),
			Name:  fieldString(em, "name"),
			Level: clampInt(fieldInt(em, "level"), 0, 5),
		})
	}
	for _, em := range fieldSlice(m, "languages") {
		r.Languages = append(r.Languages, Language{
			ID:          fieldString(em, "id"),
			Name:        fieldString(em, "name"),
			Proficiency: fieldString(em, "proficiency"),
		})
	}
	for _, em := range fieldSlice(m, "projects") {
		r.Projects = append(r.Projects, Project{
			ID:          fieldString(em, "id"),
			Name:        fieldString(em, "name"),
			URL:         fieldString(em, "url"),
			Description: fieldString(em, "description"),
		})
	}
	for _, em := range fieldSlice(m, "certifications") {
		r.Certifications = append(r.Certifications, Certification{
			ID:     fieldString(em, "id"),
			Name:   fieldString(em, "name"),
			Issuer: fieldString(em, "issuer"),
			Date:   fieldString(em, "date"),
		})
	}
	for _, em := range fieldSlice(m, "awards") {
		r.Awards = append(r.Awards, Award{
			ID:          fieldString(em, "id"),
			Title:       fieldString(em, "title"),
			Issuer:      fieldString(em, "issuer"),
			Date:        fieldString(em, "date"),
			Description: fieldString(em, "description"),
		})
	}
	for _, em := range fieldSlice(m, "customSections") {
		cs := CustomSection{
			ID:    fieldString(em, "id"),
			Title: fieldString(em, "title"),
		}
		for _, im := range fieldSlice(em, "items") {
			cs.Items = append(cs.Items, CustomItem{
				ID:          fieldString(im, "id"),
				Title:       fieldString(im, "title"),
				Subtitle:    fieldString(im, "subtitle"),
				Date:        fieldString(im, "date"),
				Description: fieldString(im, "description"),
			})
		}
		r.CustomSections = append(r.CustomSections, cs)
	}
	for _, em := range fieldSlice(m, "sections") {
		r.Sections = append(r.Sections, SectionRef{
			Type:            SectionType(fieldString(em, "type")),
			CustomSectionID: fieldString(em, "customSectionId"),
			Column:          Column(fieldString(em, "column")),
			Visible:         fieldBool(em, "visible"),
			Order:           fieldInt(em, "order"),
		})
	}

	Normalize(&r)
	return r
}

// Normalize 就地修复一份已解码的 Resume，使其满足简历结构的全部不变量：
// 切片非 nil、配色四角色齐全、每个内建区块类型都有 sections 槽位、
// Order 重新编号为严格全序、空白或重复的条目 ID 重新分配。
func Normalize(r *Resume) {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.Title == "" {
		r.Title = "Untitled resume"
	}

	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Skills == nil {
		r.Skills = []Skill{}
	}
	if r.Languages == nil {
		r.Languages = []Language{}
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	if r.Certifications == nil {
		r.Certifications = []Certification{}
	}
	if r.Awards == nil {
		r.Awards = []Award{}
	}
	if r.CustomSections == nil {
		r.CustomSections = []CustomSection{}
	}

	normalizeSettings(&r.Settings)
	normalizeIDs(r)
	normalizeSections(r)
}

func normalizeSettings(s *Settings) {
	def := DefaultSettings()
	if strings.TrimSpace(s.Template) == "" {
		s.Template = def.Template
	}
	if strings.TrimSpace(s.FontFamily) == "" {
		s.FontFamily = def.FontFamily
	}
	if s.FontSizePt < 6 || s.FontSizePt > 18 {
		s.FontSizePt = def.FontSizePt
	}
	if s.LineHeight < 1.0 || s.LineHeight > 2.5 {
		s.LineHeight = def.LineHeight
	}
	if s.SpacingPx < 0 || s.SpacingPx > 48 {
		s.SpacingPx = def.SpacingPx
	}
	if s.MarginPx < 0 || s.MarginPx > 96 {
		s.MarginPx = def.MarginPx
	}
	defColors := DefaultColors()
	if strings.TrimSpace(s.Colors.Primary) == "" {
		s.Colors.Primary = defColors.Primary
	}
	if strings.TrimSpace(s.Colors.Text) == "" {
		s.Colors.Text = defColors.Text
	}
	if strings.TrimSpace(s.Colors.Background) == "" {
		s.Colors.Background = defColors.Background
	}
	if strings.TrimSpace(s.Colors.Accent) == "" {
		s.Colors.Accent = defColors.Accent
	}
}

// normalizeIDs 为空白 ID 补发新标识，并消除同一集合内的重复。
func normalizeIDs(r *Resume) {
	seen := make(map[string]struct{})
	fix := func(id string) string {
		id = strings.TrimSpace(id)
		if id == "" {
			id = NewID()
		}
		if _, dup := seen[id]; dup {
			id = NewID()
		}
		seen[id] = struct{}{}
		return id
	}

	for i := range r.Experience {
		r.Experience[i].ID = fix(r.Experience[i].ID)
	}
	for i := range r.Education {
		r.Education[i].ID = fix(r.Education[i].ID)
	}
	for i := range r.Skills {
		r.Skills[i].ID = fix(r.Skills[i].ID)
	}
	for i := range r.Languages {
		r.Languages[i].ID = fix(r.Languages[i].ID)
	}
	for i := range r.Projects {
		r.Projects[i].ID = fix(r.Projects[i].ID)
	}
	for i := range r.Certifications {
		r.Certifications[i].ID = fix(r.Certifications[i].ID)
	}
	for i := range r.Awards {
		r.Awards[i].ID = fix(r.Awards[i].ID)
	}
	for i := range r.CustomSections {
		r.CustomSections[i].ID = fix(r.CustomSections[i].ID)
		for j := range r.CustomSections[i].Items {
			r.CustomSections[i].Items[j].ID = fix(r.CustomSections[i].Items[j].ID)
		}
	}
}

// normalizeSections 去掉非法/重复/悬空的槽位，补齐缺失的内建类型与自定义区块，
// 最后按 Order 稳定排序并重新编号为 0..n-1。
func normalizeSections(r *Resume) {
	known := make(map[SectionType]struct{})
	for _, t := range KnownSectionTypes() {
		known[t] = struct{}{}
	}
	customByID := make(map[string]struct{}, len(r.CustomSections))
	for _, cs := range r.CustomSections {
		customByID[cs.ID] = struct{}{}
	}

	kept := make([]SectionRef, 0, len(r.Sections))
	seenType := make(map[SectionType]struct{})
	seenCustom := make(map[string]struct{})
	for _, ref := range r.Sections {
		if ref.Column != ColumnLeft && ref.Column != ColumnRight {
			ref.Column = defaultColumnFor(ref.Type)
		}
		if ref.Type == SectionCustom {
			if _, ok := customByID[ref.CustomSectionID]; !ok {
				continue // 悬空引用：父区块已删除
			}
			if _, dup := seenCustom[ref.CustomSectionID]; dup {
				continue
			}
			seenCustom[ref.CustomSectionID] = struct{}{}
			kept = append(kept, ref)
			continue
		}
		if _, ok := known[ref.Type]; !ok {
			continue
		}
		if _, dup := seenType[ref.Type]; dup {
			continue
		}
		ref.CustomSectionID = ""
		seenType[ref.Type] = struct{}{}
		kept = append(kept, ref)
	}

	for _, t := range KnownSectionTypes() {
		if _, ok := seenType[t]; ok {
			continue
		}
		kept = append(kept, SectionRef{
			Type:    t,
			Column:  defaultColumnFor(t),
			Visible: true,
			Order:   len(kept),
		})
	}
	for _, cs := range r.CustomSections {
		if _, ok := seenCustom[cs.ID]; ok {
			continue
		}
		kept = append(kept, SectionRef{
			Type:            SectionCustom,
			CustomSectionID: cs.ID,
			Column:          ColumnLeft,
			Visible:         true,
			Order:           len(kept),
		})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Order < kept[j].Order })
	for i := range kept {
		kept[i].Order = i
	}
	r.Sections = kept
}

func fieldMap(m map[string]any, field string) map[string]any {
	if v, ok := m[field]; ok {
		if mm, ok := v.(map[string]any); ok {
			return mm
		}
	}
	return nil
}

func fieldSlice(m map[string]any, field string) []map[string]any {
	v, ok := m[field]
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	result := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if mm, ok := item.(map[string]any); ok {
			result = append(result, mm)
		}
	}
	return result
}

func fieldString(m map[string]any, field string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func fieldBool(m map[string]any, field string) bool {
	if m == nil {
		return false
	}
	if v, ok := m[field]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func fieldInt(m map[string]any, field string) int {
	if m == nil {
		return 0
	}
	if v, ok := m[field]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return 0
}

func fieldFloat(m map[string]any, field string) float64 {
	if m == nil {
		return 0
	}
	if v, ok := m[field]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return 0
}

func fieldTime(m map[string]any, field string) time.Time {
	s := fieldString(m, field)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func buildPersonalInfo(m map[string]any) PersonalInfo {
	return PersonalInfo{
		FullName: fieldString(m, "fullName"),
		JobTitle: fieldString(m, "jobTitle"),
		Email:    fieldString(m, "email"),
		Phone:    fieldString(m, "phone"),
		Location: fieldString(m, "location"),
		Website:  fieldString(m, "website"),
		Summary:  fieldString(m, "summary"),
		PhotoKey: fieldString(m, "photoKey"),
	}
}

func buildSettings(m map[string]any) Settings {
	colors := fieldMap(m, "colors")
	return Settings{
		Template:   fieldString(m, "template"),
		FontFamily: fieldString(m, "fontFamily"),
		FontSizePt: fieldInt(m, "fontSizePt"),
		LineHeight: fieldFloat(m, "lineHeight"),
		Colors: Colors{
			Primary:    fieldString(colors, "primary"),
			Text:       fieldString(colors, "text"),
			Background: fieldString(colors, "background"),
			Accent:     fieldString(colors, "accent"),
		},
		SpacingPx: fieldInt(m, "spacingPx"),
		MarginPx:  fieldInt(m, "marginPx"),
	}
}
