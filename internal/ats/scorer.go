package ats

import (
	"sort"
	"strings"

	"papercv/internal/resume"
)

// 各分项在总分里的权重。
const (
	keywordWeight      = 0.5
	completenessWeight = 0.3
	contactWeight      = 0.2
)

// Report 是一次 ATS 评分的结果。分值均为 0-100 的整数。
// 切片字段按字典序输出，同一输入总是得到同一份报告。
type Report struct {
	Total           int      `json:"total"`
	KeywordScore    int      `json:"keywordScore"`
	Completeness    int      `json:"completeness"`
	ContactScore    int      `json:"contactScore"`
	MatchedKeywords []string `json:"matchedKeywords"`
	MissingKeywords []string `json:"missingKeywords"`
	Suggestions     []string `json:"suggestions"`
}

// Score 对一份已规范化的简历做启发式 ATS 评分。
// keywords 通常来自目标职位描述；为空时关键词项按满分计。
func Score(r resume.Resume, keywords []string) Report {
	report := Report{
		MatchedKeywords: []string{},
		MissingKeywords: []string{},
		Suggestions:     []string{},
	}

	corpus := buildCorpus(r)
	report.KeywordScore, report.MatchedKeywords, report.MissingKeywords = scoreKeywords(corpus, keywords)
	report.Completeness = scoreCompleteness(r, &report)
	report.ContactScore = scoreContact(r, &report)

	if len(report.MissingKeywords) > 0 {
		report.Suggestions = append(report.Suggestions,
			"mention the missing keywords where they truthfully apply")
	}
	sort.Strings(report.Suggestions)

	total := keywordWeight*float64(report.KeywordScore) +
		completenessWeight*float64(report.Completeness) +
		contactWeight*float64(report.ContactScore)
	report.Total = int(total + 0.5)
	return report
}

// buildCorpus 把简历里所有可被解析器读到的文本拼成小写语料。
func buildCorpus(r resume.Resume) string {
	var sb strings.Builder
	add := func(parts ...string) {
		for _, p := range parts {
			sb.WriteString(p)
			sb.WriteByte(' ')
		}
	}

	add(r.PersonalInfo.FullName, r.PersonalInfo.JobTitle, r.PersonalInfo.Summary)
	for _, e := range r.Experience {
		add(e.Company, e.Position, e.Description)
	}
	for _, e := range r.Education {
		add(e.School, e.Degree, e.Field, e.Description)
	}
	for _, s := range r.Skills {
		add(s.Name)
	}
	for _, l := range r.Languages {
		add(l.Name, l.Proficiency)
	}
	for _, p := range r.Projects {
		add(p.Name, p.Description)
	}
	for _, c := range r.Certifications {
		add(c.Name, c.Issuer)
	}
	for _, a := range r.Awards {
		add(a.Title, a.Issuer, a.Description)
	}
	for _, cs := range r.CustomSections {
		add(cs.Title)
		for _, item := range cs.Items {
			add(item.Title, item.Subtitle, item.Description)
		}
	}
	return strings.ToLower(sb.String())
}

func scoreKeywords(corpus string, keywords []string) (int, []string, []string) {
	matched := []string{}
	missing := []string{}

	seen := make(map[string]bool)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		if strings.Contains(corpus, kw) {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)

	if len(matched)+len(missing) == 0 {
		return 100, matched, missing
	}
	return 100 * len(matched) / (len(matched) + len(missing)), matched, missing
}

// scoreCompleteness 检查解析器通常要求的结构要素是否齐全。
func scoreCompleteness(r resume.Resume, report *Report) int {
	type check struct {
		ok         bool
		suggestion string
	}
	checks := []check{
		{strings.TrimSpace(r.PersonalInfo.FullName) != "", "add your full name"},
		{strings.TrimSpace(r.PersonalInfo.JobTitle) != "", "add a target job title"},
		{strings.TrimSpace(r.PersonalInfo.Summary) != "", "add a short professional summary"},
		{len(r.Experience) > 0, "add at least one work experience entry"},
		{len(r.Education) > 0, "add your education history"},
		{len(r.Skills) >= 3, "list at least three skills"},
		{experienceDatesComplete(r.Experience), "fill in start dates for every experience entry"},
		{experienceDescribed(r.Experience), "describe what you did in each role"},
	}

	passed := 0
	for _, c := range checks {
		if c.ok {
			passed++
		} else {
			report.Suggestions = append(report.Suggestions, c.suggestion)
		}
	}
	return 100 * passed / len(checks)
}

func scoreContact(r resume.Resume, report *Report) int {
	type check struct {
		ok         bool
		suggestion string
	}
	email := strings.TrimSpace(r.PersonalInfo.Email)
	checks := []check{
		{email != "" && strings.Count(email, "@") == 1 && !strings.HasPrefix(email, "@") && !strings.HasSuffix(email, "@"),
			"add a valid email address"},
		{strings.TrimSpace(r.PersonalInfo.Phone) != "", "add a phone number"},
		{strings.TrimSpace(r.PersonalInfo.Location) != "", "add your location"},
		{strings.TrimSpace(r.PersonalInfo.Website) != "", "link a personal website or profile"},
	}

	passed := 0
	for _, c := range checks {
		if c.ok {
			passed++
		} else {
			report.Suggestions = append(report.Suggestions, c.suggestion)
		}
	}
	return 100 * passed / len(checks)
}

func experienceDatesComplete(entries []resume.Experience) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if strings.TrimSpace(e.StartDate) == "" {
			return false
		}
	}
	return true
}

func experienceDescribed(entries []resume.Experience) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Description) == "" {
			return false
		}
	}
	return true
}
