package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"papercv/internal/resume"
)

// PrintCSSHref 是渲染文档引用的共享打印样式表路径，由 API 静态路由提供。
const PrintCSSHref = "/static/print-base.css"

// Template 是一种版面策略。模板集合是封闭的：每个模板一个实现，
// 未知标识统一回退到默认模板，而不是失败。
type Template interface {
	ID() string
	Name() string
	// TwoColumn 表示该模板是否把 left/right 两列分开排版。
	TwoColumn() bool

	// metrics 与 css 由各实现给出，渲染机制共享（见 registry.Render）。
	metrics(s resume.Settings) metrics
	css(s resume.Settings) string
}

// Info 是模板的对外描述。
type Info struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TwoColumn bool   `json:"twoColumn"`
}

// Output 是一次渲染的结果。Body 与分页只取决于简历内容与设置；
// Scale 仅作用于 Document 外层的缩放包装，保证预览与导出快照逐像素一致。
type Output struct {
	TemplateID string
	Document   string
	Body       string
	PageCount  int
}

// Registry 持有全部已注册模板。
type Registry struct {
	templates map[string]Template
	order     []string
	fallback  string
}

// NewRegistry 注册内建模板集合。
func NewRegistry() *Registry {
	reg := &Registry{
		templates: make(map[string]Template),
		fallback:  resume.DefaultTemplate,
	}
	for _, t := range []Template{
		&classicTemplate{},
		&modernTemplate{},
		&compactTemplate{},
	} {
		reg.templates[t.ID()] = t
		reg.order = append(reg.order, t.ID())
	}
	return reg
}

// Resolve 返回模板实现；未知标识回退到默认模板。
func (reg *Registry) Resolve(id string) Template {
	if t, ok := reg.templates[strings.TrimSpace(id)]; ok {
		return t
	}
	return reg.templates[reg.fallback]
}

// List 按注册顺序返回模板描述。
func (reg *Registry) List() []Info {
	infos := make([]Info, 0, len(reg.order))
	for _, id := range reg.order {
		t := reg.templates[id]
		infos = append(infos, Info{ID: t.ID(), Name: t.Name(), TwoColumn: t.TwoColumn()})
	}
	return infos
}

// Render 把简历渲染为分页的 HTML 文档。同样的输入总是产生同样的输出；
// scale 不参与分页决策。调用方需要先 Sanitize，渲染器不接受破损的记录。
func (reg *Registry) Render(r resume.Resume, templateID string, scale float64) (Output, error) {
	if scale <= 0 {
		scale = 1
	}
	t := reg.Resolve(templateID)
	m := t.metrics(r.Settings)

	left, right := buildBlocks(&r, m, !t.TwoColumn())
	pages := paginate(left, right, m.printableH)

	body, err := renderBody(t, pages)
	if err != nil {
		return Output{}, fmt.Errorf("render body for template %q: %w", t.ID(), err)
	}

	doc, err := renderDocument(&r, t, body, scale)
	if err != nil {
		return Output{}, fmt.Errorf("render document for template %q: %w", t.ID(), err)
	}

	return Output{
		TemplateID: t.ID(),
		Document:   doc,
		Body:       body,
		PageCount:  len(pages),
	}, nil
}

// visibleRefs 过滤出可见槽位并按 Order 升序返回。
func visibleRefs(r *resume.Resume) []resume.SectionRef {
	refs := make([]resume.SectionRef, 0, len(r.Sections))
	for _, ref := range r.Sections {
		if ref.Visible {
			refs = append(refs, ref)
		}
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Order < refs[j].Order })
	return refs
}

var templateFuncs = template.FuncMap{
	"nl2br": func(s string) template.HTML {
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			lines[i] = template.HTMLEscapeString(line)
		}
		return template.HTML(strings.Join(lines, "<br>"))
	},
	"seq": func(n int) []int {
		if n < 0 {
			n = 0
		}
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	},
	"sub": func(a, b int) int { return a - b },
	"safeCSS": func(s string) template.CSS {
		return template.CSS(s)
	},
}

var bodyTmpl = template.Must(template.New("body").Funcs(templateFuncs).Parse(bodyTemplateString))

var documentTmpl = template.Must(template.New("document").Funcs(templateFuncs).Parse(documentTemplateString))

type bodyData struct {
	Pages     []page
	TwoColumn bool
}

type documentData struct {
	Title        string
	TemplateID   string
	PrintCSSHref string
	CSS          template.CSS
	Body         template.HTML
	ScaleStyle   template.CSS
}

func renderBody(t Template, pages []page) (string, error) {
	var buf bytes.Buffer
	data := bodyData{Pages: pages, TwoColumn: t.TwoColumn()}
	if err := bodyTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderDocument(r *resume.Resume, t Template, body string, scale float64) (string, error) {
	var scaleStyle string
	if scale != 1 {
		scaleStyle = fmt.Sprintf("transform: scale(%g); transform-origin: top left;", scale)
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "Resume"
	}

	var buf bytes.Buffer
	data := documentData{
		Title:        title,
		TemplateID:   t.ID(),
		PrintCSSHref: PrintCSSHref,
		CSS:          template.CSS(t.css(r.Settings)),
		Body:         template.HTML(body),
		ScaleStyle:   template.CSS(scaleStyle),
	}
	if err := documentTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const documentTemplateString = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.PrintCSSHref}}">
<style>
{{.CSS}}
</style>
</head>
<body data-template="{{.TemplateID}}">
<div class="scale-wrap"{{if .ScaleStyle}} style="{{.ScaleStyle}}"{{end}}>
{{.Body}}
</div>
</body>
</html>
`

const bodyTemplateString = `<div id="resume-root">
{{- range .Pages}}
<div class="page">
<div class="page-inner">
<div class="col col-main">
{{- range .Left}}
{{template "block" .}}
{{- end}}
</div>
{{- if $.TwoColumn}}
<div class="col col-side">
{{- range .Right}}
{{template "block" .}}
{{- end}}
</div>
{{- end}}
</div>
</div>
{{- end}}
</div>
{{define "block"}}
{{- if eq .Kind "personal"}}
<header class="personal" data-section="personalInfo">
{{- if .Personal.PhotoSrc}}
<img class="photo" src="{{.Personal.PhotoSrc}}" alt="">
{{- end}}
<h1 class="full-name">{{.Personal.FullName}}</h1>
{{- if .Personal.JobTitle}}
<div class="job-title">{{.Personal.JobTitle}}</div>
{{- end}}
{{- if .Personal.Contact}}
<div class="contact">{{.Personal.Contact}}</div>
{{- end}}
{{- if .Personal.Summary}}
<p class="summary">{{nl2br .Personal.Summary}}</p>
{{- end}}
</header>
{{- else if eq .Kind "title"}}
<h2 class="section-title" data-section="{{.Section}}">{{.Title}}</h2>
{{- else}}
<div class="entry" data-section="{{.Section}}">
<div class="entry-head">
<span class="heading">{{.Entry.Heading}}</span>
{{- if .Entry.Meta}}
<span class="meta">{{.Entry.Meta}}</span>
{{- end}}
</div>
{{- if .Entry.Sub}}
<div class="sub">{{.Entry.Sub}}</div>
{{- end}}
{{- if .Entry.HasLevel}}
<div class="level">
{{- range seq .Entry.Level}}<span class="dot filled"></span>{{end}}
{{- range seq (sub 5 .Entry.Level)}}<span class="dot"></span>{{end}}
</div>
{{- end}}
{{- if .Entry.Body}}
<p class="body">{{nl2br .Entry.Body}}</p>
{{- end}}
</div>
{{- end}}
{{end}}`
