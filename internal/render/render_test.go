package render

import (
	"fmt"
	"strings"
	"testing"

	"papercv/internal/resume"
)

func sampleResume() resume.Resume {
	raw := `{
		"title": "Sample",
		"personalInfo": {"fullName": "Jane Doe", "jobTitle": "Engineer", "email": "jane@example.com", "summary": "Builds backends."},
		"experience": [
			{"id": "e1", "company": "ACME", "position": "Backend Engineer", "startDate": "2020-01", "current": true, "description": "Owns the export pipeline."},
			{"id": "e2", "company": "Initech", "position": "Developer", "startDate": "2017-03", "endDate": "2019-12", "description": "General backend work."}
		],
		"skills": [
			{"id": "s1", "name": "Go", "level": 5},
			{"id": "s2", "name": "PostgreSQL", "level": 4}
		],
		"languages": [{"id": "l1", "name": "English", "proficiency": "Fluent"}]
	}`
	return resume.Sanitize([]byte(raw))
}

func TestRenderDeterministic(t *testing.T) {
	reg := NewRegistry()
	r := sampleResume()

	for _, id := range []string{"classic", "modern", "compact"} {
		first, err := reg.Render(r, id, 1)
		if err != nil {
			t.Fatalf("render %s: %v", id, err)
		}
		second, err := reg.Render(r, id, 1)
		if err != nil {
			t.Fatalf("render %s again: %v", id, err)
		}
		if first.Document != second.Document || first.Body != second.Body {
			t.Fatalf("template %s is not deterministic", id)
		}
		if first.PageCount < 1 {
			t.Fatalf("template %s produced %d pages", id, first.PageCount)
		}
	}
}

func TestRenderScaleDoesNotChangeLayout(t *testing.T) {
	reg := NewRegistry()
	r := sampleResume()

	base, err := reg.Render(r, "classic", 1)
	if err != nil {
		t.Fatalf("render at scale 1: %v", err)
	}
	scaled, err := reg.Render(r, "classic", 1.5)
	if err != nil {
		t.Fatalf("render at scale 1.5: %v", err)
	}

	if base.Body != scaled.Body {
		t.Fatal("scale changed the content markup; page-break decisions are no longer scale-independent")
	}
	if base.PageCount != scaled.PageCount {
		t.Fatalf("scale changed page count: %d vs %d", base.PageCount, scaled.PageCount)
	}
	if !strings.Contains(scaled.Document, "transform: scale(1.5)") {
		t.Fatal("scaled document missing scale wrapper")
	}
	if strings.Contains(base.Document, "transform: scale(") {
		t.Fatal("scale 1 document should not carry a transform")
	}
}

func TestRenderVisibilityAndOrder(t *testing.T) {
	reg := NewRegistry()
	raw := `{
		"experience": [{"id": "e1", "company": "ACME", "position": "Engineer"}],
		"skills": [{"id": "s1", "name": "Go", "level": 5}],
		"sections": [
			{"type": "skills", "visible": false, "order": 1, "column": "left"},
			{"type": "experience", "visible": true, "order": 0, "column": "left"}
		]
	}`
	r := resume.Sanitize([]byte(raw))
	// Sanitize 会把其余内建区块补回来；这里只保留测试关心的两个。
	kept := r.Sections[:0]
	for _, ref := range r.Sections {
		if ref.Type == resume.SectionSkills || ref.Type == resume.SectionExperience {
			kept = append(kept, ref)
		}
	}
	r.Sections = kept

	out, err := reg.Render(r, "classic", 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(out.Body, "ACME") {
		t.Fatal("visible experience section missing from output")
	}
	if strings.Contains(out.Body, `data-section="skills"`) || strings.Contains(out.Body, ">Go<") {
		t.Fatal("hidden skills section leaked into output")
	}
}

func TestRenderUnknownTemplateFallsBack(t *testing.T) {
	reg := NewRegistry()
	r := sampleResume()

	out, err := reg.Render(r, "does-not-exist", 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.TemplateID != resume.DefaultTemplate {
		t.Fatalf("expected fallback to %q, got %q", resume.DefaultTemplate, out.TemplateID)
	}
}

func TestRenderEscapesUserContent(t *testing.T) {
	reg := NewRegistry()
	r := sampleResume()
	r.PersonalInfo.FullName = `<script>alert("x")</script>`

	out, err := reg.Render(r, "classic", 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out.Body, "<script>alert") {
		t.Fatal("user content not escaped")
	}
}

func TestRegistryListIsClosedSet(t *testing.T) {
	reg := NewRegistry()
	infos := reg.List()
	if len(infos) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(infos))
	}
	want := []string{"classic", "modern", "compact"}
	for i, info := range infos {
		if info.ID != want[i] {
			t.Fatalf("template order changed: %v", infos)
		}
	}
}

func TestRenderLongContentPaginates(t *testing.T) {
	reg := NewRegistry()
	r := sampleResume()
	for i := 0; i < 40; i++ {
		r.Experience = append(r.Experience, resume.Experience{
			ID:          fmt.Sprintf("gen-%d", i),
			Company:     fmt.Sprintf("Company %d", i),
			Position:    "Engineer",
			StartDate:   "2015-01",
			EndDate:     "2016-01",
			Description: strings.Repeat("Shipped features and kept the pager quiet. ", 4),
		})
	}

	out, err := reg.Render(r, "classic", 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.PageCount < 2 {
		t.Fatalf("expected overflow onto additional pages, got %d page(s)", out.PageCount)
	}
	if got := strings.Count(out.Document, `class="page"`); got != out.PageCount {
		t.Fatalf("page markup count %d != PageCount %d", got, out.PageCount)
	}
}
