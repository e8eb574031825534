package resume

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTemplate 是未知/缺省模板标识的回退值。
const DefaultTemplate = "classic"

// DefaultColors 返回完整的默认配色。
func DefaultColors() Colors {
	return Colors{
		Primary:    "#2563eb",
		Text:       "#1f2937",
		Background: "#ffffff",
		Accent:     "#3b82f6",
	}
}

// DefaultSettings 返回默认的视觉设置。
func DefaultSettings() Settings {
	return Settings{
		Template:   DefaultTemplate,
		FontFamily: "Arial",
		FontSizePt: 10,
		LineHeight: 1.4,
		Colors:     DefaultColors(),
		SpacingPx:  12,
		MarginPx:   36,
	}
}

// KnownSectionTypes 按默认展示顺序列出全部内建区块类型。
func KnownSectionTypes() []SectionType {
	return []SectionType{
		SectionPersonalInfo,
		SectionExperience,
		SectionEducation,
		SectionSkills,
		SectionLanguages,
		SectionProjects,
		SectionCertifications,
		SectionAwards,
	}
}

// defaultColumnFor 给出内建区块的默认列分配，与前端编辑器的初始布局一致。
func defaultColumnFor(t SectionType) Column {
	switch t {
	case SectionSkills, SectionLanguages, SectionCertifications, SectionAwards:
		return ColumnRight
	default:
		return ColumnLeft
	}
}

// NewID 分配一个列表条目标识。标识在会话内只增不复用，删除后也不会回收。
func NewID() string {
	return uuid.NewString()
}

// New 创建一份带默认值的空简历。
func New() Resume {
	now := time.Now().UTC()
	r := Resume{
		ID:             NewID(),
		Title:          "Untitled resume",
		CreatedAt:      now,
		UpdatedAt:      now,
		Experience:     []Experience{},
		Education:      []Education{},
		Skills:         []Skill{},
		Languages:      []Language{},
		Projects:       []Project{},
		Certifications: []Certification{},
		Awards:         []Award{},
		CustomSections: []CustomSection{},
		Sections:       defaultSections(),
		Settings:       DefaultSettings(),
	}
	return r
}

func defaultSections() []SectionRef {
	types := KnownSectionTypes()
	refs := make([]SectionRef, 0, len(types))
	for i, t := range types {
		refs = append(refs, SectionRef{
			Type:    t,
			Column:  defaultColumnFor(t),
			Visible: true,
			Order:   i,
		})
	}
	return refs
}
