package resume

import "time"

// Resume 是简历文档的规范结构，前端编辑器与导出管线共用同一份 JSON 形状。
type Resume struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         []Skill         `json:"skills"`
	Languages      []Language      `json:"languages"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Awards         []Award         `json:"awards"`
	CustomSections []CustomSection `json:"customSections"`
	Sections       []SectionRef    `json:"sections"`
	Settings       Settings        `json:"settings"`
}

// PersonalInfo 描述个人信息区块。PhotoKey 指向对象存储中的头像资源。
type PersonalInfo struct {
	FullName string `json:"fullName"`
	JobTitle string `json:"jobTitle"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website"`
	Summary  string `json:"summary"`
	PhotoKey string `json:"photoKey,omitempty"`
}

// Experience 表示一段工作经历。
type Experience struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// Education 表示一段教育经历。
type Education struct {
	ID          string `json:"id"`
	School      string `json:"school"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// Skill 表示一项技能，Level 取值 0-5，0 表示不展示等级。
type Skill struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Language 表示语言能力。
type Language struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

// Project 表示项目经历。
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Certification 表示证书。
type Certification struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// Award 表示获奖记录。
type Award struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Issuer      string `json:"issuer"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// CustomSection 是用户自定义区块，Items 仅归属于其父区块，删除时级联删除。
type CustomSection struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Items []CustomItem `json:"items"`
}

// CustomItem 是自定义区块内的条目。
type CustomItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// SectionType 标识一个逻辑区块。
type SectionType string

const (
	SectionPersonalInfo   SectionType = "personalInfo"
	SectionExperience     SectionType = "experience"
	SectionEducation      SectionType = "education"
	SectionSkills         SectionType = "skills"
	SectionLanguages      SectionType = "languages"
	SectionProjects       SectionType = "projects"
	SectionCertifications SectionType = "certifications"
	SectionAwards         SectionType = "awards"
	// SectionCustom 的引用必须携带 CustomSectionID。
	SectionCustom SectionType = "custom"
)

// Column 标识区块被分配到的视觉列。单列模板按 Order 合并两列。
type Column string

const (
	ColumnLeft  Column = "left"
	ColumnRight Column = "right"
)

// SectionRef 描述一个区块在版面中的槽位：列、可见性与渲染顺序。
// Order 在同一份简历内构成严格全序，任何重排都会触发重新编号。
type SectionRef struct {
	Type            SectionType `json:"type"`
	CustomSectionID string      `json:"customSectionId,omitempty"`
	Column          Column      `json:"column"`
	Visible         bool        `json:"visible"`
	Order           int         `json:"order"`
}

// Settings 描述全局视觉设置。
type Settings struct {
	Template   string  `json:"template"`
	FontFamily string  `json:"fontFamily"`
	FontSizePt int     `json:"fontSizePt"`
	LineHeight float64 `json:"lineHeight"`
	Colors     Colors  `json:"colors"`
	SpacingPx  int     `json:"spacingPx"`
	MarginPx   int     `json:"marginPx"`
}

// Colors 是完整的四角色配色。渲染器不接受缺角色的配色，补全由 Sanitize 保证。
type Colors struct {
	Primary    string `json:"primary"`
	Text       string `json:"text"`
	Background string `json:"background"`
	Accent     string `json:"accent"`
}
