package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"papercv/internal/ats"
	"papercv/internal/resume"
)

// ATSHandler 提供简历的 ATS 兼容性评分。
type ATSHandler struct{}

// NewATSHandler 构造 ATSHandler。
func NewATSHandler() *ATSHandler {
	return &ATSHandler{}
}

type atsScoreRequest struct {
	Content        datatypes.JSON `json:"content" binding:"required"`
	JobDescription string         `json:"jobDescription"`
	Keywords       []string       `json:"keywords"`
}

// Score 对提交的简历快照评分并返回改进建议。
// 未显式给出 keywords 时，从职位描述里自动提取。
func (h *ATSHandler) Score(c *gin.Context) {
	var req atsScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	keywords := req.Keywords
	if len(keywords) == 0 {
		keywords = ats.ExtractKeywords(req.JobDescription)
	}

	sanitized := resume.Sanitize(req.Content)
	report := ats.Score(sanitized, keywords)

	c.JSON(http.StatusOK, report)
}
