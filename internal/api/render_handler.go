package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"papercv/internal/render"
	"papercv/internal/resume"
)

// RenderHandler 提供服务端预览渲染与模板清单。
type RenderHandler struct {
	registry *render.Registry
}

// NewRenderHandler 构造 RenderHandler。
func NewRenderHandler(registry *render.Registry) *RenderHandler {
	return &RenderHandler{registry: registry}
}

type renderRequest struct {
	Content    datatypes.JSON `json:"content" binding:"required"`
	TemplateID string         `json:"templateId"`
	Scale      float64        `json:"scale"`
}

type renderResponse struct {
	TemplateID string `json:"templateId"`
	Document   string `json:"document"`
	Body       string `json:"body"`
	PageCount  int    `json:"pageCount"`
}

// Render 把简历快照渲染为分页 HTML。输入先过规范化，任何形状的 JSON 都能渲染。
func (h *RenderHandler) Render(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	sanitized := resume.Sanitize(req.Content)
	templateID := req.TemplateID
	if templateID == "" {
		templateID = sanitized.Settings.Template
	}

	out, err := h.registry.Render(sanitized, templateID, req.Scale)
	if err != nil {
		Internal(c, "failed to render resume")
		return
	}

	c.JSON(http.StatusOK, renderResponse{
		TemplateID: out.TemplateID,
		Document:   out.Document,
		Body:       out.Body,
		PageCount:  out.PageCount,
	})
}

// ListTemplates 返回封闭的模板集合。
func (h *RenderHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": h.registry.List()})
}
