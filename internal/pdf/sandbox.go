package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"papercv/internal/export"
)

const (
	renderSignalTimeout = 30 * time.Second
	browserTimeout      = 90 * time.Second
)

// Sandbox 用无头浏览器加载导出壳页面并产出 PDF 与预览图。
// 每次 Render 启动一个全新的浏览器实例，渲染之间不共享任何页面状态。
type Sandbox struct {
	logger         *slog.Logger
	previewQuality int
}

var _ export.Engine = (*Sandbox)(nil)

// NewSandbox 构造渲染沙盒。previewQuality 是预览 JPEG 质量（1-100）。
func NewSandbox(logger *slog.Logger, previewQuality int) *Sandbox {
	if logger == nil {
		logger = slog.Default()
	}
	if previewQuality <= 0 || previewQuality > 100 {
		previewQuality = 80
	}
	return &Sandbox{logger: logger, previewQuality: previewQuality}
}

// Render 加载壳文档，等待页面内脚本给出就绪或失败信号，然后出 PDF。
// 页面脚本未能读到数据时返回 export.ErrDataChannelTimeout。
func (s *Sandbox) Render(ctx context.Context, shellHTML string) (export.Artifact, error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer launch.Cleanup()

	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return export.Artifact{}, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx).Timeout(browserTimeout)
	if err := browser.Connect(); err != nil {
		return export.Artifact{}, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return export.Artifact{}, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.SetDocumentContent(shellHTML); err != nil {
		return export.Artifact{}, fmt.Errorf("set document content: %w", err)
	}

	if err := s.awaitRenderSignal(page); err != nil {
		return export.Artifact{}, err
	}

	// 额外等待字体就绪，避免回退字体度量导致排版差异
	if _, evalErr := page.Timeout(5 * time.Second).Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		s.logger.Warn("document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	preview, err := s.capturePreview(page)
	if err != nil {
		s.logger.Warn("capture preview failed, continue without preview", slog.Any("error", err))
		preview = nil
	}

	if err := (proto.EmulationSetEmulatedMedia{Media: "print"}).Call(page); err != nil {
		return export.Artifact{}, fmt.Errorf("set emulated media to print: %w", err)
	}

	pdfBytes, err := exportPDF(page)
	if err != nil {
		return export.Artifact{}, err
	}

	return export.Artifact{PDF: pdfBytes, PreviewJPEG: preview}, nil
}

// awaitRenderSignal 等待壳页面脚本发出的两种信号之一。
func (s *Sandbox) awaitRenderSignal(page *rod.Page) error {
	var failReason string
	var sawFailure bool

	_, err := page.Timeout(renderSignalTimeout).Race().
		Element("#" + export.ReadyMarkerID).
		Element("#" + export.FailedMarkerID).Handle(func(el *rod.Element) error {
		sawFailure = true
		if reason, attrErr := el.Attribute("data-reason"); attrErr == nil && reason != nil {
			failReason = *reason
		}
		return nil
	}).
		Do()
	if err != nil {
		return fmt.Errorf("wait render signal: %w", err)
	}

	if sawFailure {
		if failReason == "no data" {
			return fmt.Errorf("sandbox reported failure: %w", export.ErrDataChannelTimeout)
		}
		return fmt.Errorf("sandbox reported failure: %s", failReason)
	}
	return nil
}

func (s *Sandbox) capturePreview(page *rod.Page) ([]byte, error) {
	element, err := page.Timeout(5 * time.Second).Element("#resume-root")
	if err == nil {
		if data, shotErr := element.Screenshot(proto.PageCaptureScreenshotFormatJpeg, s.previewQuality); shotErr == nil {
			return data, nil
		}
	}

	req := &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: intPtr(s.previewQuality),
	}
	data, err := page.Screenshot(true, req)
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}

func exportPDF(page *rod.Page) ([]byte, error) {
	params := &proto.PagePrintToPDF{
		PrintBackground:   true,
		PaperWidth:        float64Ptr(8.27),
		PaperHeight:       float64Ptr(11.69),
		MarginTop:         float64Ptr(0),
		MarginBottom:      float64Ptr(0),
		MarginLeft:        float64Ptr(0),
		MarginRight:       float64Ptr(0),
		PreferCSSPageSize: true,
	}
	reader, err := page.PDF(params)
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}

func float64Ptr(value float64) *float64 {
	return &value
}

func intPtr(value int) *int {
	return &value
}
