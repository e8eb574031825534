package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"papercv/internal/render"
	"papercv/internal/resume"
	"papercv/internal/styles"
)

// State 表示一次导出尝试所处的阶段。
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateRendering  State = "rendering"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// ErrDataChannelTimeout 表示沙盒在限定时间内始终未读到简历数据。
// 这是一次终态失败，不做自动重试。
var ErrDataChannelTimeout = errors.New("sandbox data channel timed out")

// Payload 是交给渲染沙盒的完整导出负载。
// 三个字段共同描述一页可独立渲染的简历：内容标记、样式快照、结构化数据。
type Payload struct {
	HTML       string        `json:"html"`
	CSS        string        `json:"css"`
	ResumeData resume.Resume `json:"resumeData"`
}

// Artifact 是渲染沙盒的产物。
type Artifact struct {
	PDF         []byte
	PreviewJPEG []byte
}

// Engine 抽象出实际执行渲染的无头浏览器沙盒。
type Engine interface {
	Render(ctx context.Context, shellHTML string) (Artifact, error)
}

// Renderer 抽象模板渲染入口，由 render.Registry 实现。
type Renderer interface {
	Render(r resume.Resume, templateID string, scale float64) (render.Output, error)
}

// StyleSource 抽象样式快照采集，由 styles.Collector 实现。
type StyleSource interface {
	Collect(ctx context.Context, docHTML string, baseURL string) (string, []styles.Warning, error)
}

// Orchestrator 串起导出流水线：渲染标记、采集样式、组装负载、驱动沙盒出 PDF。
// 状态机：idle → collecting → rendering → done|failed。
// 失败后不自动重试，由调用方决定是否重新发起。
type Orchestrator struct {
	renderer Renderer
	styleSrc StyleSource
	engine   Engine
	baseURL  string
	logger   *slog.Logger

	// OnState 在每次状态迁移后被调用，可用于持久化任务进度。可为 nil。
	OnState func(State)

	// 同一个沙盒实例同一时刻只处理一个导出请求。
	mu sync.Mutex

	// state 可能在导出进行中被其他 goroutine 轮询，读写都走 stateMu。
	stateMu sync.Mutex
	state   State
}

// NewOrchestrator 构造导出编排器。baseURL 用于解析文档里的相对样式表地址。
func NewOrchestrator(renderer Renderer, styleSrc StyleSource, engine Engine, baseURL string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		renderer: renderer,
		styleSrc: styleSrc,
		engine:   engine,
		baseURL:  baseURL,
		logger:   logger,
		state:    StateIdle,
	}
}

// State 返回当前状态。
func (o *Orchestrator) State() State {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.stateMu.Lock()
	o.state = s
	o.stateMu.Unlock()
	if o.OnState != nil {
		o.OnState(s)
	}
}

// Export 执行一次完整的导出。导出内容按 scale = 1 渲染，
// 分页决策与预览缩放无关。任一阶段失败都会把状态置为 failed 并返回错误。
func (o *Orchestrator) Export(ctx context.Context, r resume.Resume, templateID string) (Artifact, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	artifact, err := o.run(ctx, r, templateID)
	if err != nil {
		o.setState(StateFailed)
		return Artifact{}, err
	}
	o.setState(StateDone)
	return artifact, nil
}

func (o *Orchestrator) run(ctx context.Context, r resume.Resume, templateID string) (Artifact, error) {
	o.setState(StateCollecting)

	out, err := o.renderer.Render(r, templateID, 1)
	if err != nil {
		return Artifact{}, fmt.Errorf("render resume markup: %w", err)
	}

	css, warnings, err := o.styleSrc.Collect(ctx, out.Document, o.baseURL)
	if err != nil {
		return Artifact{}, fmt.Errorf("collect style snapshot: %w", err)
	}
	for _, w := range warnings {
		o.logger.Warn("style source skipped during export",
			slog.String("href", w.Href),
			slog.String("reason", w.Reason),
		)
	}

	payload := Payload{HTML: out.Body, CSS: css, ResumeData: r}
	shell, err := BuildShellDocument(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("build sandbox shell: %w", err)
	}

	o.setState(StateRendering)

	artifact, err := o.engine.Render(ctx, shell)
	if err != nil {
		return Artifact{}, fmt.Errorf("sandbox render: %w", err)
	}
	if len(artifact.PDF) == 0 {
		return Artifact{}, fmt.Errorf("sandbox render: empty pdf output")
	}
	return artifact, nil
}
