package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"papercv/internal/render"
	"papercv/internal/resume"
	"papercv/internal/styles"
)

type fakeStyleSource struct {
	css      string
	warnings []styles.Warning
	err      error
}

func (f *fakeStyleSource) Collect(ctx context.Context, docHTML string, baseURL string) (string, []styles.Warning, error) {
	return f.css, f.warnings, f.err
}

type fakeEngine struct {
	artifact  Artifact
	err       error
	lastShell string
	calls     int
}

func (f *fakeEngine) Render(ctx context.Context, shellHTML string) (Artifact, error) {
	f.calls++
	f.lastShell = shellHTML
	if f.err != nil {
		return Artifact{}, f.err
	}
	return f.artifact, nil
}

func testResume() resume.Resume {
	return resume.Sanitize([]byte(`{
		"personalInfo": {"fullName": "Jane Doe", "jobTitle": "Engineer"},
		"experience": [{"id": "e1", "company": "ACME", "position": "Engineer"}]
	}`))
}

func TestExportHappyPath(t *testing.T) {
	engine := &fakeEngine{artifact: Artifact{PDF: []byte("%PDF-1.7 fake"), PreviewJPEG: []byte{0xff, 0xd8}}}
	o := NewOrchestrator(render.NewRegistry(), &fakeStyleSource{css: ".page { margin: 0; }"}, engine, "http://localhost", nil)

	var transitions []State
	o.OnState = func(s State) { transitions = append(transitions, s) }

	artifact, err := o.Export(context.Background(), testResume(), "classic")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(artifact.PDF) == 0 || len(artifact.PreviewJPEG) == 0 {
		t.Fatal("artifact missing pdf or preview bytes")
	}

	want := []State{StateCollecting, StateRendering, StateDone}
	if len(transitions) != len(want) {
		t.Fatalf("state transitions %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("state transitions %v, want %v", transitions, want)
		}
	}
	if o.State() != StateDone {
		t.Fatalf("final state %s, want done", o.State())
	}

	if !strings.Contains(engine.lastShell, ".page { margin: 0; }") {
		t.Fatal("style snapshot missing from sandbox shell")
	}
	if !strings.Contains(engine.lastShell, "ACME") {
		t.Fatal("resume markup missing from sandbox shell")
	}
}

func TestExportEngineFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("engine unreachable")}
	o := NewOrchestrator(render.NewRegistry(), &fakeStyleSource{}, engine, "http://localhost", nil)

	_, err := o.Export(context.Background(), testResume(), "classic")
	if err == nil {
		t.Fatal("expected error from failing engine")
	}
	if o.State() != StateFailed {
		t.Fatalf("final state %s, want failed", o.State())
	}
}

func TestExportDataChannelTimeoutIsDetectable(t *testing.T) {
	engine := &fakeEngine{err: ErrDataChannelTimeout}
	o := NewOrchestrator(render.NewRegistry(), &fakeStyleSource{}, engine, "http://localhost", nil)

	_, err := o.Export(context.Background(), testResume(), "classic")
	if !errors.Is(err, ErrDataChannelTimeout) {
		t.Fatalf("timeout sentinel lost in wrapping: %v", err)
	}
	if o.State() != StateFailed {
		t.Fatalf("final state %s, want failed", o.State())
	}
}

func TestExportStyleCollectionFailureSkipsEngine(t *testing.T) {
	engine := &fakeEngine{artifact: Artifact{PDF: []byte("x")}}
	src := &fakeStyleSource{err: errors.New("document unparsable")}
	o := NewOrchestrator(render.NewRegistry(), src, engine, "http://localhost", nil)

	_, err := o.Export(context.Background(), testResume(), "classic")
	if err == nil {
		t.Fatal("expected error from failing style source")
	}
	if engine.calls != 0 {
		t.Fatal("engine must not run when collection fails")
	}
	if o.State() != StateFailed {
		t.Fatalf("final state %s, want failed", o.State())
	}
}

type blockingEngine struct {
	started chan struct{}
	release chan struct{}
}

func (e *blockingEngine) Render(ctx context.Context, shellHTML string) (Artifact, error) {
	close(e.started)
	<-e.release
	return Artifact{PDF: []byte("%PDF-1.7 fake")}, nil
}

func TestStateReadableDuringExport(t *testing.T) {
	engine := &blockingEngine{started: make(chan struct{}), release: make(chan struct{})}
	o := NewOrchestrator(render.NewRegistry(), &fakeStyleSource{}, engine, "http://localhost", nil)

	done := make(chan error, 1)
	go func() {
		_, err := o.Export(context.Background(), testResume(), "classic")
		done <- err
	}()

	<-engine.started
	if got := o.State(); got != StateRendering {
		t.Fatalf("state during engine render = %s, want rendering", got)
	}

	close(engine.release)
	if err := <-done; err != nil {
		t.Fatalf("export: %v", err)
	}
	if o.State() != StateDone {
		t.Fatalf("final state %s, want done", o.State())
	}
}

func TestExportRejectsEmptyPDF(t *testing.T) {
	engine := &fakeEngine{artifact: Artifact{}}
	o := NewOrchestrator(render.NewRegistry(), &fakeStyleSource{}, engine, "http://localhost", nil)

	_, err := o.Export(context.Background(), testResume(), "classic")
	if err == nil {
		t.Fatal("expected error for empty pdf output")
	}
	if o.State() != StateFailed {
		t.Fatalf("final state %s, want failed", o.State())
	}
}
