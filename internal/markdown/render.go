package markdown

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// eventRenderer collects the node renderers goldmark and its extensions
// register, so event streams can be written with the exact markup goldmark
// itself would produce.
type eventRenderer struct {
	config *renderer.Config
	funcs  map[ast.NodeKind]renderer.NodeRendererFunc
	once   sync.Once
}

var _ renderer.Renderer = (*eventRenderer)(nil)

func newEventRenderer() *eventRenderer {
	r := &eventRenderer{
		config: renderer.NewConfig(),
		funcs:  make(map[ast.NodeKind]renderer.NodeRendererFunc),
	}
	r.AddOptions(renderer.WithNodeRenderers(util.Prioritized(html.NewRenderer(), 1000)))
	return r
}

func (r *eventRenderer) AddOptions(opts ...renderer.Option) {
	for _, opt := range opts {
		opt.SetConfig(r.config)
	}
}

// Register implements renderer.NodeRendererFuncRegisterer.
func (r *eventRenderer) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	r.funcs[kind] = fn
}

func (r *eventRenderer) init() {
	r.once.Do(func() {
		r.config.NodeRenderers.Sort()
		// Lower priority values win, so they register last.
		for i := len(r.config.NodeRenderers) - 1; i >= 0; i-- {
			v := r.config.NodeRenderers[i]
			nr, ok := v.Value.(renderer.NodeRenderer)
			if !ok {
				continue
			}
			if so, ok := v.Value.(renderer.SetOptioner); ok {
				for name, value := range r.config.Options {
					so.SetOption(name, value)
				}
			}
			nr.RegisterFuncs(r)
		}
	})
}

// Render writes n the way goldmark's default renderer does.
func (r *eventRenderer) Render(w io.Writer, source []byte, n ast.Node) error {
	r.init()
	bw := bufio.NewWriter(w)
	err := ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		return r.call(bw, source, n, entering)
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// RenderEvents replays events through the registered node renderers.
func (r *eventRenderer) RenderEvents(w io.Writer, source []byte, events iter.Seq[Event]) error {
	r.init()
	bw := bufio.NewWriter(w)

	var skip ast.Node
	for e := range events {
		if skip != nil {
			if e.Kind != EventEnd || e.Node != skip {
				continue
			}
			skip = nil
		}

		status, err := r.renderEvent(bw, source, e)
		if err != nil {
			return fmt.Errorf("%w: %s %v", ErrRender, e.Kind, err)
		}
		switch status {
		case ast.WalkSkipChildren:
			skip = e.Node
		case ast.WalkStop:
			return bw.Flush()
		}
	}
	return bw.Flush()
}

func (r *eventRenderer) renderEvent(w util.BufWriter, source []byte, e Event) (ast.WalkStatus, error) {
	switch e.Kind {
	case EventStart:
		return r.call(w, source, e.Node, true)
	case EventEnd:
		return r.call(w, source, e.Node, false)
	case EventSoftBreak, EventHardBreak:
		return r.call(w, source, lineBreak(e.Kind), true)
	case EventText, EventCode, EventHTML, EventFootnoteReference:
		if e.Node == nil {
			if e.Kind == EventHTML {
				_, err := w.WriteString(e.Text)
				return ast.WalkContinue, err
			}
			// Rendered by the owning container.
			return ast.WalkContinue, nil
		}
		if t, ok := e.Node.(*ast.Text); ok {
			// the break event that follows writes the break
			defer withoutBreaks(t)()
		}
		if _, err := r.call(w, source, e.Node, true); err != nil {
			return ast.WalkStop, err
		}
		if _, err := r.call(w, source, e.Node, false); err != nil {
			return ast.WalkStop, err
		}
	}
	return ast.WalkContinue, nil
}

// lineBreak is an empty text node carrying only a break, so the html
// renderer options for breaks (hard wraps, XHTML) still apply.
func lineBreak(kind EventKind) *ast.Text {
	t := ast.NewText()
	if kind == EventHardBreak {
		t.SetHardLineBreak(true)
	} else {
		t.SetSoftLineBreak(true)
	}
	return t
}

// withoutBreaks clears the break flags of t and returns a func restoring them.
func withoutBreaks(t *ast.Text) func() {
	soft, hard := t.SoftLineBreak(), t.HardLineBreak()
	t.SetSoftLineBreak(false)
	t.SetHardLineBreak(false)
	return func() {
		t.SetSoftLineBreak(soft)
		t.SetHardLineBreak(hard)
	}
}

func (r *eventRenderer) call(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if fn := r.funcs[n.Kind()]; fn != nil {
		return fn(w, source, n, entering)
	}
	return ast.WalkContinue, nil
}
