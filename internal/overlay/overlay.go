// Package overlay is the interactive capture window: a frozen frame of the
// desktop on which the user selects a region and then annotates it.
package overlay

import (
	"context"
	"fmt"
	"image"
	"log"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/markshot/internal/capture"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/render"
	"github.com/example/markshot/internal/selector"
	"github.com/example/markshot/internal/session"
	"github.com/example/markshot/internal/theme"
	"github.com/example/markshot/internal/tool"
)

// Config describes one overlay run.
type Config struct {
	// Frame is the frozen desktop image and Origin the screen position of
	// its top-left pixel.
	Frame       *image.RGBA
	Origin      image.Point
	Mode        selector.Mode
	Decorations bool
	Windows     selector.WindowLocator
	Pointer     selector.PointerLocator
	Defaults    tool.Defaults
	Theme       *theme.Theme
	Source      string
}

// Result is the flattened capture and the action that ended the overlay.
type Result struct {
	Action   Action
	Final    session.FinalImage
	Metadata session.Metadata
	// Defaults are the tool settings as the user left them.
	Defaults tool.Defaults
}

type selectionEvent struct{ rect geom.Rect }

type sessionEvent struct {
	sess *session.Session
	err  error
}

// Run opens the overlay and blocks until the user finishes or cancels.
// Cancelling returns an error wrapping selector.ErrCancelled. Run must be
// called from the main goroutine.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Frame == nil || cfg.Frame.Bounds().Empty() {
		return Result{}, fmt.Errorf("overlay: empty frame: %w", capture.ErrNoSuchDisplay)
	}
	var (
		res Result
		err error
	)
	driver.Main(func(s screen.Screen) {
		res, err = run(ctx, s, cfg)
	})
	return res, err
}

type loop struct {
	s      screen.Screen
	w      screen.Window
	cfg    Config
	size   image.Point
	live   geom.Rect
	ed     *editor
	canvas *image.RGBA
	sched  *render.Scheduler
}

func run(ctx context.Context, s screen.Screen, cfg Config) (Result, error) {
	b := cfg.Frame.Bounds()
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: b.Dx(), Height: b.Dy(), Title: "markshot"})
	if err != nil {
		return Result{}, fmt.Errorf("overlay window: %w", err)
	}
	defer w.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := &loop{s: s, w: w, cfg: cfg, size: b.Size()}
	l.sched = render.NewScheduler(func(f render.Frame) { w.Send(f) })
	defer l.sched.Close()

	queue := newEventQueue()
	defer queue.close()
	display := geom.FromImageRect(image.Rectangle{Min: cfg.Origin, Max: cfg.Origin.Add(b.Size())})
	opts := []selector.Option{
		selector.WithEvents(queue),
		selector.WithDecorations(cfg.Decorations),
		selector.WithObserver(func(r geom.Rect) { w.Send(selectionEvent{r}) }),
	}
	if cfg.Windows != nil && cfg.Pointer != nil {
		opts = append(opts, selector.WithWindows(cfg.Windows, cfg.Pointer))
	}
	go func() {
		sess, err := session.New(ctx, session.Config{
			Selector: selector.New(display, opts...),
			Mode:     cfg.Mode,
			Provider: capture.Frozen{Image: cfg.Frame, Origin: cfg.Origin},
			Defaults: cfg.Defaults,
			Source:   cfg.Source,
		})
		w.Send(sessionEvent{sess: sess, err: err})
	}()

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				l.close()
				return Result{}, fmt.Errorf("overlay closed: %w", selector.ErrCancelled)
			}
		case size.Event:
			l.size = e.Size()
			w.Send(paint.Event{})
		case paint.Event:
			l.paint()
		case selectionEvent:
			l.live = e.rect
			w.Send(paint.Event{})
		case sessionEvent:
			queue.close()
			if e.err != nil {
				return Result{}, e.err
			}
			l.ed = newEditor(e.sess)
			l.refresh()
		case render.Frame:
			if e.Seq == l.sched.Latest() {
				l.canvas = e.Image
				w.Send(paint.Event{})
			}
		case mouse.Event:
			ev, ok := pointerEvent(e, cfg.Origin)
			if !ok {
				continue
			}
			if l.ed == nil {
				queue.push(ev)
				continue
			}
			if l.ed.pointer(ev) {
				l.refresh()
			}
		case key.Event:
			if l.ed == nil {
				if isCancelKey(e) {
					queue.push(selector.Event{Kind: selector.CancelKey})
				}
				continue
			}
			dirty, action := l.ed.key(e)
			switch action {
			case ActionNone:
				if dirty {
					l.refresh()
				}
			case ActionCancel:
				l.close()
				return Result{}, fmt.Errorf("overlay: %w", selector.ErrCancelled)
			default:
				return l.finish(action), nil
			}
		case error:
			log.Printf("overlay: %v", e)
		}
	}
}

// refresh asks for a new canvas render and repaints the chrome at once.
func (l *loop) refresh() {
	ops, _, _ := l.ed.ops()
	l.sched.Request(l.ed.sess.Canvas().Base, ops)
	l.w.Send(paint.Event{})
}

func (l *loop) scene() scene {
	sc := scene{Frozen: l.cfg.Frame, Origin: l.cfg.Origin, Selection: l.live, Theme: l.cfg.Theme}
	if l.ed == nil {
		sc.Status = fmt.Sprintf("select a %s, Esc cancels", l.cfg.Mode)
		return sc
	}
	m := l.ed.sess.Mapping()
	sc.Selection = l.ed.sess.Selection().Rect
	sc.Canvas = l.canvas
	if sc.Canvas == nil {
		sc.Canvas = l.ed.sess.Canvas().Base
	}
	if _, crop, ok := l.ed.ops(); ok {
		sc.Crop, sc.HasCrop = m.RectToScreen(crop), true
	}
	sc.Status = l.ed.status()
	return sc
}

func (l *loop) paint() {
	if l.size.X <= 0 || l.size.Y <= 0 {
		return
	}
	b, err := l.s.NewBuffer(l.size)
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	l.scene().draw(b.RGBA())
	l.w.Upload(image.Point{}, b, b.Bounds())
	l.w.Publish()
}

func (l *loop) finish(action Action) Result {
	sess := l.ed.sess
	final, md := sess.Finish()
	res := Result{Action: action, Final: final, Metadata: md, Defaults: sess.Defaults()}
	sess.Close()
	return res
}

func (l *loop) close() {
	if l.ed != nil {
		l.ed.sess.Close()
	}
}
