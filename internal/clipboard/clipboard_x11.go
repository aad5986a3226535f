//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Without cgo the clipboard is owned directly over the X protocol.
var owner *x11Owner

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		o := &x11Owner{}
		if err := o.initialize(); err != nil {
			initErr = fmt.Errorf("x11 clipboard: %w", err)
			return
		}
		owner = o
	})
	return initErr
}

func writePNG(data []byte) (<-chan struct{}, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	return owner.publish(owner.atoms.png, data)
}

func writeText(text string) (<-chan struct{}, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	return owner.publish(owner.atoms.utf8, []byte(text))
}

type x11Owner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atomSet

	mu      sync.Mutex
	target  xproto.Atom
	data    []byte
	cleared chan struct{}
}

type atomSet struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
}

func (o *x11Owner) initialize() error {
	conn, err := xgb.NewConn()
	if err != nil {
		return err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return err
	}
	const eventMask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, []uint32{eventMask}).Check(); err != nil {
		conn.Close()
		return err
	}
	atoms, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return err
	}
	o.conn, o.window, o.atoms = conn, window, atoms
	go o.eventLoop()
	return nil
}

func internAtoms(conn *xgb.Conn) (atomSet, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png"}
	atoms := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return atomSet{}, fmt.Errorf("intern %s: %w", name, err)
		}
		atoms[i] = reply.Atom
	}
	return atomSet{clipboard: atoms[0], targets: atoms[1], utf8: atoms[2], textPlain: atoms[3], png: atoms[4]}, nil
}

func (o *x11Owner) publish(target xproto.Atom, data []byte) (<-chan struct{}, error) {
	o.mu.Lock()
	if o.cleared != nil {
		close(o.cleared)
	}
	o.target = target
	o.data = append([]byte(nil), data...)
	o.cleared = make(chan struct{})
	cleared := o.cleared
	o.mu.Unlock()
	if err := xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms.clipboard, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, fmt.Errorf("take clipboard ownership: %w", err)
	}
	return cleared, nil
}

func (o *x11Owner) eventLoop() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.handleSelectionRequest(e)
		case xproto.SelectionClearEvent:
			o.handleSelectionClear()
		}
	}
}

func (o *x11Owner) offers(target xproto.Atom) []xproto.Atom {
	switch target {
	case o.atoms.png:
		return []xproto.Atom{o.atoms.png}
	case o.atoms.utf8:
		return []xproto.Atom{o.atoms.utf8, xproto.AtomString, o.atoms.textPlain}
	}
	return nil
}

func (o *x11Owner) handleSelectionRequest(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	o.mu.Lock()
	target, data := o.target, o.data
	o.mu.Unlock()
	offered := o.offers(target)

	var (
		typ     xproto.Atom
		format  byte
		length  uint32
		payload []byte
	)
	switch {
	case e.Target == o.atoms.targets:
		targets := append([]xproto.Atom{o.atoms.targets}, offered...)
		payload = atomsToBytes(targets)
		typ, format, length = xproto.AtomAtom, 32, uint32(len(targets))
	case len(data) > 0 && containsAtom(offered, e.Target):
		payload = data
		typ, format, length = target, 8, uint32(len(data))
	default:
		property = xproto.AtomNone
	}
	if property != xproto.AtomNone {
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property, typ, format, length, payload)
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

func (o *x11Owner) handleSelectionClear() {
	o.mu.Lock()
	o.data = nil
	if o.cleared != nil {
		close(o.cleared)
		o.cleared = nil
	}
	o.mu.Unlock()
}

func containsAtom(atoms []xproto.Atom, a xproto.Atom) bool {
	for _, v := range atoms {
		if v == a {
			return true
		}
	}
	return false
}

func atomsToBytes(atoms []xproto.Atom) []byte {
	buf := make([]byte, len(atoms)*4)
	for i, atom := range atoms {
		xgb.Put32(buf[i*4:], uint32(atom))
	}
	return buf
}
