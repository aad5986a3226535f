//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

type x11Backend struct{}

func newBackend() platformBackend {
	return x11Backend{}
}

func runningOnWayland() bool {
	if strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE"))) == "wayland" {
		return true
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// x11Session is an open connection plus the default screen.
type x11Session struct {
	conn   *xgb.Conn
	setup  *xproto.SetupInfo
	screen *xproto.ScreenInfo
}

func openX11() (*x11Session, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X server: %w: %w", ErrNoSuchDisplay, err)
	}
	setup := xproto.Setup(conn)
	if setup == nil {
		conn.Close()
		return nil, fmt.Errorf("xproto setup unavailable")
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		conn.Close()
		return nil, fmt.Errorf("xproto screen unavailable: %w", ErrNoSuchDisplay)
	}
	return &x11Session{conn: conn, setup: setup, screen: screen}, nil
}

func (s *x11Session) Close() { s.conn.Close() }

func (x11Backend) ListDisplays() ([]Display, error) {
	s, err := openX11()
	if err != nil {
		return nil, err
	}
	defer s.Close()
	displays, err := fetchDisplays(s.conn, s.screen.Root)
	if err != nil {
		return nil, err
	}
	if len(displays) == 0 {
		return nil, errNoDisplays
	}
	return displays, nil
}

func (x11Backend) ListWindows() ([]WindowInfo, error) {
	s, err := openX11()
	if err != nil {
		return nil, err
	}
	defer s.Close()
	displays, _ := fetchDisplays(s.conn, s.screen.Root)
	activeID, _ := fetchActiveWindow(s.conn, s.screen.Root)
	return fetchWindows(s.conn, s.screen.Root, displays, activeID)
}

func (x11Backend) Pointer() (image.Point, error) {
	s, err := openX11()
	if err != nil {
		return image.Point{}, err
	}
	defer s.Close()
	reply, err := xproto.QueryPointer(s.conn, s.screen.Root).Reply()
	if err != nil {
		return image.Point{}, fmt.Errorf("query pointer: %w", err)
	}
	return image.Pt(int(reply.RootX), int(reply.RootY)), nil
}

func (x11Backend) Grab(rect image.Rectangle) (*image.RGBA, error) {
	s, err := openX11()
	if err != nil {
		return nil, err
	}
	defer s.Close()
	root := image.Rect(0, 0, int(s.screen.WidthInPixels), int(s.screen.HeightInPixels))
	if !rect.In(root) {
		return nil, fmt.Errorf("region %v outside root window %v: %w", rect, root, ErrNoSuchDisplay)
	}
	reply, err := xproto.GetImage(s.conn, xproto.ImageFormatZPixmap, xproto.Drawable(s.screen.Root),
		int16(rect.Min.X), int16(rect.Min.Y), uint16(rect.Dx()), uint16(rect.Dy()), ^uint32(0)).Reply()
	if err != nil {
		var denied xproto.AccessError
		if errors.As(err, &denied) {
			return nil, fmt.Errorf("root pixels: %w: %w", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("root pixels: %w", err)
	}
	return xImageToRGBA(s.setup, reply, rect.Dx(), rect.Dy())
}

func fetchDisplays(conn *xgb.Conn, root xproto.Window) ([]Display, error) {
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("init randr: %w", err)
	}
	res, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("randr screen resources: %w", err)
	}
	primaryOutput := randr.Output(0)
	if primary, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primaryOutput = primary.Output
	}
	displays := make([]Display, 0, len(res.Outputs))
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(conn, output, res.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		displays = append(displays, Display{
			Index:   len(displays),
			Name:    strings.TrimSpace(string(info.Name)),
			Bounds:  image.Rect(int(crtc.X), int(crtc.Y), int(crtc.X)+int(crtc.Width), int(crtc.Y)+int(crtc.Height)),
			Primary: output == primaryOutput,
		})
	}
	return displays, nil
}

func fetchActiveWindow(conn *xgb.Conn, root xproto.Window) (uint32, error) {
	reply, err := getProperty(conn, root, "_NET_ACTIVE_WINDOW", xproto.AtomWindow, 1)
	if err != nil {
		return 0, err
	}
	if reply.Format != 32 || reply.ValueLen == 0 {
		return 0, fmt.Errorf("active window unavailable")
	}
	return xgb.Get32(reply.Value), nil
}

func fetchWindows(conn *xgb.Conn, root xproto.Window, displays []Display, activeID uint32) ([]WindowInfo, error) {
	reply, err := getProperty(conn, root, "_NET_CLIENT_LIST_STACKING", xproto.AtomWindow, 1<<16)
	if err != nil || reply.Format != 32 || reply.ValueLen == 0 {
		reply, err = getProperty(conn, root, "_NET_CLIENT_LIST", xproto.AtomWindow, 1<<16)
		if err != nil {
			return nil, err
		}
	}
	// the stacking list is bottom to top
	windows := make([]WindowInfo, 0, reply.ValueLen)
	for idx := int(reply.ValueLen) - 1; idx >= 0; idx-- {
		win := xproto.Window(xgb.Get32(reply.Value[idx*4:]))
		info, err := describeWindow(conn, root, win)
		if err != nil {
			continue
		}
		info.Index = len(windows)
		info.Active = info.ID == activeID
		info.Display = -1
		if d, ok := DisplayAt(displays, centre(info.Rect)); ok {
			info.Display = d.Index
		}
		windows = append(windows, info)
	}
	return windows, nil
}

func centre(r image.Rectangle) image.Point {
	return image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
}

func describeWindow(conn *xgb.Conn, root, win xproto.Window) (WindowInfo, error) {
	rect, err := windowRect(conn, root, win)
	if err != nil {
		return WindowInfo{}, err
	}
	title := readStringProperty(conn, win, "_NET_WM_NAME", "UTF8_STRING")
	if title == "" {
		title = readStringProperty(conn, win, "WM_NAME", "STRING")
	}
	pid := readPID(conn, win)
	return WindowInfo{
		ID:         uint32(win),
		Title:      title,
		Class:      readClass(conn, win),
		PID:        pid,
		Executable: readExecutable(pid),
		Rect:       rect,
		Frame:      frameRect(conn, win, rect),
	}, nil
}

func windowRect(conn *xgb.Conn, root, win xproto.Window) (image.Rectangle, error) {
	geo, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	// translate the window's own origin, not its parent-relative position
	trans, err := xproto.TranslateCoordinates(conn, win, root, 0, 0).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	x, y := int(trans.DstX), int(trans.DstY)
	return image.Rect(x, y, x+int(geo.Width), y+int(geo.Height)), nil
}

// frameRect grows rect by _NET_FRAME_EXTENTS (left, right, top, bottom).
func frameRect(conn *xgb.Conn, win xproto.Window, rect image.Rectangle) image.Rectangle {
	reply, err := getProperty(conn, win, "_NET_FRAME_EXTENTS", xproto.AtomCardinal, 4)
	if err != nil || reply.Format != 32 || reply.ValueLen < 4 {
		return rect
	}
	left := int(xgb.Get32(reply.Value[0:]))
	right := int(xgb.Get32(reply.Value[4:]))
	top := int(xgb.Get32(reply.Value[8:]))
	bottom := int(xgb.Get32(reply.Value[12:]))
	return image.Rect(rect.Min.X-left, rect.Min.Y-top, rect.Max.X+right, rect.Max.Y+bottom)
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

func getProperty(conn *xgb.Conn, win xproto.Window, name string, typ xproto.Atom, length uint32) (*xproto.GetPropertyReply, error) {
	atom, err := internAtom(conn, name)
	if err != nil {
		return nil, err
	}
	return xproto.GetProperty(conn, false, win, atom, typ, 0, length).Reply()
}

func readStringProperty(conn *xgb.Conn, win xproto.Window, name, typeName string) string {
	typ, err := internAtom(conn, typeName)
	if err != nil {
		return ""
	}
	reply, err := getProperty(conn, win, name, typ, 1<<16)
	if err != nil || reply.ValueLen == 0 {
		return ""
	}
	return strings.TrimRight(string(reply.Value), "\x00")
}

// readClass returns the class half of WM_CLASS (instance\0class\0).
func readClass(conn *xgb.Conn, win xproto.Window) string {
	reply, err := getProperty(conn, win, "WM_CLASS", xproto.AtomString, 64)
	if err != nil || reply.ValueLen == 0 {
		return ""
	}
	var vals []string
	for _, p := range bytes.Split(reply.Value, []byte{0}) {
		if len(p) > 0 {
			vals = append(vals, string(p))
		}
	}
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}

func readPID(conn *xgb.Conn, win xproto.Window) uint32 {
	reply, err := getProperty(conn, win, "_NET_WM_PID", xproto.AtomCardinal, 1)
	if err != nil || reply.Format != 32 || reply.ValueLen == 0 {
		return 0
	}
	return xgb.Get32(reply.Value)
}

func readExecutable(pid uint32) string {
	if pid == 0 {
		return ""
	}
	if data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid)); err == nil {
		return strings.TrimSpace(string(data))
	}
	if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid)); err == nil {
		return filepath.Base(exe)
	}
	return ""
}

// xImageToRGBA converts a ZPixmap reply in BGRx byte order.
func xImageToRGBA(setup *xproto.SetupInfo, reply *xproto.GetImageReply, width, height int) (*image.RGBA, error) {
	if reply == nil || len(reply.Data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	bitsPerPixel := 0
	for _, format := range setup.PixmapFormats {
		if format.Depth == reply.Depth {
			bitsPerPixel = int(format.BitsPerPixel)
			break
		}
	}
	bytesPerPixel := bitsPerPixel / 8
	if bytesPerPixel < 3 {
		return nil, fmt.Errorf("unsupported pixel format: depth %d, %d bpp", reply.Depth, bitsPerPixel)
	}
	stride := len(reply.Data) / height
	if stride*height != len(reply.Data) || stride < width*bytesPerPixel {
		return nil, fmt.Errorf("unexpected image stride")
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := reply.Data[y*stride : (y+1)*stride]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			px := row[x*bytesPerPixel:]
			dst[x*4+0] = px[2]
			dst[x*4+1] = px[1]
			dst[x*4+2] = px[0]
			// depth 24 carries no alpha; depth 32 roots are opaque too
			dst[x*4+3] = 0xff
		}
	}
	return img, nil
}
