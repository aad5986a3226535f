//go:build !(linux || freebsd || openbsd || netbsd || dragonfly) || cgo

package clipboard

import (
	"runtime"

	"golang.design/x/clipboard"
)

func ensureInit() error {
	initOnce.Do(func() {
		if runtime.GOOS != "windows" && runtime.GOOS != "darwin" && !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

func writePNG(data []byte) (<-chan struct{}, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	return clipboard.Write(clipboard.FmtImage, data), nil
}

func writeText(text string) (<-chan struct{}, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	return clipboard.Write(clipboard.FmtText, []byte(text)), nil
}
