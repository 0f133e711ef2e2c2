package utils

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

var (
	XConn *xgb.Conn

	xScreen *xproto.ScreenInfo
)

func InitX11() error {
	var err error
	XConn, err = xgb.NewConn()
	if err != nil {
		return err
	}

	setup := xproto.Setup(XConn)
	xScreen = setup.DefaultScreen(XConn)
	return nil
}

// ScreenSize reports the default X11 screen size in pixels.
func ScreenSize() (int, int, error) {
	if XConn == nil {
		if err := InitX11(); err != nil {
			return 0, 0, fmt.Errorf("x11: %w", err)
		}
	}

	return int(xScreen.WidthInPixels), int(xScreen.HeightInPixels), nil
}

func CloseX11() {
	if XConn != nil {
		XConn.Close()
		XConn = nil
	}
}
