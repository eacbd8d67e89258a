// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The waylanddemo command drives the Wayland window driver against a live
// compositor using the in-memory window manager from winusertest.
//
// It creates one captioned top-level window, paints a moving gradient
// into it through a shared-memory presentation target, and runs the
// window message loop so compositor configures, interactive resizes and
// close requests are honored. With child: true in the configuration it
// additionally maps an accelerated child strip anchored to the window.
//
// Configuration is read from ~/.config/affinity/demo.yaml (see the
// democonfig package) or from the file named by -config.
package main

import (
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Packset/affinity-wine/internal/democonfig"
	"github.com/Packset/affinity-wine/waylanddriver"
	"github.com/Packset/affinity-wine/winuser"
	"github.com/Packset/affinity-wine/winuser/winusertest"
)

var configFlag = flag.String("config", "", "configuration file (default ~/.config/affinity/demo.yaml)")

func main() {
	flag.Parse()
	if err := run(*configFlag); err != nil {
		fmt.Fprintln(os.Stderr, "waylanddemo:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := democonfig.Load(configPath)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	conn, err := waylanddriver.Connect(logger)
	if err != nil {
		return err
	}

	wm := winusertest.New()
	drv, err := waylanddriver.New(wm, conn, &waylanddriver.Options{Logger: logger})
	if err != nil {
		return err
	}

	// Presentation targets are chosen per window by whoever calls
	// SetWindowPos; route them through the changed hook the way the
	// window manager routes its draw surfaces.
	targets := map[winuser.Handle]*waylanddriver.ShmTarget{}
	wm.OnPosChanging(func(h winuser.Handle, flags winuser.SetPosFlags, windowRect, clientRect, visibleRect image.Rectangle) bool {
		return drv.WindowPosChanging(h, flags, windowRect, clientRect, visibleRect)
	})
	wm.OnPosChanged(func(h, after winuser.Handle, flags winuser.SetPosFlags, windowRect, clientRect, visibleRect image.Rectangle) {
		var target waylanddriver.PresentTarget
		if t := targets[h]; t != nil {
			target = t
		}
		drv.WindowPosChanged(h, after, flags, windowRect, clientRect, visibleRect, target)
	})

	rect := image.Rect(cfg.Window.X, cfg.Window.Y,
		cfg.Window.X+cfg.Window.Width, cfg.Window.Y+cfg.Window.Height)
	style := winuser.StyleVisible | winuser.StyleCaption | winuser.StyleSysMenu | winuser.StyleThickFrame
	win := wm.CreateWindow(0, style, 0, cfg.Title, rect)
	targets[win] = waylanddriver.NewShmTarget(conn, logger)
	wm.SetWindowPos(win, 0, rect, winuser.SetPosShowWindow|winuser.SetPosFrameChanged)

	var band winuser.Handle
	if cfg.Child {
		band, err = mapChildBand(wm, drv, conn, logger, targets, win, rect)
		if err != nil {
			return err
		}
	}

	logger.Info("demo running", "title", cfg.Title, "rect", rect, "child", cfg.Child)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(time.Second / time.Duration(cfg.FrameRate))
	defer ticker.Stop()

	frame := 0
loop:
	for {
		select {
		case <-sig:
			logger.Info("interrupted")
			break loop
		case msg := <-wm.Messages():
			if msg.Msg == winusertest.MsgClose {
				logger.Info("close requested", "hwnd", msg.Window)
				break loop
			}
			drv.WindowMessage(msg.Window, msg.Msg, 0, 0)
		case <-ticker.C:
			frame++
			paintGradient(targets[win], frame)
			drv.FlushWindow(win)
			if band != 0 {
				paintBand(targets[band], frame)
				drv.FlushWindow(band)
			}
		}
	}

	for _, h := range []winuser.Handle{band, win} {
		if h == 0 {
			continue
		}
		drv.DestroyWindow(h)
		wm.DestroyWindow(h)
		if t := targets[h]; t != nil {
			t.Destroy()
		}
	}
	return nil
}

// mapChildBand creates a child window carrying accelerated content, which
// is what keeps a child window on its own surface, and gives it a
// presentation target of its own.
func mapChildBand(wm *winusertest.Manager, drv *waylanddriver.Driver, conn *waylanddriver.Conn, logger *slog.Logger, targets map[winuser.Handle]*waylanddriver.ShmTarget, parent winuser.Handle, parentRect image.Rectangle) (winuser.Handle, error) {
	rect := image.Rect(parentRect.Min.X+16, parentRect.Max.Y-56,
		parentRect.Max.X-16, parentRect.Max.Y-16)
	band := wm.CreateWindow(parent, winuser.StyleVisible|winuser.StyleChild, 0, "", rect)
	targets[band] = waylanddriver.NewShmTarget(conn, logger)
	wm.SetWindowPos(band, 0, rect, winuser.SetPosShowWindow)

	surface := drv.LockAccelSurface(band)
	if surface == nil {
		return 0, fmt.Errorf("no surface for child band")
	}
	_, err := surface.AcquireClient()
	surface.Unlock()
	if err != nil {
		return 0, fmt.Errorf("accelerated client: %w", err)
	}
	return band, nil
}

func paintGradient(t *waylanddriver.ShmTarget, frame int) {
	t.Paint(func(img *image.RGBA) {
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i := img.PixOffset(x, y)
				img.Pix[i+0] = uint8((x + frame) * 255 / b.Dx())
				img.Pix[i+1] = uint8(y * 255 / b.Dy())
				img.Pix[i+2] = uint8(128 + 127*((frame/32)%2))
				img.Pix[i+3] = 0xff
			}
		}
	})
}

func paintBand(t *waylanddriver.ShmTarget, frame int) {
	t.Paint(func(img *image.RGBA) {
		b := img.Bounds()
		on := uint8(0x20 + 0x10*(frame%8))
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i := img.PixOffset(x, y)
				img.Pix[i+0] = on
				img.Pix[i+1] = 0xd0
				img.Pix[i+2] = on
				img.Pix[i+3] = 0xff
			}
		}
	})
}
