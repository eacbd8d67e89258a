// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package winuser declares the boundary between a display driver and the
// emulated Win32 window manager it serves.
//
// Windows are not created through this package. The window manager owns the
// window tree, styles and message queues; a display driver only observes
// them through the Manager interface and feeds geometry and state changes
// back through it. The concrete Manager is provided by the hosting
// compatibility layer; package winusertest provides an in-memory one for
// tests and demos.
//
// Styles, positioning flags and system commands keep their Win32 bit
// values, since the window manager side of the boundary speaks them
// natively.
package winuser

import (
	"fmt"
	"image"
)

// Handle identifies a window. Handles are opaque, process-unique and
// stable for the lifetime of the window they name. The zero Handle never
// names a window.
type Handle uintptr

func (h Handle) String() string {
	return fmt.Sprintf("0x%x", uintptr(h))
}

// Style holds the lower 32 window style bits (GWL_STYLE).
type Style uint32

const (
	StyleVisible     Style = 0x10000000
	StyleMinimize    Style = 0x20000000
	StyleChild       Style = 0x40000000
	StylePopup       Style = 0x80000000
	StyleMaximize    Style = 0x01000000
	StyleBorder      Style = 0x00800000
	StyleDialogFrame Style = 0x00400000
	StyleSysMenu     Style = 0x00080000
	StyleThickFrame  Style = 0x00040000

	// StyleCaption is a two-bit field; a window has a full caption only
	// when both bits are present, so test it with a masked comparison,
	// never a plain AND.
	StyleCaption = StyleBorder | StyleDialogFrame
)

// ExStyle holds the extended window style bits (GWL_EXSTYLE).
type ExStyle uint32

const (
	ExStyleToolWindow ExStyle = 0x00000080
	ExStyleAppWindow  ExStyle = 0x00040000
)

// SetPosFlags are the SWP_* flags accepted by Manager.SetWindowPos.
type SetPosFlags uint32

const (
	SetPosNoSize         SetPosFlags = 0x0001
	SetPosNoMove         SetPosFlags = 0x0002
	SetPosNoZOrder       SetPosFlags = 0x0004
	SetPosNoActivate     SetPosFlags = 0x0010
	SetPosFrameChanged   SetPosFlags = 0x0020
	SetPosShowWindow     SetPosFlags = 0x0040
	SetPosHideWindow     SetPosFlags = 0x0080
	SetPosNoOwnerZOrder  SetPosFlags = 0x0200
	SetPosNoSendChanging SetPosFlags = 0x0400
)

// System command values delivered to a driver's SysCommand entry point.
// The low four bits of a command word carry additional information (for
// SCSize, the resize hittest), so commands compare equal only after
// masking with SCMask.
const (
	SCSize  = 0xf000
	SCMove  = 0xf010
	SCClose = 0xf060
	SCMask  = 0xfff0
)

// Resize hittest codes carried in the low bits of an SCSize command.
const (
	HitLeft        = 1
	HitRight       = 2
	HitTop         = 3
	HitTopLeft     = 4
	HitTopRight    = 5
	HitBottom      = 6
	HitBottomLeft  = 7
	HitBottomRight = 8
)

// Manager is the window manager as seen by a display driver.
//
// All methods are safe for concurrent use; drivers call them from both
// their window-event and their display-connection threads. Methods taking
// a Handle accept handles of already destroyed windows and return zero
// values for them.
//
// Post and PostCloseRequest are asynchronous: they queue work for
// delivery on the window's event thread and return immediately.
// SetWindowPos, by contrast, applies synchronously and may re-enter the
// driver's positioning entry points before returning; drivers call it
// with no locks held.
type Manager interface {
	// DesktopWindow returns the handle of the desktop root window.
	DesktopWindow() Handle

	// Parent returns the ancestor a window is positioned in: the parent
	// for child windows, the desktop window for top-level windows, and
	// zero for the desktop itself and for message-only windows.
	Parent(h Handle) Handle

	// Owner returns the owner of a top-level window, or zero.
	Owner(h Handle) Handle

	// IsChild reports whether h is a descendant of parent.
	IsChild(parent, h Handle) bool

	// WindowList returns all top-level windows in z-order, topmost
	// first. Owned windows always precede their owner.
	WindowList() []Handle

	// Style returns the window style bits, or zero for unknown handles.
	Style(h Handle) Style

	// ExStyle returns the extended style bits.
	ExStyle(h Handle) ExStyle

	// SetStyle replaces the window style bits without repositioning or
	// repainting the window.
	SetStyle(h Handle, s Style)

	// IsVisible reports whether the window and all its ancestors have
	// the visible style bit set.
	IsVisible(h Handle) bool

	// WindowText returns the window's title text.
	WindowText(h Handle) string

	// ActiveWindow returns the active window of the calling thread's
	// input queue, or zero.
	ActiveWindow() Handle

	// ForegroundWindow returns the window owning the input focus, or
	// zero.
	ForegroundWindow() Handle

	// SetForegroundWindow makes h the foreground window.
	SetForegroundWindow(h Handle)

	// DPIForWindow returns the logical resolution the window is scaled
	// for, in dots per inch. 96 means unscaled.
	DPIForWindow(h Handle) int

	// MonitorWorkArea returns the work area of the monitor the window
	// overlaps most, excluding taskbars and docked bars.
	MonitorWorkArea(h Handle) image.Rectangle

	// IsRectFullScreen reports whether a rectangle in the coordinate
	// space implied by dpi covers an entire monitor.
	IsRectFullScreen(r image.Rectangle, dpi int) bool

	// SetWindowPos repositions a window. Implementations apply the
	// change with per-monitor DPI awareness so the rectangle is not
	// rescaled in transit. flags restricts which parts of the request
	// take effect, exactly as for the Win32 call of the same name.
	SetWindowPos(h, after Handle, r image.Rectangle, flags SetPosFlags)

	// EnterSizeMove and ExitSizeMove notify the window that an
	// interactive resize driven by the display server has started or
	// ended.
	EnterSizeMove(h Handle)
	ExitSizeMove(h Handle)

	// Post queues a driver-internal message to the window. It is
	// delivered asynchronously to the driver's WindowMessage entry
	// point on the window's event thread.
	Post(h Handle, msg uint32)

	// PostCloseRequest queues a close request (SCClose) to the window,
	// leaving the application free to ignore it.
	PostCloseRequest(h Handle)

	// NotifyDisplayChange tells the window manager that the set of
	// displays or their modes changed and cached monitor information
	// must be re-read.
	NotifyDisplayChange()

	// ReapplyCursorClip re-applies the current pointer confinement
	// region, if any. Needed after the foreground window's backing
	// surface moves or is replaced.
	ReapplyCursorClip()
}
