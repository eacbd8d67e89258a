// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"image"
	"testing"

	"github.com/Packset/affinity-wine/winuser"
)

func TestWindowManagedHeuristics(t *testing.T) {
	small := image.Rect(10, 10, 210, 210)
	passive := winuser.SetPosNoActivate

	tests := []struct {
		name    string
		style   winuser.Style
		exStyle winuser.ExStyle
		flags   winuser.SetPosFlags
		rect    image.Rectangle
		active  bool
		want    bool
	}{
		{
			name:  "plain child never managed",
			style: winuser.StyleVisible | winuser.StyleChild,
			rect:  small,
			// Even activation does not promote a pure child.
			flags: 0,
			want:  false,
		},
		{
			name:  "activating flags manage",
			style: winuser.StyleVisible,
			flags: 0,
			rect:  small,
			want:  true,
		},
		{
			name:  "hide flag suppresses activation",
			style: winuser.StyleVisible,
			flags: winuser.SetPosHideWindow,
			rect:  small,
			want:  false,
		},
		{
			name:   "active window managed",
			style:  winuser.StyleVisible,
			flags:  passive,
			rect:   small,
			active: true,
			want:   true,
		},
		{
			name:  "full caption managed",
			style: winuser.StyleVisible | winuser.StyleCaption,
			flags: passive,
			rect:  small,
			want:  true,
		},
		{
			name:  "border alone is not a caption",
			style: winuser.StyleVisible | winuser.StyleBorder,
			flags: passive,
			rect:  small,
			want:  false,
		},
		{
			name:  "sizing frame managed",
			style: winuser.StyleVisible | winuser.StyleThickFrame,
			flags: passive,
			rect:  small,
			want:  true,
		},
		{
			name:  "popup with system menu managed",
			style: winuser.StyleVisible | winuser.StylePopup | winuser.StyleSysMenu,
			flags: passive,
			rect:  small,
			want:  true,
		},
		{
			name:  "popup covering the work area managed",
			style: winuser.StyleVisible | winuser.StylePopup,
			flags: passive,
			rect:  image.Rect(0, 0, 1920, 1040),
			want:  true,
		},
		{
			name:  "small passive popup not managed",
			style: winuser.StyleVisible | winuser.StylePopup,
			flags: passive,
			rect:  small,
			want:  false,
		},
		{
			name:    "application window managed",
			style:   winuser.StyleVisible,
			exStyle: winuser.ExStyleAppWindow,
			flags:   passive,
			rect:    small,
			want:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			parent := winuser.Handle(0)
			if tt.style&winuser.StyleChild != 0 {
				parent = h.newToplevel("host", image.Rect(0, 0, 500, 500))
			}
			win := h.wm.CreateWindow(parent, tt.style, tt.exStyle, "probe", tt.rect)
			if tt.active {
				h.wm.SetActive(win)
			}
			if got := h.drv.isWindowManaged(win, tt.flags, tt.rect); got != tt.want {
				t.Errorf("isWindowManaged = %v, want %v", got, tt.want)
			}
		})
	}
}

// A bare owner window picks up managed state from a managed popup it
// owns, but only while that popup stacks above it.
func TestOwnerOfManagedPopup(t *testing.T) {
	h := newHarness(t)
	small := image.Rect(10, 10, 210, 210)

	owner := h.wm.CreateWindow(0, winuser.StyleVisible, 0, "owner", small)
	popupRect := image.Rect(50, 50, 250, 250)
	popup := h.wm.CreateWindow(0, winuser.StyleVisible|winuser.StylePopup|winuser.StyleSysMenu, 0, "menu", popupRect)
	h.wm.SetOwner(popup, owner)

	// Route the popup through a position pass so its managed state is on
	// record; it stacks above the owner afterwards.
	h.show(popup, popupRect)

	if !h.drv.isWindowManaged(owner, winuser.SetPosNoActivate, small) {
		t.Error("owner of managed popup not managed")
	}

	// Raising the owner above its popup ends the inheritance: the walk
	// stops at the owner itself.
	h.wm.SetWindowPos(owner, 0, small, winuser.SetPosNoSize|winuser.SetPosNoMove)
	if h.drv.isWindowManaged(owner, winuser.SetPosNoActivate, small) {
		t.Error("owner managed with no owned popup above it")
	}
}
