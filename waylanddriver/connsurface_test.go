// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"testing"

	"github.com/Packset/affinity-wine/xdgshell"
)

func TestConfigStateFromToplevel(t *testing.T) {
	tests := []struct {
		name   string
		states []uint32
		want   ConfigState
	}{
		{"empty", nil, 0},
		{"maximized", []uint32{xdgshell.ToplevelStateMaximized}, StateMaximized},
		{"fullscreen", []uint32{xdgshell.ToplevelStateFullscreen}, StateFullscreen},
		{"resizing", []uint32{xdgshell.ToplevelStateResizing}, StateResizing},
		{
			"activation ignored",
			[]uint32{xdgshell.ToplevelStateMaximized, xdgshell.ToplevelStateActivated},
			StateMaximized,
		},
		{
			"tiled edges fold to one bit",
			[]uint32{
				xdgshell.ToplevelStateTiledLeft,
				xdgshell.ToplevelStateTiledRight,
				xdgshell.ToplevelStateTiledTop,
				xdgshell.ToplevelStateTiledBottom,
			},
			StateTiled,
		},
		{
			"combined",
			[]uint32{
				xdgshell.ToplevelStateFullscreen,
				xdgshell.ToplevelStateResizing,
				xdgshell.ToplevelStateTiledLeft,
			},
			StateFullscreen | StateResizing | StateTiled,
		},
		{"unknown values dropped", []uint32{999, xdgshell.ToplevelStateMaximized}, StateMaximized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := configStateFromToplevel(tt.states); got != tt.want {
				t.Errorf("configStateFromToplevel(%v) = %v, want %v", tt.states, got, tt.want)
			}
		})
	}
}
