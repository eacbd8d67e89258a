// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"image"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func newTestSurface() (*Surface, *fakeRemote) {
	remote := &fakeRemote{comp: newFakeCompositor(), name: "s0"}
	return newSurface(1, remote), remote
}

func TestConfigureCompatibility(t *testing.T) {
	tests := []struct {
		name  string
		conf  Configure
		size  image.Point
		state ConfigState
		want  bool
	}{
		{"exact maximized", Configure{Size: image.Pt(800, 600), State: StateMaximized}, image.Pt(800, 600), StateMaximized, true},
		{"oversized maximized", Configure{Size: image.Pt(800, 600), State: StateMaximized}, image.Pt(810, 620), StateMaximized, true},
		{"undersized maximized", Configure{Size: image.Pt(800, 600), State: StateMaximized}, image.Pt(790, 600), StateMaximized, false},
		{"exact fullscreen", Configure{Size: image.Pt(800, 600), State: StateFullscreen}, image.Pt(800, 600), StateFullscreen, true},
		{"undersized fullscreen", Configure{Size: image.Pt(800, 600), State: StateFullscreen}, image.Pt(790, 580), StateFullscreen, true},
		{"oversized fullscreen", Configure{Size: image.Pt(800, 600), State: StateFullscreen}, image.Pt(810, 600), StateFullscreen, false},
		{"state mismatch", Configure{Size: image.Pt(800, 600), State: StateMaximized}, image.Pt(800, 600), StateFullscreen, false},
		{"free size", Configure{Size: image.Pt(800, 600)}, image.Pt(10, 3000), 0, true},
		{"resizing ignored in mask", Configure{Size: image.Pt(800, 600), State: StateResizing}, image.Pt(100, 100), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.compatible(tt.size, tt.state); got != tt.want {
				t.Errorf("compatible(%v, %v) = %v, want %v", tt.size, tt.state, got, tt.want)
			}
		})
	}
}

func TestReconfigureSubsurfacePlacement(t *testing.T) {
	s, remote := newTestSurface()
	s.active = RoleSubsurface
	s.window.relative = image.Pt(10, 21)
	s.window.scale = 2

	if !s.Reconfigure() {
		t.Fatal("subsurface commit rejected")
	}
	if got, want := remote.position, image.Pt(5, 11); got != want {
		t.Errorf("position = %v, want %v (rounded half away from zero)", got, want)
	}
}

func TestReconfigureWithoutRole(t *testing.T) {
	s, _ := newTestSurface()
	if s.Reconfigure() {
		t.Error("role-less surface allowed to commit")
	}

	s.active = RoleToplevel
	s.remote = nil
	if s.Reconfigure() {
		t.Error("destroyed surface allowed to commit")
	}
}

func TestReconfigureFoldsProcessedConfigure(t *testing.T) {
	s, remote := newTestSurface()
	s.active = RoleToplevel
	s.window.rect = image.Rect(0, 0, 640, 480)
	s.processing = Configure{Size: image.Pt(640, 480), Serial: 5}
	s.processed = true

	if !s.Reconfigure() {
		t.Fatal("compatible commit rejected")
	}
	if s.current.Serial != 5 || s.processing.Serial != 0 || s.processed {
		t.Errorf("negotiation state after fold: current=%d processing=%d processed=%v",
			s.current.Serial, s.processing.Serial, s.processed)
	}
	if diff := cmp.Diff([]uint32{5}, remote.acked); diff != "" {
		t.Errorf("acked mismatch (-want +got):\n%s", diff)
	}
	if got, want := remote.geometry, image.Rect(0, 0, 640, 480); got != want {
		t.Errorf("geometry = %v, want %v", got, want)
	}
}

func TestReconfigureAdoptsInitialRequested(t *testing.T) {
	s, remote := newTestSurface()
	s.active = RoleToplevel
	s.window.rect = image.Rect(100, 50, 900, 650)
	s.requested = Configure{Size: image.Pt(800, 600), Serial: 2}

	if !s.Reconfigure() {
		t.Fatal("initial commit rejected")
	}
	if s.current.Serial != 2 || s.requested.Serial != 0 {
		t.Errorf("current=%d requested=%d, want 2 and 0", s.current.Serial, s.requested.Serial)
	}
	if diff := cmp.Diff([]uint32{2}, remote.acked); diff != "" {
		t.Errorf("acked mismatch (-want +got):\n%s", diff)
	}
}

func TestReconfigureRejectsIncompatibleCommits(t *testing.T) {
	// Nothing acknowledged yet and nothing pending: no commit.
	s, remote := newTestSurface()
	s.active = RoleToplevel
	s.window.rect = image.Rect(0, 0, 100, 100)
	if s.Reconfigure() {
		t.Error("commit allowed before any configure")
	}

	// A standing current configuration the window no longer satisfies
	// blocks commits until a new configure arrives.
	s.current = Configure{Size: image.Pt(1000, 1000), State: StateMaximized, Serial: 4}
	s.window.state = StateMaximized
	s.window.rect = image.Rect(0, 0, 500, 500)
	if s.Reconfigure() {
		t.Error("commit allowed against an incompatible current configure")
	}

	// An incompatible processed configure stays parked.
	s.processing = Configure{Size: image.Pt(1000, 1000), State: StateMaximized, Serial: 6}
	s.processed = true
	if s.Reconfigure() {
		t.Error("commit allowed while parked on an incompatible configure")
	}
	if s.processing.Serial != 6 || !s.processed {
		t.Errorf("parked configure was consumed: serial=%d processed=%v",
			s.processing.Serial, s.processed)
	}
	if len(remote.acked) != 0 {
		t.Errorf("serials acked despite rejections: %v", remote.acked)
	}
}

func TestClearRoleResetsNegotiation(t *testing.T) {
	s, remote := newTestSurface()
	if err := s.makeToplevel(); err != nil {
		t.Fatalf("makeToplevel: %v", err)
	}
	s.requested = Configure{Serial: 1}
	s.processing = Configure{Serial: 2}
	s.processed = true
	s.current = Configure{Serial: 3}

	s.clearRole()

	if s.active != RoleNone {
		t.Errorf("active role = %v, want none", s.active)
	}
	if s.role != RoleToplevel {
		t.Errorf("sticky role = %v, want toplevel", s.role)
	}
	if s.requested.Serial != 0 || s.processing.Serial != 0 || s.processed || s.current.Serial != 0 {
		t.Error("negotiation buffers survived clearRole")
	}
	if !hasCall(remote.calls(), "clear_role") {
		t.Errorf("clear_role not issued: %v", remote.calls())
	}
}

func TestRolesAreSticky(t *testing.T) {
	s, _ := newTestSurface()
	if err := s.makeToplevel(); err != nil {
		t.Fatalf("makeToplevel: %v", err)
	}
	s.clearRole()

	parent, _ := newTestSurface()
	if err := s.makeSubsurface(parent); err == nil {
		t.Error("subsurface role assigned to a surface that held toplevel")
	}
	if err := s.makeToplevel(); err != nil {
		t.Errorf("re-assigning the held role: %v", err)
	}

	sub, _ := newTestSurface()
	if err := sub.makeSubsurface(parent); err != nil {
		t.Fatalf("makeSubsurface: %v", err)
	}
	sub.clearRole()
	if err := sub.makeToplevel(); err == nil {
		t.Error("toplevel role assigned to a surface that held subsurface")
	}

	// A destroyed anchor refuses new subsurfaces outright.
	parent.remote = nil
	other, _ := newTestSurface()
	if err := other.makeSubsurface(parent); err == nil {
		t.Error("subsurface anchored to a destroyed surface")
	}
}

func TestSetTitleTruncatesOnRuneBoundary(t *testing.T) {
	s, remote := newTestSurface()
	s.setTitle(strings.Repeat("€", 400))

	if len(remote.title) != 1023 {
		t.Errorf("title length = %d, want 1023 (cut below the limit on a rune boundary)", len(remote.title))
	}
	if !utf8.ValidString(remote.title) {
		t.Error("truncated title is not valid UTF-8")
	}

	s.setTitle("short")
	if remote.title != "short" {
		t.Errorf("title = %q, want %q", remote.title, "short")
	}
}

func TestCoordConversionRoundsHalfAwayFromZero(t *testing.T) {
	s, _ := newTestSurface()
	s.window.scale = 2

	tests := []struct {
		in, want image.Point
	}{
		{image.Pt(3, 5), image.Pt(2, 3)},
		{image.Pt(-3, -5), image.Pt(-2, -3)},
		{image.Pt(4, 0), image.Pt(2, 0)},
	}
	for _, tt := range tests {
		if got := s.coordsFromWindow(tt.in); got != tt.want {
			t.Errorf("coordsFromWindow(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	s.window.scale = 1.5
	if got, want := s.coordsToWindow(image.Pt(3, 5)), image.Pt(5, 8); got != want {
		t.Errorf("coordsToWindow(3,5) = %v, want %v", got, want)
	}
}

func TestAttachClientToDestroyedSurface(t *testing.T) {
	s, _ := newTestSurface()
	comp := newFakeCompositor()
	client := &fakeClient{comp: comp, name: "c0"}

	s.remote = nil
	if err := s.attachClient(client); err == nil {
		t.Error("client attached to a destroyed surface")
	}
	if !client.destroyed {
		t.Error("orphaned client not destroyed")
	}
}
