// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/neurlang/wayland/wl"
	"golang.org/x/sys/unix"

	"github.com/Packset/affinity-wine/internal/swizzle"
)

// wl_shm.format value for 32-bit BGRX little-endian pixels.
const shmFormatXRGB8888 = 1

// ShmTarget is a PresentTarget committing CPU-rendered pixels through
// wl_shm buffers. A renderer draws into the staging image under Paint;
// Flush copies the staging pixels into a free buffer slot and commits it
// to the bound surface, provided the surface's standing configuration
// permits content at the current size.
//
// Buffers are attached at identity scale: high-DPI windows present at
// their window pixel size.
type ShmTarget struct {
	conn *Conn
	log  *slog.Logger

	mu      sync.Mutex
	surface *Surface
	visible image.Rectangle
	staging *image.RGBA
	dirty   bool

	pool    *shmPool
	slots   [2]*shmSlot
	bufSize image.Point
}

// shmPool is one grow-only memfd-backed wl_shm_pool.
type shmPool struct {
	fd   int
	data []byte
	pool *wl.ShmPool
	size int
}

// shmSlot is one buffer in the pool. busy is set when the buffer is
// committed and cleared by the compositor's release event, which arrives
// on the dispatch thread.
type shmSlot struct {
	buffer *wl.Buffer
	offset int
	busy   atomic.Bool
}

// HandleBufferRelease implements wl.BufferReleaseHandler.
func (s *shmSlot) HandleBufferRelease(wl.BufferReleaseEvent) {
	s.busy.Store(false)
}

// NewShmTarget returns a ShmTarget presenting through c. A nil logger
// means slog.Default().
func NewShmTarget(c *Conn, logger *slog.Logger) *ShmTarget {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShmTarget{conn: c, log: logger}
}

// SetOutput implements PresentTarget.
func (t *ShmTarget) SetOutput(s *Surface, visible image.Rectangle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.surface = s
	t.visible = visible
	if s == nil {
		return
	}
	sz := visible.Size()
	if sz.X <= 0 || sz.Y <= 0 {
		t.staging = nil
		return
	}
	if t.staging == nil || t.staging.Bounds().Size() != sz {
		t.staging = image.NewRGBA(image.Rectangle{Max: sz})
		t.dirty = false
	}
}

// Paint invokes draw with the staging image, sized to the window's
// visible extent, and marks the result for presentation on the next
// Flush. Paint does nothing while no output is attached.
func (t *ShmTarget) Paint(draw func(*image.RGBA)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.staging == nil {
		return
	}
	draw(t.staging)
	t.dirty = true
}

// Flush implements PresentTarget.
func (t *ShmTarget) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.surface == nil || t.staging == nil || !t.dirty {
		return
	}
	sz := t.staging.Bounds().Size()

	s := t.surface
	s.mu.Lock()
	defer s.mu.Unlock()

	remote, ok := s.remote.(*remoteSurface)
	if !ok {
		return
	}
	if !s.Reconfigure() {
		return
	}
	if err := t.ensureBuffers(sz); err != nil {
		t.log.Error("shm buffer setup failed", "window", s.handle, "error", err)
		return
	}
	slot := t.freeSlot()
	if slot == nil {
		t.log.Debug("all shm buffers busy, dropping frame", "window", s.handle)
		return
	}

	frame := t.pool.data[slot.offset : slot.offset+4*sz.X*sz.Y]
	copy(frame, t.staging.Pix)
	swizzle.BGRA(frame)

	// busy is raised before the commit goes out: the release event may
	// race the store otherwise and the slot would stay busy forever.
	slot.busy.Store(true)
	if err := remote.surface.Attach(slot.buffer, 0, 0); err != nil {
		slot.busy.Store(false)
		t.log.Debug("attach failed", "window", s.handle, "error", err)
		return
	}
	_ = remote.surface.Damage(0, 0, int32(sz.X), int32(sz.Y))
	if err := remote.surface.Commit(); err != nil {
		slot.busy.Store(false)
		t.log.Debug("commit failed", "window", s.handle, "error", err)
		return
	}
	t.dirty = false
}

// Destroy releases the target's buffers and pool. The target must be
// detached first.
func (t *ShmTarget) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dropBuffers()
	if t.pool != nil {
		t.pool.pool.Destroy()
		unix.Munmap(t.pool.data)
		unix.Close(t.pool.fd)
		t.pool = nil
	}
	t.staging = nil
	t.surface = nil
}

func (t *ShmTarget) freeSlot() *shmSlot {
	for _, slot := range t.slots {
		if slot != nil && !slot.busy.Load() {
			return slot
		}
	}
	return nil
}

func (t *ShmTarget) dropBuffers() {
	for i, slot := range t.slots {
		if slot != nil && slot.buffer != nil {
			slot.buffer.Destroy()
		}
		t.slots[i] = nil
	}
	t.bufSize = image.Point{}
}

// ensureBuffers sizes the pool for two frames of sz pixels and carves
// the buffer slots out of it.
func (t *ShmTarget) ensureBuffers(sz image.Point) error {
	if t.bufSize == sz && t.slots[0] != nil {
		return nil
	}
	// In-flight buffers of the old size are released by the compositor
	// in its own time; their proxies just die early.
	t.dropBuffers()

	stride := 4 * sz.X
	frame := stride * sz.Y
	if err := t.ensurePool(2 * frame); err != nil {
		return err
	}
	for i := range t.slots {
		buffer, err := t.pool.pool.CreateBuffer(int32(i*frame),
			int32(sz.X), int32(sz.Y), int32(stride), shmFormatXRGB8888)
		if err != nil {
			return fmt.Errorf("waylanddriver: create buffer: %w", err)
		}
		slot := &shmSlot{buffer: buffer, offset: i * frame}
		buffer.AddReleaseHandler(slot)
		t.slots[i] = slot
	}
	t.bufSize = sz
	return nil
}

// ensurePool grows the memfd-backed pool to at least size bytes. Pools
// only grow; shrinking a live pool is a protocol violation while buffers
// reference its tail.
func (t *ShmTarget) ensurePool(size int) error {
	if t.pool != nil && t.pool.size >= size {
		return nil
	}
	if t.pool == nil {
		fd, err := unix.MemfdCreate("affinity-shm", unix.MFD_CLOEXEC)
		if err != nil {
			return fmt.Errorf("waylanddriver: memfd_create: %w", err)
		}
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			unix.Close(fd)
			return fmt.Errorf("waylanddriver: ftruncate: %w", err)
		}
		data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			unix.Close(fd)
			return fmt.Errorf("waylanddriver: mmap: %w", err)
		}
		pool, err := t.conn.shm.CreatePool(uintptr(fd), int32(size))
		if err != nil {
			unix.Munmap(data)
			unix.Close(fd)
			return fmt.Errorf("waylanddriver: create pool: %w", err)
		}
		t.pool = &shmPool{fd: fd, data: data, pool: pool, size: size}
		return nil
	}

	p := t.pool
	if err := unix.Ftruncate(p.fd, int64(size)); err != nil {
		return fmt.Errorf("waylanddriver: ftruncate: %w", err)
	}
	if err := unix.Munmap(p.data); err != nil {
		return fmt.Errorf("waylanddriver: munmap: %w", err)
	}
	data, err := unix.Mmap(p.fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("waylanddriver: mmap: %w", err)
	}
	p.data = data
	if err := p.pool.Resize(int32(size)); err != nil {
		return fmt.Errorf("waylanddriver: pool resize: %w", err)
	}
	p.size = size
	return nil
}
