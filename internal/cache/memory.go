package cache

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryTiles bounds the in-memory layer when no size is configured
const DefaultMemoryTiles = 512

type memKey struct {
	zoom, x, y int
}

// Layered keeps recently used tiles in memory in front of a Disk cache.
// The disk layer stays authoritative; the memory layer only avoids re-reads.
type Layered struct {
	disk *Disk
	mem  *lru.Cache[memKey, []byte]
}

// NewLayered wraps disk with an LRU of at most size tiles
func NewLayered(disk *Disk, size int) (*Layered, error) {
	if size <= 0 {
		size = DefaultMemoryTiles
	}
	mem, err := lru.New[memKey, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &Layered{disk: disk, mem: mem}, nil
}

// Disk returns the persistent layer
func (l *Layered) Disk() *Disk {
	return l.disk
}

func (l *Layered) TryGet(zoom, x, y int) ([]byte, bool, error) {
	key := memKey{zoom, x, y}
	if data, ok := l.mem.Get(key); ok {
		return data, true, nil
	}

	data, ok, err := l.disk.TryGet(zoom, x, y)
	if err != nil || !ok {
		return nil, false, err
	}
	l.mem.Add(key, data)
	return data, true, nil
}

func (l *Layered) Put(zoom, x, y int, data []byte) error {
	if err := l.disk.Put(zoom, x, y, data); err != nil {
		return err
	}
	l.mem.Add(memKey{zoom, x, y}, data)
	return nil
}

func (l *Layered) Clear() error {
	l.mem.Purge()
	return l.disk.Clear()
}

// MemoryLen reports how many tiles are held in memory
func (l *Layered) MemoryLen() int {
	return l.mem.Len()
}

// Open builds the standard cache stack for a provider: a Disk under
// root (or the per-OS default) wrapped by an LRU of memoryTiles entries
func Open(root, provider string, memoryTiles int) (*Layered, error) {
	if root == "" {
		root = GetCacheDir(provider)
	}
	disk, err := NewDisk(root)
	if err != nil {
		return nil, err
	}
	slog.Debug("tile cache opened", "component", "cache", "root", root, "memoryTiles", memoryTiles)
	return NewLayered(disk, memoryTiles)
}
