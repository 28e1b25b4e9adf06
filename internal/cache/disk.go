package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"geosat/internal/common"
)

// TileCache stores raw tile bytes addressed by (zoom, x, y)
type TileCache interface {
	TryGet(zoom, x, y int) ([]byte, bool, error)
	Put(zoom, x, y int, data []byte) error
	Clear() error
}

// Stats summarizes the tiles on disk
type Stats struct {
	Tiles int   `json:"tiles"`
	Bytes int64 `json:"bytes"`
	// Zooms maps zoom level to tile count
	Zooms map[int]int `json:"zooms"`
}

// Disk is a tile cache laid out as {root}/{z}/{x}/{y}.jpg.
// Entries never expire. Concurrent writers of one key race last-write-wins.
type Disk struct {
	root string
}

// NewDisk creates the root directory if needed
func NewDisk(root string) (*Disk, error) {
	if root == "" {
		return nil, fmt.Errorf("cache root is empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, &common.CacheIOError{Op: "create", Path: root, Err: err}
	}
	return &Disk{root: root}, nil
}

// Root returns the cache base directory
func (d *Disk) Root() string {
	return d.root
}

// PathFor returns the file path of a tile
func (d *Disk) PathFor(zoom, x, y int) string {
	return filepath.Join(d.root, strconv.Itoa(zoom), strconv.Itoa(x), strconv.Itoa(y)+".jpg")
}

// TryGet returns the cached bytes. A missing file is a miss, not an error.
func (d *Disk) TryGet(zoom, x, y int) ([]byte, bool, error) {
	path := d.PathFor(zoom, x, y)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &common.CacheIOError{Op: "read", Path: path, Err: err}
	}
	return data, true, nil
}

// Put writes the tile through a temp file and rename
func (d *Disk) Put(zoom, x, y int, data []byte) error {
	path := d.PathFor(zoom, x, y)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &common.CacheIOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return &common.CacheIOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &common.CacheIOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &common.CacheIOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &common.CacheIOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// Clear removes the whole tree and recreates an empty root
func (d *Disk) Clear() error {
	if err := os.RemoveAll(d.root); err != nil {
		return &common.CacheIOError{Op: "clear", Path: d.root, Err: err}
	}
	if err := os.MkdirAll(d.root, 0755); err != nil {
		return &common.CacheIOError{Op: "create", Path: d.root, Err: err}
	}
	slog.Info("tile cache cleared", "component", "cache", "root", d.root)
	return nil
}

// Stats scans the cache directory
func (d *Disk) Stats() (Stats, error) {
	stats := Stats{Zooms: make(map[int]int)}

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || filepath.Ext(path) != ".jpg" {
			return nil
		}

		// Parse path: {root}/{z}/{x}/{y}.jpg
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(rel, string(os.PathSeparator))
		if len(parts) != 3 {
			return nil
		}
		z, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		stats.Tiles++
		stats.Bytes += info.Size()
		stats.Zooms[z]++
		return nil
	})
	if err != nil {
		return Stats{}, &common.CacheIOError{Op: "scan", Path: d.root, Err: err}
	}
	return stats, nil
}
