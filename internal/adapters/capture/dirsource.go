package capture

import (
	"fmt"
	"image"
	_ "image/jpeg" // frame decoding
	_ "image/png"  // frame decoding
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DirSource simulates a camera by serving decoded image files from a
// directory in lexical order. Useful for the live-session CLI and tests
// where no capture device exists.
type DirSource struct {
	mu     sync.Mutex
	frames []string
	index  int
	loop   bool
	closed bool
}

// NewDirSource scans dir for .jpg/.jpeg/.png files. With loop enabled the
// source wraps around instead of running dry.
func NewDirSource(dir string, loop bool) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir: %w", err)
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			frames = append(frames, filepath.Join(dir, e.Name()))
		}
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, dir)
	}
	sort.Strings(frames)

	return &DirSource{frames: frames, loop: loop}, nil
}

// Frame decodes and returns the next file. It reports not-ready when the
// source is exhausted (non-loop) or closed, and skips undecodable files.
func (d *DirSource) Frame() (image.Image, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for attempts := 0; attempts < len(d.frames); attempts++ {
		if d.closed || d.index >= len(d.frames) && !d.loop {
			return nil, false
		}
		if d.index >= len(d.frames) {
			d.index = 0
		}

		path := d.frames[d.index]
		d.index++

		f, err := os.Open(path)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			continue
		}
		return img, true
	}
	return nil, false
}

// Close releases the source. Idempotent.
func (d *DirSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
