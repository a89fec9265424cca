// Package loader provides an ordered, resumable view over a folder of images.
//
// Load snapshots the folder once; there is no live directory watching. The
// cursor starts at the first image not present in the annotation lookup, so
// a reloaded session continues where the last one stopped.
package loader

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"

	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/internal/utils"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/store"
)

// Navigator is a cursor over the sorted image files of one folder.
//
// Index invariant: 0 <= index <= len(images). index == len(images) is the
// terminal "all annotated" state with no current image.
type Navigator struct {
	images []string
	index  int
}

// New returns an empty Navigator.
func New() *Navigator {
	return &Navigator{}
}

// Load snapshots the image files of folder, sorted lexicographically by
// filename, and positions the cursor at the first image whose basename is
// absent from annotated. If every image is present the cursor lands past
// the end. A prior snapshot is replaced, never merged.
func (n *Navigator) Load(folder string, annotated map[string]store.Record) error {
	names, err := godirwalk.ReadDirnames(folder, nil)
	if err != nil {
		return fmt.Errorf("failed to list folder: %w", err)
	}

	images := []string{}
	for _, name := range names {
		if !utils.IsImageFile(name) {
			continue
		}
		path := filepath.Join(folder, name)
		if !utils.FileExists(path) {
			continue
		}
		images = append(images, path)
	}
	sort.Slice(images, func(i, j int) bool {
		return filepath.Base(images[i]) < filepath.Base(images[j])
	})

	n.images = images
	n.index = len(images)
	for i, path := range images {
		if _, ok := annotated[filepath.Base(path)]; !ok {
			n.index = i
			break
		}
	}

	return nil
}

// Current returns the image path at the cursor, or false if the cursor is
// past the end.
func (n *Navigator) Current() (string, bool) {
	if n.index < 0 || n.index >= len(n.images) {
		return "", false
	}
	return n.images[n.index], true
}

// Advance moves the cursor forward one image, clamped to len(images).
func (n *Navigator) Advance() {
	if n.index < len(n.images) {
		n.index++
	}
}

// Retreat moves the cursor back one image, clamped to 0.
func (n *Navigator) Retreat() {
	if n.index > 0 {
		n.index--
	}
}

// Index returns the cursor position.
func (n *Navigator) Index() int {
	return n.index
}

// Len returns the number of images in the snapshot.
func (n *Navigator) Len() int {
	return len(n.images)
}

// Exhausted reports whether the cursor is past the last image.
func (n *Navigator) Exhausted() bool {
	return n.index >= len(n.images)
}

// Images returns the snapshot paths in order.
func (n *Navigator) Images() []string {
	return n.images
}
