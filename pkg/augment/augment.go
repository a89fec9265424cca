// Package augment expands one labeled image into a set of derived training
// samples, each produced by exactly one randomly chosen transform from a
// fixed catalog. Transforms are never composed; every output derives
// independently from the decoded source.
package augment

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"k8s.io/klog/v2"

	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/internal/utils"
)

// ErrDecode marks an unreadable source image.
var ErrDecode = errors.New("unable to decode image")

// Engine produces augmentation artifacts from source images.
type Engine struct {
	config Config
	rng    *rand.Rand
}

// Config holds configuration for the augmentation engine.
type Config struct {
	// Count is the number of transformed copies written per suitable image,
	// in addition to the unmodified original.
	Count int
	// Quality is the JPEG quality used for every artifact.
	Quality int
	// Seed seeds the transform randomness; 0 means time-based.
	Seed int64
}

// New creates a new Engine with default configuration.
func New() *Engine {
	return NewWithConfig(Config{Count: 10, Quality: 90})
}

// NewWithConfig creates a new Engine with custom configuration.
func NewWithConfig(config Config) *Engine {
	if config.Count < 1 {
		config.Count = 10
	}
	if config.Quality < 1 || config.Quality > 100 {
		config.Quality = 90
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{config: config, rng: rand.New(rand.NewSource(seed))}
}

// Count returns the configured number of transformed copies per image.
func (e *Engine) Count() int {
	return e.config.Count
}

// Augment decodes the image at imagePath and writes its artifacts into
// outputFolder, always JPEG-encoded.
//
// With augmentation disabled it writes exactly one unmodified copy named
// {base}.jpg. Enabled, it writes the unmodified {base}_aug0.jpg plus Count
// transformed copies {base}_aug1.jpg .. {base}_augN.jpg. The returned paths
// are in creation order. Per-file write failures are logged and skipped;
// only the paths that succeeded are returned.
func (e *Engine) Augment(imagePath, outputFolder string, enabled bool) ([]string, error) {
	img, err := LoadImage(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	src := imaging.Clone(img)

	if err := utils.EnsureDir(outputFolder); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	base := utils.BaseNameNoExt(imagePath)
	encoder := imgio.JPEGEncoder(e.config.Quality)
	paths := []string{}

	if !enabled {
		path := filepath.Join(outputFolder, base+".jpg")
		if err := imgio.Save(path, src, encoder); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", path, err)
		}
		return append(paths, path), nil
	}

	for i := 0; i <= e.config.Count; i++ {
		out := image.Image(src)
		if i > 0 {
			t := Transform(e.rng.Intn(int(numTransforms)))
			klog.V(1).Infof("applying %s to %s (copy %d)", t, imagePath, i)
			out = Apply(t, src, e.rng)
		}

		path := filepath.Join(outputFolder, fmt.Sprintf("%s_aug%d.jpg", base, i))
		if err := imgio.Save(path, out, encoder); err != nil {
			klog.Errorf("failed to save artifact %s: %v", path, err)
			continue
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// LoadImage loads a raster image from path. Formats registered with the
// standard image package are tried first, with an explicit WebP fallback.
func LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("image: unknown format for %s", path)
	}
	return img, nil
}
