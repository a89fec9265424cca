package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/internal/utils"
	"github.com/karrick/godirwalk"
)

// ErrBadRenameParams marks rejected rename parameters.
var ErrBadRenameParams = errors.New("invalid rename parameters")

// RenameAll renames every image file in folder to {prefix}{n}{ext}, with n
// counting up from start in sorted filename order. Extensions are kept,
// lowercased. Returns the number of files renamed.
//
// Renaming happens in two phases through temporary names so that a target
// name still occupied by a not-yet-renamed source file cannot clobber it.
func RenameAll(folder, prefix string, start int) (int, error) {
	if strings.TrimSpace(prefix) == "" {
		return 0, fmt.Errorf("%w: empty prefix", ErrBadRenameParams)
	}
	if start < 0 {
		return 0, fmt.Errorf("%w: negative starting number %d", ErrBadRenameParams, start)
	}

	names, err := godirwalk.ReadDirnames(folder, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list folder: %w", err)
	}

	images := []string{}
	for _, name := range names {
		if utils.IsImageFile(name) && utils.FileExists(filepath.Join(folder, name)) {
			images = append(images, name)
		}
	}
	sort.Strings(images)

	type pending struct {
		tmp   string
		final string
	}
	moves := []pending{}

	n := start
	for _, name := range images {
		ext := strings.ToLower(filepath.Ext(name))
		final := fmt.Sprintf("%s%d%s", prefix, n, ext)
		n++

		if final == name {
			continue
		}

		src := filepath.Join(folder, name)
		tmp := filepath.Join(folder, fmt.Sprintf(".rename_%s", final))
		if err := os.Rename(src, tmp); err != nil {
			return 0, fmt.Errorf("failed to stage rename of %s: %w", name, err)
		}
		moves = append(moves, pending{tmp: tmp, final: filepath.Join(folder, final)})
	}

	renamed := 0
	for _, m := range moves {
		if err := os.Rename(m.tmp, m.final); err != nil {
			klog.Errorf("failed to finish rename to %s: %v", m.final, err)
			continue
		}
		renamed++
	}

	return renamed, nil
}
