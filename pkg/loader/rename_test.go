package loader

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func listImages(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRenameAllBadParams(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.jpg")

	if _, err := RenameAll(dir, "", 1); !errors.Is(err, ErrBadRenameParams) {
		t.Errorf("empty prefix: got %v, want ErrBadRenameParams", err)
	}
	if _, err := RenameAll(dir, "player", -1); !errors.Is(err, ErrBadRenameParams) {
		t.Errorf("negative start: got %v, want ErrBadRenameParams", err)
	}

	// Nothing was renamed by the rejected calls.
	if got := listImages(t, dir); len(got) != 1 || got[0] != "a.jpg" {
		t.Errorf("folder mutated by rejected rename: %v", got)
	}
}

func TestRenameAll(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "zebra.JPG", "apple.png", "mango.jpeg", "notes.txt")

	n, err := RenameAll(dir, "player", 5)
	if err != nil {
		t.Fatalf("RenameAll: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 renames, got %d", n)
	}

	want := []string{"notes.txt", "player5.png", "player6.jpeg", "player7.jpg"}
	if got := listImages(t, dir); len(got) != len(want) {
		t.Fatalf("unexpected folder contents: %v", got)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("entry %d: got %s, want %s", i, got[i], want[i])
			}
		}
	}
}

func TestRenameAllCollision(t *testing.T) {
	// player1.jpg already occupies a target name; the two-phase rename must
	// not clobber it before it has been moved out of the way.
	dir := t.TempDir()
	writeFiles(t, dir, "player1.jpg", "player2.jpg", "aaa.jpg")

	if _, err := RenameAll(dir, "player", 1); err != nil {
		t.Fatalf("RenameAll: %v", err)
	}

	want := []string{"player1.jpg", "player2.jpg", "player3.jpg"}
	got := listImages(t, dir)
	if len(got) != len(want) {
		t.Fatalf("unexpected folder contents: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %s, want %s", i, got[i], want[i])
		}
	}
}
