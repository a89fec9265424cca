package annotate

import (
	"encoding/csv"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/augment"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/session"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/store"
)

func writeTestImage(t *testing.T, dir, name string) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 4), uint8(y * 5), 128, 255})
		}
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newTestController(t *testing.T, augmentCount int, augmentOn bool, images ...string) (*Controller, string, string) {
	t.Helper()

	inDir := t.TempDir()
	outDir := t.TempDir()
	for _, name := range images {
		writeTestImage(t, inDir, name)
	}

	c := NewWithConfig(Config{
		Engine:              augment.NewWithConfig(augment.Config{Count: augmentCount, Seed: 1}),
		AugmentationEnabled: augmentOn,
	})
	c.SetOutputFolder(outDir)
	if err := c.LoadFolder(inDir); err != nil {
		t.Fatalf("LoadFolder: %v", err)
	}

	return c, inDir, outDir
}

func readLog(t *testing.T, outDir string) [][]string {
	t.Helper()

	f, err := os.Open(filepath.Join(outDir, store.FileName))
	if err != nil {
		t.Fatalf("open annotation log: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read annotation log: %v", err)
	}
	return rows
}

func TestStateTransitions(t *testing.T) {
	c := New()
	if c.State() != Idle {
		t.Errorf("fresh controller state = %s, want idle", c.State())
	}

	inDir := t.TempDir()
	outDir := t.TempDir()
	writeTestImage(t, inDir, "a.png")

	c.SetOutputFolder(outDir)
	if c.State() != Idle {
		t.Errorf("state with only output folder = %s, want idle", c.State())
	}

	if err := c.LoadFolder(inDir); err != nil {
		t.Fatal(err)
	}
	if c.State() != Annotating {
		t.Errorf("state with current image = %s, want annotating", c.State())
	}

	c.Advance()
	if c.State() != Exhausted {
		t.Errorf("state past last image = %s, want exhausted", c.State())
	}
}

func TestSubmitLabelRejectsEmpty(t *testing.T) {
	c, _, _ := newTestController(t, 2, false, "a.png")

	if err := c.SubmitLabel("   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty label: got %v, want ErrInvalidInput", err)
	}

	s := c.Session()
	if s.ImagesAnnotated != 0 || s.SuitableImages != 0 {
		t.Errorf("rejected label mutated counters: %+v", s)
	}
}

func TestSubmitLabelRequiresOutputFolder(t *testing.T) {
	inDir := t.TempDir()
	writeTestImage(t, inDir, "a.png")

	c := New()
	if err := c.LoadFolder(inDir); err != nil {
		t.Fatal(err)
	}

	if err := c.SubmitLabel("7"); !errors.Is(err, ErrNoOutputFolder) {
		t.Errorf("got %v, want ErrNoOutputFolder", err)
	}
}

func TestSubmitLabelAugmentationDisabled(t *testing.T) {
	c, _, outDir := newTestController(t, 5, false, "a.png")

	if err := c.SubmitLabel("7"); err != nil {
		t.Fatalf("SubmitLabel: %v", err)
	}

	rows := readLog(t, outDir)
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[1][0] != "a.png" || rows[1][1] != "7" {
		t.Errorf("unexpected row: %v", rows[1])
	}

	s := c.Session()
	if s.ImagesAnnotated != 1 {
		t.Errorf("images_annotated = %d, want 1", s.ImagesAnnotated)
	}
	if s.SuitableImages != 1 {
		t.Errorf("suitable_images = %d, want 1", s.SuitableImages)
	}

	// No artifacts are produced with augmentation off.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != store.FileName {
			t.Errorf("unexpected artifact %s", e.Name())
		}
	}
}

func TestSubmitLabelAugmentationEnabled(t *testing.T) {
	// Count 3 while the suitable counter still jumps by the fixed 10: the
	// counter approximates expected dataset rows, not artifact count.
	count := 3
	c, _, outDir := newTestController(t, count, true, "a.png")

	if err := c.SubmitLabel("7"); err != nil {
		t.Fatalf("SubmitLabel: %v", err)
	}

	rows := readLog(t, outDir)
	wantRows := 1 + 1 + (count + 1) // header + source + artifacts
	if len(rows) != wantRows {
		t.Fatalf("expected %d rows, got %d", wantRows, len(rows))
	}

	sid := rows[1][2]
	for _, row := range rows[1:] {
		if row[1] != "7" {
			t.Errorf("artifact row has label %q, want 7", row[1])
		}
		if row[2] != sid {
			t.Errorf("artifact row has session %q, want %q", row[2], sid)
		}
	}

	artifacts := 0
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != store.FileName {
			artifacts++
		}
	}
	if artifacts != count+1 {
		t.Errorf("expected %d artifacts on disk, got %d", count+1, artifacts)
	}

	s := c.Session()
	if s.SuitableImages != 10 {
		t.Errorf("suitable_images = %d, want the fixed heuristic 10", s.SuitableImages)
	}
}

func TestSubmitLabelUnsuitableShorthand(t *testing.T) {
	c, _, outDir := newTestController(t, 2, true, "a.png", "b.png")

	if err := c.SubmitLabel("--"); err != nil {
		t.Fatalf("SubmitLabel: %v", err)
	}
	if err := c.SubmitLabel("unsuitable"); err != nil {
		t.Fatalf("SubmitLabel: %v", err)
	}

	rows := readLog(t, outDir)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	for _, row := range rows[1:] {
		if row[1] != "unsuitable" {
			t.Errorf("expected normalized label unsuitable, got %q", row[1])
		}
	}

	s := c.Session()
	if s.ImagesAnnotated != 2 {
		t.Errorf("images_annotated = %d, want 2", s.ImagesAnnotated)
	}
	if s.SuitableImages != 0 {
		t.Errorf("suitable_images = %d, want 0", s.SuitableImages)
	}

	// Unsuitable images are never augmented, toggle notwithstanding.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the annotation log in the output folder, got %d entries", len(entries))
	}
}

func TestSubmitLabelDecodeFailureKeepsLabel(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inDir, "broken.jpg"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewWithConfig(Config{AugmentationEnabled: true})
	c.SetOutputFolder(outDir)
	if err := c.LoadFolder(inDir); err != nil {
		t.Fatal(err)
	}

	if err := c.SubmitLabel("7"); err != nil {
		t.Fatalf("SubmitLabel on undecodable image: %v", err)
	}

	rows := readLog(t, outDir)
	if len(rows) != 2 {
		t.Fatalf("expected the label row despite the decode failure, got %d rows", len(rows))
	}
	if c.State() != Exhausted {
		t.Errorf("cursor did not advance past the broken image")
	}
}

func TestEndToEndScenario(t *testing.T) {
	// Two images, augmentation off. Label "10" then "--".
	c, _, outDir := newTestController(t, 10, false, "image1.png", "image2.png")

	if err := c.SubmitLabel("10"); err != nil {
		t.Fatalf("first SubmitLabel: %v", err)
	}
	current, ok := c.CurrentImage()
	if !ok || filepath.Base(current) != "image2.png" {
		t.Errorf("expected cursor on image2.png, got %q", current)
	}

	if err := c.SubmitLabel("--"); err != nil {
		t.Fatalf("second SubmitLabel: %v", err)
	}
	if c.State() != Exhausted {
		t.Errorf("state = %s, want exhausted", c.State())
	}

	rows := readLog(t, outDir)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "image1.png" || rows[1][1] != "10" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][0] != "image2.png" || rows[2][1] != "unsuitable" {
		t.Errorf("row 2 = %v", rows[2])
	}

	s := c.Session()
	if s.ImagesAnnotated != 2 || s.SuitableImages != 1 {
		t.Errorf("counters = %+v, want 2 annotated / 1 suitable", s)
	}
}

func TestResumeAfterReload(t *testing.T) {
	c, inDir, _ := newTestController(t, 2, false, "a.png", "b.png", "c.png")

	if err := c.SubmitLabel("4"); err != nil {
		t.Fatal(err)
	}

	// A fresh load over the same folders resumes at the first unannotated
	// image.
	if err := c.LoadFolder(inDir); err != nil {
		t.Fatal(err)
	}
	current, ok := c.CurrentImage()
	if !ok || filepath.Base(current) != "b.png" {
		t.Errorf("expected resume at b.png, got %q", current)
	}
	done, total := c.Progress()
	if done != 1 || total != 3 {
		t.Errorf("progress = %d/%d, want 1/3", done, total)
	}
}

func TestSaveAndResumeSession(t *testing.T) {
	c, _, outDir := newTestController(t, 2, false, "a.png", "b.png")

	if err := c.SubmitLabel("8"); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveSession(); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	history := session.LoadHistory(filepath.Join(outDir, session.FileName))
	if len(history) != 1 {
		t.Fatalf("expected 1 saved session, got %d", len(history))
	}
	if history[0].ImagesAnnotated != 1 || history[0].SuitableImages != 1 {
		t.Errorf("saved summary = %+v", history[0])
	}

	firstID := c.Session().ID
	if err := c.ResumeSession(); err != nil {
		t.Fatalf("ResumeSession: %v", err)
	}

	s := c.Session()
	if s.ImagesAnnotated != 0 || s.SuitableImages != 0 {
		t.Errorf("resume did not zero counters: %+v", s)
	}
	if s.ID == firstID {
		t.Error("resume reused the previous session id")
	}

	if got := c.TotalSuitable(); got != 1 {
		t.Errorf("TotalSuitable = %d, want the ledger total 1", got)
	}
	if got := c.SessionNumber(); got != 2 {
		t.Errorf("SessionNumber = %d, want 2", got)
	}

	// Cursor lands on the first unannotated image again.
	current, ok := c.CurrentImage()
	if !ok || filepath.Base(current) != "b.png" {
		t.Errorf("expected cursor on b.png after resume, got %q", current)
	}
}

func TestSaveSessionRequiresOutputFolder(t *testing.T) {
	c := New()
	if err := c.SaveSession(); !errors.Is(err, ErrNoOutputFolder) {
		t.Errorf("got %v, want ErrNoOutputFolder", err)
	}
}

func TestRenameInputImages(t *testing.T) {
	c, inDir, _ := newTestController(t, 2, false, "zebra.png", "apple.png")

	n, err := c.RenameInputImages("frame", 1)
	if err != nil {
		t.Fatalf("RenameInputImages: %v", err)
	}
	if n != 2 {
		t.Errorf("renamed %d images, want 2", n)
	}

	current, ok := c.CurrentImage()
	if !ok || filepath.Base(current) != "frame1.png" {
		t.Errorf("expected reloaded cursor on frame1.png, got %q", current)
	}
	if _, err := os.Stat(filepath.Join(inDir, "frame2.png")); err != nil {
		t.Errorf("frame2.png missing after rename: %v", err)
	}
}

func TestToggleAugmentation(t *testing.T) {
	c := New()
	if !c.AugmentationEnabled() {
		t.Error("augmentation should default on")
	}
	c.ToggleAugmentation(false)
	if c.AugmentationEnabled() {
		t.Error("toggle off did not stick")
	}
}
