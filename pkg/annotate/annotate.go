// Package annotate orchestrates a labeling session: it validates labels,
// persists annotation records and augmentation artifacts, tracks session
// counters, and steps a navigator through the input folder.
//
// A Controller is owned by one front-end and serializes its public methods
// with a mutex, so no two label submissions can overlap.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/augment"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/loader"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/session"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/store"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/suggest"
)

// UnsuitableLabel marks an image as unfit for augmentation but annotated.
const UnsuitableLabel = "unsuitable"

// UnsuitableShorthand is accepted as typed input for UnsuitableLabel.
const UnsuitableShorthand = "--"

// suitableWeight is added to the suitable counter per suitable image when
// augmentation is enabled. It approximates the expected dataset rows
// produced and is intentionally independent of the engine's actual count.
const suitableWeight = 10

var (
	// ErrInvalidInput marks a rejected action; nothing was mutated.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoOutputFolder marks an action that needs an output folder first.
	ErrNoOutputFolder = errors.New("no output folder set")
	// ErrNoCurrentImage marks an action that needs a current image.
	ErrNoCurrentImage = errors.New("no current image")
)

// State is the controller's position in the annotation workflow.
type State int

const (
	// Idle means no input or output folder has been chosen.
	Idle State = iota
	// Ready means both folders are chosen but the navigator holds no images.
	Ready
	// Annotating means a current image is present.
	Annotating
	// Exhausted means the cursor is past the last image.
	Exhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Annotating:
		return "annotating"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Controller runs one annotation session over an input and output folder.
type Controller struct {
	mu sync.Mutex

	nav       *loader.Navigator
	engine    *augment.Engine
	suggester *suggest.Client

	inputFolder  string
	outputFolder string
	augmentOn    bool

	sess session.State
}

// Config holds configuration for a Controller.
type Config struct {
	// Engine produces augmentation artifacts; nil means a default engine.
	Engine *augment.Engine
	// Suggester is the optional label-suggestion client.
	Suggester *suggest.Client
	// AugmentationEnabled is the initial state of the augmentation toggle.
	AugmentationEnabled bool
}

// New creates a Controller with a default engine and augmentation enabled.
func New() *Controller {
	return NewWithConfig(Config{AugmentationEnabled: true})
}

// NewWithConfig creates a Controller with custom configuration.
func NewWithConfig(config Config) *Controller {
	engine := config.Engine
	if engine == nil {
		engine = augment.New()
	}
	return &Controller{
		nav:       loader.New(),
		engine:    engine,
		suggester: config.Suggester,
		augmentOn: config.AugmentationEnabled,
		sess:      session.NewState(time.Now()),
	}
}

// State reports the controller's current workflow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (c *Controller) state() State {
	if c.inputFolder == "" || c.outputFolder == "" {
		return Idle
	}
	if c.nav.Len() == 0 {
		return Ready
	}
	if c.nav.Exhausted() {
		return Exhausted
	}
	return Annotating
}

// LoadFolder snapshots folder as the input image set and positions the
// cursor on the first image not yet present in the annotation log.
func (c *Controller) LoadFolder(folder string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inputFolder = folder
	return c.reloadNavigator()
}

// SetOutputFolder designates where annotations, session history, and
// augmentation artifacts are written. The navigator is not reloaded.
func (c *Controller) SetOutputFolder(folder string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputFolder = folder
}

// reloadNavigator must be called with the lock held.
func (c *Controller) reloadNavigator() error {
	annotated := map[string]store.Record{}
	if c.outputFolder != "" {
		var err error
		annotated, err = store.LoadExisting(c.outputFolder)
		if err != nil {
			klog.Errorf("unable to load existing annotations: %v", err)
			annotated = map[string]store.Record{}
		}
	}
	if err := c.nav.Load(c.inputFolder, annotated); err != nil {
		return fmt.Errorf("failed to load input folder: %w", err)
	}
	klog.Infof("loaded %d images from %s, resuming at index %d", c.nav.Len(), c.inputFolder, c.nav.Index())
	return nil
}

// CurrentImage returns the path of the image at the cursor, or false when
// every image is annotated or no folder is loaded.
func (c *Controller) CurrentImage() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.Current()
}

// Advance moves to the next image without annotating the current one.
func (c *Controller) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nav.Advance()
}

// Retreat moves back to the previous image.
func (c *Controller) Retreat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nav.Retreat()
}

// ToggleAugmentation turns augmentation of suitable images on or off.
func (c *Controller) ToggleAugmentation(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.augmentOn = enabled
}

// AugmentationEnabled reports the augmentation toggle.
func (c *Controller) AugmentationEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.augmentOn
}

// SubmitLabel records label for the current image, writes augmentation
// artifacts when the image is suitable and augmentation is enabled, updates
// the session counters, and advances to the next image.
//
// The shorthand "--" is normalized to "unsuitable". Unsuitable images are
// never augmented regardless of the toggle. A decode failure aborts only the
// augmentation step; the label itself is still recorded.
func (c *Controller) SubmitLabel(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	label := strings.TrimSpace(text)
	if label == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidInput)
	}
	if c.outputFolder == "" {
		return ErrNoOutputFolder
	}

	imagePath, ok := c.nav.Current()
	if !ok {
		return ErrNoCurrentImage
	}

	if label == UnsuitableShorthand {
		label = UnsuitableLabel
	}
	suitable := strings.ToLower(label) != UnsuitableLabel

	if err := store.Append(imagePath, label, c.outputFolder, c.sess.ID); err != nil {
		return fmt.Errorf("failed to record annotation: %w", err)
	}

	c.sess.ImagesAnnotated++
	if suitable {
		if c.augmentOn {
			c.sess.SuitableImages += suitableWeight
		} else {
			c.sess.SuitableImages++
		}
	}

	if suitable && c.augmentOn {
		artifacts, err := c.engine.Augment(imagePath, c.outputFolder, true)
		if err != nil {
			// The label is already recorded; only the artifacts are lost.
			klog.Errorf("augmentation failed for %s: %v", imagePath, err)
		}
		for _, artifact := range artifacts {
			if err := store.Append(artifact, label, c.outputFolder, c.sess.ID); err != nil {
				klog.Errorf("failed to record artifact %s: %v", filepath.Base(artifact), err)
			}
		}
	}

	c.nav.Advance()
	return nil
}

// SaveSession stamps the session's end time and appends its summary to the
// session ledger. The in-memory counters are left untouched so a failed save
// can be retried.
func (c *Controller) SaveSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outputFolder == "" {
		return ErrNoOutputFolder
	}

	summary := c.sess.Summary(time.Now())
	if err := session.Append(c.historyPath(), summary); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	klog.Infof("saved session %s: %d annotated, %d suitable", summary.SessionID, summary.ImagesAnnotated, summary.SuitableImages)
	return nil
}

// ResumeSession starts a fresh in-memory session over the current folders.
// Prior totals stay in the ledger and remain visible through TotalSuitable;
// the navigator reloads so the cursor lands on the first unannotated image.
func (c *Controller) ResumeSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outputFolder == "" {
		return ErrNoOutputFolder
	}

	c.sess = session.NewState(time.Now())

	if c.inputFolder == "" {
		return nil
	}
	return c.reloadNavigator()
}

// Session returns a snapshot of the in-memory session counters.
func (c *Controller) Session() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// SessionNumber returns the human-facing sequential number of the session in
// progress: persisted sessions plus one.
func (c *Controller) SessionNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return session.Count(session.LoadHistory(c.historyPath())) + 1
}

// TotalSuitable returns the cumulative suitable count across all persisted
// sessions. The session in progress is not included until it is saved.
func (c *Controller) TotalSuitable() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outputFolder == "" {
		return 0
	}
	return session.TotalSuitable(session.LoadHistory(c.historyPath()))
}

// Progress reports the cursor position and total image count.
func (c *Controller) Progress() (done, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.Index(), c.nav.Len()
}

// SuggestLabel asks the configured vision model for the jersey number in the
// current image. Advisory only; the caller decides whether to submit it.
func (c *Controller) SuggestLabel(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.suggester == nil {
		return "", fmt.Errorf("%w: no suggestion client configured", ErrInvalidInput)
	}
	imagePath, ok := c.nav.Current()
	if !ok {
		return "", ErrNoCurrentImage
	}
	return c.suggester.SuggestLabel(ctx, imagePath)
}

// RenameInputImages renames every image in the input folder to
// {prefix}{n}{ext} starting at start, then reloads the navigator so the
// cursor re-resolves against the annotation log.
func (c *Controller) RenameInputImages(prefix string, start int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inputFolder == "" {
		return 0, fmt.Errorf("%w: no input folder loaded", ErrInvalidInput)
	}

	renamed, err := loader.RenameAll(c.inputFolder, prefix, start)
	if err != nil {
		return 0, err
	}

	if err := c.reloadNavigator(); err != nil {
		return renamed, err
	}
	return renamed, nil
}

func (c *Controller) historyPath() string {
	return filepath.Join(c.outputFolder, session.FileName)
}
