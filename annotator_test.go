package annotator

import (
	"testing"

	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/annotate"
)

func TestNew(t *testing.T) {
	ctrl, err := New(Options{AugmentationEnabled: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ctrl == nil {
		t.Fatal("New returned nil controller")
	}

	if ctrl.State() != annotate.Idle {
		t.Errorf("fresh controller state = %s, want idle", ctrl.State())
	}
	if !ctrl.AugmentationEnabled() {
		t.Error("augmentation toggle not carried over")
	}
}

func TestNewWithSuggestion(t *testing.T) {
	ctrl, err := New(Options{
		SuggestURL:   "http://localhost:11434",
		SuggestModel: "llava",
	})
	if err != nil {
		t.Fatalf("New with suggestion: %v", err)
	}
	if ctrl == nil {
		t.Fatal("New returned nil controller")
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version is empty")
	}
}
