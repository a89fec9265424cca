// Package annotator provides an interactive labeling pipeline for jersey
// number image datasets.
//
// A human annotator steps through a folder of images, assigns each a
// categorical label (the jersey number), and the pipeline persists the label
// plus optional synthetically augmented copies of the image for training.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		annotator "github.com/fawwaz-tasneem/JerseyNumberAnnotator"
//	)
//
//	func main() {
//		ctrl, err := annotator.New(annotator.Options{AugmentationEnabled: true})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		ctrl.SetOutputFolder("dataset/labeled")
//		if err := ctrl.LoadFolder("dataset/raw"); err != nil {
//			log.Fatal(err)
//		}
//
//		for {
//			img, ok := ctrl.CurrentImage()
//			if !ok {
//				break
//			}
//			fmt.Printf("labeling %s\n", img)
//			if err := ctrl.SubmitLabel("10"); err != nil {
//				log.Fatal(err)
//			}
//		}
//
//		if err := ctrl.SaveSession(); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The pipeline consists of five components:
//
//  1. Augmentation engine (pkg/augment): expands one labeled image into a
//     set of derived training samples via randomized transforms.
//  2. Annotation store (pkg/store): append-only CSV log of labels.
//  3. Session ledger (pkg/session): append-only JSON history of sessions.
//  4. Navigator (pkg/loader): sorted, resumable cursor over the input folder.
//  5. Controller (pkg/annotate): the state machine connecting them.
//
// Labels are free-form non-empty strings. The sentinel "unsuitable" (typed
// as "--") marks an image as unfit for augmentation but still annotated.
package annotator

import (
	"fmt"

	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/annotate"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/augment"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/suggest"
)

// Version of the annotator library
const Version = "1.0.0"

// Options configures the annotation pipeline.
type Options struct {
	// AugmentCount is the number of transformed copies per suitable image
	// (default 10).
	AugmentCount int
	// JPEGQuality is the encode quality for artifacts (default 90).
	JPEGQuality int
	// Seed seeds transform randomness; 0 means time-based.
	Seed int64
	// AugmentationEnabled is the initial augmentation toggle state.
	AugmentationEnabled bool
	// SuggestURL enables label suggestion against an Ollama server when set.
	SuggestURL string
	// SuggestModel is the vision model used for suggestions.
	SuggestModel string
}

// New assembles a session controller from the given options.
func New(opts Options) (*annotate.Controller, error) {
	engine := augment.NewWithConfig(augment.Config{
		Count:   opts.AugmentCount,
		Quality: opts.JPEGQuality,
		Seed:    opts.Seed,
	})

	var suggester *suggest.Client
	if opts.SuggestURL != "" {
		var err error
		suggester, err = suggest.NewClient(opts.SuggestURL, opts.SuggestModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create suggestion client: %w", err)
		}
	}

	return annotate.NewWithConfig(annotate.Config{
		Engine:              engine,
		Suggester:           suggester,
		AugmentationEnabled: opts.AugmentationEnabled,
	}), nil
}
