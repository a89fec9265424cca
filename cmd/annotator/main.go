// Command annotator is a terminal front-end for labeling jersey number
// image datasets. It shows one image path at a time; typing a label records
// it (plus augmented copies) and advances to the next image.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	annotator "github.com/fawwaz-tasneem/JerseyNumberAnnotator"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/internal/config"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/internal/utils"
	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/annotate"
)

var (
	inDir      = flag.String("in", "", "folder of images to label")
	outDir     = flag.String("out", "", "folder for annotations and artifacts")
	augmentOn  = flag.Bool("augment", true, "write augmented copies of suitable images")
	seed       = flag.Int64("seed", 0, "augmentation random seed (0 = time-based)")
	configPath = flag.String("config", "", "config file (default "+config.GetConfigPath()+")")
	suggestOn  = flag.Bool("suggest", false, "enable :suggest via an Ollama vision model")
	model      = flag.String("model", "", "suggestion model (overrides config)")
	serverURL  = flag.String("url", "", "Ollama server URL (overrides config)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg := loadConfig()

	if *inDir == "" {
		*inDir = cfg.Folders.Input
	}
	if *outDir == "" {
		*outDir = cfg.Folders.Output
	}
	if *inDir == "" || *outDir == "" {
		klog.Exitf("-in and -out are required (or set folders in the config file)")
	}
	if !utils.DirExists(*inDir) {
		klog.Exitf("input folder %s does not exist", *inDir)
	}

	opts := annotator.Options{
		AugmentCount:        cfg.Augment.Count,
		JPEGQuality:         cfg.Augment.Quality,
		Seed:                *seed,
		AugmentationEnabled: *augmentOn,
	}
	if *suggestOn || cfg.Suggest.Enabled {
		opts.SuggestURL = cfg.Suggest.URL
		opts.SuggestModel = cfg.Suggest.Model
		if *serverURL != "" {
			opts.SuggestURL = *serverURL
		}
		if *model != "" {
			opts.SuggestModel = *model
		}
	}

	ctrl, err := annotator.New(opts)
	if err != nil {
		klog.Exitf("setup failed: %v", err)
	}

	ctrl.SetOutputFolder(*outDir)
	if err := ctrl.LoadFolder(*inDir); err != nil {
		klog.Exitf("load failed: %v", err)
	}

	fmt.Printf("session %d | %d suitable images across previous sessions\n", ctrl.SessionNumber(), ctrl.TotalSuitable())
	fmt.Println(`type a jersey number to label, "--" for unsuitable, :help for commands`)

	run(ctrl)
}

func loadConfig() *config.Config {
	path := *configPath
	explicit := path != ""
	if !explicit {
		path = config.GetConfigPath()
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		if explicit {
			klog.Exitf("config: %v", err)
		}
		return config.Default()
	}
	if err := cfg.Validate(); err != nil {
		klog.Exitf("config: %v", err)
	}
	return cfg
}

func run(ctrl *annotate.Controller) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		prompt(ctrl)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if quit := command(ctrl, line); quit {
				return
			}
			continue
		}

		if err := ctrl.SubmitLabel(line); err != nil {
			fmt.Printf("rejected: %v\n", err)
		}
	}
}

func prompt(ctrl *annotate.Controller) {
	done, total := ctrl.Progress()
	img, ok := ctrl.CurrentImage()
	if !ok {
		fmt.Printf("[%d/%d] all images annotated (:save to finish, :prev to revisit)\n> ", done, total)
		return
	}
	fmt.Printf("[%d/%d] %s\n> ", done, total, img)
}

func command(ctrl *annotate.Controller, line string) (quit bool) {
	fields := strings.Fields(line)

	switch fields[0] {
	case ":next":
		ctrl.Advance()
	case ":prev":
		ctrl.Retreat()
	case ":aug":
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			fmt.Println("usage: :aug on|off")
			return false
		}
		ctrl.ToggleAugmentation(fields[1] == "on")
	case ":suggest":
		label, err := ctrl.SuggestLabel(context.Background())
		if err != nil {
			fmt.Printf("suggestion failed: %v\n", err)
			return false
		}
		fmt.Printf("suggested label: %s\n", label)
	case ":rename":
		if len(fields) != 3 {
			fmt.Println("usage: :rename <prefix> <start>")
			return false
		}
		start, err := strconv.Atoi(fields[2])
		if err != nil {
			fmt.Printf("bad starting number %q\n", fields[2])
			return false
		}
		n, err := ctrl.RenameInputImages(fields[1], start)
		if err != nil {
			fmt.Printf("rename failed: %v\n", err)
			return false
		}
		fmt.Printf("renamed %d images\n", n)
	case ":resume":
		if err := ctrl.ResumeSession(); err != nil {
			fmt.Printf("resume failed: %v\n", err)
		}
	case ":save":
		if err := ctrl.SaveSession(); err != nil {
			fmt.Printf("save failed: %v\n", err)
			return false
		}
		s := ctrl.Session()
		fmt.Printf("session saved: %d annotated, %d suitable\n", s.ImagesAnnotated, s.SuitableImages)
		return true
	case ":quit":
		return true
	case ":help":
		fmt.Println(`commands:
  :next            skip to the next image
  :prev            go back to the previous image
  :aug on|off      toggle augmentation
  :suggest         ask the vision model for a label
  :rename P N      rename input images to P<N>, P<N+1>, ...
  :resume          start a fresh session, cursor on first unannotated image
  :save            save the session summary and exit
  :quit            exit without saving`)
	default:
		fmt.Printf("unknown command %s (:help for commands)\n", fields[0])
	}

	return false
}
