// Package suggest asks an Ollama vision model for the jersey number visible
// in an image. Suggestions are purely advisory; nothing here writes any
// annotation state.
package suggest

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ollama/ollama/api"

	"github.com/fawwaz-tasneem/JerseyNumberAnnotator/pkg/augment"
)

const prompt = "Look at this image of a football player. Reply with only the " +
	"jersey number visible on the player, as digits. If no jersey number is " +
	"clearly readable, reply with the single word: unsuitable"

// Keep uploads small; the models don't need full resolution to read a number.
const maxSendDim = 512

var numberRe = regexp.MustCompile(`\d{1,3}`)

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates a new suggestion client for the given Ollama server URL
// and model name.
func NewClient(ollamaURL, model string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{client: api.NewClient(baseURL, http.DefaultClient), model: model}, nil
}

// SuggestLabel sends the image at imagePath to the vision model and returns
// the suggested label: a digit string, or "unsuitable" when the model reports
// no readable number.
func (c *Client) SuggestLabel(ctx context.Context, imagePath string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 120*time.Second)
		defer cancel()
	}

	img, err := augment.LoadImage(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxSendDim || b.Dy() > maxSendDim {
		if b.Dx() >= b.Dy() {
			img = imaging.Resize(img, maxSendDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxSendDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(buf.Bytes())},
			},
		},
		Stream: &streamFalse,
	}

	var reply string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %v", err)
	}

	return parseReply(reply), nil
}

// parseReply extracts a label from the model's reply: the first run of
// digits, or "unsuitable" when none is found.
func parseReply(reply string) string {
	if m := numberRe.FindString(reply); m != "" {
		if trimmed := strings.TrimLeft(m, "0"); trimmed != "" {
			return trimmed
		}
		return "0"
	}
	return "unsuitable"
}
