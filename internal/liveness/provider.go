// Package liveness implements vision-model second opinions for the quality
// gate. A provider looks at the capture and answers a single question: does
// this show a live person in front of the camera, or a replayed photo or
// screen? Providers are optional and their failures must never block the
// clock; the gate degrades to accept when a provider errors out.
package liveness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

const livenessPrompt = `You are a liveness check for a face recognition time clock.
Look at the attached capture from the kiosk camera and decide whether it shows
a live person standing in front of the camera, or a presentation attack such as
a printed photo, a photo displayed on a phone or monitor, or a video replay.
Look for screen bezels, moire patterns, paper edges, glare on glossy surfaces
and unnatural flatness.

Respond with JSON only, in this exact shape:
{"live": true, "confidence": 0.95, "reason": "short explanation"}`

// verdict is the JSON shape every provider asks the model for.
type verdict struct {
	Live       bool    `json:"live"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// parseVerdict decodes a model response into a verdict.
func parseVerdict(content string) (*verdict, error) {
	var v verdict
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, fmt.Errorf("failed to parse liveness verdict: %w (response: %s)", err, content)
	}
	return &v, nil
}

// resizeImage resizes a capture to fit within maxSize (width or height) while
// keeping aspect ratio, re-encoding as JPEG. Keeps token costs down.
func resizeImage(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxSize && height <= maxSize {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return buf.Bytes(), nil
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = int(float64(height) * float64(maxSize) / float64(width))
	} else {
		newHeight = maxSize
		newWidth = int(float64(width) * float64(maxSize) / float64(height))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	return buf.Bytes(), nil
}
