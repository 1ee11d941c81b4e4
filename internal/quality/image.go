package quality

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// analysisMaxSize is the edge length images are downscaled to before the
// liveness statistics are computed. Keeps the cost flat regardless of the
// kiosk camera resolution.
const analysisMaxSize = 256

// imageStats holds the liveness heuristics computed from a capture.
type imageStats struct {
	Variance  float64 // grayscale pixel variance; flat replays score low
	Sharpness float64 // mean absolute Laplacian; blurry printouts score low
}

// computeImageStats decodes, downscales and converts the capture to
// grayscale, then computes variance and Laplacian sharpness.
func computeImageStats(data []byte) (*imageStats, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	gray := downscaleGray(img, analysisMaxSize)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return nil, fmt.Errorf("image too small for analysis: %dx%d", w, h)
	}

	// Mean and variance over all pixels.
	var sum, sumSq float64
	for y := range h {
		for x := range w {
			v := float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			sum += v
			sumSq += v * v
		}
	}
	n := float64(w * h)
	mean := sum / n
	variance := sumSq/n - mean*mean

	// Mean absolute 4-neighbor Laplacian over interior pixels.
	var lapSum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			up := float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y-1).Y)
			down := float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y+1).Y)
			left := float64(gray.GrayAt(bounds.Min.X+x-1, bounds.Min.Y+y).Y)
			right := float64(gray.GrayAt(bounds.Min.X+x+1, bounds.Min.Y+y).Y)
			lap := 4*c - up - down - left - right
			if lap < 0 {
				lap = -lap
			}
			lapSum += lap
		}
	}
	sharpness := lapSum / float64((w-2)*(h-2))

	return &imageStats{Variance: variance, Sharpness: sharpness}, nil
}

// downscaleGray scales the image to fit within maxSize while keeping the
// aspect ratio and converts it to grayscale.
func downscaleGray(img image.Image, maxSize int) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	newWidth, newHeight := width, height
	if width > maxSize || height > maxSize {
		if width > height {
			newWidth = maxSize
			newHeight = int(float64(height) * float64(maxSize) / float64(width))
		} else {
			newHeight = maxSize
			newWidth = int(float64(width) * float64(maxSize) / float64(height))
		}
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	gray := image.NewGray(resized.Bounds())
	draw.Draw(gray, gray.Bounds(), resized, resized.Bounds().Min, draw.Src)
	return gray
}
