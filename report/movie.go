package report

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/icza/mjpeg"
)

// FrameSpec fixes the layout of movie frames.
type FrameSpec struct {
	Scale   int // pixels per cell
	HerbMax int // herbivore colour ceiling
	CarnMax int // carnivore colour ceiling
}

// Frame composes the terrain and both density heatmaps, labelled with the
// year, into one image.
func Frame(islandMap string, herbs, carns [][]int, year int, spec FrameSpec) *image.RGBA {
	return CombineHorizontally(
		Labeled(TerrainImage(islandMap, spec.Scale), fmt.Sprintf("Year %d", year)),
		Labeled(Heatmap(herbs, spec.HerbMax, spec.Scale, HerbivoreHue), "Herbivores"),
		Labeled(Heatmap(carns, spec.CarnMax, spec.Scale, CarnivoreHue), "Carnivores"),
	)
}

// FrameSize returns the pixel size of frames for a rows x cols island.
func FrameSize(rows, cols int, spec FrameSpec) (width, height int) {
	return 3 * cols * spec.Scale, rows*spec.Scale + labelHeight
}

// MovieWriter appends frames to an MJPEG AVI file.
type MovieWriter struct {
	aw            mjpeg.AviWriter
	width, height int
	buf           bytes.Buffer
}

// NewMovieWriter creates the AVI file. All frames must be width x height.
func NewMovieWriter(path string, width, height, fps int) (*MovieWriter, error) {
	aw, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}
	return &MovieWriter{aw: aw, width: width, height: height}, nil
}

// AddFrame encodes img as JPEG and appends it.
func (m *MovieWriter) AddFrame(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != m.width || b.Dy() != m.height {
		return fmt.Errorf("movie frame is %dx%d, want %dx%d", b.Dx(), b.Dy(), m.width, m.height)
	}
	m.buf.Reset()
	if err := jpeg.Encode(&m.buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := m.aw.AddFrame(m.buf.Bytes()); err != nil {
		return fmt.Errorf("add frame: %w", err)
	}
	return nil
}

// Close finalises the AVI index.
func (m *MovieWriter) Close() error {
	return m.aw.Close()
}
