package report

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const labelHeight = 16

var (
	background   = color.RGBA{0, 0, 0, 255}
	labelColor   = color.RGBA{255, 255, 255, 255}
	terrainColor = map[byte]color.RGBA{
		'W': {30, 80, 180, 255},
		'L': {60, 170, 60, 255},
		'H': {140, 200, 110, 255},
		'D': {230, 210, 130, 255},
	}
)

// HerbivoreHue and CarnivoreHue are the full-density heatmap colours.
var (
	HerbivoreHue = color.RGBA{80, 220, 120, 255}
	CarnivoreHue = color.RGBA{240, 70, 60, 255}
)

// Heatmap renders a rows x cols count grid with scale x scale pixels per
// cell. Colour ramps linearly from black at 0 to hue at cmax; counts above
// cmax saturate.
func Heatmap(counts [][]int, cmax, scale int, hue color.RGBA) *image.RGBA {
	rows := len(counts)
	cols := 0
	if rows > 0 {
		cols = len(counts[0])
	}
	if cmax < 1 {
		cmax = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, cols*scale, rows*scale))
	for i, row := range counts {
		for j, n := range row {
			t := min(float64(n)/float64(cmax), 1)
			c := color.RGBA{
				R: uint8(float64(hue.R) * t),
				G: uint8(float64(hue.G) * t),
				B: uint8(float64(hue.B) * t),
				A: 255,
			}
			fillRect(img, image.Rect(j*scale, i*scale, (j+1)*scale, (i+1)*scale), c)
		}
	}
	return img
}

// TerrainImage renders an island map with one colour per terrain code.
func TerrainImage(islandMap string, scale int) *image.RGBA {
	lines := strings.Split(strings.TrimSpace(islandMap), "\n")
	cols := 0
	for _, l := range lines {
		cols = max(cols, len(strings.TrimSpace(l)))
	}
	img := image.NewRGBA(image.Rect(0, 0, cols*scale, len(lines)*scale))
	fillRect(img, img.Bounds(), background)
	for i, l := range lines {
		l = strings.TrimSpace(l)
		for j := 0; j < len(l); j++ {
			c, ok := terrainColor[l[j]]
			if !ok {
				continue
			}
			fillRect(img, image.Rect(j*scale, i*scale, (j+1)*scale, (i+1)*scale), c)
		}
	}
	return img
}

// Labeled returns img with a caption strip above it.
func Labeled(img *image.RGBA, label string) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+labelHeight))
	fillRect(out, out.Bounds(), background)
	draw.Draw(out, image.Rect(0, labelHeight, b.Dx(), b.Dy()+labelHeight), img, b.Min, draw.Src)
	addLabel(out, 2, labelHeight-4, label, labelColor)
	return out
}

// CombineHorizontally places images side by side, top aligned.
func CombineHorizontally(images ...*image.RGBA) *image.RGBA {
	totalWidth, maxHeight := 0, 0
	for _, img := range images {
		totalWidth += img.Bounds().Dx()
		maxHeight = max(maxHeight, img.Bounds().Dy())
	}
	combined := image.NewRGBA(image.Rect(0, 0, totalWidth, maxHeight))
	fillRect(combined, combined.Bounds(), background)
	offsetX := 0
	for _, img := range images {
		rect := img.Bounds()
		draw.Draw(combined, image.Rect(offsetX, 0, offsetX+rect.Dx(), rect.Dy()), img, rect.Min, draw.Src)
		offsetX += rect.Dx()
	}
	return combined
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

func addLabel(img *image.RGBA, x, y int, label string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(label)
}
