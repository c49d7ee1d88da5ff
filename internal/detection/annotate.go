package detection

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"helmet-detector-go/pkg/models"
)

var (
	helmetColor   = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	noHelmetColor = color.RGBA{R: 230, G: 30, B: 30, A: 255}
	otherColor    = color.RGBA{R: 30, G: 120, B: 230, A: 255}
	labelText     = color.White
)

// Annotator рисует рамки и подписи поверх изображения
type Annotator struct {
	lineWidth float64
	fontSize  float64
	font      *truetype.Font
}

// NewAnnotator создает рисовальщик с фиксированной толщиной линий и размером шрифта
func NewAnnotator(lineWidth, fontSize float64) (*Annotator, error) {
	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Annotator{lineWidth: lineWidth, fontSize: fontSize, font: font}, nil
}

// Annotate открывает изображение (с учётом EXIF ориентации) и рисует рамки
func (a *Annotator) Annotate(path string, detections models.DetectionSet) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return a.Draw(img, detections), nil
}

// Draw возвращает копию img с нарисованными детекциями
func (a *Annotator) Draw(img image.Image, detections models.DetectionSet) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(truetype.NewFace(a.font, &truetype.Options{Size: a.fontSize}))
	dc.SetLineWidth(a.lineWidth)

	for _, d := range detections {
		c := classColor(d.ClassName)

		dc.SetColor(c)
		dc.DrawRectangle(d.BBox.X1, d.BBox.Y1, d.BBox.Width(), d.BBox.Height())
		dc.Stroke()

		label := fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence)
		w, h := dc.MeasureString(label)
		pad := a.lineWidth

		// Подпись над рамкой, а если места нет - внутри неё
		top := d.BBox.Y1 - h - 2*pad
		if top < 0 {
			top = d.BBox.Y1
		}
		dc.DrawRectangle(d.BBox.X1, top, w+2*pad, h+2*pad)
		dc.Fill()

		dc.SetColor(labelText)
		dc.DrawString(label, d.BBox.X1+pad, top+h+pad)
	}

	return dc.Image()
}

func classColor(class string) color.Color {
	switch class {
	case models.ClassHelmet:
		return helmetColor
	case models.ClassNoHelmet:
		return noHelmetColor
	default:
		return otherColor
	}
}
