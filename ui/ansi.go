package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/dialup-inc/camview/term"
	"github.com/nfnt/resize"
)

var chars = []byte(" .,:;i1tfLCG08@")

func (f Filter) interpolation() resize.InterpolationFunction {
	if f == Nearest {
		return resize.NearestNeighbor
	}
	return resize.Bilinear
}

// Image2ANSI renders img into cols x rows character cells, one byte slice per
// row. The image keeps its proportions and is centered; aspect is the height
// of a cell divided by its width.
func Image2ANSI(img image.Image, cols, rows int, aspect float64, filter Filter) [][]byte {
	if cols <= 0 || rows <= 0 {
		return nil
	}

	colors := term.ANSIPalette
	canvasRect := image.Rect(0, 0, cols, rows)
	canvas := image.NewPaletted(canvasRect, colors)

	// If there's an image, resize to fit inside canvas dimensions...
	if img != nil && !img.Bounds().Empty() {
		imgRect := img.Bounds()
		imgW, imgH := float64(imgRect.Dx())*aspect, float64(imgRect.Dy())
		fitW, fitH := float64(cols)/imgW, float64(rows)/imgH

		var scaleW, scaleH uint
		if fitW < fitH {
			scaleW = uint(imgW * fitW)
			scaleH = uint(imgH * fitW)
		} else {
			scaleW = uint(imgW * fitH)
			scaleH = uint(imgH * fitH)
		}

		if scaleW > 0 && scaleH > 0 {
			scaled := resize.Resize(scaleW, scaleH, img, filter.interpolation())

			offsetW, offsetH := (cols-int(scaleW))/2, (rows-int(scaleH))/2
			fitRect := image.Rect(
				offsetW,
				offsetH,
				offsetW+int(scaleW),
				offsetH+int(scaleH),
			)
			draw.Draw(canvas, fitRect, scaled, scaled.Bounds().Min, draw.Over)
		}
	}

	// Draw a character and colored ANSI escape sequence for each pixel...
	lines := make([][]byte, rows)
	for y := 0; y < rows; y++ {
		buf := bytes.NewBuffer(nil)
		a := term.ANSI{Writer: buf}

		currentColor := -1
		for _, p := range canvas.Pix[y*canvas.Stride : y*canvas.Stride+cols] {
			pxColor := colors[p]

			if int(p) != currentColor {
				a.Foreground(pxColor)

				currentColor = int(p)
			}

			k, _, _, _ := color.GrayModel.Convert(pxColor).RGBA()
			chr := int(k) * (len(chars) - 1) / 0xffff

			buf.WriteByte(chars[chr])
		}
		lines[y] = buf.Bytes()
	}

	return lines
}
