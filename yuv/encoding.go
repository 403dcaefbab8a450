package yuv

import (
	"fmt"
	"image"
	"image/color"
)

// FromI420 decodes a tightly packed i420-encoded YUV image into a Go Image.
//
// See https://www.fourcc.org/pixel-format/yuv-i420/
func FromI420(frame []byte, width, height int) (*image.YCbCr, error) {
	cw, ch := (width+1)/2, (height+1)/2
	yi := width * height
	cbi := yi + cw*ch
	cri := cbi + cw*ch

	if cri > len(frame) {
		return nil, fmt.Errorf("frame length (%d) less than expected (%d)", len(frame), cri)
	}

	return FromPlanar(frame[:yi], frame[yi:cbi], frame[cbi:cri], width, cw, image.YCbCrSubsampleRatio420, width, height), nil
}

// FromPlanar wraps three existing planes without copying them.
func FromPlanar(y, cb, cr []byte, yStride, cStride int, ratio image.YCbCrSubsampleRatio, width, height int) *image.YCbCr {
	return &image.YCbCr{
		Y:              y,
		YStride:        yStride,
		Cb:             cb,
		Cr:             cr,
		CStride:        cStride,
		SubsampleRatio: ratio,
		Rect:           image.Rect(0, 0, width, height),
	}
}

// FromNV12 decodes an NV12 image (a luma plane followed by an interleaved
// CbCr plane) into a Go Image.
//
// See https://www.fourcc.org/pixel-format/yuv-nv12/
func FromNV12(y, uv []byte, yStride, uvStride, width, height int) (*image.YCbCr, error) {
	cw, ch := (width+1)/2, (height+1)/2
	if need := uvStride*(ch-1) + cw*2; len(uv) < need {
		return nil, fmt.Errorf("chroma plane length (%d) less than expected (%d)", len(uv), need)
	}

	cb := make([]byte, cw*ch)
	cr := make([]byte, cw*ch)
	for row := 0; row < ch; row++ {
		src := uv[row*uvStride:]
		for col := 0; col < cw; col++ {
			cb[row*cw+col] = src[col*2]
			cr[row*cw+col] = src[col*2+1]
		}
	}

	return FromPlanar(y, cb, cr, yStride, cw, image.YCbCrSubsampleRatio420, width, height), nil
}

// FromPacked422 decodes a packed 4:2:2 image. YUYV stores Y0 Cb Y1 Cr, UYVY
// stores Cb Y0 Cr Y1.
//
// See https://www.fourcc.org/pixel-format/yuv-yuy2/
func FromPacked422(frame []byte, stride, width, height int, uyvy bool) (*image.YCbCr, error) {
	cw := (width + 1) / 2
	if need := stride*(height-1) + cw*4; len(frame) < need {
		return nil, fmt.Errorf("frame length (%d) less than expected (%d)", len(frame), need)
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio422)

	yOff, cbOff, crOff := 0, 1, 3
	if uyvy {
		yOff, cbOff, crOff = 1, 0, 2
	}

	for row := 0; row < height; row++ {
		src := frame[row*stride:]
		for col := 0; col < cw; col++ {
			px := src[col*4 : col*4+4]

			x := col * 2
			img.Y[row*img.YStride+x] = px[yOff]
			if x+1 < width {
				img.Y[row*img.YStride+x+1] = px[yOff+2]
			}
			img.Cb[row*img.CStride+col] = px[cbOff]
			img.Cr[row*img.CStride+col] = px[crOff]
		}
	}

	return img, nil
}

func convertTo420(img image.Image) *image.YCbCr {
	bounds := img.Bounds()
	img420 := image.NewYCbCr(bounds, image.YCbCrSubsampleRatio420)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			yy, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))

			cy := img420.YOffset(x, y)
			ci := img420.COffset(x, y)
			img420.Y[cy] = yy
			img420.Cb[ci] = cb
			img420.Cr[ci] = cr
		}
	}

	return img420
}

// ToI420 converts a Go image into an I420-encoded YUV image.
//
// See https://www.fourcc.org/pixel-format/yuv-i420/
func ToI420(img image.Image) *image.YCbCr {
	if y, ok := img.(*image.YCbCr); ok && y.SubsampleRatio == image.YCbCrSubsampleRatio420 {
		// If the image is already I420, just use it
		return y
	}
	// Otherwise convert it to I420
	return convertTo420(img)
}
