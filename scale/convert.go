package scale

import (
	"image"
	"image/color"

	"github.com/dialup-inc/camview/frame"
	"github.com/dialup-inc/camview/yuv"
	"github.com/pkg/errors"
)

// toImage exposes a frame as a Go image, wrapping planes without copying where
// the layout allows it.
func toImage(f *frame.Frame) (image.Image, error) {
	rect := bounds(f)

	switch f.Format {
	case frame.RGBA:
		return &image.NRGBA{Pix: f.Plane(0), Stride: f.Stride(0), Rect: rect}, nil

	case frame.Gray8:
		return &image.Gray{Pix: f.Plane(0), Stride: f.Stride(0), Rect: rect}, nil

	case frame.RGB24:
		return unpackRGB(f, 3, 0, 1, 2, -1), nil
	case frame.BGR0:
		return unpackRGB(f, 4, 2, 1, 0, -1), nil
	case frame.ZeroRGB:
		return unpackRGB(f, 4, 1, 2, 3, -1), nil
	case frame.BGRA:
		return unpackRGB(f, 4, 2, 1, 0, 3), nil

	case frame.YUYV422:
		return yuv.FromPacked422(f.Plane(0), f.Stride(0), f.Width, f.Height, false)
	case frame.UYVY422:
		return yuv.FromPacked422(f.Plane(0), f.Stride(0), f.Width, f.Height, true)

	case frame.NV12:
		return yuv.FromNV12(f.Plane(0), f.Plane(1), f.Stride(0), f.Stride(1), f.Width, f.Height)

	case frame.YUV420P, frame.YUV422P, frame.YUV444P:
		if f.Stride(1) != f.Stride(2) {
			return nil, errors.Errorf("scale: chroma planes with different strides (%d, %d)", f.Stride(1), f.Stride(2))
		}
		ratio := image.YCbCrSubsampleRatio420
		switch f.Format {
		case frame.YUV422P:
			ratio = image.YCbCrSubsampleRatio422
		case frame.YUV444P:
			ratio = image.YCbCrSubsampleRatio444
		}
		return yuv.FromPlanar(f.Plane(0), f.Plane(1), f.Plane(2), f.Stride(0), f.Stride(1), ratio, f.Width, f.Height), nil
	}

	return nil, errors.Wrapf(ErrUnsupportedFormat, "source %v", f.Format)
}

// unpackRGB copies a packed 3 or 4 byte RGB layout into an NRGBA image. a < 0
// means the format has no alpha channel.
func unpackRGB(f *frame.Frame, bpp, r, g, b, a int) *image.NRGBA {
	img := image.NewNRGBA(bounds(f))
	for y := 0; y < f.Height; y++ {
		src := f.Row(0, y)
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			px := src[x*bpp : x*bpp+bpp]
			d := dst[x*4 : x*4+4]
			d[0], d[1], d[2], d[3] = px[r], px[g], px[b], 0xff
			if a >= 0 {
				d[3] = px[a]
			}
		}
	}
	return img
}

type sampler func(x, y int) (r, g, b, a uint8)

func samplerFor(img image.Image) sampler {
	switch m := img.(type) {
	case *image.NRGBA:
		return func(x, y int) (uint8, uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			return m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]
		}
	case *image.RGBA:
		return func(x, y int) (uint8, uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			return m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]
		}
	case *image.Gray:
		return func(x, y int) (uint8, uint8, uint8, uint8) {
			v := m.Pix[m.PixOffset(x, y)]
			return v, v, v, 0xff
		}
	case *image.YCbCr:
		return func(x, y int) (uint8, uint8, uint8, uint8) {
			yi, ci := m.YOffset(x, y), m.COffset(x, y)
			r, g, b := color.YCbCrToRGB(m.Y[yi], m.Cb[ci], m.Cr[ci])
			return r, g, b, 0xff
		}
	}
	return func(x, y int) (uint8, uint8, uint8, uint8) {
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		return c.R, c.G, c.B, c.A
	}
}

// fromImage packs img into a new frame of the given format.
func fromImage(img image.Image, format frame.PixelFormat) (*frame.Frame, error) {
	b := img.Bounds()
	out, err := frame.New(format, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	if format == frame.YUV420P {
		i420 := yuv.ToI420(img)
		for plane, data := range [][]byte{i420.Y, i420.Cb, i420.Cr} {
			stride := i420.YStride
			if plane > 0 {
				stride = i420.CStride
			}
			_, rows := format.PlaneGeometry(plane, out.Width, out.Height)
			for y := 0; y < rows; y++ {
				copy(out.Row(plane, y), data[y*stride:])
			}
		}
		return out, nil
	}

	at := samplerFor(img)
	bpp := format.BytesPerPixel()
	for y := 0; y < out.Height; y++ {
		row := out.Row(0, y)
		for x := 0; x < out.Width; x++ {
			r, g, bl, a := at(b.Min.X+x, b.Min.Y+y)
			px := row[x*bpp : x*bpp+bpp]
			switch format {
			case frame.RGB24:
				px[0], px[1], px[2] = r, g, bl
			case frame.RGBA:
				px[0], px[1], px[2], px[3] = r, g, bl, a
			case frame.BGR0:
				px[0], px[1], px[2], px[3] = bl, g, r, 0
			case frame.ZeroRGB:
				px[0], px[1], px[2], px[3] = 0, r, g, bl
			case frame.BGRA:
				px[0], px[1], px[2], px[3] = bl, g, r, a
			case frame.Gray8:
				px[0] = uint8((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(bl) + 1<<15) >> 16)
			default:
				return nil, errors.Wrapf(ErrUnsupportedFormat, "destination %v", format)
			}
		}
	}
	return out, nil
}
