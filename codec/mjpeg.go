package codec

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/dialup-inc/camview/frame"
	"github.com/pkg/errors"
)

// decodeJPEG decodes one motion-jpeg packet. The planes of the decoded image
// are handed over without copying.
func decodeJPEG(data []byte) (*frame.Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "mjpeg")
	}

	b := img.Bounds()
	f := &frame.Frame{Width: b.Dx(), Height: b.Dy()}

	switch m := img.(type) {
	case *image.Gray:
		f.Format = frame.Gray8
		f.Planes = [][]byte{m.Pix}
		f.Strides = []int{m.Stride}

	case *image.YCbCr:
		switch m.SubsampleRatio {
		case image.YCbCrSubsampleRatio420:
			f.Format = frame.YUV420P
		case image.YCbCrSubsampleRatio422:
			f.Format = frame.YUV422P
		case image.YCbCrSubsampleRatio444:
			f.Format = frame.YUV444P
		default:
			return nil, errors.Errorf("mjpeg: unsupported chroma subsampling %v", m.SubsampleRatio)
		}
		f.Planes = [][]byte{m.Y, m.Cb, m.Cr}
		f.Strides = []int{m.YStride, m.CStride, m.CStride}

	default:
		return nil, errors.Errorf("mjpeg: unsupported image type %T", img)
	}

	return f, nil
}
