package codec

import (
	"github.com/dialup-inc/camview/frame"
	"github.com/pkg/errors"
)

type decodeFunc func(data []byte) (*frame.Frame, error)

// queueDecoder decodes each packet synchronously and buffers the result until
// it is received.
type queueDecoder struct {
	decode decodeFunc

	format frame.PixelFormat
	size   frame.Size

	queue  []*frame.Frame
	eof    bool
	closed bool
}

func (d *queueDecoder) SendPacket(data []byte) error {
	if d.closed {
		return errors.New("codec: decoder closed")
	}
	if d.eof {
		return errors.New("codec: packet sent after end of stream")
	}
	if len(data) == 0 {
		return nil
	}

	f, err := d.decode(data)
	if err != nil {
		return err
	}
	d.queue = append(d.queue, f)
	return nil
}

func (d *queueDecoder) SendEOF() error {
	if d.eof {
		return errors.New("codec: end of stream already sent")
	}
	d.eof = true
	return nil
}

func (d *queueDecoder) ReceiveFrame() (*frame.Frame, error) {
	if len(d.queue) == 0 {
		if d.eof || d.closed {
			return nil, ErrEOF
		}
		return nil, ErrAgain
	}

	f := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return f, nil
}

func (d *queueDecoder) Format() frame.PixelFormat {
	return d.format
}

func (d *queueDecoder) Size() frame.Size {
	return d.size
}

func (d *queueDecoder) Close() error {
	d.closed = true
	d.queue = nil
	return nil
}
