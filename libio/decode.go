package libio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

func DecodeFloatImage(r io.Reader) (img *FloatImage, err error) {
	var br *BinaryReader
	var ok bool

	if br, ok = r.(*BinaryReader); !ok {
		br = &BinaryReader{
			Src:   r,
			Order: binary.LittleEndian,
		}

		defer func() {
			if br.Err != nil {
				if err == nil {
					err = br.Err
				} else {
					err = fmt.Errorf("%v: %w", err, br.Err)
				}
			}
		}()
	}

	header := FloatImageHeader{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected f32 header; byte 0x%08x", br.LastIndex)
	}

	if header.Check != MagicNumberF32 {
		return nil, fmt.Errorf("f32 header is corrupt; byte 0x%08x", br.LastIndex)
	}

	if header.Version != F32Version1_000_000 {
		return nil, fmt.Errorf("f32 version %d unsupported; byte 0x%08x", header.Version, br.LastIndex)
	}

	if header.Channels == 0 || header.Width == 0 || header.Height == 0 {
		return nil, fmt.Errorf("f32 header describes an empty image; byte 0x%08x", br.LastIndex)
	}

	data := make([]float32, header.Width*header.Height*uint32(header.Channels))

	switch header.Compression {
	case FloatImageCompressionNone:
		br.ReadRef(data)
		err = br.Err
	case FloatImageCompressionLz4:
		lzr := lz4.NewReader(br.Src)
		err = binary.Read(lzr, br.Order, data)
	default:
		return nil, fmt.Errorf("unsupported f32 compression %d", header.Compression)
	}

	if err != nil {
		return nil, fmt.Errorf("could not decompress f32 pixels: %w", err)
	}

	return NewFloatImage(data, int(header.Channels), int(header.Width), int(header.Height)), nil
}
