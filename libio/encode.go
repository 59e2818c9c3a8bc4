package libio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

func EncodeFloatImage(w io.Writer, img *FloatImage, compression FloatImageCompression) (err error) {
	var bw *BinaryWriter
	var ok bool

	if bw, ok = w.(*BinaryWriter); !ok {
		bw = &BinaryWriter{
			Dst:   w,
			Order: binary.LittleEndian,
		}

		defer func() {
			if bw.Err != nil {
				if err == nil {
					err = bw.Err
				} else {
					err = fmt.Errorf("%v: %w", err, bw.Err)
				}
			}
		}()
	}

	header := FloatImageHeader{
		Check:       MagicNumberF32,
		Version:     F32Version1_000_000,
		Width:       uint32(img.Width),
		Height:      uint32(img.Height),
		Channels:    uint8(img.Channels),
		Compression: compression,
	}

	if !bw.WriteRef(header) {
		return fmt.Errorf("could not write f32 header: %w", bw.Err)
	}

	switch compression {
	case FloatImageCompressionNone:
		if !bw.WriteRef(img.Pix) {
			return fmt.Errorf("could not write f32 pixels: %w", bw.Err)
		}
	case FloatImageCompressionLz4:
		buf := bytes.NewBuffer(make([]byte, 0, img.Bytes()))
		err = binary.Write(buf, bw.Order, img.Pix)
		if err != nil {
			return fmt.Errorf("could not encode f32 pixels: %w", err)
		}
		lzw := lz4.NewWriter(bw)
		lzw.Apply(lz4.CompressionLevelOption(lz4.Fast))
		_, err = lzw.Write(buf.Bytes())
		if err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
		if err = lzw.Close(); err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
	default:
		return fmt.Errorf("unsupported f32 compression %d", compression)
	}

	return nil
}
