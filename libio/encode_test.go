package libio_test

import (
	"bytes"
	"math/rand"
	"testing"

	"glbloom/libio"
)

func randomImage(channels, width, height int) *libio.FloatImage {
	rng := rand.New(rand.NewSource(0))
	pix := make([]float32, channels*width*height)
	for i := range pix {
		pix[i] = rng.Float32() * 10
	}
	return libio.NewFloatImage(pix, channels, width, height)
}

func TestFloatImageRoundTrip(t *testing.T) {
	for _, compression := range []libio.FloatImageCompression{
		libio.FloatImageCompressionNone,
		libio.FloatImageCompressionLz4,
	} {
		img := randomImage(3, 31, 17)

		buf := new(bytes.Buffer)
		if err := libio.EncodeFloatImage(buf, img, compression); err != nil {
			t.Fatal(err)
		}

		decoded, err := libio.DecodeFloatImage(buf)
		if err != nil {
			t.Fatal(err)
		}

		if decoded.Width != img.Width || decoded.Height != img.Height || decoded.Channels != img.Channels {
			t.Fatalf("decoded image should be 3x31x17 but is %dx%dx%d", decoded.Channels, decoded.Width, decoded.Height)
		}
		for i := range img.Pix {
			if decoded.Pix[i] != img.Pix[i] {
				t.Fatalf("decoded pixel %d should be %v but is %v (compression %d)", i, img.Pix[i], decoded.Pix[i], compression)
			}
		}
	}
}

func TestDecodeRejectsWrongMagic(t *testing.T) {
	if _, err := libio.DecodeFloatImage(bytes.NewReader([]byte("nonsense data"))); err == nil {
		t.Error("decoding garbage should fail")
	}
}

func TestDecodeRejectsEmptyImage(t *testing.T) {
	img := libio.NewFloatImage([]float32{}, 3, 0, 0)
	buf := new(bytes.Buffer)
	if err := libio.EncodeFloatImage(buf, img, libio.FloatImageCompressionNone); err != nil {
		t.Fatal(err)
	}
	if _, err := libio.DecodeFloatImage(buf); err == nil {
		t.Error("decoding an empty image should fail")
	}
}
