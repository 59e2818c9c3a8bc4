package bloom

import (
	"glbloom/libio"

	"github.com/chewxy/math32"
)

type swProcessor struct {
	params Params
	chain  []*libio.FloatImage
}

// NewSwProcessor creates the cpu reference implementation. It produces the
// same results as the gpu backends within floating point tolerance.
func NewSwProcessor(params Params) Processor {
	return &swProcessor{params: params}
}

func (proc *swProcessor) Release() {
}

func (proc *swProcessor) Process(src *libio.FloatImage) (*libio.FloatImage, error) {
	if err := proc.params.validate(src.Width, src.Height); err != nil {
		return nil, err
	}
	if src.Channels != 3 {
		return nil, &ConfigurationError{Field: "source", Reason: "must have 3 channels"}
	}

	proc.rebuild(src.Width, src.Height)

	prefilter(src, proc.chain[0], proc.params)
	for i := 0; i < len(proc.chain)-1; i++ {
		downsample(proc.chain[i], proc.chain[i+1])
	}
	for i := len(proc.chain) - 1; i > 0; i-- {
		upsampleAdd(proc.chain[i], proc.chain[i-1], proc.params.Boost)
	}

	return combine(src, proc.chain[0], proc.params.Intensity), nil
}

func (proc *swProcessor) rebuild(width, height int) {
	sizes := LevelSizes(width, height, proc.params.Levels)
	if len(proc.chain) == len(sizes) && proc.chain[0].Width == width && proc.chain[0].Height == height {
		return
	}
	proc.chain = make([]*libio.FloatImage, len(sizes))
	for i, size := range sizes {
		proc.chain[i] = libio.NewEmptyFloatImage(3, size[0], size[1])
	}
}

// prefilter extracts the bloom seed into the full resolution level: the
// source is fetched at the texel itself (no filtering), achromatic texels
// are rejected and the rest is gated per channel with a smoothstep curve.
func prefilter(src, dst *libio.FloatImage, params Params) {
	lo := params.Threshold
	hi := params.Threshold + params.Knee
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			i := src.Index(x, y)
			j := dst.Index(x, y)
			r, g, b := src.Pix[i+0], src.Pix[i+1], src.Pix[i+2]
			if r == g && g == b {
				// gray counts as background, not emissive
				dst.Pix[j+0] = 0
				dst.Pix[j+1] = 0
				dst.Pix[j+2] = 0
				continue
			}
			dst.Pix[j+0] = smoothstep(lo, hi, r)
			dst.Pix[j+1] = smoothstep(lo, hi, g)
			dst.Pix[j+2] = smoothstep(lo, hi, b)
		}
	}
}

// downsample filters src into the half resolution dst with the 13 tap
// kernel. Each destination texel maps to its center in source texel space
// and accumulates all taps with bilinear filtering.
func downsample(src, dst *libio.FloatImage) {
	sw, sh := float32(src.Width), float32(src.Height)
	dw, dh := float32(dst.Width), float32(dst.Height)
	for y := 0; y < dst.Height; y++ {
		cy := (float32(y) + 0.5) / dh * sh
		for x := 0; x < dst.Width; x++ {
			cx := (float32(x) + 0.5) / dw * sw
			var r, g, b float32
			for _, tap := range Downsample13 {
				tr, tg, tb := sampleBilinear(src, cx+float32(tap.Offset[0]), cy+float32(tap.Offset[1]))
				r += tr * tap.Weight
				g += tg * tap.Weight
				b += tb * tap.Weight
			}
			j := dst.Index(x, y)
			dst.Pix[j+0] = r
			dst.Pix[j+1] = g
			dst.Pix[j+2] = b
		}
	}
}

// upsampleAdd filters src up to dst's resolution with the 3x3 tent kernel
// and adds the result onto dst's existing contents, which at that point hold
// the downsample seed for that level.
func upsampleAdd(src, dst *libio.FloatImage, boost float32) {
	sw, sh := float32(src.Width), float32(src.Height)
	dw, dh := float32(dst.Width), float32(dst.Height)
	for y := 0; y < dst.Height; y++ {
		cy := (float32(y) + 0.5) / dh * sh
		for x := 0; x < dst.Width; x++ {
			cx := (float32(x) + 0.5) / dw * sw
			var r, g, b float32
			for _, tap := range UpsampleTent9 {
				tr, tg, tb := sampleBilinear(src, cx+float32(tap.Offset[0]), cy+float32(tap.Offset[1]))
				r += tr * tap.Weight
				g += tg * tap.Weight
				b += tb * tap.Weight
			}
			if boost > 0 {
				r, g, b = boostWhites(r, g, b, boost)
			}
			j := dst.Index(x, y)
			dst.Pix[j+0] += r
			dst.Pix[j+1] += g
			dst.Pix[j+2] += b
		}
	}
}

// boostWhites raises colors by how well they align with the white axis.
// A zero length color contributes nothing instead of producing NaN.
func boostWhites(r, g, b, boost float32) (float32, float32, float32) {
	l := math32.Sqrt(r*r + g*g + b*b)
	if l == 0 {
		return 0, 0, 0
	}
	const invSqrt3 = 0.57735026
	a := (r + g + b) / l * invSqrt3
	f := 1 + boost*a*a
	return r * f, g * f, b * f
}

// combine adds the fully upsampled level 0 result onto the scene, scaled by
// intensity. NaN taps are rejected before blending.
func combine(scene, seed *libio.FloatImage, intensity float32) *libio.FloatImage {
	out := libio.NewEmptyFloatImage(3, scene.Width, scene.Height)
	for i := 0; i < len(scene.Pix); i++ {
		v := seed.Pix[i] * intensity
		if math32.IsNaN(v) {
			v = 0
		}
		out.Pix[i] = scene.Pix[i] + v
	}
	return out
}

func smoothstep(e0, e1, x float32) float32 {
	t := (x - e0) / (e1 - e0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

// sampleBilinear fetches img at a continuous texel coordinate with bilinear
// filtering and clamp-to-edge addressing.
func sampleBilinear(img *libio.FloatImage, u, v float32) (r, g, b float32) {
	// -0.5 to adjust for the pixel center offset
	u -= 0.5
	v -= 0.5
	if u < 0 {
		u = 0
	}
	if v < 0 {
		v = 0
	}
	ufloor, ufrac := math32.Modf(u)
	vfloor, vfrac := math32.Modf(v)
	ufloori, vfloori := int(ufloor), int(vfloor)
	uceili, vceili := ufloori+1, vfloori+1

	w, h := img.Width, img.Height
	if uceili >= w {
		uceili = w - 1
	}
	if ufloori >= uceili {
		ufloori = uceili
		ufrac = 0.0
	}
	if vceili >= h {
		vceili = h - 1
	}
	if vfloori >= vceili {
		vfloori = vceili
		vfrac = 0.0
	}

	colstride := img.Channels
	rowstride := img.Channels * w

	o00 := vfloori*rowstride + ufloori*colstride
	o10 := vfloori*rowstride + uceili*colstride
	o01 := vceili*rowstride + ufloori*colstride
	o11 := vceili*rowstride + uceili*colstride

	pix := img.Pix
	r00, g00, b00 := pix[o00+0], pix[o00+1], pix[o00+2]
	r10, g10, b10 := pix[o10+0], pix[o10+1], pix[o10+2]
	r01, g01, b01 := pix[o01+0], pix[o01+1], pix[o01+2]
	r11, g11, b11 := pix[o11+0], pix[o11+1], pix[o11+2]

	rh0 := r00*(1.0-ufrac) + r10*ufrac
	gh0 := g00*(1.0-ufrac) + g10*ufrac
	bh0 := b00*(1.0-ufrac) + b10*ufrac

	rh1 := r01*(1.0-ufrac) + r11*ufrac
	gh1 := g01*(1.0-ufrac) + g11*ufrac
	bh1 := b01*(1.0-ufrac) + b11*ufrac

	r = rh0*(1.0-vfrac) + rh1*vfrac
	g = gh0*(1.0-vfrac) + gh1*vfrac
	b = bh0*(1.0-vfrac) + bh1*vfrac

	return r, g, b
}
