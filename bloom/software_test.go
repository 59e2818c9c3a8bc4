package bloom_test

import (
	"testing"

	"glbloom/bloom"

	"github.com/chewxy/math32"
)

func TestProcessSwGrayPassthrough(t *testing.T) {
	proc := bloom.NewSwProcessor(bloom.DefaultParams())
	defer proc.Release()

	result, err := proc.Process(testdata.gray)
	if err != nil {
		t.Fatal(err)
	}

	if d := maxAbsDiff(result, testdata.gray); d != 0 {
		t.Errorf("achromatic input should pass through unchanged but differs by %v", d)
	}
}

func TestProcessSwPointFalloff(t *testing.T) {
	proc := bloom.NewSwProcessor(bloom.DefaultParams())
	defer proc.Release()

	result, err := proc.Process(testdata.point)
	if err != nil {
		t.Fatal(err)
	}

	cx, cy := 32, 32
	center := lum(result, cx, cy)
	if center <= lum(testdata.point, cx, cy) {
		t.Errorf("bloom should add energy at the source texel")
	}

	// the blur must spread energy outward with a falloff, not duplicate the
	// point or lose it entirely
	if lum(result, cx+1, cy) <= 0 || lum(result, cx, cy+1) <= 0 {
		t.Errorf("bloom should spread energy to neighboring texels")
	}
	prev := center
	for _, d := range []int{1, 2, 4, 8, 16} {
		cur := lum(result, cx+d, cy)
		if cur >= prev {
			t.Errorf("bloom should fall off with distance, but lum at +%d (%v) >= closer lum (%v)", d, cur, prev)
		}
		prev = cur
	}

	// roughly radially symmetric
	for _, d := range []int{1, 2, 4, 8} {
		r := lum(result, cx+d, cy)
		l := lum(result, cx-d, cy)
		u := lum(result, cx, cy-d)
		if math32.Abs(r-l) > 0.05*center || math32.Abs(r-u) > 0.05*center {
			t.Errorf("bloom at distance %d should be symmetric: +x %v, -x %v, -y %v", d, r, l, u)
		}
	}
}

func TestProcessSwThresholdMonotonic(t *testing.T) {
	params := bloom.DefaultParams()
	params.Levels = 1
	proc := bloom.NewSwProcessor(params)
	defer proc.Release()

	var prev float32 = -1
	for _, scale := range []float32{0.1, 0.25, 0.5, 0.75, 1.0, 2.0} {
		scene := uniformImage(8, 8, scale, scale/2, scale/4)
		result, err := proc.Process(scene)
		if err != nil {
			t.Fatal(err)
		}
		seed := lum(result, 4, 4) - lum(scene, 4, 4)
		if seed < prev {
			t.Errorf("threshold output should grow with input, but %v at scale %v is below %v", seed, scale, prev)
		}
		prev = seed
	}
}

func TestProcessSwBoost(t *testing.T) {
	params := bloom.DefaultParams()
	params.Boost = 2.0
	proc := bloom.NewSwProcessor(params)
	defer proc.Release()

	result, err := proc.Process(testdata.point)
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range result.Pix {
		if math32.IsNaN(v) {
			t.Fatalf("boost must never produce NaN, found one at index %d", i)
		}
	}

	plain := bloom.NewSwProcessor(bloom.DefaultParams())
	defer plain.Release()
	reference, err := plain.Process(testdata.point)
	if err != nil {
		t.Fatal(err)
	}
	if lum(result, 32, 32) < lum(reference, 32, 32) {
		t.Errorf("boost should not darken the highlight")
	}
}

func TestProcessSwRejectsWrongChannels(t *testing.T) {
	proc := bloom.NewSwProcessor(bloom.DefaultParams())
	defer proc.Release()

	rgba := testdata.point.ToChannels(4, 1.0)
	if _, err := proc.Process(rgba); err == nil {
		t.Errorf("processing a 4 channel image should fail")
	}
}
