package bloom_test

import (
	"math"
	"testing"

	"glbloom/bloom"
)

func TestDownsample13Weights(t *testing.T) {
	var sum float64
	for _, tap := range bloom.Downsample13 {
		sum += float64(tap.Weight)
	}
	if math.Abs(sum-1.0) > 1e-5 {
		t.Errorf("downsample kernel weights should sum to 1.0 but sum to %v", sum)
	}
}

func TestUpsampleTent9Weights(t *testing.T) {
	var sum float64
	for _, tap := range bloom.UpsampleTent9 {
		sum += float64(tap.Weight)
	}
	if math.Abs(sum-1.0) > 1e-5 {
		t.Errorf("upsample kernel weights should sum to 1.0 but sum to %v", sum)
	}
}

func TestUpsampleTent9Symmetry(t *testing.T) {
	for _, tap := range bloom.UpsampleTent9 {
		found := false
		for _, mirror := range bloom.UpsampleTent9 {
			if mirror.Offset[0] == -tap.Offset[0] && mirror.Offset[1] == -tap.Offset[1] {
				if mirror.Weight != tap.Weight {
					t.Errorf("mirrored tap (%d, %d) should weigh %v but weighs %v",
						mirror.Offset[0], mirror.Offset[1], tap.Weight, mirror.Weight)
				}
				found = true
				break
			}
		}
		if !found {
			t.Errorf("tap (%d, %d) has no mirrored counterpart", tap.Offset[0], tap.Offset[1])
		}
	}
}
