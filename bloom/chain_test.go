package bloom_test

import (
	"errors"
	"testing"

	"glbloom/bloom"
)

func TestLevelSizes(t *testing.T) {
	sizes := bloom.LevelSizes(1920, 1080, 6)

	expected := [][2]int{
		{1920, 1080},
		{960, 540},
		{480, 270},
		{240, 135},
		{120, 67},
		{60, 33},
	}

	if len(sizes) != len(expected) {
		t.Fatalf("chain should have %d levels but has %d", len(expected), len(sizes))
	}
	for i, size := range sizes {
		if size != expected[i] {
			t.Errorf("level %d should be %v but is %v", i, expected[i], size)
		}
	}
}

func TestLevelSizesStopsAtOnePixel(t *testing.T) {
	sizes := bloom.LevelSizes(16, 2, 8)

	if len(sizes) != 2 {
		t.Fatalf("chain should stop after 2 levels but has %d", len(sizes))
	}
	if sizes[1] != [2]int{8, 1} {
		t.Errorf("level 1 should be [8 1] but is %v", sizes[1])
	}
}

func TestZeroLevelsFails(t *testing.T) {
	params := bloom.DefaultParams()
	params.Levels = 0
	proc := bloom.NewSwProcessor(params)
	defer proc.Release()

	_, err := proc.Process(testdata.point)
	var cfgErr *bloom.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("should fail with a configuration error but got %v", err)
	}
}

func TestSingleLevelChain(t *testing.T) {
	sizes := bloom.LevelSizes(64, 64, 1)
	if len(sizes) != 1 || sizes[0] != [2]int{64, 64} {
		t.Fatalf("single level chain should be [[64 64]] but is %v", sizes)
	}

	params := bloom.DefaultParams()
	params.Levels = 1
	proc := bloom.NewSwProcessor(params)
	defer proc.Release()

	result, err := proc.Process(testdata.point)
	if err != nil {
		t.Fatal(err)
	}
	if result.Width != 64 || result.Height != 64 {
		t.Errorf("result should be 64x64 but is %dx%d", result.Width, result.Height)
	}
}
