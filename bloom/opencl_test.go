package bloom_test

import (
	"testing"

	"glbloom/bloom"
)

func TestProcessCl(t *testing.T) {
	proc, err := bloom.NewClProcessor(bloom.DefaultParams(), bloom.DeviceTypeGPU)
	if err != nil {
		t.Skipf("no opencl device available: %v", err)
	}
	defer proc.Release()

	result, err := proc.Process(testdata.point)
	if err != nil {
		t.Fatal(err)
	}

	reference, err := bloom.NewSwProcessor(bloom.DefaultParams()).Process(testdata.point)
	if err != nil {
		t.Fatal(err)
	}

	// hardware bilinear filtering uses reduced fractional precision
	if d := maxAbsDiff(result, reference); d > 0.05 {
		t.Errorf("cl result should match the software reference but differs by %v", d)
	}
}

func TestProcessClGrayPassthrough(t *testing.T) {
	proc, err := bloom.NewClProcessor(bloom.DefaultParams(), bloom.DeviceTypeGPU)
	if err != nil {
		t.Skipf("no opencl device available: %v", err)
	}
	defer proc.Release()

	result, err := proc.Process(testdata.gray)
	if err != nil {
		t.Fatal(err)
	}

	if d := maxAbsDiff(result, testdata.gray); d != 0 {
		t.Errorf("achromatic input should pass through unchanged but differs by %v", d)
	}
}
