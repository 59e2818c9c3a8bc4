package bloom_test

import (
	"testing"

	"glbloom/bloom"
	"glbloom/libio"
)

func TestProcessGl(t *testing.T) {
	requireGl(t)

	var proc bloom.Processor
	var err error

	onMain <- func() {
		proc, err = bloom.NewGlProcessor(bloom.DefaultParams())
	}
	<-onMainDone

	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		onMain <- func() {
			proc.Release()
		}
		<-onMainDone
	}()

	var result *libio.FloatImage
	onMain <- func() {
		result, err = proc.Process(testdata.point)
	}
	<-onMainDone
	if err != nil {
		t.Fatal(err)
	}

	reference, err := bloom.NewSwProcessor(bloom.DefaultParams()).Process(testdata.point)
	if err != nil {
		t.Fatal(err)
	}

	// half float targets quantize intermediate values
	if d := maxAbsDiff(result, reference); d > 0.05 {
		t.Errorf("gl result should match the software reference but differs by %v", d)
	}
}

func TestProcessGlGrayPassthrough(t *testing.T) {
	requireGl(t)

	var proc bloom.Processor
	var err error

	onMain <- func() {
		proc, err = bloom.NewGlProcessor(bloom.DefaultParams())
	}
	<-onMainDone

	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		onMain <- func() {
			proc.Release()
		}
		<-onMainDone
	}()

	var result *libio.FloatImage
	onMain <- func() {
		result, err = proc.Process(testdata.gray)
	}
	<-onMainDone
	if err != nil {
		t.Fatal(err)
	}

	// half float render targets round the scene color
	if d := maxAbsDiff(result, testdata.gray); d > 0.001 {
		t.Errorf("achromatic input should pass through unchanged but differs by %v", d)
	}
}

func TestEffectResize(t *testing.T) {
	requireGl(t)

	var effect *bloom.Effect
	var err error

	onMain <- func() {
		effect, err = bloom.NewEffect(bloom.DefaultParams())
		if err == nil {
			err = effect.Resize(1920, 1080)
		}
	}
	<-onMainDone

	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		onMain <- func() {
			effect.Release()
		}
		<-onMainDone
	}()

	if effect.LevelCount() != 8 {
		t.Errorf("chain should have 8 levels but has %d", effect.LevelCount())
	}
	w, h := effect.Level(1)
	if w != 960 || h != 540 {
		t.Errorf("level 1 should be 960x540 but is %dx%d", w, h)
	}

	onMain <- func() {
		err = effect.Resize(640, 480)
	}
	<-onMainDone
	if err != nil {
		t.Fatal(err)
	}
	if w, _ := effect.Level(0); w != 640 {
		t.Errorf("chain should track the new resolution")
	}
}
