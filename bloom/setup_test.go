package bloom_test

import (
	"fmt"
	"os"
	"runtime"
	"testing"
	"unsafe"

	"glbloom/libgl"
	"glbloom/libio"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var onMain chan func()
var onMainDone chan struct{}

var context *glfw.Window

// hasGL is false when no display or driver is available. The software and
// opencl tests run regardless.
var hasGL bool

var testdata struct {
	gray  *libio.FloatImage
	point *libio.FloatImage
}

func TestMain(m *testing.M) {
	runtime.LockOSThread()

	if err := initGlContext(); err != nil {
		fmt.Printf("no gl context, skipping gl tests: %v\n", err)
	} else {
		hasGL = true
	}

	testdata.gray = uniformImage(64, 64, 0.5, 0.5, 0.5)
	testdata.point = pointImage(64, 64, 32, 32, 8.0, 4.0, 2.0)

	onMain = make(chan func())
	onMainDone = make(chan struct{})

	go func() {
		os.Exit(m.Run())
	}()

	for fn := range onMain {
		fn()
		onMainDone <- struct{}{}
	}
}

func initGlContext() (err error) {
	// The glfw binding logs PlatformError instead of returning it, so a
	// headless Init can "succeed" and the next call panics with
	// NotInitialized. Turn that panic into the error this function
	// already degrades on.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	if err := glfw.Init(); err != nil {
		return err
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	ctx, err := glfw.CreateWindow(640, 480, "Testing Window", nil, nil)
	if err != nil {
		return err
	}
	ctx.MakeContextCurrent()
	context = ctx

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	if err != nil {
		return err
	}

	libgl.State = libgl.NewStateManager()
	libgl.EnableDebugOutput(func(format string, args ...any) {
		fmt.Printf(format, args...)
	})

	return nil
}

func requireGl(t *testing.T) {
	if !hasGL {
		t.Skip("no gl context available")
	}
}

func uniformImage(width, height int, r, g, b float32) *libio.FloatImage {
	img := libio.NewEmptyFloatImage(3, width, height)
	for i := 0; i < width*height; i++ {
		img.Pix[i*3+0] = r
		img.Pix[i*3+1] = g
		img.Pix[i*3+2] = b
	}
	return img
}

func pointImage(width, height, x, y int, r, g, b float32) *libio.FloatImage {
	img := libio.NewEmptyFloatImage(3, width, height)
	i := img.Index(x, y)
	img.Pix[i+0] = r
	img.Pix[i+1] = g
	img.Pix[i+2] = b
	return img
}

// luminance of the texel at x, y
func lum(img *libio.FloatImage, x, y int) float32 {
	i := img.Index(x, y)
	return (img.Pix[i+0] + img.Pix[i+1] + img.Pix[i+2]) / 3
}

func maxAbsDiff(a, b *libio.FloatImage) float32 {
	var max float32
	for i := range a.Pix {
		d := math32.Abs(a.Pix[i] - b.Pix[i])
		if d > max {
			max = d
		}
	}
	return max
}
