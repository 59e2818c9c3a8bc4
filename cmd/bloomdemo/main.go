package main

import (
	_ "embed"
	"flag"
	"log"
	"runtime"
	"unsafe"

	"glbloom/bloom"
	"glbloom/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed screen.vert
var screenVertSrc string

//go:embed scene.frag
var sceneFragSrc string

type arguments struct {
	Width     int
	Height    int
	Threshold float64
	Knee      float64
	Intensity float64
	Boost     float64
	Levels    int
}

var Arguments = arguments{
	Width:  1280,
	Height: 720,
}

func main() {
	defaults := bloom.DefaultParams()
	flag.IntVar(&Arguments.Width, "width", Arguments.Width, "the window width")
	flag.IntVar(&Arguments.Height, "height", Arguments.Height, "the window height")
	flag.Float64Var(&Arguments.Threshold, "threshold", float64(defaults.Threshold), "the lower edge of the brightness gate")
	flag.Float64Var(&Arguments.Knee, "knee", float64(defaults.Knee), "the width of the brightness gate transition")
	flag.Float64Var(&Arguments.Intensity, "intensity", float64(defaults.Intensity), "the strength of the combined bloom")
	flag.Float64Var(&Arguments.Boost, "boost", float64(defaults.Boost), "the near-white highlight boost, 0 disables it")
	flag.IntVar(&Arguments.Levels, "levels", defaults.Levels, "the maximum number of blur levels")
	flag.Parse()

	ctx, err := initGLFW()
	if err != nil {
		log.Panic(err)
	}
	defer glfw.Terminate()
	err = initGL()
	if err != nil {
		log.Panic(err)
	}

	demo, err := newDemo(bloom.Params{
		Threshold: float32(Arguments.Threshold),
		Knee:      float32(Arguments.Knee),
		Intensity: float32(Arguments.Intensity),
		Boost:     float32(Arguments.Boost),
		Levels:    Arguments.Levels,
	})
	if err != nil {
		log.Panic(err)
	}

	width, height := ctx.GetFramebufferSize()
	ctx.SetFramebufferSizeCallback(func(w *glfw.Window, newWidth, newHeight int) {
		width, height = newWidth, newHeight
	})

	ctx.Show()
	for !ctx.ShouldClose() {
		glfw.PollEvents()
		if width > 0 && height > 0 {
			demo.resize(width, height)
			demo.draw(float32(glfw.GetTime()))
		}
		ctx.SwapBuffers()
	}
}

type demo struct {
	width, height int
	bloomEnabled  bool
	effect        *bloom.Effect
	scenePipeline libgl.UnboundShaderPipeline
	sceneTexture  libgl.UnboundTexture
	sceneFbo      libgl.UnboundFramebuffer
}

func newDemo(params bloom.Params) (*demo, error) {
	effect, err := bloom.NewEffect(params)
	if err != nil {
		return nil, err
	}

	vert := libgl.NewShader("demo screen", screenVertSrc, gl.VERTEX_SHADER)
	if err := vert.Compile(); err != nil {
		return nil, err
	}
	frag := libgl.NewShader("demo scene", sceneFragSrc, gl.FRAGMENT_SHADER)
	if err := frag.Compile(); err != nil {
		return nil, err
	}
	pipeline := libgl.NewPipeline()
	pipeline.Attach(vert, gl.VERTEX_SHADER_BIT)
	pipeline.Attach(frag, gl.FRAGMENT_SHADER_BIT)

	fbo := libgl.NewFramebuffer()
	fbo.BindTargets(0)
	fbo.SetDebugLabel("demo scene")

	return &demo{
		effect:        effect,
		bloomEnabled:  true,
		scenePipeline: pipeline,
		sceneFbo:      fbo,
	}, nil
}

func (d *demo) resize(width, height int) {
	if width == d.width && height == d.height {
		return
	}

	if d.sceneTexture != nil {
		d.sceneTexture.Delete()
	}
	d.sceneTexture = libgl.NewTexture()
	d.sceneTexture.Allocate(1, gl.RGBA16F, width, height)
	d.sceneTexture.SetDebugLabel("demo scene")
	d.sceneFbo.AttachTexture(0, d.sceneTexture)

	// a failed chain rebuild disables bloom instead of killing the demo
	if err := d.effect.Resize(width, height); err != nil {
		log.Printf("bloom disabled: %v\n", err)
		d.bloomEnabled = false
	} else {
		d.bloomEnabled = true
	}

	d.width, d.height = width, height
}

func (d *demo) draw(time float32) {
	libgl.State.SetEnabled()
	d.sceneFbo.Bind(gl.DRAW_FRAMEBUFFER)
	libgl.State.Viewport(0, 0, d.width, d.height)

	d.scenePipeline.Bind()
	d.scenePipeline.FragmentStage().SetUniform("u_time", time)
	d.scenePipeline.FragmentStage().SetUniform("u_resolution", mgl32.Vec2{float32(d.width), float32(d.height)})
	libgl.DrawScreenTriangle()

	if d.bloomEnabled {
		d.effect.Render(d.sceneTexture, d.sceneFbo)
	}

	gl.BlitNamedFramebuffer(d.sceneFbo.Id(), 0,
		0, 0, int32(d.width), int32(d.height),
		0, 0, int32(d.width), int32(d.height),
		gl.COLOR_BUFFER_BIT, gl.NEAREST)
}

func initGLFW() (*glfw.Window, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, err
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)

	ctx, err := glfw.CreateWindow(Arguments.Width, Arguments.Height, "Bloom Demo", nil, nil)
	if err != nil {
		return nil, err
	}
	ctx.MakeContextCurrent()
	glfw.SwapInterval(1)

	return ctx, nil
}

func initGL() error {
	err := gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
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
	libgl.EnableDebugOutput(log.Printf)

	return nil
}
