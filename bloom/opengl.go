package bloom

import (
	_ "embed"
	"fmt"

	"glbloom/libgl"
	"glbloom/libio"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed screen.vert
var screenVertSrc string

//go:embed prefilter.frag
var prefilterFragSrc string

//go:embed downsample.frag
var downsampleFragSrc string

//go:embed upsample.frag
var upsampleFragSrc string

//go:embed combine.frag
var combineFragSrc string

//go:embed blit.frag
var blitFragSrc string

// chainFormat is the single render target format of all mip levels. It must
// be color renderable and support linear filtering.
const chainFormat = gl.RGBA16F

// Effect runs the bloom pipeline on textures that already live on the gpu.
// It exclusively owns the mip chain render targets; the chain is only
// rebuilt by Resize, never in the middle of a frame.
type Effect struct {
	params          Params
	width, height   int
	chain           []libgl.UnboundTexture
	framebuffer     libgl.UnboundFramebuffer
	linearSampler   libgl.UnboundSampler
	nearestSampler  libgl.UnboundSampler
	vertShader      libgl.ShaderProgram
	prefilterShader libgl.UnboundShaderPipeline
	downShader      libgl.UnboundShaderPipeline
	upShader        libgl.UnboundShaderPipeline
	combineShader   libgl.UnboundShaderPipeline
}

func NewEffect(params Params) (effect *Effect, err error) {
	if err := params.validate(1, 1); err != nil {
		return nil, err
	}

	cleanup := []libgl.Deleter{}
	defer func() {
		if err != nil {
			for _, v := range cleanup {
				v.Delete()
			}
		}
	}()

	linearSampler := libgl.NewSampler()
	linearSampler.FilterMode(gl.LINEAR, gl.LINEAR)
	linearSampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	linearSampler.SetDebugLabel("bloom linear sampler")
	cleanup = append(cleanup, linearSampler)

	nearestSampler := libgl.NewSampler()
	nearestSampler.FilterMode(gl.NEAREST, gl.NEAREST)
	nearestSampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	nearestSampler.SetDebugLabel("bloom nearest sampler")
	cleanup = append(cleanup, nearestSampler)

	framebuffer := libgl.NewFramebuffer()
	framebuffer.BindTargets(0)
	framebuffer.SetDebugLabel("bloom framebuffer")
	cleanup = append(cleanup, framebuffer)

	vertShader := libgl.NewShader("bloom screen", screenVertSrc, gl.VERTEX_SHADER)
	if err := vertShader.Compile(); err != nil {
		return nil, err
	}
	cleanup = append(cleanup, vertShader)

	prefilterShader, err := newPassPipeline(vertShader, "bloom prefilter", prefilterFragSrc)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, prefilterShader)

	downShader, err := newPassPipeline(vertShader, "bloom downsample", downsampleFragSrc)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, downShader)

	upShader, err := newPassPipeline(vertShader, "bloom upsample", upsampleFragSrc)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, upShader)

	combineShader, err := newPassPipeline(vertShader, "bloom combine", combineFragSrc)
	if err != nil {
		return nil, err
	}

	return &Effect{
		params:          params,
		linearSampler:   linearSampler,
		nearestSampler:  nearestSampler,
		framebuffer:     framebuffer,
		vertShader:      vertShader,
		prefilterShader: prefilterShader,
		downShader:      downShader,
		upShader:        upShader,
		combineShader:   combineShader,
	}, nil
}

func newPassPipeline(vert libgl.ShaderProgram, name, fragSrc string) (libgl.UnboundShaderPipeline, error) {
	frag := libgl.NewShader(name, fragSrc, gl.FRAGMENT_SHADER)
	if err := frag.Compile(); err != nil {
		return nil, err
	}
	pipeline := libgl.NewPipeline()
	pipeline.Attach(vert, gl.VERTEX_SHADER_BIT)
	pipeline.Attach(frag, gl.FRAGMENT_SHADER_BIT)
	return pipeline, nil
}

func (effect *Effect) LevelCount() int {
	return len(effect.chain)
}

// Level returns the dimensions of mip level i of the current chain.
func (effect *Effect) Level(i int) (width, height int) {
	return effect.chain[i].Width(), effect.chain[i].Height()
}

// Resize rebuilds the mip chain for a new source resolution. When the
// allocation fails the previous chain is kept so the caller can keep
// rendering without bloom until resources recover.
func (effect *Effect) Resize(width, height int) error {
	if width == effect.width && height == effect.height {
		return nil
	}
	if err := effect.params.validate(width, height); err != nil {
		return err
	}

	sizes := LevelSizes(width, height, effect.params.Levels)
	chain := make([]libgl.UnboundTexture, len(sizes))
	for i, size := range sizes {
		tex := libgl.NewTexture()
		tex.Allocate(1, chainFormat, size[0], size[1])
		tex.SetDebugLabel(fmt.Sprintf("bloom mip %d", i))
		chain[i] = tex
		if code := gl.GetError(); code == gl.OUT_OF_MEMORY {
			for _, t := range chain[:i+1] {
				t.Delete()
			}
			return &AllocationError{Level: i, Cause: fmt.Errorf("out of device memory")}
		}
	}

	effect.framebuffer.AttachTexture(0, chain[0])
	if err := effect.framebuffer.Check(gl.DRAW_FRAMEBUFFER); err != nil {
		for _, t := range chain {
			t.Delete()
		}
		return &AllocationError{Level: 0, Cause: err}
	}

	for _, t := range effect.chain {
		t.Delete()
	}
	effect.chain = chain
	effect.width = width
	effect.height = height
	return nil
}

// Render runs the prefilter, downsample, upsample and combine passes in
// order. Each pass reads only the level written by the previous one. The
// combined bloom is additively blended onto target, which must already hold
// the scene color. Resize must have been called for the scene's dimensions.
func (effect *Effect) Render(scene libgl.UnboundTexture, target libgl.UnboundFramebuffer) {
	libgl.PushDebugGroup("bloom")
	defer libgl.PopDebugGroup()

	libgl.State.SetEnabled()
	effect.framebuffer.Bind(gl.DRAW_FRAMEBUFFER)

	// prefilter: scene -> mip 0
	effect.prefilterShader.Bind()
	effect.nearestSampler.Bind(0)
	scene.Bind(0)
	effect.framebuffer.AttachTexture(0, effect.chain[0])
	lo := effect.params.Threshold
	effect.prefilterShader.FragmentStage().SetUniform("u_threshold", mgl32.Vec2{lo, lo + effect.params.Knee})
	libgl.State.Viewport(0, 0, effect.chain[0].Width(), effect.chain[0].Height())
	libgl.DrawScreenTriangle()

	// downsample: mip i -> mip i+1, strictly in order
	effect.downShader.Bind()
	effect.linearSampler.Bind(0)
	for i := 0; i < len(effect.chain)-1; i++ {
		effect.chain[i].Bind(0)
		effect.framebuffer.AttachTexture(0, effect.chain[i+1])
		libgl.State.Viewport(0, 0, effect.chain[i+1].Width(), effect.chain[i+1].Height())
		libgl.DrawScreenTriangle()
	}

	// upsample: mip i -> mip i-1, added onto the downsample seed
	effect.upShader.Bind()
	effect.upShader.FragmentStage().SetUniform("u_boost", effect.params.Boost)
	libgl.State.Enable(libgl.Blend)
	libgl.State.BlendEquation(libgl.BlendFuncAdd)
	libgl.State.BlendFunc(libgl.BlendOne, libgl.BlendOne)
	for i := len(effect.chain) - 1; i > 0; i-- {
		effect.chain[i].Bind(0)
		effect.framebuffer.AttachTexture(0, effect.chain[i-1])
		libgl.State.Viewport(0, 0, effect.chain[i-1].Width(), effect.chain[i-1].Height())
		libgl.DrawScreenTriangle()
	}

	// combine: mip 0 onto the scene target
	effect.combineShader.Bind()
	effect.combineShader.FragmentStage().SetUniform("u_intensity", effect.params.Intensity)
	effect.chain[0].Bind(0)
	target.Bind(gl.DRAW_FRAMEBUFFER)
	libgl.State.Viewport(0, 0, effect.width, effect.height)
	libgl.DrawScreenTriangle()

	libgl.State.Disable(libgl.Blend)
}

func (effect *Effect) Release() {
	for _, t := range effect.chain {
		t.Delete()
	}
	effect.chain = nil
	for _, p := range []libgl.UnboundShaderPipeline{effect.prefilterShader, effect.downShader, effect.upShader, effect.combineShader} {
		p.FragmentStage().Delete()
		p.Delete()
	}
	effect.vertShader.Delete()
	effect.framebuffer.Delete()
	effect.linearSampler.Delete()
	effect.nearestSampler.Delete()
}

type glProcessor struct {
	effect        *Effect
	blitShader    libgl.UnboundShaderPipeline
	sceneTexture  libgl.UnboundTexture
	outputTexture libgl.UnboundTexture
	outputFbo     libgl.UnboundFramebuffer
}

// NewGlProcessor wraps Effect for images that live on the cpu: the source is
// uploaded, the passes run on the gpu and the combined result is read back.
// A current OpenGL 4.5 context is required on the calling thread.
func NewGlProcessor(params Params) (Processor, error) {
	effect, err := NewEffect(params)
	if err != nil {
		return nil, err
	}

	blitShader, err := newPassPipeline(effect.vertShader, "bloom blit", blitFragSrc)
	if err != nil {
		effect.Release()
		return nil, err
	}

	outputFbo := libgl.NewFramebuffer()
	outputFbo.BindTargets(0)
	outputFbo.SetDebugLabel("bloom output framebuffer")

	return &glProcessor{
		effect:     effect,
		blitShader: blitShader,
		outputFbo:  outputFbo,
	}, nil
}

func (proc *glProcessor) Process(src *libio.FloatImage) (*libio.FloatImage, error) {
	if src.Channels != 3 {
		return nil, &ConfigurationError{Field: "source", Reason: "must have 3 channels"}
	}
	if err := proc.effect.Resize(src.Width, src.Height); err != nil {
		return nil, err
	}
	proc.resizeTargets(src.Width, src.Height)

	proc.sceneTexture.Load(0, src.Width, src.Height, gl.RGB, src.Pix)

	// seed the output with the scene, the combine pass blends on top of it
	libgl.State.SetEnabled()
	proc.outputFbo.Bind(gl.DRAW_FRAMEBUFFER)
	proc.outputFbo.AttachTexture(0, proc.outputTexture)
	proc.blitShader.Bind()
	proc.effect.nearestSampler.Bind(0)
	proc.sceneTexture.Bind(0)
	libgl.State.Viewport(0, 0, src.Width, src.Height)
	libgl.DrawScreenTriangle()

	proc.effect.Render(proc.sceneTexture, proc.outputFbo)

	result := make([]float32, src.Width*src.Height*3)
	gl.GetTextureImage(proc.outputTexture.Id(), 0, gl.RGB, gl.FLOAT, int32(len(result)*4), libgl.Pointer(result))

	return libio.NewFloatImage(result, 3, src.Width, src.Height), nil
}

func (proc *glProcessor) resizeTargets(width, height int) {
	if proc.sceneTexture != nil && proc.sceneTexture.Width() == width && proc.sceneTexture.Height() == height {
		return
	}
	if proc.sceneTexture != nil {
		proc.sceneTexture.Delete()
		proc.outputTexture.Delete()
	}

	proc.sceneTexture = libgl.NewTexture()
	proc.sceneTexture.Allocate(1, chainFormat, width, height)
	proc.sceneTexture.SetDebugLabel("bloom scene")

	proc.outputTexture = libgl.NewTexture()
	proc.outputTexture.Allocate(1, chainFormat, width, height)
	proc.outputTexture.SetDebugLabel("bloom output")
}

func (proc *glProcessor) Release() {
	if proc.sceneTexture != nil {
		proc.sceneTexture.Delete()
		proc.outputTexture.Delete()
	}
	proc.outputFbo.Delete()
	proc.blitShader.FragmentStage().Delete()
	proc.blitShader.Delete()
	proc.effect.Release()
}
