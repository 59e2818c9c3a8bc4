package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

type GlCapability uint32

const (
	DepthTest   GlCapability = gl.DEPTH_TEST
	Blend       GlCapability = gl.BLEND
	ScissorTest GlCapability = gl.SCISSOR_TEST
	CullFace    GlCapability = gl.CULL_FACE
)

type GlBlendFactor uint32

const (
	BlendZero             GlBlendFactor = gl.ZERO
	BlendOne              GlBlendFactor = gl.ONE
	BlendSrcAlpha         GlBlendFactor = gl.SRC_ALPHA
	BlendOneMinusSrcAlpha GlBlendFactor = gl.ONE_MINUS_SRC_ALPHA
)

type GlBlendEquation uint32

const (
	BlendFuncAdd GlBlendEquation = gl.FUNC_ADD
	BlendMax     GlBlendEquation = gl.MAX
)

// State tracks bound objects and capabilities to skip redundant gl calls.
// All libgl types route their binds through it.
var State *GlStateManager

type GlStateManager struct {
	Caps                             map[GlCapability]bool
	TextureUnits, SamplerUnits       []uint32
	DrawFramebuffer, ReadFramebuffer uint32
	ProgramPipeline, VertexArray     uint32
	ViewportRect                     [4]int
	BlendFactorSrc, BlendFactorDst   GlBlendFactor
	BlendEquationMode                GlBlendEquation
	ClearColorRGBA                   [4]float32
}

func NewStateManager() *GlStateManager {
	return &GlStateManager{
		Caps:         map[GlCapability]bool{},
		TextureUnits: make([]uint32, 32),
		SamplerUnits: make([]uint32, 32),
	}
}

func (s *GlStateManager) Enable(cap GlCapability) {
	if s.Caps[cap] {
		return
	}
	gl.Enable(uint32(cap))
	s.Caps[cap] = true
}

func (s *GlStateManager) Disable(cap GlCapability) {
	if !s.Caps[cap] {
		return
	}
	gl.Disable(uint32(cap))
	s.Caps[cap] = false
}

// SetEnabled enables exactly the given capabilities and disables all others.
func (s *GlStateManager) SetEnabled(caps ...GlCapability) {
	diff := map[GlCapability]bool{}
	for c, v := range s.Caps {
		if v {
			diff[c] = false
		}
	}
	for _, c := range caps {
		diff[c] = true
	}
	for c, v := range diff {
		if v {
			s.Enable(c)
		} else {
			s.Disable(c)
		}
	}
}

func (s *GlStateManager) BlendFunc(sfactor, dfactor GlBlendFactor) {
	if s.BlendFactorSrc == sfactor && s.BlendFactorDst == dfactor {
		return
	}
	gl.BlendFunc(uint32(sfactor), uint32(dfactor))
	s.BlendFactorSrc = sfactor
	s.BlendFactorDst = dfactor
}

func (s *GlStateManager) BlendEquation(mode GlBlendEquation) {
	if s.BlendEquationMode == mode {
		return
	}
	gl.BlendEquation(uint32(mode))
	s.BlendEquationMode = mode
}

func (s *GlStateManager) BindTextureUnit(unit int, texture uint32) {
	if s.TextureUnits[unit] == texture {
		return
	}
	gl.BindTextureUnit(uint32(unit), texture)
	s.TextureUnits[unit] = texture
}

func (s *GlStateManager) BindSampler(unit int, sampler uint32) {
	if s.SamplerUnits[unit] == sampler {
		return
	}
	gl.BindSampler(uint32(unit), sampler)
	s.SamplerUnits[unit] = sampler
}

func (s *GlStateManager) BindFramebuffer(target, framebuffer uint32) {
	switch target {
	case gl.FRAMEBUFFER:
		if s.DrawFramebuffer == framebuffer && s.ReadFramebuffer == framebuffer {
			return
		}
		s.DrawFramebuffer = framebuffer
		s.ReadFramebuffer = framebuffer
	case gl.DRAW_FRAMEBUFFER:
		if s.DrawFramebuffer == framebuffer {
			return
		}
		s.DrawFramebuffer = framebuffer
	case gl.READ_FRAMEBUFFER:
		if s.ReadFramebuffer == framebuffer {
			return
		}
		s.ReadFramebuffer = framebuffer
	}
	gl.BindFramebuffer(target, framebuffer)
}

func (s *GlStateManager) BindProgramPipeline(pipeline uint32) {
	if s.ProgramPipeline == pipeline {
		return
	}
	gl.BindProgramPipeline(pipeline)
	s.ProgramPipeline = pipeline
}

func (s *GlStateManager) BindVertexArray(array uint32) {
	if s.VertexArray == array {
		return
	}
	gl.BindVertexArray(array)
	s.VertexArray = array
}

func (s *GlStateManager) Viewport(x, y, w, h int) {
	rect := [4]int{x, y, w, h}
	if s.ViewportRect == rect {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	s.ViewportRect = rect
}

func (s *GlStateManager) ClearColor(r, g, b, a float32) {
	rgba := [4]float32{r, g, b, a}
	if s.ClearColorRGBA == rgba {
		return
	}
	gl.ClearColor(r, g, b, a)
	s.ClearColorRGBA = rgba
}
