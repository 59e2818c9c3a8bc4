package libgl

import (
	"fmt"
	"log"
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type shaderPipeline struct {
	glId      uint32
	vertStage ShaderProgram
	fragStage ShaderProgram
}

type UnboundShaderPipeline interface {
	Bind() BoundShaderPipeline
	Attach(program ShaderProgram, stages int)
	Get(stage int) ShaderProgram
	VertexStage() ShaderProgram
	FragmentStage() ShaderProgram
	Id() uint32
	Delete()
}

type BoundShaderPipeline interface {
	UnboundShaderPipeline
}

func NewPipeline() UnboundShaderPipeline {
	var id uint32
	gl.CreateProgramPipelines(1, &id)
	return &shaderPipeline{
		glId: id,
	}
}

func (p *shaderPipeline) Attach(program ShaderProgram, stages int) {
	gl.UseProgramStages(p.glId, uint32(stages), program.Id())
	if stages&gl.VERTEX_SHADER_BIT != 0 {
		p.vertStage = program
	}
	if stages&gl.FRAGMENT_SHADER_BIT != 0 {
		p.fragStage = program
	}
}

func (p *shaderPipeline) Get(stage int) ShaderProgram {
	switch stage {
	case gl.VERTEX_SHADER:
		return p.vertStage
	case gl.FRAGMENT_SHADER:
		return p.fragStage
	}
	log.Panicf("%d is not a valid shader stage", stage)
	return nil
}

func (p *shaderPipeline) VertexStage() ShaderProgram {
	return p.vertStage
}

func (p *shaderPipeline) FragmentStage() ShaderProgram {
	return p.fragStage
}

func (p *shaderPipeline) Bind() BoundShaderPipeline {
	State.BindProgramPipeline(p.glId)
	return BoundShaderPipeline(p)
}

func (p *shaderPipeline) Id() uint32 {
	return p.glId
}

func (p *shaderPipeline) Delete() {
	gl.DeleteProgramPipelines(1, &p.glId)
	p.glId = 0
}

type program struct {
	uniformLocations map[string]int32
	glId             uint32
	name             string
	source           string
	stage            uint32
}

type ShaderProgram interface {
	Id() uint32
	Name() string
	Compile() error
	GetUniformLocation(name string) int32
	SetUniform(name string, value any)
	Delete()
}

// NewShader wraps a single-stage separable program. Compile must be called
// before the program can be attached to a pipeline.
func NewShader(name, source string, stage uint32) ShaderProgram {
	return &program{
		name:   name,
		source: source,
		stage:  stage,
	}
}

func (prog *program) Name() string {
	return prog.name
}

func (prog *program) Compile() error {
	cStrs, free := gl.Strs(prog.source + "\x00")
	id := gl.CreateShaderProgramv(prog.stage, 1, cStrs)
	free()

	var ok int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		return fmt.Errorf("failed to link %v shader, log: %v", prog.name, readProgramInfoLog(id))
	}
	gl.ValidateProgram(id)
	gl.GetProgramiv(id, gl.VALIDATE_STATUS, &ok)
	if ok == gl.FALSE {
		return fmt.Errorf("failed to validate %v shader, log: %v", prog.name, readProgramInfoLog(id))
	}

	prog.glId = id
	prog.uniformLocations = map[string]int32{}

	return nil
}

func (prog *program) Id() uint32 {
	return prog.glId
}

func (prog *program) Delete() {
	gl.DeleteProgram(prog.glId)
	prog.glId = 0
}

func readProgramInfoLog(id uint32) string {
	var logLength int32
	gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)

	infoLog := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(id, logLength, nil, gl.Str(infoLog))
	return infoLog
}

func (prog *program) GetUniformLocation(name string) int32 {
	if location, ok := prog.uniformLocations[name]; ok {
		return location
	}

	location := gl.GetUniformLocation(prog.glId, gl.Str(name+"\x00"))
	prog.uniformLocations[name] = location

	if location == -1 {
		log.Printf("%v shader: could not get location of %q\n", prog.name, name)
	}

	return location
}

func (prog *program) SetUniform(name string, value any) {
	location := prog.GetUniformLocation(name)
	if location == -1 {
		return
	}

	switch v := value.(type) {
	case float32:
		gl.ProgramUniform1f(prog.glId, location, v)
	case int:
		gl.ProgramUniform1i(prog.glId, location, int32(v))
	case int32:
		gl.ProgramUniform1i(prog.glId, location, v)
	case uint32:
		gl.ProgramUniform1ui(prog.glId, location, v)
	case mgl32.Vec2:
		gl.ProgramUniform2f(prog.glId, location, v.X(), v.Y())
	case mgl32.Vec3:
		gl.ProgramUniform3f(prog.glId, location, v.X(), v.Y(), v.Z())
	case mgl32.Vec4:
		gl.ProgramUniform4f(prog.glId, location, v.X(), v.Y(), v.Z(), v.W())
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(prog.glId, location, 1, false, &v[0])
	default:
		log.Panicf("unsupported uniform type %T", value)
	}
}
