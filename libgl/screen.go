package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

var screenVao UnboundVertexArray

type vertexArray struct {
	glId uint32
}

type UnboundVertexArray interface {
	LabeledGlObject
	Id() uint32
	Bind() BoundVertexArray
	Delete()
}

type BoundVertexArray interface {
	UnboundVertexArray
}

func NewVertexArray() UnboundVertexArray {
	var id uint32
	gl.CreateVertexArrays(1, &id)
	return &vertexArray{
		glId: id,
	}
}

func (vao *vertexArray) Id() uint32 {
	return vao.glId
}

func (vao *vertexArray) SetDebugLabel(label string) {
	setObjectLabel(gl.VERTEX_ARRAY, vao.glId, label)
}

func (vao *vertexArray) Bind() BoundVertexArray {
	State.BindVertexArray(vao.glId)
	return BoundVertexArray(vao)
}

func (vao *vertexArray) Delete() {
	gl.DeleteVertexArrays(1, &vao.glId)
	vao.glId = 0
}

// DrawScreenTriangle draws a single triangle covering the whole viewport.
// The positions come from a constant table in the vertex shader indexed by
// gl_VertexID, so no vertex buffer is attached.
func DrawScreenTriangle() {
	if screenVao == nil {
		screenVao = NewVertexArray()
		screenVao.SetDebugLabel("screen triangle vao")
	}

	screenVao.Bind()
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}
