package libgl

import (
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type LabeledGlObject interface {
	SetDebugLabel(string)
}

func setObjectLabel(namespace, id uint32, label string) {
	bytes := []byte(label)
	gl.ObjectLabel(namespace, id, int32(len(bytes)), (*uint8)(unsafe.Pointer(&bytes[0])))
}

// PushDebugGroup opens a named group in the gl debug output stream.
// Pair it with PopDebugGroup.
func PushDebugGroup(name string) {
	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 999, -1, gl.Str(name+"\x00"))
}

func PopDebugGroup() {
	gl.PopDebugGroup()
}

// EnableDebugOutput installs a synchronous debug callback that forwards
// driver messages to logf.
func EnableDebugOutput(logf func(format string, args ...any)) {
	State.Enable(GlCapability(gl.DEBUG_OUTPUT))
	State.Enable(GlCapability(gl.DEBUG_OUTPUT_SYNCHRONOUS))
	gl.DebugMessageCallback(func(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
		logf("GL: %v\n", message)
	}, nil)
}

type Deleter interface {
	Delete()
}
