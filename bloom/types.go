// Package bloom implements a mip chain based bloom post processing effect:
// bright, chromatic parts of an hdr image are extracted into a chain of
// render targets at halving resolutions, blurred by repeated downsampling
// and tent filtered upsampling, and added back onto the source image.
package bloom

import "glbloom/libio"

// Processor applies the full bloom pipeline to an hdr image and returns the
// combined result. Implementations exist for the cpu (NewSwProcessor),
// OpenGL (NewGlProcessor) and OpenCL (NewClProcessor).
type Processor interface {
	Process(src *libio.FloatImage) (*libio.FloatImage, error)
	Release()
}
