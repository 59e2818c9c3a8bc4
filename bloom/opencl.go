package bloom

import (
	_ "embed"
	"fmt"
	"unsafe"

	"glbloom/libio"

	"github.com/Qendolin/go-opencl/cl"
	"golang.org/x/exp/slices"
)

//go:embed bloom.cl
var openclBloomSrc string

type DeviceType = cl.DeviceType

const (
	DeviceTypeCPU         = DeviceType(cl.DeviceTypeCPU)
	DeviceTypeGPU         = DeviceType(cl.DeviceTypeGPU)
	DeviceTypeAccelerator = DeviceType(cl.DeviceTypeAccelerator)
)

type clCore struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
}

func newClCore(preferredDevice DeviceType, programs ...string) (core *clCore, err error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, err
	}

	var devices []*cl.Device
	for _, p := range platforms {
		devs, err := p.GetDevices(cl.DeviceTypeAll)
		if err != nil {
			continue
		}
		devices = append(devices, devs...)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no opencl devices found")
	}

	slices.SortFunc(devices, func(a, b *cl.Device) int {
		if a.Type() == preferredDevice && b.Type() != preferredDevice {
			return -1
		}
		if a.Type() != preferredDevice && b.Type() == preferredDevice {
			return 1
		}

		aPower := a.MaxComputeUnits() * a.MaxClockFrequency()
		bPower := b.MaxComputeUnits() * b.MaxClockFrequency()

		return aPower - bPower
	})

	device := devices[0]

	ctx, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, err
	}

	queue, err := ctx.CreateCommandQueue(device, 0)
	if err != nil {
		return nil, err
	}

	prog, err := ctx.CreateProgramWithSource(programs)
	if err != nil {
		return nil, err
	}
	err = prog.BuildProgram(nil, "")
	if err != nil {
		return nil, err
	}

	return &clCore{
		context: ctx,
		queue:   queue,
		program: prog,
	}, nil
}

type clProcessor struct {
	clCore
	params          Params
	prefilterKernel *cl.Kernel
	downKernel      *cl.Kernel
	upKernel        *cl.Kernel
	combineKernel   *cl.Kernel
}

// NewClProcessor runs the bloom pipeline with OpenCL, preferring devices of
// the given type. It needs no window or display connection.
func NewClProcessor(params Params, preferredDevice DeviceType) (Processor, error) {
	if err := params.validate(1, 1); err != nil {
		return nil, err
	}

	core, err := newClCore(preferredDevice, openclBloomSrc)
	if err != nil {
		return nil, err
	}

	proc := &clProcessor{
		clCore: *core,
		params: params,
	}
	for _, k := range []struct {
		name string
		dst  **cl.Kernel
	}{
		{"prefilter", &proc.prefilterKernel},
		{"downsample", &proc.downKernel},
		{"upsample_add", &proc.upKernel},
		{"combine", &proc.combineKernel},
	} {
		kernel, err := core.program.CreateKernel(k.name)
		if err != nil {
			return nil, err
		}
		*k.dst = kernel
	}

	return proc, nil
}

func (proc *clProcessor) Process(src *libio.FloatImage) (*libio.FloatImage, error) {
	if src.Channels != 3 {
		return nil, &ConfigurationError{Field: "source", Reason: "must have 3 channels"}
	}
	if err := proc.params.validate(src.Width, src.Height); err != nil {
		return nil, err
	}

	rgbaData := make([]float32, src.Width*src.Height*4)
	for i := 0; i < src.Width*src.Height; i++ {
		rgbaData[i*4+0] = src.Pix[i*3+0]
		rgbaData[i*4+1] = src.Pix[i*3+1]
		rgbaData[i*4+2] = src.Pix[i*3+2]
		rgbaData[i*4+3] = 1.0
	}

	sceneImage, err := proc.createChainImage(cl.MemReadOnly|cl.MemCopyHostPtr, src.Width, src.Height, unsafe.Pointer(&rgbaData[0]))
	if err != nil {
		return nil, err
	}
	defer sceneImage.Release()

	sizes := LevelSizes(src.Width, src.Height, proc.params.Levels)
	chain := make([]*cl.MemObject, len(sizes))
	for i, size := range sizes {
		chain[i], err = proc.createChainImage(cl.MemReadWrite, size[0], size[1], nil)
		if err != nil {
			return nil, &AllocationError{Level: i, Cause: err}
		}
		defer chain[i].Release()
	}

	// prefilter: scene -> level 0
	lo := proc.params.Threshold
	err = proc.enqueue(proc.prefilterKernel, sizes[0], []kernelArg{
		{buf: sceneImage}, {buf: chain[0]},
		{i32: int32(sizes[0][0]), isInt: true}, {i32: int32(sizes[0][1]), isInt: true},
		{f32: lo}, {f32: lo + proc.params.Knee},
	})
	if err != nil {
		return nil, err
	}

	// downsample: level i -> level i+1
	for i := 0; i < len(chain)-1; i++ {
		err = proc.enqueue(proc.downKernel, sizes[i+1], []kernelArg{
			{buf: chain[i]}, {buf: chain[i+1]},
			{i32: int32(sizes[i+1][0]), isInt: true}, {i32: int32(sizes[i+1][1]), isInt: true},
			{i32: int32(sizes[i][0]), isInt: true}, {i32: int32(sizes[i][1]), isInt: true},
		})
		if err != nil {
			return nil, err
		}
	}

	// upsample: level i added onto level i-1; the destination level doubles
	// as the base term so it is written to a fresh image
	acc := chain[len(chain)-1]
	for i := len(chain) - 1; i > 0; i-- {
		dst, err := proc.createChainImage(cl.MemReadWrite, sizes[i-1][0], sizes[i-1][1], nil)
		if err != nil {
			return nil, &AllocationError{Level: i - 1, Cause: err}
		}
		defer dst.Release()

		err = proc.enqueue(proc.upKernel, sizes[i-1], []kernelArg{
			{buf: acc}, {buf: chain[i-1]}, {buf: dst},
			{i32: int32(sizes[i-1][0]), isInt: true}, {i32: int32(sizes[i-1][1]), isInt: true},
			{i32: int32(sizes[i][0]), isInt: true}, {i32: int32(sizes[i][1]), isInt: true},
			{f32: proc.params.Boost},
		})
		if err != nil {
			return nil, err
		}
		acc = dst
	}

	dstImage, err := proc.createChainImage(cl.MemWriteOnly, src.Width, src.Height, nil)
	if err != nil {
		return nil, err
	}
	defer dstImage.Release()

	err = proc.enqueue(proc.combineKernel, [2]int{src.Width, src.Height}, []kernelArg{
		{buf: sceneImage}, {buf: acc}, {buf: dstImage},
		{i32: int32(src.Width), isInt: true}, {i32: int32(src.Height), isInt: true},
		{f32: proc.params.Intensity},
	})
	if err != nil {
		return nil, err
	}

	result := make([]float32, src.Width*src.Height*4)
	_, err = proc.queue.EnqueueReadImage(dstImage, true, [3]int{}, [3]int{src.Width, src.Height, 1}, 0, 0, unsafe.Pointer(&result[0]), nil)
	if err != nil {
		return nil, err
	}

	// compact RGBA to RGB
	for i := 0; i < len(result)/4; i++ {
		result[i*3+0] = result[i*4+0]
		result[i*3+1] = result[i*4+1]
		result[i*3+2] = result[i*4+2]
	}
	result = result[: src.Width*src.Height*3 : src.Width*src.Height*3]

	return libio.NewFloatImage(result, 3, src.Width, src.Height), nil
}

type kernelArg struct {
	buf   *cl.MemObject
	i32   int32
	f32   float32
	isInt bool
}

func (proc *clProcessor) enqueue(kernel *cl.Kernel, size [2]int, args []kernelArg) error {
	for i, arg := range args {
		var err error
		switch {
		case arg.buf != nil:
			err = kernel.SetArgBuffer(i, arg.buf)
		case arg.isInt:
			err = kernel.SetArgInt32(i, arg.i32)
		default:
			err = kernel.SetArgFloat32(i, arg.f32)
		}
		if err != nil {
			return err
		}
	}

	localWorkSize := []int{16, 16, 1}
	globalWorkSize := []int{
		roundUpKernelSize(localWorkSize[0], size[0]),
		roundUpKernelSize(localWorkSize[1], size[1]),
		1,
	}

	_, err := proc.queue.EnqueueNDRangeKernel(kernel, []int{0, 0, 0}, globalWorkSize, localWorkSize, nil)
	return err
}

func (proc *clProcessor) createChainImage(flags cl.MemFlag, width, height int, data unsafe.Pointer) (*cl.MemObject, error) {
	return proc.context.CreateImage(flags, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRGBA,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:   cl.MemObjectTypeImage2D,
		Width:  width,
		Height: height,
	}, width*height*4*4, data)
}

func (proc *clProcessor) Release() {
	proc.prefilterKernel.Release()
	proc.downKernel.Release()
	proc.upKernel.Release()
	proc.combineKernel.Release()
	proc.program.Release()
	proc.queue.Release()
	proc.context.Release()
}

func roundUpKernelSize(groupSize, globalSize int) int {
	r := globalSize % groupSize
	if r == 0 {
		return globalSize
	}
	return globalSize + groupSize - r
}
