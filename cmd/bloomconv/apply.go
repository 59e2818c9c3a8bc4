package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"glbloom/bloom"
	"glbloom/libio"
)

type applyArgs struct {
	commonArgs
	impl      impl
	threshold float64
	knee      float64
	intensity float64
	boost     float64
	levels    int
}

func createApplyCommand() *command {
	defaults := bloom.DefaultParams()

	args := applyArgs{
		commonArgs: commonArgs{
			ext:    ".f32",
			suffix: "_bloom",
		},
		impl:      implCl,
		threshold: float64(defaults.Threshold),
		knee:      float64(defaults.Knee),
		intensity: float64(defaults.Intensity),
		boost:     float64(defaults.Boost),
		levels:    defaults.Levels,
	}

	flags := flag.NewFlagSet("apply", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.Var(&args.impl, "impl", "the processing implementation; opencl or software")
	flags.Float64Var(&args.threshold, "threshold", args.threshold, "the lower edge of the brightness gate")
	flags.Float64Var(&args.knee, "knee", args.knee, "the width of the brightness gate transition")
	flags.Float64Var(&args.intensity, "intensity", args.intensity, "the strength of the combined bloom")
	flags.Float64Var(&args.boost, "boost", args.boost, "the near-white highlight boost, 0 disables it")
	flags.IntVar(&args.levels, "levels", args.levels, "the maximum number of blur levels")

	return &command{
		Name: "apply",
		Help: "apply bloom to hdr images",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runApply(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runApply(args applyArgs, inputFiles []string) {
	runtime.LockOSThread()

	params := bloom.Params{
		Threshold: float32(args.threshold),
		Knee:      float32(args.knee),
		Intensity: float32(args.intensity),
		Boost:     float32(args.boost),
		Levels:    args.levels,
	}

	var err error
	var proc bloom.Processor

	switch args.impl {
	case implCl:
		proc, err = bloom.NewClProcessor(params, bloom.DeviceTypeGPU)
		if err == nil {
			if !cargs.quiet {
				fmt.Println("Using OpenCL implementation")
			}
			break
		}
		softerr(err)
		if !cargs.quiet {
			fmt.Println("Falling back to software implementation")
		}
		fallthrough
	case implSw:
		proc = bloom.NewSwProcessor(params)
		if !cargs.quiet {
			fmt.Println("Using software implementation")
		}
	}
	defer proc.Release()

	outFlags := os.O_CREATE | os.O_WRONLY
	if cargs.force {
		outFlags |= os.O_TRUNC
	} else {
		outFlags |= os.O_EXCL
	}

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := applyFile(p, outFlags, proc)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Processed %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func applyFile(p string, outFlags int, proc bloom.Processor) error {
	src, err := readInputImage(p)
	if err != nil {
		return err
	}
	if src.Channels != 3 {
		src = src.ToChannels(3, 0, 0, 0)
	}

	result, err := proc.Process(src)
	if err != nil {
		return err
	}

	outName := outFilename(p, cargs.ext)
	outFile, err := os.OpenFile(outName, outFlags, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outName)))
	}

	compression := libio.FloatImageCompressionNone
	if cargs.compress > 0 {
		compression = libio.FloatImageCompressionLz4
	}

	err = libio.EncodeFloatImage(outFile, result, compression)
	if err != nil {
		outFile.Close()
		os.Remove(outName)
		return err
	}

	return nil
}

func readInputImage(p string) (*libio.FloatImage, error) {
	inFile, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer close(inFile)

	if strings.EqualFold(filepath.Ext(p), ".png") {
		img, err := png.Decode(inFile)
		if err != nil {
			return nil, err
		}
		rgba, ok := img.(*image.RGBA)
		if !ok {
			rgba = image.NewRGBA(img.Bounds())
			draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
		}
		return libio.FromRGBA(rgba, 3, 2.2), nil
	}

	return libio.DecodeFloatImage(inFile)
}
