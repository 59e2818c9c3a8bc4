package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"glbloom/libio"

	"golang.org/x/image/draw"
)

type previewArgs struct {
	commonArgs
	gamma float64
	scale float64
	width int
}

func createPreviewCommand() *command {
	args := previewArgs{
		commonArgs: commonArgs{
			ext: ".png",
		},
		gamma: 2.2,
		scale: 1.0,
	}

	flags := flag.NewFlagSet("preview", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.Float64Var(&args.gamma, "gamma", args.gamma, "the tonemapping gamma")
	flags.Float64Var(&args.scale, "scale", args.scale, "the exposure scale applied before tonemapping")
	flags.IntVar(&args.width, "width", args.width, "downscale the preview to this width, 0 keeps the input size")

	return &command{
		Name: "preview",
		Help: "tonemap hdr images to png previews",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runPreview(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runPreview(args previewArgs, inputFiles []string) {
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
		err := previewFile(p, outFlags, args)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Previewed %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func previewFile(p string, outFlags int, args previewArgs) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	src, err := libio.DecodeFloatImage(inFile)
	if err != nil {
		return err
	}

	rgba := src.ToIntImage(float32(args.gamma), float32(args.scale)).ToRGBA()

	if args.width > 0 && args.width < src.Width {
		height := src.Height * args.width / src.Width
		scaled := image.NewRGBA(image.Rect(0, 0, args.width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), rgba, rgba.Bounds(), draw.Over, nil)
		rgba = scaled
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

	err = png.Encode(outFile, rgba)
	if err != nil {
		outFile.Close()
		os.Remove(outName)
		return err
	}

	return nil
}
