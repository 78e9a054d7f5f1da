package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/papyrus-lang/papyrus/encode"
	"github.com/papyrus-lang/papyrus/internal/diag"
	"github.com/papyrus-lang/papyrus/ir"
	"github.com/papyrus-lang/papyrus/sema"
	"github.com/papyrus-lang/papyrus/vm"
)

var (
	redColor    = color.New(color.FgRed)
	yellowColor = color.New(color.FgYellow)
)

func newRunCmd() *cobra.Command {
	var imgFormat string
	var vidFormat string
	var exportFrames bool

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Compile and execute a .pprs script, writing one image per save_canvas()",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "img"
			if cmd.Flags().Changed("vid") {
				mode = "vid"
			}
			return runScript(args[0], mode, imgFormat, vidFormat, exportFrames)
		},
	}

	cmd.Flags().StringVar(&imgFormat, "img", "png", "still-image output format (png|jpg)")
	cmd.Flags().Lookup("img").NoOptDefVal = "png"
	cmd.Flags().StringVar(&vidFormat, "vid", "mp4", "video output format")
	cmd.Flags().Lookup("vid").NoOptDefVal = "mp4"
	cmd.Flags().BoolVar(&exportFrames, "export-frames", false, "write the --vid frame images under frames/ instead of the current directory")

	return cmd
}

// runScript drives the whole pipeline: validate, lower, execute, encode.
// Per §7, every compile-stage diagnostic is reported before aborting; the
// process exit code is handled by main() from the returned error.
func runScript(path string, mode, imgFormat, vidFormat string, exportFrames bool) error {
	if !strings.HasSuffix(path, ".pprs") {
		return fmt.Errorf("papyrus: script path %q must end in .pprs", path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("papyrus: %w", err)
	}

	v := sema.New(sema.FileLoader{})
	prog, bag := v.ValidateEntry(path)
	if bag != nil {
		reportDiagnostics(bag)
		return fmt.Errorf("papyrus: %d diagnostic(s)", bag.Len())
	}

	rt, err := ir.Lower(prog)
	if err != nil {
		redColor.Fprintln(os.Stderr, err)
		return err
	}

	canvases, err := vm.New(rt).Run()
	if err != nil {
		redColor.Fprintln(os.Stderr, err)
		return err
	}

	if mode == "vid" {
		return writeVideoFrames(canvases, vidFormat, exportFrames)
	}
	return writeStillImages(canvases, imgFormat)
}

func reportDiagnostics(bag *diag.Bag) {
	for _, d := range bag.All() {
		redColor.Fprintln(os.Stderr, d.String())
	}
	yellowColor.Fprintf(os.Stderr, "%d diagnostic(s)\n", bag.Len())
}

// writeStillImages is the default `--img` mode: one canvasN.<ext> file per
// save_canvas() call, in source-emission order (spec §6).
func writeStillImages(canvases []*vm.Canvas, format string) error {
	f, err := encode.ParseFormat(format)
	if err != nil {
		return err
	}
	for i, c := range canvases {
		name := fmt.Sprintf("canvas%d.%s", i, f.Ext())
		if err := writeCanvasFile(name, c, f); err != nil {
			return err
		}
	}
	return nil
}

// writeVideoFrames is the `--vid` mode. No third-party or standard-library
// video muxer is grounded anywhere in the reference corpus (no mp4/ffmpeg
// binding in any _examples/*/go.mod), so true video encoding is not
// fabricated here: Papyrus exports the per-save_canvas() sequence as a
// numbered frame sequence (frame0, frame1, ...) in the current directory,
// or under frames/ instead when --export-frames is set, for a caller to
// hand to an external muxer.
func writeVideoFrames(canvases []*vm.Canvas, format string, exportFrames bool) error {
	f, err := encode.ParseFormat(strings.TrimSuffix(format, "4")) // "mp4" has no PNG/JPEG analogue; fall back to png frames
	if err != nil {
		f = encode.PNG
	}
	dir := "frames"
	if exportFrames {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	for i, c := range canvases {
		name := fmt.Sprintf("frame%d.%s", i, f.Ext())
		if exportFrames {
			name = filepath.Join(dir, name)
		}
		if err := writeCanvasFile(name, c, f); err != nil {
			return err
		}
	}
	yellowColor.Fprintln(os.Stderr, "papyrus: no video muxer is wired (none available in the reference corpus); wrote a frame sequence instead")
	return nil
}

func writeCanvasFile(name string, c *vm.Canvas, f encode.Format) error {
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	defer out.Close()
	return encode.Write(out, c, f)
}
