// Spritecut detects the frames of a sprite sheet and exports them without a server.
//
// Usage:
//
//	spritecut -in sheet.png [-bg auto|#rrggbb,...] [-seq 0-3,5] [-mode individual|combined|gif|grid] [-o name]
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/liondadev/sprite-toolkit/compose"
	"github.com/liondadev/sprite-toolkit/metadata"
	"github.com/liondadev/sprite-toolkit/sheet"
)

var (
	in     = flag.String("in", "", "Sprite sheet to read.")
	bg     = flag.String("bg", "off", "Background removal: off, auto or a comma separated list of hex colors.")
	seq    = flag.String("seq", "", "Animation sequence, e.g. 0-3,5. Empty means every frame.")
	mode   = flag.String("mode", "individual", "Export mode: individual, combined, gif or grid.")
	cols   = flag.Int("cols", 0, "Grid columns. With -rows, replaces detection with an even grid.")
	rows   = flag.Int("rows", 0, "Grid rows.")
	fps    = flag.Int("fps", sheet.DefaultFPS, "Frames per second of gif exports.")
	scale  = flag.Int("scale", 1, "Integer scale of exported images.")
	smooth = flag.Bool("antialias", false, "Scale with bilinear filtering instead of nearest neighbour.")
	format = flag.String("format", "png", "Image format of individual and combined exports: png, bmp or tiff.")
	meta   = flag.String("meta", "", "Also write frame metadata: json-array, texturepacker, aseprite or full.")
	out    = flag.String("o", compose.DefaultFilename, "Base name of the files to write.")
)

func parseBackground(s string) sheet.Background {
	switch strings.ToLower(s) {
	case "", "off":
		return sheet.Background{Mode: sheet.ModeOff}
	case "auto":
		return sheet.Background{Mode: sheet.ModeAuto}
	default:
		return sheet.ParseBackground(string(sheet.ModeManual), strings.Split(s, ","))
	}
}

func writeFile(name string, write func(f *os.File) error) {
	f, err := os.Create(name)
	if err != nil {
		log.Fatal(err)
	}
	if err := write(f); err != nil {
		f.Close()
		log.Fatalf("%s: %s", name, err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s", name)
}

func main() {
	flag.Parse()
	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatal(err)
	}

	src, kind, err := sheet.Decode(data)
	if err != nil {
		log.Fatalf("%s: %s", *in, err)
	}
	log.Printf("%s: %s %dx%d", *in, kind, src.Width, src.Height)

	editor := sheet.NewEditor(src, parseBackground(*bg))
	if *cols > 0 && *rows > 0 {
		editor.UseGrid(*cols, *rows)
	}
	if *seq != "" {
		editor.SetSequence(*seq)
	}
	editor.SetFPS(*fps)

	snap := editor.Recompute()
	for i, f := range snap.Frames {
		log.Printf("frame %d: %dx%d at (%d,%d)", i, f.Width, f.Height, f.X, f.Y)
	}
	log.Printf("Detected %d frames, sequence %v", len(snap.Frames), snap.Sequence)

	if len(snap.Frames) == 0 {
		log.Fatal("nothing to export")
	}

	opts := compose.Options{Format: compose.ParseFormat(*format), Scale: *scale, Antialias: *smooth}
	processed := editor.Processed()
	name := compose.Filename(*out, compose.DefaultFilename)

	selection := snap.Sequence
	switch *mode {
	case "individual":
		blobs, err := compose.Individual(processed, snap.Frames, selection, opts)
		if err != nil {
			log.Fatal(err)
		}
		writeFile(name+".zip", func(f *os.File) error { return compose.WriteArchive(f, blobs) })
	case "grid":
		blobs, err := compose.GridBlobs(processed, snap.Frames, max(*cols, 1), name, opts)
		if err != nil {
			log.Fatal(err)
		}
		writeFile(name+"-slices.zip", func(f *os.File) error { return compose.WriteArchive(f, blobs) })
	case "combined":
		strip, err := compose.Combined(processed, snap.Frames, selection, opts)
		if err != nil {
			log.Fatal(err)
		}
		writeFile(name+"."+opts.Ext(), func(f *os.File) error { return compose.Encode(f, strip, opts) })
	case "gif":
		writeFile(name+".gif", func(f *os.File) error {
			return compose.EncodeGIF(f, processed, snap.Frames, selection, snap.FPS, opts)
		})
	default:
		log.Fatalf("unknown mode %q", *mode)
	}

	if *meta != "" {
		e := metadata.Build(snap.Frames, snap.Sequence, snap.FPS, name+".png", snap.Width, snap.Height, *scale)
		writeFile(name+".json", func(f *os.File) error { return metadata.Encode(f, e, metadata.ParseFormat(*meta)) })
	}
}
