/*
Package faceseg segments the faces of an image using the facial landmarks
reported by a face detector.

Every face outline is built from the jaw contour extended upwards by two
points raised past the eyebrows, then joined by a chain of Bézier curves
(or straight segments). The outlines are used to draw a debug overlay, an
image keeping only the faces, an image with the faces cut out, one square
crop per face and an image of the landmark points.

The package provides a command line interface and an HTTP server under
cmd/faceseg. To check the supported commands type:

	$ faceseg --help

The detector is pluggable. The detector package provides a cascade based
implementation and a static one reading landmarks exported by an external
tool:

	package main

	import (
		"log"
		"os"

		"github.com/esimov/faceseg"
		"github.com/esimov/faceseg/detector"
	)

	func main() {
		det, err := detector.ReadFile("portrait.json")
		if err != nil {
			log.Fatal(err)
		}
		f, err := os.Open("portrait.jpg")
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		cfg := faceseg.DefaultConfig()
		cfg.DrawFacesImage = true

		p := &faceseg.Processor{Detector: det}
		res, err := p.ProcessReader(f, cfg)
		if err != nil {
			log.Fatalf("error segmenting the faces: %v", err)
		}
		log.Printf("found %d face(s)", res.Metadata.FaceCount)
	}
*/
package faceseg
