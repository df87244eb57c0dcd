package faceseg

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jszwec/csvutil"
	"golang.org/x/term"

	"github.com/esimov/faceseg/utils"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

const appLabel = "⚡ FACESEG"

// Ops describes a batch segmentation run.
type Ops struct {
	// Src is an image file, a directory, a URL or PipeName for stdin.
	Src string
	// Dst is the output directory, or PipeName to write a single PNG to stdout.
	Dst      string
	PipeName string
	Workers  int
	Config   Config
	// Meta writes a <name>.csv file with one row per face next to the images.
	Meta bool
	// DetectorFor, when set, returns the detector used for the image at path,
	// e.g. a landmark dump stored next to it. Otherwise the processor
	// detector is used.
	DetectorFor func(path string) (Detector, error)
	// Out receives the status messages. Defaults to stderr.
	Out io.Writer

	spinner *utils.Spinner
	// srcDir is the walked directory of a directory run.
	srcDir string
}

// result holds the relevant information about the segmentation of one file.
type result struct {
	path string
	err  error
}

// faceRecord is a metadata CSV row.
type faceRecord struct {
	Image  string  `csv:"image"`
	Face   int     `csv:"face"`
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	Width  float64 `csv:"width"`
	Height float64 `csv:"height"`
	Points int     `csv:"points"`
	Path   string  `csv:"path"`
}

// Execute segments the faces of the source image(s) described by op and
// writes the requested outputs. A directory source is processed
// concurrently; a failing file doesn't stop the others.
func (p *Processor) Execute(op *Ops) error {
	if op.Out == nil {
		op.Out = os.Stderr
	}
	if op.PipeName == "" {
		op.PipeName = "-"
	}
	isDir := false
	if !utils.IsValidUrl(op.Src) && op.Src != op.PipeName {
		fs, err := os.Stat(op.Src)
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		isDir = fs.IsDir()
	}

	// The progress indicator is only shown for a single image, the
	// directory workers report their status line by line.
	if !isDir {
		op.spinner = utils.NewSpinner(op.Out, appLabel, true)
		op.spinner.DoneMsg = "faces segmented successfully"
		op.spinner.FailMsg = "face segmentation failed"

		// Capture CTRL-C signal and restore the cursor visibility.
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signalChan)
		go func() {
			if _, ok := <-signalChan; ok {
				op.spinner.RestoreCursor()
				os.Exit(1)
			}
		}()
	}

	var err error
	now := time.Now()
	if isDir {
		err = op.processDir(p)
	} else {
		err = op.process(p, op.Src)
		op.printOpStatus(op.Src, err)
	}

	if err == nil {
		fmt.Fprintf(op.Out, "\nExecution time: %s\n",
			utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
	return err
}

// processDir segments recursively the image files of the source directory
// with a pool of workers.
func (op *Ops) processDir(p *Processor) error {
	if op.Dst == op.PipeName {
		return errors.New("a directory source requires an output directory")
	}

	// Limit the concurrently running workers to maxWorkers.
	if op.Workers <= 0 || op.Workers > maxWorkers {
		op.Workers = runtime.NumCPU()
	}

	ch := make(chan result)
	done := make(chan interface{})
	defer close(done)

	op.srcDir = op.Src
	paths, errc := walkDir(done, op.Src, op.Dst)

	var wg sync.WaitGroup
	wg.Add(op.Workers)
	for i := 0; i < op.Workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(p, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	failed := 0
	for res := range ch {
		if res.err != nil {
			failed++
		}
		op.printOpStatus(res.path, res.err)
	}

	if err := <-errc; err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d image(s) could not be segmented", failed)
	}
	return nil
}

// consumer reads the path names from the paths channel and segments the
// corresponding images.
func (op *Ops) consumer(
	p *Processor,
	res chan<- result,
	done <-chan interface{},
	paths <-chan string,
) {
	for src := range paths {
		err := op.process(p, src)

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// process segments a single image and writes its outputs.
func (op *Ops) process(p *Processor, in string) (err error) {
	proc := &Processor{Detector: p.Detector, Logger: p.Logger, OnStateChange: p.OnStateChange}
	if sp := op.spinner; sp != nil {
		sp.Start("reading the image...")
		defer func() { sp.Stop(err) }()

		next := p.OnStateChange
		proc.OnStateChange = func(from, to State) {
			if msg := stageMessage(to); msg != "" {
				sp.SetStage(msg)
			}
			if next != nil {
				next(from, to)
			}
		}
	}

	src, cleanup, err := op.openSource(in)
	if err != nil {
		return err
	}
	defer cleanup()

	if op.DetectorFor != nil {
		if proc.Detector, err = op.DetectorFor(in); err != nil {
			return err
		}
	}

	res, err := proc.ProcessReader(src, op.Config)
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		fmt.Fprintf(op.Out, "\n%s\n", utils.DecorateText(e.Error(), utils.ErrorMessage))
	}

	if op.Dst == op.PipeName {
		return op.writePipe(res)
	}
	return op.writeOutputs(res, op.outputDir(in), outputName(in, op.PipeName))
}

// outputDir returns the directory the outputs of in are written to. Images
// found in subfolders of a walked directory keep their relative folder, so
// equally named images of different folders don't overwrite each other.
func (op *Ops) outputDir(in string) string {
	if op.srcDir == "" {
		return op.Dst
	}
	rel, err := filepath.Rel(op.srcDir, filepath.Dir(in))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return op.Dst
	}
	return filepath.Join(op.Dst, rel)
}

// stageMessage is the progress text shown while the pipeline is in state st.
func stageMessage(st State) string {
	switch st {
	case Detecting:
		return "detecting faces..."
	case BuildingOutlines:
		return "building the face outlines..."
	case Compositing:
		return "compositing the outputs..."
	}
	return ""
}

// openSource returns a reader for the source path, be it a URL, the pipe
// name or a regular file.
func (op *Ops) openSource(in string) (io.Reader, func(), error) {
	switch {
	case utils.IsValidUrl(in):
		f, err := utils.DownloadImage(in)
		if err != nil {
			if f != nil {
				f.Close()
				os.Remove(f.Name())
			}
			return nil, nil, err
		}
		return f, func() {
			f.Close()
			os.Remove(f.Name())
		}, nil
	case in == op.PipeName:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return os.Stdin, func() {}, nil
	default:
		f, err := os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
		return f, func() { f.Close() }, nil
	}
}

// writeOutputs stores every produced image, and optionally the face
// metadata, in dir.
func (op *Ops) writeOutputs(res *Result, dir, name string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}

	outputs := []struct {
		suffix string
		img    *image.NRGBA
	}{
		{"_debug", res.DebugImage},
		{"_faces", res.FacesImage},
		{"_cutout", res.CutoutFacesImage},
		{"_landmarks", res.LandmarksImage},
	}
	for i, crop := range res.FacesInBoundingBoxes {
		outputs = append(outputs, struct {
			suffix string
			img    *image.NRGBA
		}{fmt.Sprintf("_face_%d", i), crop})
	}

	for _, out := range outputs {
		if out.img == nil {
			continue
		}
		if err := writeImage(filepath.Join(dir, name+out.suffix+".png"), out.img); err != nil {
			return err
		}
	}

	if op.Meta {
		return writeMetadata(filepath.Join(dir, name+".csv"), name, res.Metadata)
	}
	return nil
}

// writePipe writes the first produced image to stdout.
func (op *Ops) writePipe(res *Result) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("`-` should be used with a pipe for stdout")
	}
	for _, img := range []*image.NRGBA{res.FacesImage, res.CutoutFacesImage, res.DebugImage, res.LandmarksImage} {
		if img != nil {
			return EncodeImage(os.Stdout, ".png", img)
		}
	}
	return errors.New("no output image requested")
}

func writeImage(name string, img image.Image) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}
	if err := EncodeImage(f, filepath.Ext(name), img); err != nil {
		f.Close()
		os.Remove(name)
		return err
	}
	return f.Close()
}

func writeMetadata(name, src string, md Metadata) error {
	records := make([]faceRecord, md.FaceCount)
	for i := range records {
		box := md.BoundingBoxes[i]
		records[i] = faceRecord{
			Image:  src,
			Face:   i,
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Points: len(md.Landmarks[i]),
			Path:   md.FacePaths[i].SVG(),
		}
	}
	b, err := csvutil.Marshal(records)
	if err != nil {
		return fmt.Errorf("unable to encode the face metadata: %w", err)
	}
	return os.WriteFile(name, b, 0644)
}

// outputName derives the base name of the output files from the source.
func outputName(src, pipeName string) string {
	if src == pipeName {
		return "stdin"
	}
	if utils.IsValidUrl(src) {
		if u, err := url.Parse(src); err == nil {
			src = path.Base(u.Path)
		}
	}
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if name == "" || name == "." || name == "/" {
		return "image"
	}
	return name
}

// printOpStatus displays the relevant information about the segmentation of a file.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(op.Out, "\n%s%s\n",
			utils.DecorateText(fmt.Sprintf("Error segmenting %s: ", filepath.Base(fname)), utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
		return
	}
	if op.Dst != op.PipeName {
		fmt.Fprintf(op.Out, "\nThe outputs of %s have been saved into: %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DecorateText(op.outputDir(fname), utils.SuccessMessage),
		)
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each supported image file
// to a new channel. The skip directory, usually the output folder, is not
// entered. It finishes in case the done channel is getting closed.
func walkDir(done <-chan interface{}, src, skip string) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	skipAbs := ""
	if skip != "" {
		skipAbs, _ = filepath.Abs(skip)
	}

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if f.IsDir() {
				if abs, _ := filepath.Abs(path); skipAbs != "" && abs == skipAbs && path != src {
					return filepath.SkipDir
				}
				return nil
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			if IsSupportedExtension(f.Name()) {
				select {
				case <-done:
					return errors.New("directory walk cancelled")
				case pathChan <- path:
				}
			}
			return nil
		})
	}()
	return pathChan, errChan
}
