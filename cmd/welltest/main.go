// Command welltest runs well detection on a plate image and outputs results.
// Optionally commits known concentrations per label and fits calibration lines.
package main

import (
	"flag"
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"

	"plate-reader/internal/app"
	"plate-reader/internal/calib"
	"plate-reader/internal/detect"
	"plate-reader/internal/export"
)

func main() {
	imagePath := flag.String("image", "", "Path to plate image (TIFF, PNG, or JPEG)")
	mode := flag.String("mode", "circle", "Detection mode: circle or rectangle")
	edge := flag.Float64("edge", 100, "Circle edge threshold (Hough param1)")
	accum := flag.Float64("accum", 30, "Circle accumulator threshold (Hough param2)")
	minRadius := flag.Int("min-radius", 10, "Minimum circle radius in pixels")
	maxRadius := flag.Int("max-radius", 80, "Maximum circle radius in pixels")
	minArea := flag.Float64("min-area", 400, "Minimum rectangle contour area in px²")
	maxArea := flag.Float64("max-area", 50000, "Maximum rectangle contour area in px²")
	fraction := flag.Float64("fraction", 0.7, "Central sampling fraction (0,1]")
	points := flag.String("points", "", "Known concentrations, e.g. \"a=0.5,b=1.0,c=2.0\"")
	exportPath := flag.String("export", "", "Write calibration JSON to this path")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: welltest -image <path> [-mode circle|rectangle] [-points a=0.5,b=1.0]")
		os.Exit(1)
	}

	img, err := imaging.Open(*imagePath, imaging.AutoOrientation(true))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open image: %v\n", err)
		os.Exit(1)
	}
	bounds := img.Bounds()
	fmt.Printf("Loaded image: %dx%d pixels\n", bounds.Dx(), bounds.Dy())

	settings := detect.DefaultSettings().
		WithRadiusRange(*minRadius, *maxRadius).
		WithAreaRange(*minArea, *maxArea).
		WithSampleFraction(*fraction)
	settings.EdgeThreshold = *edge
	settings.AccumThreshold = *accum
	if *mode == "rectangle" {
		settings = settings.WithMode(detect.ModeRectangle)
	}

	fmt.Printf("\nDetection settings:\n")
	fmt.Printf("  Mode: %s\n", settings.Mode)
	fmt.Printf("  Circle: edge=%.0f accum=%.0f radius %d-%d px\n",
		settings.EdgeThreshold, settings.AccumThreshold, settings.MinRadius, settings.MaxRadius)
	fmt.Printf("  Rectangle: area %.0f-%.0f px² epsilon=%.3f\n",
		settings.MinArea, settings.MaxArea, settings.Epsilon)
	fmt.Printf("  Sampling fraction: %.2f\n", settings.SampleFraction)

	state := app.NewState(detect.NewGoCV())
	if err := state.SetSettings(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}
	idx := state.AddImage(*imagePath)

	fmt.Printf("\nDetecting wells...\n")
	shapes, err := state.RunDetection(img, idx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}
	if len(shapes) == 0 {
		fmt.Println("No wells found; try adjusting parameters.")
		return
	}

	fmt.Printf("Found %d wells:\n", len(shapes))
	for _, s := range shapes {
		switch {
		case s.Circle != nil:
			fmt.Printf("  %s  %-9s circle  center=(%.0f,%.0f) r=%.1f  color=%s\n",
				s.ID, s.Label, s.Circle.Center.X, s.Circle.Center.Y, s.Circle.Radius, s.Color.Hex())
		case s.Rect != nil:
			fmt.Printf("  %s  %-9s rect    at=(%.0f,%.0f) %gx%g  color=%s\n",
				s.ID, s.Label, s.Rect.X, s.Rect.Y, s.Rect.Width, s.Rect.Height, s.Color.Hex())
		}
	}

	if *points != "" {
		if err := commitPoints(state, *points); err != nil {
			fmt.Fprintf(os.Stderr, "Bad -points value: %v\n", err)
			os.Exit(1)
		}
		models, err := state.FitModels()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Calibration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nCalibration lines (value = m·concentration + b):\n")
		for _, channel := range calib.Channels {
			m, ok := models[channel]
			if !ok {
				fmt.Printf("  %-9s (not fittable)\n", channel)
				continue
			}
			fmt.Printf("  %-9s m=%9.4f  b=%9.4f  r²=%.4f\n", channel, m.M, m.B, m.R2)
		}
	}

	if *exportPath != "" {
		if err := export.Save(*exportPath, state.ExportCalibration()); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nCalibration written to %s\n", *exportPath)
	}
}

// commitPoints parses "a=0.5,b=1.0" and commits each pair.
func commitPoints(state *app.State, arg string) error {
	for _, pair := range strings.Split(arg, ",") {
		label, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return fmt.Errorf("expected label=value, got %q", pair)
		}
		y, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("bad concentration for %q: %w", label, err)
		}
		state.CommitPoint(label, y)
	}
	return nil
}
