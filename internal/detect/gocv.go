package detect

import (
	"fmt"
	"image"

	"plate-reader/pkg/geometry"

	"gocv.io/x/gocv"
)

// GoCV implements Vision using OpenCV via gocv.
type GoCV struct{}

// NewGoCV returns the OpenCV-backed vision capability.
func NewGoCV() *GoCV {
	return &GoCV{}
}

// Ready reports whether OpenCV is usable. The gocv bindings are linked
// at build time, so a constructed GoCV is always ready.
func (v *GoCV) Ready() bool {
	return v != nil
}

// FindCircles converts the image to grayscale, suppresses noise with a
// moderate Gaussian blur, and runs the Hough circle transform.
func (v *GoCV) FindCircles(src image.Image, minDist, edgeThreshold, accumThreshold float64, minRadius, maxRadius int) ([]geometry.Circle, error) {
	mat, err := imageToMat(src)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: 9, Y: 9}, 2, 2, gocv.BorderDefault)

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient,
		1.0, minDist, edgeThreshold, accumThreshold, minRadius, maxRadius)

	if circles.Empty() || circles.Cols() == 0 {
		return nil, nil
	}

	found := make([]geometry.Circle, circles.Cols())
	for i := 0; i < circles.Cols(); i++ {
		found[i] = geometry.Circle{
			Center: geometry.Point2D{
				X: float64(circles.GetFloatAt(0, i*3)),
				Y: float64(circles.GetFloatAt(0, i*3+1)),
			},
			Radius: float64(circles.GetFloatAt(0, i*3+2)),
		}
	}
	return found, nil
}

// FindContours converts to grayscale, blurs, runs Canny edge detection,
// and extracts external contours only.
func (v *GoCV) FindContours(src image.Image, lowThreshold, highThreshold float64) ([][]geometry.Point2D, error) {
	mat, err := imageToMat(src)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: 5, Y: 5}, 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, float32(lowThreshold), float32(highThreshold))

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([][]geometry.Point2D, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		pts := make([]geometry.Point2D, contour.Size())
		for j := 0; j < contour.Size(); j++ {
			p := contour.At(j)
			pts[j] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
		}
		out = append(out, pts)
	}
	return out, nil
}

// ApproxPolygon approximates a closed contour with the Douglas-Peucker
// algorithm at the given absolute tolerance.
func (v *GoCV) ApproxPolygon(contour []geometry.Point2D, tolerance float64) []geometry.Point2D {
	if len(contour) == 0 {
		return nil
	}

	pts := make([]image.Point, len(contour))
	for i, p := range contour {
		pts[i] = image.Point{X: int(p.X + 0.5), Y: int(p.Y + 0.5)}
	}
	pv := gocv.NewPointVectorFromPoints(pts)
	defer pv.Close()

	approx := gocv.ApproxPolyDP(pv, tolerance, true)
	defer approx.Close()

	out := make([]geometry.Point2D, approx.Size())
	for i := 0; i < approx.Size(); i++ {
		p := approx.At(i)
		out[i] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}

// EqualizeAdaptive applies CLAHE to the L channel of the image in Lab
// space, preserving chroma so sampled colors stay meaningful.
func (v *GoCV) EqualizeAdaptive(src image.Image, clipLimit float64) (image.Image, error) {
	mat, err := imageToMat(src)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(mat, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Point{X: 8, Y: 8})
	defer clahe.Close()

	equalized := gocv.NewMat()
	clahe.Apply(channels[0], &equalized)
	channels[0].Close()
	channels[0] = equalized

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(merged, &bgr, gocv.ColorLabToBGR)

	out, err := bgr.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert result: %w", err)
	}
	return out, nil
}

// imageToMat converts a Go image.Image to an OpenCV Mat in BGR order.
func imageToMat(src image.Image) (gocv.Mat, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.Mat{}, fmt.Errorf("empty image")
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat, nil
}
