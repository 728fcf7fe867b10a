package detect

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// preprocess applies the optional image adjustments from the settings,
// in a fixed order: brightness, contrast, adaptive contrast, sharpen,
// blur. Detection and color sampling both operate on the returned
// buffer so the measured color matches what the detector saw.
func preprocess(v Vision, src image.Image, s Settings) (image.Image, error) {
	out := src

	if s.Brightness != 0 {
		out = adjust.Brightness(out, s.Brightness)
	}
	if s.Contrast != 0 {
		out = adjust.Contrast(out, s.Contrast)
	}
	if s.AdaptiveContrast {
		equalized, err := v.EqualizeAdaptive(out, s.ClipLimit)
		if err != nil {
			return nil, err
		}
		out = equalized
	}
	if s.Sharpen && s.SharpenAmount > 0 {
		out = effect.UnsharpMask(out, 3.0, s.SharpenAmount)
	}
	if s.BlurKernel > 0 {
		out = blur.Gaussian(out, float64(s.BlurKernel))
	}

	return out, nil
}
