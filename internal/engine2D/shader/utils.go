package shader

import (
	"image"
	"image/color"
)

// SolidImage returns a width x height image filled with c.
func SolidImage(c color.RGBA, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// WhiteImage is the 1x1 stand-in for a mask that was never painted.
func WhiteImage() *image.RGBA {
	return SolidImage(color.RGBA{255, 255, 255, 255}, 1, 1)
}
