package augment

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Transform identifies one kind of randomized image transformation.
type Transform int

const (
	Rotate Transform = iota
	AddNoise
	ShiftPerspective
	AdjustHue
	AdjustBrightnessContrast
	GaussianBlur
	RandomCropResize
	AffineTransform

	numTransforms
)

// String returns the transform name.
func (t Transform) String() string {
	switch t {
	case Rotate:
		return "rotate"
	case AddNoise:
		return "add_noise"
	case ShiftPerspective:
		return "shift_perspective"
	case AdjustHue:
		return "adjust_hue"
	case AdjustBrightnessContrast:
		return "adjust_brightness_contrast"
	case GaussianBlur:
		return "gaussian_blur"
	case RandomCropResize:
		return "random_crop_resize"
	case AffineTransform:
		return "affine_transform"
	}
	return "unknown"
}

// Apply runs one transform against src and returns a new image of the same
// dimensions. Randomness comes from rng, independent per call. A transform
// whose geometry constraints cannot be met returns src unchanged instead of
// failing.
func Apply(t Transform, src *image.NRGBA, rng *rand.Rand) image.Image {
	switch t {
	case Rotate:
		return rotate(src, rng)
	case AddNoise:
		return addNoise(src, rng)
	case ShiftPerspective:
		return shiftPerspective(src, rng)
	case AdjustHue:
		return adjustHue(src, rng)
	case AdjustBrightnessContrast:
		return adjustBrightnessContrast(src, rng)
	case GaussianBlur:
		return gaussianBlur(src, rng)
	case RandomCropResize:
		return randomCropResize(src, rng)
	case AffineTransform:
		return affineTransform(src, rng)
	}
	return src
}

// rotate turns the image by a random angle in [-25, 25] degrees about its
// center, cropping back to the original dimensions.
func rotate(src *image.NRGBA, rng *rand.Rand) image.Image {
	angle := rng.Float64()*50 - 25
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	rotated := imaging.Rotate(src, angle, color.NRGBA{0, 0, 0, 255})
	return imaging.CropAnchor(rotated, w, h, imaging.Center)
}

// addNoise adds uniform per-channel noise in [0, 30), saturating at 255.
func addNoise(src *image.NRGBA, rng *rand.Rand) image.Image {
	out := imaging.Clone(src)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := int(out.Pix[i+c]) + rng.Intn(30)
			if v > 255 {
				v = 255
			}
			out.Pix[i+c] = uint8(v)
		}
	}
	return out
}

// shiftPerspective warps the image so its four corners land on randomly
// jittered positions, each corner shifted by up to 20px per axis.
func shiftPerspective(src *image.NRGBA, rng *rand.Rand) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return src
	}

	corners := [4][2]float64{
		{0, 0},
		{float64(w - 1), 0},
		{0, float64(h - 1)},
		{float64(w - 1), float64(h - 1)},
	}
	jittered := corners
	for i := range jittered {
		jittered[i][0] += rng.Float64()*40 - 20
		jittered[i][1] += rng.Float64()*40 - 20
	}

	// Inverse mapping: homography from warped corner positions back to the
	// source corners, so each output pixel samples directly from the source.
	hm, ok := homography(jittered, corners)
	if !ok {
		return src
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx, fy := float64(x), float64(y)
			d := hm[6]*fx + hm[7]*fy + 1
			if d == 0 {
				continue
			}
			u := (hm[0]*fx + hm[1]*fy + hm[2]) / d
			v := (hm[3]*fx + hm[4]*fy + hm[5]) / d
			out.SetNRGBA(x, y, sampleBilinear(src, u, v))
		}
	}
	return out
}

// adjustHue shifts the hue channel by a random delta of up to 20 degrees in
// either direction, wrapping around the color circle.
func adjustHue(src *image.NRGBA, rng *rand.Rand) image.Image {
	delta := (rng.Intn(21) - 10) * 2
	return adjust.Hue(src, delta)
}

// adjustBrightnessContrast applies pixel' = clamp(alpha*pixel + beta) with
// alpha in [0.7, 1.3] and beta in [-30, 30].
func adjustBrightnessContrast(src *image.NRGBA, rng *rand.Rand) image.Image {
	alpha := 0.7 + rng.Float64()*0.6
	beta := rng.Float64()*60 - 30

	out := imaging.Clone(src)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := alpha*float64(out.Pix[i+c]) + beta
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			out.Pix[i+c] = uint8(v + 0.5)
		}
	}
	return out
}

// gaussianBlur blurs with a randomly chosen kernel size of 3 or 5.
func gaussianBlur(src *image.NRGBA, rng *rand.Rand) image.Image {
	// Sigma equivalents for 3x3 and 5x5 kernels.
	sigma := 0.8
	if rng.Intn(2) == 1 {
		sigma = 1.1
	}
	return imaging.Blur(src, sigma)
}

// randomCropResize crops a random margin off each axis and scales the result
// back to the original dimensions. Images too small to crop pass through
// unchanged.
func randomCropResize(src *image.NRGBA, rng *rand.Rand) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 30 || h < 30 {
		return src
	}

	maxX, maxY := w/6, h/6
	if maxX <= 5 || maxY <= 5 {
		return src
	}

	mx := 5 + rng.Intn(maxX-5)
	my := 5 + rng.Intn(maxY-5)

	cropped := imaging.Crop(src, image.Rect(mx, my, w-mx, h-my))
	return imaging.Resize(cropped, w, h, imaging.Lanczos)
}

// affineTransform warps the image with an affine map defined by jittering
// three control points by up to 10px per axis.
func affineTransform(src *image.NRGBA, rng *rand.Rand) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return src
	}

	// Control points: top-left, top-right, bottom-left.
	jx := func() float64 { return rng.Float64()*20 - 10 }
	d0 := [2]float64{jx(), jx()}
	d1 := [2]float64{float64(w-1) + jx(), jx()}
	d2 := [2]float64{jx(), float64(h-1) + jx()}

	// Affine matrix mapping the source control points to their jittered
	// destinations; closed form since the sources are axis-aligned.
	fw, fh := float64(w-1), float64(h-1)
	m := f64.Aff3{
		(d1[0] - d0[0]) / fw, (d2[0] - d0[0]) / fh, d0[0],
		(d1[1] - d0[1]) / fw, (d2[1] - d0[1]) / fh, d0[1],
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Transform(out, m, src, src.Bounds(), xdraw.Src, nil)
	return out
}

// homography solves for the 8-parameter projective map taking the four from
// points to the four to points. Returns false if the system is degenerate.
func homography(from, to [4][2]float64) ([8]float64, bool) {
	// Two equations per correspondence, unknowns h0..h7.
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := from[i][0], from[i][1]
		u, v := to[i][0], to[i][1]
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -u * x, -u * y, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -v * x, -v * y, v}
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if abs(a[r][col]) > abs(a[pivot][col]) {
				pivot = r
			}
		}
		if abs(a[pivot][col]) < 1e-10 {
			return [8]float64{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			factor := a[r][col] / a[col][col]
			for c := col; c < 9; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}

	var hm [8]float64
	for i := 0; i < 8; i++ {
		hm[i] = a[i][8] / a[i][i]
	}
	return hm, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// sampleBilinear samples src at the fractional coordinate (u, v), returning
// black for points outside the image.
func sampleBilinear(src *image.NRGBA, u, v float64) color.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if u < 0 || v < 0 || u > float64(w-1) || v > float64(h-1) {
		return color.NRGBA{0, 0, 0, 255}
	}

	x0, y0 := int(u), int(v)
	x1, y1 := x0+1, y0+1
	if x1 > w-1 {
		x1 = w - 1
	}
	if y1 > h-1 {
		y1 = h - 1
	}
	fx, fy := u-float64(x0), v-float64(y0)

	blend := func(c00, c10, c01, c11 uint8) uint8 {
		top := float64(c00)*(1-fx) + float64(c10)*fx
		bot := float64(c01)*(1-fx) + float64(c11)*fx
		return uint8(top*(1-fy) + bot*fy + 0.5)
	}

	p00 := src.NRGBAAt(x0, y0)
	p10 := src.NRGBAAt(x1, y0)
	p01 := src.NRGBAAt(x0, y1)
	p11 := src.NRGBAAt(x1, y1)

	return color.NRGBA{
		R: blend(p00.R, p10.R, p01.R, p11.R),
		G: blend(p00.G, p10.G, p01.G, p11.G),
		B: blend(p00.B, p10.B, p01.B, p11.B),
		A: 255,
	}
}
