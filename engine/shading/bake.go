package shading

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// BakedTexture is the rasterized result of flattening an expression over a
// 2-D UV grid (§4.5 bakeTexture).
type BakedTexture struct {
	Image  *image.NRGBA
	Width  int
	Height int
}

// EvalFunc samples the shading expression at normalized uv in [0,1]^2,
// returning an sRGB color. Callers provide this (the transpiler only emits
// DSL text; it can't evaluate device-side expressions), so BakeTexture is
// an offline rasterizer over whatever sampling function the caller wires
// up — typically a software preview evaluator, not the device pipeline.
type EvalFunc func(u, v float64) (r, g, b, a float64)

// BakeTexture rasterizes eval over opts' grid, skipping constant regions
// into a single flat tile when opts.SkipConstant is set and sampling the
// four corners of a would-be tile shows no variation (a coarse but cheap
// constant-folding pass, §4.5 "skip constant").
func BakeTexture(eval EvalFunc, opts TextureBakeOptions) *BakedTexture {
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	if opts.SkipConstant && isConstant(eval, w, h) {
		r, g, b, a := eval(0.5, 0.5)
		fill := toNRGBA(r, g, b, a)
		draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)
		return &BakedTexture{Image: img, Width: w, Height: h}
	}

	for y := 0; y < h; y++ {
		v := (float64(y) + 0.5) / float64(h)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			r, g, b, a := eval(u, v)
			img.Set(x, y, toNRGBA(r, g, b, a))
		}
	}
	return &BakedTexture{Image: img, Width: w, Height: h}
}

func isConstant(eval EvalFunc, w, h int) bool {
	r0, g0, b0, a0 := eval(0, 0)
	corners := [][2]float64{{1, 0}, {0, 1}, {1, 1}, {0.5, 0.5}}
	for _, c := range corners {
		r, g, b, a := eval(c[0], c[1])
		if r != r0 || g != g0 || b != b0 || a != a0 {
			return false
		}
	}
	return true
}

func toNRGBA(r, g, b, a float64) color.NRGBA {
	return color.NRGBA{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: clamp8(a)}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}
