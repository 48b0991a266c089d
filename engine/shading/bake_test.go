package shading

import "testing"

func TestBakeTextureConstantSkip(t *testing.T) {
	calls := 0
	eval := func(u, v float64) (float64, float64, float64, float64) {
		calls++
		return 0.25, 0.5, 0.75, 1
	}
	opts := TextureBakeOptions{Width: 64, Height: 64, SkipConstant: true}
	baked := BakeTexture(eval, opts)
	if baked.Width != 64 || baked.Height != 64 {
		t.Fatalf("unexpected baked dimensions: %dx%d", baked.Width, baked.Height)
	}
	if calls > 8 {
		t.Fatalf("expected the constant-skip path to sample only a handful of corners, got %d calls", calls)
	}
	r, g, b, a := baked.Image.At(10, 10).RGBA()
	if r == 0 && g == 0 && b == 0 && a == 0 {
		t.Fatalf("expected a filled constant tile, got transparent black")
	}
}

func TestBakeTextureVaryingFillsFullGrid(t *testing.T) {
	eval := func(u, v float64) (float64, float64, float64, float64) {
		return u, v, 0, 1
	}
	opts := TextureBakeOptions{Width: 32, Height: 32, SkipConstant: true}
	baked := BakeTexture(eval, opts)
	r0, _, _, _ := baked.Image.At(0, 0).RGBA()
	r31, _, _, _ := baked.Image.At(31, 0).RGBA()
	if r0 == r31 {
		t.Fatalf("expected varying texture to differ across x, got equal red channels")
	}
}
