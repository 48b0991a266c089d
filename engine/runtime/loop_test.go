package runtime

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/technique"
)

func singleVariantInfo() *technique.TechniqueInfo {
	return &technique.TechniqueInfo{Name: "path", Variants: []technique.Variant{{Name: "path", PrimaryPayloadCount: 6}}}
}

// Iteration accounting: after N iterations for a single-variant technique
// with SPI=s and no locked framebuffer, currentSampleCount = N*s.
func TestIterationAccountingSingleVariant(t *testing.T) {
	info := singleVariantInfo()
	loop := NewLoop(device.NewParameterSet(), info, CameraOrientation{}, 32, 4)

	launches := 0
	if err := loop.Run(func(vi int, v technique.Variant, cam CameraOrientation) error {
		launches++
		return nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	n := loop.Iterations()
	if n != 8 {
		t.Fatalf("expected 8 iterations for SPP=32/SPI=4, got %d", n)
	}
	if launches != n {
		t.Fatalf("expected %d launches for a single-variant technique, got %d", n, launches)
	}
	if got := loop.CurrentSampleCount(); got != n*4 {
		t.Fatalf("CurrentSampleCount = %d, want %d", got, n*4)
	}
}

func TestIterationsRoundsUpAndWarnsOnNonMultiple(t *testing.T) {
	info := singleVariantInfo()
	loop := NewLoop(device.NewParameterSet(), info, CameraOrientation{}, 10, 3)
	if n := loop.Iterations(); n != 4 {
		t.Fatalf("ceil(10/3) should be 4, got %d", n)
	}
	if err := loop.Run(func(vi int, v technique.Variant, cam CameraOrientation) error { return nil }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// actual SPP reached is iterations*SPI = 12, exceeding the requested 10.
	if got := loop.CurrentSampleCount(); got != 12 {
		t.Fatalf("CurrentSampleCount = %d, want 12", got)
	}
}

func TestLockedFramebufferVariantDoesNotAccumulateSamples(t *testing.T) {
	info := &technique.TechniqueInfo{Name: "ppm", Variants: []technique.Variant{
		{Name: "lighttrace", OverrideSPI: 1, LockFramebuffer: true},
		{Name: "eyetrace"},
	}}
	loop := NewLoop(device.NewParameterSet(), info, CameraOrientation{}, 4, 4)
	if err := loop.Run(func(vi int, v technique.Variant, cam CameraOrientation) error { return nil }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 1 iteration * 4 SPI from the eye-tracer variant only; the locked
	// light-tracer pass contributes nothing to the visible sample count.
	if got := loop.CurrentSampleCount(); got != 4 {
		t.Fatalf("CurrentSampleCount = %d, want 4 (locked variant excluded)", got)
	}
}

func TestRunPropagatesLaunchError(t *testing.T) {
	info := singleVariantInfo()
	loop := NewLoop(device.NewParameterSet(), info, CameraOrientation{}, 4, 4)
	boom := errors.New("boom")
	err := loop.Run(func(vi int, v technique.Variant, cam CameraOrientation) error { return boom })
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("expected Run to wrap and propagate the launch error, got %v", err)
	}
}

func TestSelectorOutOfRangeIsError(t *testing.T) {
	info := &technique.TechniqueInfo{
		Name:     "path",
		Variants: []technique.Variant{{Name: "path"}},
		Selector: func(iteration int) []int { return []int{5} },
	}
	loop := NewLoop(device.NewParameterSet(), info, CameraOrientation{}, 4, 4)
	if err := loop.Run(func(vi int, v technique.Variant, cam CameraOrientation) error { return nil }); err == nil {
		t.Fatalf("expected an error for an out-of-range variant selector index")
	}
}
