// Package runtime implements the per-iteration render loop (§4.9): ask the
// technique which variants run this iteration, bind each variant's
// parameter registry, launch its shaders through the device handle, and
// account for samples/frames advanced. The actual shader launch is
// supplied by the caller (LaunchFunc) — this package owns scheduling and
// accounting only; the device back-end itself is out of scope (§1).
package runtime

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/technique"
)

// LaunchFunc launches one variant's shader pipeline (§4.9 step 2c-d):
// ray-generation through traversal/miss/hit/shadow, until termination.
// Returning an error aborts the loop.
type LaunchFunc func(variantIndex int, v technique.Variant, camera CameraOrientation) error

// Loop drives the per-iteration schedule described by a TechniqueInfo
// against a desired total sample count (§4.9).
type Loop struct {
	Params *device.ParameterSet
	Info   *technique.TechniqueInfo
	Camera CameraOrientation

	DesiredSPP int
	SPI        int // samples per iteration when a variant doesn't override it.

	Stats *core.Statistics

	frame       int
	sampleCount int
}

// NewLoop constructs a Loop for info, targeting desiredSPP total samples at
// spi samples per iteration for variants that don't override it.
func NewLoop(params *device.ParameterSet, info *technique.TechniqueInfo, camera CameraOrientation, desiredSPP, spi int) *Loop {
	return &Loop{
		Params:     params,
		Info:       info,
		Camera:     camera,
		DesiredSPP: desiredSPP,
		SPI:        spi,
		Stats:      core.NewStatistics(),
	}
}

// Iterations returns ⌈desiredSPP / SPI⌉ (§4.9 "SPP/iteration invariants").
func (l *Loop) Iterations() int {
	if l.SPI <= 0 {
		return 0
	}
	return (l.DesiredSPP + l.SPI - 1) / l.SPI
}

// CurrentSampleCount returns the accumulated sample count across every
// iteration run so far (§8 property 8).
func (l *Loop) CurrentSampleCount() int { return l.sampleCount }

// CurrentFrame returns the frame counter, which Run advances by one after
// every iteration; no technique setting stops or otherwise controls that
// advancement.
func (l *Loop) CurrentFrame() int { return l.frame }

// Run drives the full schedule, calling launch once per scheduled variant
// per iteration (§4.9 steps 1-3). If desiredSPP isn't a multiple of SPI,
// the actual SPP reached is iterations*SPI and a warning is logged, per
// §4.9's closing invariant.
func (l *Loop) Run(launch LaunchFunc) error {
	iterations := l.Iterations()
	if iterations == 0 {
		return fmt.Errorf("runtime: loop: SPI must be positive, got %d", l.SPI)
	}

	for i := 0; i < iterations; i++ {
		variantIndices := l.Info.VariantsForIteration(i)
		for _, vi := range variantIndices {
			if vi < 0 || vi >= len(l.Info.Variants) {
				return fmt.Errorf("runtime: loop: variant selector returned out-of-range index %d", vi)
			}
			v := l.Info.Variants[vi]

			if v.BeforeIteration != nil {
				v.BeforeIteration(i)
			}

			// Bind this variant's local parameter registry for its
			// shaders (§4.9 step 2a), then fold it into the
			// device-visible global set once the launch completes.
			l.Params.ResetLocal()

			if err := launch(vi, v, l.Camera); err != nil {
				return fmt.Errorf("runtime: loop: variant %q iteration %d: %w", v.Name, i, err)
			}

			l.Params.MergeLocalIntoGlobal()

			spi := v.OverrideSPI
			if spi == 0 {
				spi = l.SPI
			}
			if !v.LockFramebuffer {
				l.sampleCount += spi
			}
		}
		l.frame++
	}

	if l.DesiredSPP%l.SPI != 0 {
		actual := iterations * l.SPI
		core.LogWarn("runtime: desired SPP %d is not a multiple of SPI %d; actual SPP reached is %d", l.DesiredSPP, l.SPI, actual)
	}
	return nil
}
