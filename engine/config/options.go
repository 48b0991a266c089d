// Package config loads the render-options document that drives a single
// loader run: target platform, device index, samples-per-iteration,
// camera/technique overrides, explicit film size, and denoiser toggles
// (§6.5). The external command surface that produces this document (CLI
// flag parsing, ImGui option panel) is out of scope — this package only
// owns the typed document and its TOML decoding, the same way the teacher's
// `engine/assets/loaders/material.go` owns typed decoding for `.amt` files
// without owning whatever invoked it.
package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima/engine/device"
)

// Denoiser holds the three independent toggles §6.5 names.
type Denoiser struct {
	Enabled           bool `toml:"enabled"`
	FollowSpecular    bool `toml:"follow_specular"`
	OnlyFirstIteration bool `toml:"only_first_iteration"`
}

// Options is the full render-options document (§6.5). Every field is
// optional in the TOML source; zero values mean "let the loader decide".
type Options struct {
	Target             string   `toml:"target"`
	DeviceIndex        int      `toml:"device_index"`
	SamplesPerIteration int     `toml:"spi"`
	OverrideCamera      string  `toml:"camera"`
	OverrideTechnique   string  `toml:"technique"`
	FilmWidth           int     `toml:"film_width"`
	FilmHeight          int     `toml:"film_height"`
	Denoiser            Denoiser `toml:"denoiser"`
}

// ErrUnknownOption is returned when the TOML document declares a key this
// package does not recognize — §6.5 requires unknown options to be
// rejected rather than silently ignored.
type ErrUnknownOption struct {
	Key string
}

func (e *ErrUnknownOption) Error() string {
	return fmt.Sprintf("config: unknown option %q", e.Key)
}

var knownTopLevelKeys = map[string]bool{
	"target":       true,
	"device_index": true,
	"spi":          true,
	"camera":       true,
	"technique":    true,
	"film_width":   true,
	"film_height":  true,
	"denoiser":     true,
}

var knownDenoiserKeys = map[string]bool{
	"enabled":              true,
	"follow_specular":      true,
	"only_first_iteration": true,
}

// Parse decodes a render-options TOML document, rejecting any key this
// package does not recognize (§6.5).
func Parse(data []byte) (*Options, error) {
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	for key, val := range raw {
		if !knownTopLevelKeys[key] {
			return nil, &ErrUnknownOption{Key: key}
		}
		if key == "denoiser" {
			tbl, ok := val.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("config: %q must be a table", key)
			}
			for dk := range tbl {
				if !knownDenoiserKeys[dk] {
					return nil, &ErrUnknownOption{Key: "denoiser." + dk}
				}
			}
		}
	}

	var opts Options
	if err := toml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &opts, nil
}

// Defaulted returns a copy of opts with zero-valued fields replaced by the
// loader's defaults: Target "generic", SamplesPerIteration 1.
func (o *Options) Defaulted() Options {
	out := *o
	if out.Target == "" {
		out.Target = "generic"
	}
	if out.SamplesPerIteration <= 0 {
		out.SamplesPerIteration = 1
	}
	return out
}

// ResolveTarget parses the Target string into a device.Target, defaulting
// to Generic on an empty string.
func (o *Options) ResolveTarget() (device.Target, error) {
	t := o.Target
	if t == "" {
		t = "generic"
	}
	return device.ParseTarget(t)
}

// HasExplicitFilmSize reports whether both film dimensions were given.
func (o *Options) HasExplicitFilmSize() bool {
	return o.FilmWidth > 0 && o.FilmHeight > 0
}
