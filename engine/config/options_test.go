package config

import "testing"

func TestParseRejectsUnknownTopLevelKey(t *testing.T) {
	_, err := Parse([]byte(`bogus = 1`))
	if err == nil {
		t.Fatalf("expected an ErrUnknownOption, got nil")
	}
	if _, ok := err.(*ErrUnknownOption); !ok {
		t.Fatalf("expected *ErrUnknownOption, got %T: %v", err, err)
	}
}

func TestParseRejectsUnknownDenoiserKey(t *testing.T) {
	_, err := Parse([]byte("[denoiser]\nbogus = true\n"))
	if err == nil {
		t.Fatalf("expected an ErrUnknownOption, got nil")
	}
	if _, ok := err.(*ErrUnknownOption); !ok {
		t.Fatalf("expected *ErrUnknownOption, got %T: %v", err, err)
	}
}

func TestParseAcceptsKnownKeys(t *testing.T) {
	doc := `
target = "avx2"
device_index = 1
spi = 4
film_width = 640
film_height = 480

[denoiser]
enabled = true
follow_specular = false
only_first_iteration = true
`
	opts, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if opts.Target != "avx2" || opts.DeviceIndex != 1 || opts.SamplesPerIteration != 4 {
		t.Fatalf("unexpected decoded scalars: %+v", opts)
	}
	if !opts.Denoiser.Enabled || opts.Denoiser.FollowSpecular || !opts.Denoiser.OnlyFirstIteration {
		t.Fatalf("unexpected decoded denoiser: %+v", opts.Denoiser)
	}
	if !opts.HasExplicitFilmSize() {
		t.Fatalf("expected HasExplicitFilmSize true for 640x480")
	}
}

func TestDefaultedFillsZeroValues(t *testing.T) {
	opts := &Options{}
	defaulted := opts.Defaulted()
	if defaulted.Target != "generic" {
		t.Fatalf("Target = %q, want %q", defaulted.Target, "generic")
	}
	if defaulted.SamplesPerIteration != 1 {
		t.Fatalf("SamplesPerIteration = %d, want 1", defaulted.SamplesPerIteration)
	}
}

func TestDefaultedPreservesExplicitValues(t *testing.T) {
	opts := &Options{Target: "sse42", SamplesPerIteration: 8}
	defaulted := opts.Defaulted()
	if defaulted.Target != "sse42" || defaulted.SamplesPerIteration != 8 {
		t.Fatalf("Defaulted overrode explicit values: %+v", defaulted)
	}
}

func TestResolveTargetDefaultsToGeneric(t *testing.T) {
	opts := &Options{}
	target, err := opts.ResolveTarget()
	if err != nil {
		t.Fatalf("ResolveTarget: %v", err)
	}
	if target.String() != "generic" {
		t.Fatalf("ResolveTarget() = %v, want generic", target)
	}
}

func TestHasExplicitFilmSizeRequiresBothDimensions(t *testing.T) {
	cases := []struct {
		w, h int
		want bool
	}{
		{0, 0, false},
		{640, 0, false},
		{0, 480, false},
		{640, 480, true},
	}
	for _, c := range cases {
		opts := &Options{FilmWidth: c.w, FilmHeight: c.h}
		if got := opts.HasExplicitFilmSize(); got != c.want {
			t.Fatalf("HasExplicitFilmSize(%d, %d) = %v, want %v", c.w, c.h, got, c.want)
		}
	}
}
