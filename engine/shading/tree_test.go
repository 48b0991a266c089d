package shading

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/scene"
)

type recordingSignaler struct {
	errs []error
}

func (r *recordingSignaler) SignalError(err error) { r.errs = append(r.errs, err) }

func newTestTree() (*Tree, *recordingSignaler) {
	sig := &recordingSignaler{}
	return NewTree(sig, device.NewParameterSet()), sig
}

// Closure-id function is injective: two distinct closure names never
// produce the same id.
func TestClosureIDInjective(t *testing.T) {
	tree, _ := newTestTree()
	names := []string{"alpha", "beta", "gamma", "alpha", "delta", "beta"}
	seen := map[int]string{}
	for _, n := range names {
		id := tree.GetClosureID(n)
		if prev, ok := seen[id]; ok && prev != n {
			t.Fatalf("closure id %d assigned to both %q and %q", id, prev, n)
		}
		seen[id] = n
	}
	if tree.GetClosureID("alpha") != tree.GetClosureID("alpha") {
		t.Fatalf("GetClosureID not stable across repeated calls")
	}
	if tree.GetClosureID("alpha") == tree.GetClosureID("beta") {
		t.Fatalf("distinct names collided on the same id")
	}
}

// A second addX with the same name in the same closure raises a contract
// error.
func TestAddNumberDuplicateIsContractError(t *testing.T) {
	tree, sig := newTestTree()
	obj := scene.NewObject(scene.KindBSDF, "mat", "diffuse")
	obj.Properties["roughness"] = scene.NewNumberProperty(0.5)

	tree.BeginClosure("mat")
	if err := tree.AddNumber("roughness", obj, 0, NumberOptionsFull()); err != nil {
		t.Fatalf("first AddNumber: unexpected error: %v", err)
	}
	err := tree.AddNumber("roughness", obj, 0, NumberOptionsFull())
	if err == nil || !errors.Is(err, core.ErrContract) {
		t.Fatalf("expected contract error on duplicate addNumber, got %v", err)
	}
	if len(sig.errs) != 1 || !errors.Is(sig.errs[0], core.ErrContract) {
		t.Fatalf("expected exactly one signaled contract error, got %v", sig.errs)
	}
}

func TestAddNumberInlineRoundTrip(t *testing.T) {
	tree, _ := newTestTree()
	obj := scene.NewObject(scene.KindBSDF, "mat", "diffuse")
	obj.Properties["ior"] = scene.NewNumberProperty(1.5)

	tree.BeginClosure("mat")
	if err := tree.AddNumber("ior", obj, 0, NumberOptionsNone()); err != nil {
		t.Fatalf("AddNumber: %v", err)
	}
	got := tree.GetInline("ior")
	if got == "" {
		t.Fatalf("GetInline returned empty string after AddNumber")
	}
	// Re-reading the same name in the same closure must return the exact
	// same text (§4.5 getInline), not just a structurally similar one.
	if again := tree.GetInline("ior"); again != got {
		t.Fatalf("GetInline not stable across repeated calls: %q vs %q", got, again)
	}
}

func TestNumberOptionsEmbedsZeroAndOne(t *testing.T) {
	tree, _ := newTestTree()
	obj := scene.NewObject(scene.KindBSDF, "mat", "diffuse")
	obj.Properties["metallic"] = scene.NewNumberProperty(0)

	tree.BeginClosure("mat")
	if err := tree.AddNumber("metallic", obj, 0, NumberOptionsFull()); err != nil {
		t.Fatalf("AddNumber: %v", err)
	}
	inline := tree.GetInline("metallic")
	if inline == "" {
		t.Fatalf("expected a literal embed, got empty inline")
	}
	// A dynamic-only acquisition of the same zero value must not embed.
	tree2, _ := newTestTree()
	tree2.BeginClosure("mat")
	if err := tree2.AddNumber("metallic", obj, 0, NumberOptionsDynamic()); err != nil {
		t.Fatalf("AddNumber: %v", err)
	}
	dynInline := tree2.GetInline("metallic")
	if dynInline == inline {
		t.Fatalf("EmbedDynamic should never produce the same literal embed as EmbedDefault/Full")
	}
}

// Every referenced texture is emitted exactly once even when registered
// multiple times.
func TestRegisterTextureUsageDeduplicates(t *testing.T) {
	tree, _ := newTestTree()
	tree.RegisterTextureUsage("wood")
	tree.RegisterTextureUsage("wood")
	tree.RegisterTextureUsage("marble")

	header, err := tree.PullHeader()
	if err != nil {
		t.Fatalf("PullHeader: %v", err)
	}
	count := 0
	for i := 0; i+len("tex_wood") <= len(header); i++ {
		if header[i:i+len("tex_wood")] == "tex_wood" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected texture wood to appear exactly once in header, got %d: %s", count, header)
	}
}

func TestPullHeaderTwiceIsContractError(t *testing.T) {
	tree, _ := newTestTree()
	if _, err := tree.PullHeader(); err != nil {
		t.Fatalf("first PullHeader: %v", err)
	}
	if _, err := tree.PullHeader(); err == nil || !errors.Is(err, core.ErrContract) {
		t.Fatalf("expected contract error on second PullHeader, got %v", err)
	}
}

func TestAddColorMismatchedTypeDegradesToMagenta(t *testing.T) {
	tree, sig := newTestTree()
	obj := scene.NewObject(scene.KindBSDF, "mat", "diffuse")
	// Transform-kind property where a color was expected (§7 Structural).
	obj.Properties["albedo"] = scene.Property{Kind: scene.PropertyTransform}

	tree.BeginClosure("mat")
	if err := tree.AddColor("albedo", obj, [3]float64{1, 1, 1}, ColorOptionsNone()); err != nil {
		t.Fatalf("AddColor: %v", err)
	}
	if tree.GetInline("albedo") != "make_color(1, 0, 1, 1)" {
		t.Fatalf("expected magenta degrade, got %q", tree.GetInline("albedo"))
	}
	if len(sig.errs) != 1 || !errors.Is(sig.errs[0], core.ErrStructural) {
		t.Fatalf("expected one structural error signaled, got %v", sig.errs)
	}
}
