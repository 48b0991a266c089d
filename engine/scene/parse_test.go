package scene

import "testing"

func TestParseBasicScene(t *testing.T) {
	doc := `
[[shape]]
name = "cube"
type = "cube"

[[bsdf]]
name = "b1"
type = "diffuse"

[[entity]]
name = "e1"
shape = "cube"
bsdf = "b1"
transform = [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]

[[light]]
name = "sun"
type = "directional"
direction = [0, -1, 0]

[camera]
type = "pinhole"
fov = 60

[technique]
type = "path"
spp = 32
`
	sc, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(sc.Shapes) != 1 || sc.Shapes["cube"] == nil {
		t.Fatalf("expected one shape named cube, got %+v", sc.Shapes)
	}
	if len(sc.BSDFs) != 1 || sc.BSDFs["b1"].PluginType != "diffuse" {
		t.Fatalf("expected bsdf b1 of type diffuse, got %+v", sc.BSDFs)
	}

	e1, ok := sc.Entities["e1"]
	if !ok {
		t.Fatalf("expected entity e1")
	}
	if e1.GetString("shape", "") != "cube" || e1.GetString("bsdf", "") != "b1" {
		t.Fatalf("e1 shape/bsdf = %q/%q, want cube/b1", e1.GetString("shape", ""), e1.GetString("bsdf", ""))
	}
	transform, ok := e1.Get("transform")
	if !ok || transform.Kind != PropertyTransform {
		t.Fatalf("expected e1.transform to decode as a 16-value transform property")
	}

	sun, ok := sc.Lights["sun"]
	if !ok || sun.PluginType != "directional" {
		t.Fatalf("expected light sun of type directional, got %+v", sc.Lights)
	}
	dir, ok := sun.Get("direction")
	if !ok || dir.Kind != PropertyVector3 {
		t.Fatalf("expected sun.direction to decode as a vector3 property")
	}

	if sc.Camera == nil || sc.Camera.PluginType != "pinhole" {
		t.Fatalf("expected a pinhole camera, got %+v", sc.Camera)
	}
	if sc.Camera.GetNumber("fov", 0) != 60 {
		t.Fatalf("camera fov = %v, want 60", sc.Camera.GetNumber("fov", 0))
	}

	if sc.Technique == nil || sc.Technique.PluginType != "path" {
		t.Fatalf("expected a path technique, got %+v", sc.Technique)
	}
	if sc.Technique.GetNumber("spp", 0) != 32 {
		t.Fatalf("technique spp = %v, want 32", sc.Technique.GetNumber("spp", 0))
	}
}

func TestParseRejectsNonTableShapeEntry(t *testing.T) {
	_, err := Parse([]byte(`shape = [1, 2, 3]`))
	if err == nil {
		t.Fatalf("expected an error for a non-array-of-tables shape key")
	}
}

func TestParseRejectsMissingName(t *testing.T) {
	_, err := Parse([]byte("[[shape]]\ntype = \"cube\"\n"))
	if err == nil {
		t.Fatalf("expected an error for a shape entry missing a name")
	}
}

func TestParseRejectsUnsupportedArrayLength(t *testing.T) {
	_, err := Parse([]byte("[[entity]]\nname = \"e1\"\nbad = [1, 2]\n"))
	if err == nil {
		t.Fatalf("expected an error for a 2-element array property")
	}
}
