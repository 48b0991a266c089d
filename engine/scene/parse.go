package scene

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima/engine/math"
)

// Parse decodes a TOML scene document (§6.1) into a Scene. Reserved
// top-level arrays-of-tables are `[[shape]]`, `[[bsdf]]`, `[[medium]]`,
// `[[texture]]`, `[[light]]`, `[[entity]]`; `[camera]` and `[technique]`
// are singular tables. Every other key on an object table becomes a
// Property, typed by its TOML value the way `parseAMTFile` in the
// teacher's material loader types each `key=value` line by hand.
func Parse(data []byte) (*Scene, error) {
	var root map[string]interface{}
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	s := NewScene()

	groups := []struct {
		key  string
		kind Kind
		dest map[string]*Object
	}{
		{"shape", KindShape, s.Shapes},
		{"bsdf", KindBSDF, s.BSDFs},
		{"medium", KindMedium, s.Media},
		{"texture", KindTexture, s.Textures},
		{"light", KindLight, s.Lights},
		{"entity", KindEntity, s.Entities},
	}

	for _, g := range groups {
		raw, ok := root[g.key]
		if !ok {
			continue
		}
		items, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("scene: %q must be an array of tables", g.key)
		}
		for i, item := range items {
			tbl, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("scene: %s[%d] must be a table", g.key, i)
			}
			obj, err := objectFromTable(g.kind, tbl)
			if err != nil {
				return nil, fmt.Errorf("scene: %s[%d]: %w", g.key, i, err)
			}
			if obj.Name == "" {
				return nil, fmt.Errorf("scene: %s[%d] is missing a name", g.key, i)
			}
			dest[obj.Name] = obj
		}
	}

	if raw, ok := root["camera"]; ok {
		tbl, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("scene: [camera] must be a table")
		}
		obj, err := objectFromTable(KindCamera, tbl)
		if err != nil {
			return nil, fmt.Errorf("scene: camera: %w", err)
		}
		s.Camera = obj
	}

	if raw, ok := root["technique"]; ok {
		tbl, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("scene: [technique] must be a table")
		}
		obj, err := objectFromTable(KindTechnique, tbl)
		if err != nil {
			return nil, fmt.Errorf("scene: technique: %w", err)
		}
		s.Technique = obj
	}

	return s, nil
}

func objectFromTable(kind Kind, tbl map[string]interface{}) (*Object, error) {
	name, _ := tbl["name"].(string)
	pluginType, _ := tbl["type"].(string)
	obj := NewObject(kind, name, pluginType)

	for key, raw := range tbl {
		if key == "name" || key == "type" {
			continue
		}
		prop, err := convertValue(raw)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		obj.Properties[key] = prop
	}
	return obj, nil
}

func convertValue(raw interface{}) (Property, error) {
	switch v := raw.(type) {
	case int64:
		return NewIntegerProperty(v), nil
	case float64:
		return NewNumberProperty(v), nil
	case bool:
		i := int64(0)
		if v {
			i = 1
		}
		return NewIntegerProperty(i), nil
	case string:
		return NewStringProperty(v), nil
	case []interface{}:
		nums, ok := allNumbers(v)
		if !ok {
			return Property{}, fmt.Errorf("array properties must be all-numeric (vector3 or 16-value transform)")
		}
		switch len(nums) {
		case 3:
			return NewVector3Property(math.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}), nil
		case 16:
			var m math.Mat4
			for i := 0; i < 16; i++ {
				m.Data[i] = nums[i]
			}
			return NewTransformProperty(m), nil
		default:
			return Property{}, fmt.Errorf("array property must have 3 (vector3) or 16 (transform) elements, got %d", len(nums))
		}
	default:
		return Property{}, fmt.Errorf("unsupported TOML value type %T", raw)
	}
}

func allNumbers(v []interface{}) ([]float32, bool) {
	out := make([]float32, len(v))
	for i, e := range v {
		switch n := e.(type) {
		case int64:
			out[i] = float32(n)
		case float64:
			out[i] = float32(n)
		default:
			return nil, false
		}
	}
	return out, true
}
