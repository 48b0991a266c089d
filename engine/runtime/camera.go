package runtime

import (
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/scene"
)

// CameraOrientation threads a scene camera object's eye/dir/up triple
// through to ray-generation parameter binding (§4.9 step 2b, a
// Supplemented feature matching the original's dedicated
// CameraOrientation type).
type CameraOrientation struct {
	Eye math.Vec3
	Dir math.Vec3
	Up  math.Vec3
}

// CameraOrientationFromObject reads eye/dir/up vector3 properties off a
// scene camera object, defaulting to a canonical look-down--z orientation
// when a property is absent.
func CameraOrientationFromObject(obj *scene.Object) CameraOrientation {
	o := CameraOrientation{
		Eye: math.Vec3{X: 0, Y: 0, Z: 0},
		Dir: math.Vec3{X: 0, Y: 0, Z: -1},
		Up:  math.Vec3{X: 0, Y: 1, Z: 0},
	}
	if p, ok := obj.Get("eye"); ok && p.Kind == scene.PropertyVector3 {
		o.Eye = p.Vector3
	}
	if p, ok := obj.Get("dir"); ok && p.Kind == scene.PropertyVector3 {
		o.Dir = p.Vector3
	}
	if p, ok := obj.Get("up"); ok && p.Kind == scene.PropertyVector3 {
		o.Up = p.Vector3
	}
	return o
}
