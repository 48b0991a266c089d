package technique

import "fmt"

// entry is one registered technique's pair of callbacks (§4.7).
type entry struct {
	GetInfo    GetInfoFunc
	BodyLoader BodyLoaderFunc
}

// aliases maps a technique-name spelling to its canonical registry key
// (§4.7: "ppm|photonmapper", "lt|lighttracer").
var aliases = map[string]string{
	"photonmapper": "ppm",
	"lighttracer":  "lt",
}

var registry = map[string]entry{}

func register(name string, getInfo GetInfoFunc, bodyLoader BodyLoaderFunc) {
	registry[name] = entry{GetInfo: getInfo, BodyLoader: bodyLoader}
}

func init() {
	register("ao", aoGetInfo, aoBodyLoader)
	register("path", pathGetInfo, pathBodyLoader)
	register("volpath", volpathGetInfo, volpathBodyLoader)
	register("debug", debugGetInfo, debugBodyLoader)
	register("ppm", ppmGetInfo, ppmBodyLoader)
	register("lt", ltGetInfo, ltBodyLoader)
	register("wireframe", wireframeGetInfo, wireframeBodyLoader)
	register("infobuffer", infobufferGetInfo, infobufferBodyLoader)
	register("lightvisibility", lightVisibilityGetInfo, lightVisibilityBodyLoader)
	register("camera_check", cameraCheckGetInfo, cameraCheckBodyLoader)
}

// canonicalName resolves an alias spelling to its registry key.
func canonicalName(name string) string {
	if canon, ok := aliases[name]; ok {
		return canon
	}
	return name
}

// Resolve looks up a technique's callback pair by name, accepting the
// "ppm|photonmapper" and "lt|lighttracer" alias spellings (§4.7).
func Resolve(name string) (GetInfoFunc, BodyLoaderFunc, error) {
	e, ok := registry[canonicalName(name)]
	if !ok {
		return nil, nil, fmt.Errorf("technique: unknown technique name %q", name)
	}
	return e.GetInfo, e.BodyLoader, nil
}

// Names returns every registered canonical technique name, in the order
// they were registered.
func Names() []string {
	order := []string{"ao", "path", "volpath", "debug", "ppm", "lt", "wireframe", "infobuffer", "lightvisibility", "camera_check"}
	return order
}
