/*
anima-loader is a thin driver over the engine packages: it reads a scene
description and a render-options document, runs the load-time pipeline,
resolves the requested technique, and drives the per-iteration runtime
loop against a software reference device handle. CLI flag parsing, the
real PExpr/Artic compiler, and the GPU/CPU kernels are out of scope (§1)
— this is deliberately as small as the teaching game's testbed wiring in
main.go, just pointed at the loader pipeline instead of the renderer.
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spaghettifunk/anima/engine/config"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/loader"
	"github.com/spaghettifunk/anima/engine/runtime"
	"github.com/spaghettifunk/anima/engine/scene"
	"github.com/spaghettifunk/anima/engine/shadergen"
	"github.com/spaghettifunk/anima/engine/technique"
)

// techniqueContext adapts the loader's accumulated databases to the narrow
// technique.Context a get_info callback needs, without technique ever
// importing engine/loader.
type techniqueContext struct {
	sceneDiameter float32
	lightCount    int
	entityCount   int
}

func (c *techniqueContext) SceneDiameterValue() float32 { return c.sceneDiameter }
func (c *techniqueContext) LightCount() int             { return c.lightCount }
func (c *techniqueContext) EntityCount() int            { return c.entityCount }

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <scene.toml> <options.toml> [cache-dir]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2], cacheDirArg()); err != nil {
		core.LogFatal("%v", err)
	}
}

func cacheDirArg() string {
	if len(os.Args) >= 4 {
		return os.Args[3]
	}
	return ".anima-cache"
}

func run(scenePath, optionsPath, cacheDir string) error {
	optsData, err := os.ReadFile(optionsPath)
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}
	rawOpts, err := config.Parse(optsData)
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}
	opts := rawOpts.Defaulted()

	target, err := opts.ResolveTarget()
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}

	sceneData, err := os.ReadFile(scenePath)
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}
	sc, err := scene.Parse(sceneData)
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}
	if sc.Technique == nil {
		return fmt.Errorf("anima-loader: scene declares no technique object")
	}

	ctx := loader.NewContext(&opts, target)

	cache, err := loader.NewCache(cacheDir)
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}
	go cache.Run(ctx)
	defer cache.Close()

	loader.PrepareLights(sc, ctx)

	pool, err := loader.NewWorkPool(4, len(sc.Shapes))
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}
	shapeDB, err := loader.LoadShapes(ctx, sc, pool)
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}
	if errs := pool.Wait(); len(errs) > 0 {
		return fmt.Errorf("anima-loader: shape load: %v", errs[0])
	}

	entityDB, err := loader.LoadEntities(ctx, sc, shapeDB, sortedMediaNames(sc))
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}

	lightDB, err := loader.LoadLights(ctx, sc)
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}

	if _, err := loader.LoadPatterns(ctx, sc); err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}

	bvhs := loader.BuildProviderBVHs(entityDB, shapeDB, target)
	core.LogInfo("built %d provider BVH(s) for %d entities", len(bvhs), len(entityDB.Records))

	if ctx.HasError {
		for _, e := range ctx.Errors {
			core.LogError("%v", e)
		}
		return fmt.Errorf("anima-loader: %d error(s) during load", len(ctx.Errors))
	}

	techName := sc.Technique.PluginType
	if opts.OverrideTechnique != "" {
		techName = opts.OverrideTechnique
	}
	getInfo, bodyLoader, err := technique.Resolve(techName)
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}

	techCtx := &techniqueContext{
		sceneDiameter: ctx.SceneDiameter,
		lightCount:    len(lightDB.Lights),
		entityCount:   len(entityDB.Records),
	}
	info, err := getInfo(sc.Technique, techCtx)
	if err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}
	if opts.Denoiser.Enabled {
		technique.ComposeDenoiserSelector(info, opts.Denoiser.OnlyFirstIteration)
	}

	width, height := 1280, 720
	if opts.HasExplicitFilmSize() {
		width, height = opts.FilmWidth, opts.FilmHeight
	}
	desiredSPP := int(sc.Technique.GetNumber("spp", 16))

	camera := runtime.CameraOrientationFromObject(sc.Camera)
	loop := runtime.NewLoop(device.NewParameterSet(), info, camera, desiredSPP, opts.SamplesPerIteration)

	handle := device.NewSoftwareHandle()
	if err := handle.Initialize(target, opts.DeviceIndex); err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}
	var compiler device.SoftwareCompiler

	launch := func(variantIndex int, v technique.Variant, cam runtime.CameraOrientation) error {
		w, h, spp := width, height, opts.SamplesPerIteration
		if v.OverrideWidth > 0 {
			w = v.OverrideWidth
		}
		if v.OverrideHeight > 0 {
			h = v.OverrideHeight
		}
		if v.OverrideSPI > 0 {
			spp = v.OverrideSPI
		}

		techniqueBody, err := bodyLoader(sc.Technique, techCtx, variantIndex)
		if err != nil {
			return fmt.Errorf("technique %q variant %q: %w", techName, v.Name, err)
		}
		base := shadergen.Request{Target: target, DeviceIndex: opts.DeviceIndex, Variant: v, TechniqueBody: techniqueBody}

		raygenSrc, err := shadergen.GenerateRayGenerationShader(base, shadergen.SamplerMultiJittered)
		if err != nil {
			return err
		}
		raygen, err := compileShader(compiler, raygenSrc, fmt.Sprintf("ig_raygeneration_shader_%s", v.Name))
		if err != nil {
			return err
		}
		if err := handle.GenerateRays(raygen, w, h, spp); err != nil {
			return err
		}

		missSrc, err := shadergen.GenerateShader(shadergen.Request{
			Role: shadergen.RoleMiss, Target: target, DeviceIndex: opts.DeviceIndex,
			Variant: v, TechniqueBody: techniqueBody,
		})
		if err != nil {
			return err
		}
		miss, err := compileShader(compiler, missSrc, fmt.Sprintf("ig_miss_shader_%s", v.Name))
		if err != nil {
			return err
		}
		if err := handle.HandleMissShader(miss, w, h, spp); err != nil {
			return err
		}

		for _, mat := range ctx.Materials {
			matID := materialID(ctx, mat)
			isAreaLight := mat.HasEmission()
			hitSrc, err := shadergen.GenerateMaterialShader(base, matID, mat.BSDF, isAreaLight)
			if err != nil {
				return err
			}
			hit, err := compileShader(compiler, hitSrc, fmt.Sprintf("ig_hit_shader_%s_%d", v.Name, matID))
			if err != nil {
				return err
			}
			if err := handle.HandleHitShader(hit, uint32(matID), w, h, spp); err != nil {
				return err
			}

			if v.ShadowMode != technique.ShadowSimple {
				shadowSrc, err := shadergen.GenerateAdvancedShadowShader(base, v.ShadowMode, matID, mat.BSDF)
				if err != nil {
					return err
				}
				if shadowSrc != "" {
					shadow, err := compileShader(compiler, shadowSrc, fmt.Sprintf("ig_advanced_shadow_shader_%s_%d", v.Name, matID))
					if err != nil {
						return err
					}
					if err := handle.HandleAdvancedShadowShader(shadow, w, h, spp); err != nil {
						return err
					}
				}
			}
		}

		return nil
	}

	if err := loop.Run(launch); err != nil {
		return fmt.Errorf("anima-loader: %w", err)
	}

	tonemapSrc, err := shadergen.GenerateTonemapShader(target, opts.DeviceIndex)
	if err != nil {
		return err
	}
	tonemap, err := compileShader(compiler, tonemapSrc, "ig_tonemap_shader")
	if err != nil {
		return err
	}
	if err := handle.Tonemap(tonemap); err != nil {
		return err
	}

	core.LogInfo("finished %d iteration(s), %d sample(s) accumulated", loop.Iterations(), loop.CurrentSampleCount())
	return nil
}

func compileShader(compiler device.SoftwareCompiler, source, entryName string) (device.CompiledShader, error) {
	prepared, err := compiler.Prepare(source)
	if err != nil {
		return device.CompiledShader{}, fmt.Errorf("anima-loader: %w", err)
	}
	return compiler.Compile(prepared, entryName)
}

// materialID recovers a material's index within ctx.Materials by identity
// comparison; materials are deduplicated on load (§4.3 step 6) so this is
// the same id shadergen.GenerateMaterialShader callers would have looked up via
// ctx.EntityToMaterial.
func materialID(ctx *loader.Context, m loader.Material) int {
	for i, other := range ctx.Materials {
		if other.Equal(m) {
			return i
		}
	}
	return -1
}

func sortedMediaNames(sc *scene.Scene) []string {
	names := make([]string, 0, len(sc.Media))
	for n := range sc.Media {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
