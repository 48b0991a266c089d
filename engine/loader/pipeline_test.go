package loader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima/engine/config"
	"github.com/spaghettifunk/anima/engine/device"
	"github.com/spaghettifunk/anima/engine/scene"
)

func newTestScene() *scene.Scene {
	return scene.NewScene()
}

func addShape(sc *scene.Scene, name, pluginType string) {
	sc.Shapes[name] = scene.NewObject(scene.KindShape, name, pluginType)
}

func addEntity(sc *scene.Scene, name, shape, bsdf string) {
	obj := scene.NewObject(scene.KindEntity, name, "")
	obj.Properties["shape"] = scene.NewStringProperty(shape)
	obj.Properties["bsdf"] = scene.NewStringProperty(bsdf)
	sc.Entities[name] = obj
}

func loadScenePipeline(t *testing.T, sc *scene.Scene) (*Context, *Database, *EntityDatabase) {
	t.Helper()
	opts := &config.Options{Target: "generic", SamplesPerIteration: 1}
	ctx := NewContext(opts, device.TargetGeneric)

	PrepareLights(sc, ctx)

	pool, err := NewWorkPool(2, len(sc.Shapes))
	require.NoError(t, err)
	shapeDB, err := LoadShapes(ctx, sc, pool)
	require.NoError(t, err)
	require.Empty(t, pool.Wait())

	entityDB, err := LoadEntities(ctx, sc, shapeDB, nil)
	require.NoError(t, err)
	require.False(t, ctx.HasError, "unexpected load errors: %v", ctx.Errors)
	return ctx, shapeDB, entityDB
}

// TestDedupS1 implements §8 scenario S1: e1/e2 share a cube+b1 material,
// e3 (sphere+b1) gets a distinct one.
func TestDedupS1(t *testing.T) {
	sc := newTestScene()
	addShape(sc, "cube", "cube")
	addShape(sc, "sphere", "sphere")
	addEntity(sc, "e1", "cube", "b1")
	addEntity(sc, "e2", "cube", "b1")
	addEntity(sc, "e3", "sphere", "b1")

	ctx, shapeDB, entityDB := loadScenePipeline(t, sc)

	require.Len(t, ctx.Materials, 2, "expected 2 deduplicated materials")
	require.Len(t, shapeDB.Records, 2)
	require.Len(t, entityDB.Records, 3)

	want := map[string]int{"e1": 0, "e2": 0, "e3": 1}
	for name, wantMat := range want {
		require.Equal(t, wantMat, ctx.EntityToMaterial[name], "EntityToMaterial[%q]", name)
	}
	require.Equal(t, 2, ctx.Materials[0].Count, "material 0 (e1/e2) count")
	require.Equal(t, 1, ctx.Materials[1].Count, "material 1 (e3) count")
}

// TestAreaLightTaggingS2 implements §8 scenario S2: an area light targeting
// e1 tags e1 as emissive ahead of entity load, producing a unique
// emitter-entity material and a (0, 1) infinite/finite light count.
func TestAreaLightTaggingS2(t *testing.T) {
	sc := newTestScene()
	addShape(sc, "rect", "rectangle")
	addEntity(sc, "e1", "rect", "b1")

	light := scene.NewObject(scene.KindLight, "L1", "area")
	light.Properties["entity"] = scene.NewStringProperty("e1")
	sc.Lights["L1"] = light

	ctx, _, _ := loadScenePipeline(t, sc)

	require.True(t, ctx.IsEmissiveEntity("e1"))
	require.Len(t, ctx.Materials, 1)
	require.Equal(t, "e1", ctx.Materials[0].EmitterEntity)
	require.Equal(t, 1, ctx.Materials[0].Count, "exactly one entity should reference the emitter material")

	lightDB, err := LoadLights(ctx, sc)
	require.NoError(t, err)
	require.Equal(t, 0, lightDB.InfiniteCount)
	require.Equal(t, 1, lightDB.FiniteCount)

	id, ok := lightDB.GetAreaLightID("e1")
	require.True(t, ok, "expected GetAreaLightID(e1) to resolve")
	require.Equal(t, "e1", lightDB.Lights[id].Entity)
}

// TestEmbeddingThresholdS3 implements §8 scenario S3: 9 point lights leave
// embedding disabled, the 10th flips it on and produces a fixed table with
// exactly 10*8 f32 entries.
func TestEmbeddingThresholdS3(t *testing.T) {
	sc := newTestScene()
	for i := 0; i < 9; i++ {
		sc.Lights[pointLightName(i)] = scene.NewObject(scene.KindLight, pointLightName(i), "point")
	}
	ctx := NewContext(&config.Options{Target: "generic"}, device.TargetGeneric)
	db, err := LoadLights(ctx, sc)
	require.NoError(t, err)
	require.False(t, db.EmbeddingEnabled, "expected embedding disabled at 9 point lights")

	sc.Lights[pointLightName(9)] = scene.NewObject(scene.KindLight, pointLightName(9), "point")
	db, err = LoadLights(ctx, sc)
	require.NoError(t, err)
	require.True(t, db.EmbeddingEnabled, "expected embedding enabled at 10 point lights")

	table, ok := db.FixedTables["SimplePointLight"]
	require.True(t, ok, "expected a SimplePointLight fixed table")
	const f32Size = 4
	require.Equal(t, 10*8, len(table)/f32Size)
}

func pointLightName(i int) string {
	return "pl" + string(rune('a'+i))
}
