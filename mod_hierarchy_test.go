package instanced

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformHierarchy(t *testing.T) {
	app, cmd := newTestApp(TransformModule{})

	root := cmd.AddEntity(
		Transform{
			Position: mgl32.Vec3{10, 0, 0},
			Rotation: mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}),
			Scale:    mgl32.Vec3{2, 2, 2},
		},
		LocalToWorld{},
	)
	child := cmd.AddEntity(
		*transformAt(mgl32.Vec3{}),
		LocalToWorld{},
		LocalTransform{Position: mgl32.Vec3{1, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}},
		Parent{Entity: root},
	)
	grandchild := cmd.AddEntity(
		*transformAt(mgl32.Vec3{}),
		LocalToWorld{},
		LocalTransform{Position: mgl32.Vec3{0, 1, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}},
		Parent{Entity: child},
	)

	app.Step()

	ct, ok := getComponent[Transform](app.ecs, child)
	require.True(t, ok)
	// (1,0,0) scaled by 2 and turned 90 degrees about Z lands on (0,2,0)
	assert.True(t, ct.Position.ApproxEqualThreshold(mgl32.Vec3{10, 2, 0}, 1e-5), "child at %v", ct.Position)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, ct.Scale)

	gt, ok := getComponent[Transform](app.ecs, grandchild)
	require.True(t, ok)
	assert.True(t, gt.Position.ApproxEqualThreshold(mgl32.Vec3{8, 2, 0}, 1e-5), "grandchild at %v", gt.Position)

	l2w, ok := getComponent[LocalToWorld](app.ecs, grandchild)
	require.True(t, ok)
	assert.True(t, l2w.Translation().ApproxEqualThreshold(mgl32.Vec3{8, 2, 0}, 1e-5))
}

func TestTransformHierarchy_MissingParent(t *testing.T) {
	app, cmd := newTestApp(TransformModule{})
	orphan := cmd.AddEntity(
		Transform{Position: mgl32.Vec3{1, 2, 3}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}},
		LocalToWorld{},
		LocalTransform{Position: mgl32.Vec3{5, 5, 5}},
		Parent{Entity: 999},
	)

	assert.NotPanics(t, func() { app.Step() })
	tr, _ := getComponent[Transform](app.ecs, orphan)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, tr.Position)
}

func transformAt(p mgl32.Vec3) *Transform {
	t := Transform{Position: p, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
	return &t
}
