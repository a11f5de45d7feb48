package atlas

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-visioncone/pkg/geom"
	"github.com/teslashibe/go-visioncone/pkg/scene"
)

// TargetSpec describes the depth target for one frame.
type TargetSpec struct {
	Size      int
	ReversedZ bool
}

// Backend hands out frame-scoped depth targets.
type Backend interface {
	Acquire(spec TargetSpec) (Target, error)
}

// Target is a depth-only render target. It is acquired at the start of a
// frame and released at the end; nothing carries over between frames.
type Target interface {
	Clear(depth float32)
	ClearRect(r geom.Rect, depth float32)
	SetViewport(r geom.Rect)
	SetScissor(r geom.Rect)
	DisableScissor()
	SetViewProjection(view, proj mgl64.Mat4)
	DrawDepth(bodies []*scene.Body) error
	// Resolve copies the depth buffer out; the copy outlives Release.
	Resolve() *DepthImage
	Release()
}

// Camera is the main view restored after the atlas pass.
type Camera interface {
	View() mgl64.Mat4
	Projection() mgl64.Mat4
}

// StaticCamera is a fixed Camera.
type StaticCamera struct {
	V, P mgl64.Mat4
}

// View implements Camera.
func (c StaticCamera) View() mgl64.Mat4 { return c.V }

// Projection implements Camera.
func (c StaticCamera) Projection() mgl64.Mat4 { return c.P }

// IdentityCamera is a Camera with identity matrices.
func IdentityCamera() StaticCamera {
	return StaticCamera{V: mgl64.Ident4(), P: mgl64.Ident4()}
}
