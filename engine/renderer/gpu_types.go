package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// InstancedShaderSource is the WGSL program used by the instanced cube pass.
//
//go:embed assets/instanced.wgsl
var InstancedShaderSource string

// GPUVertex is one vertex of the unit cube mesh.
// Size: 24 bytes.
type GPUVertex struct {
	Position [3]float32 // offset  0: model-space position
	Color    [3]float32 // offset 12: face color
}

// Size returns the size of the GPUVertex struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex for upload.
//
// Returns:
//   - []byte: 24-byte buffer ready for GPU upload
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, g.Position[:]...)
	putFloats(buf[12:], g.Color[:]...)
	return buf
}

// GPUInstance places one copy of the cube.
// Size: 28 bytes.
type GPUInstance struct {
	Offset [3]float32 // offset  0: world (or model) position of the cube center
	Scale  float32    // offset 12: uniform scale
	Tint   [3]float32 // offset 16: color multiplier
}

// Size returns the size of the GPUInstance struct in bytes.
func (g *GPUInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUInstance for upload.
//
// Returns:
//   - []byte: 28-byte buffer ready for GPU upload
func (g *GPUInstance) Marshal() []byte {
	buf := make([]byte, g.Size())
	putFloats(buf, g.Offset[:]...)
	putFloats(buf[12:], g.Scale)
	putFloats(buf[16:], g.Tint[:]...)
	return buf
}

// GPUViewUniform is the per-draw uniform block (see InstancedShaderSource).
// Size: 64 bytes.
type GPUViewUniform struct {
	ViewProj [16]float32
}

// Marshal serializes the GPUViewUniform for upload.
func (g *GPUViewUniform) Marshal() []byte {
	buf := make([]byte, 64)
	putFloats(buf, g.ViewProj[:]...)
	return buf
}

func putFloats(buf []byte, values ...float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

// marshalInstances packs instances back to back.
func marshalInstances(instances []GPUInstance) []byte {
	if len(instances) == 0 {
		return nil
	}
	stride := instances[0].Size()
	buf := make([]byte, 0, stride*len(instances))
	for i := range instances {
		buf = append(buf, instances[i].Marshal()...)
	}
	return buf
}

// cubeFaces lists the six faces of a unit cube centred on the origin as
// counter-clockwise quads seen from outside, with one color per face.
var cubeFaces = [6]struct {
	corners [4]mgl32.Vec3
	color   [3]float32
}{
	{[4]mgl32.Vec3{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}, [3]float32{0.9, 0.3, 0.3}},
	{[4]mgl32.Vec3{{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}}, [3]float32{0.3, 0.9, 0.3}},
	{[4]mgl32.Vec3{{0.5, -0.5, 0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}}, [3]float32{0.3, 0.3, 0.9}},
	{[4]mgl32.Vec3{{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}}, [3]float32{0.9, 0.9, 0.3}},
	{[4]mgl32.Vec3{{-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5}}, [3]float32{0.3, 0.9, 0.9}},
	{[4]mgl32.Vec3{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}}, [3]float32{0.9, 0.3, 0.9}},
}

// CubeVertices returns the 36 triangle-list vertices of the unit cube.
func CubeVertices() []GPUVertex {
	out := make([]GPUVertex, 0, 36)
	for _, f := range cubeFaces {
		for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
			out = append(out, GPUVertex{Position: f.corners[i], Color: f.color})
		}
	}
	return out
}
