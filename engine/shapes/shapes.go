// Package shapes generates procedural meshes. Every mesh is an indexed triangle list with
// counter-clockwise front faces, outward normals, UVs with a top-left origin and a computed
// tangent frame, so it renders through the mesh pipeline with back-face culling and normal maps.
package shapes

import (
	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/model"
	"github.com/chewxy/math32"
)

// cubeFace spans one side: the corners are normal ± u ± v, with u × v = normal.
type cubeFace struct {
	normal, u, v common.Vec3
}

var cubeFaces = [6]cubeFace{
	{common.Vec3{1, 0, 0}, common.Vec3{0, 0, -1}, common.Vec3{0, 1, 0}},
	{common.Vec3{-1, 0, 0}, common.Vec3{0, 0, 1}, common.Vec3{0, 1, 0}},
	{common.Vec3{0, 1, 0}, common.Vec3{1, 0, 0}, common.Vec3{0, 0, -1}},
	{common.Vec3{0, -1, 0}, common.Vec3{1, 0, 0}, common.Vec3{0, 0, 1}},
	{common.Vec3{0, 0, 1}, common.Vec3{1, 0, 0}, common.Vec3{0, 1, 0}},
	{common.Vec3{0, 0, -1}, common.Vec3{-1, 0, 0}, common.Vec3{0, 1, 0}},
}

func mul(a, b common.Vec3) common.Vec3 {
	return common.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func finish(m model.Mesh) model.Mesh {
	m.ComputeTangents()
	return m
}

// Cube returns a box centered on the origin with four vertices per face.
//
// Parameters:
//   - x, y, z: the edge lengths along each axis
//
// Returns:
//   - model.Mesh: 24 vertices and 36 indices
func Cube(x, y, z float32) model.Mesh {
	half := common.Vec3{x / 2, y / 2, z / 2}
	m := model.Mesh{Name: "cube"}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	for _, f := range cubeFaces {
		base := uint32(len(m.Vertices))
		for i, c := range corners {
			p := f.normal.Add(f.u.Scale(c[0])).Add(f.v.Scale(c[1]))
			m.Vertices = append(m.Vertices, model.NewVertex(mul(p, half), f.normal, uvs[i]))
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return finish(m)
}

// Plane returns a square grid on the XZ plane, centered on the origin and facing +Y.
// The UVs span [0, 1] once across the whole plane.
//
// Parameters:
//   - size: the edge length
//   - resolution: the number of cells along each edge, at least 1
//
// Returns:
//   - model.Mesh: (resolution+1)² vertices
func Plane(size float32, resolution int) model.Mesh {
	resolution = max(resolution, 1)
	step := size / float32(resolution)
	m := model.Mesh{Name: "plane"}
	for row := 0; row <= resolution; row++ {
		for col := 0; col <= resolution; col++ {
			p := [3]float32{float32(col)*step - size/2, 0, float32(row)*step - size/2}
			uv := [2]float32{float32(col) / float32(resolution), float32(row) / float32(resolution)}
			m.Vertices = append(m.Vertices, model.NewVertex(p, [3]float32{0, 1, 0}, uv))
		}
	}
	stride := uint32(resolution + 1)
	for row := range uint32(resolution) {
		for col := range uint32(resolution) {
			i := row*stride + col
			m.Indices = append(m.Indices, i, i+stride, i+1, i+1, i+stride, i+stride+1)
		}
	}
	return finish(m)
}

// Quad returns a square in the XY plane facing +Z, centered on the origin.
func Quad(size float32) model.Mesh {
	h := size / 2
	n := [3]float32{0, 0, 1}
	return finish(model.Mesh{
		Name: "quad",
		Vertices: []model.Vertex{
			model.NewVertex([3]float32{-h, -h, 0}, n, [2]float32{0, 1}),
			model.NewVertex([3]float32{h, -h, 0}, n, [2]float32{1, 1}),
			model.NewVertex([3]float32{h, h, 0}, n, [2]float32{1, 0}),
			model.NewVertex([3]float32{-h, h, 0}, n, [2]float32{0, 0}),
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	})
}

// FullscreenQuad returns a quad covering clip space, for passes that draw without a camera.
func FullscreenQuad() model.Mesh {
	m := Quad(2)
	m.Name = "fullscreen quad"
	return m
}

// ring is one latitude of a revolved surface.
type ring struct {
	y, radius float32
	normal    func(cos, sin float32) [3]float32
	v         float32
}

// revolve sweeps rings around the Y axis. Each ring repeats its first vertex so the UV seam
// has its own column. Azimuth runs toward -Z, which keeps fronts counter-clockwise from outside.
func revolve(name string, rings []ring, segments int) model.Mesh {
	m := model.Mesh{Name: name}
	for _, r := range rings {
		for s := 0; s <= segments; s++ {
			u := float32(s) / float32(segments)
			sin, cos := math32.Sincos(2 * math32.Pi * u)
			p := [3]float32{r.radius * cos, r.y, -r.radius * sin}
			m.Vertices = append(m.Vertices, model.NewVertex(p, r.normal(cos, sin), [2]float32{u, r.v}))
		}
	}
	stride := uint32(segments + 1)
	for r := range uint32(len(rings) - 1) {
		for s := range uint32(segments) {
			a := r*stride + s
			b, c := a+1, a+stride
			d := c + 1
			m.Indices = append(m.Indices, a, c, b, b, c, d)
		}
	}
	return finish(m)
}

// hemisphere appends latitude rings from the pole (phi = 0) toward the equator (phi = π/2),
// or the reverse for the south half. yOffset shifts the cap along Y and vOf maps the polar
// angle to a texture row.
func hemisphere(radius, yOffset float32, latitudes int, south bool, vOf func(phi float32) float32) []ring {
	out := make([]ring, 0, latitudes+1)
	for i := 0; i <= latitudes; i++ {
		phi := math32.Pi / 2 * float32(i) / float32(latitudes)
		if south {
			phi = math32.Pi/2 + math32.Pi/2*float32(i)/float32(latitudes)
		}
		sinPhi, cosPhi := math32.Sincos(phi)
		out = append(out, ring{
			y:      radius*cosPhi + yOffset,
			radius: radius * sinPhi,
			v:      vOf(phi),
			normal: func(cos, sin float32) [3]float32 {
				return [3]float32{sinPhi * cos, cosPhi, -sinPhi * sin}
			},
		})
	}
	return out
}

// UVSphere returns a latitude-longitude sphere centered on the origin.
//
// Parameters:
//   - radius: the sphere radius
//   - rings: the number of latitude bands, at least 2
//   - segments: the number of longitude segments, at least 3
//
// Returns:
//   - model.Mesh: (rings+1)(segments+1) vertices
func UVSphere(radius float32, rings, segments int) model.Mesh {
	rings = max(rings, 2)
	segments = max(segments, 3)
	rs := make([]ring, 0, rings+1)
	for i := 0; i <= rings; i++ {
		phi := math32.Pi * float32(i) / float32(rings)
		sinPhi, cosPhi := math32.Sincos(phi)
		rs = append(rs, ring{
			y:      radius * cosPhi,
			radius: radius * sinPhi,
			v:      float32(i) / float32(rings),
			normal: func(cos, sin float32) [3]float32 {
				return [3]float32{sinPhi * cos, cosPhi, -sinPhi * sin}
			},
		})
	}
	return revolve("sphere", rs, segments)
}

// Capsule returns a cylinder capped by hemispheres, centered on the origin along Y. Texture
// rows are distributed by arc length so the texel density matches on caps and body.
//
// Parameters:
//   - radius: the radius of the body and caps
//   - depth: the length of the cylindrical body, excluding the caps
//   - latitudes: rings per hemisphere, at least 2
//   - segments: longitude segments, at least 3
//
// Returns:
//   - model.Mesh: the capsule
func Capsule(radius, depth float32, latitudes, segments int) model.Mesh {
	latitudes = max(latitudes, 2)
	segments = max(segments, 3)
	depth = max(depth, 0)
	half := depth / 2
	arc := math32.Pi / 2 * radius
	total := 2*arc + depth
	north := hemisphere(radius, half, latitudes, false, func(phi float32) float32 {
		return phi * radius / total
	})
	south := hemisphere(radius, -half, latitudes, true, func(phi float32) float32 {
		return (depth + phi*radius) / total
	})
	if depth == 0 {
		// the equators coincide, drop the duplicate
		south = south[1:]
	}
	return revolve("capsule", append(north, south...), segments)
}

// Cylinder returns an open-ended tube plus flat caps, centered on the origin along Y.
//
// Parameters:
//   - radius: the radius
//   - height: the length along Y
//   - segments: longitude segments, at least 3
//
// Returns:
//   - model.Mesh: the cylinder
func Cylinder(radius, height float32, segments int) model.Mesh {
	segments = max(segments, 3)
	side := func(cos, sin float32) [3]float32 { return [3]float32{cos, 0, -sin} }
	body := revolve("cylinder", []ring{
		{y: height / 2, radius: radius, v: 0, normal: side},
		{y: -height / 2, radius: radius, v: 1, normal: side},
	}, segments)

	for _, capY := range []float32{height / 2, -height / 2} {
		n := [3]float32{0, 1, 0}
		if capY < 0 {
			n[1] = -1
		}
		center := uint32(len(body.Vertices))
		body.Vertices = append(body.Vertices, model.NewVertex([3]float32{0, capY, 0}, n, [2]float32{0.5, 0.5}))
		for s := 0; s <= segments; s++ {
			sin, cos := math32.Sincos(2 * math32.Pi * float32(s) / float32(segments))
			p := [3]float32{radius * cos, capY, -radius * sin}
			uv := [2]float32{0.5 + cos/2, 0.5 + sin/2}
			body.Vertices = append(body.Vertices, model.NewVertex(p, n, uv))
		}
		for s := range uint32(segments) {
			a, b := center+1+s, center+2+s
			if capY > 0 {
				body.Indices = append(body.Indices, center, a, b)
			} else {
				body.Indices = append(body.Indices, center, b, a)
			}
		}
	}
	return finish(body)
}
