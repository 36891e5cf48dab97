// obj_loader_backend.go parses Wavefront OBJ files and their MTL libraries. Polygons are
// fan-triangulated and every distinct position/uv/normal triple becomes one vertex, so each
// sub-mesh draws from a single index list. A new sub-mesh starts at every o, g or usemtl line
// that follows faces.
// Reference: https://paulbourke.net/dataformats/obj/
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/model"
)

// objShininessScale maps the MTL Ns exponent range [0, 1000] onto gloss [0, 1].
const objShininessScale = 1000

type objBackend struct{}

var _ loaderBackend = objBackend{}

func (objBackend) Load(path string) (*LoadedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return objBackend{}.Decode(modelName(path), data, filepath.Dir(path))
}

func (objBackend) Decode(name string, data []byte, baseDir string) (*LoadedModel, error) {
	dec := newObjDecoder(baseDir)
	if err := scanLines(bytes.NewReader(data), dec.objLine); err != nil {
		return nil, err
	}
	return dec.build(name)
}

// objIndex is one corner of a face: 0-based position, uv and normal indices, -1 when absent.
type objIndex struct{ v, vt, vn int }

type objGroup struct {
	name     string
	material string
	faces    [][]objIndex
}

type objDecoder struct {
	baseDir   string
	positions []common.Vec3
	uvs       []common.Vec2
	normals   []common.Vec3
	groups    []*objGroup
	current   *objGroup
	name      string
	material  string

	materials     []model.Material
	materialIndex map[string]int
	mtl           *objMaterial
}

// objMaterial accumulates one newmtl block before texture decoding.
type objMaterial struct {
	model.Material
	diffuseMap, normalMap, specularMap string
	dir                                string
}

func newObjDecoder(baseDir string) *objDecoder {
	return &objDecoder{baseDir: baseDir, materialIndex: map[string]int{}}
}

func scanLines(r io.Reader, parse func(lineNo int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for n := 1; sc.Scan(); n++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := parse(n, fields); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return sc.Err()
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

func (d *objDecoder) objLine(_ int, fields []string) error {
	args := fields[1:]
	switch fields[0] {
	case "v":
		f, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		d.positions = append(d.positions, common.Vec3(f))
	case "vt":
		f, err := parseFloats(args, 1)
		if err != nil {
			return err
		}
		uv := common.Vec2{f[0], 0}
		if len(args) > 1 {
			v, err := strconv.ParseFloat(args[1], 32)
			if err != nil {
				return err
			}
			uv[1] = float32(v)
		}
		d.uvs = append(d.uvs, uv)
	case "vn":
		f, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		d.normals = append(d.normals, common.Vec3(f))
	case "f":
		return d.face(args)
	case "o", "g":
		d.name = strings.Join(args, " ")
		d.current = nil
	case "usemtl":
		d.material = strings.Join(args, " ")
		d.current = nil
	case "mtllib":
		for _, lib := range args {
			if err := d.loadMaterialLibrary(filepath.Join(d.baseDir, lib)); err != nil {
				common.Logger().Warn("material library unavailable", "path", lib, "error", err)
			}
		}
	}
	return nil
}

func (d *objDecoder) face(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(args))
	}
	corners := make([]objIndex, len(args))
	for i, a := range args {
		parts := strings.Split(a, "/")
		c := objIndex{v: -1, vt: -1, vn: -1}
		var err error
		if c.v, err = resolveObjIndex(parts[0], len(d.positions)); err != nil {
			return err
		}
		if len(parts) > 1 && parts[1] != "" {
			if c.vt, err = resolveObjIndex(parts[1], len(d.uvs)); err != nil {
				return err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if c.vn, err = resolveObjIndex(parts[2], len(d.normals)); err != nil {
				return err
			}
		}
		corners[i] = c
	}
	if d.current == nil {
		d.current = &objGroup{name: d.name, material: d.material}
		d.groups = append(d.groups, d.current)
	}
	d.current.faces = append(d.current.faces, corners)
	return nil
}

// resolveObjIndex converts a 1-based or negative relative OBJ index into a 0-based one.
func resolveObjIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q: %w", s, err)
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return 0, fmt.Errorf("index %d out of range for %d elements", i, n)
}

func (d *objDecoder) loadMaterialLibrary(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	err = scanLines(bytes.NewReader(data), func(_ int, fields []string) error {
		return d.mtlLine(dir, fields)
	})
	d.flushMaterial()
	return err
}

func (d *objDecoder) mtlLine(dir string, fields []string) error {
	args := fields[1:]
	if fields[0] == "newmtl" {
		d.flushMaterial()
		d.mtl = &objMaterial{Material: model.DefaultMaterial(), dir: dir}
		d.mtl.Name = strings.Join(args, " ")
		return nil
	}
	if d.mtl == nil {
		return nil
	}
	m := d.mtl
	switch fields[0] {
	case "Kd":
		f, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		m.BaseColor = common.Color{f[0], f[1], f[2], m.BaseColor[3]}
	case "Ks":
		f, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		m.Specular = common.Vec3(f)
	case "Ns":
		f, err := parseFloats(args, 1)
		if err != nil {
			return err
		}
		m.Gloss = common.Clamp(f[0]/objShininessScale, 0, 1)
	case "d":
		f, err := parseFloats(args, 1)
		if err != nil {
			return err
		}
		m.Alpha, m.BaseColor[3] = f[0], f[0]
	case "Tr":
		f, err := parseFloats(args, 1)
		if err != nil {
			return err
		}
		m.Alpha, m.BaseColor[3] = 1-f[0], 1-f[0]
	case "map_Kd":
		m.diffuseMap = mapPath(args)
	case "map_Bump", "map_bump", "bump", "norm":
		m.normalMap = mapPath(args)
	case "map_Ks":
		m.specularMap = mapPath(args)
	}
	return nil
}

// mapPath returns the file operand of a map_ statement, which follows any -option arguments.
func mapPath(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}

// flushMaterial decodes the pending material's textures and registers it. A texture that
// fails to load is logged and left out so material indices stay stable.
func (d *objDecoder) flushMaterial() {
	if d.mtl == nil {
		return
	}
	m := d.mtl
	d.mtl = nil
	if tex, err := loadTextureFile(m.dir, m.diffuseMap); err != nil {
		common.Logger().Error("diffuse texture failed to load", "material", m.Name, "error", err)
	} else if tex != nil {
		m.Diffuse = *tex
	}
	if tex, err := loadTextureFile(m.dir, m.normalMap); err != nil {
		common.Logger().Error("normal texture failed to load", "material", m.Name, "error", err)
	} else {
		m.Normal = tex
	}
	if tex, err := loadTextureFile(m.dir, m.specularMap); err != nil {
		common.Logger().Error("specular texture failed to load", "material", m.Name, "error", err)
	} else {
		m.SpecularMap = tex
	}
	d.materialIndex[m.Name] = len(d.materials)
	d.materials = append(d.materials, m.Material)
}

func loadTextureFile(dir, name string) (*common.TextureStagingData, error) {
	if name == "" {
		return nil, nil
	}
	path := filepath.FromSlash(name)
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tex, err := common.DecodeTexture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &tex, nil
}

func (d *objDecoder) build(name string) (*LoadedModel, error) {
	out := &LoadedModel{Name: name, Materials: d.materials}
	if len(out.Materials) == 0 {
		out.Materials = []model.Material{model.DefaultMaterial()}
	}
	for gi, g := range d.groups {
		mesh := model.Mesh{Name: common.Coalesce(g.name, fmt.Sprintf("%s_%d", name, gi))}
		if idx, ok := d.materialIndex[g.material]; ok {
			mesh.MaterialIndex = idx
		} else if g.material != "" {
			common.Logger().Warn("unknown material, using the first", "model", name, "material", g.material)
		}

		seen := map[objIndex]uint32{}
		hasNormals := true
		vertex := func(c objIndex) uint32 {
			if idx, ok := seen[c]; ok {
				return idx
			}
			v := model.Vertex{Position: d.positions[c.v]}
			if c.vt >= 0 {
				uv := d.uvs[c.vt]
				v.TexCoord = [2]float32{uv[0], 1 - uv[1]}
			}
			if c.vn >= 0 {
				v.Normal = d.normals[c.vn]
			} else {
				hasNormals = false
			}
			idx := uint32(len(mesh.Vertices))
			mesh.Vertices = append(mesh.Vertices, v)
			seen[c] = idx
			return idx
		}
		for _, face := range g.faces {
			first := vertex(face[0])
			for k := 2; k < len(face); k++ {
				mesh.Indices = append(mesh.Indices, first, vertex(face[k-1]), vertex(face[k]))
			}
		}

		if !hasNormals {
			mesh.ComputeNormals()
		}
		if out.Materials[clampIndex(mesh.MaterialIndex, len(out.Materials))].HasNormalMap() {
			mesh.ComputeTangents()
		}
		out.Meshes = append(out.Meshes, mesh)
	}
	if len(out.Meshes) == 0 {
		return nil, ErrNoGeometry
	}
	return out, nil
}
