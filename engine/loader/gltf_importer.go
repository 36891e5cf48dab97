package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/model"
)

// gltfBackend imports .gltf and .glb files.
type gltfBackend struct{}

var _ loaderBackend = gltfBackend{}

func (gltfBackend) Load(path string) (*LoadedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return gltfBackend{}.Decode(modelName(path), data, filepath.Dir(path))
}

func (gltfBackend) Decode(name string, data []byte, baseDir string) (*LoadedModel, error) {
	f, err := parseGLTF(data, baseDir)
	if err != nil {
		return nil, err
	}
	imp := &gltfImporter{file: f, images: map[int]*common.TextureStagingData{}}
	return imp.importModel(name)
}

// gltfImporter converts a parsed file into CPU meshes and materials. Decoded images are shared
// between materials that reference the same source.
type gltfImporter struct {
	file   *gltfFile
	images map[int]*common.TextureStagingData
}

func (imp *gltfImporter) importModel(name string) (*LoadedModel, error) {
	doc := &imp.file.doc
	out := &LoadedModel{Name: name}

	for i, gm := range doc.Materials {
		mat, err := imp.material(gm)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		out.Materials = append(out.Materials, mat)
	}
	if len(out.Materials) == 0 {
		out.Materials = append(out.Materials, model.DefaultMaterial())
	}

	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != nil && *prim.Mode != gltfModeTriangles {
				common.Logger().Warn("skipping non-triangle primitive", "model", name, "mesh", mi, "primitive", pi, "mode", *prim.Mode)
				continue
			}
			mesh, err := imp.primitive(prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			mesh.Name = common.Coalesce(gm.Name, fmt.Sprintf("mesh_%d", mi))
			if len(gm.Primitives) > 1 {
				mesh.Name = fmt.Sprintf("%s_%d", mesh.Name, pi)
			}
			if out.Materials[clampIndex(mesh.MaterialIndex, len(out.Materials))].HasNormalMap() {
				mesh.ComputeTangents()
			}
			out.Meshes = append(out.Meshes, mesh)
		}
	}
	if len(out.Meshes) == 0 {
		return nil, ErrNoGeometry
	}
	return out, nil
}

func (imp *gltfImporter) primitive(prim gltfPrimitive) (model.Mesh, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return model.Mesh{}, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := imp.file.floats(posIdx, 3)
	if err != nil {
		return model.Mesh{}, fmt.Errorf("positions: %w", err)
	}
	count := len(positions) / 3

	var normals, uvs []float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = imp.file.floats(idx, 3); err != nil {
			return model.Mesh{}, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = imp.file.floats(idx, 2); err != nil {
			return model.Mesh{}, fmt.Errorf("texcoords: %w", err)
		}
	}

	mesh := model.Mesh{Vertices: make([]model.Vertex, count)}
	for i := range count {
		v := &mesh.Vertices[i]
		v.Position = [3]float32(positions[i*3 : i*3+3])
		if len(normals) >= (i+1)*3 {
			v.Normal = [3]float32(normals[i*3 : i*3+3])
		}
		if len(uvs) >= (i+1)*2 {
			v.TexCoord = [2]float32(uvs[i*2 : i*2+2])
		}
	}

	if prim.Indices != nil {
		if mesh.Indices, err = imp.file.indices(*prim.Indices); err != nil {
			return model.Mesh{}, fmt.Errorf("indices: %w", err)
		}
	} else {
		mesh.Indices = model.SequentialIndices(count)
	}
	if prim.Material != nil {
		mesh.MaterialIndex = *prim.Material
	}
	if err := mesh.Validate(); err != nil {
		return model.Mesh{}, err
	}
	if normals == nil {
		mesh.ComputeNormals()
	}
	return mesh, nil
}

// material maps the metallic-roughness model onto glace's Blinn-Phong parameters: the
// metallic factor becomes gloss and the metallic-roughness texture drives the specular map.
// Masked and blended materials render at half alpha.
func (imp *gltfImporter) material(gm gltfMaterial) (model.Material, error) {
	mat := model.DefaultMaterial()
	mat.Name = gm.Name
	switch strings.ToUpper(gm.AlphaMode) {
	case "MASK", "BLEND":
		mat.Alpha = 0.5
	}

	if pbr := gm.PBR; pbr != nil {
		if pbr.BaseColorFactor != nil {
			mat.BaseColor = common.Color(*pbr.BaseColorFactor)
		}
		if pbr.MetallicFactor != nil {
			mat.Gloss = *pbr.MetallicFactor
		}
		if pbr.BaseColorTexture != nil {
			tex, err := imp.texture(pbr.BaseColorTexture.Index)
			if err != nil {
				return mat, fmt.Errorf("base color texture: %w", err)
			}
			mat.Diffuse = *tex
		}
		if pbr.MetallicRoughnessTexture != nil {
			tex, err := imp.texture(pbr.MetallicRoughnessTexture.Index)
			if err != nil {
				return mat, fmt.Errorf("metallic-roughness texture: %w", err)
			}
			mat.SpecularMap = tex
		}
	}
	if gm.NormalTexture != nil {
		tex, err := imp.texture(gm.NormalTexture.Index)
		if err != nil {
			return mat, fmt.Errorf("normal texture: %w", err)
		}
		mat.Normal = tex
	}
	return mat, nil
}

func (imp *gltfImporter) texture(index int) (*common.TextureStagingData, error) {
	textures := imp.file.doc.Textures
	if index < 0 || index >= len(textures) || textures[index].Source == nil {
		return nil, fmt.Errorf("texture %d has no image source", index)
	}
	src := *textures[index].Source
	if cached, ok := imp.images[src]; ok {
		return cached, nil
	}
	data, err := imp.file.image(src)
	if err != nil {
		return nil, err
	}
	decoded, err := common.DecodeTexture(data)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", src, err)
	}
	imp.images[src] = &decoded
	return &decoded, nil
}

func clampIndex(i, n int) int {
	if i < 0 || i >= n {
		return 0
	}
	return i
}
