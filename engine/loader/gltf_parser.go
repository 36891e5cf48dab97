package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	errGLTFVersion  = errors.New("gltf: only version 2.x is supported")
	errGLBMagic     = errors.New("glb: bad magic")
	errGLBVersion   = errors.New("glb: only container version 2 is supported")
	errGLBNoJSON    = errors.New("glb: missing JSON chunk")
	errGLTFDataURI  = errors.New("gltf: malformed data URI")
	errGLTFShortBuf = errors.New("gltf: buffer shorter than declared byteLength")
	errGLTFSparse   = errors.New("gltf: sparse accessors are not supported")
)

// gltfFile is a parsed document with every buffer resolved to bytes.
type gltfFile struct {
	doc     gltfDocument
	baseDir string
	bin     []byte
}

// parseGLTF parses .gltf JSON or a .glb container. baseDir resolves relative URIs.
//
// Parameters:
//   - data: the whole file
//   - baseDir: the directory external buffers and images are relative to
//
// Returns:
//   - *gltfFile: the parsed file with buffers loaded
//   - error: error on malformed input or unreadable buffers
func parseGLTF(data []byte, baseDir string) (*gltfFile, error) {
	f := &gltfFile{baseDir: baseDir}
	jsonData := data
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic {
		var err error
		if jsonData, f.bin, err = splitGLB(data); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(jsonData, &f.doc); err != nil {
		return nil, fmt.Errorf("gltf: decode JSON: %w", err)
	}
	if !strings.HasPrefix(f.doc.Asset.Version, "2.") {
		return nil, errGLTFVersion
	}
	if err := f.loadBuffers(); err != nil {
		return nil, err
	}
	return f, nil
}

func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	r := bytes.NewReader(data)
	var h glbHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, nil, fmt.Errorf("glb header: %w", err)
	}
	if h.Magic != glbMagic {
		return nil, nil, errGLBMagic
	}
	if h.Version != glbVersion {
		return nil, nil, errGLBVersion
	}
	for {
		var ch glbChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &ch); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("glb chunk header: %w", err)
		}
		chunk := make([]byte, ch.Length)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, nil, fmt.Errorf("glb chunk: %w", err)
		}
		switch ch.Type {
		case glbChunkJSON:
			jsonChunk = chunk
		case glbChunkBIN:
			binChunk = chunk
		}
	}
	if jsonChunk == nil {
		return nil, nil, errGLBNoJSON
	}
	return jsonChunk, binChunk, nil
}

func (f *gltfFile) loadBuffers() error {
	for i := range f.doc.Buffers {
		b := &f.doc.Buffers[i]
		switch {
		case b.URI == "" && i == 0 && f.bin != nil:
			b.data = f.bin
		case b.URI == "":
			return fmt.Errorf("gltf: buffer %d has neither a URI nor a GLB chunk", i)
		default:
			data, err := f.resolveURI(b.URI)
			if err != nil {
				return fmt.Errorf("gltf: buffer %d: %w", i, err)
			}
			b.data = data
		}
		if len(b.data) < b.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errGLTFShortBuf)
		}
	}
	return nil
}

// resolveURI reads a base64 data URI or a file relative to the document.
func (f *gltfFile) resolveURI(uri string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(uri, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, errGLTFDataURI
		}
		return base64.StdEncoding.DecodeString(payload)
	}
	return os.ReadFile(filepath.Join(f.baseDir, filepath.FromSlash(uri)))
}

func (f *gltfFile) bufferView(index int) ([]byte, int, error) {
	if index < 0 || index >= len(f.doc.BufferViews) {
		return nil, 0, fmt.Errorf("gltf: bufferView %d out of range", index)
	}
	bv := f.doc.BufferViews[index]
	if bv.Buffer < 0 || bv.Buffer >= len(f.doc.Buffers) {
		return nil, 0, fmt.Errorf("gltf: buffer %d out of range", bv.Buffer)
	}
	buf := f.doc.Buffers[bv.Buffer].data
	end := bv.ByteOffset + bv.ByteLength
	if end > len(buf) {
		return nil, 0, fmt.Errorf("gltf: bufferView %d exceeds its buffer", index)
	}
	stride := 0
	if bv.ByteStride != nil {
		stride = *bv.ByteStride
	}
	return buf[bv.ByteOffset:end], stride, nil
}

func componentCount(typ string) int {
	switch typ {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4", "MAT2":
		return 4
	case "MAT3":
		return 9
	case "MAT4":
		return 16
	}
	return 0
}

func componentSize(ct int) int {
	switch ct {
	case gltfByte, gltfUnsignedByte:
		return 1
	case gltfShort, gltfUnsignedShort:
		return 2
	case gltfUnsignedInt, gltfFloat:
		return 4
	}
	return 0
}

// elements calls fn with the raw bytes of every element of accessor index.
func (f *gltfFile) elements(index int, fn func(i int, elem []byte)) (gltfAccessor, error) {
	if index < 0 || index >= len(f.doc.Accessors) {
		return gltfAccessor{}, fmt.Errorf("gltf: accessor %d out of range", index)
	}
	acc := f.doc.Accessors[index]
	if acc.Sparse != nil {
		return acc, errGLTFSparse
	}
	if acc.BufferView == nil {
		return acc, fmt.Errorf("gltf: accessor %d has no bufferView", index)
	}
	view, stride, err := f.bufferView(*acc.BufferView)
	if err != nil {
		return acc, err
	}
	size := componentSize(acc.ComponentType) * componentCount(acc.Type)
	if size == 0 {
		return acc, fmt.Errorf("gltf: accessor %d has unknown layout %s/%d", index, acc.Type, acc.ComponentType)
	}
	stride = max(stride, size)
	for i := range acc.Count {
		off := acc.ByteOffset + i*stride
		if off+size > len(view) {
			return acc, fmt.Errorf("gltf: accessor %d overruns its bufferView", index)
		}
		fn(i, view[off:off+size])
	}
	return acc, nil
}

// floats reads accessor index as float32 tuples of n components. Normalized unsigned byte and
// short components are mapped to [0, 1].
func (f *gltfFile) floats(index, n int) ([]float32, error) {
	if index >= 0 && index < len(f.doc.Accessors) {
		if got := componentCount(f.doc.Accessors[index].Type); got != n {
			return nil, fmt.Errorf("gltf: accessor %d has %d components, want %d", index, got, n)
		}
	}
	var out []float32
	acc, err := f.elements(index, func(i int, elem []byte) {
		if out == nil {
			out = make([]float32, 0, n*f.doc.Accessors[index].Count)
		}
		for c := range n {
			out = append(out, decodeComponent(elem, c, f.doc.Accessors[index]))
		}
	})
	if err != nil {
		return nil, err
	}
	switch acc.ComponentType {
	case gltfFloat, gltfUnsignedByte, gltfUnsignedShort:
	default:
		return nil, fmt.Errorf("gltf: accessor %d has unsupported float component type %d", index, acc.ComponentType)
	}
	return out, nil
}

func decodeComponent(elem []byte, c int, acc gltfAccessor) float32 {
	switch acc.ComponentType {
	case gltfFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(elem[c*4:]))
	case gltfUnsignedByte:
		return float32(elem[c]) / math.MaxUint8
	case gltfUnsignedShort:
		return float32(binary.LittleEndian.Uint16(elem[c*2:])) / math.MaxUint16
	}
	return 0
}

// indices reads an unsigned SCALAR accessor widened to uint32.
func (f *gltfFile) indices(index int) ([]uint32, error) {
	var out []uint32
	acc, err := f.elements(index, func(i int, elem []byte) {
		switch len(elem) {
		case 1:
			out = append(out, uint32(elem[0]))
		case 2:
			out = append(out, uint32(binary.LittleEndian.Uint16(elem)))
		case 4:
			out = append(out, binary.LittleEndian.Uint32(elem))
		}
	})
	if err != nil {
		return nil, err
	}
	if acc.Type != "SCALAR" {
		return nil, fmt.Errorf("gltf: index accessor %d is %s", index, acc.Type)
	}
	return out, nil
}

// image returns the encoded bytes of image index from a bufferView, a data URI or a file.
func (f *gltfFile) image(index int) ([]byte, error) {
	if index < 0 || index >= len(f.doc.Images) {
		return nil, fmt.Errorf("gltf: image %d out of range", index)
	}
	img := f.doc.Images[index]
	if img.BufferView != nil {
		view, _, err := f.bufferView(*img.BufferView)
		return view, err
	}
	if img.URI == "" {
		return nil, fmt.Errorf("gltf: image %d has no source", index)
	}
	return f.resolveURI(img.URI)
}
