package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
)

// shC0 is the zeroth spherical harmonic coefficient used to turn Gaussian splat
// f_dc_* terms into base colors.
const shC0 = 0.28209479177387814

// maxPLYPrealloc bounds how many vertices are allocated up front from the header count.
// Larger clouds grow as they are read.
const maxPLYPrealloc = 1 << 20

type plyFormat int

const (
	plyASCII plyFormat = iota
	plyBinaryLE
	plyBinaryBE
)

type plyProperty struct {
	name     string
	kind     string
	list     bool
	countTyp string
}

type plyElement struct {
	name       string
	count      int
	properties []plyProperty
}

type plyHeader struct {
	format   plyFormat
	elements []plyElement
	// length is the header size in bytes, magic line included.
	length int64
}

// plyLoaderBackend reads the vertex element of PLY files: x/y/z positions plus
// red/green/blue or Gaussian splat f_dc_0..2 colors when present.
type plyLoaderBackend struct{}

var _ loaderBackend = &plyLoaderBackend{}

func newPLYLoaderBackend() *plyLoaderBackend {
	return &plyLoaderBackend{}
}

func (b *plyLoaderBackend) Load(path string) (*renderer.PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return b.load(f, info.Size())
}

func (b *plyLoaderBackend) LoadReader(r io.Reader) (*renderer.PointCloud, error) {
	size := int64(-1)
	if sized, ok := r.(interface{ Len() int }); ok {
		size = int64(sized.Len())
	}
	return b.load(r, size)
}

// load parses a PLY stream. size is the number of bytes the stream holds, or -1
// when unknown.
func (b *plyLoaderBackend) load(r io.Reader, size int64) (*renderer.PointCloud, error) {
	br := bufio.NewReader(r)
	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, err
	}
	body := int64(-1)
	if size >= 0 {
		body = size - header.length
	}

	for _, el := range header.elements {
		if el.name == "vertex" {
			return readPLYVertices(br, header.format, el, body)
		}
		if err := skipPLYElement(br, header.format, el); err != nil {
			return nil, fmt.Errorf("skip element %q: %w", el.name, err)
		}
	}
	return nil, errors.New("ply: no vertex element")
}

func parsePLYHeader(br *bufio.Reader) (*plyHeader, error) {
	magic, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, errors.New("ply: missing magic")
	}

	h := &plyHeader{length: int64(len(magic))}
	sawFormat := false
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("ply: truncated header: %w", err)
		}
		h.length += int64(len(line))
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return nil, errors.New("ply: malformed format line")
			}
			switch fields[1] {
			case "ascii":
				h.format = plyASCII
			case "binary_little_endian":
				h.format = plyBinaryLE
			case "binary_big_endian":
				h.format = plyBinaryBE
			default:
				return nil, fmt.Errorf("ply: unknown format %q", fields[1])
			}
			sawFormat = true
		case "comment", "obj_info":
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("ply: malformed element line %q", strings.TrimSpace(line))
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("ply: bad element count %q", fields[2])
			}
			h.elements = append(h.elements, plyElement{name: fields[1], count: n})
		case "property":
			if len(h.elements) == 0 {
				return nil, errors.New("ply: property before element")
			}
			el := &h.elements[len(h.elements)-1]
			switch {
			case len(fields) == 5 && fields[1] == "list":
				el.properties = append(el.properties, plyProperty{name: fields[4], kind: fields[3], list: true, countTyp: fields[2]})
			case len(fields) == 3:
				if plyScalarSize(fields[1]) == 0 {
					return nil, fmt.Errorf("ply: unknown property type %q", fields[1])
				}
				el.properties = append(el.properties, plyProperty{name: fields[2], kind: fields[1]})
			default:
				return nil, fmt.Errorf("ply: malformed property line %q", strings.TrimSpace(line))
			}
		case "end_header":
			if !sawFormat {
				return nil, errors.New("ply: missing format line")
			}
			return h, nil
		default:
			return nil, fmt.Errorf("ply: unexpected header keyword %q", fields[0])
		}
	}
}

func plyScalarSize(kind string) int {
	switch kind {
	case "char", "uchar", "int8", "uint8":
		return 1
	case "short", "ushort", "int16", "uint16":
		return 2
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

// readPLYVertices reads the vertex element. body is the number of bytes left after the
// header, or -1 when unknown; binary files declaring more vertices than fit are rejected.
func readPLYVertices(br *bufio.Reader, format plyFormat, el plyElement, body int64) (*renderer.PointCloud, error) {
	index := map[string]int{}
	for i, p := range el.properties {
		if p.list {
			return nil, fmt.Errorf("ply: list property %q on vertex element", p.name)
		}
		index[p.name] = i
	}
	for _, axis := range []string{"x", "y", "z"} {
		if _, ok := index[axis]; !ok {
			return nil, fmt.Errorf("ply: vertex element has no %q property", axis)
		}
	}
	colorNames, colorScale, colorBias := plyColorProperties(index, el.properties)

	if format != plyASCII && body >= 0 {
		stride := int64(0)
		for _, p := range el.properties {
			stride += int64(plyScalarSize(p.kind))
		}
		if int64(el.count) > body/stride {
			return nil, fmt.Errorf("ply: %d vertices of %d bytes exceed the %d bytes after the header", el.count, stride, body)
		}
	}

	prealloc := min(el.count, maxPLYPrealloc)
	cloud := &renderer.PointCloud{Positions: make([]mgl32.Vec3, 0, prealloc)}
	if colorNames != nil {
		cloud.Colors = make([]mgl32.Vec3, 0, prealloc)
	}

	values := make([]float64, len(el.properties))
	scanner := newPLYValueReader(br, format)
	for v := 0; v < el.count; v++ {
		for i, p := range el.properties {
			x, err := scanner.scalar(p.kind)
			if err != nil {
				return nil, fmt.Errorf("ply: vertex %d property %q: %w", v, p.name, err)
			}
			values[i] = x
		}
		cloud.Positions = append(cloud.Positions, mgl32.Vec3{
			float32(values[index["x"]]),
			float32(values[index["y"]]),
			float32(values[index["z"]]),
		})
		if colorNames != nil {
			var c mgl32.Vec3
			for k, name := range colorNames {
				c[k] = float32(clamp01(values[index[name]]*colorScale + colorBias))
			}
			cloud.Colors = append(cloud.Colors, c)
		}
	}
	return cloud, nil
}

// plyColorProperties picks the color source for a vertex element, returning nil names
// when the element carries no color.
func plyColorProperties(index map[string]int, props []plyProperty) ([]string, float64, float64) {
	rgb := []string{"red", "green", "blue"}
	if hasAll(index, rgb) {
		scale := 1.0 / 255
		switch props[index["red"]].kind {
		case "float", "float32", "double", "float64":
			scale = 1
		}
		return rgb, scale, 0
	}
	dc := []string{"f_dc_0", "f_dc_1", "f_dc_2"}
	if hasAll(index, dc) {
		return dc, shC0, 0.5
	}
	return nil, 0, 0
}

func hasAll(index map[string]int, names []string) bool {
	for _, n := range names {
		if _, ok := index[n]; !ok {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func skipPLYElement(br *bufio.Reader, format plyFormat, el plyElement) error {
	scanner := newPLYValueReader(br, format)
	for n := 0; n < el.count; n++ {
		if format == plyASCII {
			if _, err := br.ReadString('\n'); err != nil {
				return err
			}
			continue
		}
		for _, p := range el.properties {
			count := 1
			if p.list {
				c, err := scanner.scalar(p.countTyp)
				if err != nil {
					return err
				}
				count = int(c)
			}
			for i := 0; i < count; i++ {
				if _, err := scanner.scalar(p.kind); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// plyValueReader reads individual scalars in either ASCII or binary encoding.
type plyValueReader struct {
	br     *bufio.Reader
	format plyFormat
	order  binary.ByteOrder
	buf    [8]byte
}

func newPLYValueReader(br *bufio.Reader, format plyFormat) *plyValueReader {
	var order binary.ByteOrder = binary.LittleEndian
	if format == plyBinaryBE {
		order = binary.BigEndian
	}
	return &plyValueReader{br: br, format: format, order: order}
}

func (s *plyValueReader) scalar(kind string) (float64, error) {
	if s.format == plyASCII {
		return s.token()
	}

	size := plyScalarSize(kind)
	if size == 0 {
		return 0, fmt.Errorf("unknown type %q", kind)
	}
	b := s.buf[:size]
	if _, err := io.ReadFull(s.br, b); err != nil {
		return 0, err
	}
	switch kind {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(s.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(s.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(s.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(s.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(s.order.Uint32(b))), nil
	default:
		return math.Float64frombits(s.order.Uint64(b)), nil
	}
}

// token reads the next whitespace-separated ASCII number.
func (s *plyValueReader) token() (float64, error) {
	var sb strings.Builder
	for {
		c, err := s.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				break
			}
			return 0, err
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if sb.Len() == 0 {
				continue
			}
			break
		}
		sb.WriteByte(c)
	}
	return strconv.ParseFloat(sb.String(), 64)
}
