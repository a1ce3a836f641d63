package kernel

import (
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"
)

// meshFormatVersion is written into every encoded mesh document.
const meshFormatVersion = 1

// cborHandle is shared by all encoders and decoders; handles are safe for
// concurrent use once configured.
var cborHandle = &codec.CborHandle{}

// meshDocument is the on-the-wire form of a baked mesh.
type meshDocument struct {
	Version  int       `codec:"v"`
	Vertices []float32 `codec:"vertices"`
	Normals  []float32 `codec:"normals"`
	Indices  []uint32  `codec:"indices"`
}

// GeometryDecodeError reports a baked mesh that cannot be parsed.
// Callers render nothing for the affected part.
type GeometryDecodeError struct {
	PartID string // empty when the caller did not know the part
	Err    error
}

func (e *GeometryDecodeError) Error() string {
	if e.PartID != "" {
		return fmt.Sprintf("decode baked mesh of part %s: %v", e.PartID, e.Err)
	}
	return fmt.Sprintf("decode baked mesh: %v", e.Err)
}

func (e *GeometryDecodeError) Unwrap() error { return e.Err }

// EncodeMesh serializes the geometry of m (vertices, normals, indices) as a
// CBOR document. PartName is not part of the document.
func EncodeMesh(m *Mesh) ([]byte, error) {
	if m == nil {
		return nil, errors.New("kernel: encode nil mesh")
	}
	doc := meshDocument{
		Version:  meshFormatVersion,
		Vertices: m.Vertices,
		Normals:  m.Normals,
		Indices:  m.Indices,
	}
	var out []byte
	if err := codec.NewEncoderBytes(&out, cborHandle).Encode(&doc); err != nil {
		return nil, fmt.Errorf("kernel: encode mesh: %w", err)
	}
	return out, nil
}

// DecodeMesh parses a document produced by EncodeMesh. Any failure,
// including a structurally inconsistent mesh, is a *GeometryDecodeError.
func DecodeMesh(data []byte) (*Mesh, error) {
	if len(data) == 0 {
		return nil, &GeometryDecodeError{Err: errors.New("empty document")}
	}
	var doc meshDocument
	if err := codec.NewDecoderBytes(data, cborHandle).Decode(&doc); err != nil {
		return nil, &GeometryDecodeError{Err: err}
	}
	if doc.Version != meshFormatVersion {
		return nil, &GeometryDecodeError{Err: fmt.Errorf("unsupported format version %d", doc.Version)}
	}
	m := &Mesh{
		Vertices: doc.Vertices,
		Normals:  doc.Normals,
		Indices:  doc.Indices,
	}
	if err := m.Validate(); err != nil {
		return nil, &GeometryDecodeError{Err: err}
	}
	return m, nil
}
