package formats

import (
	"errors"
	"fmt"
	"os"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
)

// Limits on stored counts; anything larger is treated as corruption.
const (
	rsmNameSize     = 40
	maxRSMNodes     = 10000
	maxRSMTextures  = 1000
	maxRSMElements  = 100000
	maxRSMKeyframes = 10000
	maxRSMBoxes     = 1000
)

// RSMVersion is the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMShadingType is the model's shading mode.
type RSMShadingType int32

const (
	RSMShadingNone   RSMShadingType = 0
	RSMShadingFlat   RSMShadingType = 1
	RSMShadingSmooth RSMShadingType = 2
)

// String returns a human-readable shading type name.
func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// RSMTexCoord is a texture coordinate with its vertex color.
type RSMTexCoord struct {
	Color [4]uint8 // RGBA, white before 1.2
	U, V  float32
}

// RSMFace is a triangle.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16 // index into the node's TextureIDs
	TwoSide     int32
	SmoothGroup int32 // 1.2+
}

// RSMPosKeyframe is a position keyframe (before 1.5).
type RSMPosKeyframe struct {
	Frame    int32
	Position [3]float32
}

// RSMRotKeyframe is a rotation keyframe, quaternion in x, y, z, w order.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32
}

// RSMScaleKeyframe is a scale keyframe (1.5+).
type RSMScaleKeyframe struct {
	Frame int32
	Scale [3]float32
}

// RSMNode is one mesh node of the model hierarchy.
type RSMNode struct {
	Name       string
	Parent     string
	TextureIDs []int32 // indices into RSM.Textures

	// Matrix is a column-major 3x3 applied to vertices after Offset. It is
	// not inherited by children.
	Matrix   [9]float32
	Offset   [3]float32
	Position [3]float32
	RotAngle float32
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	PosKeys   []RSMPosKeyframe
	RotKeys   []RSMRotKeyframe
	ScaleKeys []RSMScaleKeyframe
}

// RSMVolumeBox is a collision volume.
type RSMVolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32 // 1.3+
}

// RSM is a parsed resource model.
type RSM struct {
	Version     RSMVersion
	AnimLength  int32
	Shading     RSMShadingType
	Alpha       float32
	Textures    []string
	RootNode    string
	Nodes       []RSMNode
	VolumeBoxes []RSMVolumeBox
}

// ParseRSM parses an RSM 1.x model.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	rsm := &RSM{Version: RSMVersion{Major: data[4], Minor: data[5]}}
	if rsm.Version.Major != 1 || rsm.Version.Minor < 1 || rsm.Version.Minor > 5 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	r := newBinReader(data[6:], ErrTruncatedRSMData)
	rsm.AnimLength = r.i32()
	rsm.Shading = RSMShadingType(r.i32())
	rsm.Alpha = 1
	if rsm.Version.AtLeast(1, 4) {
		rsm.Alpha = float32(r.u8()) / 255
	}
	r.skip(16)

	rsm.Textures = make([]string, r.count("textures", maxRSMTextures))
	for i := range rsm.Textures {
		rsm.Textures[i] = r.name(rsmNameSize)
	}
	rsm.RootNode = r.name(rsmNameSize)

	rsm.Nodes = make([]RSMNode, r.count("nodes", maxRSMNodes))
	for i := range rsm.Nodes {
		readRSMNode(r, rsm.Version, &rsm.Nodes[i])
		if r.err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, r.err)
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	// Volume boxes are optional trailing data.
	if r.r.Len() >= 4 {
		n := r.i32()
		if n > 0 && n <= maxRSMBoxes {
			rsm.VolumeBoxes = make([]RSMVolumeBox, n)
			for i := range rsm.VolumeBoxes {
				box := &rsm.VolumeBoxes[i]
				box.Size = r.vec3()
				box.Position = r.vec3()
				box.Rotation = r.vec3()
				if rsm.Version.AtLeast(1, 3) {
					box.Flag = r.i32()
				}
			}
			if r.err != nil {
				rsm.VolumeBoxes = nil
			}
		}
	}

	return rsm, nil
}

func readRSMNode(r *binReader, version RSMVersion, node *RSMNode) {
	node.Name = r.name(rsmNameSize)
	node.Parent = r.name(rsmNameSize)

	node.TextureIDs = make([]int32, r.count("node textures", maxRSMTextures))
	for i := range node.TextureIDs {
		node.TextureIDs[i] = r.i32()
	}

	r.read(&node.Matrix)
	node.Offset = r.vec3()
	node.Position = r.vec3()
	node.RotAngle = r.f32()
	node.RotAxis = r.vec3()
	node.Scale = r.vec3()

	node.Vertices = make([][3]float32, r.count("vertices", maxRSMElements))
	for i := range node.Vertices {
		node.Vertices[i] = r.vec3()
	}

	node.TexCoords = make([]RSMTexCoord, r.count("texture coordinates", maxRSMElements))
	for i := range node.TexCoords {
		tc := &node.TexCoords[i]
		tc.Color = [4]uint8{255, 255, 255, 255}
		if version.AtLeast(1, 2) {
			r.read(&tc.Color)
		}
		tc.U = r.f32()
		tc.V = r.f32()
	}

	node.Faces = make([]RSMFace, r.count("faces", maxRSMElements))
	for i := range node.Faces {
		f := &node.Faces[i]
		r.read(&f.VertexIDs)
		r.read(&f.TexCoordIDs)
		r.read(&f.TextureID)
		r.skip(2)
		f.TwoSide = r.i32()
		if version.AtLeast(1, 2) {
			f.SmoothGroup = r.i32()
		}
	}

	if !version.AtLeast(1, 5) {
		node.PosKeys = make([]RSMPosKeyframe, r.count("position keys", maxRSMKeyframes))
		for i := range node.PosKeys {
			node.PosKeys[i].Frame = r.i32()
			node.PosKeys[i].Position = r.vec3()
		}
	}

	node.RotKeys = make([]RSMRotKeyframe, r.count("rotation keys", maxRSMKeyframes))
	for i := range node.RotKeys {
		node.RotKeys[i].Frame = r.i32()
		r.read(&node.RotKeys[i].Quaternion)
	}

	if version.AtLeast(1, 5) {
		node.ScaleKeys = make([]RSMScaleKeyframe, r.count("scale keys", maxRSMKeyframes))
		for i := range node.ScaleKeys {
			node.ScaleKeys[i].Frame = r.i32()
			node.ScaleKeys[i].Scale = r.vec3()
		}
	}
}

// ParseRSMFile parses an RSM file from disk.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// NodeByName returns the named node, or nil.
func (rsm *RSM) NodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// VertexCount returns the number of vertices across all nodes.
func (rsm *RSM) VertexCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Vertices)
	}
	return total
}

// FaceCount returns the number of faces across all nodes.
func (rsm *RSM) FaceCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Faces)
	}
	return total
}
