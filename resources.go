package gm

import (
	"encoding/binary"
)

// Version constants observed in the archive corpus (§4.A). Bodies carry a
// leading u32 selecting their sub-shape; anything outside these sets is an
// UnsupportedVersionError.
const (
	verSettings   = 702
	verSound      = 600
	verSpriteOld  = 400
	verSprite     = 542
	verBackOld    = 400
	verBackground = 543
	verPath       = 530
	verFont       = 540
	verTimeline   = 500
	verObject     = 430
	verRoom       = 541
	verEvent      = 400
	verAction     = 440
)

func checkVersion(path string, ver uint32, accepted ...uint32) error {
	for _, a := range accepted {
		if ver == a {
			return nil
		}
	}
	return &UnsupportedVersionError{Path: path, Version: ver}
}

// SoundDef is a decoded sound resource (§4.A). The raw audio payload is
// carried through undecoded; no audio backend is in scope (§1).
type SoundDef struct {
	Name      string
	Kind      int32
	Extension string
	FileName  string
	Data      []byte
	Volume    float64
	Pan       float64
}

func decodeSound(r *reader) (*SoundDef, error) {
	s := &SoundDef{}
	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("sound", ver, verSound); err != nil {
		return nil, err
	}
	if s.Kind, err = r.i32(); err != nil {
		return nil, err
	}
	if s.Extension, err = r.string32(); err != nil {
		return nil, err
	}
	if s.FileName, err = r.string32(); err != nil {
		return nil, err
	}
	if _, err = r.bool32(); err != nil { // payload present
		return nil, err
	}
	if s.Data, err = r.data32(); err != nil {
		return nil, err
	}
	if _, err = r.u32(); err != nil { // effects bitmask
		return nil, err
	}
	if s.Volume, err = r.f64(); err != nil {
		return nil, err
	}
	if s.Pan, err = r.f64(); err != nil {
		return nil, err
	}
	if _, err = r.bool32(); err != nil { // load on demand
		return nil, err
	}
	return s, nil
}

// zlibFrame reads one optional deflate-compressed image slot: a leading
// i32 where -1 means "no image", anything else is followed by a
// length-prefixed zlib stream (§4.A point 6).
func zlibFrame(r *reader) ([]byte, error) {
	tag, err := r.i32()
	if err != nil {
		return nil, err
	}
	if tag == -1 {
		return nil, nil
	}
	return r.zlibData()
}

// SpriteDef is a decoded sprite resource (§4.A): origin, bounding box,
// transparency, and the decompressed sub-image containers. Pixels are not
// interpreted here; the image-decoder collaborator (§6) turns frames into
// RGBA.
type SpriteDef struct {
	Name          string
	Width, Height int32
	BBoxLeft      int32
	BBoxRight     int32
	BBoxTop       int32
	BBoxBottom    int32
	Transparent   bool
	Precise       bool
	OriginX       int32
	OriginY       int32
	Frames        [][]byte
}

func decodeSprite(r *reader) (*SpriteDef, error) {
	s := &SpriteDef{}
	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("sprite", ver, verSprite, verSpriteOld); err != nil {
		return nil, err
	}
	w, err := r.i32()
	if err != nil {
		return nil, err
	}
	h, err := r.i32()
	if err != nil {
		return nil, err
	}
	s.Width, s.Height = w, h
	if s.BBoxLeft, err = r.i32(); err != nil {
		return nil, err
	}
	if s.BBoxRight, err = r.i32(); err != nil {
		return nil, err
	}
	if s.BBoxBottom, err = r.i32(); err != nil {
		return nil, err
	}
	if s.BBoxTop, err = r.i32(); err != nil {
		return nil, err
	}
	if s.Transparent, err = r.bool32(); err != nil {
		return nil, err
	}
	if ver == verSprite {
		if _, err = r.bool32(); err != nil { // smooth edges
			return nil, err
		}
		if _, err = r.bool32(); err != nil { // preload texture
			return nil, err
		}
	}
	if _, err = r.u32(); err != nil { // bbox mode
		return nil, err
	}
	if s.Precise, err = r.bool32(); err != nil {
		return nil, err
	}
	if ver == verSpriteOld {
		if _, err = r.bool32(); err != nil { // use video memory
			return nil, err
		}
		if _, err = r.bool32(); err != nil { // load on demand
			return nil, err
		}
	}
	if s.OriginX, err = r.i32(); err != nil {
		return nil, err
	}
	if s.OriginY, err = r.i32(); err != nil {
		return nil, err
	}
	count, err := r.i32()
	if err != nil {
		return nil, err
	}
	s.Frames = make([][]byte, 0, count)
	for i := int32(0); i < count; i++ {
		frame, err := zlibFrame(r)
		if err != nil {
			return nil, err
		}
		s.Frames = append(s.Frames, frame)
	}
	return s, nil
}

// BackgroundDef is a decoded background resource (§4.A): size,
// transparency, optional tiling parameters, optional image payload.
type BackgroundDef struct {
	Name          string
	Width, Height int32
	Transparent   bool
	TileEnabled   bool
	TileW, TileH  int32
	TileOffX      int32
	TileOffY      int32
	TileSepX      int32
	TileSepY      int32
	Image         []byte
}

func decodeBackground(r *reader) (*BackgroundDef, error) {
	b := &BackgroundDef{}
	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("background", ver, verBackground, verBackOld); err != nil {
		return nil, err
	}
	if b.Width, err = r.i32(); err != nil {
		return nil, err
	}
	if b.Height, err = r.i32(); err != nil {
		return nil, err
	}
	if b.Transparent, err = r.bool32(); err != nil {
		return nil, err
	}
	if ver == verBackOld {
		if _, err = r.bool32(); err != nil { // use video memory
			return nil, err
		}
		if _, err = r.bool32(); err != nil { // load on demand
			return nil, err
		}
	}
	if ver >= verBackground {
		if _, err = r.bool32(); err != nil { // smooth edges
			return nil, err
		}
		if _, err = r.bool32(); err != nil { // preload texture
			return nil, err
		}
		if b.TileEnabled, err = r.bool32(); err != nil {
			return nil, err
		}
		if b.TileW, err = r.i32(); err != nil {
			return nil, err
		}
		if b.TileH, err = r.i32(); err != nil {
			return nil, err
		}
		if b.TileOffX, err = r.i32(); err != nil {
			return nil, err
		}
		if b.TileOffY, err = r.i32(); err != nil {
			return nil, err
		}
		if b.TileSepX, err = r.i32(); err != nil {
			return nil, err
		}
		if b.TileSepY, err = r.i32(); err != nil {
			return nil, err
		}
	}
	exists, err := r.bool32()
	if err != nil {
		return nil, err
	}
	if exists {
		if b.Image, err = zlibFrame(r); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// PathPoint is one control point of a path resource (§4.A).
type PathPoint struct {
	X, Y, Speed float64
}

// PathDef is a decoded path resource (§4.A). Paths load and bind their
// name constant; path following itself is not dispatched at v1 (see
// DESIGN.md).
type PathDef struct {
	Name      string
	Kind      int32
	Closed    bool
	Precision int32
	RoomIndex int32
	Points    []PathPoint
}

func decodePath(r *reader) (*PathDef, error) {
	p := &PathDef{}
	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("path", ver, verPath); err != nil {
		return nil, err
	}
	if p.Kind, err = r.i32(); err != nil {
		return nil, err
	}
	if p.Closed, err = r.bool32(); err != nil {
		return nil, err
	}
	if p.Precision, err = r.i32(); err != nil {
		return nil, err
	}
	if p.RoomIndex, err = r.i32(); err != nil {
		return nil, err
	}
	if _, err = r.i32(); err != nil { // snap x
		return nil, err
	}
	if _, err = r.i32(); err != nil { // snap y
		return nil, err
	}
	count, err := r.i32()
	if err != nil {
		return nil, err
	}
	p.Points = make([]PathPoint, count)
	for i := range p.Points {
		x, err := r.f64()
		if err != nil {
			return nil, err
		}
		y, err := r.f64()
		if err != nil {
			return nil, err
		}
		speed, err := r.f64()
		if err != nil {
			return nil, err
		}
		p.Points[i] = PathPoint{X: x, Y: y, Speed: speed}
	}
	return p, nil
}

// ScriptDef pairs a script resource's name with its parsed body (§4.A,
// §4.B). A parse failure is non-fatal (§7): Script is nil and the
// resource still occupies its slot under its name, evaluating as a no-op
// if ever called.
type ScriptDef struct {
	Name   string
	Source string
	Script *Script
	Err    error
}

func decodeScript(r *reader, name string) (*ScriptDef, error) {
	s := &ScriptDef{Name: name}
	if _, err := r.u32(); err != nil { // version; any source shape parses alike
		return nil, err
	}
	code, err := r.string32()
	if err != nil {
		return nil, err
	}
	s.Source = code
	script, perr := ParseScript(name, code)
	s.Script = script
	s.Err = perr
	return s, nil
}

// GlyphFontDef is a decoded archive font resource (§4.A), distinct from
// the runtime fonts registered by font_add_sprite (§4.E).
type GlyphFontDef struct {
	Name       string
	FontName   string
	Size       int32
	Bold       bool
	Italic     bool
	RangeStart int32
	RangeEnd   int32
}

func decodeFont(r *reader) (*GlyphFontDef, error) {
	f := &GlyphFontDef{}
	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("font", ver, verFont); err != nil {
		return nil, err
	}
	if f.FontName, err = r.string32(); err != nil {
		return nil, err
	}
	if f.Size, err = r.i32(); err != nil {
		return nil, err
	}
	if f.Bold, err = r.bool32(); err != nil {
		return nil, err
	}
	if f.Italic, err = r.bool32(); err != nil {
		return nil, err
	}
	if f.RangeStart, err = r.i32(); err != nil {
		return nil, err
	}
	if f.RangeEnd, err = r.i32(); err != nil {
		return nil, err
	}
	return f, nil
}

// TimelineDef is a decoded timeline resource (§4.A): moments (step
// offsets), each with its own compiled action list in the same shape an
// object event carries. Room.advanceTimelines runs the moments of an
// instance's attached timeline each sub-tick.
type TimelineDef struct {
	Name    string
	Moments map[int32][]*Action
}

func decodeTimeline(g *Global, r *reader, name string) (*TimelineDef, error) {
	t := &TimelineDef{Name: name, Moments: make(map[int32][]*Action)}
	ver, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := checkVersion("timeline", ver, verTimeline); err != nil {
		return nil, err
	}
	count, err := r.i32()
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < count; i++ {
		position, err := r.i32()
		if err != nil {
			return nil, err
		}
		actions, err := decodeEvent(g, r, name)
		if err != nil {
			return nil, err
		}
		t.Moments[position] = actions
	}
	return t, nil
}

// ImageHeader is the parsed fixed header of an embedded bitmap container
// (§6): the decoder identifies the container and hands the declared
// geometry to the image-decoder collaborator without touching pixels.
type ImageHeader struct {
	Width      int32
	Height     int32
	BitCount   uint16
	ImageType  uint32
	DataOffset uint32
}

// ParseImageHeader validates the "BM" container an inflated sprite or
// background frame holds and returns its declared geometry. The header
// size must be at least 40 (the info-header baseline every corpus image
// uses).
func ParseImageHeader(data []byte) (ImageHeader, error) {
	var h ImageHeader
	if len(data) < 54 || data[0] != 'B' || data[1] != 'M' {
		return h, ErrBadImage
	}
	h.DataOffset = binary.LittleEndian.Uint32(data[10:])
	headerSize := binary.LittleEndian.Uint32(data[14:])
	if headerSize < 40 {
		return h, ErrBadImage
	}
	h.Width = int32(binary.LittleEndian.Uint32(data[18:]))
	h.Height = int32(binary.LittleEndian.Uint32(data[22:]))
	h.BitCount = binary.LittleEndian.Uint16(data[28:])
	h.ImageType = binary.LittleEndian.Uint32(data[30:])
	if int(h.DataOffset) > len(data) {
		return h, ErrBadImage
	}
	return h, nil
}
