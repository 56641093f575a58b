package gm

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// bodyWriter assembles a plaintext archive body in the §4.A wire
// primitives, mirroring the reader in model.go.
type bodyWriter struct {
	buf bytes.Buffer
}

func (w *bodyWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *bodyWriter) i32(v int32) { w.u32(uint32(v)) }

func (w *bodyWriter) f64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
}

func (w *bodyWriter) bool32(v bool) {
	if v {
		w.u32(1)
	} else {
		w.u32(0)
	}
}

func (w *bodyWriter) str(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *bodyWriter) data(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

// zlibFrame writes one optional compressed image slot: the presence tag
// followed by a length-prefixed zlib stream.
func (w *bodyWriter) zlibFrame(t *testing.T, raw []byte) {
	if t != nil {
		t.Helper()
	}
	if raw == nil {
		w.i32(-1)
		return
	}
	w.i32(0)
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	zw.Close()
	w.data(z.Bytes())
}

// settings emits a minimal valid settings block (§4.A): every field at
// its zero shape, no custom loader images.
func (w *bodyWriter) settings() {
	w.u32(verSettings)
	for i := 0; i < 4; i++ { // fullscreen, interpolate, borderless, show cursor
		w.bool32(false)
	}
	w.i32(1) // scaling
	for i := 0; i < 2; i++ {
		w.bool32(false)
	}
	w.u32(0)        // background color
	w.bool32(false) // set resolution
	for i := 0; i < 3; i++ {
		w.u32(0)
	}
	for i := 0; i < 8; i++ { // buttons, vsync, six key toggles
		w.bool32(false)
	}
	w.u32(0)        // priority
	w.bool32(false) // freeze in background
	w.u32(1)        // default progress bar, no custom images
	w.bool32(false) // show custom load image
	w.zlibFrame(nil, nil)
	w.bool32(false) // partially transparent
	w.u32(255)      // image alpha
	w.bool32(false) // scale progress bar
	w.data(nil)     // icon
	for i := 0; i < 3; i++ {
		w.bool32(false)
	}
	w.u32(0) // error flags
	w.str("")
	w.str("")
	w.f64(0) // last changed
	w.str("")
	w.i32(0) // constants
	for i := 0; i < 4; i++ {
		w.u32(0)
	}
	for i := 0; i < 4; i++ {
		w.str("")
	}
}

func (w *bodyWriter) emptyChunk() {
	w.u32(800)
	w.i32(0)
}

func (w *bodyWriter) information() {
	w.u32(600)
	w.u32(0)        // background color
	w.bool32(false) // reuse main window style
	w.str("")
	for i := 0; i < 4; i++ {
		w.i32(0)
	}
	for i := 0; i < 4; i++ {
		w.bool32(false)
	}
	w.str("")
}

func (w *bodyWriter) resourceTree() {
	for i := 0; i < 12; i++ {
		w.u32(1) // primary
		w.u32(uint32(i))
		w.u32(0)
		w.str("folder")
		w.i32(0)
	}
}

func (w *bodyWriter) trailer(lastInstanceID int32, roomOrder []int32) {
	w.i32(lastInstanceID)
	w.i32(10000000) // last tile id
	w.emptyChunk()  // includes
	w.emptyChunk()  // extensions
	w.information()
	w.emptyChunk() // library creation codes
	w.u32(800)     // room order chunk
	w.i32(int32(len(roomOrder)))
	for _, id := range roomOrder {
		w.i32(id)
	}
	w.resourceTree()
}

// encryptBody is the inverse of applyCipher/generateDecodeTable: it turns
// a plaintext archive body back into the ciphertext LoadArchive expects,
// given the same seed and the body's absolute starting offset in the file
// (§4.A — the position-dependent offset is keyed to the byte's true file
// position, not its offset within the body).
func encryptBody(plain []byte, start int, seed uint32) []byte {
	decode := generateDecodeTable(seed)
	var encode [256]byte
	for i, v := range decode {
		encode[v] = byte(i)
	}
	cipher := make([]byte, len(plain))
	for i, b := range plain {
		p := start + i
		cipher[i] = encode[byte(b+byte(p%256))]
	}
	return cipher
}

func sealArchive(plain []byte, seed uint32) []byte {
	var out bytes.Buffer
	var head bodyWriter
	head.u32(archiveMagic)
	head.u32(600) // format version
	head.u32(0)   // crypt array 1
	head.u32(0)   // crypt array 2
	head.u32(seed)
	out.Write(head.buf.Bytes())
	out.Write(encryptBody(plain, out.Len(), seed))
	return out.Bytes()
}

// buildMinimalArchive assembles a syntactically valid but resource-free
// project archive: header, settings, nine zero-count chunks, and the
// trailing sections (§4.A's decodeContent order).
func buildMinimalArchive(t *testing.T, seed uint32) []byte {
	t.Helper()
	var w bodyWriter
	w.u32(12345) // game id
	w.buf.Write(make([]byte, 16))
	w.settings()
	for i := 0; i < 9; i++ {
		w.emptyChunk()
	}
	w.trailer(0, nil)
	return sealArchive(w.buf.Bytes(), seed)
}

// buildPopulatedArchive assembles a one-of-everything project: a sprite,
// a script, an object whose Create event runs inline code, and a room
// placing one instance of it under a pre-assigned id.
func buildPopulatedArchive(t *testing.T, seed uint32) []byte {
	t.Helper()
	var w bodyWriter
	w.u32(12345)
	w.buf.Write(make([]byte, 16))
	w.settings()

	w.emptyChunk() // sounds

	w.u32(800) // sprites
	w.i32(1)
	w.bool32(true)
	w.str("spr_hero")
	w.u32(verSprite)
	w.i32(32)       // width
	w.i32(32)       // height
	w.i32(0)        // bbox left
	w.i32(31)       // bbox right
	w.i32(31)       // bbox bottom
	w.i32(0)        // bbox top
	w.bool32(true)  // transparent
	w.bool32(false) // smooth
	w.bool32(false) // preload
	w.u32(0)        // bbox mode
	w.bool32(false) // precise
	w.i32(4)        // origin x
	w.i32(4)        // origin y
	w.i32(1)        // one frame
	w.zlibFrame(t, []byte("BMfixture-not-a-real-bitmap"))

	w.emptyChunk() // backgrounds
	w.emptyChunk() // paths

	w.u32(800) // scripts
	w.i32(1)
	w.bool32(true)
	w.str("scr_mark")
	w.u32(800)
	w.str("global.mark = argument0;")

	w.emptyChunk() // fonts
	w.emptyChunk() // timelines

	w.u32(800) // objects
	w.i32(1)
	w.bool32(true)
	w.str("obj_hero")
	w.u32(verObject)
	w.i32(0)        // sprite index
	w.bool32(false) // solid
	w.bool32(true)  // visible
	w.i32(0)        // depth
	w.bool32(false) // persistent
	w.i32(-1)       // parent
	w.i32(-1)       // mask
	w.i32(0)        // max event type id: Create only
	w.i32(0)        // event id 0 under type 0
	w.u32(verEvent)
	w.i32(1) // one action
	w.u32(verAction)
	w.u32(1)   // library id
	w.u32(603) // action id
	w.u32(uint32(ActionKindCode))
	w.bool32(false) // can be relative
	w.bool32(false) // question
	w.bool32(true)  // has target
	w.u32(uint32(ActionExecCode))
	w.str("") // function name
	w.str("") // function code
	w.u32(1)  // declared argument count
	w.i32(1)  // argument kinds
	w.u32(1)
	w.i32(-1)       // target: self
	w.bool32(false) // relative
	w.i32(1)        // argument values
	w.str("created = 1; scr_mark(7);")
	w.bool32(false) // not
	w.i32(-1)       // end of type 0 events

	w.u32(800) // rooms
	w.i32(1)
	w.bool32(true)
	w.str("rom_main")
	w.u32(verRoom)
	w.str("Fixture") // caption
	w.i32(320)
	w.i32(240)
	w.i32(16)       // snap x
	w.i32(16)       // snap y
	w.bool32(false) // isometric
	w.i32(30)       // speed
	w.bool32(false) // persistent
	w.i32(0)        // background color
	w.bool32(true)  // draw background color
	w.str("")       // creation code
	w.i32(0)        // background layers
	w.bool32(false) // views enabled
	w.i32(0)        // views
	w.i32(1)        // instances
	w.i32(10)       // x
	w.i32(20)       // y
	w.i32(0)        // object index
	w.i32(100042)   // pre-assigned id
	w.str("")       // creation code
	w.bool32(false) // locked
	w.i32(0)        // tiles
	w.bool32(false) // preserve editor info
	w.i32(0)
	w.i32(0)
	for i := 0; i < 8; i++ {
		w.bool32(false)
	}
	for i := 0; i < 3; i++ {
		w.i32(0)
	}

	w.trailer(100042, []int32{0})
	return sealArchive(w.buf.Bytes(), seed)
}

func TestLoadArchiveMinimal(t *testing.T) {
	data := buildMinimalArchive(t, 42)
	g, err := LoadArchive(data)
	if err != nil {
		t.Fatalf("LoadArchive error: %v", err)
	}
	if len(g.Rooms) != 0 || len(g.Objects) != 0 || len(g.Scripts) != 0 {
		t.Fatalf("expected an empty project model, got rooms=%d objects=%d scripts=%d",
			len(g.Rooms), len(g.Objects), len(g.Scripts))
	}
	if len(g.Tree) != 12 {
		t.Fatalf("resource tree should have 12 roots, got %d", len(g.Tree))
	}
}

func TestLoadArchivePopulated(t *testing.T) {
	data := buildPopulatedArchive(t, 42)
	g, err := LoadArchive(data)
	if err != nil {
		t.Fatalf("LoadArchive error: %v", err)
	}

	sprite, ok := g.Sprites[0]
	if !ok {
		t.Fatalf("sprite 0 missing")
	}
	if sprite.Name != "spr_hero" || sprite.BBoxRight != 31 || sprite.OriginX != 4 {
		t.Fatalf("sprite decoded wrong: %+v", sprite)
	}
	if len(sprite.Frames) != 1 || !bytes.HasPrefix(sprite.Frames[0], []byte("BM")) {
		t.Fatalf("sprite frame should round-trip through the deflate layer")
	}

	if g.Room == nil || g.Room.Def.Name != "rom_main" {
		t.Fatalf("first room in room order should be live")
	}
	if g.Room.Def.Caption != "Fixture" || g.Room.Def.SnapX != 16 {
		t.Fatalf("room metadata decoded wrong: %+v", g.Room.Def)
	}

	inst, ok := g.Room.Instances[100042]
	if !ok {
		t.Fatalf("placed instance should keep its pre-assigned id, have %v", g.Room.Instances)
	}
	if inst.State.X != 10 || inst.State.Y != 20 {
		t.Fatalf("instance placed at (%v, %v); want (10, 20)", inst.State.X, inst.State.Y)
	}

	// The Create event's inline code ran at room load, including the
	// script call by name with an argument.
	created, _ := inst.Member("created")
	if created.ToInt() != 1 {
		t.Fatalf("Create event code should have run, created = %v", created)
	}
	mark, _ := g.Vars.Member("mark")
	if mark.ToInt() != 7 {
		t.Fatalf("scr_mark(7) should have set global.mark, got %v", mark)
	}

	// Runtime ids continue above the archive's watermark.
	if id := g.NextInstanceID(); id <= 100042 {
		t.Fatalf("next instance id %d should exceed the archive watermark", id)
	}

	// Resource names are bound as consts (§4.H).
	for _, name := range []string{"spr_hero", "scr_mark", "obj_hero", "rom_main"} {
		if !g.IsConst(name) {
			t.Fatalf("resource name %q should be bound as a const", name)
		}
	}
}

func TestLoadArchiveBadMagic(t *testing.T) {
	data := buildMinimalArchive(t, 42)
	data[0] ^= 0xff
	_, err := LoadArchive(data)
	if err == nil {
		t.Fatalf("expected an error for corrupted magic")
	}
}

func TestLoadArchiveUnsupportedSettingsVersion(t *testing.T) {
	var w bodyWriter
	w.u32(12345)
	w.buf.Write(make([]byte, 16))
	w.u32(999) // settings version the decoder was not built against
	data := sealArchive(w.buf.Bytes(), 42)
	_, err := LoadArchive(data)
	var uv *UnsupportedVersionError
	if !errors.As(err, &uv) {
		t.Fatalf("expected UnsupportedVersionError, got %v", err)
	}
	if uv.Path != "settings" || uv.Version != 999 {
		t.Fatalf("error should carry path and version, got %+v", uv)
	}
}

func TestLoadArchiveTruncated(t *testing.T) {
	data := buildMinimalArchive(t, 42)
	_, err := LoadArchive(data[:len(data)-20])
	if err == nil {
		t.Fatalf("expected a truncation error for a short body")
	}
}

// TestArchiveParseDeterministic checks §8's determinism law: loading the
// same file bytes twice (as two independent buffers — LoadArchive decodes
// its cipher in place, so the same backing slice can't be reused) yields
// structurally equal models.
func TestArchiveParseDeterministic(t *testing.T) {
	data1 := buildPopulatedArchive(t, 7)
	data2 := buildPopulatedArchive(t, 7)
	g1, err1 := LoadArchive(data1)
	g2, err2 := LoadArchive(data2)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if len(g1.Rooms) != len(g2.Rooms) || len(g1.Objects) != len(g2.Objects) {
		t.Fatalf("repeated loads diverged")
	}
	if g1.Sprites[0].Name != g2.Sprites[0].Name {
		t.Fatalf("repeated loads diverged on sprite names")
	}
}
