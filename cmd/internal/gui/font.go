package gui

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"github.com/ftrvxmtrx/tga"
)

// ErrUnsupportedPage means a font atlas page was neither PNG nor TGA.
var ErrUnsupportedPage = errors.New("font page is neither png nor tga")

// glyph is one character cell in a font atlas page.
type glyph struct {
	x, y             int32
	w, h             int32
	xOffset, yOffset int32
	advance          int32
	page             int
}

// Font is an AngelCode BMFont bitmap font: glyph metrics plus the RGBA
// atlas pages the renderer uploads on first use.
type Font struct {
	face       string
	size       int
	lineHeight int32

	pages  []*image.RGBA
	glyphs map[rune]glyph
}

// Bounds measures s at the given pixel size without drawing it.
func (f *Font) Bounds(s string, size int) (w, h int32) {
	if s == "" {
		return 0, 0
	}
	ratio := int32(size / f.size)
	if ratio < 1 {
		ratio = 1
	}

	lines := strings.Split(s, "\n")
	for _, line := range lines {
		var lw int32
		for _, c := range line {
			lw += f.glyphs[c].advance * ratio
		}
		if lw > w {
			w = lw
		}
	}
	return w, int32(len(lines)) * f.lineHeight * ratio
}

// FontMap holds the loaded HUD fonts by face name.
type FontMap map[string]*Font

// PageLoader resolves a page file named by the .fnt descriptor to its
// image bytes.
type PageLoader func(file string) (io.ReadCloser, error)

// bmfont mirrors the XML layout of an AngelCode .fnt descriptor.
type bmfont struct {
	XMLName xml.Name `xml:"font"`
	Info    struct {
		Face string `xml:"face,attr"`
		Size int    `xml:"size,attr"`
	} `xml:"info"`
	Common struct {
		LineHeight int32 `xml:"lineHeight,attr"`
		Pages      int   `xml:"pages,attr"`
	} `xml:"common"`
	Pages struct {
		Page []struct {
			ID   int    `xml:"id,attr"`
			File string `xml:"file,attr"`
		} `xml:"page"`
	} `xml:"pages"`
	Chars struct {
		Char []struct {
			ID       rune  `xml:"id,attr"`
			X        int32 `xml:"x,attr"`
			Y        int32 `xml:"y,attr"`
			Width    int32 `xml:"width,attr"`
			Height   int32 `xml:"height,attr"`
			XOffset  int32 `xml:"xoffset,attr"`
			YOffset  int32 `xml:"yoffset,attr"`
			XAdvance int32 `xml:"xadvance,attr"`
			Page     int   `xml:"page,attr"`
		} `xml:"char"`
	} `xml:"chars"`
}

// LoadXML parses a .fnt descriptor from r and loads its pages through
// loader, registering the font under its declared face name.
func (m FontMap) LoadXML(r io.Reader, loader PageLoader) error {
	var data bmfont
	if err := xml.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("font: unable to decode descriptor: %s", err)
	}

	pages := make([]*image.RGBA, data.Common.Pages)
	for _, p := range data.Pages.Page {
		rc, err := loader(p.File)
		if err != nil {
			return fmt.Errorf("font %s: unable to open page %s: %s", data.Info.Face, p.File, err)
		}
		img, err := decodePage(rc)
		if err != nil {
			return fmt.Errorf("font %s: page %s: %s", data.Info.Face, p.File, err)
		}
		if p.ID >= 0 && p.ID < len(pages) {
			pages[p.ID] = img
		}
	}

	glyphs := make(map[rune]glyph, len(data.Chars.Char))
	for _, c := range data.Chars.Char {
		glyphs[c.ID] = glyph{
			x: c.X, y: c.Y,
			w: c.Width, h: c.Height,
			xOffset: c.XOffset, yOffset: c.YOffset,
			advance: c.XAdvance,
			page:    c.Page,
		}
	}

	m[data.Info.Face] = &Font{
		face:       data.Info.Face,
		size:       data.Info.Size,
		lineHeight: data.Common.LineHeight,
		pages:      pages,
		glyphs:     glyphs,
	}
	return nil
}

func decodePage(rc io.ReadCloser) (*image.RGBA, error) {
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		img, err = tga.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, ErrUnsupportedPage
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, img.Bounds(), img, image.Point{}, draw.Src)
	return rgba, nil
}
