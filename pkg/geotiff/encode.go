package geotiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"
	"sort"
)

const (
	dataTypeASCII    = 2
	dataTypeShort    = 3
	dataTypeLong     = 4
	dataTypeRational = 5
	dataTypeDouble   = 12

	tagImageWidth                = 256
	tagImageLength               = 257
	tagBitsPerSample             = 258
	tagCompression               = 259
	tagPhotometricInterpretation = 262
	tagStripOffsets              = 273
	tagSamplesPerPixel           = 277
	tagRowsPerStrip              = 278
	tagStripByteCounts           = 279
	tagXResolution               = 282
	tagYResolution               = 283
	tagPlanarConfiguration       = 284
	tagResolutionUnit            = 296

	// GeoTIFF tags
	TagModelPixelScale = 33550
	TagModelTiepoint   = 33922
	TagGeoKeyDirectory = 34735
	TagGeoAsciiParams  = 34737
)

// GeoKey identifiers
const (
	keyGTModelType      = 1024
	keyGTRasterType     = 1025
	keyGTCitation       = 1026
	keyGeographicType   = 2048
	keyProjectedCSType  = 3072
	modelTypeProjected  = 1
	modelTypeGeographic = 2
	rasterPixelIsArea   = 1
)

var enc = binary.LittleEndian

// Georef places the raster: the upper-left corner of the upper-left pixel
// lies at (OriginX, OriginY) and each pixel spans PixelWidth × PixelHeight
// CRS units (PixelHeight positive, rows run southward).
type Georef struct {
	OriginX     float64
	OriginY     float64
	PixelWidth  float64
	PixelHeight float64
	EPSG        int
	Geographic  bool
	Citation    string
}

type ifdEntry struct {
	tag      uint16
	datatype uint16
	count    uint32
	data     []byte
}

// Encode writes m as an uncompressed 8-bit RGB little-endian TIFF.
// When geo is non-nil the GeoTIFF pixel scale, tiepoint and key directory are added.
func Encode(w io.Writer, m image.Image, geo *Georef) error {
	bounds := m.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("cannot encode empty image")
	}

	pixels := make([]byte, 0, width*height*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := m.At(x, y).RGBA()
			pixels = append(pixels, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}

	entries := []ifdEntry{
		{tagImageWidth, dataTypeLong, 1, enc32(uint32(width))},
		{tagImageLength, dataTypeLong, 1, enc32(uint32(height))},
		{tagBitsPerSample, dataTypeShort, 3, enc16s([]uint16{8, 8, 8})},
		{tagCompression, dataTypeShort, 1, enc16(1)},
		{tagPhotometricInterpretation, dataTypeShort, 1, enc16(2)},
		{tagSamplesPerPixel, dataTypeShort, 1, enc16(3)},
		{tagRowsPerStrip, dataTypeLong, 1, enc32(uint32(height))},
		{tagXResolution, dataTypeRational, 1, encRational(72, 1)},
		{tagYResolution, dataTypeRational, 1, encRational(72, 1)},
		{tagPlanarConfiguration, dataTypeShort, 1, enc16(1)},
		{tagResolutionUnit, dataTypeShort, 1, enc16(2)},
		// patched once the pixel offset is known
		{tagStripOffsets, dataTypeLong, 1, enc32(0)},
		{tagStripByteCounts, dataTypeLong, 1, enc32(uint32(len(pixels)))},
	}
	if geo != nil {
		entries = append(entries, geoEntries(*geo)...)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	// Layout: header(8) | IFD | out-of-line values | pixels
	ifdSize := 2 + 12*len(entries) + 4
	valueOffset := 8 + ifdSize

	var values bytes.Buffer
	for i := range entries {
		e := &entries[i]
		if len(e.data) > 4 {
			off := uint32(valueOffset + values.Len())
			values.Write(e.data)
			// TIFF values start on word boundaries
			if values.Len()%2 == 1 {
				values.WriteByte(0)
			}
			e.data = enc32(off)
		}
	}
	pixelOffset := uint32(valueOffset + values.Len())
	for i := range entries {
		if entries[i].tag == tagStripOffsets {
			entries[i].data = enc32(pixelOffset)
		}
	}

	var buf bytes.Buffer
	buf.Write([]byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00})
	binary.Write(&buf, enc, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, enc, e.tag)
		binary.Write(&buf, enc, e.datatype)
		binary.Write(&buf, enc, e.count)
		var val [4]byte
		copy(val[:], e.data)
		buf.Write(val[:])
	}
	binary.Write(&buf, enc, uint32(0))
	buf.Write(values.Bytes())

	if _, err := buf.WriteTo(w); err != nil {
		return err
	}
	_, err := w.Write(pixels)
	return err
}

func geoEntries(g Georef) []ifdEntry {
	modelType := uint16(modelTypeProjected)
	csKey := uint16(keyProjectedCSType)
	if g.Geographic {
		modelType = modelTypeGeographic
		csKey = keyGeographicType
	}

	citation := g.Citation
	if citation == "" {
		citation = fmt.Sprintf("EPSG:%d", g.EPSG)
	}
	ascii := citation + "|"

	// Header: version 1, revision 1.0, key count; keys sorted by id
	keys := []uint16{
		1, 1, 0, 4,
		keyGTModelType, 0, 1, modelType,
		keyGTRasterType, 0, 1, rasterPixelIsArea,
		keyGTCitation, TagGeoAsciiParams, uint16(len(ascii)), 0,
		csKey, 0, 1, uint16(g.EPSG),
	}

	asciiData := append([]byte(ascii), 0)
	return []ifdEntry{
		{TagModelPixelScale, dataTypeDouble, 3, encDoubles([]float64{g.PixelWidth, g.PixelHeight, 0})},
		{TagModelTiepoint, dataTypeDouble, 6, encDoubles([]float64{0, 0, 0, g.OriginX, g.OriginY, 0})},
		{TagGeoKeyDirectory, dataTypeShort, uint32(len(keys)), enc16s(keys)},
		{TagGeoAsciiParams, dataTypeASCII, uint32(len(asciiData)), asciiData},
	}
}

// Helpers

func enc16(v uint16) []byte {
	b := make([]byte, 2)
	enc.PutUint16(b, v)
	return b
}

func enc32(v uint32) []byte {
	b := make([]byte, 4)
	enc.PutUint32(b, v)
	return b
}

func enc16s(vs []uint16) []byte {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		enc.PutUint16(b[i*2:], v)
	}
	return b
}

func encDoubles(vs []float64) []byte {
	b := make([]byte, 8*len(vs))
	for i, v := range vs {
		enc.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return b
}

func encRational(num, den uint32) []byte {
	b := make([]byte, 8)
	enc.PutUint32(b[:4], num)
	enc.PutUint32(b[4:], den)
	return b
}
