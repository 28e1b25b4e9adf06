package worldfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnitPixels(t *testing.T) {
	lines := Generate(0, 1000, 500, 0, 500, 1000)

	assert.Equal(t, []string{
		"1.0000000000",
		"0.0000000000",
		"0.0000000000",
		"-1.0000000000",
		"0.5000",
		"999.5000",
	}, lines)
}

func TestGenerateHalfPixelOffset(t *testing.T) {
	// 2.5 m pixels in a UTM box
	lines := Generate(500000, 4966000, 502560, 4963440, 1024, 1024)

	assert.Equal(t, "2.5000000000", lines[0])
	assert.Equal(t, "-2.5000000000", lines[3])
	assert.Equal(t, "500001.2500", lines[4])
	assert.Equal(t, "4965998.7500", lines[5])
}

func TestFormat(t *testing.T) {
	content := Format(Generate(0, 100, 100, 0, 100, 100))
	assert.True(t, strings.HasSuffix(content, "\n"))
	assert.Len(t, strings.Split(strings.TrimSuffix(content, "\n"), "\n"), 6)
}

func TestExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jpg", ".jgw"},
		{"jpeg", ".jgw"},
		{".JPG", ".jgw"},
		{"tif", ".tfw"},
		{"tiff", ".tfw"},
		{"png", ".pgw"},
		{".png", ".pgw"},
		{"bmp", ".bpw"},
		{"gif", ".gwf"},
		{"webp", ".wwp"},
		{"", ".wld"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.in))
		})
	}
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "geosat_20240101_120000.jgw"), PathFor(filepath.Join("out", "geosat_20240101_120000.jpg")))
	assert.Equal(t, "mosaic.tfw", PathFor("mosaic.tif"))
	assert.Equal(t, "mosaic.pgw", PathFor("mosaic.png"))
}

func TestWriteAndParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mosaic.jgw")
	require.NoError(t, Write(path, Generate(500000, 4966000, 502560, 4963440, 1024, 1024)))

	p, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, p.PixelWidth)
	assert.Equal(t, -2.5, p.PixelHeight)
	assert.Zero(t, p.RotationX)
	assert.Zero(t, p.RotationY)
	assert.Equal(t, 500001.25, p.CenterX)
	assert.Equal(t, 4965998.75, p.CenterY)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"too few lines", "1\n0\n0\n-1\n"},
		{"not a number", "1\n0\n0\n-1\nabc\n5\n"},
		{"too many lines", "1\n0\n0\n-1\n5\n5\n7\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.jgw"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
