// Package worldfile writes and reads ESRI world files, the six-line
// sidecar that maps pixel space to map coordinates.
package worldfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Generate returns the six world-file lines for an image of w × h pixels whose
// outer corners lie at (tlX, tlY) and (brX, brY). Lines 5 and 6 hold the
// center of the top-left pixel.
func Generate(tlX, tlY, brX, brY float64, w, h int) []string {
	pw := (brX - tlX) / float64(w)
	ph := (brY - tlY) / float64(h)

	return []string{
		fmt.Sprintf("%.10f", pw),
		fmt.Sprintf("%.10f", 0.0),
		fmt.Sprintf("%.10f", 0.0),
		fmt.Sprintf("%.10f", ph),
		fmt.Sprintf("%.4f", tlX+pw/2),
		fmt.Sprintf("%.4f", tlY+ph/2),
	}
}

// Format joins lines into file content with a trailing newline
func Format(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

// Extension maps an image extension to its world-file extension.
// Unknown extensions take their first and last letters around a "w";
// an empty extension yields the generic ".wld".
func Extension(imageExt string) string {
	ext := strings.TrimPrefix(imageExt, ".")
	switch strings.ToLower(ext) {
	case "jpg", "jpeg":
		return ".jgw"
	case "tif", "tiff":
		return ".tfw"
	case "png":
		return ".pgw"
	case "bmp":
		return ".bpw"
	}
	if ext == "" {
		return ".wld"
	}
	return "." + ext[:1] + "w" + ext[len(ext)-1:]
}

// PathFor returns the world-file path next to imagePath
func PathFor(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + Extension(ext)
}

// Write stores lines at path
func Write(path string, lines []string) error {
	if err := os.WriteFile(path, []byte(Format(lines)), 0644); err != nil {
		return fmt.Errorf("failed to write world file: %w", err)
	}
	return nil
}

// Params is the parsed affine transform of a world file
type Params struct {
	PixelWidth  float64
	RotationY   float64
	RotationX   float64
	PixelHeight float64
	CenterX     float64
	CenterY     float64
}

// Parse reads the six numeric lines of a world file
func Parse(r io.Reader) (Params, error) {
	var vals []float64
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return Params{}, fmt.Errorf("failed to parse world file line %d: %w", len(vals)+1, err)
		}
		vals = append(vals, v)
	}
	if err := sc.Err(); err != nil {
		return Params{}, fmt.Errorf("failed to read world file: %w", err)
	}
	if len(vals) != 6 {
		return Params{}, fmt.Errorf("world file has %d values, expected 6", len(vals))
	}
	return Params{
		PixelWidth:  vals[0],
		RotationY:   vals[1],
		RotationX:   vals[2],
		PixelHeight: vals[3],
		CenterX:     vals[4],
		CenterY:     vals[5],
	}, nil
}

// ParseFile reads a world file from disk
func ParseFile(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to open world file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
