package wmts

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// WMTS XML structures for parsing capabilities
type Capabilities struct {
	XMLName  xml.Name `xml:"Capabilities"`
	Contents Contents `xml:"Contents"`
}

type Contents struct {
	Layers         []Layer         `xml:"Layer"`
	TileMatrixSets []TileMatrixSet `xml:"TileMatrixSet"`
}

type Layer struct {
	Title              string              `xml:"http://www.opengis.net/ows/1.1 Title"`
	Abstract           string              `xml:"http://www.opengis.net/ows/1.1 Abstract"`
	Identifier         string              `xml:"http://www.opengis.net/ows/1.1 Identifier"`
	Formats            []string            `xml:"Format"`
	TileMatrixSetLinks []TileMatrixSetLink `xml:"TileMatrixSetLink"`
}

type TileMatrixSetLink struct {
	TileMatrixSet string `xml:"TileMatrixSet"`
}

type TileMatrixSet struct {
	Identifier   string `xml:"http://www.opengis.net/ows/1.1 Identifier"`
	SupportedCRS string `xml:"http://www.opengis.net/ows/1.1 SupportedCRS"`
}

// LayerInfo represents parsed WMTS layer information
type LayerInfo struct {
	Name           string   `json:"name"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	TileMatrixSets []string `json:"tileMatrixSets"`
	Formats        []string `json:"formats"`
}

// CapabilitiesURL builds a KVP GetCapabilities URL for a WMTS endpoint
func CapabilitiesURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid WMTS endpoint: %w", err)
	}
	q := u.Query()
	q.Set("SERVICE", "WMTS")
	q.Set("REQUEST", "GetCapabilities")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchCapabilities fetches and parses WMTS capabilities.
// authorization is sent as the Authorization header when non-empty.
func FetchCapabilities(ctx context.Context, client *http.Client, capsURL, authorization string) (*Capabilities, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, capsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch capabilities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch capabilities: HTTP %d", resp.StatusCode)
	}

	return ParseCapabilities(resp.Body)
}

// ParseCapabilities decodes a capabilities document
func ParseCapabilities(r io.Reader) (*Capabilities, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var caps Capabilities
	if err := xml.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return &caps, nil
}

// GetLayers extracts layer information from capabilities
func GetLayers(caps *Capabilities) []LayerInfo {
	layers := make([]LayerInfo, 0, len(caps.Contents.Layers))

	for _, layer := range caps.Contents.Layers {
		info := LayerInfo{
			Name:        strings.TrimSpace(layer.Identifier),
			Title:       strings.TrimSpace(layer.Title),
			Description: strings.TrimSpace(layer.Abstract),
			Formats:     layer.Formats,
		}
		for _, link := range layer.TileMatrixSetLinks {
			info.TileMatrixSets = append(info.TileMatrixSets, strings.TrimSpace(link.TileMatrixSet))
		}
		layers = append(layers, info)
	}

	return layers
}

// FindLayer returns the layer with the given identifier
func FindLayer(caps *Capabilities, name string) (LayerInfo, bool) {
	for _, l := range GetLayers(caps) {
		if l.Name == name {
			return l, true
		}
	}
	return LayerInfo{}, false
}

// SupportsMatrixSet reports whether layer links to the named tile matrix set
func (l LayerInfo) SupportsMatrixSet(name string) bool {
	for _, s := range l.TileMatrixSets {
		if s == name {
			return true
		}
	}
	return false
}
