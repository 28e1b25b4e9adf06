// Package pipeline turns a drawing-CRS rectangle into a georeferenced mosaic
// and the placement the host needs to insert it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"geosat/internal/analytics"
	"geosat/internal/common"
	"geosat/internal/crs"
	"geosat/internal/imagery"
	"geosat/internal/mosaic"
	"geosat/internal/tiles"
	"geosat/internal/utils/naming"
	"geosat/internal/worldfile"
	"geosat/pkg/geotiff"
)

// DefaultTargetResolution is the ground size of a pixel, in meters, used to pick a zoom
const DefaultTargetResolution = 10.0

// AutoZoom asks the engine to choose the zoom from the target resolution
const AutoZoom = -1

// Config holds the collaborators of an Engine
type Config struct {
	Transformer *crs.Transformer
	Fetcher     imagery.TileFetcher
	// TargetResolution drives automatic zoom selection; zero means DefaultTargetResolution
	TargetResolution float64
	// Fill paints tiles that are missing from the fetch result
	Fill    color.Color
	Tracker analytics.Tracker
	// Now stamps output file names; defaults to the current UTC time
	Now func() time.Time
}

// Request is one acquisition: two opposite corners in the drawing CRS
type Request struct {
	X1, Y1, X2, Y2 float64
	OutputDir      string
	Format         common.OutputFormat
	Quality        int
	// Zoom forces a zoom level 0..18; AutoZoom selects one from the target resolution
	Zoom      int
	Footprint bool
}

// PlacementResult is everything the host needs to insert the image.
// Insertion is the top-left corner in drawing units; Width and Height are positive.
type PlacementResult struct {
	ImagePath     string  `json:"imagePath"`
	WorldFilePath string  `json:"worldFilePath"`
	FootprintPath string  `json:"footprintPath,omitempty"`
	InsertionX    float64 `json:"insertionX"`
	InsertionY    float64 `json:"insertionY"`
	Width         float64 `json:"widthDrawingUnits"`
	Height        float64 `json:"heightDrawingUnits"`
	WidthPx       int     `json:"widthPx"`
	HeightPx      int     `json:"heightPx"`
	TileCount     int     `json:"tileCount"`
	Zoom          int     `json:"zoomLevel"`
	CRS           string  `json:"crs"`
	Provider      string  `json:"provider"`
}

// Engine runs the acquisition pipeline. OnState and OnProgress are optional
// and are called from the goroutine running Run (progress from fetch workers,
// serialized).
type Engine struct {
	cfg        Config
	OnState    func(State)
	OnProgress imagery.ProgressFunc
}

// NewEngine validates cfg and fills defaults
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Transformer == nil {
		return nil, errors.New("pipeline requires a CRS transformer")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("pipeline requires a tile fetcher")
	}
	if cfg.TargetResolution <= 0 {
		cfg.TargetResolution = DefaultTargetResolution
	}
	if cfg.Fill == nil {
		cfg.Fill = color.RGBA{A: 0xff}
	}
	if cfg.Tracker == nil {
		cfg.Tracker = analytics.Nop{}
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) setState(s State) {
	if e.OnState != nil {
		e.OnState(s)
	}
}

// Run executes one acquisition. Any failure aborts the run with a
// *StageError; no world file is written unless the image was written.
func (e *Engine) Run(ctx context.Context, req Request) (PlacementResult, error) {
	runID := uuid.NewString()
	log := slog.With("component", "pipeline", "run", runID)
	entry := e.cfg.Transformer.Entry()

	e.cfg.Tracker.Track(analytics.EventFetchStarted, map[string]interface{}{
		"run":      runID,
		"provider": e.cfg.Fetcher.Provider(),
		"crs":      entry.Code,
		"format":   req.Format.String(),
	})
	start := time.Now()

	res, err := e.run(ctx, req, log)
	if err != nil {
		e.setState(Failed)
		stage := Failed
		var se *StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		log.Error("imagery run failed", "stage", stage.String(), "error", err)
		e.cfg.Tracker.Track(analytics.EventFetchFailed, map[string]interface{}{
			"run":       runID,
			"provider":  e.cfg.Fetcher.Provider(),
			"stage":     stage.String(),
			"cancelled": errors.Is(err, common.ErrCancelled),
		})
		return PlacementResult{}, err
	}

	e.setState(Done)
	log.Info("imagery run complete", "image", res.ImagePath, "tiles", res.TileCount,
		"zoom", res.Zoom, "elapsed", time.Since(start).Round(time.Millisecond))
	e.cfg.Tracker.Track(analytics.EventFetchCompleted, map[string]interface{}{
		"run":        runID,
		"provider":   res.Provider,
		"crs":        res.CRS,
		"zoom":       res.Zoom,
		"tiles":      res.TileCount,
		"duration_s": time.Since(start).Seconds(),
	})
	return res, nil
}

func (e *Engine) run(ctx context.Context, req Request, log *slog.Logger) (PlacementResult, error) {
	tr := e.cfg.Transformer
	entry := tr.Entry()

	// Drawing CRS to WGS84
	if err := e.enter(ctx, TransformingBbox); err != nil {
		return PlacementResult{}, err
	}
	bbox, err := tr.BoxToWGS84(req.X1, req.Y1, req.X2, req.Y2)
	if err != nil {
		return PlacementResult{}, &StageError{Stage: TransformingBbox, Err: err}
	}
	log.Debug("requested area", "crs", entry.Code, "bbox", bbox.String())

	// Zoom and tile range
	if err := e.enter(ctx, SelectingZoom); err != nil {
		return PlacementResult{}, err
	}
	if err := bbox.ValidateMercator(); err != nil {
		return PlacementResult{}, &StageError{Stage: SelectingZoom, Err: err}
	}
	_, centerLat := bbox.Center()
	zoom := req.Zoom
	if zoom == AutoZoom {
		zoom = tiles.ChooseZoom(centerLat, e.cfg.TargetResolution)
	}
	if zoom < 0 || zoom > tiles.MaxZoom {
		return PlacementResult{}, &StageError{Stage: SelectingZoom, Err: fmt.Errorf("zoom %d out of range [0, %d]", zoom, tiles.MaxZoom)}
	}
	r := tiles.GetTileRange(bbox, zoom)
	if err := r.Validate(); err != nil {
		return PlacementResult{}, &StageError{Stage: SelectingZoom, Err: err}
	}
	log.Info("tile range selected", "zoom", zoom, "range", r.String(), "tiles", r.Total(),
		"resolution", fmt.Sprintf("%.2fm/px", tiles.GroundResolution(centerLat, zoom)))

	// Fetch
	if err := e.enter(ctx, FetchingTiles); err != nil {
		return PlacementResult{}, err
	}
	data, err := imagery.FetchRange(ctx, e.cfg.Fetcher, r, e.OnProgress)
	if err != nil {
		return PlacementResult{}, &StageError{Stage: FetchingTiles, Err: err}
	}

	// Stitch
	if err := e.enter(ctx, Stitching); err != nil {
		return PlacementResult{}, err
	}
	canvas, err := mosaic.Stitch(data, r, mosaic.Options{Fill: e.cfg.Fill})
	if err != nil {
		return PlacementResult{}, &StageError{Stage: Stitching, Err: err}
	}

	// Placement and files
	if err := e.enter(ctx, Encoding); err != nil {
		return PlacementResult{}, err
	}
	extent := tiles.RangeBounds(r)
	tlX, tlY, err := tr.FromWGS84(extent.MinLon, extent.MaxLat)
	if err != nil {
		return PlacementResult{}, &StageError{Stage: Encoding, Err: err}
	}
	brX, brY, err := tr.FromWGS84(extent.MaxLon, extent.MinLat)
	if err != nil {
		return PlacementResult{}, &StageError{Stage: Encoding, Err: err}
	}

	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	res := PlacementResult{
		InsertionX: tlX,
		InsertionY: tlY,
		Width:      brX - tlX,
		Height:     tlY - brY,
		WidthPx:    w,
		HeightPx:   h,
		TileCount:  r.Total(),
		Zoom:       zoom,
		CRS:        entry.Code,
		Provider:   e.cfg.Fetcher.Provider(),
	}

	format := req.Format
	if format == "" {
		format = common.FormatJPEG
	}
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return PlacementResult{}, &StageError{Stage: Encoding, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}
	res.ImagePath = naming.OutputPath(req.OutputDir, e.cfg.Now(), format)

	geo := &geotiff.Georef{
		OriginX:     tlX,
		OriginY:     tlY,
		PixelWidth:  (brX - tlX) / float64(w),
		PixelHeight: (tlY - brY) / float64(h),
		EPSG:        entry.EPSG(),
		Geographic:  entry.Geographic(),
		Citation:    entry.Name,
	}
	size, err := writeImage(res.ImagePath, func(f *os.File) error {
		return mosaic.Encode(f, canvas, format, req.Quality, geo)
	})
	if err != nil {
		return PlacementResult{}, &StageError{Stage: Encoding, Err: err}
	}
	log.Info("mosaic written", "path", res.ImagePath, "size", humanize.Bytes(uint64(size)),
		"width", w, "height", h)

	res.WorldFilePath = worldfile.PathFor(res.ImagePath)
	if err := worldfile.Write(res.WorldFilePath, worldfile.Generate(tlX, tlY, brX, brY, w, h)); err != nil {
		return PlacementResult{}, &StageError{Stage: Encoding, Err: err}
	}

	if req.Footprint {
		res.FootprintPath = naming.FootprintPath(res.ImagePath)
		fp := footprint{
			Extent:    extent,
			Requested: bbox,
			Range:     r,
			Result:    res,
			Created:   e.cfg.Now(),
		}
		if err := fp.write(res.FootprintPath); err != nil {
			return PlacementResult{}, &StageError{Stage: Encoding, Err: err}
		}
	}

	return res, nil
}

// enter moves to s unless ctx is already done
func (e *Engine) enter(ctx context.Context, s State) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: s, Err: fmt.Errorf("%w: %w", common.ErrCancelled, err)}
	}
	e.setState(s)
	return nil
}

// writeImage encodes into a temp file next to path and renames it into place
func writeImage(path string, encode func(*os.File) error) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".geosat-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := encode(tmp); err != nil {
		tmp.Close()
		return 0, err
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to stat temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp image: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("failed to move image into place: %w", err)
	}
	return info.Size(), nil
}
