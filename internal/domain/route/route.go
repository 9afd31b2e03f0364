// Package route plans the short demo route drawn on the mini map.
//
// A route service is asked first; any failure falls back to a synthetic
// zig-zag between the current position and a point about 1 km north-east.
package route

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Route sources.
const (
	SourceService   = "service"
	SourceSynthetic = "synthetic"
)

const (
	destinationOffset = 0.009
	syntheticSteps    = 8
	zigzagOffset      = 0.001
	directionsPath    = "/v2/directions/driving-car"
)

// ErrInvalidPosition is returned for coordinates outside the globe.
var ErrInvalidPosition = errors.New("invalid position")

// Paris is the position used until the first fix arrives.
var Paris = Point{Lat: 48.8566, Lon: 2.3522}

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate ranges.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: %g,%g", ErrInvalidPosition, p.Lat, p.Lon)
	}
	return nil
}

// Route is a planned path.
type Route struct {
	Start       Point   `json:"start"`
	Destination Point   `json:"destination"`
	Points      []Point `json:"points"`
	Source      string  `json:"source"`
}

// Fetcher performs JSON GET requests against the route service.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, query map[string]string, out interface{}) error
}

// Options configure a Planner.
type Options struct {
	// Client is nil when no route service is configured.
	Client   Fetcher
	APIKey   string
	OnLookup func(source, status string, took time.Duration)
	Logger   *zap.Logger
}

// Planner tracks the device position and plans routes from it.
type Planner struct {
	opts Options
	log  *zap.Logger

	mu       sync.RWMutex
	position Point
	hasFix   bool
}

// NewPlanner creates a planner positioned at Paris.
func NewPlanner(opts Options) *Planner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Planner{opts: opts, log: opts.Logger.Named("route"), position: Paris}
}

// SetPosition records a location fix.
func (p *Planner) SetPosition(pt Point) error {
	if err := pt.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.position = pt
	p.hasFix = true
	p.mu.Unlock()
	return nil
}

// Position returns the current position and whether it came from a fix.
func (p *Planner) Position() (Point, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position, p.hasFix
}

// Plan plans from the current position.
func (p *Planner) Plan(ctx context.Context) Route {
	from, _ := p.Position()
	return p.PlanFrom(ctx, from)
}

// PlanFrom plans a route from the given start. It never fails.
func (p *Planner) PlanFrom(ctx context.Context, from Point) Route {
	to := Destination(from)

	if p.opts.Client != nil {
		start := time.Now()
		points, err := p.fetch(ctx, from, to)
		status := "success"
		if err != nil {
			status = "error"
			p.log.Warn("route service failed, using synthetic route", zap.Error(err))
		}
		p.observe(SourceService, status, time.Since(start))
		if err == nil {
			return Route{Start: from, Destination: to, Points: points, Source: SourceService}
		}
	}

	p.observe(SourceSynthetic, "success", 0)
	return Route{Start: from, Destination: to, Points: Synthetic(from, to), Source: SourceSynthetic}
}

func (p *Planner) observe(source, status string, took time.Duration) {
	if p.opts.OnLookup != nil {
		p.opts.OnLookup(source, status, took)
	}
}

type directions struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (p *Planner) fetch(ctx context.Context, from, to Point) ([]Point, error) {
	query := map[string]string{
		"start": lonLat(from),
		"end":   lonLat(to),
	}
	if p.opts.APIKey != "" {
		query["api_key"] = p.opts.APIKey
	}

	var resp directions
	if err := p.opts.Client.GetJSON(ctx, directionsPath, query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Features) == 0 {
		return nil, errors.New("route response has no features")
	}

	coords := resp.Features[0].Geometry.Coordinates
	points := make([]Point, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil, errors.New("route coordinate has fewer than two values")
		}
		points = append(points, Point{Lat: c[1], Lon: c[0]})
	}
	if len(points) == 0 {
		return nil, errors.New("route has no coordinates")
	}
	return points, nil
}

func lonLat(p Point) string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}

// Destination is the demo target about 1 km north-east of from.
func Destination(from Point) Point {
	return Point{Lat: from.Lat + destinationOffset, Lon: from.Lon + destinationOffset}
}

// Synthetic builds a street-like zig-zag from start to end.
func Synthetic(start, end Point) []Point {
	points := make([]Point, 0, syntheticSteps+1)
	points = append(points, start)
	for i := 1; i < syntheticSteps; i++ {
		progress := float64(i) / syntheticSteps
		lat := start.Lat + (end.Lat-start.Lat)*progress
		lon := start.Lon + (end.Lon-start.Lon)*progress

		offset := zigzagOffset
		if i%2 != 0 {
			offset = -zigzagOffset
		}
		points = append(points, Point{Lat: lat + offset*0.5, Lon: lon + offset})
	}
	return append(points, end)
}
