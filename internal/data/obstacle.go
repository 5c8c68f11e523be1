package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ObstacleEntry is one static obstacle: a box prism when Radius is 0,
// otherwise a cylinder centred on (X, Z).
type ObstacleEntry struct {
	Name   string  `yaml:"name"`
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
	Width  float64 `yaml:"width"` // along X
	Depth  float64 `yaml:"depth"` // along Z
	Radius float64 `yaml:"radius"`
	MinY   float64 `yaml:"min_y"`
	MaxY   float64 `yaml:"max_y"`
}

// IsCylinder reports whether the entry describes a cylinder.
func (o *ObstacleEntry) IsCylinder() bool { return o.Radius > 0 }

// ObstacleTable holds the static obstacles of a scene.
type ObstacleTable struct {
	entries []ObstacleEntry
}

// LoadObstacleTable loads obstacles.yaml.
func LoadObstacleTable(path string) (*ObstacleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read obstacles: %w", err)
	}
	var f struct {
		Obstacles []ObstacleEntry `yaml:"obstacles"`
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse obstacles: %w", err)
	}
	for i, o := range f.Obstacles {
		if o.Radius <= 0 && (o.Width <= 0 || o.Depth <= 0) {
			return nil, fmt.Errorf("parse obstacles: entry %d (%s) needs radius or width and depth", i, o.Name)
		}
	}
	return &ObstacleTable{entries: f.Obstacles}, nil
}

// All returns the obstacles in file order.
func (t *ObstacleTable) All() []ObstacleEntry { return t.entries }

// Count returns the total number of obstacles loaded.
func (t *ObstacleTable) Count() int { return len(t.entries) }
