package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSceneDesc = errors.New("invalid scene description")

// NodeDesc describes one group entity. Absent fields keep the component's
// initial values.
type NodeDesc struct {
	Name       string            `yaml:"name"`
	Parent     string            `yaml:"parent,omitempty"`
	Translate  []float32         `yaml:"translate,omitempty"`  // x, y, z
	Rotate     []float32         `yaml:"rotate,omitempty"`     // Euler XYZ in radians
	Scale      []float32         `yaml:"scale,omitempty"`      // x, y, z
	Quaternion []float32         `yaml:"quaternion,omitempty"` // x, y, z, w
	Matrix     []float32         `yaml:"matrix,omitempty"`     // 16 values, column-major
	Joint      bool              `yaml:"joint,omitempty"`
	Visible    *bool             `yaml:"visible,omitempty"`
	Tags       map[string]string `yaml:"tags,omitempty"`
	AABB       *AABBDesc         `yaml:"aabb,omitempty"`
	Script     string            `yaml:"script,omitempty"` // Lua behaviour name
	Prefab     string            `yaml:"prefab,omitempty"` // template for absent fields
}

type AABBDesc struct {
	Min []float32 `yaml:"min"`
	Max []float32 `yaml:"max"`
}

// SceneDesc is a scene description file: a flat node list whose hierarchy
// is given by parent names.
type SceneDesc struct {
	Name  string     `yaml:"name"`
	Nodes []NodeDesc `yaml:"nodes"`

	byName map[string]int
}

// LoadSceneDesc loads a scene description YAML file.
func LoadSceneDesc(path string) (*SceneDesc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene description: %w", err)
	}
	d, err := ParseSceneDesc(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ParseSceneDesc decodes and validates a scene description.
func ParseSceneDesc(raw []byte) (*SceneDesc, error) {
	var d SceneDesc
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse scene description: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// NewSceneDesc builds and validates a description from nodes assembled in
// code, e.g. from a stored snapshot.
func NewSceneDesc(name string, nodes []NodeDesc) (*SceneDesc, error) {
	d := &SceneDesc{Name: name, Nodes: nodes}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *SceneDesc) validate() error {
	d.byName = make(map[string]int, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.Name == "" {
			return fmt.Errorf("node #%d has no name: %w", i, ErrInvalidSceneDesc)
		}
		if _, dup := d.byName[n.Name]; dup {
			return fmt.Errorf("node %q defined twice: %w", n.Name, ErrInvalidSceneDesc)
		}
		d.byName[n.Name] = i

		if err := n.checkShapes(); err != nil {
			return err
		}
	}

	for _, n := range d.Nodes {
		seen := map[string]bool{n.Name: true}
		for p := n.Parent; p != ""; {
			i, ok := d.byName[p]
			if !ok {
				return fmt.Errorf("node %q: unknown parent %q: %w", n.Name, p, ErrInvalidSceneDesc)
			}
			if seen[p] {
				return fmt.Errorf("node %q: parent chain loops at %q: %w", n.Name, p, ErrInvalidSceneDesc)
			}
			seen[p] = true
			p = d.Nodes[i].Parent
		}
	}
	return nil
}

func (n *NodeDesc) checkShapes() error {
	for _, f := range []struct {
		field string
		v     []float32
		n     int
	}{
		{"translate", n.Translate, 3},
		{"rotate", n.Rotate, 3},
		{"scale", n.Scale, 3},
		{"quaternion", n.Quaternion, 4},
		{"matrix", n.Matrix, 16},
	} {
		if f.v != nil && len(f.v) != f.n {
			return fmt.Errorf("node %q: %s needs %d values, got %d: %w", n.Name, f.field, f.n, len(f.v), ErrInvalidSceneDesc)
		}
	}
	if n.AABB != nil && (len(n.AABB.Min) != 3 || len(n.AABB.Max) != 3) {
		return fmt.Errorf("node %q: aabb needs 3 values for min and max: %w", n.Name, ErrInvalidSceneDesc)
	}
	return nil
}

// Node returns the node with the given name, or nil if none.
func (d *SceneDesc) Node(name string) *NodeDesc {
	i, ok := d.byName[name]
	if !ok {
		return nil
	}
	return &d.Nodes[i]
}

// Count returns the number of nodes.
func (d *SceneDesc) Count() int {
	return len(d.Nodes)
}
