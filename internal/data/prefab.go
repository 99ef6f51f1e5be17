package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PrefabEntry is a named node template. Nodes that reference it inherit
// every field they leave out.
type PrefabEntry struct {
	Name       string            `yaml:"name"`
	Translate  []float32         `yaml:"translate"`
	Rotate     []float32         `yaml:"rotate"`
	Scale      []float32         `yaml:"scale"`
	Quaternion []float32         `yaml:"quaternion"`
	Joint      bool              `yaml:"joint"`
	Visible    *bool             `yaml:"visible"`
	Tags       map[string]string `yaml:"tags"`
	AABB       *AABBDesc         `yaml:"aabb"`
	Script     string            `yaml:"script"`
}

// PrefabTable provides lookup of node templates by name.
type PrefabTable struct {
	prefabs map[string]*PrefabEntry
}

// LoadPrefabTable loads a prefab list YAML file.
func LoadPrefabTable(path string) (*PrefabTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefab list: %w", err)
	}
	return ParsePrefabTable(raw)
}

func ParsePrefabTable(raw []byte) (*PrefabTable, error) {
	var entries []PrefabEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse prefab list: %w", err)
	}
	t := &PrefabTable{
		prefabs: make(map[string]*PrefabEntry, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		if e.Name == "" {
			return nil, fmt.Errorf("prefab #%d has no name: %w", i, ErrInvalidSceneDesc)
		}
		probe := NodeDesc{Name: e.Name, Translate: e.Translate, Rotate: e.Rotate, Scale: e.Scale, Quaternion: e.Quaternion, AABB: e.AABB}
		if err := probe.checkShapes(); err != nil {
			return nil, fmt.Errorf("prefab %w", err)
		}
		t.prefabs[e.Name] = e
	}
	return t, nil
}

// Get returns the prefab with the given name, or nil if none.
func (t *PrefabTable) Get(name string) *PrefabEntry {
	return t.prefabs[name]
}

// Count returns the total number of prefabs loaded.
func (t *PrefabTable) Count() int {
	return len(t.prefabs)
}

// Apply fills the fields n leaves out from its prefab. Tags merge, with the
// node's own values winning. A node without a prefab is left alone.
func (t *PrefabTable) Apply(n *NodeDesc) error {
	if n.Prefab == "" {
		return nil
	}
	p := t.Get(n.Prefab)
	if p == nil {
		return fmt.Errorf("node %q: unknown prefab %q: %w", n.Name, n.Prefab, ErrInvalidSceneDesc)
	}
	// a matrix on the node replaces the whole TRS of the prefab
	if n.Matrix == nil {
		if n.Translate == nil {
			n.Translate = p.Translate
		}
		if n.Rotate == nil && n.Quaternion == nil {
			n.Rotate = p.Rotate
			n.Quaternion = p.Quaternion
		}
		if n.Scale == nil {
			n.Scale = p.Scale
		}
	}
	n.Joint = n.Joint || p.Joint
	if n.Visible == nil {
		n.Visible = p.Visible
	}
	if len(p.Tags) > 0 {
		merged := make(map[string]string, len(p.Tags)+len(n.Tags))
		for k, v := range p.Tags {
			merged[k] = v
		}
		for k, v := range n.Tags {
			merged[k] = v
		}
		n.Tags = merged
	}
	if n.AABB == nil {
		n.AABB = p.AABB
	}
	if n.Script == "" {
		n.Script = p.Script
	}
	return nil
}
