package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const demoScene = `
name: demo
nodes:
  - name: root
    translate: [1, 0, 0]
    tags: {kind: group}
  - name: arm
    parent: root
    rotate: [0, 0, 1.57]
    joint: true
  - name: hand
    parent: arm
    scale: [2, 2, 2]
    visible: false
    aabb: {min: [-1, -1, -1], max: [1, 1, 1]}
    script: spin
`

func TestParseSceneDesc(t *testing.T) {
	d, err := ParseSceneDesc([]byte(demoScene))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Name != "demo" || d.Count() != 3 {
		t.Fatalf("name=%q count=%d", d.Name, d.Count())
	}

	hand := d.Node("hand")
	if hand == nil {
		t.Fatal("hand missing")
	}
	if hand.Parent != "arm" || hand.Script != "spin" {
		t.Errorf("hand = %+v", hand)
	}
	if hand.Visible == nil || *hand.Visible {
		t.Error("hand should be explicitly hidden")
	}
	if hand.AABB == nil || hand.AABB.Max[0] != 1 {
		t.Errorf("aabb = %+v", hand.AABB)
	}
	if root := d.Node("root"); root.Tags["kind"] != "group" || root.Visible != nil {
		t.Errorf("root = %+v", root)
	}
	if !d.Node("arm").Joint {
		t.Error("arm should be a joint")
	}
	if d.Node("nope") != nil {
		t.Error("Expected nil for unknown node")
	}
}

func TestParseSceneDescRejects(t *testing.T) {
	cases := map[string]string{
		"missing name":   "nodes:\n  - translate: [0, 0, 0]\n",
		"duplicate":      "nodes:\n  - name: a\n  - name: a\n",
		"short vector":   "nodes:\n  - name: a\n    translate: [1, 2]\n",
		"bad matrix":     "nodes:\n  - name: a\n    matrix: [1, 0, 0, 1]\n",
		"unknown parent": "nodes:\n  - name: a\n    parent: b\n",
		"loop":           "nodes:\n  - name: a\n    parent: b\n  - name: b\n    parent: a\n",
		"bad aabb":       "nodes:\n  - name: a\n    aabb: {min: [0, 0], max: [1, 1, 1]}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseSceneDesc([]byte(body)); !errors.Is(err, ErrInvalidSceneDesc) {
				t.Errorf("Expected ErrInvalidSceneDesc, got %v", err)
			}
		})
	}

	if _, err := ParseSceneDesc([]byte("nodes: [")); err == nil || errors.Is(err, ErrInvalidSceneDesc) {
		t.Errorf("Expected a YAML syntax error, got %v", err)
	}
}

func TestLoadSceneDesc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(demoScene), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadSceneDesc(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Count() != 3 {
		t.Errorf("count = %d", d.Count())
	}
	if _, err := LoadSceneDesc(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
