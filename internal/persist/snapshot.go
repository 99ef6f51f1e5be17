package persist

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/scenekit/engine/internal/data"
	"github.com/scenekit/engine/internal/scene"
	"golang.org/x/crypto/blake2b"
)

// NodeState is the persisted state of one group entity.
type NodeState struct {
	UID        int32             `json:"uid"`
	Name       string            `json:"name,omitempty"`
	Parent     int32             `json:"parent"` // -1 for roots
	Translate  [3]float32        `json:"t"`
	Quaternion [4]float32        `json:"q"` // x, y, z, w
	Scale      [3]float32        `json:"s"`
	Joint      bool              `json:"joint,omitempty"`
	Visible    bool              `json:"visible"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// Snapshot is the hierarchy of a scene at one frame. Nodes are listed
// parents first.
type Snapshot struct {
	Scene string      `json:"scene"`
	Frame uint64      `json:"frame"`
	Nodes []NodeState `json:"nodes"`
}

// Capture walks every root of the scene in UID order and records its
// subtree.
func Capture(sc *scene.Scene, name string, frame uint64) *Snapshot {
	snap := &Snapshot{Scene: name, Frame: frame}
	roots := sc.Roots()
	sort.Slice(roots, func(i, j int) bool { return roots[i].EntityUID() < roots[j].EntityUID() })

	ents := sc.World().Entities()
	for _, root := range roots {
		for _, sg := range scene.FlattenHierarchy(root, false) {
			uid := sg.EntityUID()
			ns := NodeState{UID: int32(uid), Parent: -1, Joint: sg.IsJoint(), Visible: sg.IsVisible()}
			if p := sg.Parent(); p != nil {
				ns.Parent = int32(p.EntityUID())
			}
			if e, ok := ents.Entity(uid); ok {
				ns.Name = e.UniqueName()
				if tags := e.Tags(); len(tags) > 0 {
					ns.Tags = tags
				}
			}
			if t := sg.Transform(); t != nil {
				ns.Translate = t.Translate()
				ns.Scale = t.Scale()
				q := t.Quaternion()
				ns.Quaternion = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
			} else {
				ns.Scale = [3]float32{1, 1, 1}
				ns.Quaternion = [4]float32{0, 0, 0, 1}
			}
			snap.Nodes = append(snap.Nodes, ns)
		}
	}
	return snap
}

// Encode returns the payload stored for the snapshot and its digest. The
// digest covers the nodes only, so identical scenes at different frames
// share one.
func (s *Snapshot) Encode() (payload []byte, digest [32]byte, err error) {
	payload, err = json.Marshal(s)
	if err != nil {
		return nil, digest, fmt.Errorf("encode snapshot: %w", err)
	}
	nodes, err := json.Marshal(struct {
		Scene string      `json:"scene"`
		Nodes []NodeState `json:"nodes"`
	}{s.Scene, s.Nodes})
	if err != nil {
		return nil, digest, fmt.Errorf("encode snapshot: %w", err)
	}
	return payload, blake2b.Sum256(nodes), nil
}

// DecodeSnapshot parses a stored payload.
func DecodeSnapshot(payload []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// SceneDesc turns the snapshot back into a scene description so it can be
// rebuilt with the importer. Unnamed entities are named after their UID.
func (s *Snapshot) SceneDesc() (*data.SceneDesc, error) {
	names := make(map[int32]string, len(s.Nodes))
	for _, n := range s.Nodes {
		names[n.UID] = nodeName(n)
	}
	nodes := make([]data.NodeDesc, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		visible := n.Visible
		nd := data.NodeDesc{
			Name:       names[n.UID],
			Translate:  n.Translate[:],
			Quaternion: n.Quaternion[:],
			Scale:      n.Scale[:],
			Joint:      n.Joint,
			Visible:    &visible,
			Tags:       n.Tags,
		}
		if n.Parent >= 0 {
			p, ok := names[n.Parent]
			if !ok {
				return nil, fmt.Errorf("node %d: parent %d not in snapshot: %w", n.UID, n.Parent, data.ErrInvalidSceneDesc)
			}
			nd.Parent = p
		}
		nodes = append(nodes, nd)
	}
	return data.NewSceneDesc(s.Scene, nodes)
}

func nodeName(n NodeState) string {
	if n.Name != "" {
		return n.Name
	}
	return "entity_" + strconv.Itoa(int(n.UID))
}
