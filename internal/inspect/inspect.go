package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/scene"
)

// Line is one node of the hierarchy as shown by the viewer.
type Line struct {
	Depth   int
	UID     ecs.EntityUID
	Name    string
	Pos     mgl32.Vec3
	Visible bool
	Joint   bool
}

func (l Line) String() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", l.Depth))
	if l.Name != "" {
		b.WriteString(l.Name)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "#%d (%.2f, %.2f, %.2f)", l.UID, l.Pos[0], l.Pos[1], l.Pos[2])
	if l.Joint {
		b.WriteString(" [joint]")
	}
	if !l.Visible {
		b.WriteString(" [hidden]")
	}
	return b.String()
}

// Lines lists every scene graph node, roots in UID order, each followed by
// its subtree.
func Lines(sc *scene.Scene) []Line {
	roots := sc.Roots()
	sort.Slice(roots, func(i, j int) bool { return roots[i].EntityUID() < roots[j].EntityUID() })

	ents := sc.World().Entities()
	var out []Line
	for _, root := range roots {
		for _, sg := range scene.FlattenHierarchy(root, false) {
			l := Line{
				Depth:   depth(sg),
				UID:     sg.EntityUID(),
				Pos:     sg.WorldPosition(),
				Visible: sg.IsVisible(),
				Joint:   sg.IsJoint(),
			}
			if e, ok := ents.Entity(l.UID); ok {
				l.Name = e.UniqueName()
			}
			out = append(out, l)
		}
	}
	return out
}

func depth(sg *scene.SceneGraphComponent) int {
	d := 0
	for p := sg.Parent(); p != nil; p = p.Parent() {
		d++
	}
	return d
}

var (
	styleHeader = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen)
	styleNode   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleJoint  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHidden = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Viewer draws the hierarchy of a scene to a terminal screen.
// Accessed only from the frame loop goroutine.
type Viewer struct {
	screen tcell.Screen
	scene  *scene.Scene
	scroll int
}

func NewViewer(screen tcell.Screen, sc *scene.Scene) *Viewer {
	return &Viewer{screen: screen, scene: sc}
}

// Draw repaints the screen. The first row is a status header.
func (v *Viewer) Draw(frame uint64) {
	v.screen.Clear()
	width, height := v.screen.Size()
	lines := Lines(v.scene)

	header := fmt.Sprintf(" frame %d  nodes %d  entities %d  (up/down scroll, q quit)",
		frame, len(lines), v.scene.World().Entities().Count())
	v.drawText(0, width, header, styleHeader, true)

	maxScroll := len(lines) - (height - 1)
	if maxScroll < 0 {
		maxScroll = 0
	}
	if v.scroll > maxScroll {
		v.scroll = maxScroll
	}
	for row := 1; row < height; row++ {
		i := v.scroll + row - 1
		if i >= len(lines) {
			break
		}
		l := lines[i]
		style := styleNode
		switch {
		case !l.Visible:
			style = styleHidden
		case l.Joint:
			style = styleJoint
		}
		v.drawText(row, width, l.String(), style, false)
	}
	v.screen.Show()
}

func (v *Viewer) drawText(row, width int, text string, style tcell.Style, fill bool) {
	x := 0
	for _, r := range text {
		if x >= width {
			return
		}
		v.screen.SetContent(x, row, r, nil, style)
		x++
	}
	for ; fill && x < width; x++ {
		v.screen.SetContent(x, row, ' ', nil, style)
	}
}

// HandleEvent applies a terminal event and reports whether the user asked
// to quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyUp:
			if v.scroll > 0 {
				v.scroll--
			}
		case tcell.KeyDown:
			v.scroll++
		case tcell.KeyRune:
			if ev.Rune() == 'q' {
				return true
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return false
}

// Scroll returns the index of the first node shown.
func (v *Viewer) Scroll() int { return v.scroll }
