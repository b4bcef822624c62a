// Package nodestyle maps a node's free-form type string to how the node is
// drawn on the canvas.
package nodestyle

import (
	"strings"

	"github.com/msalah0e/flowcanvas/internal/geometry"
)

// Category is the closed set of presentation categories.
type Category int

const (
	Default Category = iota
	Webhook
	Trigger
	Function
	HTTP
	Search
	Set
	Action
	Format
	Build
	API
	Email
)

var categoryNames = map[Category]string{
	Default:  "default",
	Webhook:  "webhook",
	Trigger:  "trigger",
	Function: "function",
	HTTP:     "http",
	Search:   "search",
	Set:      "set",
	Action:   "action",
	Format:   "format",
	Build:    "build",
	API:      "api",
	Email:    "email",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "default"
}

// Box dimensions in model units.
const (
	NodeHeight   = 80.0
	NodeWidth    = 200.0
	TriggerWidth = 220.0
	NotchDepth   = 14.0
	CornerRadius = 8.0
	ConnectorR   = 6.0
)

// Descriptor is everything the renderer needs to draw a node.
type Descriptor struct {
	Category Category `json:"category"`
	Color    string   `json:"color"`
	Icon     string   `json:"icon"`
	Trigger  bool     `json:"trigger"`
}

// Rule pairs a predicate over the lower-cased node type with a category.
type Rule struct {
	Match    func(lowerType string) bool
	Category Category
}

func contains(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
}

// Rules is evaluated top to bottom; the first match wins.
var Rules = []Rule{
	{contains("webhook"), Webhook},
	{contains("trigger"), Trigger},
	{contains("function"), Function},
	{contains("http"), HTTP},
	{contains("search"), Search},
	{contains("set"), Set},
	{contains("action"), Action},
	{contains("format"), Format},
	{contains("build"), Build},
	{contains("api"), API},
	{contains("gmail", "email"), Email},
}

var palette = map[Category]Descriptor{
	Webhook:  {Color: "#FF6B6B", Icon: "⚡", Trigger: true},
	Trigger:  {Color: "#FF6B6B", Icon: "⚡", Trigger: true},
	Function: {Color: "#4ECDC4", Icon: "ƒ"},
	HTTP:     {Color: "#96CEB4", Icon: "⇄"},
	Search:   {Color: "#45B7D1", Icon: "⌕"},
	Set:      {Color: "#FFEAA7", Icon: "≔"},
	Action:   {Color: "#4ECDC4", Icon: "▶"},
	Format:   {Color: "#FFEAA7", Icon: "¶"},
	Build:    {Color: "#DDA0DD", Icon: "⚒"},
	API:      {Color: "#45B7D1", Icon: "⌘"},
	Email:    {Color: "#FF8C42", Icon: "✉"},
	Default:  {Color: "#6C5CE7", Icon: "●"},
}

// Classify returns the category for a node type. Unknown types are Default.
func Classify(nodeType string) Category {
	lower := strings.ToLower(nodeType)
	for _, r := range Rules {
		if r.Match(lower) {
			return r.Category
		}
	}
	return Default
}

// Describe resolves the full descriptor for a node type.
func Describe(nodeType string) Descriptor {
	c := Classify(nodeType)
	d := palette[c]
	d.Category = c
	return d
}

// Size returns the box width and height for a descriptor.
func Size(d Descriptor) (float64, float64) {
	if d.Trigger {
		return TriggerWidth, NodeHeight
	}
	return NodeWidth, NodeHeight
}

// Box places a node of descriptor d with its top-left corner at pos.
func Box(d Descriptor, pos geometry.Point) geometry.Rect {
	w, h := Size(d)
	return geometry.Rect{X: pos.X, Y: pos.Y, W: w, H: h}
}

// Connectors returns the input and output connector centers. Trigger nodes
// start a flow and have no input; the returned bool reports whether in is
// meaningful.
func Connectors(d Descriptor, box geometry.Rect) (in geometry.Point, hasInput bool, out geometry.Point) {
	out = box.RightMid()
	if d.Trigger {
		return geometry.Point{}, false, out
	}
	return box.LeftMid(), true, out
}

// Outline returns the SVG path data for the node silhouette. Trigger nodes
// get a notched left edge; everything else is a rounded rectangle.
func Outline(d Descriptor, box geometry.Rect) string {
	n := geometry.Num
	x, y, w, h, r := box.X, box.Y, box.W, box.H, CornerRadius
	if d.Trigger {
		// Square left side with a V notch, rounded right corners.
		return "M " + n(x) + " " + n(y) +
			" L " + n(x+w-r) + " " + n(y) +
			" Q " + n(x+w) + " " + n(y) + " " + n(x+w) + " " + n(y+r) +
			" L " + n(x+w) + " " + n(y+h-r) +
			" Q " + n(x+w) + " " + n(y+h) + " " + n(x+w-r) + " " + n(y+h) +
			" L " + n(x) + " " + n(y+h) +
			" L " + n(x+NotchDepth) + " " + n(y+h/2) +
			" Z"
	}
	return "M " + n(x+r) + " " + n(y) +
		" L " + n(x+w-r) + " " + n(y) +
		" Q " + n(x+w) + " " + n(y) + " " + n(x+w) + " " + n(y+r) +
		" L " + n(x+w) + " " + n(y+h-r) +
		" Q " + n(x+w) + " " + n(y+h) + " " + n(x+w-r) + " " + n(y+h) +
		" L " + n(x+r) + " " + n(y+h) +
		" Q " + n(x) + " " + n(y+h) + " " + n(x) + " " + n(y+h-r) +
		" L " + n(x) + " " + n(y+r) +
		" Q " + n(x) + " " + n(y) + " " + n(x+r) + " " + n(y) +
		" Z"
}
