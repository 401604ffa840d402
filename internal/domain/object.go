package domain

// ObjectKind discriminates drawable scene objects.
type ObjectKind string

const (
	KindRect    ObjectKind = "rect"
	KindEllipse ObjectKind = "ellipse"
	KindLine    ObjectKind = "line"
	KindText    ObjectKind = "text"
	KindPath    ObjectKind = "path"
)

type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// SceneObject is one drawable element of the shared canvas. Every locally
// created object carries a globally-unique ID assigned at creation time;
// remote object_modified/object_removed correlate through it.
type SceneObject struct {
	ID          string     `json:"id" msgpack:"id"`
	Kind        ObjectKind `json:"kind" msgpack:"kind"`
	Left        float64    `json:"left" msgpack:"left"`
	Top         float64    `json:"top" msgpack:"top"`
	Width       float64    `json:"width,omitempty" msgpack:"width"`
	Height      float64    `json:"height,omitempty" msgpack:"height"`
	Angle       float64    `json:"angle,omitempty" msgpack:"angle"`
	Fill        string     `json:"fill,omitempty" msgpack:"fill"`
	Stroke      string     `json:"stroke,omitempty" msgpack:"stroke"`
	StrokeWidth float64    `json:"strokeWidth,omitempty" msgpack:"strokeWidth"`
	Text        string     `json:"text,omitempty" msgpack:"text"`
	Points      []Point    `json:"points,omitempty" msgpack:"points"`
}

// Merge overwrites geometry, style and content with the incoming object's
// values (last-write-wins). Identity fields are kept from the receiver.
func (o *SceneObject) Merge(in SceneObject) {
	id, kind := o.ID, o.Kind
	*o = in
	o.ID = id
	if o.Kind == "" {
		o.Kind = kind
	}
}
