package ports

// Layer groups the shapes of one renderer inside a cell. A renderer owns one
// layer and redraws it from scratch on every update.
type Layer string

const (
	LayerBackground Layer = "background"
	LayerContent    Layer = "content"
	LayerOverlay    Layer = "overlay"
	LayerAxis       Layer = "axis"
	LayerLabel      Layer = "label"
)

// Layers lists the layers in paint order
var Layers = []Layer{LayerBackground, LayerContent, LayerOverlay, LayerAxis, LayerLabel}

// Surface is the drawing target of a single cell
type Surface interface {
	Clear(layer Layer)
	Draw(layer Layer, shape Shape)
}

// Shape is one drawable primitive
type Shape interface {
	shape()
}

// Point is a position in cell pixel coordinates, origin top left
type Point struct {
	X, Y float64
}

// Path is an open polyline, used for line charts
type Path struct {
	Points  []Point
	Stroke  string
	Opacity float64
	Title   string
}

// Rect is a filled rectangle, used for bars and heat cells
type Rect struct {
	X, Y, Width, Height float64
	Fill                string
	Class               string
}

// GradientStop is a color at an offset between 0 and 1
type GradientStop struct {
	Offset float64
	Color  string
}

// GradientDirection is the axis a gradient runs along
type GradientDirection string

const (
	ToRight  GradientDirection = "to right"
	ToBottom GradientDirection = "to bottom"
)

// Gradient is a rectangle filled with a hard-stop linear gradient
type Gradient struct {
	X, Y, Width, Height float64
	Direction           GradientDirection
	Stops               []GradientStop
}

// Segment is a straight line
type Segment struct {
	From, To Point
	Stroke   string
	Width    float64
	Dashed   bool
}

// Text is a label anchored at a point
type Text struct {
	At     Point
	Value  string
	Color  string
	Anchor string
	Rotate float64
}

// Orientation is the side of the cell an axis is drawn on
type Orientation string

const (
	AxisBottom Orientation = "bottom"
	AxisLeft   Orientation = "left"
)

// Axis is a set of ticks along one side of the cell
type Axis struct {
	Orientation Orientation
	Positions   []float64
	Labels      []string
	Length      float64
}

func (Path) shape()     {}
func (Rect) shape()     {}
func (Gradient) shape() {}
func (Segment) shape()  {}
func (Text) shape()     {}
func (Axis) shape()     {}

// Area is a region of the matrix view
type Area string

const (
	AreaMatrix   Area = "matrix"
	AreaFP       Area = "fp"
	AreaFN       Area = "fn"
	AreaAccuracy Area = "accuracy"
	AreaMeasures Area = "measures"
	AreaDetail   Area = "detail"
)

// Areas lists the view regions in layout order
var Areas = []Area{AreaMatrix, AreaFN, AreaFP, AreaAccuracy, AreaMeasures, AreaDetail}

// Placement locates one cell inside an area
type Placement struct {
	Area   Area
	Row    int
	Col    int
	Width  float64
	Height float64
	CellID string
	Title  string
}

// Canvas hands out one surface per placed cell. ClearArea drops every
// surface of an area.
type Canvas interface {
	Place(p Placement) Surface
	ClearArea(area Area)
}
