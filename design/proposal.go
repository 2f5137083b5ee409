package design

// ElementType 定义 proposal 中元素的类型
// 这是一个可扩展的字符串类型，上游转换层可以定义自己的元素类型
type ElementType string

// 预定义的常见元素类型（可选使用）
const (
	ElementWall   ElementType = "wall"
	ElementDoor   ElementType = "door"
	ElementWindow ElementType = "window"
	ElementFloor  ElementType = "floor"
	ElementColumn ElementType = "column"
	ElementBeam   ElementType = "beam"
	ElementDuct   ElementType = "duct"
	ElementPipe   ElementType = "pipe"
)

// Point is a position in model space, in meters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Geometry describes the placement and bounding dimensions of a proposed
// element. Dimensions are in meters; zero means "unspecified".
type Geometry struct {
	Position Point   `json:"position"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Length   float64 `json:"length,omitempty"`
}

// ProposedElement is one element of a design proposal.
type ProposedElement struct {
	Type       ElementType    `json:"type"`
	FamilyName string         `json:"family_name,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// DesignProposal is a candidate design change submitted for multi-agent
// review. A proposal is read-only once handed to a session iteration; a
// revised proposal replaces it between iterations.
type DesignProposal struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Elements    []ProposedElement `json:"elements"`
	Parameters  map[string]any    `json:"parameters,omitempty"`
}

// ActionType 定义离散设计动作的类型
type ActionType string

const (
	ActionCreateElement ActionType = "create_element"
	ActionModifyElement ActionType = "modify_element"
	ActionDeleteElement ActionType = "delete_element"
	ActionSetParameter  ActionType = "set_parameter"
)

// DesignAction is a discrete proposed mutation submitted for validation
// outside the consensus flow.
type DesignAction struct {
	Type       ActionType     `json:"type"`
	Parameters map[string]any `json:"parameters,omitempty"`
}
