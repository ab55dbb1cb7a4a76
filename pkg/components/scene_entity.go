package components

// SceneEntityKind 场景实体的种类
//
// 场景中的可渲染实体只有这三种，渲染、主题和销毁逻辑都按种类分派。
type SceneEntityKind int

const (
	// SceneEntityBack 背景条目（back 或 front 图层）
	SceneEntityBack SceneEntityKind = iota
	// SceneEntityObject 地图物件（墙面、地板等，可应用主题）
	SceneEntityObject
	// SceneEntityFurniture 家具
	SceneEntityFurniture
)

// String 返回种类名称（用于日志）
func (k SceneEntityKind) String() string {
	switch k {
	case SceneEntityBack:
		return "back"
	case SceneEntityObject:
		return "object"
	case SceneEntityFurniture:
		return "furniture"
	default:
		return "unknown"
	}
}

// SceneEntityComponent 标记实体为场景中的可渲染实体
// 与 PositionComponent 和 SpriteComponent 配合使用
type SceneEntityComponent struct {
	Kind SceneEntityKind

	// Layer 所属图层键（"back"、"front"、"furniture" 或数字图层键）
	Layer string

	// ZIndex 图层内的排序值，越大越靠上；相同时按实体ID排序
	ZIndex int
}
