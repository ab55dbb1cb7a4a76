package components

// MapObjectComponent 地图物件（墙面、地板、门窗等）
//
// 物件通过 (ObjectType, ObjectIndex) 唯一定位，主题按 ObjectType 批量应用。
type MapObjectComponent struct {
	// ObjectType 物件类型，如 "wall"、"floor"
	ObjectType string

	// ObjectIndex 同类型内的唯一索引
	ObjectIndex string

	// Theme 当前主题令牌（"0" 或 "s<n>"）
	Theme string

	// Variants 主题令牌 → 图片路径
	Variants map[string]string
}
