package components

// PositionComponent 存储实体左上角的地图坐标
type PositionComponent struct {
	X, Y float64
}
