package components

import "github.com/decker502/mshome/pkg/utils"

// HousingGridComponent 家具网格区域
//
// 占用状态使用一维数组存储，下标为 y*Col+x：
//   - Placed: 普通占用
//   - PlacedWell: 井格占用（更严格，只有井类家具检查）
//   - Disabled: 地图定义中禁用的格子，构建时同时占用两个数组且永不释放
//
// Points[i] 为格子左上角的地图坐标。
type HousingGridComponent struct {
	Key      string
	Row, Col int
	Origin   utils.Point
	CellSize float64

	Placed     []bool
	PlacedWell []bool
	Disabled   []bool
	Points     []utils.Point
}

// Index 返回格子的一维下标
// 越界时返回 false
func (g *HousingGridComponent) Index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= g.Col || y >= g.Row {
		return 0, false
	}
	return y*g.Col + x, true
}

// Bounds 返回网格区域的地图坐标矩形
func (g *HousingGridComponent) Bounds() utils.Rect {
	return utils.Rect{
		X:      g.Origin.X,
		Y:      g.Origin.Y,
		Width:  float64(g.Col) * g.CellSize,
		Height: float64(g.Row) * g.CellSize,
	}
}
