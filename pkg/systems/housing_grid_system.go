package systems

import (
	"fmt"
	"image/color"
	"log"
	"sort"

	"github.com/decker502/mshome/pkg/components"
	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/ecs"
	"github.com/decker502/mshome/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// 网格叠加层样式
var (
	gridLineColor     = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0x80}
	gridDisabledColor = color.NRGBA{R: 0xff, G: 0x00, B: 0x00, A: 0x4d}
)

const gridLineWidth = 2.0

// HousingGridSystem 管理家具网格的占用状态
//
// 每个命名网格区域对应一个实体（HousingGridComponent）。
// 网格拓扑在地图生命周期内不变，只有占用标记会随家具放置/移除而改变。
//
// 占用规则：
//   - 普通家具检查并标记 Placed
//   - 井类家具检查并标记 PlacedWell（独立的更严格区域）
//   - 禁用格子在两个数组中都被标记，永不释放
type HousingGridSystem struct {
	entityManager *ecs.EntityManager
	grids         map[string]ecs.EntityID
}

// NewHousingGridSystem 创建网格系统
func NewHousingGridSystem(em *ecs.EntityManager) *HousingGridSystem {
	return &HousingGridSystem{
		entityManager: em,
		grids:         make(map[string]ecs.EntityID),
	}
}

// BuildGrid 根据网格定义创建一个网格区域
// 参数:
//   - key: 网格区域名称
//   - def: 网格定义（行列数、原点、禁用格子）
//
// 返回:
//   - ecs.EntityID: 网格实体ID
//   - error: 禁用格子键格式错误时返回内容错误
func (s *HousingGridSystem) BuildGrid(key string, def *config.HousingGridDefinition) (ecs.EntityID, error) {
	if def == nil || def.Row <= 0 || def.Col <= 0 {
		return 0, fmt.Errorf("housing grid %s: %w", key, config.ErrContent)
	}
	if _, exists := s.grids[key]; exists {
		return 0, fmt.Errorf("housing grid %s already built", key)
	}

	size := def.Row * def.Col
	grid := &components.HousingGridComponent{
		Key:        key,
		Row:        def.Row,
		Col:        def.Col,
		Origin:     utils.Point{X: def.Left, Y: def.Top},
		CellSize:   config.GridCellSize,
		Placed:     make([]bool, size),
		PlacedWell: make([]bool, size),
		Disabled:   make([]bool, size),
		Points:     make([]utils.Point, size),
	}

	for y := 0; y < def.Row; y++ {
		for x := 0; x < def.Col; x++ {
			grid.Points[y*def.Col+x] = utils.CellToPoint(x, y, grid.Origin, grid.CellSize)
		}
	}

	for cellKey, disabled := range def.Disabled {
		if !disabled {
			continue
		}
		x, y, err := utils.ParseCellKey(cellKey)
		if err != nil {
			return 0, fmt.Errorf("housing grid %s: %w: %v", key, config.ErrContent, err)
		}
		idx, ok := grid.Index(x, y)
		if !ok {
			log.Printf("[HousingGridSystem] Warning: disabled cell %s outside grid %s (%dx%d), ignored", cellKey, key, def.Col, def.Row)
			continue
		}
		grid.Disabled[idx] = true
		grid.Placed[idx] = true
		grid.PlacedWell[idx] = true
	}

	entity := s.entityManager.CreateEntity()
	ecs.AddComponent(s.entityManager, entity, grid)
	s.grids[key] = entity

	log.Printf("[HousingGridSystem] Built grid %s: %dx%d at (%.0f, %.0f)", key, def.Col, def.Row, def.Left, def.Top)
	return entity, nil
}

// BuildAll 按名称顺序创建所有网格区域
func (s *HousingGridSystem) BuildAll(defs map[string]*config.HousingGridDefinition) error {
	keys := make([]string, 0, len(defs))
	for key := range defs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := s.BuildGrid(key, defs[key]); err != nil {
			return err
		}
	}
	return nil
}

// Keys 返回所有网格区域名称（升序）
func (s *HousingGridSystem) Keys() []string {
	keys := make([]string, 0, len(s.grids))
	for key := range s.grids {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Grid 返回网格组件
func (s *HousingGridSystem) Grid(key string) (*components.HousingGridComponent, bool) {
	entity, ok := s.grids[key]
	if !ok {
		return nil, false
	}
	return ecs.GetComponent[*components.HousingGridComponent](s.entityManager, entity)
}

// IsOccupied 检查指定格子是否已被占用
// 参数:
//   - key: 网格区域名称
//   - x, y: 列、行索引
//   - wellOnly: true 时查询井格数组，否则查询普通数组
//
// 返回:
//   - bool: 未知区域或越界时返回 true（视为已占用，防止放置）
func (s *HousingGridSystem) IsOccupied(key string, x, y int, wellOnly bool) bool {
	grid, ok := s.Grid(key)
	if !ok {
		return true
	}
	idx, ok := grid.Index(x, y)
	if !ok {
		return true
	}
	if wellOnly {
		return grid.PlacedWell[idx]
	}
	return grid.Placed[idx]
}

// IsDisabled 检查格子是否被地图定义禁用
func (s *HousingGridSystem) IsDisabled(key string, x, y int) bool {
	grid, ok := s.Grid(key)
	if !ok {
		return false
	}
	idx, ok := grid.Index(x, y)
	if !ok {
		return false
	}
	return grid.Disabled[idx]
}

// WorldPointOf 返回格子左上角的地图坐标（用于吸附）
func (s *HousingGridSystem) WorldPointOf(key string, x, y int) (utils.Point, bool) {
	grid, ok := s.Grid(key)
	if !ok {
		return utils.Point{}, false
	}
	idx, ok := grid.Index(x, y)
	if !ok {
		return utils.Point{}, false
	}
	return grid.Points[idx], true
}

// CellAt 返回包含地图坐标点的网格区域与格子
// 多个区域重叠时按名称顺序取第一个
func (s *HousingGridSystem) CellAt(p utils.Point) (key string, x, y int, ok bool) {
	for _, k := range s.Keys() {
		grid, found := s.Grid(k)
		if !found {
			continue
		}
		if cx, cy, valid := utils.PointToCell(p, grid.Origin, grid.Col, grid.Row, grid.CellSize); valid {
			return k, cx, cy, true
		}
	}
	return "", 0, 0, false
}

// CanPlace 检查 cols×rows 的占地范围（左上角为 x,y）是否全部空闲
func (s *HousingGridSystem) CanPlace(key string, x, y, cols, rows int, well bool) bool {
	if cols <= 0 || rows <= 0 {
		return false
	}
	for dy := 0; dy < rows; dy++ {
		for dx := 0; dx < cols; dx++ {
			if s.IsOccupied(key, x+dx, y+dy, well) {
				return false
			}
		}
	}
	return true
}

// Occupy 标记占地范围为已占用
// 返回:
//   - error: 区域不存在或范围内有格子已被占用时返回错误（此时不修改任何状态）
func (s *HousingGridSystem) Occupy(key string, x, y, cols, rows int, well bool) error {
	grid, ok := s.Grid(key)
	if !ok {
		return fmt.Errorf("housing grid %s not found", key)
	}
	if !s.CanPlace(key, x, y, cols, rows, well) {
		return fmt.Errorf("grid %s cells (%d,%d)+%dx%d are not free", key, x, y, cols, rows)
	}

	cells := grid.Placed
	if well {
		cells = grid.PlacedWell
	}
	for dy := 0; dy < rows; dy++ {
		for dx := 0; dx < cols; dx++ {
			idx, _ := grid.Index(x+dx, y+dy)
			cells[idx] = true
		}
	}
	return nil
}

// Release 清除占地范围的占用状态
// 禁用格子和越界格子保持不变
func (s *HousingGridSystem) Release(key string, x, y, cols, rows int, well bool) {
	grid, ok := s.Grid(key)
	if !ok {
		return
	}

	cells := grid.Placed
	if well {
		cells = grid.PlacedWell
	}
	for dy := 0; dy < rows; dy++ {
		for dx := 0; dx < cols; dx++ {
			idx, ok := grid.Index(x+dx, y+dy)
			if !ok || grid.Disabled[idx] {
				continue
			}
			cells[idx] = false
		}
	}
}

// DrawOverlay 绘制网格叠加层（网格线与禁用格子）
// 参数:
//   - dst: 目标图像
//   - t: 地图坐标到目标图像坐标的变换
//   - alpha: 图层透明度
func (s *HousingGridSystem) DrawOverlay(dst *ebiten.Image, t utils.Transform, alpha float64) {
	if alpha <= 0 {
		return
	}
	lineColor := scaleAlpha(gridLineColor, alpha)
	disabledColor := scaleAlpha(gridDisabledColor, alpha)
	lineWidth := float32(gridLineWidth * t.Scale)
	if lineWidth < 1 {
		lineWidth = 1
	}

	for _, key := range s.Keys() {
		grid, ok := s.Grid(key)
		if !ok {
			continue
		}

		cell := grid.CellSize * t.Scale
		for i, disabled := range grid.Disabled {
			if !disabled {
				continue
			}
			p := t.Apply(grid.Points[i])
			vector.DrawFilledRect(dst, float32(p.X), float32(p.Y), float32(cell), float32(cell), disabledColor, false)
		}

		bounds := t.ApplyRect(grid.Bounds())
		for x := 0; x <= grid.Col; x++ {
			lx := float32(bounds.X + float64(x)*cell)
			vector.StrokeLine(dst, lx, float32(bounds.Y), lx, float32(bounds.Bottom()), lineWidth, lineColor, false)
		}
		for y := 0; y <= grid.Row; y++ {
			ly := float32(bounds.Y + float64(y)*cell)
			vector.StrokeLine(dst, float32(bounds.X), ly, float32(bounds.Right()), ly, lineWidth, lineColor, false)
		}
	}
}

// scaleAlpha 将颜色透明度乘以 alpha
func scaleAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(float64(c.A) * utils.Clamp(alpha, 0, 1))
	return c
}
