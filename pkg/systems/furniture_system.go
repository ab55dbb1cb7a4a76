package systems

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/decker502/mshome/pkg/components"
	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/ecs"
	"github.com/decker502/mshome/pkg/utils"
)

// FurnitureSystem 管理家具实体与网格占用
//
// 家具锚点为左上角格子，移动时吸附到格子坐标：
// 以家具左上角格子中心所在的格子作为锚点，占地范围为 Cols×Rows。
// 只有已提交且不在拖动中的家具占用网格。
type FurnitureSystem struct {
	entityManager *ecs.EntityManager
	grid          *HousingGridSystem
	images        ImageLoader

	byInstance map[string]ecs.EntityID
	nextSerial int
	topZ       int
}

// NewFurnitureSystem 创建家具系统
func NewFurnitureSystem(em *ecs.EntityManager, grid *HousingGridSystem, images ImageLoader) *FurnitureSystem {
	return &FurnitureSystem{
		entityManager: em,
		grid:          grid,
		images:        images,
		byInstance:    make(map[string]ecs.EntityID),
	}
}

// NewInstanceID 生成家具实例ID
//
// 序号只增不减，删除的家具ID在同一张地图内不会再次分配。
func (s *FurnitureSystem) NewInstanceID() string {
	for {
		s.nextSerial++
		id := "f" + strconv.Itoa(s.nextSerial)
		if _, used := s.byInstance[id]; !used {
			return id
		}
	}
}

// reserveSerial 外部指定的 "f<n>" 形式ID把序号推进到 n 之后
func (s *FurnitureSystem) reserveSerial(instanceID string) {
	if !strings.HasPrefix(instanceID, "f") {
		return
	}
	n, err := strconv.Atoi(instanceID[1:])
	if err != nil {
		return
	}
	if n > s.nextSerial {
		s.nextSerial = n
	}
}

// Spawn 创建家具实体（尚未占用网格）
// 参数:
//   - def: 家具定义
//   - instanceID: 实例ID，为空时自动生成
//   - placing: 是否处于放置模式（跟随指针）
func (s *FurnitureSystem) Spawn(def *config.FurnitureDefinition, instanceID string, placing bool) (ecs.EntityID, error) {
	if instanceID == "" {
		instanceID = s.NewInstanceID()
	}
	if _, exists := s.byInstance[instanceID]; exists {
		return 0, fmt.Errorf("furniture instance %s already exists", instanceID)
	}
	s.reserveSerial(instanceID)

	clr, _ := config.ParseColor(def.Color)
	if clr.A == 0 {
		clr.R, clr.G, clr.B, clr.A = 0x9c, 0x7a, 0x54, 0xff
	}

	sprite := &components.SpriteComponent{
		Color:  clr,
		Width:  def.Width,
		Height: def.Height,
		Alpha:  1,
	}
	if def.Image != "" && s.images != nil {
		if img, err := s.images.LoadImage(def.Image); err != nil {
			log.Printf("[FurnitureSystem] Failed to load %s: %v", def.Image, err)
		} else {
			sprite.Image = img
		}
	}

	s.topZ++
	id := s.entityManager.CreateEntity()
	ecs.AddComponent(s.entityManager, id, &components.SceneEntityComponent{
		Kind:   components.SceneEntityFurniture,
		Layer:  config.LayerFurniture,
		ZIndex: s.topZ,
	})
	ecs.AddComponent(s.entityManager, id, &components.PositionComponent{})
	ecs.AddComponent(s.entityManager, id, sprite)
	ecs.AddComponent(s.entityManager, id, &components.FurnitureComponent{
		InstanceID:  instanceID,
		FurnitureID: def.ID,
		Cols:        def.Cols,
		Rows:        def.Rows,
		Well:        def.Well,
		Placing:     placing,
	})
	s.byInstance[instanceID] = id
	return id, nil
}

// Find 按实例ID查找家具实体
func (s *FurnitureSystem) Find(instanceID string) (ecs.EntityID, bool) {
	id, ok := s.byInstance[instanceID]
	return id, ok
}

// Count 返回家具数量
func (s *FurnitureSystem) Count() int {
	return len(s.byInstance)
}

// Furniture 返回家具组件
func (s *FurnitureSystem) Furniture(id ecs.EntityID) (*components.FurnitureComponent, bool) {
	return ecs.GetComponent[*components.FurnitureComponent](s.entityManager, id)
}

// Position 返回家具左上角的地图坐标
func (s *FurnitureSystem) Position(id ecs.EntityID) utils.Point {
	pos, ok := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
	if !ok {
		return utils.Point{}
	}
	return utils.Point{X: pos.X, Y: pos.Y}
}

// MoveTo 将家具移动到地图坐标（左上角），并吸附到网格
// 返回当前位置是否可以放下
func (s *FurnitureSystem) MoveTo(id ecs.EntityID, topLeft utils.Point) bool {
	f, ok := s.Furniture(id)
	if !ok {
		return false
	}
	pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)

	half := config.GridCellSize / 2
	key, x, y, found := s.grid.CellAt(topLeft.Add(utils.Point{X: half, Y: half}))
	if !found {
		pos.X, pos.Y = topLeft.X, topLeft.Y
		f.GridKey = ""
		f.Valid = false
		return false
	}

	snap, _ := s.grid.WorldPointOf(key, x, y)
	pos.X, pos.Y = snap.X, snap.Y
	f.GridKey, f.CellX, f.CellY = key, x, y
	f.Valid = s.grid.CanPlace(key, x, y, f.Cols, f.Rows, f.Well)
	return f.Valid
}

// Commit 将家具放下并占用网格
func (s *FurnitureSystem) Commit(id ecs.EntityID) error {
	f, ok := s.Furniture(id)
	if !ok {
		return fmt.Errorf("entity %d is not furniture", id)
	}
	if f.GridKey == "" {
		return fmt.Errorf("furniture %s is outside every grid", f.InstanceID)
	}
	if err := s.grid.Occupy(f.GridKey, f.CellX, f.CellY, f.Cols, f.Rows, f.Well); err != nil {
		return fmt.Errorf("failed to commit furniture %s: %w", f.InstanceID, err)
	}
	f.Committed = true
	f.Placing = false
	f.Dragging = false
	f.Valid = true
	return nil
}

// PickUp 拖起已提交的家具，释放其占用的格子
// grab 为按下位置（地图坐标），用于保持指针与家具的相对位置
func (s *FurnitureSystem) PickUp(id ecs.EntityID, grab utils.Point) bool {
	f, ok := s.Furniture(id)
	if !ok || !f.Committed || f.Dragging {
		return false
	}
	pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)

	s.grid.Release(f.GridKey, f.CellX, f.CellY, f.Cols, f.Rows, f.Well)
	f.PrevGridKey, f.PrevCellX, f.PrevCellY = f.GridKey, f.CellX, f.CellY
	f.PrevX, f.PrevY = pos.X, pos.Y
	f.GrabOffsetX, f.GrabOffsetY = grab.X-pos.X, grab.Y-pos.Y
	f.Dragging = true
	f.Valid = true
	return true
}

// Revert 放下失败时恢复到拖起前的位置
func (s *FurnitureSystem) Revert(id ecs.EntityID) {
	f, ok := s.Furniture(id)
	if !ok || !f.Dragging {
		return
	}
	pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)

	pos.X, pos.Y = f.PrevX, f.PrevY
	f.GridKey, f.CellX, f.CellY = f.PrevGridKey, f.PrevCellX, f.PrevCellY
	if err := s.grid.Occupy(f.GridKey, f.CellX, f.CellY, f.Cols, f.Rows, f.Well); err != nil {
		log.Printf("[FurnitureSystem] Warning: failed to restore %s: %v", f.InstanceID, err)
	}
	f.Dragging = false
	f.Valid = true
}

// Destroy 销毁家具实体，释放占用的格子
func (s *FurnitureSystem) Destroy(id ecs.EntityID) {
	f, ok := s.Furniture(id)
	if !ok {
		return
	}
	if f.Committed && !f.Dragging {
		s.grid.Release(f.GridKey, f.CellX, f.CellY, f.Cols, f.Rows, f.Well)
	}
	delete(s.byInstance, f.InstanceID)
	s.entityManager.DestroyEntity(id)
	s.entityManager.RemoveMarkedEntities()
}

// Flip 切换家具水平翻转
func (s *FurnitureSystem) Flip(id ecs.EntityID) bool {
	f, ok := s.Furniture(id)
	if !ok {
		return false
	}
	f.Flip = !f.Flip
	if sprite, ok := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id); ok {
		sprite.FlipX = f.Flip
	}
	return f.Flip
}

// ZIndex 返回家具的图层内排序值
func (s *FurnitureSystem) ZIndex(id ecs.EntityID) int {
	se, ok := ecs.GetComponent[*components.SceneEntityComponent](s.entityManager, id)
	if !ok {
		return 0
	}
	return se.ZIndex
}

// SetZIndex 设置家具的图层内排序值
func (s *FurnitureSystem) SetZIndex(id ecs.EntityID, z int) {
	se, ok := ecs.GetComponent[*components.SceneEntityComponent](s.entityManager, id)
	if !ok {
		return
	}
	se.ZIndex = z
	if z > s.topZ {
		s.topZ = z
	}
}

// HitTest 返回地图坐标点下最上层的已提交家具
func (s *FurnitureSystem) HitTest(p utils.Point) (ecs.EntityID, bool) {
	var (
		hit   ecs.EntityID
		found bool
		bestZ int
	)
	for _, id := range ecs.GetEntitiesWith1[*components.FurnitureComponent](s.entityManager) {
		f, _ := s.Furniture(id)
		if !f.Committed || f.Dragging {
			continue
		}
		rect, _ := s.Bounds(id)
		if !rect.Contains(p) {
			continue
		}
		z := s.ZIndex(id)
		if !found || z >= bestZ {
			hit, bestZ, found = id, z, true
		}
	}
	return hit, found
}

// Bounds 返回家具的显示矩形（地图坐标）
func (s *FurnitureSystem) Bounds(id ecs.EntityID) (utils.Rect, bool) {
	pos, ok := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
	if !ok {
		return utils.Rect{}, false
	}
	sprite, ok := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	if !ok {
		return utils.Rect{}, false
	}
	return utils.Rect{X: pos.X, Y: pos.Y, Width: sprite.Width, Height: sprite.Height}, true
}

// Entities 返回所有家具实体（按实体ID升序）
func (s *FurnitureSystem) Entities() []ecs.EntityID {
	return ecs.GetEntitiesWith1[*components.FurnitureComponent](s.entityManager)
}
