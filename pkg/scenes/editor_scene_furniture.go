package scenes

import (
	"fmt"
	"log"

	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/ecs"
	"github.com/decker502/mshome/pkg/game"
	"github.com/decker502/mshome/pkg/utils"
)

// PlaceNewFurniture 进入放置模式：新建家具并跟随指针
//
// 已有未提交的家具时先取消它（发出一次 FurnitureCancelPlace）。
// 指针在画布内松开且位置合法时提交并发出 FurnitureUpdate；位置不合法时继续放置。
//
// 参数:
//   - furnitureID: 家具定义ID
//
// 返回:
//   - error: 家具定义不存在时返回包装 config.ErrContent 的错误
func (s *EditorScene) PlaceNewFurniture(furnitureID string) error {
	if !s.ready("PlaceNewFurniture") {
		return nil
	}
	def, err := s.catalog.FurnitureDef(furnitureID)
	if err != nil {
		return fmt.Errorf("place furniture: %w", err)
	}

	if s.session.placing != "" {
		s.CancelPlacement()
	}
	s.abortDrag()

	fs := s.session.furniture
	id, err := fs.Spawn(def, "", true)
	if err != nil {
		return fmt.Errorf("place furniture %s: %w", furnitureID, err)
	}
	f, _ := fs.Furniture(id)
	s.session.placing = f.InstanceID

	// 初始位置为视口中心
	center := s.session.viewport.Center()
	fs.MoveTo(id, center.Sub(utils.Point{X: def.Width / 2, Y: def.Height / 2}))

	log.Printf("[EditorScene] Placing %s (%s)", f.InstanceID, furnitureID)
	return nil
}

// CancelPlacement 取消正在放置的家具
//
// 家具实体被销毁，不留任何网格占用，并发出一次 FurnitureCancelPlace。
// 没有正在放置的家具时什么也不做。
func (s *EditorScene) CancelPlacement() {
	if s.session == nil || s.session.placing == "" {
		return
	}
	instanceID := s.session.placing
	s.session.placing = ""
	if id, ok := s.session.furniture.Find(instanceID); ok {
		s.session.furniture.Destroy(id)
	}
	s.events.Emit(game.FurnitureCancelPlace{})
	log.Printf("[EditorScene] Cancelled placement of %s", instanceID)
}

// Placing 返回正在放置的家具实例ID
func (s *EditorScene) Placing() (string, bool) {
	if s.session == nil || s.session.placing == "" {
		return "", false
	}
	return s.session.placing, true
}

// InitialFurniture 恢复已保存的家具（不进入放置模式，不发出事件）
//
// 每张地图只能调用一次。所有记录先校验家具定义，任何一条引用了不存在的家具时
// 整体放弃；位置已被占用或不在网格上的记录会被跳过并记录日志。
//
// 返回:
//   - error: 重复调用返回 ErrFurnitureRestored；家具定义不存在时返回内容错误
func (s *EditorScene) InitialFurniture(records []game.FurnitureRecord) error {
	if !s.ready("InitialFurniture") {
		return nil
	}
	if s.session.restored {
		return ErrFurnitureRestored
	}

	defs := make([]*config.FurnitureDefinition, len(records))
	for i, r := range records {
		def, err := s.catalog.FurnitureDef(r.FurnitureID)
		if err != nil {
			return fmt.Errorf("restore furniture %s: %w", r.ID, err)
		}
		defs[i] = def
	}
	s.session.restored = true

	fs := s.session.furniture
	restored := 0
	for i, r := range records {
		id, err := fs.Spawn(defs[i], r.ID, false)
		if err != nil {
			log.Printf("[EditorScene] Skipping furniture %s: %v", r.ID, err)
			continue
		}
		fs.MoveTo(id, r.Position())
		if err := fs.Commit(id); err != nil || fs.Position(id) != r.Position() {
			log.Printf("[EditorScene] Skipping furniture %s at (%.0f, %.0f): cells not available", r.ID, r.X, r.Y)
			fs.Destroy(id)
			continue
		}
		if r.Flip {
			fs.Flip(id)
		}
		// 保存的层级可以是 0 或负数（置底），必须原样恢复
		fs.SetZIndex(id, r.ZIndex)
		restored++
	}

	s.session.minimap.Invalidate()
	log.Printf("[EditorScene] Restored %d/%d furniture", restored, len(records))
	return nil
}

// FurnitureCount 返回当前地图上的家具数量（包括放置中的）
func (s *EditorScene) FurnitureCount() int {
	if s.session == nil {
		return 0
	}
	return s.session.furniture.Count()
}

// Selected 返回编辑模式下选中的家具实例ID
func (s *EditorScene) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// FlipFurniture 水平翻转家具，发出 FurnitureUpdate
func (s *EditorScene) FlipFurniture(instanceID string) error {
	id, err := s.committedFurniture(instanceID)
	if err != nil {
		return err
	}
	s.session.furniture.Flip(id)
	s.emitFurnitureUpdate(id)
	s.session.minimap.Invalidate()
	return nil
}

// DeleteFurniture 删除家具，释放格子并发出 FurnitureDelete
func (s *EditorScene) DeleteFurniture(instanceID string) error {
	id, err := s.committedFurniture(instanceID)
	if err != nil {
		return err
	}
	s.session.furniture.Destroy(id)
	if s.selected == instanceID {
		s.selected = ""
	}
	s.events.Emit(game.FurnitureDelete{ID: instanceID})
	s.session.minimap.Invalidate()
	return nil
}

// RaiseFurniture 把家具移到最上层，发出 ZIndexUpdate
func (s *EditorScene) RaiseFurniture(instanceID string) error {
	return s.restack(instanceID, true)
}

// LowerFurniture 把家具移到最下层，发出 ZIndexUpdate
func (s *EditorScene) LowerFurniture(instanceID string) error {
	return s.restack(instanceID, false)
}

func (s *EditorScene) restack(instanceID string, top bool) error {
	id, err := s.committedFurniture(instanceID)
	if err != nil {
		return err
	}
	fs := s.session.furniture

	lo, hi := fs.ZIndex(id), fs.ZIndex(id)
	for _, other := range fs.Entities() {
		z := fs.ZIndex(other)
		if z < lo {
			lo = z
		}
		if z > hi {
			hi = z
		}
	}

	z := hi + 1
	if !top {
		z = lo - 1
	}
	fs.SetZIndex(id, z)
	s.events.Emit(game.ZIndexUpdate{ID: instanceID, ZIndex: z})
	s.session.minimap.Invalidate()
	return nil
}

// committedFurniture 查找已放下的家具（放置中或拖动中的家具不能被其他操作修改）
func (s *EditorScene) committedFurniture(instanceID string) (ecs.EntityID, error) {
	if s.session == nil {
		return 0, fmt.Errorf("furniture %s: %w", instanceID, ErrFurnitureNotFound)
	}
	id, ok := s.session.furniture.Find(instanceID)
	if !ok {
		return 0, fmt.Errorf("furniture %s: %w", instanceID, ErrFurnitureNotFound)
	}
	f, _ := s.session.furniture.Furniture(id)
	if !f.Committed || f.Dragging {
		return 0, fmt.Errorf("furniture %s is being moved: %w", instanceID, ErrFurnitureNotFound)
	}
	return id, nil
}

func (s *EditorScene) emitFurnitureUpdate(id ecs.EntityID) {
	f, ok := s.session.furniture.Furniture(id)
	if !ok {
		return
	}
	s.events.Emit(game.FurnitureUpdate{
		ID:          f.InstanceID,
		FurnitureID: f.FurnitureID,
		Position:    s.session.furniture.Position(id),
		Flip:        f.Flip,
	})
}

// handleFurnitureInput 处理家具的放置与拖动
//
// 返回 true 表示指针被家具占用，本帧不允许平移视口。
func (s *EditorScene) handleFurnitureInput(input utils.InputSnapshot) bool {
	ss := s.session
	fs := ss.furniture
	world := ss.viewport.ScreenToWorld(input.Pointer)

	if ss.placing != "" {
		id, ok := fs.Find(ss.placing)
		if !ok {
			ss.placing = ""
			return false
		}
		if input.IsPinching() || !s.insideCanvas(input.Pointer) {
			return true
		}
		rect, _ := fs.Bounds(id)
		fs.MoveTo(id, world.Sub(utils.Point{X: rect.Width / 2, Y: rect.Height / 2}))
		if input.JustReleased {
			s.commitPlacement(id)
		}
		return true
	}

	if !s.editMode {
		return false
	}
	if input.IsPinching() {
		s.abortDrag()
		return false
	}

	if input.JustPressed {
		ss.pressed = ""
		if id, ok := fs.HitTest(world); ok {
			f, _ := fs.Furniture(id)
			ss.pressed = f.InstanceID
		} else {
			s.selected = ""
		}
	}
	if ss.pressed == "" {
		return false
	}
	id, ok := fs.Find(ss.pressed)
	if !ok {
		ss.pressed, ss.dragging = "", ""
		ss.pointer.Reset()
		return false
	}

	ss.pointer.Update(input)
	if ss.pointer.JustStarted() {
		if fs.PickUp(id, ss.viewport.ScreenToWorld(ss.pointer.Start())) {
			ss.dragging = ss.pressed
			s.selected = ss.pressed
		}
	}
	if ss.dragging != "" && ss.pointer.IsDragging() {
		f, _ := fs.Furniture(id)
		fs.MoveTo(id, world.Sub(utils.Point{X: f.GrabOffsetX, Y: f.GrabOffsetY}))
	}
	if ss.pointer.JustEnded() {
		if ss.dragging != "" {
			s.dropDragged(id)
		} else if ss.pointer.EndedAsClick() {
			s.selected = ss.pressed
		}
		ss.pressed = ""
	}
	return true
}

// commitPlacement 放下放置中的家具；位置不合法时保持放置状态
func (s *EditorScene) commitPlacement(id ecs.EntityID) {
	fs := s.session.furniture
	f, _ := fs.Furniture(id)
	if !f.Valid {
		return
	}
	if err := fs.Commit(id); err != nil {
		log.Printf("[EditorScene] Failed to place %s: %v", f.InstanceID, err)
		return
	}
	s.session.placing = ""
	s.emitFurnitureUpdate(id)
	s.session.minimap.Invalidate()
	log.Printf("[EditorScene] Placed %s at %+v", f.InstanceID, fs.Position(id))
}

// dropDragged 放下拖动中的家具，位置不合法时恢复原位
func (s *EditorScene) dropDragged(id ecs.EntityID) {
	fs := s.session.furniture
	s.session.dragging = ""
	f, _ := fs.Furniture(id)
	if f.Valid {
		if err := fs.Commit(id); err == nil {
			s.emitFurnitureUpdate(id)
			s.session.minimap.Invalidate()
			return
		}
	}
	fs.Revert(id)
}

// abortDrag 放弃正在进行的拖动，家具恢复原位
func (s *EditorScene) abortDrag() {
	if s.session == nil {
		return
	}
	ss := s.session
	if ss.dragging != "" {
		if id, ok := ss.furniture.Find(ss.dragging); ok {
			ss.furniture.Revert(id)
		}
	}
	ss.dragging, ss.pressed = "", ""
	ss.pointer.Reset()
}
