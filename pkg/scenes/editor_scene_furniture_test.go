package scenes

import (
	"errors"
	"testing"

	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/game"
	"github.com/decker502/mshome/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
)

// 画布 1200x600、缩放 1、中心为原点时，画布坐标 (600+x, 300+y) 对应地图坐标 (x, y)
func screenAt(x, y float64) utils.Point {
	return utils.Point{X: 600 + x, Y: 300 + y}
}

func press(p utils.Point) utils.InputSnapshot {
	return utils.InputSnapshot{Pointer: p, Pressed: true, JustPressed: true}
}

func hold(p utils.Point) utils.InputSnapshot {
	return utils.InputSnapshot{Pointer: p, Pressed: true}
}

func release(p utils.Point) utils.InputSnapshot {
	return utils.InputSnapshot{Pointer: p, JustReleased: true}
}

func furniturePosition(t *testing.T, s *EditorScene, instanceID string) utils.Point {
	t.Helper()
	id, ok := s.session.furniture.Find(instanceID)
	if !ok {
		t.Fatalf("furniture %s not found", instanceID)
	}
	return s.session.furniture.Position(id)
}

// TestPlaceThenCancel 放置后取消：发出一次取消事件，不留网格占用
func TestPlaceThenCancel(t *testing.T) {
	s := newLoadedScene(t, "1")

	if err := s.PlaceNewFurniture("chair"); err != nil {
		t.Fatalf("PlaceNewFurniture failed: %v", err)
	}
	instanceID, ok := s.Placing()
	if !ok {
		t.Fatal("scene should be placing")
	}
	if s.FurnitureCount() != 1 {
		t.Errorf("FurnitureCount = %d, want 1", s.FurnitureCount())
	}

	s.CancelPlacement()
	s.CancelPlacement()

	if _, ok := s.Placing(); ok {
		t.Error("placement should be cancelled")
	}
	if _, ok := s.session.furniture.Find(instanceID); ok || s.FurnitureCount() != 0 {
		t.Error("cancelled furniture should be removed")
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if x == 1 && y == 1 {
				continue
			}
			if s.Grid().IsOccupied("main", x, y, false) {
				t.Errorf("cell (%d,%d) should be free after cancel", x, y)
			}
		}
	}

	events := s.Events().Drain()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if _, ok := events[0].(game.FurnitureCancelPlace); !ok {
		t.Errorf("event = %T, want FurnitureCancelPlace", events[0])
	}
}

// TestPlaceReplacesPending 新的放置替换未提交的放置
func TestPlaceReplacesPending(t *testing.T) {
	s := newLoadedScene(t, "1")

	if err := s.PlaceNewFurniture("chair"); err != nil {
		t.Fatalf("PlaceNewFurniture(chair) failed: %v", err)
	}
	first, _ := s.Placing()
	if err := s.PlaceNewFurniture("bed"); err != nil {
		t.Fatalf("PlaceNewFurniture(bed) failed: %v", err)
	}
	second, _ := s.Placing()

	if first == second {
		t.Error("replacement should get a new instance ID")
	}
	if s.FurnitureCount() != 1 {
		t.Errorf("FurnitureCount = %d, want 1", s.FurnitureCount())
	}
	if cancels := eventsOf[game.FurnitureCancelPlace](s.Events().Drain()); len(cancels) != 1 {
		t.Errorf("expected one cancel, got %d", len(cancels))
	}
}

func TestPlaceNewFurnitureErrors(t *testing.T) {
	empty := newTestScene(t)
	if err := empty.PlaceNewFurniture("chair"); err != nil {
		t.Errorf("PlaceNewFurniture without map = %v, want nil", err)
	}

	s := newLoadedScene(t, "1")
	err := s.PlaceNewFurniture("ghost")
	if !errors.Is(err, config.ErrContent) {
		t.Errorf("PlaceNewFurniture(ghost) = %v, want ErrContent", err)
	}
	if _, ok := s.Placing(); ok {
		t.Error("unknown furniture must not enter placement")
	}
}

// TestPlacementWithPointer 放置中的家具跟随指针并吸附到格子
func TestPlacementWithPointer(t *testing.T) {
	s := newLoadedScene(t, "1")
	if err := s.PlaceNewFurniture("chair"); err != nil {
		t.Fatalf("PlaceNewFurniture failed: %v", err)
	}
	instanceID, _ := s.Placing()

	tests := []struct {
		name    string
		input   utils.InputSnapshot
		wantPos utils.Point
		placing bool
	}{
		{"跟随指针并吸附", hold(screenAt(103, 17)), utils.Point{X: 80, Y: 0}, true},
		{"画布外不移动", utils.InputSnapshot{Pointer: utils.Point{X: -5, Y: 10}}, utils.Point{X: 80, Y: 0}, true},
		{"禁用格子上松开保持放置", release(screenAt(60, 60)), utils.Point{X: 40, Y: 40}, true},
		{"合法位置松开后放下", release(screenAt(20, 20)), utils.Point{X: 0, Y: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.HandleInput(tt.input)
			if got := furniturePosition(t, s, instanceID); got != tt.wantPos {
				t.Errorf("position = %+v, want %+v", got, tt.wantPos)
			}
			if _, placing := s.Placing(); placing != tt.placing {
				t.Errorf("placing = %v, want %v", placing, tt.placing)
			}
		})
	}

	if !s.Grid().IsOccupied("main", 0, 0, false) {
		t.Error("cell (0,0) should be occupied after commit")
	}
	if s.Grid().IsOccupied("main", 0, 0, true) {
		t.Error("normal furniture must not occupy the well array")
	}
	if c := s.Viewport().Center(); c != (utils.Point{}) {
		t.Errorf("placement must not pan the viewport, center = %+v", c)
	}

	updates := eventsOf[game.FurnitureUpdate](s.Events().Drain())
	if len(updates) != 1 {
		t.Fatalf("expected one FurnitureUpdate, got %d", len(updates))
	}
	want := game.FurnitureUpdate{ID: instanceID, FurnitureID: "chair", Position: utils.Point{}}
	if updates[0] != want {
		t.Errorf("FurnitureUpdate = %+v, want %+v", updates[0], want)
	}
}

// TestEscapeCancelsPlacement Escape 取消放置
func TestEscapeCancelsPlacement(t *testing.T) {
	s := newLoadedScene(t, "1")
	if err := s.PlaceNewFurniture("bed"); err != nil {
		t.Fatalf("PlaceNewFurniture failed: %v", err)
	}

	s.HandleInput(utils.InputSnapshot{Pointer: screenAt(0, 0), Keys: []ebiten.Key{ebiten.KeyEscape}})

	if _, ok := s.Placing(); ok {
		t.Error("Escape should cancel placement")
	}
	if cancels := eventsOf[game.FurnitureCancelPlace](s.Events().Drain()); len(cancels) != 1 {
		t.Errorf("expected one cancel, got %d", len(cancels))
	}
}

// TestMapSwitchCancelsPlacement 切换地图时未提交的放置视为取消
func TestMapSwitchCancelsPlacement(t *testing.T) {
	s := newLoadedScene(t, "1")
	if err := s.PlaceNewFurniture("chair"); err != nil {
		t.Fatalf("PlaceNewFurniture failed: %v", err)
	}
	if err := s.ChangeHomeMap("3"); err != nil {
		t.Fatalf("ChangeHomeMap(3) failed: %v", err)
	}

	if _, ok := s.Placing(); ok {
		t.Error("placement should not survive a map switch")
	}
	if s.FurnitureCount() != 0 {
		t.Errorf("FurnitureCount = %d, want 0", s.FurnitureCount())
	}
	if cancels := eventsOf[game.FurnitureCancelPlace](s.Events().Drain()); len(cancels) != 1 {
		t.Errorf("expected one cancel, got %d", len(cancels))
	}
}

// TestInitialFurniture 恢复已保存的家具
func TestInitialFurniture(t *testing.T) {
	s := newLoadedScene(t, "1")

	records := []game.FurnitureRecord{
		{ID: "a", FurnitureID: "bed", X: 0, Y: 0, ZIndex: 5},
		{ID: "b", FurnitureID: "chair", X: 40, Y: 0},
		{ID: "c", FurnitureID: "sofa", X: 40, Y: 0, Flip: true},
		{ID: "d", FurnitureID: "chair", X: 500, Y: 500},
	}
	if err := s.InitialFurniture(records); err != nil {
		t.Fatalf("InitialFurniture failed: %v", err)
	}

	// b 与 a 重叠、d 不在网格上，都被跳过；c 是井格家具，与 a 不冲突
	if s.FurnitureCount() != 2 {
		t.Errorf("FurnitureCount = %d, want 2", s.FurnitureCount())
	}
	for _, id := range []string{"b", "d"} {
		if _, ok := s.session.furniture.Find(id); ok {
			t.Errorf("furniture %s should be skipped", id)
		}
	}
	if _, ok := s.Placing(); ok {
		t.Error("restored furniture must not enter placement")
	}

	a, _ := s.session.furniture.Find("a")
	if z := s.session.furniture.ZIndex(a); z != 5 {
		t.Errorf("a z-index = %d, want 5", z)
	}
	c, _ := s.session.furniture.Find("c")
	if f, _ := s.session.furniture.Furniture(c); !f.Flip || !f.Committed {
		t.Errorf("c = %+v, want committed and flipped", f)
	}

	grid := s.Grid()
	if !grid.IsOccupied("main", 0, 0, false) || !grid.IsOccupied("main", 1, 0, false) {
		t.Error("bed cells should be occupied")
	}
	if grid.IsOccupied("main", 0, 0, true) || !grid.IsOccupied("main", 1, 0, true) {
		t.Error("only the sofa cell should be occupied in the well array")
	}

	if n := s.Events().Len(); n != 0 {
		t.Errorf("restore should not emit events, got %d", n)
	}

	if err := s.InitialFurniture(records); !errors.Is(err, ErrFurnitureRestored) {
		t.Errorf("second InitialFurniture = %v, want ErrFurnitureRestored", err)
	}
	if s.FurnitureCount() != 2 {
		t.Error("second call must not change the scene")
	}
}

// TestInitialFurnitureUnknown 引用不存在的家具时整体放弃
func TestInitialFurnitureUnknown(t *testing.T) {
	s := newLoadedScene(t, "1")

	err := s.InitialFurniture([]game.FurnitureRecord{
		{ID: "a", FurnitureID: "bed"},
		{ID: "x", FurnitureID: "ghost", X: 80},
	})
	if !errors.Is(err, config.ErrContent) {
		t.Fatalf("InitialFurniture = %v, want ErrContent", err)
	}
	if s.FurnitureCount() != 0 {
		t.Errorf("nothing should be restored, got %d", s.FurnitureCount())
	}

	if err := s.InitialFurniture([]game.FurnitureRecord{{ID: "a", FurnitureID: "bed"}}); err != nil {
		t.Errorf("retry with valid records failed: %v", err)
	}

	// 新地图可以再次恢复
	if err := s.ChangeHomeMap("3"); err != nil {
		t.Fatalf("ChangeHomeMap(3) failed: %v", err)
	}
	if err := s.InitialFurniture([]game.FurnitureRecord{{ID: "a", FurnitureID: "chair", X: -80, Y: -80}}); err != nil {
		t.Errorf("InitialFurniture on a new map failed: %v", err)
	}
	if s.FurnitureCount() != 1 {
		t.Errorf("FurnitureCount = %d, want 1", s.FurnitureCount())
	}
}

// TestDragCommittedFurniture 编辑模式下拖动已放置的家具
func TestDragCommittedFurniture(t *testing.T) {
	s := newLoadedScene(t, "1")
	if err := s.InitialFurniture([]game.FurnitureRecord{{ID: "a", FurnitureID: "chair"}}); err != nil {
		t.Fatalf("InitialFurniture failed: %v", err)
	}

	s.HandleInput(press(screenAt(20, 20)))
	s.HandleInput(hold(screenAt(100, 20)))
	if got := furniturePosition(t, s, "a"); got != (utils.Point{X: 80, Y: 0}) {
		t.Errorf("dragging position = %+v, want (80, 0)", got)
	}
	if s.Grid().IsOccupied("main", 0, 0, false) {
		t.Error("picked up furniture should release its cell")
	}
	s.HandleInput(release(screenAt(100, 20)))

	grid := s.Grid()
	if grid.IsOccupied("main", 0, 0, false) || !grid.IsOccupied("main", 2, 0, false) {
		t.Error("furniture should move from cell (0,0) to (2,0)")
	}
	if c := s.Viewport().Center(); c != (utils.Point{}) {
		t.Errorf("dragging furniture must not pan the viewport, center = %+v", c)
	}
	if selected, _ := s.Selected(); selected != "a" {
		t.Errorf("Selected = %q, want a", selected)
	}

	updates := eventsOf[game.FurnitureUpdate](s.Events().Drain())
	if len(updates) != 1 || updates[0].Position != (utils.Point{X: 80, Y: 0}) {
		t.Errorf("FurnitureUpdate = %+v, want one at (80, 0)", updates)
	}
}

// TestDragRevertsOnInvalidDrop 放到禁用格子上时恢复原位
func TestDragRevertsOnInvalidDrop(t *testing.T) {
	s := newLoadedScene(t, "1")
	if err := s.InitialFurniture([]game.FurnitureRecord{{ID: "a", FurnitureID: "chair"}}); err != nil {
		t.Fatalf("InitialFurniture failed: %v", err)
	}

	s.HandleInput(press(screenAt(20, 20)))
	s.HandleInput(hold(screenAt(60, 60)))
	s.HandleInput(release(screenAt(60, 60)))

	if got := furniturePosition(t, s, "a"); got != (utils.Point{}) {
		t.Errorf("position = %+v, want reverted to origin", got)
	}
	if !s.Grid().IsOccupied("main", 0, 0, false) {
		t.Error("reverted furniture should occupy its cell again")
	}
	if n := s.Events().Len(); n != 0 {
		t.Errorf("invalid drop should not emit events, got %d", n)
	}
}

// TestPanOnEmptySpace 空白处拖动平移视口，编辑模式关闭时家具不能拖动
func TestPanOnEmptySpace(t *testing.T) {
	tests := []struct {
		name       string
		editMode   bool
		start      utils.Point
		wantCenter utils.Point
		wantPos    utils.Point
	}{
		{"空白处拖动平移", true, screenAt(-300, 0), utils.Point{X: -80, Y: 0}, utils.Point{}},
		{"家具上拖动不平移", true, screenAt(20, 20), utils.Point{}, utils.Point{X: 80, Y: 0}},
		{"非编辑模式拖动家具平移", false, screenAt(20, 20), utils.Point{X: -80, Y: 0}, utils.Point{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newLoadedScene(t, "1")
			if err := s.InitialFurniture([]game.FurnitureRecord{{ID: "a", FurnitureID: "chair"}}); err != nil {
				t.Fatalf("InitialFurniture failed: %v", err)
			}
			s.SetEditMode(tt.editMode)
			overlay := s.Minimap().Overlay()

			end := tt.start.Add(utils.Point{X: 80})
			s.HandleInput(press(tt.start))
			s.HandleInput(hold(end))
			s.HandleInput(release(end))

			if c := s.Viewport().Center(); c != tt.wantCenter {
				t.Errorf("center = %+v, want %+v", c, tt.wantCenter)
			}
			if got := furniturePosition(t, s, "a"); got != tt.wantPos {
				t.Errorf("furniture position = %+v, want %+v", got, tt.wantPos)
			}
			if moved := s.Minimap().Overlay() != overlay; moved != (tt.wantCenter != utils.Point{}) {
				t.Errorf("minimap overlay moved = %v", moved)
			}
		})
	}
}

// TestFurnitureCommands 翻转、层级、删除
func TestFurnitureCommands(t *testing.T) {
	s := newLoadedScene(t, "1")
	err := s.InitialFurniture([]game.FurnitureRecord{
		{ID: "a", FurnitureID: "bed", ZIndex: 1},
		{ID: "c", FurnitureID: "sofa", X: 40, ZIndex: 2},
	})
	if err != nil {
		t.Fatalf("InitialFurniture failed: %v", err)
	}
	a, _ := s.session.furniture.Find("a")
	c, _ := s.session.furniture.Find("c")
	zc := s.session.furniture.ZIndex(c)
	if za := s.session.furniture.ZIndex(a); za >= zc {
		t.Fatalf("restore order: z(a)=%d should be below z(c)=%d", za, zc)
	}

	if err := s.FlipFurniture("a"); err != nil {
		t.Fatalf("FlipFurniture failed: %v", err)
	}
	if err := s.RaiseFurniture("a"); err != nil {
		t.Fatalf("RaiseFurniture failed: %v", err)
	}
	if err := s.LowerFurniture("c"); err != nil {
		t.Fatalf("LowerFurniture failed: %v", err)
	}
	if err := s.DeleteFurniture("a"); err != nil {
		t.Fatalf("DeleteFurniture failed: %v", err)
	}

	events := s.Events().Drain()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	if e, ok := events[0].(game.FurnitureUpdate); !ok || e.ID != "a" || !e.Flip {
		t.Errorf("events[0] = %+v, want flipped update of a", events[0])
	}
	if e, ok := events[1].(game.ZIndexUpdate); !ok || e.ID != "a" || e.ZIndex != zc+1 {
		t.Errorf("events[1] = %+v, want a raised to %d", events[1], zc+1)
	}
	if e, ok := events[2].(game.ZIndexUpdate); !ok || e.ID != "c" || e.ZIndex != zc-1 {
		t.Errorf("events[2] = %+v, want c lowered to %d", events[2], zc-1)
	}
	if e, ok := events[3].(game.FurnitureDelete); !ok || e.ID != "a" {
		t.Errorf("events[3] = %+v, want delete of a", events[3])
	}

	if s.Grid().IsOccupied("main", 0, 0, false) || s.Grid().IsOccupied("main", 1, 0, false) {
		t.Error("deleted furniture should release its cells")
	}
	if !s.Grid().IsOccupied("main", 1, 0, true) {
		t.Error("sofa should keep its well cell")
	}

	if err := s.FlipFurniture("a"); !errors.Is(err, ErrFurnitureNotFound) {
		t.Errorf("FlipFurniture(deleted) = %v, want ErrFurnitureNotFound", err)
	}

	// 放置中的家具不能被其他命令修改
	if err := s.PlaceNewFurniture("chair"); err != nil {
		t.Fatalf("PlaceNewFurniture failed: %v", err)
	}
	placing, _ := s.Placing()
	if err := s.DeleteFurniture(placing); !errors.Is(err, ErrFurnitureNotFound) {
		t.Errorf("DeleteFurniture(placing) = %v, want ErrFurnitureNotFound", err)
	}
}

// TestSelectByClick 单击选中家具，点击空白处取消选中
func TestSelectByClick(t *testing.T) {
	s := newLoadedScene(t, "1")
	if err := s.InitialFurniture([]game.FurnitureRecord{{ID: "a", FurnitureID: "chair"}}); err != nil {
		t.Fatalf("InitialFurniture failed: %v", err)
	}

	s.HandleInput(press(screenAt(10, 10)))
	s.HandleInput(release(screenAt(10, 10)))
	if selected, ok := s.Selected(); !ok || selected != "a" {
		t.Errorf("Selected = %q, want a", selected)
	}
	s.Draw(ebiten.NewImage(1200, 780))

	s.HandleInput(press(screenAt(-300, -200)))
	s.HandleInput(release(screenAt(-300, -200)))
	if _, ok := s.Selected(); ok {
		t.Error("clicking empty space should clear the selection")
	}

	s.HandleInput(press(screenAt(10, 10)))
	s.HandleInput(release(screenAt(10, 10)))
	s.SetEditMode(false)
	if _, ok := s.Selected(); ok {
		t.Error("leaving edit mode should clear the selection")
	}
}

// TestLayoutRoundTripKeepsStacking 置底后的层级（0 或负数）保存再恢复后顺序不变
func TestLayoutRoundTripKeepsStacking(t *testing.T) {
	s := newLoadedScene(t, "1")
	store := game.NewLayoutStore(nil)
	if err := store.Open("1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s.Events().Subscribe(store.Apply)

	var ids []string
	for _, x := range []float64{20, 60, 100} {
		if err := s.PlaceNewFurniture("chair"); err != nil {
			t.Fatalf("PlaceNewFurniture failed: %v", err)
		}
		instanceID, _ := s.Placing()
		s.HandleInput(release(screenAt(x, 20)))
		if _, placing := s.Placing(); placing {
			t.Fatalf("chair at x=%v should be committed", x)
		}
		ids = append(ids, instanceID)
	}
	a, b, c := ids[0], ids[1], ids[2]

	if err := s.LowerFurniture(c); err != nil {
		t.Fatalf("LowerFurniture(%s) failed: %v", c, err)
	}
	if err := s.LowerFurniture(b); err != nil {
		t.Fatalf("LowerFurniture(%s) failed: %v", b, err)
	}

	records := store.Records()
	var order []string
	for _, r := range records {
		order = append(order, r.ID)
	}
	if len(order) != 3 || order[0] != b || order[1] != c || order[2] != a {
		t.Fatalf("saved order = %v, want [%s %s %s]", order, b, c, a)
	}

	// 切换到其他地图再回来，开始新的地图会话
	if err := s.ChangeHomeMap("3"); err != nil {
		t.Fatalf("ChangeHomeMap(3) failed: %v", err)
	}
	if err := s.ChangeHomeMap("1"); err != nil {
		t.Fatalf("ChangeHomeMap(1) failed: %v", err)
	}
	if err := s.InitialFurniture(records); err != nil {
		t.Fatalf("InitialFurniture failed: %v", err)
	}

	z := func(instanceID string) int {
		id, ok := s.session.furniture.Find(instanceID)
		if !ok {
			t.Fatalf("furniture %s not restored", instanceID)
		}
		return s.session.furniture.ZIndex(id)
	}
	if !(z(b) < z(c) && z(c) < z(a)) {
		t.Errorf("restored z: %s=%d %s=%d %s=%d, want %s < %s < %s", b, z(b), c, z(c), a, z(a), b, c, a)
	}
	for _, r := range records {
		if got := z(r.ID); got != r.ZIndex {
			t.Errorf("%s z-index = %d, want saved %d", r.ID, got, r.ZIndex)
		}
	}
}

// TestTouchPlacement 手指拖动放置，抬起时在最后的触摸位置提交
func TestTouchPlacement(t *testing.T) {
	s := newLoadedScene(t, "1")
	if err := s.PlaceNewFurniture("chair"); err != nil {
		t.Fatalf("PlaceNewFurniture failed: %v", err)
	}
	instanceID, _ := s.Placing()

	finger := screenAt(100, 20)
	s.HandleInput(utils.InputSnapshot{Pointer: finger, Pressed: true, JustPressed: true, Touches: []utils.Point{finger}})
	s.HandleInput(utils.InputSnapshot{Pointer: finger, Pressed: true, Touches: []utils.Point{finger}})
	// 抬起的那一帧没有触摸点，指针保持在最后的触摸位置
	s.HandleInput(utils.InputSnapshot{Pointer: finger, JustReleased: true})

	if _, placing := s.Placing(); placing {
		t.Fatal("touch release over a free cell should commit")
	}
	if got := furniturePosition(t, s, instanceID); got != (utils.Point{X: 80, Y: 0}) {
		t.Errorf("position = %+v, want {80 0}", got)
	}
	if updates := eventsOf[game.FurnitureUpdate](s.Events().Drain()); len(updates) != 1 {
		t.Errorf("expected one FurnitureUpdate, got %d", len(updates))
	}
}
