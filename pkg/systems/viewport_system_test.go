package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/ecs"
	"github.com/decker502/mshome/pkg/utils"
)

var testEdges = utils.Edges{Top: -1000, Right: 1000, Bottom: 1000, Left: -1000}

func newTestViewport(screenW, screenH, zoom float64) *ViewportSystem {
	return NewViewportSystem(ecs.NewEntityManager(),
		utils.Size{Width: screenW, Height: screenH},
		utils.Size{Width: 2000, Height: 2000},
		testEdges, zoom)
}

// TestViewportZoomBounds 缩放值始终位于 [1, max(地图/屏幕)] 之内
func TestViewportZoomBounds(t *testing.T) {
	tests := []struct {
		name    string
		screenW float64
		screenH float64
		wantMax float64
	}{
		{"宽屏", 1000, 500, 4},
		{"中等屏幕", 800, 800, 2.5},
		{"画布比地图大", 4000, 3000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := newTestViewport(tt.screenW, tt.screenH, 1)
			min, max := vs.ZoomRange()
			if min != config.ZoomMin {
				t.Errorf("min zoom = %v, want %v", min, config.ZoomMin)
			}
			if math.Abs(max-tt.wantMax) > 1e-9 {
				t.Errorf("max zoom = %v, want %v", max, tt.wantMax)
			}

			ratio := math.Max(2000/tt.screenW, 2000/tt.screenH)
			for _, z := range []float64{-5, 0, 0.5, 1, 1.7, 3, 100} {
				got := vs.SetZoom(z)
				if got < 1 || got > math.Max(1, ratio)+1e-9 {
					t.Errorf("SetZoom(%v) = %v, outside [1, %v]", z, got, ratio)
				}
			}
		})
	}
}

// TestViewportContainment 任意平移后可见矩形都在地图边界内
func TestViewportContainment(t *testing.T) {
	vs := newTestViewport(800, 600, 1.5)
	edges := testEdges.Rect()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			vs.Pan(utils.Point{X: rng.Float64()*4000 - 2000, Y: rng.Float64()*4000 - 2000})
		case 1:
			vs.SetZoom(rng.Float64() * 5)
		case 2:
			vs.MoveCenter(utils.Point{X: rng.Float64()*6000 - 3000, Y: rng.Float64()*6000 - 3000})
		}

		visible := vs.VisibleBounds()
		if !edges.ContainsRect(visible) {
			t.Fatalf("step %d: visible %+v escapes edges %+v", i, visible, edges)
		}

		// 可见范围小于边界的方向上，原始可见矩形本身就在边界内
		v := vs.Viewport()
		if w := v.ScreenWidth * v.Zoom; w < edges.Width {
			if v.CenterX-w/2 < edges.X-1e-9 || v.CenterX+w/2 > edges.Right()+1e-9 {
				t.Fatalf("step %d: horizontal span escapes edges, center=%v span=%v", i, v.CenterX, w)
			}
		}
	}
}

// TestViewportCenteredWhenLarger 可见范围大于地图时居中
func TestViewportCenteredWhenLarger(t *testing.T) {
	vs := newTestViewport(4000, 3000, 1)
	vs.MoveCenter(utils.Point{X: 500, Y: -700})
	if c := vs.Center(); c != (utils.Point{}) {
		t.Errorf("center = %+v, want origin", c)
	}
	if got := vs.VisibleBounds(); got != testEdges.Rect() {
		t.Errorf("visible = %+v, want edges %+v", got, testEdges.Rect())
	}
}

func TestViewportScreenWorldRoundTrip(t *testing.T) {
	vs := newTestViewport(800, 600, 2)
	vs.MoveCenter(utils.Point{X: 100, Y: -50})

	for _, p := range []utils.Point{{X: 0, Y: 0}, {X: 400, Y: 300}, {X: 799, Y: 1}} {
		w := vs.ScreenToWorld(p)
		back := vs.WorldToScreen(w)
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round trip %+v -> %+v -> %+v", p, w, back)
		}
	}

	// 画布中心对应视口中心
	if got := vs.ScreenToWorld(utils.Point{X: 400, Y: 300}); got != vs.Center() {
		t.Errorf("screen center maps to %+v, want %+v", got, vs.Center())
	}
}

// TestViewportResize 侧边栏打开后画布宽度 900 → 600，缩放范围重新计算
func TestViewportResize(t *testing.T) {
	vs := newTestViewport(900, 720, 1)
	_, before := vs.ZoomRange()

	width := utils.AppWidthFor(900, true, config.SideWidth)
	vs.Resize(width, 720)

	if got := vs.ScreenSize().Width; got != 600 {
		t.Errorf("screen width = %v, want 600", got)
	}
	_, after := vs.ZoomRange()
	if math.Abs(after-2000.0/600.0) > 1e-9 {
		t.Errorf("max zoom = %v, want %v", after, 2000.0/600.0)
	}
	if after <= before {
		t.Errorf("narrower canvas should allow zooming further out: before=%v after=%v", before, after)
	}
}

// TestViewportMovedCoalesced moved 事件每帧最多一次
func TestViewportMovedCoalesced(t *testing.T) {
	vs := newTestViewport(800, 600, 1)
	moved := 0
	vs.OnMoved = func(utils.Rect) { moved++ }

	vs.Flush()
	moved = 0

	// 一帧内多次平移与缩放
	vs.Pan(utils.Point{X: 10})
	vs.Pan(utils.Point{X: -4, Y: 3})
	vs.SetZoom(1.5)
	vs.HandleInput(utils.InputSnapshot{Pointer: utils.Point{X: 100, Y: 100}, WheelY: 1}, true)
	vs.Flush()
	if moved != 1 {
		t.Errorf("Expected 1 moved event, got %d", moved)
	}

	// 没有变化的帧不发送
	vs.Flush()
	if moved != 1 {
		t.Errorf("Expected no event for idle frame, got %d total", moved)
	}
}

// TestViewportWheelSettle 滚轮静止后发送一次 zoom-settled
func TestViewportWheelSettle(t *testing.T) {
	vs := newTestViewport(800, 600, 2)
	settled := []float64{}
	vs.OnZoomSettled = func(z float64) { settled = append(settled, z) }

	pointer := utils.Point{X: 400, Y: 300}
	vs.HandleInput(utils.InputSnapshot{Pointer: pointer, WheelY: 1}, true)
	vs.HandleInput(utils.InputSnapshot{Pointer: pointer, WheelY: 1}, true)

	for i := 0; i < config.WheelSettleFrames-1; i++ {
		vs.HandleInput(utils.InputSnapshot{Pointer: pointer}, true)
	}
	if len(settled) != 0 {
		t.Fatalf("zoom-settled fired early: %v", settled)
	}

	vs.HandleInput(utils.InputSnapshot{Pointer: pointer}, true)
	if len(settled) != 1 {
		t.Fatalf("Expected 1 zoom-settled event, got %d", len(settled))
	}
	want := 2 / (config.WheelZoomStep * config.WheelZoomStep)
	if math.Abs(settled[0]-want) > 1e-9 {
		t.Errorf("settled zoom = %v, want %v", settled[0], want)
	}

	for i := 0; i < 2*config.WheelSettleFrames; i++ {
		vs.HandleInput(utils.InputSnapshot{Pointer: pointer}, true)
	}
	if len(settled) != 1 {
		t.Errorf("zoom-settled should fire once per gesture, got %d", len(settled))
	}
}

// TestViewportWheelAnchor 滚轮缩放保持指针下的地图坐标不变
func TestViewportWheelAnchor(t *testing.T) {
	vs := newTestViewport(800, 600, 2)
	pointer := utils.Point{X: 500, Y: 250}
	before := vs.ScreenToWorld(pointer)

	vs.HandleInput(utils.InputSnapshot{Pointer: pointer, WheelY: 1}, true)

	after := vs.ScreenToWorld(pointer)
	if before.Distance(after) > 1e-6 {
		t.Errorf("anchor moved: before=%+v after=%+v", before, after)
	}
}

// TestViewportPinch 双指张开放大，抬起后发送 zoom-settled
func TestViewportPinch(t *testing.T) {
	vs := newTestViewport(800, 600, 2)
	settled := 0
	vs.OnZoomSettled = func(float64) { settled++ }

	vs.HandleInput(utils.InputSnapshot{Touches: []utils.Point{{X: 300, Y: 300}, {X: 500, Y: 300}}}, true)
	vs.HandleInput(utils.InputSnapshot{Touches: []utils.Point{{X: 200, Y: 300}, {X: 600, Y: 300}}}, true)

	if got := vs.Zoom(); math.Abs(got-1) > 1e-9 {
		t.Errorf("zoom after doubling finger distance = %v, want 1", got)
	}
	if settled != 0 {
		t.Fatal("zoom-settled should wait for pinch end")
	}

	vs.HandleInput(utils.InputSnapshot{}, true)
	if settled != 1 {
		t.Errorf("Expected zoom-settled on pinch end, got %d", settled)
	}
}

// TestViewportDragPan 拖动平移，禁用平移时不移动
func TestViewportDragPan(t *testing.T) {
	vs := newTestViewport(800, 600, 1)
	start := vs.Center()

	vs.HandleInput(utils.InputSnapshot{Pointer: utils.Point{X: 400, Y: 300}, Pressed: true, JustPressed: true}, true)
	vs.HandleInput(utils.InputSnapshot{Pointer: utils.Point{X: 380, Y: 290}, Pressed: true}, true)

	got := vs.Center()
	if got.X != start.X+20 || got.Y != start.Y+10 {
		t.Errorf("center after drag = %+v, want %+v", got, utils.Point{X: start.X + 20, Y: start.Y + 10})
	}

	vs.HandleInput(utils.InputSnapshot{Pointer: utils.Point{X: 300, Y: 200}, Pressed: true}, false)
	if vs.Center() != got {
		t.Error("pan disabled should not move the viewport")
	}
}
