package systems

import (
	"log"
	"math"

	"github.com/decker502/mshome/pkg/components"
	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/ecs"
	"github.com/decker502/mshome/pkg/utils"
)

// ViewportSystem 管理主视图的镜头（平移 + 缩放）
//
// 缩放值表示每个屏幕像素对应的地图单位，范围：
//
//	[ZoomMin, max(ZoomMin, min(maxZoomScale, ZoomMax))]
//	maxZoomScale = max(地图宽/屏幕宽, 地图高/屏幕高)
//
// 平移限制：某个方向上可见范围小于地图边界时，中心点被限制在边界内，
// 保证可见矩形不超出边界；可见范围大于边界时该方向居中，超出部分由遮罩裁剪。
//
// 事件：
//   - OnMoved: 平移或缩放后触发，每帧最多一次（在 Flush 中发送）
//   - OnZoomSettled: 缩放手势结束后触发一次（滚轮静止 WheelSettleFrames 帧，或双指抬起）
type ViewportSystem struct {
	entityManager  *ecs.EntityManager
	viewportEntity ecs.EntityID
	drag           *utils.DragTracker

	OnMoved       func(visible utils.Rect)
	OnZoomSettled func(zoom float64)
}

// NewViewportSystem 创建视口系统
// 参数:
//   - em: EntityManager 实例
//   - screen: 画布尺寸（像素）
//   - world: 地图尺寸
//   - edges: 地图可视边界
//   - zoom: 初始缩放值（会被限制在允许范围内）
func NewViewportSystem(em *ecs.EntityManager, screen, world utils.Size, edges utils.Edges, zoom float64) *ViewportSystem {
	vs := &ViewportSystem{
		entityManager: em,
		drag:          utils.NewDragTracker(utils.DefaultDragThreshold),
	}

	vs.viewportEntity = em.CreateEntity()
	ecs.AddComponent(em, vs.viewportEntity, &components.ViewportComponent{
		ScreenWidth:  screen.Width,
		ScreenHeight: screen.Height,
		WorldWidth:   world.Width,
		WorldHeight:  world.Height,
		Edges:        edges,
		Zoom:         zoom,
		CenterX:      (edges.Left + edges.Right) / 2,
		CenterY:      (edges.Top + edges.Bottom) / 2,
	})

	v := vs.Viewport()
	vs.updateZoomBounds(v)
	v.Zoom = utils.Clamp(zoom, v.MinZoom, v.MaxZoom)
	vs.clampCenter(v)
	v.Dirty = true

	log.Printf("[ViewportSystem] Created: screen=%.0fx%.0f world=%.0fx%.0f zoom=%.3f range=[%.3f, %.3f]",
		screen.Width, screen.Height, world.Width, world.Height, v.Zoom, v.MinZoom, v.MaxZoom)
	return vs
}

// Viewport 返回视口组件
func (vs *ViewportSystem) Viewport() *components.ViewportComponent {
	v, _ := ecs.GetComponent[*components.ViewportComponent](vs.entityManager, vs.viewportEntity)
	return v
}

// Zoom 返回当前缩放值
func (vs *ViewportSystem) Zoom() float64 {
	return vs.Viewport().Zoom
}

// ZoomRange 返回当前允许的缩放范围
func (vs *ViewportSystem) ZoomRange() (min, max float64) {
	v := vs.Viewport()
	return v.MinZoom, v.MaxZoom
}

// SetZoom 设置缩放值（限制范围后以当前中心为锚点）
// 返回实际应用的缩放值
func (vs *ViewportSystem) SetZoom(zoom float64) float64 {
	v := vs.Viewport()
	applied := utils.Clamp(zoom, v.MinZoom, v.MaxZoom)
	if applied != v.Zoom {
		v.Zoom = applied
		v.Dirty = true
	}
	vs.clampCenter(v)
	return applied
}

// MoveCenter 将视口中心移动到地图坐标点（仅用于初始定位）
func (vs *ViewportSystem) MoveCenter(p utils.Point) {
	v := vs.Viewport()
	v.CenterX, v.CenterY = p.X, p.Y
	vs.clampCenter(v)
	v.Dirty = true
}

// Center 返回视口中心（地图坐标）
func (vs *ViewportSystem) Center() utils.Point {
	v := vs.Viewport()
	return utils.Point{X: v.CenterX, Y: v.CenterY}
}

// Resize 修改画布尺寸并重新计算缩放范围
func (vs *ViewportSystem) Resize(width, height float64) {
	v := vs.Viewport()
	v.ScreenWidth, v.ScreenHeight = width, height
	vs.updateZoomBounds(v)
	v.Zoom = utils.Clamp(v.Zoom, v.MinZoom, v.MaxZoom)
	vs.clampCenter(v)
	v.Dirty = true

	log.Printf("[ViewportSystem] Resized to %.0fx%.0f, zoom range [%.3f, %.3f]", width, height, v.MinZoom, v.MaxZoom)
}

// ScreenSize 返回画布尺寸
func (vs *ViewportSystem) ScreenSize() utils.Size {
	v := vs.Viewport()
	return utils.Size{Width: v.ScreenWidth, Height: v.ScreenHeight}
}

// Transform 返回地图坐标到画布坐标的变换
func (vs *ViewportSystem) Transform() utils.Transform {
	v := vs.Viewport()
	scale := 1 / v.Zoom
	return utils.Transform{
		Scale:   scale,
		OffsetX: v.ScreenWidth/2 - v.CenterX*scale,
		OffsetY: v.ScreenHeight/2 - v.CenterY*scale,
	}
}

// ScreenToWorld 画布坐标 → 地图坐标
func (vs *ViewportSystem) ScreenToWorld(p utils.Point) utils.Point {
	v := vs.Viewport()
	return utils.Point{
		X: v.CenterX + (p.X-v.ScreenWidth/2)*v.Zoom,
		Y: v.CenterY + (p.Y-v.ScreenHeight/2)*v.Zoom,
	}
}

// WorldToScreen 地图坐标 → 画布坐标
func (vs *ViewportSystem) WorldToScreen(p utils.Point) utils.Point {
	return vs.Transform().Apply(p)
}

// VisibleBounds 返回当前可见的地图矩形（与地图边界求交）
func (vs *ViewportSystem) VisibleBounds() utils.Rect {
	v := vs.Viewport()
	w := v.ScreenWidth * v.Zoom
	h := v.ScreenHeight * v.Zoom
	visible := utils.Rect{X: v.CenterX - w/2, Y: v.CenterY - h/2, Width: w, Height: h}
	return visible.Intersect(v.Edges.Rect())
}

// IsDragging 视口是否正被拖动
func (vs *ViewportSystem) IsDragging() bool {
	return vs.drag.IsDragging()
}

// HandleInput 处理一帧的输入
// 参数:
//   - input: 当前帧输入快照
//   - panEnabled: 是否允许拖动平移（指针正在操作家具时为 false）
func (vs *ViewportSystem) HandleInput(input utils.InputSnapshot, panEnabled bool) {
	v := vs.Viewport()

	// 双指缩放优先，期间不处理拖动
	if input.IsPinching() {
		vs.handlePinch(v, input.Touches[0], input.Touches[1])
		vs.drag.Reset()
		return
	}
	if v.PinchActive {
		v.PinchActive = false
		vs.settleZoom(v)
	}

	if input.WheelY != 0 {
		factor := math.Pow(config.WheelZoomStep, -input.WheelY)
		vs.zoomAt(v, input.Pointer, v.Zoom*factor)
		v.ZoomPending = true
		v.WheelIdleFrames = 0
	} else if v.ZoomPending {
		v.WheelIdleFrames++
		if v.WheelIdleFrames >= config.WheelSettleFrames {
			vs.settleZoom(v)
		}
	}

	if !panEnabled {
		vs.drag.Reset()
		return
	}
	vs.drag.Update(input)
	if vs.drag.IsDragging() {
		delta := vs.drag.Delta()
		if delta.X != 0 || delta.Y != 0 {
			vs.Pan(delta)
		}
	}
}

// Pan 按画布像素平移视口（内容跟随指针移动）
func (vs *ViewportSystem) Pan(screenDelta utils.Point) {
	v := vs.Viewport()
	v.CenterX -= screenDelta.X * v.Zoom
	v.CenterY -= screenDelta.Y * v.Zoom
	vs.clampCenter(v)
	v.Dirty = true
}

// Flush 发送本帧合并后的 moved 事件
// 每帧在所有输入处理完成后调用一次
func (vs *ViewportSystem) Flush() {
	v := vs.Viewport()
	if !v.Dirty {
		return
	}
	v.Dirty = false
	if vs.OnMoved != nil {
		vs.OnMoved(vs.VisibleBounds())
	}
}

// handlePinch 双指缩放，以两指中点为锚点
func (vs *ViewportSystem) handlePinch(v *components.ViewportComponent, a, b utils.Point) {
	dist := a.Distance(b)
	mid := a.Add(b).Scale(0.5)
	if !v.PinchActive {
		v.PinchActive = true
		v.PinchDistance = dist
		v.PinchStartZoom = v.Zoom
		return
	}
	if dist <= 0 || v.PinchDistance <= 0 {
		return
	}
	// 两指分开 → 放大（缩放值变小）
	vs.zoomAt(v, mid, v.PinchStartZoom*v.PinchDistance/dist)
	v.ZoomPending = true
}

// zoomAt 缩放并保持锚点下的地图坐标不变
func (vs *ViewportSystem) zoomAt(v *components.ViewportComponent, anchor utils.Point, zoom float64) {
	zoom = utils.Clamp(zoom, v.MinZoom, v.MaxZoom)
	if zoom == v.Zoom {
		return
	}
	world := vs.ScreenToWorld(anchor)
	v.Zoom = zoom
	v.CenterX = world.X - (anchor.X-v.ScreenWidth/2)*zoom
	v.CenterY = world.Y - (anchor.Y-v.ScreenHeight/2)*zoom
	vs.clampCenter(v)
	v.Dirty = true
}

// settleZoom 缩放手势结束
func (vs *ViewportSystem) settleZoom(v *components.ViewportComponent) {
	if !v.ZoomPending {
		return
	}
	v.ZoomPending = false
	v.WheelIdleFrames = 0
	if vs.OnZoomSettled != nil {
		vs.OnZoomSettled(v.Zoom)
	}
}

// updateZoomBounds 根据屏幕与地图尺寸计算缩放范围
func (vs *ViewportSystem) updateZoomBounds(v *components.ViewportComponent) {
	screenW := math.Max(v.ScreenWidth, 1)
	screenH := math.Max(v.ScreenHeight, 1)
	maxZoomScale := math.Max(v.WorldWidth/screenW, v.WorldHeight/screenH)

	v.MinZoom = config.ZoomMin
	v.MaxZoom = math.Max(config.ZoomMin, math.Min(maxZoomScale, config.ZoomMax))
}

// clampCenter 限制视口中心，使可见矩形不超出地图边界
func (vs *ViewportSystem) clampCenter(v *components.ViewportComponent) {
	v.CenterX = clampAxis(v.CenterX, v.ScreenWidth*v.Zoom, v.Edges.Left, v.Edges.Right)
	v.CenterY = clampAxis(v.CenterY, v.ScreenHeight*v.Zoom, v.Edges.Top, v.Edges.Bottom)
}

// clampAxis 单个方向的中心限制
func clampAxis(center, span, lo, hi float64) float64 {
	if span >= hi-lo {
		return (lo + hi) / 2
	}
	return utils.Clamp(center, lo+span/2, hi-span/2)
}
