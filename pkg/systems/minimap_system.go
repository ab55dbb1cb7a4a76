package systems

import (
	"image/color"
	"log"
	"math"

	"github.com/decker502/mshome/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// SceneDrawer 通过任意变换绘制整个场景
type SceneDrawer func(dst *ebiten.Image, t utils.Transform)

var (
	minimapBackgroundColor = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xc0}
	minimapOverlayColor    = color.NRGBA{R: 0xff, G: 0xd0, B: 0x40, A: 0xff}
	minimapBorderColor     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80}
)

// MinimapSystem 小地图：场景的缩小快照 + 可见区域框
//
// 小地图坐标 = (地图坐标 + 地图中心偏移) * 缩放。
// 快照只在 Render/Invalidate 后重绘一次并缓存，
// 视口移动时只重新计算可见区域框（Update），不重绘场景。
type MinimapSystem struct {
	world  utils.Size
	center utils.Point
	draw   SceneDrawer

	scale    float64
	snapshot *ebiten.Image
	dirty    bool
	overlay  utils.Rect
	redraws  int
}

// NewMinimapSystem 创建小地图
// 参数:
//   - world: 地图尺寸
//   - center: 地图坐标原点在小地图（未缩放）中的位置
//   - draw: 场景绘制函数（通常为 RenderSystem.Draw）
func NewMinimapSystem(world utils.Size, center utils.Point, draw SceneDrawer) *MinimapSystem {
	return &MinimapSystem{
		world:  world,
		center: center,
		draw:   draw,
	}
}

// Render 以较长边 maxDimension 像素计算缩放，并标记快照需要重绘
func (m *MinimapSystem) Render(maxDimension float64) {
	longest := math.Max(m.world.Width, m.world.Height)
	if longest <= 0 {
		log.Printf("[MinimapSystem] Warning: empty world size %.0fx%.0f", m.world.Width, m.world.Height)
		return
	}
	m.scale = maxDimension / longest

	size := m.Size()
	w, h := int(math.Ceil(size.Width)), int(math.Ceil(size.Height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if m.snapshot != nil {
		if b := m.snapshot.Bounds(); b.Dx() != w || b.Dy() != h {
			m.snapshot.Deallocate()
			m.snapshot = nil
		}
	}
	if m.snapshot == nil {
		m.snapshot = ebiten.NewImage(w, h)
	}
	m.dirty = true
}

// Scale 返回小地图缩放
func (m *MinimapSystem) Scale() float64 {
	return m.scale
}

// Size 返回小地图像素尺寸
func (m *MinimapSystem) Size() utils.Size {
	return utils.Size{Width: m.world.Width * m.scale, Height: m.world.Height * m.scale}
}

// Transform 返回地图坐标到小地图坐标的变换
func (m *MinimapSystem) Transform() utils.Transform {
	return utils.Transform{
		Scale:   m.scale,
		OffsetX: m.center.X * m.scale,
		OffsetY: m.center.Y * m.scale,
	}
}

// Update 根据视口可见矩形（地图坐标）更新可见区域框
func (m *MinimapSystem) Update(visible utils.Rect) {
	m.overlay = m.Transform().ApplyRect(visible)
}

// Overlay 返回可见区域框（小地图坐标）
func (m *MinimapSystem) Overlay() utils.Rect {
	return m.overlay
}

// Invalidate 标记快照需要重绘（主题或家具变化后调用）
func (m *MinimapSystem) Invalidate() {
	m.dirty = true
}

// Redraws 返回快照重绘次数
func (m *MinimapSystem) Redraws() int {
	return m.redraws
}

// Snapshot 返回快照图像，必要时先重绘
func (m *MinimapSystem) Snapshot() *ebiten.Image {
	if m.snapshot == nil {
		return nil
	}
	if m.dirty {
		m.snapshot.Clear()
		if m.draw != nil {
			m.draw(m.snapshot, m.Transform())
		}
		m.dirty = false
		m.redraws++
	}
	return m.snapshot
}

// Draw 将小地图绘制到屏幕指定位置
func (m *MinimapSystem) Draw(screen *ebiten.Image, at utils.Point) {
	snapshot := m.Snapshot()
	if snapshot == nil {
		return
	}
	size := m.Size()

	vector.DrawFilledRect(screen, float32(at.X), float32(at.Y), float32(size.Width), float32(size.Height), minimapBackgroundColor, false)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(at.X, at.Y)
	screen.DrawImage(snapshot, op)

	vector.StrokeRect(screen, float32(at.X), float32(at.Y), float32(size.Width), float32(size.Height), 1, minimapBorderColor, false)
	vector.StrokeRect(screen,
		float32(at.X+m.overlay.X), float32(at.Y+m.overlay.Y),
		float32(m.overlay.Width), float32(m.overlay.Height),
		2, minimapOverlayColor, false)
}

// Dispose 释放快照图像
func (m *MinimapSystem) Dispose() {
	if m.snapshot != nil {
		m.snapshot.Deallocate()
		m.snapshot = nil
	}
	m.dirty = false
}
