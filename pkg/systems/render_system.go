package systems

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/decker502/mshome/pkg/components"
	"github.com/decker502/mshome/pkg/ecs"
	"github.com/decker502/mshome/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// LayerDrawer 在图层实体之后绘制的附加内容（如网格叠加层）
type LayerDrawer func(dst *ebiten.Image, t utils.Transform, alpha float64)

// 家具放置反馈
var (
	invalidOutlineColor = color.NRGBA{R: 0xff, G: 0x30, B: 0x30, A: 0xff}
	validOutlineColor   = color.NRGBA{R: 0x30, G: 0xc0, B: 0x60, A: 0xff}
)

const placingAlpha = 0.7

// RenderSystem 管理场景实体的渲染
//
// 渲染顺序：
//   - 图层按 z-index 升序（LayerSystem.Sorted）
//   - 图层内实体按 SceneEntityComponent.ZIndex 升序，相同时按实体ID
//   - 图层实体绘制完后绘制该图层注册的附加内容
//
// 主视图和小地图快照都通过本系统绘制，只是传入的变换不同。
// 设置了裁剪矩形时，超出地图边界的内容不会被绘制。
type RenderSystem struct {
	entityManager *ecs.EntityManager
	layers        *LayerSystem
	drawers       map[string]LayerDrawer

	clip    utils.Rect
	hasClip bool

	// 复用的分组缓冲
	buckets map[string][]ecs.EntityID
}

// NewRenderSystem 创建渲染系统
func NewRenderSystem(em *ecs.EntityManager, layers *LayerSystem) *RenderSystem {
	return &RenderSystem{
		entityManager: em,
		layers:        layers,
		drawers:       make(map[string]LayerDrawer),
		buckets:       make(map[string][]ecs.EntityID),
	}
}

// RegisterLayerDrawer 为图层注册附加绘制函数
func (s *RenderSystem) RegisterLayerDrawer(key string, drawer LayerDrawer) {
	s.drawers[key] = drawer
	s.layers.Layer(key)
}

// SetClip 设置裁剪矩形（地图坐标）
func (s *RenderSystem) SetClip(r utils.Rect) {
	s.clip = r
	s.hasClip = true
}

// Draw 绘制整个场景
// 参数:
//   - dst: 绘制目标
//   - t: 地图坐标到目标坐标的变换
func (s *RenderSystem) Draw(dst *ebiten.Image, t utils.Transform) {
	target := dst
	if s.hasClip {
		r := t.ApplyRect(s.clip)
		clipRect := image.Rect(
			int(math.Floor(r.X)), int(math.Floor(r.Y)),
			int(math.Ceil(r.Right())), int(math.Ceil(r.Bottom())),
		).Intersect(dst.Bounds())
		if clipRect.Empty() {
			return
		}
		target = dst.SubImage(clipRect).(*ebiten.Image)
	}

	s.groupByLayer()

	for _, layer := range s.layers.Sorted() {
		if !layer.Visible || layer.Alpha <= 0 {
			continue
		}
		for _, id := range s.buckets[layer.Key] {
			s.drawEntity(target, id, t, layer.Alpha)
		}
		if drawer, ok := s.drawers[layer.Key]; ok {
			drawer(target, t, layer.Alpha)
		}
	}
}

// groupByLayer 按图层分组并排序实体
func (s *RenderSystem) groupByLayer() {
	for key := range s.buckets {
		s.buckets[key] = s.buckets[key][:0]
	}

	entities := ecs.GetEntitiesWith3[
		*components.SceneEntityComponent,
		*components.PositionComponent,
		*components.SpriteComponent,
	](s.entityManager)

	for _, id := range entities {
		se, _ := ecs.GetComponent[*components.SceneEntityComponent](s.entityManager, id)
		s.buckets[se.Layer] = append(s.buckets[se.Layer], id)
	}

	for _, ids := range s.buckets {
		sort.SliceStable(ids, func(i, j int) bool {
			a, _ := ecs.GetComponent[*components.SceneEntityComponent](s.entityManager, ids[i])
			b, _ := ecs.GetComponent[*components.SceneEntityComponent](s.entityManager, ids[j])
			if a.ZIndex != b.ZIndex {
				return a.ZIndex < b.ZIndex
			}
			return ids[i] < ids[j]
		})
	}
}

// drawEntity 绘制单个实体
func (s *RenderSystem) drawEntity(dst *ebiten.Image, id ecs.EntityID, t utils.Transform, layerAlpha float64) {
	pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
	sprite, _ := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	if sprite.Width <= 0 || sprite.Height <= 0 {
		return
	}

	alpha := sprite.Alpha * layerAlpha
	furniture, isFurniture := ecs.GetComponent[*components.FurnitureComponent](s.entityManager, id)
	inHand := isFurniture && (furniture.Placing || furniture.Dragging)
	if inHand {
		alpha *= placingAlpha
	}
	if alpha <= 0 {
		return
	}

	rect := t.ApplyRect(utils.Rect{X: pos.X, Y: pos.Y, Width: sprite.Width, Height: sprite.Height})

	if sprite.Image != nil {
		bounds := sprite.Image.Bounds()
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(sprite.Width/float64(bounds.Dx()), sprite.Height/float64(bounds.Dy()))
		if sprite.FlipX {
			op.GeoM.Scale(-1, 1)
			op.GeoM.Translate(sprite.Width, 0)
		}
		op.GeoM.Scale(t.Scale, t.Scale)
		op.GeoM.Translate(rect.X, rect.Y)
		if inHand && !furniture.Valid {
			op.ColorScale.Scale(1.0, 0.4, 0.4, 1.0)
		}
		op.ColorScale.ScaleAlpha(float32(alpha))
		dst.DrawImage(sprite.Image, op)
	} else {
		c := sprite.Color
		if inHand && !furniture.Valid {
			c.G, c.B = uint8(int(c.G)*2/5), uint8(int(c.B)*2/5)
		}
		c = scaleAlpha(c, alpha)
		vector.DrawFilledRect(dst, float32(rect.X), float32(rect.Y), float32(rect.Width), float32(rect.Height), c, false)
	}

	if inHand {
		outline := validOutlineColor
		if !furniture.Valid {
			outline = invalidOutlineColor
		}
		vector.StrokeRect(dst, float32(rect.X), float32(rect.Y), float32(rect.Width), float32(rect.Height), 2, outline, false)
	}
}
