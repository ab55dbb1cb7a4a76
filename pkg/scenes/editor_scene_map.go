package scenes

import (
	"fmt"
	"log"
	"math"

	"github.com/decker502/mshome/pkg/components"
	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/ecs"
	"github.com/decker502/mshome/pkg/systems"
	"github.com/decker502/mshome/pkg/utils"
)

// WorldGeometry 地图的坐标空间
//
// Edges 为地图坐标下的可视边界；Center 为地图坐标原点在地图矩形内的位置
// （小地图坐标 = (地图坐标 + Center) * 缩放）；Size 为地图矩形尺寸。
type WorldGeometry struct {
	Edges  utils.Edges
	Center utils.Point
	Size   utils.Size
}

// DeriveWorldGeometry 根据地图定义计算坐标空间
//
// miniMap 的字段为 0 时视为未设置：
//   - Center = (|VRLeft|, |VRTop|)
//   - Size = (|VRRight| + |VRLeft|, |VRTop| + |VRBottom|)
func DeriveWorldGeometry(def *config.MapDefinition) WorldGeometry {
	edges := utils.Edges{
		Top:    def.Info.VRTop,
		Right:  def.Info.VRRight,
		Bottom: def.Info.VRBottom,
		Left:   def.Info.VRLeft,
	}

	g := WorldGeometry{Edges: edges}

	g.Center.X = def.MiniMap.CenterX
	if g.Center.X == 0 {
		g.Center.X = math.Abs(edges.Left)
	}
	g.Center.Y = def.MiniMap.CenterY
	if g.Center.Y == 0 {
		g.Center.Y = math.Abs(edges.Top)
	}

	g.Size.Width = def.MiniMap.Width
	if g.Size.Width == 0 {
		g.Size.Width = math.Abs(edges.Right) + math.Abs(edges.Left)
	}
	g.Size.Height = def.MiniMap.Height
	if g.Size.Height == 0 {
		g.Size.Height = math.Abs(edges.Top) + math.Abs(edges.Bottom)
	}
	return g
}

// mapSession 一张地图的全部运行时状态
//
// 切换地图时整体丢弃并重建，新旧状态不会同时存在于场景中。
type mapSession struct {
	mapID    string
	geometry WorldGeometry

	entityManager *ecs.EntityManager
	layers        *systems.LayerSystem
	grid          *systems.HousingGridSystem
	viewport      *systems.ViewportSystem
	render        *systems.RenderSystem
	minimap       *systems.MinimapSystem
	themes        *systems.ThemeSystem
	furniture     *systems.FurnitureSystem

	// 家具交互状态（实例ID，空字符串表示无）
	placing  string
	pressed  string
	dragging string
	pointer  *utils.DragTracker

	restored bool
}

// sessionParams 构建地图会话所需的场景级参数
type sessionParams struct {
	images   systems.ImageLoader
	canvas   utils.Size
	zoom     float64
	showGrid bool
}

// buildSession 构建一个完整的地图会话
//
// 所有步骤成功后才返回会话；任何一步失败都会释放已创建的资源并返回错误，
// 调用方持有的旧会话不受影响。
//
// 参数:
//   - mapID: 地图模板ID
//   - def: 地图模板定义
//   - p: 场景级参数（画布尺寸、缩放偏好、网格显示）
func buildSession(mapID string, def *config.MapDefinition, p sessionParams) (*mapSession, error) {
	geometry := DeriveWorldGeometry(def)
	if geometry.Size.Width <= 0 || geometry.Size.Height <= 0 {
		return nil, fmt.Errorf("map %s has empty world size %.0fx%.0f: %w",
			mapID, geometry.Size.Width, geometry.Size.Height, config.ErrContent)
	}

	em := ecs.NewEntityManager()
	s := &mapSession{
		mapID:         mapID,
		geometry:      geometry,
		entityManager: em,
		layers:        systems.NewLayerSystem(),
		pointer:       utils.NewDragTracker(utils.DefaultDragThreshold),
	}

	s.grid = systems.NewHousingGridSystem(em)
	if err := s.grid.BuildAll(def.HousingGrid); err != nil {
		return nil, fmt.Errorf("map %s: %w", mapID, err)
	}

	zoom := p.zoom
	if zoom <= 0 {
		zoom = config.ZoomMin
	}
	s.viewport = systems.NewViewportSystem(em, p.canvas, geometry.Size, geometry.Edges, zoom)
	s.viewport.MoveCenter(utils.Point{})

	s.render = systems.NewRenderSystem(em, s.layers)
	s.render.SetClip(geometry.Edges.Rect())
	s.layers.Layer(config.LayerBack)
	s.layers.Layer(config.LayerFront)

	s.populateBack(def, p.images)

	s.themes = systems.NewThemeSystem(em, p.images)
	s.populateObjects(def)

	s.render.RegisterLayerDrawer(config.LayerGrid, s.grid.DrawOverlay)
	s.layers.SetAlpha(config.LayerGrid, gridAlpha(p.showGrid))
	s.layers.Layer(config.LayerFurniture)
	s.furniture = systems.NewFurnitureSystem(em, s.grid, p.images)

	s.minimap = systems.NewMinimapSystem(geometry.Size, geometry.Center, s.render.Draw)
	s.minimap.Render(config.MinimapMaxDimension)
	s.viewport.OnMoved = s.minimap.Update
	s.minimap.Update(s.viewport.VisibleBounds())

	log.Printf("[MapLoader] Built map %s: world=%.0fx%.0f center=(%.0f,%.0f) entities=%d layers=%d grids=%d",
		mapID, geometry.Size.Width, geometry.Size.Height, geometry.Center.X, geometry.Center.Y,
		em.Count(), s.layers.Count(), len(s.grid.Keys()))
	return s, nil
}

// populateBack 按列表顺序创建背景条目
func (s *mapSession) populateBack(def *config.MapDefinition, images systems.ImageLoader) {
	for i, back := range def.Back {
		layer := config.LayerBack
		if back.Front {
			layer = config.LayerFront
		}

		clr, err := config.ParseColor(back.Color)
		if err != nil {
			log.Printf("[MapLoader] Warning: back[%d] has invalid color %q: %v", i, back.Color, err)
		}
		sprite := &components.SpriteComponent{
			Color:  clr,
			Width:  back.Width,
			Height: back.Height,
			Alpha:  back.Alpha,
		}
		if back.Image != "" && images != nil {
			if img, err := images.LoadImage(back.Image); err != nil {
				log.Printf("[MapLoader] Failed to load back[%d] image %s: %v", i, back.Image, err)
			} else {
				sprite.Image = img
			}
		}
		fitSpriteToImage(sprite)

		id := s.entityManager.CreateEntity()
		ecs.AddComponent(s.entityManager, id, &components.SceneEntityComponent{
			Kind:   components.SceneEntityBack,
			Layer:  layer,
			ZIndex: i,
		})
		ecs.AddComponent(s.entityManager, id, &components.PositionComponent{X: back.X, Y: back.Y})
		ecs.AddComponent(s.entityManager, id, sprite)
	}
}

// populateObjects 创建所有数字图层中的物件，并登记到主题系统
func (s *mapSession) populateObjects(def *config.MapDefinition) {
	for _, obj := range def.Objects() {
		s.layers.Layer(obj.Layer)

		clr, err := config.ParseColor(obj.Color)
		if err != nil {
			log.Printf("[MapLoader] Warning: object %s/%s has invalid color %q: %v", obj.Type, obj.Index, obj.Color, err)
		}
		sprite := &components.SpriteComponent{
			Color:  clr,
			Width:  obj.Width,
			Height: obj.Height,
			FlipX:  obj.Flip,
			Alpha:  1,
		}

		id := s.entityManager.CreateEntity()
		ecs.AddComponent(s.entityManager, id, &components.SceneEntityComponent{
			Kind:   components.SceneEntityObject,
			Layer:  obj.Layer,
			ZIndex: obj.Z,
		})
		ecs.AddComponent(s.entityManager, id, &components.PositionComponent{X: obj.X, Y: obj.Y})
		ecs.AddComponent(s.entityManager, id, sprite)
		ecs.AddComponent(s.entityManager, id, &components.MapObjectComponent{
			ObjectType:  obj.Type,
			ObjectIndex: obj.Index,
			Theme:       config.DefaultThemeToken,
			Variants:    obj.Variants,
		})

		s.themes.Register(id)
		fitSpriteToImage(sprite)
	}
}

// dispose 释放会话持有的图像与实体
func (s *mapSession) dispose() {
	if s.minimap != nil {
		s.minimap.Dispose()
	}
	if s.viewport != nil {
		s.viewport.OnMoved = nil
		s.viewport.OnZoomSettled = nil
	}
	s.layers.Reset()
	s.entityManager.Clear()
	log.Printf("[MapLoader] Disposed map %s", s.mapID)
}

// fitSpriteToImage 未指定尺寸时使用图片原始尺寸
func fitSpriteToImage(sprite *components.SpriteComponent) {
	if sprite.Image == nil {
		return
	}
	b := sprite.Image.Bounds()
	if sprite.Width <= 0 {
		sprite.Width = float64(b.Dx())
	}
	if sprite.Height <= 0 {
		sprite.Height = float64(b.Dy())
	}
}

func gridAlpha(show bool) float64 {
	if show {
		return 1
	}
	return 0
}
