package scenes

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/game"
	"github.com/decker502/mshome/pkg/systems"
	"github.com/decker502/mshome/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	// ErrFurnitureRestored 同一张地图上第二次恢复家具
	ErrFurnitureRestored = errors.New("furniture already restored for this map")

	// ErrFurnitureNotFound 家具实例不存在
	ErrFurnitureNotFound = errors.New("furniture instance not found")
)

var (
	canvasClearColor   = color.NRGBA{R: 0xe8, G: 0xe4, B: 0xdc, A: 0xff}
	selectionLineColor = color.NRGBA{R: 0x40, G: 0x90, B: 0xff, A: 0xff}
)

// EditorScene 户型编辑场景
//
// 场景持有画布，外部 UI 只通过下列方法发送命令，并从事件队列读取通知：
//   - ChangeHomeMap / ApplyHomeTheme：切换户型与主题
//   - PlaceNewFurniture / CancelPlacement / InitialFurniture：家具放置与恢复
//   - UpdateAPPWidth：侧边栏开合后调整画布宽度
//   - Destroy：停止更新与绘制，释放图像资源
//
// 每张地图的状态（坐标空间、图层、网格、视口、小地图）都在 mapSession 中，
// 切换地图模板时整体重建；主题和家具变化只做增量修改。
type EditorScene struct {
	catalog *config.Catalog
	images  systems.ImageLoader
	events  *game.EventQueue

	windowHeight float64
	canvas       utils.Size
	origin       utils.Point
	canvasImage  *ebiten.Image

	session  *mapSession
	selectID string

	viewZoom  float64
	showGrid  bool
	editMode  bool
	selected  string
	destroyed bool

	// readInput 读取一帧输入，测试中可替换
	readInput func(origin utils.Point) utils.InputSnapshot
}

// NewEditorScene 创建编辑场景（尚未加载地图）
//
// 参数:
//   - catalog: 内容目录
//   - images: 图片加载器，可为 nil（全部使用纯色显示）
//   - events: 出站事件队列，为 nil 时自动创建
//   - window: 窗口尺寸，画布高度 = 窗口高度 - HFHeight
func NewEditorScene(catalog *config.Catalog, images systems.ImageLoader, events *game.EventQueue, window utils.Size) *EditorScene {
	if events == nil {
		events = game.NewEventQueue()
	}
	s := &EditorScene{
		catalog:      catalog,
		images:       images,
		events:       events,
		windowHeight: window.Height,
		viewZoom:     config.ZoomMin,
		showGrid:     true,
		editMode:     true,
		readInput:    utils.NewInputReader().Read,
	}
	s.canvas = s.canvasSizeFor(window.Width)
	return s
}

// Events 返回出站事件队列
func (s *EditorScene) Events() *game.EventQueue {
	return s.events
}

// ChangeHomeMap 切换到指定户型
//
// 户型ID解析为地图模板ID；模板与当前已加载的相同时不重建任何状态，只应用该户型的默认主题。
// 否则完整构建新的地图会话，成功后才替换旧会话（失败时旧会话保持不变）。
//
// 参数:
//   - selectID: 户型（主题）ID
//
// 返回:
//   - error: 户型或地图模板不存在时返回包装 config.ErrContent 的错误
func (s *EditorScene) ChangeHomeMap(selectID string) error {
	if s.destroyed {
		log.Printf("[EditorScene] ChangeHomeMap(%s) ignored: scene destroyed", selectID)
		return nil
	}

	theme, err := s.catalog.Theme(selectID)
	if err != nil {
		return fmt.Errorf("change home map: %w", err)
	}
	mapDef, err := s.catalog.Map(theme.TemplateMapID)
	if err != nil {
		return fmt.Errorf("change home map %s: %w", selectID, err)
	}

	if s.session != nil && s.session.mapID == theme.TemplateMapID {
		s.selectID = selectID
		s.ApplyHomeTheme(theme.Theme)
		log.Printf("[EditorScene] Home %s shares map %s, keeping scene", selectID, theme.TemplateMapID)
		return nil
	}

	next, err := buildSession(theme.TemplateMapID, mapDef, sessionParams{
		images:   s.images,
		canvas:   s.canvas,
		zoom:     s.viewZoom,
		showGrid: s.showGrid,
	})
	if err != nil {
		return fmt.Errorf("change home map %s: %w", selectID, err)
	}

	s.teardownSession()
	s.session = next
	s.selectID = selectID
	next.viewport.OnZoomSettled = s.onZoomSettled
	next.themes.ApplyTheme(theme.Theme)

	s.emitZoomRange()
	s.events.Emit(game.Zoom{Value: next.viewport.Zoom()})

	log.Printf("[EditorScene] Loaded home %s (map %s)", selectID, theme.TemplateMapID)
	return nil
}

// ApplyHomeTheme 按物件类型应用主题
//
// 主题值 0 表示默认主题，其他值转换为 "s<值>"。没有实例的类型直接跳过。
func (s *EditorScene) ApplyHomeTheme(themes map[string]string) {
	if !s.ready("ApplyHomeTheme") {
		return
	}
	if changed := s.session.themes.ApplyTheme(themes); changed > 0 {
		s.session.minimap.Invalidate()
	}
}

// UpdateAPPWidth 修改画布宽度（侧边栏开合或窗口缩放后调用）
//
// 画布高度 = 窗口高度 - HFHeight；视口重新计算缩放范围并发出 ZoomRange 事件。
func (s *EditorScene) UpdateAPPWidth(width float64) {
	if s.destroyed {
		return
	}
	s.canvas = s.canvasSizeFor(width)
	if s.session == nil {
		return
	}

	before := s.session.viewport.Zoom()
	s.session.viewport.Resize(s.canvas.Width, s.canvas.Height)
	s.emitZoomRange()
	if after := s.session.viewport.Zoom(); after != before {
		s.viewZoom = after
		s.events.Emit(game.Zoom{Value: after})
	}
}

// SetWindowHeight 记录窗口高度（下一次 UpdateAPPWidth 生效）
func (s *EditorScene) SetWindowHeight(height float64) {
	s.windowHeight = height
}

// SetCanvasOrigin 设置画布在窗口中的位置（用于把指针坐标转换为画布坐标）
func (s *EditorScene) SetCanvasOrigin(origin utils.Point) {
	s.origin = origin
}

// CanvasSize 返回画布尺寸
func (s *EditorScene) CanvasSize() utils.Size {
	return s.canvas
}

// SetZoom 设置缩放值（UI 滑块）
//
// 没有地图时只记录偏好值，加载地图后生效。
//
// 返回:
//   - float64: 实际应用的缩放值
func (s *EditorScene) SetZoom(zoom float64) float64 {
	if s.session == nil {
		if zoom > 0 {
			s.viewZoom = zoom
		}
		return s.viewZoom
	}
	s.viewZoom = s.session.viewport.SetZoom(zoom)
	return s.viewZoom
}

// Zoom 返回当前缩放值
func (s *EditorScene) Zoom() float64 {
	if s.session == nil {
		return s.viewZoom
	}
	return s.session.viewport.Zoom()
}

// ToggleGrid 切换网格显示，返回切换后的状态
//
// 只修改网格图层的透明度，不重建网格。
func (s *EditorScene) ToggleGrid() bool {
	s.SetShowGrid(!s.showGrid)
	return s.showGrid
}

// SetShowGrid 设置网格显示
func (s *EditorScene) SetShowGrid(show bool) {
	s.showGrid = show
	if s.session != nil {
		s.session.layers.SetAlpha(config.LayerGrid, gridAlpha(show))
		s.session.minimap.Invalidate()
	}
}

// ShowGrid 返回网格是否显示
func (s *EditorScene) ShowGrid() bool {
	return s.showGrid
}

// SetEditMode 设置编辑模式
//
// 只有编辑模式下可以拖动已放置的家具；退出编辑模式时正在拖动的家具恢复原位。
func (s *EditorScene) SetEditMode(on bool) {
	s.editMode = on
	if !on {
		s.abortDrag()
		s.selected = ""
	}
}

// EditMode 返回是否处于编辑模式
func (s *EditorScene) EditMode() bool {
	return s.editMode
}

// SelectID 返回当前户型ID
func (s *EditorScene) SelectID() string {
	return s.selectID
}

// MapID 返回当前地图模板ID，未加载时为空
func (s *EditorScene) MapID() string {
	if s.session == nil {
		return ""
	}
	return s.session.mapID
}

// Geometry 返回当前地图的坐标空间
func (s *EditorScene) Geometry() (WorldGeometry, bool) {
	if s.session == nil {
		return WorldGeometry{}, false
	}
	return s.session.geometry, true
}

// Viewport 返回当前视口系统，未加载地图时为 nil
func (s *EditorScene) Viewport() *systems.ViewportSystem {
	if s.session == nil {
		return nil
	}
	return s.session.viewport
}

// Grid 返回当前网格系统，未加载地图时为 nil
func (s *EditorScene) Grid() *systems.HousingGridSystem {
	if s.session == nil {
		return nil
	}
	return s.session.grid
}

// Minimap 返回当前小地图，未加载地图时为 nil
func (s *EditorScene) Minimap() *systems.MinimapSystem {
	if s.session == nil {
		return nil
	}
	return s.session.minimap
}

// Update 每帧更新：读取输入并处理
func (s *EditorScene) Update(deltaTime float64) {
	if s.destroyed || s.session == nil {
		return
	}
	s.HandleInput(s.readInput(s.origin))
}

// HandleInput 处理一帧输入
//
// 顺序：Escape 取消 → 家具放置/拖动 → 视口平移缩放 → 合并发送 moved。
func (s *EditorScene) HandleInput(input utils.InputSnapshot) {
	if s.destroyed || s.session == nil {
		return
	}

	if input.KeyJustPressed(ebiten.KeyEscape) {
		if s.session.placing != "" {
			s.CancelPlacement()
		} else {
			s.abortDrag()
		}
	}

	consumed := s.handleFurnitureInput(input)
	s.session.viewport.HandleInput(input, !consumed)
	s.session.viewport.Flush()
}

// Draw 绘制画布（场景 + 小地图）到屏幕的画布区域
func (s *EditorScene) Draw(screen *ebiten.Image) {
	if s.destroyed || s.session == nil {
		return
	}

	canvas := s.ensureCanvasImage()
	canvas.Fill(canvasClearColor)

	t := s.session.viewport.Transform()
	s.session.render.Draw(canvas, t)
	s.drawSelection(canvas, t)
	s.session.minimap.Draw(canvas, utils.Point{X: config.MinimapMargin, Y: config.MinimapMargin})

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(s.origin.X, s.origin.Y)
	screen.DrawImage(canvas, op)
}

// Destroy 停止更新与绘制并释放资源，可重复调用
func (s *EditorScene) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.teardownSession()
	if s.canvasImage != nil {
		s.canvasImage.Deallocate()
		s.canvasImage = nil
	}
	log.Printf("[EditorScene] Destroyed")
}

// Destroyed 场景是否已销毁
func (s *EditorScene) Destroyed() bool {
	return s.destroyed
}

// teardownSession 丢弃当前地图会话；未提交的放置视为取消
func (s *EditorScene) teardownSession() {
	if s.session == nil {
		return
	}
	if s.session.placing != "" {
		s.events.Emit(game.FurnitureCancelPlace{})
	}
	s.session.dispose()
	s.session = nil
	s.selected = ""
}

// ready 检查是否已加载地图（未加载时记录并忽略调用）
func (s *EditorScene) ready(op string) bool {
	if s.destroyed || s.session == nil {
		log.Printf("[EditorScene] %s ignored: no map loaded", op)
		return false
	}
	return true
}

func (s *EditorScene) onZoomSettled(zoom float64) {
	s.viewZoom = zoom
	s.events.Emit(game.Zoom{Value: zoom})
}

func (s *EditorScene) emitZoomRange() {
	lo, hi := s.session.viewport.ZoomRange()
	s.events.Emit(game.ZoomRange{Min: lo, Max: hi})
}

// canvasSizeFor 画布尺寸，宽高至少 1 像素
func (s *EditorScene) canvasSizeFor(width float64) utils.Size {
	return utils.Size{
		Width:  math.Max(1, width),
		Height: math.Max(1, s.windowHeight-config.HFHeight),
	}
}

// insideCanvas 画布坐标是否在画布内
func (s *EditorScene) insideCanvas(p utils.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.canvas.Width && p.Y < s.canvas.Height
}

func (s *EditorScene) ensureCanvasImage() *ebiten.Image {
	w, h := int(math.Ceil(s.canvas.Width)), int(math.Ceil(s.canvas.Height))
	if s.canvasImage != nil {
		if b := s.canvasImage.Bounds(); b.Dx() == w && b.Dy() == h {
			return s.canvasImage
		}
		s.canvasImage.Deallocate()
	}
	s.canvasImage = ebiten.NewImage(w, h)
	return s.canvasImage
}

// drawSelection 选中家具的外框
func (s *EditorScene) drawSelection(dst *ebiten.Image, t utils.Transform) {
	if s.selected == "" || !s.editMode {
		return
	}
	id, ok := s.session.furniture.Find(s.selected)
	if !ok {
		return
	}
	f, _ := s.session.furniture.Furniture(id)
	if f.Dragging {
		return
	}
	rect, ok := s.session.furniture.Bounds(id)
	if !ok {
		return
	}
	r := t.ApplyRect(rect)
	vector.StrokeRect(dst, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), 2, selectionLineColor, false)
}
