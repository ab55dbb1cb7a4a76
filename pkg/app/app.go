// Package app 提供编辑器应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来：加载内容目录、创建资源管理器、
// 打开 gdata 存储，并把户型编辑场景交给 SceneManager 管理。
// 外部 UI（标题栏、状态栏、家具侧边栏）在这里绘制，通过场景的命令方法和事件队列与场景交互。
package app

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/embedded"
	"github.com/decker502/mshome/pkg/game"
	"github.com/decker502/mshome/pkg/scenes"
	"github.com/decker502/mshome/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
)

// DefaultAppName gdata 存储使用的应用名
const DefaultAppName = "mshome_editor"

const (
	// catalogDir 内容目录在 data/ 下的位置
	catalogDir = "data/catalog"
	// zoomKeyStep +/- 键每次调整的缩放值
	zoomKeyStep = 0.25
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// SelectID 启动时加载的户型，为空则使用上次打开的户型或目录中的第一个
	SelectID string
	// AppName gdata 存储的应用名，为空时使用 DefaultAppName
	AppName string
}

// App 是编辑器应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager *game.SceneManager
	resources    *game.ResourceManager
	catalog      *config.Catalog
	settings     *game.SettingsManager
	layouts      *game.LayoutStore
	events       *game.EventQueue

	windowWidth  int
	windowHeight int
	pendingSize  bool

	homeIDs         []string
	furnitureIDs    []string
	furnitureCursor int
	wallTheme       int

	status        string
	settingsDirty bool
	closed        bool
	verbose       bool
}

// NewApp 创建并初始化编辑器应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化资源文件系统。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	if !embedded.IsInitialized() {
		return nil, fmt.Errorf("资源文件系统未初始化")
	}
	catalogFS, err := embedded.Sub(catalogDir)
	if err != nil {
		return nil, fmt.Errorf("内容目录不可用: %w", err)
	}
	catalog, err := config.LoadCatalog(catalogFS, ".")
	if err != nil {
		return nil, fmt.Errorf("内容目录加载失败: %w", err)
	}
	log.Printf("[App] Catalog loaded: %d maps, %d homes, %d furniture",
		len(catalog.Maps), len(catalog.Themes), len(catalog.Furniture))

	resources, err := game.NewResourceManager(embedded.FS())
	if err != nil {
		return nil, fmt.Errorf("资源管理器初始化失败: %w", err)
	}

	// 存储不可用时降级为仅内存
	appName := cfg.AppName
	if appName == "" {
		appName = DefaultAppName
	}
	gdataManager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[App] Warning: storage unavailable, settings will not persist: %v", err)
		gdataManager = nil
	}

	a, err := newApp(catalog, resources, gdataManager, cfg.Verbose)
	if err != nil {
		return nil, err
	}
	if err := a.openInitialHome(cfg.SelectID); err != nil {
		return nil, err
	}
	return a, nil
}

// newApp 组装应用；gdataManager 为 nil 时设置与布局仅保存在内存中
func newApp(catalog *config.Catalog, resources *game.ResourceManager, gdataManager *gdata.Manager, verbose bool) (*App, error) {
	settings, err := game.NewSettingsManager(gdataManager)
	if err != nil {
		return nil, fmt.Errorf("设置加载失败: %w", err)
	}

	a := &App{
		sceneManager: game.NewSceneManager(),
		resources:    resources,
		catalog:      catalog,
		settings:     settings,
		layouts:      game.NewLayoutStore(gdataManager),
		events:       game.NewEventQueue(),
		windowWidth:  config.DefaultWindowWidth,
		windowHeight: config.DefaultWindowHeight,
		homeIDs:      catalog.ThemeIDs(),
		furnitureIDs: catalog.SelectableFurnitureIDs(),
		verbose:      verbose,
	}
	a.events.Subscribe(a.layouts.Apply)
	a.sceneManager.SetSceneFactory(a.newEditorScene)

	if len(a.homeIDs) == 0 {
		return nil, fmt.Errorf("内容目录中没有户型: %w", config.ErrContent)
	}
	return a, nil
}

// openInitialHome 打开启动时的户型
//
// 优先使用命令行指定的户型，其次是上次打开的户型，最后是目录中的第一个。
// 上次的户型已从目录中移除时退回第一个户型。
func (a *App) openInitialHome(requested string) error {
	selectID := requested
	if selectID == "" {
		selectID = a.settings.GetSettings().LastSelectID
	}
	if selectID == "" {
		selectID = a.homeIDs[0]
	}

	if err := a.sceneManager.LoadHome(selectID); err != nil {
		if requested != "" || !errors.Is(err, config.ErrContent) {
			return fmt.Errorf("户型 %s 加载失败: %w", selectID, err)
		}
		log.Printf("[App] Last home %s is gone, falling back to %s", selectID, a.homeIDs[0])
		if err := a.sceneManager.LoadHome(a.homeIDs[0]); err != nil {
			return fmt.Errorf("户型 %s 加载失败: %w", a.homeIDs[0], err)
		}
	}
	return nil
}

// newEditorScene 场景工厂：创建编辑场景、加载户型并恢复已保存的家具
//
// 户型加载失败时返回错误，当前场景与布局存储保持不变。
func (a *App) newEditorScene(selectID string) (game.Scene, error) {
	s := a.settings.GetSettings()

	scene := scenes.NewEditorScene(a.catalog, a.resources, a.events, utils.Size{
		Width:  float64(a.windowWidth),
		Height: float64(a.windowHeight),
	})
	scene.SetCanvasOrigin(utils.Point{X: 0, Y: config.HeaderHeight})
	scene.UpdateAPPWidth(a.appWidth())
	scene.SetShowGrid(s.ShowGrid)
	if s.Zoom > 0 {
		scene.SetZoom(s.Zoom)
	}

	if err := scene.ChangeHomeMap(selectID); err != nil {
		scene.Destroy()
		return nil, err
	}
	a.openLayout(scene)

	a.settings.SetLastSelectID(selectID)
	a.settingsDirty = true
	return scene, nil
}

// switchHome 在当前场景上切换户型
//
// 与当前户型共用地图模板时只应用主题，家具保持不变；
// 模板不同时场景重建地图，布局存储切换到新模板并恢复其家具。
// 切换失败时当前户型保持不变。
func (a *App) switchHome(selectID string) error {
	scene := a.editorScene()
	if scene == nil {
		return a.sceneManager.LoadHome(selectID)
	}

	prevMap := scene.MapID()
	if err := scene.ChangeHomeMap(selectID); err != nil {
		return err
	}
	if scene.MapID() != prevMap {
		a.openLayout(scene)
	}

	a.settings.SetLastSelectID(selectID)
	a.settingsDirty = true
	return nil
}

// openLayout 保存上一张地图的布局，打开当前地图的布局并恢复家具
func (a *App) openLayout(scene *scenes.EditorScene) {
	if err := a.layouts.Save(); err != nil {
		log.Printf("[App] Failed to save layout %s: %v", a.layouts.MapID(), err)
	}
	if err := a.layouts.Open(scene.MapID()); err != nil {
		log.Printf("[App] Failed to open layout %s: %v", scene.MapID(), err)
	}
	if err := scene.InitialFurniture(a.layouts.Records()); err != nil {
		log.Printf("[App] Saved furniture for %s does not match the catalog: %v", scene.MapID(), err)
		a.status = fmt.Sprintf("saved furniture could not be restored: %v", err)
	}
}

// Update 更新编辑器逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	if a.closed {
		return ebiten.Termination
	}
	if ebiten.IsWindowBeingClosed() {
		a.Shutdown()
		return ebiten.Termination
	}

	scene := a.editorScene()
	if a.pendingSize && scene != nil {
		a.pendingSize = false
		scene.SetWindowHeight(float64(a.windowHeight))
		scene.UpdateAPPWidth(a.appWidth())
	}

	if scene != nil {
		a.handleKeys(scene)
	}

	deltaTime := 1.0 / 60.0
	a.sceneManager.Update(deltaTime)

	a.processEvents()
	a.persist()
	return nil
}

// handleKeys 键盘命令（对应外部 UI 的按钮）
func (a *App) handleKeys(scene *scenes.EditorScene) {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyG):
		a.settings.SetShowGrid(scene.ToggleGrid())
		a.settingsDirty = true

	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		scene.SetEditMode(!scene.EditMode())

	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		s := a.settings.GetSettings()
		a.settings.SetSideOpen(!s.SideOpen)
		a.settingsDirty = true
		scene.UpdateAPPWidth(a.appWidth())

	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		a.placeNext(scene)

	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		a.loadNextHome(scene.SelectID())

	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		a.wallTheme = (a.wallTheme + 1) % 4
		scene.ApplyHomeTheme(map[string]string{"wall": fmt.Sprint(a.wallTheme)})

	// 缩放值为每像素的地图单位，放大即减小缩放值
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		a.settings.SetZoom(scene.SetZoom(scene.Zoom() - zoomKeyStep))
		a.settingsDirty = true

	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		a.settings.SetZoom(scene.SetZoom(scene.Zoom() + zoomKeyStep))
		a.settingsDirty = true
	}

	selected, ok := scene.Selected()
	if !ok {
		return
	}
	var err error
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		err = scene.FlipFurniture(selected)
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete), inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		err = scene.DeleteFurniture(selected)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		err = scene.RaiseFurniture(selected)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		err = scene.LowerFurniture(selected)
	}
	if err != nil {
		log.Printf("[App] Command on %s failed: %v", selected, err)
	}
}

// placeNext 放置侧边栏中的下一件家具
func (a *App) placeNext(scene *scenes.EditorScene) {
	if len(a.furnitureIDs) == 0 {
		return
	}
	id := a.furnitureIDs[a.furnitureCursor%len(a.furnitureIDs)]
	a.furnitureCursor = (a.furnitureCursor + 1) % len(a.furnitureIDs)
	if err := scene.PlaceNewFurniture(id); err != nil {
		a.status = err.Error()
		log.Printf("[App] PlaceNewFurniture(%s) failed: %v", id, err)
	}
}

// loadNextHome 切换到目录中的下一个户型
func (a *App) loadNextHome(current string) {
	next := a.homeIDs[0]
	for i, id := range a.homeIDs {
		if id == current {
			next = a.homeIDs[(i+1)%len(a.homeIDs)]
			break
		}
	}
	if err := a.switchHome(next); err != nil {
		a.status = err.Error()
		return
	}
	a.status = ""
}

// processEvents 读取场景事件，更新状态栏与设置
func (a *App) processEvents() {
	for _, ev := range a.events.Drain() {
		log.Printf("[App] Event %s: %+v", game.EventName(ev), ev)
		switch e := ev.(type) {
		case game.Zoom:
			a.settings.SetZoom(e.Value)
			a.settingsDirty = true
		case game.FurnitureUpdate:
			a.status = fmt.Sprintf("%s placed at (%.0f, %.0f)", e.ID, e.Position.X, e.Position.Y)
		case game.FurnitureDelete:
			a.status = fmt.Sprintf("%s removed", e.ID)
		case game.FurnitureCancelPlace:
			a.status = "placement cancelled"
		}
	}
}

// persist 保存有变化的布局与设置
func (a *App) persist() {
	if a.layouts.Dirty() {
		if err := a.layouts.Save(); err != nil {
			log.Printf("[App] Failed to save layout: %v", err)
		}
	}
	if a.settingsDirty {
		a.settingsDirty = false
		if err := a.settings.Save(); err != nil {
			log.Printf("[App] Failed to save settings: %v", err)
		}
	}
}

// Shutdown 保存并销毁当前场景，可重复调用
func (a *App) Shutdown() {
	if a.closed {
		return
	}
	a.closed = true
	a.processEvents()
	a.persist()
	a.sceneManager.Shutdown()
	a.resources.Close()
	log.Printf("[App] Shutdown complete")
}

// Draw 绘制编辑器画面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(chromeColor)
	a.sceneManager.Draw(screen)

	scene := a.editorScene()
	if scene == nil {
		return
	}
	a.drawHeader(screen, scene)
	a.drawFooter(screen, scene)
	if a.settings.GetSettings().SideOpen {
		a.drawSidePanel(screen, scene)
	}
}

// Layout 编辑器使用窗口的实际像素尺寸
// 尺寸变化在下一次 Update 中应用到画布
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != a.windowWidth || outsideHeight != a.windowHeight {
		a.windowWidth, a.windowHeight = outsideWidth, outsideHeight
		a.pendingSize = true
	}
	return outsideWidth, outsideHeight
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}

// editorScene 返回当前的编辑场景
func (a *App) editorScene() *scenes.EditorScene {
	scene, _ := a.sceneManager.GetCurrentScene().(*scenes.EditorScene)
	return scene
}

// appWidth 画布宽度（窗口宽度减去展开的侧边栏）
func (a *App) appWidth() float64 {
	return utils.AppWidthFor(float64(a.windowWidth), a.settings.GetSettings().SideOpen, config.SideWidth)
}
