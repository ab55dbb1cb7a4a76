package game

import (
	"errors"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// SceneFactory 场景工厂函数类型
// 用于创建指定户型的编辑场景，避免循环依赖
type SceneFactory func(selectID string) (Scene, error)

// SceneManager manages the editor's high-level state by controlling which scene is active.
// It ensures only one scene's Update and Draw methods are called at any given time.
type SceneManager struct {
	currentScene Scene
	sceneFactory SceneFactory // 场景工厂函数，用于创建新场景
}

// NewSceneManager creates and returns a new SceneManager instance.
// The manager starts with no active scene; use SwitchTo to set the initial scene.
func NewSceneManager() *SceneManager {
	return &SceneManager{
		currentScene: nil,
		sceneFactory: nil,
	}
}

// SetSceneFactory 设置场景工厂函数
func (sm *SceneManager) SetSceneFactory(factory SceneFactory) {
	sm.sceneFactory = factory
}

// SwitchTo changes the active scene to the provided scene.
// The previous scene is destroyed if it implements Disposable.
func (sm *SceneManager) SwitchTo(scene Scene) {
	if sm.currentScene == scene {
		return
	}
	if d, ok := sm.currentScene.(Disposable); ok {
		d.Destroy()
	}
	sm.currentScene = scene
}

// GetCurrentScene 返回当前活动的场景
//
// 返回：
//   - Scene: 当前场景，如果没有活动场景则返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// LoadHome 使用工厂函数创建指定户型的场景并切换过去
//
// 创建失败时保留当前场景。
//
// 参数：
//   - selectID: 户型（主题）ID
//
// 返回：
//   - error: 工厂未设置或创建失败
func (sm *SceneManager) LoadHome(selectID string) error {
	log.Printf("[SceneManager] 加载户型: %s", selectID)

	if sm.sceneFactory == nil {
		log.Printf("[SceneManager] 错误: SceneFactory 未设置")
		return errNoSceneFactory
	}

	newScene, err := sm.sceneFactory(selectID)
	if err != nil {
		log.Printf("[SceneManager] 错误: 无法创建户型场景 %s: %v", selectID, err)
		return err
	}
	sm.SwitchTo(newScene)
	log.Printf("[SceneManager] 成功切换到户型: %s", selectID)
	return nil
}

// Shutdown 销毁当前场景
func (sm *SceneManager) Shutdown() {
	if d, ok := sm.currentScene.(Disposable); ok {
		d.Destroy()
	}
	sm.currentScene = nil
}

// Update updates the currently active scene.
// If no scene is active, this method does nothing.
// deltaTime is the time elapsed since the last update in seconds.
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw renders the currently active scene to the provided screen.
// If no scene is active, this method does nothing.
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}

var errNoSceneFactory = errors.New("scene factory not set")
