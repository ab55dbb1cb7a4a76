package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene represents an editor scene (e.g., the floor-plan canvas).
// Each scene has its own update and rendering logic.
type Scene interface {
	// Update updates the scene logic based on the elapsed time.
	// deltaTime is the time elapsed since the last update in seconds.
	Update(deltaTime float64)

	// Draw renders the scene to the provided screen.
	// screen is the target image where the scene should be drawn.
	Draw(screen *ebiten.Image)
}

// Disposable 是一个可选接口，用于场景在被替换或程序退出时释放资源
//
// 实现此接口的场景会在以下时机被调用 Destroy()：
//   - SceneManager 切换到另一个场景
//   - 窗口关闭
//
// Destroy 必须可以重复调用。
type Disposable interface {
	Destroy()
}
