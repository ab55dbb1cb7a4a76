package components

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// SpriteComponent 存储实体的视觉表现
//
// Image 为 nil 时使用 Color 绘制纯色矩形（内容未提供图片时的占位表现）。
// Width/Height 是在地图坐标中的显示尺寸，图片会被缩放到该尺寸。
type SpriteComponent struct {
	Image  *ebiten.Image
	Color  color.NRGBA
	Width  float64
	Height float64

	// FlipX 水平翻转
	FlipX bool

	// Alpha 透明度 (0.0-1.0)
	Alpha float64
}
