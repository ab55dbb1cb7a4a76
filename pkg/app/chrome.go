package app

import (
	"fmt"
	"image/color"

	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/scenes"
	"github.com/decker502/mshome/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	chromeColor    = color.NRGBA{R: 0x2b, G: 0x2d, B: 0x33, A: 0xff}
	panelColor     = color.NRGBA{R: 0x36, G: 0x39, B: 0x40, A: 0xff}
	highlightColor = color.NRGBA{R: 0x40, G: 0x90, B: 0xff, A: 0x60}
	titleColor     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	textColor      = color.NRGBA{R: 0xc8, G: 0xcc, B: 0xd4, A: 0xff}
)

const (
	titleFontSize = 24
	bodyFontSize  = 14
	chromePadding = 16
	panelRowGap   = 6
)

// keyHelp 使用 Go 字体绘制，界面文字只能是拉丁字符
const keyHelp = "N place furniture  M next home  T wall theme  G grid  E edit mode  Tab side panel  " +
	"+/- zoom  F flip  Delete remove  PageUp/PageDown stack order  Esc cancel"

// drawHeader 标题栏：户型名称与地图模板
func (a *App) drawHeader(screen *ebiten.Image, scene *scenes.EditorScene) {
	name := scene.SelectID()
	if theme, err := a.catalog.Theme(scene.SelectID()); err == nil && theme.Name != "" {
		name = theme.Name
	}
	drawText(screen, name, a.resources.Font(titleFontSize, true), chromePadding, chromePadding, titleColor)

	sub := fmt.Sprintf("home %s / map %s", scene.SelectID(), scene.MapID())
	drawText(screen, sub, a.resources.Font(bodyFontSize, false), chromePadding, chromePadding+titleFontSize+8, textColor)
}

// drawFooter 状态栏：缩放、网格、编辑模式与最近一条消息
func (a *App) drawFooter(screen *ebiten.Image, scene *scenes.EditorScene) {
	face := a.resources.Font(bodyFontSize, false)
	y := config.HeaderHeight + scene.CanvasSize().Height + chromePadding/2

	state := fmt.Sprintf("zoom %.2f  grid %s  edit %s  furniture %d",
		scene.Zoom(), onOff(scene.ShowGrid()), onOff(scene.EditMode()), scene.FurnitureCount())
	if id, ok := scene.Placing(); ok {
		state += "  placing " + id
	} else if id, ok := scene.Selected(); ok {
		state += "  selected " + id
	}
	drawText(screen, state, face, chromePadding, y, titleColor)

	lineHeight := bodyFontSize + panelRowGap
	lines := utils.WrapText(keyHelp, face, scene.CanvasSize().Width-2*chromePadding)
	if a.status != "" {
		lines = append([]string{utils.FitText(a.status, face, scene.CanvasSize().Width-2*chromePadding)}, lines...)
	}
	for i, line := range lines {
		drawText(screen, line, face, chromePadding, y+float64((i+1)*lineHeight), textColor)
	}
}

// drawSidePanel 家具侧边栏，高亮下一次按 N 放置的家具
func (a *App) drawSidePanel(screen *ebiten.Image, scene *scenes.EditorScene) {
	x := scene.CanvasSize().Width
	width := float64(a.windowWidth) - x
	if width <= 0 {
		return
	}
	vector.DrawFilledRect(screen, float32(x), 0, float32(width), float32(a.windowHeight), panelColor, false)

	title := a.resources.Font(bodyFontSize+2, true)
	drawText(screen, "Furniture", title, x+chromePadding, chromePadding, titleColor)

	face := a.resources.Font(bodyFontSize, false)
	rowHeight := float64(bodyFontSize + 2*panelRowGap)
	y := float64(chromePadding + 2*bodyFontSize)
	for i, id := range a.furnitureIDs {
		if y+rowHeight > float64(a.windowHeight) {
			break
		}
		if i == a.furnitureCursor {
			vector.DrawFilledRect(screen, float32(x), float32(y-panelRowGap/2), float32(width), float32(rowHeight), highlightColor, false)
		}
		label := id
		if def, err := a.catalog.FurnitureDef(id); err == nil && def.Name != "" {
			label = fmt.Sprintf("%s (%dx%d)", def.Name, def.Cols, def.Rows)
		}
		drawText(screen, utils.FitText(label, face, width-2*chromePadding), face, x+chromePadding, y, textColor)
		y += rowHeight
	}
}

func drawText(dst *ebiten.Image, s string, face *text.GoTextFace, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, face, op)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
