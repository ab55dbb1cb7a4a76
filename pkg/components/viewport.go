package components

import "github.com/decker502/mshome/pkg/utils"

// ViewportComponent 管理主视图的镜头状态
//
// 坐标换算（Center 为视口中心的地图坐标）：
//
//	worldX = CenterX + (screenX - ScreenWidth/2) * Zoom
//	worldY = CenterY + (screenY - ScreenHeight/2) * Zoom
type ViewportComponent struct {
	// ScreenWidth/ScreenHeight 画布尺寸（像素）
	ScreenWidth, ScreenHeight float64

	// WorldWidth/WorldHeight 地图尺寸（地图单位）
	WorldWidth, WorldHeight float64

	// Edges 地图可视边界
	Edges utils.Edges

	// Zoom 每个屏幕像素对应的地图单位
	Zoom float64

	// MinZoom/MaxZoom 当前允许的缩放范围
	MinZoom, MaxZoom float64

	// CenterX/CenterY 视口中心（地图坐标）
	CenterX, CenterY float64

	// Dirty 本帧视口是否发生变化（moved 事件待发送）
	Dirty bool

	// ZoomPending 缩放手势进行中，手势结束后发送 zoom-settled
	ZoomPending bool

	// WheelIdleFrames 距上次滚轮输入的帧数
	WheelIdleFrames int

	// 双指缩放起始状态
	PinchActive    bool
	PinchDistance  float64
	PinchStartZoom float64
}
