package config

// 编辑器布局与视口配置常量
// 所有长度单位均为像素（屏幕）或地图单位（世界）

const (
	// GridCellSize 是家具网格每个格子的边长（地图单位）
	GridCellSize = 40.0

	// HFHeight 是画布上下方 UI（标题栏 + 工具栏）占用的总高度
	// 画布高度 = 窗口高度 - HFHeight
	HFHeight = 180.0

	// HeaderHeight 是画布上方标题栏的高度，画布左上角位于 (0, HeaderHeight)
	HeaderHeight = 100.0

	// FooterHeight 是画布下方状态栏的高度
	FooterHeight = HFHeight - HeaderHeight

	// SideWidth 是侧边栏（家具列表）的最大宽度
	SideWidth = 300.0

	// MinimapMaxDimension 是小地图较长边的像素尺寸
	MinimapMaxDimension = 300.0

	// MinimapMargin 是小地图距画布左上角的边距
	MinimapMargin = 10.0

	// ZoomMin 是允许的最小缩放值（1 = 地图 1:1 显示）
	ZoomMin = 1.0

	// ZoomMax 是允许的最大缩放值上限
	// 实际上限还受地图尺寸限制：min(ZoomMax, max(地图宽/屏幕宽, 地图高/屏幕高))
	ZoomMax = 4.0

	// WheelZoomStep 是滚轮每一格的缩放倍率
	WheelZoomStep = 1.1

	// WheelSettleFrames 是滚轮停止多少帧后认为缩放手势结束
	WheelSettleFrames = 10

	// DefaultWindowWidth 默认窗口宽度
	DefaultWindowWidth = 1280

	// DefaultWindowHeight 默认窗口高度
	DefaultWindowHeight = 900
)

// 保留图层键与对应的 z-index
const (
	// LayerBack 背景图层
	LayerBack = "back"
	// LayerFront 前景图层（位于所有数字图层之上）
	LayerFront = "front"
	// LayerGrid 网格叠加层
	LayerGrid = "grid"
	// LayerFurniture 家具图层
	LayerFurniture = "furniture"

	// LayerBackZ 背景图层 z-index
	LayerBackZ = -1
	// LayerGridZ 网格叠加层 z-index
	LayerGridZ = 999
	// LayerFurnitureZ 家具图层 z-index（网格之上、前景之下）
	LayerFurnitureZ = 1000
	// LayerFrontZ 前景图层 z-index
	LayerFrontZ = 9999
)

// 主题令牌
const (
	// DefaultThemeToken 默认主题（值为 0）
	DefaultThemeToken = "0"
)
