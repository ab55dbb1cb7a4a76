package components

// FurnitureComponent 家具实体
//
// 家具的生命周期：
//   - 放置中（Placing）：跟随指针移动，松开时若位置合法则提交
//   - 已提交：占用网格格子，可以在编辑模式下拖起、翻转、删除
type FurnitureComponent struct {
	// InstanceID 家具实例ID（在布局中唯一）
	InstanceID string

	// FurnitureID 家具定义ID
	FurnitureID string

	// Cols/Rows 占用的格子数
	Cols, Rows int

	// Well 是否放在井格区域（使用独立的占用数组）
	Well bool

	// Flip 是否水平翻转
	Flip bool

	// GridKey/CellX/CellY 当前锚点格子（左上角）
	GridKey      string
	CellX, CellY int

	// Committed 是否已提交（占用网格）
	Committed bool

	// Placing 是否处于放置中（新建尚未提交）
	Placing bool

	// Dragging 已提交的家具是否正被拖起
	Dragging bool

	// Valid 当前位置是否可以放下
	Valid bool

	// GrabOffsetX/Y 按下位置相对家具左上角的偏移（地图坐标）
	GrabOffsetX, GrabOffsetY float64

	// 拖起前的位置，放下失败时恢复
	PrevGridKey  string
	PrevCellX    int
	PrevCellY    int
	PrevX, PrevY float64
}
