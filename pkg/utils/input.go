package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// InputSnapshot 存储当前帧的输入状态
//
// 统一处理鼠标、滚轮、触摸和键盘输入。
// 视口与家具系统只读取快照，不直接调用 ebiten，
// 这样测试可以直接构造输入。
type InputSnapshot struct {
	// Pointer 指针位置（画布坐标）
	Pointer Point
	// Pressed 指针是否处于按下状态（鼠标左键或单指触摸）
	Pressed bool
	// JustPressed 指针是否在本帧刚按下
	JustPressed bool
	// JustReleased 指针是否在本帧刚松开
	JustReleased bool
	// WheelY 滚轮纵向偏移（向上为正）
	WheelY float64
	// Touches 当前所有触摸点（画布坐标），两指及以上用于缩放手势
	Touches []Point
	// Keys 本帧刚按下的按键
	Keys []ebiten.Key
}

// KeyJustPressed 检查按键是否在本帧刚按下
func (s InputSnapshot) KeyJustPressed(key ebiten.Key) bool {
	for _, k := range s.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// IsPinching 是否处于双指缩放状态
func (s InputSnapshot) IsPinching() bool {
	return len(s.Touches) >= 2
}

// rawInput 一帧的原始输入（窗口坐标），由 sampleInput 从 ebiten 读取
type rawInput struct {
	touches           []Point
	touchJustPressed  bool
	touchJustReleased bool

	cursor            Point
	mousePressed      bool
	mouseJustPressed  bool
	mouseJustReleased bool

	wheelY float64
	keys   []ebiten.Key
}

func sampleInput() rawInput {
	raw := rawInput{
		touchJustPressed:  len(inpututil.AppendJustPressedTouchIDs(nil)) > 0,
		touchJustReleased: len(inpututil.AppendJustReleasedTouchIDs(nil)) > 0,
		mousePressed:      ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		mouseJustPressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		mouseJustReleased: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		keys:              inpututil.AppendJustPressedKeys(nil),
	}
	for _, id := range ebiten.AppendTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		raw.touches = append(raw.touches, Point{X: float64(x), Y: float64(y)})
	}
	x, y := ebiten.CursorPosition()
	raw.cursor = Point{X: float64(x), Y: float64(y)}
	_, raw.wheelY = ebiten.Wheel()
	return raw
}

// InputReader 逐帧读取输入并生成 InputSnapshot
//
// 最后一根手指抬起的那一帧已经没有触摸点，松开位置取上一帧记录的触摸位置，
// 否则会落到鼠标光标上。
type InputReader struct {
	lastTouch Point
	touching  bool
}

// NewInputReader 创建输入读取器
func NewInputReader() *InputReader {
	return &InputReader{}
}

// Read 读取当前帧的输入状态
// 参数:
//   - origin: 画布左上角在窗口中的位置，所有坐标都转换为画布坐标
func (r *InputReader) Read(origin Point) InputSnapshot {
	return r.snapshot(sampleInput(), origin)
}

// snapshot 把原始输入转换为画布坐标的快照
func (r *InputReader) snapshot(raw rawInput, origin Point) InputSnapshot {
	state := InputSnapshot{
		WheelY: raw.wheelY,
		Keys:   raw.keys,
	}

	// 首先检查触摸输入（移动设备）
	for _, p := range raw.touches {
		state.Touches = append(state.Touches, p.Sub(origin))
	}

	switch {
	case len(raw.touches) > 0:
		r.lastTouch = raw.touches[0]
		r.touching = true
		state.Pointer = state.Touches[0]
		state.Pressed = true
		state.JustPressed = raw.touchJustPressed

	case r.touching || raw.touchJustReleased:
		// 触摸抬起：使用最后一次触摸位置
		state.Pointer = r.lastTouch.Sub(origin)
		state.JustReleased = true
		r.touching = false

	default:
		// 其次检查鼠标输入（桌面设备）
		state.Pointer = raw.cursor.Sub(origin)
		state.Pressed = raw.mousePressed
		state.JustPressed = raw.mouseJustPressed
		state.JustReleased = raw.mouseJustReleased
	}

	return state
}

// AppWidthFor 根据窗口宽度和侧边栏状态计算画布宽度
//
// 侧边栏宽度为 min(窗口宽度 - 30, sideWidth)，
// 保证窄窗口下画布仍保留至少 30 像素。
func AppWidthFor(windowWidth float64, sideOpen bool, sideWidth float64) float64 {
	if !sideOpen {
		return windowWidth
	}
	side := windowWidth - 30
	if sideWidth < side {
		side = sideWidth
	}
	if side < 0 {
		side = 0
	}
	return windowWidth - side
}
