package utils

// DragState 拖拽状态
type DragState int

const (
	// DragStateNone 未按下
	DragStateNone DragState = iota
	// DragStatePending 已按下但移动距离未超过阈值（可能是点击）
	DragStatePending
	// DragStateDragging 拖拽中
	DragStateDragging
)

// DefaultDragThreshold 默认拖拽判定阈值（像素）
const DefaultDragThreshold = 4.0

// DragTracker 根据每帧输入快照跟踪一次按下-拖动-松开的手势
//
// 视口平移和家具拖放共用这一状态机：
// 按下后移动超过阈值才进入拖拽状态，否则松开时视为点击。
type DragTracker struct {
	Threshold float64

	state        DragState
	start        Point
	last         Point
	delta        Point
	justStarted  bool
	justEnded    bool
	endedAsClick bool
}

// NewDragTracker 创建拖拽跟踪器
func NewDragTracker(threshold float64) *DragTracker {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &DragTracker{Threshold: threshold}
}

// Update 处理一帧输入
func (d *DragTracker) Update(s InputSnapshot) {
	d.delta = Point{}
	d.justStarted = false
	d.justEnded = false
	d.endedAsClick = false

	// 双指缩放期间不产生拖拽
	if s.IsPinching() {
		d.state = DragStateNone
		return
	}

	if s.JustPressed {
		d.state = DragStatePending
		d.start = s.Pointer
		d.last = s.Pointer
		return
	}

	if d.state == DragStateNone {
		return
	}

	if !s.Pressed || s.JustReleased {
		d.justEnded = true
		d.endedAsClick = d.state == DragStatePending
		d.state = DragStateNone
		return
	}

	d.delta = s.Pointer.Sub(d.last)
	d.last = s.Pointer
	if d.state == DragStatePending && s.Pointer.Distance(d.start) > d.Threshold {
		d.state = DragStateDragging
		d.justStarted = true
		// 首帧位移包含阈值内累计的移动
		d.delta = s.Pointer.Sub(d.start)
	}
}

// Reset 放弃当前手势
func (d *DragTracker) Reset() {
	*d = DragTracker{Threshold: d.Threshold}
}

// State 返回当前状态
func (d *DragTracker) State() DragState {
	return d.state
}

// IsDragging 是否正在拖拽
func (d *DragTracker) IsDragging() bool {
	return d.state == DragStateDragging
}

// Delta 返回本帧拖拽位移（屏幕坐标），未拖拽时为零
func (d *DragTracker) Delta() Point {
	if d.state != DragStateDragging {
		return Point{}
	}
	return d.delta
}

// Start 返回按下位置
func (d *DragTracker) Start() Point {
	return d.start
}

// JustStarted 本帧是否刚进入拖拽状态
func (d *DragTracker) JustStarted() bool {
	return d.justStarted
}

// JustEnded 本帧是否刚结束手势（拖拽或点击）
func (d *DragTracker) JustEnded() bool {
	return d.justEnded
}

// EndedAsClick 本帧结束的手势是否为点击（未超过拖拽阈值）
func (d *DragTracker) EndedAsClick() bool {
	return d.endedAsClick
}
