package game

import "github.com/decker502/mshome/pkg/utils"

// Event 编辑器向外部（UI / 状态存储）发送的一次性通知
//
// 事件类型是封闭的，使用类型选择处理：
//
//	for _, ev := range queue.Drain() {
//	    switch e := ev.(type) {
//	    case game.FurnitureUpdate:
//	        ...
//	    }
//	}
type Event interface {
	eventName() string
}

// FurnitureUpdate 家具被放下、移动或翻转
type FurnitureUpdate struct {
	ID          string      // 家具实例ID
	FurnitureID string      // 家具定义ID
	Position    utils.Point // 左上角地图坐标
	Flip        bool
}

// FurnitureDelete 家具被删除
type FurnitureDelete struct {
	ID string
}

// FurnitureCancelPlace 放置中的家具被取消
type FurnitureCancelPlace struct{}

// Zoom 缩放手势结束后的缩放值（用于 UI 滑块）
type Zoom struct {
	Value float64
}

// ZoomRange 缩放范围变化（画布尺寸或地图变化后）
type ZoomRange struct {
	Min, Max float64
}

// ZIndexUpdate 家具层级变化
type ZIndexUpdate struct {
	ID     string
	ZIndex int
}

func (FurnitureUpdate) eventName() string      { return "furnitureUpdate" }
func (FurnitureDelete) eventName() string      { return "furnitureDelete" }
func (FurnitureCancelPlace) eventName() string { return "furnitureCancelPlace" }
func (Zoom) eventName() string                 { return "zoom" }
func (ZoomRange) eventName() string            { return "zoomRange" }
func (ZIndexUpdate) eventName() string         { return "zIndexUpdate" }

// EventName 返回事件名称（用于日志）
func EventName(ev Event) string {
	return ev.eventName()
}

// EventQueue 编辑器的出站事件队列
//
// 外部可以每帧调用 Drain 轮询，也可以用 Subscribe 注册同步回调；两种方式互不影响。
// 单线程使用（ebiten 的 Update 线程），不加锁。
type EventQueue struct {
	pending     []Event
	subscribers []func(Event)
}

// NewEventQueue 创建事件队列
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Emit 发送事件
func (q *EventQueue) Emit(ev Event) {
	q.pending = append(q.pending, ev)
	for _, fn := range q.subscribers {
		fn(ev)
	}
}

// Subscribe 注册同步回调
func (q *EventQueue) Subscribe(fn func(Event)) {
	if fn != nil {
		q.subscribers = append(q.subscribers, fn)
	}
}

// Drain 返回并清空待处理事件
func (q *EventQueue) Drain() []Event {
	if len(q.pending) == 0 {
		return nil
	}
	events := q.pending
	q.pending = nil
	return events
}

// Len 返回待处理事件数量
func (q *EventQueue) Len() int {
	return len(q.pending)
}
