// Package utils 提供编辑器各处共用的工具类型与函数
//
// geometry.go 定义坐标系统使用的基础几何类型。
//
// # 坐标系统概述
//
//   - **地图坐标**：地图定义（VRLeft/VRTop 等）使用的坐标，原点通常位于地图中部，可以为负数
//   - **小地图坐标**：地图坐标 + 地图中心偏移（Center），原点为小地图左上角
//   - **屏幕坐标**：相对于画布左上角，由视口的缩放与平移决定
//
// 视口缩放值（Zoom）表示"每个屏幕像素对应多少地图单位"，
// 1 表示 1:1，数值越大看到的范围越大。
package utils

import "math"

// Point 二维坐标点
type Point struct {
	X, Y float64
}

// Add 返回 p + q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub 返回 p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale 返回 p * s
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Distance 返回两点间距离
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Size 宽高
type Size struct {
	Width, Height float64
}

// Edges 地图可视边界（地图坐标）
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Width 返回边界宽度
func (e Edges) Width() float64 {
	return e.Right - e.Left
}

// Height 返回边界高度
func (e Edges) Height() float64 {
	return e.Bottom - e.Top
}

// Rect 返回边界对应的矩形
func (e Edges) Rect() Rect {
	return Rect{X: e.Left, Y: e.Top, Width: e.Width(), Height: e.Height()}
}

// Rect 轴对齐矩形，(X, Y) 为左上角
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Right 返回右边界
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom 返回下边界
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Contains 检查点是否在矩形内（左闭右开）
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// ContainsRect 检查 other 是否完全位于 r 之内
// 允许 1e-9 的浮点误差
func (r Rect) ContainsRect(other Rect) bool {
	const eps = 1e-9
	return other.X >= r.X-eps && other.Y >= r.Y-eps &&
		other.Right() <= r.Right()+eps && other.Bottom() <= r.Bottom()+eps
}

// Intersect 返回两个矩形的交集，不相交时返回零宽高矩形
func (r Rect) Intersect(other Rect) Rect {
	x0 := math.Max(r.X, other.X)
	y0 := math.Max(r.Y, other.Y)
	x1 := math.Min(r.Right(), other.Right())
	y1 := math.Min(r.Bottom(), other.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Transform 地图坐标到屏幕坐标的均匀缩放 + 平移变换
//
//	screen = world * Scale + Offset
//
// 主视图和小地图使用同一套渲染代码，只是变换不同。
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Apply 将地图坐标转换为屏幕坐标
func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.Scale + t.OffsetX, Y: p.Y*t.Scale + t.OffsetY}
}

// ApplyRect 转换矩形
func (t Transform) ApplyRect(r Rect) Rect {
	p := t.Apply(Point{X: r.X, Y: r.Y})
	return Rect{X: p.X, Y: p.Y, Width: r.Width * t.Scale, Height: r.Height * t.Scale}
}

// Invert 将屏幕坐标转换回地图坐标
func (t Transform) Invert(p Point) Point {
	if t.Scale == 0 {
		return Point{}
	}
	return Point{X: (p.X - t.OffsetX) / t.Scale, Y: (p.Y - t.OffsetY) / t.Scale}
}

// Clamp 将 v 限制在 [lo, hi] 范围内
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
