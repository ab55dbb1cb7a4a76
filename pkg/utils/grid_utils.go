package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PointToCell 将地图坐标转换为网格坐标
// 参数:
//   - p: 地图坐标
//   - origin: 网格左上角（地图坐标）
//   - cols, rows: 网格列数、行数
//   - cellSize: 格子边长
//
// 返回:
//   - x: 列索引 (0 ~ cols-1)
//   - y: 行索引 (0 ~ rows-1)
//   - isValid: 是否在网格范围内
func PointToCell(p, origin Point, cols, rows int, cellSize float64) (x, y int, isValid bool) {
	if cellSize <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}

	fx := math.Floor((p.X - origin.X) / cellSize)
	fy := math.Floor((p.Y - origin.Y) / cellSize)
	if fx < 0 || fy < 0 || fx >= float64(cols) || fy >= float64(rows) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// CellToPoint 返回格子左上角的地图坐标
func CellToPoint(x, y int, origin Point, cellSize float64) Point {
	return Point{
		X: origin.X + float64(x)*cellSize,
		Y: origin.Y + float64(y)*cellSize,
	}
}

// ParseCellKey 解析 "x,y" 形式的格子键（地图定义中禁用格子的写法）
func ParseCellKey(key string) (x, y int, err error) {
	parts := strings.Split(key, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cell key %q: want \"x,y\"", key)
	}
	x, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell key %q: %w", key, err)
	}
	y, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell key %q: %w", key, err)
	}
	return x, y, nil
}
