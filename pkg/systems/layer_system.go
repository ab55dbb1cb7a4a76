package systems

import (
	"log"
	"math"
	"sort"
	"strconv"

	"github.com/decker502/mshome/pkg/config"
)

// SceneLayer 场景图层
//
// 图层只是一个排序与透明度分组，实体通过 SceneEntityComponent.Layer 引用图层键。
type SceneLayer struct {
	Key     string
	ZIndex  int
	Alpha   float64
	Visible bool
}

// LayerSystem 管理当前地图的场景图层
//
// 图层按需创建，每个键最多一个图层，生命周期与当前地图相同。
// 保留键的 z-index：back = -1，grid = 999，furniture = 1000，front = 9999；
// 数字键的 z-index 为其数值。
type LayerSystem struct {
	layers map[string]*SceneLayer
}

// NewLayerSystem 创建图层系统
func NewLayerSystem() *LayerSystem {
	return &LayerSystem{
		layers: make(map[string]*SceneLayer),
	}
}

// Layer 返回指定键的图层，不存在时创建
// 参数:
//   - key: 图层键（保留键或数字键）
//
// 返回:
//   - *SceneLayer: 图层（同一个键多次调用返回同一个图层）
func (s *LayerSystem) Layer(key string) *SceneLayer {
	if layer, ok := s.layers[key]; ok {
		return layer
	}

	layer := &SceneLayer{
		Key:     key,
		ZIndex:  layerZIndex(key),
		Alpha:   1,
		Visible: true,
	}
	s.layers[key] = layer
	return layer
}

// Lookup 返回已存在的图层，不会创建
func (s *LayerSystem) Lookup(key string) (*SceneLayer, bool) {
	layer, ok := s.layers[key]
	return layer, ok
}

// SetAlpha 设置图层透明度（图层不存在时创建）
func (s *LayerSystem) SetAlpha(key string, alpha float64) {
	s.Layer(key).Alpha = alpha
}

// Sorted 返回按 z-index 升序排列的图层，z-index 相同时按键排序
func (s *LayerSystem) Sorted() []*SceneLayer {
	result := make([]*SceneLayer, 0, len(s.layers))
	for _, layer := range s.layers {
		result = append(result, layer)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].ZIndex != result[j].ZIndex {
			return result[i].ZIndex < result[j].ZIndex
		}
		return result[i].Key < result[j].Key
	})
	return result
}

// Count 返回图层数量
func (s *LayerSystem) Count() int {
	return len(s.layers)
}

// Reset 丢弃所有图层（切换地图时调用）
func (s *LayerSystem) Reset() {
	s.layers = make(map[string]*SceneLayer)
}

// layerZIndex 计算图层键对应的 z-index
func layerZIndex(key string) int {
	switch key {
	case config.LayerBack:
		return config.LayerBackZ
	case config.LayerGrid:
		return config.LayerGridZ
	case config.LayerFurniture:
		return config.LayerFurnitureZ
	case config.LayerFront:
		return config.LayerFrontZ
	}

	v, err := strconv.ParseFloat(key, 64)
	if err != nil {
		log.Printf("[LayerSystem] Warning: unknown layer key %q, using z-index 0", key)
		return 0
	}
	return int(math.Round(v))
}
