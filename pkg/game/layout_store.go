package game

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/decker502/mshome/pkg/utils"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// FurnitureRecord 一件已放置家具的持久化记录
//
// Position 为家具左上角的地图坐标，与 FurnitureUpdate 事件一致。
type FurnitureRecord struct {
	ID          string  `yaml:"id"`
	FurnitureID string  `yaml:"furnitureId"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Flip        bool    `yaml:"flip,omitempty"`
	ZIndex      int     `yaml:"zIndex"`
}

// Position 返回左上角坐标
func (r FurnitureRecord) Position() utils.Point {
	return utils.Point{X: r.X, Y: r.Y}
}

// layoutData 一个地图模板的布局存档
type layoutData struct {
	Furniture []FurnitureRecord `yaml:"furniture"`
}

// 存储路径常量
const (
	layoutObject         = "layouts"
	layoutPropertyPrefix = "map_"
)

// LayoutStore 家具布局存储
//
// 布局按地图模板保存：共用同一个模板的户型只是主题不同，家具布局也相同。
//
// 职责：
//   - 按地图模板ID加载和保存已放置家具
//   - 订阅编辑器事件，把 FurnitureUpdate / FurnitureDelete / ZIndexUpdate 折叠为记录表
//
// 编辑器核心不做磁盘 I/O，持久化全部在这里完成。gdataManager 为 nil 时仅内存保存。
type LayoutStore struct {
	gdataManager *gdata.Manager
	mapID        string
	records      map[string]*FurnitureRecord
	dirty        bool

	// memory 降级模式下已保存的布局
	memory map[string][]FurnitureRecord
}

// NewLayoutStore 创建布局存储
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式）
func NewLayoutStore(gdataManager *gdata.Manager) *LayoutStore {
	return &LayoutStore{
		gdataManager: gdataManager,
		records:      make(map[string]*FurnitureRecord),
		memory:       make(map[string][]FurnitureRecord),
	}
}

// Open 切换到指定地图模板并加载其布局
//
// 切换前不会自动保存，调用方需要先调用 Save。
//
// 参数：
//   - mapID: 地图模板ID
//
// 返回：
//   - error: 读取或反序列化失败时返回错误，此时记录表为空
func (ls *LayoutStore) Open(mapID string) error {
	ls.mapID = mapID
	ls.records = make(map[string]*FurnitureRecord)
	ls.dirty = false

	if ls.gdataManager == nil {
		for _, r := range ls.memory[mapID] {
			r := r
			ls.records[r.ID] = &r
		}
		return nil
	}

	prop := layoutProperty(mapID)
	if !ls.gdataManager.ObjectPropExists(layoutObject, prop) {
		return nil
	}

	data, err := ls.gdataManager.LoadObjectProp(layoutObject, prop)
	if err != nil {
		return fmt.Errorf("failed to load layout %s: %w", mapID, err)
	}

	var loaded layoutData
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to unmarshal layout %s: %w", mapID, err)
	}

	for i := range loaded.Furniture {
		r := loaded.Furniture[i]
		if r.ID == "" || r.FurnitureID == "" {
			log.Printf("[LayoutStore] Skipping incomplete record in %s: %+v", mapID, r)
			continue
		}
		ls.records[r.ID] = &r
	}
	log.Printf("[LayoutStore] Loaded %d furniture for %s", len(ls.records), mapID)
	return nil
}

// MapID 返回当前布局的地图模板ID
func (ls *LayoutStore) MapID() string {
	return ls.mapID
}

// Records 返回当前布局的所有记录（按 z-index、ID 排序）
func (ls *LayoutStore) Records() []FurnitureRecord {
	list := make([]FurnitureRecord, 0, len(ls.records))
	for _, r := range ls.records {
		list = append(list, *r)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ZIndex != list[j].ZIndex {
			return list[i].ZIndex < list[j].ZIndex
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// Dirty 是否有未保存的修改
func (ls *LayoutStore) Dirty() bool {
	return ls.dirty
}

// Apply 把一个编辑器事件折叠进记录表
//
// 可直接作为 EventQueue.Subscribe 的回调。与布局无关的事件被忽略。
func (ls *LayoutStore) Apply(ev Event) {
	switch e := ev.(type) {
	case FurnitureUpdate:
		r, ok := ls.records[e.ID]
		if !ok {
			r = &FurnitureRecord{ID: e.ID, ZIndex: ls.topZIndex() + 1}
			ls.records[e.ID] = r
		}
		r.FurnitureID = e.FurnitureID
		r.X, r.Y = e.Position.X, e.Position.Y
		r.Flip = e.Flip
		ls.dirty = true
	case FurnitureDelete:
		if _, ok := ls.records[e.ID]; ok {
			delete(ls.records, e.ID)
			ls.dirty = true
		}
	case ZIndexUpdate:
		if r, ok := ls.records[e.ID]; ok {
			r.ZIndex = e.ZIndex
			ls.dirty = true
		}
	}
}

// Save 保存当前布局
//
// 没有修改或未打开布局时直接返回 nil；降级模式下只保存在内存中
func (ls *LayoutStore) Save() error {
	if !ls.dirty || ls.mapID == "" {
		return nil
	}
	if ls.gdataManager == nil {
		ls.memory[ls.mapID] = ls.Records()
		ls.dirty = false
		return nil
	}

	data, err := yaml.Marshal(layoutData{Furniture: ls.Records()})
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	if err := ls.gdataManager.SaveObjectProp(layoutObject, layoutProperty(ls.mapID), data); err != nil {
		return fmt.Errorf("failed to save layout %s: %w", ls.mapID, err)
	}

	ls.dirty = false
	log.Printf("[LayoutStore] Saved %d furniture for %s", len(ls.records), ls.mapID)
	return nil
}

func (ls *LayoutStore) topZIndex() int {
	top := 0
	for _, r := range ls.records {
		if r.ZIndex > top {
			top = r.ZIndex
		}
	}
	return top
}

// layoutProperty 把地图模板ID转换为安全的存储键
func layoutProperty(mapID string) string {
	var b strings.Builder
	b.WriteString(layoutPropertyPrefix)
	for _, r := range mapID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
