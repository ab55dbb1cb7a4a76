package systems

import (
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/decker502/mshome/pkg/components"
	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/ecs"
	"github.com/hajimehoshi/ebiten/v2"
)

// ImageLoader 按路径加载图片（由 ResourceManager 实现）
type ImageLoader interface {
	LoadImage(path string) (*ebiten.Image, error)
}

// ResolveThemeToken 将主题值转换为主题令牌
// 数值为 0（或空）时为默认令牌 "0"，其他值加前缀 "s"，如 "2" → "s2"
func ResolveThemeToken(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return config.DefaultThemeToken
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil && n == 0 {
		return config.DefaultThemeToken
	}
	return "s" + v
}

// ThemeSystem 管理地图物件的主题
//
// 物件按 类型 → 索引 → 实体 建立索引，应用主题时只处理对应类型的物件。
type ThemeSystem struct {
	entityManager *ecs.EntityManager
	images        ImageLoader
	index         map[string]map[string]ecs.EntityID
}

// NewThemeSystem 创建主题系统
// images 可以为 nil，此时只更新主题令牌，物件保持纯色显示
func NewThemeSystem(em *ecs.EntityManager, images ImageLoader) *ThemeSystem {
	return &ThemeSystem{
		entityManager: em,
		images:        images,
		index:         make(map[string]map[string]ecs.EntityID),
	}
}

// Register 将物件实体加入索引，并按当前主题令牌设置图片
func (s *ThemeSystem) Register(id ecs.EntityID) {
	obj, ok := ecs.GetComponent[*components.MapObjectComponent](s.entityManager, id)
	if !ok {
		return
	}
	byIndex, ok := s.index[obj.ObjectType]
	if !ok {
		byIndex = make(map[string]ecs.EntityID)
		s.index[obj.ObjectType] = byIndex
	}
	if prev, dup := byIndex[obj.ObjectIndex]; dup {
		log.Printf("[ThemeSystem] Warning: duplicate object %s/%s (entity %d replaces %d)", obj.ObjectType, obj.ObjectIndex, id, prev)
	}
	byIndex[obj.ObjectIndex] = id

	if obj.Theme == "" {
		obj.Theme = config.DefaultThemeToken
	}
	s.applyImage(id, obj)
}

// Lookup 按类型和索引查找物件实体
func (s *ThemeSystem) Lookup(objectType, objectIndex string) (ecs.EntityID, bool) {
	id, ok := s.index[objectType][objectIndex]
	return id, ok
}

// Count 返回某类型物件数量
func (s *ThemeSystem) Count(objectType string) int {
	return len(s.index[objectType])
}

// ApplyTheme 按类型应用主题
// 参数:
//   - theme: 物件类型 → 主题值
//
// 返回:
//   - int: 实际发生变化的物件数量（没有实例的类型直接跳过）
func (s *ThemeSystem) ApplyTheme(theme map[string]string) int {
	types := make([]string, 0, len(theme))
	for objectType := range theme {
		types = append(types, objectType)
	}
	sort.Strings(types)

	changed := 0
	for _, objectType := range types {
		byIndex := s.index[objectType]
		if len(byIndex) == 0 {
			continue
		}
		token := ResolveThemeToken(theme[objectType])
		for _, id := range byIndex {
			obj, ok := ecs.GetComponent[*components.MapObjectComponent](s.entityManager, id)
			if !ok || obj.Theme == token {
				continue
			}
			obj.Theme = token
			s.applyImage(id, obj)
			changed++
		}
	}

	if changed > 0 {
		log.Printf("[ThemeSystem] Applied theme to %d objects", changed)
	}
	return changed
}

// applyImage 按主题令牌选择图片，缺少变体时回退到默认主题
func (s *ThemeSystem) applyImage(id ecs.EntityID, obj *components.MapObjectComponent) {
	sprite, ok := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	if !ok {
		return
	}

	path, ok := obj.Variants[obj.Theme]
	if !ok || path == "" {
		path = obj.Variants[config.DefaultThemeToken]
	}
	if path == "" || s.images == nil {
		sprite.Image = nil
		return
	}

	img, err := s.images.LoadImage(path)
	if err != nil {
		log.Printf("[ThemeSystem] Failed to load %s for %s/%s: %v", path, obj.ObjectType, obj.ObjectIndex, err)
		sprite.Image = nil
		return
	}
	sprite.Image = img
}
