package config

import (
	"fmt"
	"image/color"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// 目录文件名（位于目录根下）
const (
	MapsFile      = "maps.yaml"
	ThemesFile    = "themes.yaml"
	FurnitureFile = "furniture.yaml"
)

// Catalog 只读内容目录：地图模板、地图主题、家具
//
// 所有条目以字符串ID为键。目录在启动时加载一次，之后不会修改。
type Catalog struct {
	Maps      map[string]*MapDefinition       `yaml:"maps"`
	Themes    map[string]*MapTheme            `yaml:"themes"`
	Furniture map[string]*FurnitureDefinition `yaml:"furniture"`
}

// MapTheme 地图主题（选择ID → 地图模板）
// 多个主题可以共用同一个地图模板
type MapTheme struct {
	ID            string            `yaml:"-"`
	Name          string            `yaml:"name"`
	TemplateMapID string            `yaml:"templateMapID"`
	Theme         map[string]string `yaml:"theme"` // 默认的物件类型 → 主题值
}

// MapDefinition 地图模板定义
//
// 除了固定字段外，顶层的数字键（"0"、"1"...）为物件图层，
// 形如 {obj: {index: ObjectDescriptor}}。其余未知键（name、version 等）忽略。
type MapDefinition struct {
	ID          string                            `yaml:"-"`
	Info        MapInfo                           `yaml:"info"`
	MiniMap     MiniMapInfo                       `yaml:"miniMap"`
	HousingGrid map[string]*HousingGridDefinition `yaml:"housingGrid"`
	Back        []BackDescriptor                  `yaml:"back"`
	Layers      map[string]*LayerDefinition       `yaml:"-"`

	// Extra 收集固定字段之外的顶层键，加载时由 resolveLayers 筛选出物件图层
	Extra map[string]yaml.Node `yaml:",inline"`
}

// MapInfo 地图可视边界
type MapInfo struct {
	VRTop    float64 `yaml:"VRTop"`
	VRRight  float64 `yaml:"VRRight"`
	VRBottom float64 `yaml:"VRBottom"`
	VRLeft   float64 `yaml:"VRLeft"`
}

// MiniMapInfo 小地图显式覆盖值，0 表示未设置
type MiniMapInfo struct {
	CenterX float64 `yaml:"centerX"`
	CenterY float64 `yaml:"centerY"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
}

// HousingGridDefinition 家具网格区域定义
type HousingGridDefinition struct {
	Row      int             `yaml:"row"`
	Col      int             `yaml:"col"`
	Left     float64         `yaml:"left"`
	Top      float64         `yaml:"top"`
	Disabled map[string]bool `yaml:"disabled"` // "x,y" → true
}

// BackDescriptor 背景条目，按列表顺序渲染
type BackDescriptor struct {
	Image  string  `yaml:"image"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Color  string  `yaml:"color"`
	Alpha  float64 `yaml:"alpha"`
	Front  bool    `yaml:"front"` // true 时放入前景图层
}

// LayerDefinition 数字图层
type LayerDefinition struct {
	Obj map[string]*ObjectDescriptor `yaml:"obj"`
}

// ObjectDescriptor 地图物件（墙面、地板、装饰等非家具实体）
type ObjectDescriptor struct {
	Type     string            `yaml:"type"`  // 物件类型，主题按类型应用
	Index    string            `yaml:"index"` // 同类型内唯一，缺省为 "<图层>-<键>"
	X        float64           `yaml:"x"`
	Y        float64           `yaml:"y"`
	Z        int               `yaml:"z"`
	Width    float64           `yaml:"width"`
	Height   float64           `yaml:"height"`
	Flip     bool              `yaml:"flip"`
	Color    string            `yaml:"color"`
	Variants map[string]string `yaml:"variants"` // 主题令牌 → 图片路径
}

// PlacedObject 展平后的物件，带有来源图层键
type PlacedObject struct {
	Layer string
	Key   string
	*ObjectDescriptor
}

// FurnitureDefinition 家具定义
type FurnitureDefinition struct {
	ID     string   `yaml:"-"`
	Name   string   `yaml:"name"`
	Desc   string   `yaml:"desc"`
	Image  string   `yaml:"image"`
	Color  string   `yaml:"color"`
	Cols   int      `yaml:"cols"`   // 占用列数，默认 1
	Rows   int      `yaml:"rows"`   // 占用行数，默认 1
	Width  float64  `yaml:"width"`  // 显示宽度，默认 Cols*GridCellSize
	Height float64  `yaml:"height"` // 显示高度，默认 Rows*GridCellSize
	Well   bool     `yaml:"well"`   // 是否放在井格区域（独立占用，不与普通家具冲突）
	Hidden bool     `yaml:"hidden"` // 不出现在可选家具列表中
	Tags   []string `yaml:"tags"`
}

// LoadCatalog 从文件系统目录加载内容目录
// 参数：
//
//	fsys - 文件系统（embed.FS 子树或 os.DirFS）
//	dir  - 目录路径，包含 maps.yaml / themes.yaml / furniture.yaml
//
// 返回：
//
//	*Catalog - 解析并校验后的目录
//	error - 读取、解析或校验失败时返回错误（校验失败包装 ErrContent）
func LoadCatalog(fsys fs.FS, dir string) (*Catalog, error) {
	catalog := &Catalog{}

	files := []struct {
		name   string
		target interface{}
	}{
		{MapsFile, &catalog.Maps},
		{ThemesFile, &catalog.Themes},
		{FurnitureFile, &catalog.Furniture},
	}

	for _, f := range files {
		filePath := path.Join(dir, f.name)
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file %s: %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, f.target); err != nil {
			return nil, fmt.Errorf("failed to parse catalog YAML from %s: %w", filePath, err)
		}
	}

	if err := catalog.applyDefaults(); err != nil {
		return nil, fmt.Errorf("invalid catalog in %s: %w", dir, err)
	}

	if err := catalog.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog in %s: %w", dir, err)
	}

	return catalog, nil
}

// applyDefaults 为可选字段设置默认值，回填ID，并解析地图的物件图层
func (c *Catalog) applyDefaults() error {
	if c.Maps == nil {
		c.Maps = map[string]*MapDefinition{}
	}
	if c.Themes == nil {
		c.Themes = map[string]*MapTheme{}
	}
	if c.Furniture == nil {
		c.Furniture = map[string]*FurnitureDefinition{}
	}

	for id, m := range c.Maps {
		if m == nil {
			continue
		}
		m.ID = id
		if err := m.resolveLayers(); err != nil {
			return fmt.Errorf("map %s: %w", id, err)
		}
		for i := range m.Back {
			if m.Back[i].Alpha == 0 {
				m.Back[i].Alpha = 1
			}
		}
		for layerKey, layer := range m.Layers {
			if layer == nil {
				continue
			}
			for objKey, obj := range layer.Obj {
				if obj != nil && obj.Index == "" {
					obj.Index = layerKey + "-" + objKey
				}
			}
		}
	}

	for id, t := range c.Themes {
		if t != nil {
			t.ID = id
		}
	}

	for id, f := range c.Furniture {
		if f == nil {
			continue
		}
		f.ID = id
		if f.Cols <= 0 {
			f.Cols = 1
		}
		if f.Rows <= 0 {
			f.Rows = 1
		}
		if f.Width <= 0 {
			f.Width = float64(f.Cols) * GridCellSize
		}
		if f.Height <= 0 {
			f.Height = float64(f.Rows) * GridCellSize
		}
	}
	return nil
}

// resolveLayers 从 Extra 中取出物件图层
//
// 只有数字键且值为含 obj 的映射才是图层；标量或其他键直接跳过。
// 图层内容格式错误时返回 ErrContent。
func (m *MapDefinition) resolveLayers() error {
	m.Layers = make(map[string]*LayerDefinition)
	for key, node := range m.Extra {
		if _, err := strconv.ParseFloat(key, 64); err != nil {
			continue
		}
		if node.Kind != yaml.MappingNode {
			continue
		}
		layer := &LayerDefinition{}
		if err := node.Decode(layer); err != nil {
			return contentErrorf("layer %s: %v", key, err)
		}
		if len(layer.Obj) == 0 {
			continue
		}
		m.Layers[key] = layer
	}
	return nil
}

// validate 校验目录完整性
func (c *Catalog) validate() error {
	for id, m := range c.Maps {
		if m == nil {
			return contentErrorf("map %s: empty definition", id)
		}
		if err := m.validate(); err != nil {
			return fmt.Errorf("map %s: %w", id, err)
		}
	}

	for id, t := range c.Themes {
		if t == nil {
			return contentErrorf("theme %s: empty definition", id)
		}
		if t.TemplateMapID == "" {
			return contentErrorf("theme %s: templateMapID is required", id)
		}
		if _, ok := c.Maps[t.TemplateMapID]; !ok {
			return contentErrorf("theme %s: template map %q does not exist", id, t.TemplateMapID)
		}
	}

	for id, f := range c.Furniture {
		if f == nil {
			return contentErrorf("furniture %s: empty definition", id)
		}
		if _, err := ParseColor(f.Color); err != nil {
			return fmt.Errorf("furniture %s: %w", id, err)
		}
	}

	return nil
}

// validate 校验单个地图定义
func (m *MapDefinition) validate() error {
	if m.Info.VRRight <= m.Info.VRLeft {
		return contentErrorf("VRRight (%v) must be greater than VRLeft (%v)", m.Info.VRRight, m.Info.VRLeft)
	}
	if m.Info.VRBottom <= m.Info.VRTop {
		return contentErrorf("VRBottom (%v) must be greater than VRTop (%v)", m.Info.VRBottom, m.Info.VRTop)
	}

	for key, g := range m.HousingGrid {
		if g == nil {
			return contentErrorf("housingGrid %s: empty definition", key)
		}
		if g.Row <= 0 || g.Col <= 0 {
			return contentErrorf("housingGrid %s: row and col must be positive, got row=%d col=%d", key, g.Row, g.Col)
		}
	}

	for i, b := range m.Back {
		if _, err := ParseColor(b.Color); err != nil {
			return fmt.Errorf("back[%d]: %w", i, err)
		}
	}

	for _, obj := range m.Objects() {
		if obj.Type == "" {
			return contentErrorf("layer %s obj %s: type is required", obj.Layer, obj.Key)
		}
		if _, err := ParseColor(obj.Color); err != nil {
			return fmt.Errorf("layer %s obj %s: %w", obj.Layer, obj.Key, err)
		}
	}

	return nil
}

// ObjectLayerKeys 返回所有物件图层键（数字键且 obj 非空），按数值升序
func (m *MapDefinition) ObjectLayerKeys() []string {
	keys := make([]string, 0, len(m.Layers))
	for key, layer := range m.Layers {
		if _, err := strconv.ParseFloat(key, 64); err != nil {
			continue
		}
		if layer == nil || len(layer.Obj) == 0 {
			continue
		}
		keys = append(keys, key)
	}
	sortNumericKeys(keys)
	return keys
}

// Objects 将所有数字图层的物件展平为一个列表，每个物件带有来源图层键
// 顺序：图层数值升序，图层内按键升序
func (m *MapDefinition) Objects() []PlacedObject {
	var result []PlacedObject
	for _, layerKey := range m.ObjectLayerKeys() {
		layer := m.Layers[layerKey]
		objKeys := make([]string, 0, len(layer.Obj))
		for k, obj := range layer.Obj {
			if obj != nil {
				objKeys = append(objKeys, k)
			}
		}
		sortNumericKeys(objKeys)
		for _, k := range objKeys {
			result = append(result, PlacedObject{Layer: layerKey, Key: k, ObjectDescriptor: layer.Obj[k]})
		}
	}
	return result
}

// sortNumericKeys 数字键按数值排序，非数字键按字符串排在后面
func sortNumericKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := strconv.ParseFloat(keys[i], 64)
		b, errB := strconv.ParseFloat(keys[j], 64)
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
			return keys[i] < keys[j]
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}

// Theme 根据选择ID查找地图主题
func (c *Catalog) Theme(selectID string) (*MapTheme, error) {
	t, ok := c.Themes[selectID]
	if !ok || t == nil {
		return nil, &ContentError{Kind: "theme", ID: selectID}
	}
	return t, nil
}

// Map 根据模板ID查找地图定义
func (c *Catalog) Map(mapID string) (*MapDefinition, error) {
	m, ok := c.Maps[mapID]
	if !ok || m == nil {
		return nil, &ContentError{Kind: "map", ID: mapID}
	}
	return m, nil
}

// FurnitureDef 根据家具ID查找家具定义
func (c *Catalog) FurnitureDef(furnitureID string) (*FurnitureDefinition, error) {
	f, ok := c.Furniture[furnitureID]
	if !ok || f == nil {
		return nil, &ContentError{Kind: "furniture", ID: furnitureID}
	}
	return f, nil
}

// ThemeIDs 返回所有主题选择ID（升序）
func (c *Catalog) ThemeIDs() []string {
	ids := make([]string, 0, len(c.Themes))
	for id := range c.Themes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectableFurnitureIDs 返回可供选择的家具ID（排除 hidden），升序
func (c *Catalog) SelectableFurnitureIDs() []string {
	ids := make([]string, 0, len(c.Furniture))
	for id, f := range c.Furniture {
		if f == nil || f.Hidden {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParseColor 解析 "#RRGGBB" 或 "#RRGGBBAA" 颜色，空字符串返回透明色
func ParseColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, contentErrorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, contentErrorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
