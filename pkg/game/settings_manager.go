package game

import (
	"fmt"
	"log"

	"github.com/decker502/mshome/pkg/config"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// EditorSettings 编辑器全局设置
// 注意：这些设置跨地图共享，不属于某一个户型
type EditorSettings struct {
	LastSelectID string  `yaml:"lastSelectId"` // 上次打开的户型（主题ID）
	Zoom         float64 `yaml:"zoom"`         // 上次的缩放值，0 表示未设置
	ShowGrid     bool    `yaml:"showGrid"`     // 是否显示家具网格
	SideOpen     bool    `yaml:"sideOpen"`     // 侧边栏是否展开
}

// DefaultSettings 返回默认设置
func DefaultSettings() *EditorSettings {
	return &EditorSettings{
		LastSelectID: "",
		Zoom:         0,
		ShowGrid:     true,
		SideOpen:     true,
	}
}

// SettingsManager 设置管理器
// 负责编辑器设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager  // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *EditorSettings // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "editor"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *SettingsManager: 设置管理器实例
//   - error: 保留给调用方，加载失败不影响创建
func NewSettingsManager(gdataManager *gdata.Manager) (*SettingsManager, error) {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	if err := sm.Load(); err != nil {
		// 加载失败不是致命错误，使用默认设置
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或数据不存在，使用默认设置
//
// 返回：
//   - error: 如果读取或反序列化失败返回错误
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// 以默认值为底，旧版本数据缺失的字段保持默认
	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	loaded.Zoom = clampZoomSetting(loaded.Zoom)

	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded (select=%q, zoom=%.2f)", loaded.LastSelectID, loaded.Zoom)
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *EditorSettings {
	return sm.settings
}

// SetLastSelectID 记录最近打开的户型
func (sm *SettingsManager) SetLastSelectID(selectID string) {
	sm.settings.LastSelectID = selectID
}

// SetZoom 记录缩放值
//
// 缩放值会被限制在 [ZoomMin, ZoomMax] 范围内；0 表示清除（下次使用地图默认值）
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetZoom(zoom float64) {
	sm.settings.Zoom = clampZoomSetting(zoom)
}

// SetShowGrid 设置网格显示开关
func (sm *SettingsManager) SetShowGrid(show bool) {
	sm.settings.ShowGrid = show
}

// SetSideOpen 设置侧边栏开关
func (sm *SettingsManager) SetSideOpen(open bool) {
	sm.settings.SideOpen = open
}

// clampZoomSetting 将缩放值限制在全局范围内（地图相关的上限由视口再次收紧）
func clampZoomSetting(zoom float64) float64 {
	if zoom <= 0 {
		return 0
	}
	if zoom < config.ZoomMin {
		return config.ZoomMin
	}
	if zoom > config.ZoomMax {
		return config.ZoomMax
	}
	return zoom
}
