package config

import (
	"errors"
	"fmt"
)

// ErrContent 内容错误哨兵值
//
// 引用了目录中不存在的地图/主题/家具，或内容定义本身不合法。
// 这类错误说明内容与数据不匹配，而不是运行时故障，必须返回给调用方。
//
//	if errors.Is(err, config.ErrContent) { ... }
var ErrContent = errors.New("content error")

// ContentError 描述缺失的内容条目
type ContentError struct {
	Kind string // 内容类型："theme", "map", "furniture"
	ID   string // 被引用的ID
}

// Error 实现 error 接口
func (e *ContentError) Error() string {
	return fmt.Sprintf("%s %q not found in catalog", e.Kind, e.ID)
}

// Is 使 errors.Is(err, ErrContent) 成立
func (e *ContentError) Is(target error) bool {
	return target == ErrContent
}

// contentErrorf 构造一个包装 ErrContent 的格式化错误（用于内容校验失败）
func contentErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrContent, fmt.Sprintf(format, args...))
}
