// Package embedded 提供嵌入资源的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量必须声明在项目根目录（embed.go）。
// 本包按路径前缀把访问分发到图片资源（assets/）或内容目录（data/）。
//
// 使用前必须调用 Init() 初始化。命令行指定 -data 目录时，
// 也可以传入 os.DirFS 替换嵌入的内容目录。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// 路径前缀
const (
	AssetsPrefix = "assets/"
	DataPrefix   = "data/"
)

var errNotInitialized = errors.New("embedded package not initialized, call Init() first")

var (
	assetsFS    fs.FS
	dataFS      fs.FS
	initialized bool
)

// Init 设置资源文件系统
// 必须在 main() 开始时、任何资源加载之前调用
//
// 参数:
//   - assets: 包含 assets/ 目录的文件系统，可为 nil（所有图片回退为纯色）
//   - data: 包含 data/ 目录的文件系统
func Init(assets, data fs.FS) {
	assetsFS = assets
	dataFS = data
	initialized = true
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return initialized
}

// resolve 标准化路径并选择对应的文件系统
func resolve(p string) (fs.FS, string, error) {
	if !initialized {
		return nil, "", errNotInitialized
	}

	// embed.FS 使用正斜杠，且不接受 "./" 前缀
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	// 目录本身（"assets" 或 "data/"）也可以访问
	p = strings.TrimSuffix(p, "/")

	var fsys fs.FS
	switch {
	case strings.HasPrefix(p+"/", AssetsPrefix):
		fsys = assetsFS
	case strings.HasPrefix(p+"/", DataPrefix):
		fsys = dataFS
	default:
		return nil, "", fmt.Errorf("unknown resource path prefix: %s (must start with 'assets/' or 'data/')", p)
	}
	if fsys == nil {
		return nil, "", fmt.Errorf("no file system for %s: %w", p, fs.ErrNotExist)
	}
	return fsys, p, nil
}

// Open 根据路径前缀选择正确的文件系统并打开文件
// 路径必须以 "assets/" 或 "data/" 开头
func Open(path string) (fs.File, error) {
	fsys, p, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fsys.Open(p)
}

// Exists 检查文件是否存在
// 启动时用于确认 -assets 目录确实包含图片资源
func Exists(path string) bool {
	file, err := Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// Sub 返回指定目录的子文件系统
// 例如 Sub("data/catalog") 用于加载内容目录
func Sub(dir string) (fs.FS, error) {
	fsys, p, err := resolve(dir)
	if err != nil {
		return nil, err
	}
	return fs.Sub(fsys, p)
}

// FS 返回按前缀分发的组合文件系统
//
// ResourceManager 通过它以 "assets/..." 路径加载图片。
func FS() fs.FS {
	return routedFS{}
}

type routedFS struct{}

func (routedFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return Open(name)
}
