package embedded

import (
	"errors"
	"io"
	"io/fs"
	"testing"
	"testing/fstest"
)

func testFS() (assets, data fstest.MapFS) {
	assets = fstest.MapFS{
		"assets/objects/wall.png":  {Data: []byte("png")},
		"assets/furniture/bed.png": {Data: []byte("bed")},
	}
	data = fstest.MapFS{
		"data/catalog/maps.yaml":   {Data: []byte("maps")},
		"data/catalog/themes.yaml": {Data: []byte("themes")},
	}
	return assets, data
}

func resetEmbedded() {
	assetsFS, dataFS, initialized = nil, nil, false
}

// TestNotInitialized 未初始化时所有访问都返回错误
func TestNotInitialized(t *testing.T) {
	resetEmbedded()

	if IsInitialized() {
		t.Fatal("Expected IsInitialized() to return false before Init()")
	}

	calls := map[string]func() error{
		"Open": func() error { _, err := Open("assets/a.png"); return err },
		"Sub":  func() error { _, err := Sub("data/catalog"); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, errNotInitialized) {
			t.Errorf("%s() error = %v, want not initialized", name, err)
		}
	}
	if Exists("assets/a.png") {
		t.Error("Expected Exists() to return false before Init()")
	}
}

// TestRouting 按路径前缀分发
func TestRouting(t *testing.T) {
	resetEmbedded()
	defer resetEmbedded()
	assets, data := testFS()
	Init(assets, data)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"图片资源", "assets/objects/wall.png", "png", false},
		{"内容目录", "data/catalog/maps.yaml", "maps", false},
		{"点斜杠前缀", "./data/catalog/themes.yaml", "themes", false},
		{"未知前缀", "other/file.txt", "", true},
		{"前缀不完整", "assetsx/wall.png", "", true},
		{"文件不存在", "assets/missing.png", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []byte
			file, err := Open(tt.path)
			if err == nil {
				got, err = io.ReadAll(file)
				file.Close()
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("Open(%q) content = %q, want %q", tt.path, got, tt.want)
			}
			if Exists(tt.path) == tt.wantErr {
				t.Errorf("Exists(%q) = %v", tt.path, !tt.wantErr)
			}
		})
	}
}

// TestSub 子文件系统用于加载内容目录
func TestSub(t *testing.T) {
	resetEmbedded()
	defer resetEmbedded()
	assets, data := testFS()
	Init(assets, data)

	sub, err := Sub("data/catalog/")
	if err != nil {
		t.Fatalf("Sub() error: %v", err)
	}
	if b, err := fs.ReadFile(sub, "maps.yaml"); err != nil || string(b) != "maps" {
		t.Errorf("ReadFile(sub, maps.yaml) = %q, %v", b, err)
	}
	matches, err := fs.Glob(sub, "*.yaml")
	if err != nil || len(matches) != 2 {
		t.Errorf("Glob(sub, *.yaml) = %v, %v", matches, err)
	}
}

// TestNilAssets 没有图片资源时图片路径返回不存在
func TestNilAssets(t *testing.T) {
	resetEmbedded()
	defer resetEmbedded()
	_, data := testFS()
	Init(nil, data)

	if _, err := Open("assets/objects/wall.png"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open() error = %v, want ErrNotExist", err)
	}
	if !Exists("data/catalog/maps.yaml") {
		t.Error("data files should still be available")
	}
}

// TestFS 组合文件系统可以直接交给 fs.ReadFile / ResourceManager
func TestFS(t *testing.T) {
	resetEmbedded()
	defer resetEmbedded()
	assets, data := testFS()
	Init(assets, data)

	fsys := FS()
	if b, err := fs.ReadFile(fsys, "assets/furniture/bed.png"); err != nil || string(b) != "bed" {
		t.Errorf("ReadFile(FS, bed.png) = %q, %v", b, err)
	}
	if _, err := fsys.Open("../assets/x.png"); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("Open(invalid) error = %v, want ErrInvalid", err)
	}
}

// TestExistsDir 资源根目录本身可以检查是否存在
func TestExistsDir(t *testing.T) {
	resetEmbedded()
	defer resetEmbedded()
	_, data := testFS()
	Init(fstest.MapFS{}, data)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"内容目录", "data", true},
		{"带斜杠", "data/", true},
		{"空的图片目录", "assets", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Exists(tt.path); got != tt.want {
				t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
