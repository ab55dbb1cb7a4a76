package systems

import (
	"fmt"
	"testing"

	"github.com/decker502/mshome/pkg/components"
	"github.com/decker502/mshome/pkg/ecs"
	"github.com/hajimehoshi/ebiten/v2"
)

// fakeImageLoader 记录加载过的路径
type fakeImageLoader struct {
	loaded []string
	images map[string]*ebiten.Image
}

func newFakeImageLoader() *fakeImageLoader {
	return &fakeImageLoader{images: make(map[string]*ebiten.Image)}
}

func (f *fakeImageLoader) LoadImage(path string) (*ebiten.Image, error) {
	f.loaded = append(f.loaded, path)
	if path == "missing.png" {
		return nil, fmt.Errorf("not found: %s", path)
	}
	img, ok := f.images[path]
	if !ok {
		img = ebiten.NewImage(4, 4)
		f.images[path] = img
	}
	return img, nil
}

func TestResolveThemeToken(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"零", "0", "0"},
		{"空值", "", "0"},
		{"数字", "2", "s2"},
		{"非数字", "oak", "soak"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveThemeToken(tt.value); got != tt.want {
				t.Errorf("ResolveThemeToken(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func addThemeObject(em *ecs.EntityManager, objectType, index string, variants map[string]string) ecs.EntityID {
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.SpriteComponent{Width: 10, Height: 10, Alpha: 1})
	ecs.AddComponent(em, id, &components.MapObjectComponent{
		ObjectType:  objectType,
		ObjectIndex: index,
		Variants:    variants,
	})
	return id
}

func TestThemeSystemApply(t *testing.T) {
	em := ecs.NewEntityManager()
	loader := newFakeImageLoader()
	ts := NewThemeSystem(em, loader)

	wall1 := addThemeObject(em, "wall", "1", map[string]string{"0": "wall.png", "s2": "wall_s2.png"})
	wall2 := addThemeObject(em, "wall", "2", map[string]string{"0": "wall.png"})
	floor := addThemeObject(em, "floor", "1", map[string]string{"0": "floor.png", "s2": "floor_s2.png"})
	for _, id := range []ecs.EntityID{wall1, wall2, floor} {
		ts.Register(id)
	}

	if got, _ := ts.Lookup("wall", "2"); got != wall2 {
		t.Errorf("Lookup(wall, 2) = %d, want %d", got, wall2)
	}

	changed := ts.ApplyTheme(map[string]string{"wall": "2"})
	if changed != 2 {
		t.Errorf("Expected 2 changed objects, got %d", changed)
	}

	obj1, _ := ecs.GetComponent[*components.MapObjectComponent](em, wall1)
	sprite1, _ := ecs.GetComponent[*components.SpriteComponent](em, wall1)
	if obj1.Theme != "s2" || sprite1.Image != loader.images["wall_s2.png"] {
		t.Errorf("wall 1 should use s2 variant, theme=%s", obj1.Theme)
	}

	// 缺少变体时回退默认图片
	sprite2, _ := ecs.GetComponent[*components.SpriteComponent](em, wall2)
	if sprite2.Image != loader.images["wall.png"] {
		t.Error("wall 2 should fall back to the default variant")
	}

	// 其他类型不受影响
	floorObj, _ := ecs.GetComponent[*components.MapObjectComponent](em, floor)
	if floorObj.Theme != "0" {
		t.Errorf("floor theme = %s, want 0", floorObj.Theme)
	}

	// 重复应用同一主题无变化
	if changed := ts.ApplyTheme(map[string]string{"wall": "2"}); changed != 0 {
		t.Errorf("re-applying the same theme changed %d objects", changed)
	}
}

// TestThemeSystemUnknownType 没有实例的类型直接跳过
func TestThemeSystemUnknownType(t *testing.T) {
	em := ecs.NewEntityManager()
	ts := NewThemeSystem(em, nil)
	ts.Register(addThemeObject(em, "wall", "1", nil))

	if changed := ts.ApplyTheme(map[string]string{"door": "3"}); changed != 0 {
		t.Errorf("Expected no change for type without instances, got %d", changed)
	}
	if ts.Count("door") != 0 || ts.Count("wall") != 1 {
		t.Errorf("unexpected counts: door=%d wall=%d", ts.Count("door"), ts.Count("wall"))
	}
}

func TestThemeSystemLoadFailure(t *testing.T) {
	em := ecs.NewEntityManager()
	ts := NewThemeSystem(em, newFakeImageLoader())
	id := addThemeObject(em, "wall", "1", map[string]string{"0": "missing.png"})
	ts.Register(id)

	sprite, _ := ecs.GetComponent[*components.SpriteComponent](em, id)
	if sprite.Image != nil {
		t.Error("failed load should leave the sprite without image")
	}
}
