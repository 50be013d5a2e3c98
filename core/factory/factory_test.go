package factory

import "testing"

type widget struct {
	Size int `json:"size"`
}

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry[*widget]()
	err := reg.Register("widget", func(conf map[string]any) (*widget, error) {
		w := &widget{}
		if err := Decode(conf, w); err != nil {
			return nil, err
		}
		return w, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	w, err := reg.Create(ModuleConfig{Type: "widget", Conf: map[string]any{"size": 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.Size != 3 {
		t.Fatalf("size = %d, want 3", w.Size)
	}
}

func TestRegistry_DuplicateAndUnknown(t *testing.T) {
	reg := NewRegistry[*widget]()
	f := func(map[string]any) (*widget, error) { return &widget{}, nil }
	if err := reg.Register("widget", f); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("widget", f); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "missing"}); err == nil {
		t.Fatalf("expected unknown type error")
	}
	if err := reg.Register("nil", nil); err == nil {
		t.Fatalf("expected nil factory error")
	}
}
