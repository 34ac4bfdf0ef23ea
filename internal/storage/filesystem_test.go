package storage

import (
	"context"
	"errors"
	"testing"

	"stencil/internal/domain"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"u1/images/a.png", "u1/images/a.png", false},
		{"/u1//images/./a.png", "u1/images/a.png", false},
		{`u1\images\a.png`, "u1/images/a.png", false},
		{"../etc/passwd", "", true},
		{"u1/../../x", "", true},
		{"  ", "", true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestFileStoreLifecycle(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "u1/images/a.png", []byte("png"), "image/png"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Put(ctx, "u1/images/a.png", []byte("other"), "image/png"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("second Put error = %v, want ErrAlreadyExists", err)
	}
	if err := store.Put(ctx, "u1/images/.hidden", []byte("x"), ""); err != nil {
		t.Fatalf("Put hidden returned error: %v", err)
	}

	data, err := store.Get(ctx, "u1/images/a.png")
	if err != nil || string(data) != "png" {
		t.Fatalf("Get = %q, %v", data, err)
	}
	if _, err := store.Get(ctx, "u1/images/missing.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get missing error = %v", err)
	}

	files, err := store.List(ctx, "u1/images")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(files) != 2 || files[1].Name != "a.png" || files[1].Size != 3 {
		t.Fatalf("List = %#v", files)
	}
	if files[1].URL != "http://localhost:8080/static/u1/images/a.png" {
		t.Fatalf("URL = %q", files[1].URL)
	}

	empty, err := store.List(ctx, "u2/images")
	if err != nil || len(empty) != 0 {
		t.Fatalf("List of missing folder = %#v, %v", empty, err)
	}

	if err := store.Delete(ctx, "u1/images/a.png"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := store.Delete(ctx, "u1/images/a.png"); err != nil {
		t.Fatalf("Delete of missing file should succeed: %v", err)
	}
}
