package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage("http://files.local")

	data := []byte("workbook")
	if err := m.PutObject(ctx, "exports/p1.xlsx", bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if err := m.PutObject(ctx, "bad", bytes.NewReader(data), 3, ""); err == nil {
		t.Error("size mismatch accepted")
	}

	url, err := m.GeneratePresignedDownloadURL(ctx, "exports/p1.xlsx", time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "http://files.local/exports%2Fp1.xlsx?") || !strings.Contains(url, "expires=60") {
		t.Errorf("url = %q", url)
	}

	if err := m.DeleteObject(ctx, "exports/p1.xlsx"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.GeneratePresignedDownloadURL(ctx, "exports/p1.xlsx", 0); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("err = %v, want ErrObjectNotFound", err)
	}
}
