package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// pngHeader — минимальная сигнатура PNG, достаточная для определения типа.
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func newTestStorage(t *testing.T, maxUploadMB int64) *ImageStorage {
	t.Helper()
	s, err := NewImageStorage(t.TempDir(), maxUploadMB)
	assert.NoError(t, err)
	return s
}

func TestImageStorage_SaveMealImage_PNG(t *testing.T) {
	s := newTestStorage(t, 1)
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x00}, 512)...)

	path, size, err := s.SaveMealImage(context.Background(), uuid.New(), bytes.NewReader(payload))
	assert.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)
	assert.True(t, strings.HasPrefix(path, "meals/"))
	assert.True(t, strings.HasSuffix(path, ".png"))

	saved, err := os.ReadFile(filepath.Join(s.rootPath, path))
	assert.NoError(t, err)
	assert.Equal(t, payload, saved)
}

func TestImageStorage_SaveMealImage_RejectsText(t *testing.T) {
	s := newTestStorage(t, 1)

	_, _, err := s.SaveMealImage(context.Background(), uuid.New(), strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestImageStorage_SaveMealImage_TooLarge(t *testing.T) {
	s := newTestStorage(t, 1)
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x00}, 2*1024*1024)...)

	_, _, err := s.SaveMealImage(context.Background(), uuid.New(), bytes.NewReader(payload))
	assert.ErrorIs(t, err, ErrTooLarge)

	// Временный файл не должен остаться на диске.
	entries, readErr := os.ReadDir(filepath.Join(s.rootPath, "meals"))
	assert.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestImageStorage_Delete(t *testing.T) {
	s := newTestStorage(t, 1)
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x00}, 64)...)

	path, _, err := s.SaveMealImage(context.Background(), uuid.New(), bytes.NewReader(payload))
	assert.NoError(t, err)

	assert.NoError(t, s.Delete(context.Background(), path))
	_, statErr := os.Stat(filepath.Join(s.rootPath, path))
	assert.True(t, os.IsNotExist(statErr))

	// Повторное удаление не ошибка.
	assert.NoError(t, s.Delete(context.Background(), path))
}
