package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// ErrNotAnImage возвращается, когда содержимое файла не похоже на изображение.
var ErrNotAnImage = errors.New("файл не является изображением")

// ErrTooLarge возвращается при превышении лимита размера файла.
var ErrTooLarge = errors.New("файл слишком большой")

// allowedImageTypes — типы, которые принимаются для фото блюд.
// Тип определяется по сигнатуре файла, расширению имени не доверяем.
var allowedImageTypes = map[string]string{
	matchers.TypeJpeg.MIME.Value: ".jpg",
	matchers.TypePng.MIME.Value:  ".png",
	matchers.TypeWebp.MIME.Value: ".webp",
}

// ImageStorage — файловое хранилище изображений блюд.
type ImageStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewImageStorage создаёт хранилище в заданном каталоге.
func NewImageStorage(rootPath string, maxUploadMB int64) (*ImageStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &ImageStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// SaveMealImage проверяет содержимое, сохраняет файл и возвращает
// относительный путь. Расширение выбирается по фактическому типу.
func (s *ImageStorage) SaveMealImage(ctx context.Context, mealID uuid.UUID, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	head := make([]byte, 261)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", 0, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось определить тип файла: %w", err)
	}
	ext, ok := allowedImageTypes[kind.MIME.Value]
	if !ok {
		return "", 0, ErrNotAnImage
	}

	fileName := fmt.Sprintf("%s_%d%s", mealID.String(), time.Now().UnixNano(), ext)
	mealDir := filepath.Join(s.rootPath, "meals")
	if err := os.MkdirAll(mealDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать каталог: %w", err)
	}

	targetPath := filepath.Join(mealDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", 0, ErrTooLarge
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return filepath.Join("meals", fileName), written, nil
}

// Delete удаляет файл. Отсутствующий файл не считается ошибкой.
func (s *ImageStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, relativePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}
