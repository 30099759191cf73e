package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
)

// Допустимые форматы аватара.
var allowedAvatarTypes = map[types.Type]string{
	matchers.TypeJpeg: ".jpg",
	matchers.TypePng:  ".png",
	matchers.TypeWebp: ".webp",
}

// AvatarStorage хранит аватары пользователей на диске.
// Формат определяется по содержимому файла, а не по расширению.
type AvatarStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewAvatarStorage создаёт файловое хранилище аватаров.
func NewAvatarStorage(rootPath string, maxUploadMB int64) (*AvatarStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &AvatarStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// SaveAvatar проверяет формат и размер, сохраняет файл и возвращает
// публичный путь. Старый аватар не удаляется: ссылка на него могла быть
// закэширована клиентами.
func (s *AvatarStorage) SaveAvatar(userID uuid.UUID, data []byte) (string, error) {
	if int64(len(data)) > s.maxUploadBytes {
		return "", fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("storage: не удалось определить формат файла: %w", err)
	}
	ext, ok := allowedAvatarTypes[kind]
	if !ok {
		return "", fmt.Errorf("storage: недопустимый формат аватара, ожидается jpeg, png или webp")
	}

	userDir := filepath.Join(s.rootPath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	fileName := fmt.Sprintf("avatar_%d%s", time.Now().UnixNano(), ext)
	targetPath := filepath.Join(userDir, fileName)
	tempPath := targetPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return "/media/" + filepath.ToSlash(filepath.Join(userID.String(), fileName)), nil
}
