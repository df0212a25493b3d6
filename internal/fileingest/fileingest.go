// Package fileingest 负责上传文件的校验、传输编码、校验和与大小格式化。
package fileingest

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"privemr-record-service/internal/models"
)

// MaxFileSize 上传文件大小上限（50MB）
const MaxFileSize = 50 * 1024 * 1024

// 允许的 MIME 类型白名单
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"text/plain": true,
}

// ValidationResult 校验结果（校验失败不返回 Go error）
type ValidationResult struct {
	Valid bool
	Error string
}

// Validate 校验上传文件：超过 50MB 或 MIME 类型不在白名单内则拒绝
func Validate(u *models.FileUpload) ValidationResult {
	if u.Size > MaxFileSize {
		return ValidationResult{Valid: false, Error: "File size must be less than 50MB"}
	}
	if !allowedMimeTypes[u.MimeType] {
		return ValidationResult{Valid: false, Error: "File type not supported"}
	}
	return ValidationResult{Valid: true}
}

// ToBase64 返回文件内容的 base64 编码（不含 data-URL 前缀）
func ToBase64(u *models.FileUpload) string {
	return base64.StdEncoding.EncodeToString(u.Data)
}

// Checksum 计算原始字节的 SHA-256 校验和（十六进制）
// 注意：基于原始字节，区别于编码后的传输载荷
func Checksum(u *models.FileUpload) string {
	sum := sha256.Sum256(u.Data)
	return hex.EncodeToString(sum[:])
}

// FormatSize 人类可读的文件大小（1024 进制，保留两位小数）
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	// 保留两位小数后去掉无意义的尾零（1024 -> "1 KB"，1536 -> "1.5 KB"）
	s := strconv.FormatFloat(value, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s + " " + sizes[i]
}

// Load 从磁盘读取文件并构造 FileUpload
// MIME 类型优先按扩展名判断，失败时按内容嗅探
func Load(path string) (*models.FileUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	// 去掉参数部分（如 "; charset=utf-8"），白名单只匹配媒体类型本身
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}

	return &models.FileUpload{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}
