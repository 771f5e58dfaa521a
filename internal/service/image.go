package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

// Extensions currently accepted for analysis. PNG and WebP signature checks
// are implemented below and can be enabled by adding entries here.
var allowedImageExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
}

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// ImagePipeline validates a photo and runs it through the vision endpoint.
type ImagePipeline struct {
	ai       *OpenAIService
	maxBytes int64
}

func NewImagePipeline(ai *OpenAIService, maxSizeMB int) *ImagePipeline {
	return &ImagePipeline{
		ai:       ai,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

// CheckMeta validates the declared file size and extension before any bytes
// are downloaded, so oversize or misnamed files cost nothing upstream.
func (p *ImagePipeline) CheckMeta(filePath string, sizeBytes int64) (string, error) {
	if sizeBytes > p.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, sizeBytes)
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filePath), "."))
	if !allowedImageExtensions[ext] {
		return "", fmt.Errorf("%w: .%s", domain.ErrUnsupportedFormat, ext)
	}
	return ext, nil
}

// ValidateSignature verifies the file's leading bytes match the claimed
// extension. Content-type confusion is rejected even when the extension
// itself is allowed.
func ValidateSignature(data []byte, ext string) error {
	switch ext {
	case "jpg", "jpeg":
		if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
			return nil
		}
	case "png":
		if len(data) >= len(pngMagic) && bytes.Equal(data[:len(pngMagic)], pngMagic) {
			return nil
		}
	case "webp":
		if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
			return nil
		}
	default:
		return fmt.Errorf("%w: .%s", domain.ErrUnsupportedFormat, ext)
	}
	return fmt.Errorf("%w: .%s", domain.ErrSignatureMismatch, ext)
}

// Analyze re-encodes validated image bytes as a data URI and asks the vision
// endpoint about them.
func (p *ImagePipeline) Analyze(ctx context.Context, data []byte, ext, prompt string) (*VisionResult, error) {
	if err := ValidateSignature(data, ext); err != nil {
		return nil, err
	}

	dataURI := "data:" + mimeForExtension(ext) + ";base64," + base64.StdEncoding.EncodeToString(data)
	result, err := p.ai.AnalyzeImage(ctx, dataURI, prompt)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	return result, nil
}

func mimeForExtension(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
