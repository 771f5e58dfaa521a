package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
)

// VoicePipeline turns a Telegram voice note into text: download, transcode
// the OGG/Opus container to MP3 for the transcription endpoint, transcribe.
type VoicePipeline struct {
	ai         *OpenAIService
	ffmpegPath string
	httpClient *http.Client
}

func NewVoicePipeline(ai *OpenAIService, ffmpegPath string) *VoicePipeline {
	return &VoicePipeline{
		ai:         ai,
		ffmpegPath: ffmpegPath,
		httpClient: http.DefaultClient,
	}
}

// Process downloads the voice file from fileURL and returns its
// transcription. Temporary files are removed on every exit path.
func (p *VoicePipeline) Process(ctx context.Context, fileURL string) (*Transcription, error) {
	dir, err := os.MkdirTemp("", "voice-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	rawPath := filepath.Join(dir, "voice.oga")
	if err := p.download(ctx, fileURL, rawPath); err != nil {
		return nil, err
	}

	mp3Path := filepath.Join(dir, "voice.mp3")
	if err := p.transcode(ctx, rawPath, mp3Path); err != nil {
		return nil, err
	}

	tr, err := p.ai.Transcribe(ctx, mp3Path)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	return tr, nil
}

func (p *VoicePipeline) download(ctx context.Context, fileURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download voice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download voice: HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create voice file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write voice file: %w", err)
	}
	return nil
}

func (p *VoicePipeline) transcode(ctx context.Context, inPath, outPath string) error {
	cmd := exec.CommandContext(ctx, p.ffmpegPath, "-y", "-i", inPath, outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg transcode: %w: %s", err, string(out))
	}
	return nil
}
