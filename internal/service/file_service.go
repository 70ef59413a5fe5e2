package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ywqqqq/xuedong-ai/internal/apperror"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/pkg/speech"
	"github.com/ywqqqq/xuedong-ai/pkg/utils"
)

type IFileService interface {
	SaveUpload(data []byte, filename string) (string, error)
	TextToSpeech(ctx context.Context, text string) (string, error)
}

// fileService stores uploaded files and synthesized audio on local
// disk, served back under /files.
type fileService struct {
	uploadDir   string
	baseURL     string
	synthesizer speech.Synthesizer
	logger      logger.ILogger
}

func NewFileService(uploadDir, baseURL string, synthesizer speech.Synthesizer, log logger.ILogger) IFileService {
	return &fileService{
		uploadDir:   uploadDir,
		baseURL:     baseURL,
		synthesizer: synthesizer,
		logger:      log,
	}
}

func (s *fileService) SaveUpload(data []byte, filename string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", apperror.Storage("failed to create upload dir", err)
	}

	stored := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(filename))
	path := filepath.Join(s.uploadDir, stored)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperror.Storage("failed to store upload", err)
	}

	return fmt.Sprintf("%s/files/%s", s.baseURL, stored), nil
}

func (s *fileService) TextToSpeech(ctx context.Context, text string) (string, error) {
	if s.synthesizer == nil {
		return "", apperror.InvalidRequest("speech synthesis is not configured")
	}
	if text == "" {
		return "", apperror.InvalidRequest("text must not be empty")
	}

	pcm, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return "", apperror.Upstream("speech synthesis failed", err)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", apperror.Storage("failed to create upload dir", err)
	}

	stored := fmt.Sprintf("%s.wav", uuid.New().String())
	path := filepath.Join(s.uploadDir, stored)
	if err := os.WriteFile(path, utils.PCMToWAV(pcm, 16000), 0o644); err != nil {
		return "", apperror.Storage("failed to store audio", err)
	}

	s.logger.Info("file", "synthesized speech stored", map[string]interface{}{"file": stored})
	return fmt.Sprintf("%s/files/%s", s.baseURL, stored), nil
}
