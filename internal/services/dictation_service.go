package services

import (
	"context"
	"strings"

	"github.com/yoockh/barta/internal/providers/stt"
	"github.com/yoockh/barta/internal/utils"
)

const maxDictationBytes = 10 << 20

type DictationService interface {
	Transcribe(ctx context.Context, pcm []byte, language string) (*stt.Transcript, error)
}

type dictationService struct {
	stt stt.Provider
}

// NewDictationService accepts a nil provider; every call then reports
// that speech recognition is not supported here.
func NewDictationService(p stt.Provider) DictationService {
	return &dictationService{stt: p}
}

func (s *dictationService) Transcribe(ctx context.Context, pcm []byte, language string) (*stt.Transcript, error) {
	const op = "DictationService.Transcribe"

	if s.stt == nil {
		return nil, utils.E(utils.CodeUnsupported, op, "speech recognition is not supported", nil)
	}
	if len(pcm) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is required", nil)
	}
	if len(pcm) > maxDictationBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is too long", nil)
	}

	out, err := s.stt.Transcribe(ctx, pcm, normalizeLanguage(language))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech recognition failed", err)
	}
	return &out, nil
}

func normalizeLanguage(v string) string {
	v = strings.TrimSpace(v)
	switch v {
	case "", "en", "en-US":
		return "en-US"
	case "bn", "bn-BD":
		return "bn-BD"
	case "id", "id-ID":
		return "id-ID"
	default:
		return v
	}
}
