package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/yoockh/barta/internal/audio"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

// RecordingArchive stores the caller audio of a finished call.
type RecordingArchive interface {
	Archive(ctx context.Context, callID string, pcm []byte) (storedPath string, err error)
}

// Recordings archives raw PCM16 caller audio under recordings/<call id>.pcm.
type Recordings struct {
	Uploader Uploader
}

func RecordingObject(callID string) string { return "recordings/" + callID + ".pcm" }

func (r *Recordings) Archive(ctx context.Context, callID string, pcm []byte) (string, error) {
	if callID == "" {
		return "", fmt.Errorf("recordings: call id is required")
	}
	contentType := fmt.Sprintf("audio/L16;rate=%d;channels=1", audio.InputSampleRate)
	return r.Uploader.Upload(ctx, RecordingObject(callID), contentType, bytes.NewReader(pcm))
}
