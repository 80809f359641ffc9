package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/barta/internal/providers/stt"
	"github.com/yoockh/barta/internal/utils"
)

type fakeSTT struct {
	lang string
	err  error
}

func (f *fakeSTT) Transcribe(_ context.Context, _ []byte, lang string) (stt.Transcript, error) {
	f.lang = lang
	if f.err != nil {
		return stt.Transcript{}, f.err
	}
	return stt.Transcript{Text: "book a call", Confidence: 0.9}, nil
}

func (f *fakeSTT) Close() error { return nil }

func TestDictationWithoutRecognizerIsUnsupported(t *testing.T) {
	_, err := NewDictationService(nil).Transcribe(context.Background(), []byte{1, 2}, "en")
	assert.True(t, utils.IsCode(err, utils.CodeUnsupported))
}

func TestDictation(t *testing.T) {
	f := &fakeSTT{}
	svc := NewDictationService(f)

	out, err := svc.Transcribe(context.Background(), []byte{1, 2}, "bn")
	require.NoError(t, err)
	assert.Equal(t, "book a call", out.Text)
	assert.Equal(t, "bn-BD", f.lang)

	_, err = svc.Transcribe(context.Background(), nil, "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	f.err = errors.New("quota")
	_, err = svc.Transcribe(context.Background(), []byte{1}, "")
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}
