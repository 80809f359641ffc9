package stt

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

type GoogleSpeech struct {
	c *speech.Client

	SampleRateHz int32
	Model        string
}

func NewGoogleSpeech(ctx context.Context, sampleRateHz int32) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if sampleRateHz <= 0 {
		sampleRateHz = 16000
	}
	return &GoogleSpeech{c: c, SampleRateHz: sampleRateHz, Model: "latest_short"}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// Transcribe joins the top alternative of every result; dictation appends
// the whole utterance to the chat input. Confidence is the mean over results.
func (g *GoogleSpeech) Transcribe(ctx context.Context, pcm []byte, language string) (Transcript, error) {
	if language == "" {
		language = "en-US"
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               language,
			Model:                      g.Model,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		return Transcript{}, err
	}

	var parts []string
	var conf float64
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 || r.Alternatives[0].Transcript == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(r.Alternatives[0].Transcript))
		conf += float64(r.Alternatives[0].Confidence)
	}
	if len(parts) == 0 {
		return Transcript{}, nil
	}
	return Transcript{Text: strings.Join(parts, " "), Confidence: conf / float64(len(parts))}, nil
}
