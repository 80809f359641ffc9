package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	// InputSampleRate is the rate the live session expects microphone audio at.
	InputSampleRate = 16000
	// OutputSampleRate is the rate of audio returned by the live session.
	OutputSampleRate = 24000

	bytesPerSample = 2
)

type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "audio: invalid base64 payload: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

type AudioDecodeError struct {
	Reason string
}

func (e *AudioDecodeError) Error() string { return "audio: cannot decode pcm: " + e.Reason }

// Encode converts raw bytes to their text-safe form.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode is the inverse of Encode.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return b, nil
}

// Fragment is one decoded unit of PCM audio. It is never mutated after decoding.
type Fragment struct {
	samples    []float32
	sampleRate int
	channels   int
}

// DecodeAudioData interprets b as interleaved little-endian signed 16-bit
// samples and normalizes them to [-1, 1].
func DecodeAudioData(b []byte, sampleRate, channels int) (*Fragment, error) {
	if sampleRate <= 0 {
		return nil, &AudioDecodeError{Reason: "sample rate must be positive"}
	}
	if channels <= 0 {
		return nil, &AudioDecodeError{Reason: "channel count must be positive"}
	}
	if len(b)%bytesPerSample != 0 {
		return nil, &AudioDecodeError{Reason: fmt.Sprintf("%d bytes is not a whole number of 16-bit samples", len(b))}
	}
	n := len(b) / bytesPerSample
	if n%channels != 0 {
		return nil, &AudioDecodeError{Reason: fmt.Sprintf("%d samples do not fill %d-channel frames", n, channels)}
	}

	samples := make([]float32, n)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(b[i*bytesPerSample:]))
		samples[i] = float32(v) / 32768
	}
	return &Fragment{samples: samples, sampleRate: sampleRate, channels: channels}, nil
}

func (f *Fragment) SampleRate() int { return f.sampleRate }

func (f *Fragment) Channels() int { return f.channels }

// Frames is the per-channel sample count.
func (f *Fragment) Frames() int {
	if f == nil || f.channels == 0 {
		return 0
	}
	return len(f.samples) / f.channels
}

// Duration is Frames / SampleRate.
func (f *Fragment) Duration() time.Duration {
	if f == nil || f.sampleRate == 0 {
		return 0
	}
	return time.Duration(int64(f.Frames()) * int64(time.Second) / int64(f.sampleRate))
}

// Channel returns a copy of the samples of channel ch.
func (f *Fragment) Channel(ch int) []float32 {
	if f == nil || ch < 0 || ch >= f.channels {
		return nil
	}
	out := make([]float32, f.Frames())
	for i := range out {
		out[i] = f.samples[i*f.channels+ch]
	}
	return out
}

// PCM16 re-encodes the fragment as little-endian 16-bit samples.
func (f *Fragment) PCM16() []byte {
	if f == nil {
		return nil
	}
	return QuantizePCM16(f.samples)
}

// QuantizePCM16 converts float samples to clamped little-endian int16.
func QuantizePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		v := math.Round(float64(s) * 32768)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < math.MinInt16 {
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(int16(v)))
	}
	return out
}

// Resample converts a mono block between sample rates by linear interpolation.
func Resample(samples []float32, from, to int) []float32 {
	if from <= 0 || to <= 0 || from == to || len(samples) == 0 {
		return samples
	}
	n := int(int64(len(samples)) * int64(to) / int64(from))
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + (samples[j+1]-samples[j])*frac
	}
	return out
}

// DecodeFloat32 reads little-endian IEEE-754 float32 samples, the layout
// browsers hand out for captured audio.
func DecodeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, &AudioDecodeError{Reason: fmt.Sprintf("%d bytes is not a whole number of float32 samples", len(b))}
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// MIMEType tags PCM payloads sent to the live session.
func MIMEType(rate int) string {
	return "audio/pcm;rate=" + strconv.Itoa(rate)
}
