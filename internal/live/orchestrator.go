// Package live runs the realtime voice call: it forwards captured audio to
// the model, schedules the audio it answers with and logs the call when it
// ends.
package live

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/barta/internal/audio"
	"github.com/yoockh/barta/internal/events"
	"github.com/yoockh/barta/internal/models"
	"github.com/yoockh/barta/internal/playback"
	"github.com/yoockh/barta/internal/providers/realtime"
	"github.com/yoockh/barta/internal/services"
	"github.com/yoockh/barta/internal/utils"
)

const (
	DefaultModel = "gemini-2.5-flash-native-audio-preview-12-2025"
	DefaultVoice = "Kore"

	// Transcripts this short are not worth a template suggestion.
	minSuggestionChars = 10
	// 30 minutes of 16 kHz PCM16.
	maxRecordingBytes = audio.InputSampleRate * 2 * 60 * 30
	inboxSize         = 64

	// Status events queue here; the call loop never waits on the bus.
	statusBacklog  = 32
	publishTimeout = 2 * time.Second
)

// Block is one buffer of captured microphone audio.
type Block struct {
	Samples    []float32
	SampleRate int
}

type TemplateLister interface {
	ListTemplates(ctx context.Context) ([]models.Template, error)
}

type CallRecorder interface {
	Record(ctx context.Context, rec services.CallRecord) (*models.CallLog, error)
}

type Deps struct {
	Connector realtime.Connector
	Templates TemplateLister
	State     *services.ConsoleState
	Assistant services.AssistantService
	Calls     CallRecorder
	// Events, Clock and Logger are optional.
	Events events.Publisher
	Clock  playback.Clock
	Logger logrus.FieldLogger

	Model string
	Voice string
}

type Status struct {
	Status models.AgentStatus `json:"status"`
	CallID string             `json:"call_id,omitempty"`
}

// Orchestrator allows at most one live call at a time.
type Orchestrator struct {
	deps Deps
	log  logrus.FieldLogger

	mu      sync.Mutex
	status  models.AgentStatus
	current *Call
	opening bool

	statusQ chan events.Event
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.Clock == nil {
		d.Clock = playback.NewWallClock()
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Model == "" {
		d.Model = DefaultModel
	}
	if d.Voice == "" {
		d.Voice = DefaultVoice
	}
	o := &Orchestrator{
		deps:   d,
		log:    d.Logger.WithField("component", "live"),
		status: models.AgentIdle,
	}
	if d.Events != nil {
		o.statusQ = make(chan events.Event, statusBacklog)
		go o.publishStatuses()
	}
	return o
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Status{Status: o.status}
	if o.current != nil {
		st.CallID = o.current.id
	}
	return st
}

// Activate opens a realtime session and starts the call. Captured audio is
// read from capture until it is closed, which hangs up. Agent audio is
// handed to sink already scheduled on the playback clock.
func (o *Orchestrator) Activate(ctx context.Context, capture <-chan Block, sink playback.Sink) (*Call, error) {
	const op = "Orchestrator.Activate"

	o.mu.Lock()
	if o.current != nil || o.opening {
		o.mu.Unlock()
		return nil, utils.E(utils.CodeConflict, op, "a call is already live", nil)
	}
	o.opening = true
	o.mu.Unlock()

	id := uuid.NewString()
	log := o.log.WithField("call_id", id)

	templates, err := o.deps.Templates.ListTemplates(ctx)
	if err != nil {
		log.WithError(err).Warn("knowledge base unavailable, starting without it")
	}
	cfg := realtime.Config{
		Model:              o.deps.Model,
		Voice:              o.deps.Voice,
		SystemInstruction:  SystemInstruction(o.deps.State.Intent(), templates),
		InputTranscription: true,
	}

	sess, err := o.deps.Connector.Connect(ctx, cfg)
	if err != nil {
		serr := &SessionError{Op: "open", Err: err}
		log.WithError(err).Error("live session failed to open")
		o.mu.Lock()
		o.opening = false
		o.mu.Unlock()
		o.setStatus(models.AgentError, id)
		o.record(ctx, log, services.CallRecord{ID: id, Status: models.CallMissed})
		return nil, serr
	}

	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &Call{
		id:        id,
		o:         o,
		log:       log,
		ctx:       callCtx,
		cancel:    cancel,
		sess:      sess,
		templates: templates,
		clock:     playback.Since(o.deps.Clock),
		inbox:     make(chan func(), inboxSize),
		done:      make(chan struct{}),
		logged:    make(chan struct{}),
	}
	c.sched = playback.NewScheduler(c.clock, sink, playback.Options{
		Dispatch:   c.post,
		OnSpeaking: func() { o.setStatus(models.AgentSpeaking, id) },
		OnDrained:  func() { o.setStatus(models.AgentListening, id) },
	})

	o.mu.Lock()
	o.opening = false
	o.current = c
	o.mu.Unlock()
	o.setStatus(models.AgentListening, id)
	log.Info("live call started")

	go c.loop()
	go c.receive()
	go c.forward(capture)
	return c, nil
}

// Terminate hangs up the current call, if any.
func (o *Orchestrator) Terminate() {
	o.mu.Lock()
	c := o.current
	o.mu.Unlock()
	if c != nil {
		c.Terminate()
	}
}

func (o *Orchestrator) setStatus(s models.AgentStatus, callID string) {
	o.mu.Lock()
	if o.status == s {
		o.mu.Unlock()
		return
	}
	o.status = s
	if o.statusQ != nil {
		select {
		case o.statusQ <- events.New(events.TypeStatus, Status{Status: s, CallID: callID}):
		default:
			o.log.WithField("status", s).Debug("status event dropped")
		}
	}
	o.mu.Unlock()
}

// publishStatuses forwards status changes in order. It runs for the life of
// the orchestrator.
func (o *Orchestrator) publishStatuses() {
	for ev := range o.statusQ {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := o.deps.Events.Publish(ctx, ev); err != nil {
			o.log.WithError(err).Debug("status event not published")
		}
		cancel()
	}
}

func (o *Orchestrator) release(c *Call) {
	o.mu.Lock()
	if o.current == c {
		o.current = nil
	}
	o.mu.Unlock()
}

func (o *Orchestrator) record(ctx context.Context, log logrus.FieldLogger, rec services.CallRecord) *models.CallLog {
	cl, err := o.deps.Calls.Record(context.WithoutCancel(ctx), rec)
	if err != nil {
		log.WithError(err).Error("call log not saved")
		return nil
	}
	return cl
}

// Call is one live session. Everything that touches the playback timeline
// runs on the call's loop goroutine.
type Call struct {
	id  string
	o   *Orchestrator
	log logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	sess   realtime.Session
	sched  *playback.Scheduler

	templates []models.Template
	// zero at the start of the call
	clock     playback.Clock

	inbox  chan func()
	done   chan struct{}
	logged chan struct{}

	// loop-owned
	finished   bool
	endErr     error
	transcript strings.Builder

	recMu     sync.Mutex
	recording []byte

	callLog *models.CallLog
}

func (c *Call) ID() string { return c.id }

// Terminate ends the call normally. It is safe to call more than once.
func (c *Call) Terminate() { c.post(func() { c.finish(nil) }) }

// Done is closed once the call has ended and its log has been written.
func (c *Call) Done() <-chan struct{} { return c.logged }

// Log returns the call log after Done is closed.
func (c *Call) Log() *models.CallLog {
	<-c.logged
	return c.callLog
}

func (c *Call) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.done:
	}
}

func (c *Call) loop() {
	for fn := range c.inbox {
		fn()
		if c.finished {
			c.wrapUp()
			return
		}
	}
}

func (c *Call) receive() {
	for {
		msg, err := c.sess.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.post(func() { c.finish(nil) })
			} else {
				c.post(func() { c.finish(&SessionError{Op: "receive", Err: err}) })
			}
			return
		}
		c.post(func() { c.handle(msg) })
	}
}

// forward streams captured blocks to the model. Sends are fire-and-forget.
func (c *Call) forward(capture <-chan Block) {
	for {
		select {
		case <-c.done:
			return
		case b, ok := <-capture:
			if !ok {
				c.Terminate()
				return
			}
			samples := audio.Resample(b.Samples, b.SampleRate, audio.InputSampleRate)
			pcm := audio.QuantizePCM16(samples)
			if len(pcm) == 0 {
				continue
			}
			c.keep(pcm)
			blob := realtime.Blob{Data: audio.Encode(pcm), MIMEType: audio.MIMEType(audio.InputSampleRate)}
			if err := c.sess.SendRealtimeInput(c.ctx, blob); err != nil {
				c.log.WithError(err).Debug("realtime input dropped")
			}
		}
	}
}

func (c *Call) keep(pcm []byte) {
	c.recMu.Lock()
	defer c.recMu.Unlock()
	if len(c.recording)+len(pcm) <= maxRecordingBytes {
		c.recording = append(c.recording, pcm...)
	}
}

func (c *Call) handle(msg *realtime.Message) {
	for _, b := range msg.Audio {
		c.play(b)
	}
	if t := msg.InputTranscript; t != "" {
		if c.transcript.Len() > 0 {
			c.transcript.WriteByte(' ')
		}
		c.transcript.WriteString(strings.TrimSpace(t))
		if utf8.RuneCountInString(t) > minSuggestionChars {
			go c.suggest(t)
		}
	}
}

func (c *Call) play(b realtime.Blob) {
	raw, err := audio.Decode(b.Data)
	if err != nil {
		c.log.WithError(err).Warn("agent audio dropped")
		return
	}
	frag, err := audio.DecodeAudioData(raw, rateFromMIME(b.MIMEType, audio.OutputSampleRate), 1)
	if err != nil {
		c.log.WithError(err).Warn("agent audio dropped")
		return
	}
	if _, err := c.sched.Schedule(c.ctx, frag); err != nil {
		c.log.WithError(err).Warn("agent audio not played")
	}
}

// suggest applies whatever the suggestion resolves to, even if a later
// transcript already produced a newer one.
func (c *Call) suggest(text string) {
	d := c.o.deps
	if d.Assistant == nil {
		return
	}
	sg := d.Assistant.SuggestTemplate(context.WithoutCancel(c.ctx), text, c.templates)
	if sg == (services.Suggestion{}) {
		return
	}
	snap := d.State.Apply(sg)
	if d.Events != nil {
		_ = d.Events.Publish(context.Background(), events.New(events.TypeSuggestion, snap))
	}
}

// finish runs once per call; later calls are ignored so the first cause wins.
func (c *Call) finish(cause error) {
	if c.finished {
		return
	}
	c.finished = true
	c.sched.Reset()
	_ = c.sess.Close()
	c.cancel()

	c.endErr = cause
	close(c.done)
}

func (c *Call) wrapUp() {
	rec := services.CallRecord{
		ID:         c.id,
		Status:     models.CallCompleted,
		Duration:   c.clock.Now(),
		Transcript: c.transcript.String(),
	}
	status := models.AgentIdle
	if c.endErr != nil {
		rec.Status = models.CallMissed
		status = models.AgentError
		c.log.WithError(c.endErr).Error("live call failed")
	} else {
		c.log.Info("live call ended")
	}
	c.recMu.Lock()
	rec.Recording = c.recording
	c.recMu.Unlock()

	c.o.setStatus(status, c.id)
	c.o.release(c)
	c.callLog = c.o.record(c.ctx, c.log, rec)
	close(c.logged)
}

func rateFromMIME(mime string, fallback int) int {
	for _, p := range strings.Split(mime, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && strings.EqualFold(k, "rate") {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return fallback
}
