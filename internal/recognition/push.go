package recognition

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrCaptureBusy     = errors.New("capture already open")
	ErrNotListening    = errors.New("no capture open")
	ErrUnsupportedMIME = errors.New("unsupported audio type")
)

// PushMicrophone is a Microphone fed by the caller, e.g. an HTTP client
// uploading recorded chunks between start and stop.
type PushMicrophone struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	mime string
	open bool
}

func NewPushMicrophone() *PushMicrophone {
	return &PushMicrophone{}
}

func (p *PushMicrophone) Open(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		return nil, ErrCaptureBusy
	}
	p.open = true
	p.buf.Reset()
	p.mime = ""
	return &pushCapture{mic: p}, nil
}

// Write appends a chunk to the open capture.
func (p *PushMicrophone) Write(data []byte, mimeType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return ErrNotListening
	}
	if mimeType != "" {
		p.mime = mimeType
	}
	p.buf.Write(data)
	return nil
}

// Capturing reports whether a capture is open.
func (p *PushMicrophone) Capturing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

type pushCapture struct {
	mic *PushMicrophone
}

func (c *pushCapture) Stop() (Audio, error) {
	c.mic.mu.Lock()
	defer c.mic.mu.Unlock()
	return Audio{Data: bytes.Clone(c.mic.buf.Bytes()), MIMEType: c.mic.mime}, nil
}

func (c *pushCapture) Close() error {
	c.mic.mu.Lock()
	defer c.mic.mu.Unlock()
	c.mic.open = false
	c.mic.buf.Reset()
	return nil
}

// PlainText transcribes "text/plain" uploads verbatim. It lets clients
// without a speech backend drive the pipeline through the audio endpoints.
type PlainText struct{}

func (PlainText) Transcribe(_ context.Context, a Audio) (string, error) {
	if !strings.HasPrefix(a.MIMEType, "text/") {
		return "", ErrUnsupportedMIME
	}
	return string(a.Data), nil
}

// Fallback tries each transcriber in turn until one succeeds.
type Fallback []Transcriber

func (f Fallback) Transcribe(ctx context.Context, a Audio) (string, error) {
	var errs []error
	for _, t := range f {
		text, err := t.Transcribe(ctx, a)
		if err == nil {
			return text, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return "", errors.New("no transcriber configured")
	}
	return "", errors.Join(errs...)
}
