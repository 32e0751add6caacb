package relay

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOnFrameOption(t *testing.T) {
	var got string
	opt := OnFrameOption(func(_ context.Context, text string) error {
		got = text
		return nil
	})

	var opts options
	opt(&opts)

	if opts.onFrame == nil {
		t.Fatal("onFrame is nil")
	}

	_ = opts.onFrame(context.Background(), "hi")
	if got != "hi" {
		t.Errorf("onFrame received %q, want hi", got)
	}
}

func TestOnErrorOption(t *testing.T) {
	var got error
	opt := OnErrorOption(func(err error) { got = err })

	var opts options
	opt(&opts)

	if opts.onError == nil {
		t.Fatal("onError is nil")
	}

	want := errors.New("boom")
	opts.onError(want)
	if got != want {
		t.Errorf("onError received %v, want %v", got, want)
	}
}

func TestOptions_MultipleOptions(t *testing.T) {
	logger := &recordingLogger{}

	var opts options
	for _, opt := range []Option{
		OnFrameOption(discardFrames),
		MaxFrameSizeOption(4096),
		PollIntervalOption(25 * time.Millisecond),
		WriteTimeoutOption(time.Second),
		LoggerOption(logger),
	} {
		opt(&opts)
	}

	if opts.onFrame == nil {
		t.Error("onFrame not set")
	}
	if opts.maxFrameSize != 4096 {
		t.Errorf("maxFrameSize = %d, want 4096", opts.maxFrameSize)
	}
	if opts.pollInterval != 25*time.Millisecond {
		t.Errorf("pollInterval = %v, want 25ms", opts.pollInterval)
	}
	if opts.writeTimeout != time.Second {
		t.Errorf("writeTimeout = %v, want 1s", opts.writeTimeout)
	}
	if opts.logger != logger {
		t.Error("logger not set")
	}
}
