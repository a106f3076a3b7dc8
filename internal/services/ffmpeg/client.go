// Package ffmpeg shells out to ffmpeg for the two conversions the migration
// needs: legacy audio to mp3 and legacy video to mp4. The Executor seam keeps
// the exact command lines testable without the binary installed.
package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"jigport/internal/logging"
	"jigport/internal/services"
)

// Executor runs an external command and returns its combined output.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Client invokes ffmpeg.
type Client struct {
	binary   string
	executor Executor
	logger   *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithExecutor substitutes the command executor, for tests.
func WithExecutor(executor Executor) Option {
	return func(c *Client) {
		if executor != nil {
			c.executor = executor
		}
	}
}

// New builds a Client for the given ffmpeg binary.
func New(binary string, logger *slog.Logger, opts ...Option) *Client {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		binary:   binary,
		executor: commandExecutor{},
		logger:   logger.With(logging.FieldComponent, "ffmpeg"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// TranscodeAudio converts src to mp3 at dest.
func (c *Client) TranscodeAudio(ctx context.Context, src, dest string) error {
	return c.run(ctx, "audio", src, dest, "-i", src, "-acodec", "libmp3lame", dest)
}

// TranscodeVideo converts src to h264/aac mp4 at dest. The rate cap keeps
// player downloads reasonable on large legacy clips.
func (c *Client) TranscodeVideo(ctx context.Context, src, dest string) error {
	return c.run(ctx, "video", src, dest,
		"-i", src,
		"-vcodec", "libx264",
		"-acodec", "aac",
		"-pix_fmt", "yuv420p",
		"-crf", "20",
		"-maxrate", "1M",
		dest)
}

func (c *Client) run(ctx context.Context, kind, src, dest string, args ...string) error {
	c.logger.Debug("transcoding", "kind", kind, "src", src, "dest", dest)
	output, err := c.executor.Run(ctx, c.binary, args...)
	if err != nil {
		detail := fmt.Sprintf("%s %s -> %s: %s", kind, src, dest, tail(output))
		return services.Wrap(services.ErrTranscode, "media", "ffmpeg", detail, err)
	}
	return nil
}

// tail keeps error messages readable; ffmpeg output can run to pages.
func tail(output []byte) string {
	const max = 512
	if len(output) <= max {
		return string(output)
	}
	return "..." + string(output[len(output)-max:])
}
