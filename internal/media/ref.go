// Package media moves game assets from the legacy CDN into the target bucket:
// download into the per-game staging tree, transcode where the target format
// differs, and upload under the game's media prefix. Slide conversion only
// registers references; the transfer itself runs as its own pipeline stage.
package media

import (
	"path"
	"sync"
)

// TranscodeKind selects the ffmpeg invocation for a transfer, if any.
type TranscodeKind string

const (
	// TranscodeNone copies the asset byte for byte.
	TranscodeNone TranscodeKind = ""
	// TranscodeAudio converts the source to mp3.
	TranscodeAudio TranscodeKind = "audio"
	// TranscodeVideo converts the source to mp4 (h264/aac).
	TranscodeVideo TranscodeKind = "video"
)

// Ref describes one asset to move. Filename is the final target name, already
// carrying the canonical extension when a transcode is involved.
type Ref struct {
	GameID    string
	SourceURL string
	BasePath  string
	Filename  string
	Transcode TranscodeKind
}

// Key is the object key of the asset in the target bucket.
func (r Ref) Key() string {
	return path.Join(r.GameID, "media", r.BasePath, r.Filename)
}

// Collector accumulates media references across concurrently converted
// slides. Duplicate targets collapse to a single transfer.
type Collector struct {
	mu   sync.Mutex
	refs []Ref
	seen map[string]struct{}
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]struct{})}
}

// Add registers a reference. Re-adding the same target is a no-op.
func (c *Collector) Add(ref Ref) {
	key := ref.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.refs = append(c.refs, ref)
}

// Refs returns the collected references in registration order.
func (c *Collector) Refs() []Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Ref, len(c.refs))
	copy(out, c.refs)
	return out
}

// Len returns the number of distinct transfers registered.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.refs)
}
