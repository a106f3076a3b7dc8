// Package slide defines the native activity model and converts legacy slides
// into it. The JSON shape mirrors what the player consumes: slides carry a
// full-size cover image, at most one activity, and a design built from
// backgrounds and stickers. Hotspot outlines are normalized path commands in
// unit coordinates.
package slide

import (
	"encoding/json"
	"fmt"
)

// Slide is the migrated form of one legacy slide.
type Slide struct {
	ImageFull  string    `json:"image_full,omitempty"`
	ImageThumb *string   `json:"image_thumb,omitempty"`
	Activity   *Activity `json:"activity,omitempty"`
	Design     Design    `json:"design"`
}

// Activity holds exactly one of the supported activity payloads, keyed by its
// variant name in the serialized form.
type Activity struct {
	SaySomething *SaySomething `json:"SaySomething,omitempty"`
	Soundboard   *Soundboard   `json:"Soundboard,omitempty"`
	Video        *Video        `json:"Video,omitempty"`
	Puzzle       *Puzzle       `json:"Puzzle,omitempty"`
	TalkType     *TalkType     `json:"TalkType,omitempty"`
	AskQuestions *AskQuestions `json:"AskQuestions,omitempty"`
}

// AdvanceTrigger controls when a SaySomething slide moves on.
type AdvanceTrigger string

const (
	AdvanceAudioEnd AdvanceTrigger = "AudioEnd"
	AdvanceTap      AdvanceTrigger = "Tap"
)

// SaySomething plays audio over the slide and advances by trigger.
type SaySomething struct {
	AudioFilename  *string        `json:"audio_filename,omitempty"`
	AdvanceTrigger AdvanceTrigger `json:"advance_trigger"`
	JumpIndex      *int           `json:"jump_index,omitempty"`
}

// Soundboard exposes tappable hotspots that each play audio.
type Soundboard struct {
	AudioFilename   *string          `json:"audio_filename,omitempty"`
	BgAudioFilename *string          `json:"bg_audio_filename,omitempty"`
	HighlightColor  *string          `json:"highlight_color,omitempty"`
	OneAtATime      bool             `json:"one_at_a_time"`
	ShowHints       bool             `json:"show_hints"`
	Items           []SoundboardItem `json:"items"`
}

// SoundboardItem is one tappable region of a soundboard.
type SoundboardItem struct {
	AudioFilename *string `json:"audio_filename,omitempty"`
	Text          *string `json:"text,omitempty"`
	JumpIndex     *int    `json:"jump_index,omitempty"`
	Hotspot       Hotspot `json:"hotspot"`
}

// Video embeds a hosted or migrated clip.
type Video struct {
	TransformMatrix *Matrix4    `json:"transform_matrix,omitempty"`
	Src             VideoSource `json:"src"`
	Range           *[2]float64 `json:"range,omitempty"`
}

// VideoSource is a one-of: a YouTube video ID or a migrated direct file.
type VideoSource struct {
	YouTube *string `json:"Youtube,omitempty"`
	Direct  *string `json:"Direct,omitempty"`
}

// PuzzleTheme selects the rendered depth effect for puzzle pieces.
type PuzzleTheme string

const (
	ThemeRegular PuzzleTheme = "Regular"
	ThemeExtrude PuzzleTheme = "Extrude"
)

// Puzzle asks the player to drag pieces back into their outlines.
type Puzzle struct {
	AudioFilename   *string      `json:"audio_filename,omitempty"`
	JumpIndex       *int         `json:"jump_index,omitempty"`
	Theme           PuzzleTheme  `json:"theme"`
	FlyBackToOrigin bool         `json:"fly_back_to_origin"`
	ShowPreview     bool         `json:"show_preview"`
	ShowHints       bool         `json:"show_hints"`
	Items           []PuzzleItem `json:"items"`
}

// PuzzleItem is one draggable piece.
type PuzzleItem struct {
	AudioFilename *string `json:"audio_filename,omitempty"`
	Hotspot       Hotspot `json:"hotspot"`
}

// AnswerKind distinguishes spoken from typed answers in TalkType.
type AnswerKind string

const (
	AnswerAudio AnswerKind = "Audio"
	AnswerText  AnswerKind = "Text"
)

// TalkType prompts the player to speak or type the answer for each region.
type TalkType struct {
	AudioFilename *string        `json:"audio_filename,omitempty"`
	JumpIndex     *int           `json:"jump_index,omitempty"`
	ShowHints     bool           `json:"show_hints"`
	Items         []TalkTypeItem `json:"items"`
}

// TalkTypeItem is one answerable region.
type TalkTypeItem struct {
	Texts         []string   `json:"texts"`
	InputLanguage *string    `json:"input_language,omitempty"`
	AnswerKind    AnswerKind `json:"answer_kind"`
	AudioFilename *string    `json:"audio_filename,omitempty"`
	Hotspot       Hotspot    `json:"hotspot"`
}

// AskQuestions walks the player through audio questions with one hotspot each.
type AskQuestions struct {
	Items []QuestionItem `json:"items"`
}

// QuestionItem pairs the question audio with its answer region and feedback.
type QuestionItem struct {
	QuestionFilename *string `json:"question_filename,omitempty"`
	AnswerFilename   *string `json:"answer_filename,omitempty"`
	WrongFilename    *string `json:"wrong_filename,omitempty"`
	Hotspot          Hotspot `json:"hotspot"`
}

// Hotspot is a tappable outline with an optional placement transform. The
// transform is omitted when the legacy shape carried the identity.
type Hotspot struct {
	Shape           Shape    `json:"shape"`
	TransformMatrix *Matrix4 `json:"transform_matrix,omitempty"`
}

// Shape is serialized in the player's externally tagged form.
type Shape struct {
	PathCommands []PathCommandEntry `json:"PathCommands"`
}

// PathCommandEntry pairs a command with its absolute-coordinates flag. The
// wire form is a two-element array.
type PathCommandEntry struct {
	Command  PathCommand
	Absolute bool
}

// MarshalJSON renders the [command, absolute] pair.
func (e PathCommandEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Command, e.Absolute})
}

// UnmarshalJSON reads the [command, absolute] pair.
func (e *PathCommandEntry) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.Command); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &e.Absolute)
}

// PathCommandKind names a path drawing operation.
type PathCommandKind string

const (
	MoveTo      PathCommandKind = "MoveTo"
	LineTo      PathCommandKind = "LineTo"
	QuadCurveTo PathCommandKind = "QuadCurveTo"
	CurveTo     PathCommandKind = "CurveTo"
	ClosePath   PathCommandKind = "ClosePath"
)

// PathCommand is one drawing operation in unit coordinates. ClosePath carries
// no points and serializes as a bare string; every other command serializes as
// a single-key object with its coordinate list.
type PathCommand struct {
	Kind   PathCommandKind
	Points []float64
}

// MarshalJSON renders the externally tagged command form.
func (c PathCommand) MarshalJSON() ([]byte, error) {
	if c.Kind == ClosePath {
		return json.Marshal(string(ClosePath))
	}
	return json.Marshal(map[string][]float64{string(c.Kind): c.Points})
}

// UnmarshalJSON reads the externally tagged command form.
func (c *PathCommand) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != string(ClosePath) {
			return fmt.Errorf("unknown bare path command %q", tag)
		}
		c.Kind = ClosePath
		c.Points = nil
		return nil
	}
	var tagged map[string][]float64
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("path command must have exactly one tag, got %d", len(tagged))
	}
	for key, points := range tagged {
		switch kind := PathCommandKind(key); kind {
		case MoveTo, LineTo, QuadCurveTo, CurveTo:
			c.Kind = kind
			c.Points = points
		default:
			return fmt.Errorf("unknown path command %q", key)
		}
	}
	return nil
}

// Design is the static composition of a slide.
type Design struct {
	Bgs      []string  `json:"bgs"`
	Stickers []Sticker `json:"stickers"`
}

// StickerKind mirrors the legacy layer kinds that become stickers.
type StickerKind string

const (
	StickerText      StickerKind = "Text"
	StickerImage     StickerKind = "Image"
	StickerAnimation StickerKind = "Animation"
)

// HideToggle controls whether a tap-to-show sticker toggles repeatedly.
type HideToggle string

const (
	ToggleAlways HideToggle = "Always"
	ToggleOnce   HideToggle = "Once"
)

// Animation configures looping for animation stickers.
type Animation struct {
	Once bool `json:"once"`
	Tap  bool `json:"tap"`
}

// Sticker is one visible element of the design.
type Sticker struct {
	Filename        string      `json:"filename"`
	Kind            StickerKind `json:"kind"`
	TransformMatrix Matrix4     `json:"transform_matrix"`
	Hide            bool        `json:"hide"`
	HideToggle      *HideToggle `json:"hide_toggle,omitempty"`
	Animation       *Animation  `json:"animation,omitempty"`
	OverrideSize    *[2]float64 `json:"override_size,omitempty"`
	AudioFilename   *string     `json:"audio_filename,omitempty"`
}
