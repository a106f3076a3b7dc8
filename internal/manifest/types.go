package manifest

import (
	"strconv"
	"strings"
)

// ActivityKind is the legacy integer discriminator for slide activities.
type ActivityKind int

const (
	ActivitySaySomething ActivityKind = 0
	ActivitySoundboard   ActivityKind = 1
	ActivityVideo        ActivityKind = 2
	ActivityPuzzle       ActivityKind = 3
	ActivityTalkType     ActivityKind = 4
	ActivityQuestions    ActivityKind = 5
)

// LayerKind is the legacy integer discriminator for design layers.
type LayerKind int

const (
	LayerBackground LayerKind = 0
	LayerText       LayerKind = 1
	LayerImage      LayerKind = 2
	LayerAnimation  LayerKind = 3
)

// ShowKind controls initial layer visibility.
type ShowKind int

const (
	ShowOnLoad ShowKind = 0
	ShowOnTap  ShowKind = 1
	HideOnTap  ShowKind = 2
)

// LoopKind controls animation playback for animation layers.
type LoopKind int

const (
	LoopNone LoopKind = 0
	LoopPlay LoopKind = 1
	LoopOnce LoopKind = 2
	LoopTap  LoopKind = 3
)

// PathElementKind is the legacy integer discriminator for hotspot path points.
type PathElementKind int

const (
	PathMoveToPoint    PathElementKind = 0
	PathAddLineToPoint PathElementKind = 1
	PathAddQuadCurve   PathElementKind = 2
	PathAddCurve       PathElementKind = 3
	PathCloseSubPath   PathElementKind = 4
)

// Manifest is the legacy game document as served by the source store.
type Manifest struct {
	AlbumStore AlbumStore `json:"album_store"`
	Structure  Structure  `json:"structure"`
	BaseURL    string     `json:"base_url"`
}

// GameID returns the album primary key as a string.
func (m *Manifest) GameID() string {
	return strconv.FormatInt(m.AlbumStore.Album.PK, 10)
}

// AlbumStore wraps the album record and its store-level flags.
type AlbumStore struct {
	Album  Album `json:"album"`
	Public *bool `json:"public"`
}

// Album is the legacy album record.
type Album struct {
	PK     int64       `json:"pk"`
	Fields AlbumFields `json:"fields"`
}

// AlbumFields carries the album metadata used to build the JIG.
type AlbumFields struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Language    string  `json:"language"`
	Author      *Author `json:"author"`
}

// Author is the original creator credited in the migrated description.
type Author struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Structure is the playable content of a game.
type Structure struct {
	MusicFile string  `json:"musicFile"`
	Slides    []Slide `json:"slides"`
}

// Slide is one legacy slide with its cover image, activities, and layers.
type Slide struct {
	FilePath   string     `json:"filePath"`
	Image      string     `json:"filePathImage"`
	ImageThumb string     `json:"filePathImageThumb"`
	Activities []Activity `json:"activities"`
	Layers     []Layer    `json:"layers"`
}

// ID derives the stable slide identifier from the slide's directory path.
func (s *Slide) ID() string {
	return strings.Trim(s.FilePath, "/")
}

// Activity is one interaction attached to a slide.
type Activity struct {
	Kind       ActivityKind     `json:"kind"`
	IntroAudio string           `json:"introAudio"`
	Shapes     []Shape          `json:"shapes"`
	Settings   ActivitySettings `json:"settings"`
}

// ActivitySettings holds the per-activity tuning knobs. Most fields are only
// meaningful for one activity kind; pointers distinguish absent from false.
type ActivitySettings struct {
	// SaySomething
	Advance   *bool `json:"advance"`
	JumpIndex *int  `json:"jumpIndex"`

	// Questions
	BgAudio string `json:"bgAudio"`

	// Soundboard
	FunMode   *bool `json:"soundFunMode"`
	FunModeV2 *bool `json:"soundFunModeV2"`
	HideHints *bool `json:"soundHideHints"`

	// Video
	VideoURL   string    `json:"videoURL"`
	VideoRange string    `json:"videoRange"`
	Transform  []float64 `json:"transform"`

	// Puzzle
	Theme         *int  `json:"theme"`
	ThemeV2       *bool `json:"themeV2"`
	HintsDisabled *bool `json:"hintsDisabled"`
	PuzzleFunMode *bool `json:"funMode"`
	ShowShape     *bool `json:"showShape"`
	ShowShapeV2   *bool `json:"showShapeV2"`

	// TalkType
	Tooltip *bool `json:"tooltip"`
}

// Shape is a tappable region within an activity.
type Shape struct {
	Audio    string         `json:"audio"`
	Audio2   string         `json:"audio2"`
	Path     []PathPoint    `json:"path"`
	Settings *ShapeSettings `json:"settings"`
}

// ShapeSettings carries the per-shape tuning knobs: placement, presentation,
// and the answer configuration TalkType and Soundboard read per region.
type ShapeSettings struct {
	Text              *string   `json:"text"`
	TextAnswers       []string  `json:"textAnswers"`
	TextInputLanguage *string   `json:"textInputLanguage"`
	SpeakingMode      *bool     `json:"speakingMode"`
	JumpIndex         *int      `json:"jumpIndex"`
	HighlightColor    *string   `json:"highlightColor"`
	Transform         []float64 `json:"transform"`
	OriginTransform   []float64 `json:"originTransform"`
}

// PathPoint is one element of a hotspot outline in 1024x768 stage coordinates.
type PathPoint struct {
	Kind PathElementKind `json:"kind"`
	X    float64         `json:"x"`
	Y    float64         `json:"y"`
	CP1X float64         `json:"cp1x"`
	CP1Y float64         `json:"cp1y"`
	CP2X float64         `json:"cp2x"`
	CP2Y float64         `json:"cp2y"`
}

// Layer is one element of a slide's static design.
type Layer struct {
	Kind      LayerKind `json:"type"`
	Filename  string    `json:"filename"`
	HTML      string    `json:"html"`
	Audio     string    `json:"audio"`
	Transform []float64 `json:"transform"`
	ShowKind  ShowKind  `json:"showKind"`
	// ToggleShow only applies when ShowKind is tap-driven.
	ToggleShow *bool    `json:"toggleShow"`
	Loop       LoopKind `json:"loop"`
	Width      *float64 `json:"width"`
	Height     *float64 `json:"height"`
}
