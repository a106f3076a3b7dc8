package slide

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"jigport/internal/fileutil"
	"jigport/internal/logging"
	"jigport/internal/manifest"
	"jigport/internal/media"
	"jigport/internal/runlog"
	"jigport/internal/services"
)

// audioExtensions is the probe order for legacy audio. Exports were
// inconsistent about extensions, so each stem is tried against every
// candidate; the empty entry covers files stored without one.
var audioExtensions = []string{"mp3", "aac", "wav", "aiff", "ac3", ""}

// Prober checks whether a source asset exists without downloading it.
type Prober interface {
	Exists(ctx context.Context, url string) (bool, error)
}

// Options carries the policy flags that soften or harden conversion errors.
type Options struct {
	AllowBadJumpIndex bool
	AllowMissingMedia bool
	AllowMissingVideo bool
}

// Converter translates legacy slides into the native model, registering every
// referenced asset with the media collector as it goes.
type Converter struct {
	prober Prober
	medias *media.Collector
	logs   *runlog.Logs
	logger *slog.Logger
	opts   Options
}

// NewConverter builds a Converter.
func NewConverter(prober Prober, medias *media.Collector, logs *runlog.Logs, logger *slog.Logger, opts Options) *Converter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Converter{
		prober: prober,
		medias: medias,
		logs:   logs,
		logger: logger.With(logging.FieldComponent, "slides"),
		opts:   opts,
	}
}

// Convert translates one legacy slide. baseURL is the game's CDN root and
// slideCount bounds jump targets. A nil error with a non-nil slide is the
// normal outcome; tolerated problems surface only in the run logs.
func (c *Converter) Convert(ctx context.Context, gameID, baseURL string, src *manifest.Slide, slideCount int) (*Slide, error) {
	slideID := src.ID()
	if slideID == "" {
		return nil, services.Wrap(services.ErrInvariant, "slides", "identify",
			fmt.Sprintf("game %s has a slide without a file path", gameID), nil)
	}

	out := &Slide{Design: Design{Bgs: []string{}, Stickers: []Sticker{}}}

	if err := c.convertCover(ctx, gameID, baseURL, slideID, src, out); err != nil {
		return nil, err
	}

	activity, err := c.convertActivities(ctx, gameID, baseURL, slideID, src, slideCount)
	if err != nil {
		return nil, err
	}
	out.Activity = activity

	if err := c.convertLayers(ctx, gameID, baseURL, slideID, src, out); err != nil {
		return nil, err
	}

	return out, nil
}

// WriteSlide persists a converted slide under the game's staging tree.
func WriteSlide(gamesDir, gameID, slideID string, s *Slide) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrParse, "slides", "encode", slideID, err)
	}
	target := filepath.Join(gamesDir, gameID, "json", "slides", slideID+".json")
	if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
		return services.Wrap(services.ErrTransport, "slides", "write", target, err)
	}
	return nil
}

func (c *Converter) convertCover(ctx context.Context, gameID, baseURL, slideID string, src *manifest.Slide, out *Slide) error {
	full, err := c.addImageMedia(ctx, gameID, baseURL, slideID, src.Image)
	if err != nil {
		return err
	}
	if full == "" {
		c.warnf(gameID, "slide %s has no cover image", slideID)
		return nil
	}
	out.ImageFull = full

	if strings.TrimSpace(src.ImageThumb) != "" {
		thumb, err := c.addImageMedia(ctx, gameID, baseURL, slideID, src.ImageThumb)
		if err != nil {
			return err
		}
		if thumb != "" {
			out.ImageThumb = &thumb
		}
	}
	return nil
}

// addImageMedia probes the stripped filename under the slide directory first,
// then the raw export path under the game root. The raw path wins as the
// slide's filename when the slide-scoped copy is absent, even if nothing is
// found at source.
func (c *Converter) addImageMedia(ctx context.Context, gameID, baseURL, slideID, img string) (string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(img), "/")
	filename := path.Base(raw)
	if filename == "" || filename == "." || filename == "/" {
		return "", nil
	}

	url := baseURL + "/" + slideID + "/" + filename
	exists, err := c.prober.Exists(ctx, url)
	if err != nil {
		return "", err
	}
	if exists {
		c.medias.Add(media.Ref{
			GameID:    gameID,
			SourceURL: url,
			BasePath:  "slides/" + slideID,
			Filename:  filename,
		})
		return filename, nil
	}

	url = baseURL + "/" + raw
	exists, err = c.prober.Exists(ctx, url)
	if err != nil {
		return "", err
	}
	if exists {
		c.medias.Add(media.Ref{
			GameID:    gameID,
			SourceURL: url,
			BasePath:  "slides/" + slideID,
			Filename:  raw,
		})
	} else {
		c.warnf(gameID, "slide %s image %q not found at source", slideID, raw)
	}
	return raw, nil
}

func (c *Converter) convertActivities(ctx context.Context, gameID, baseURL, slideID string, src *manifest.Slide, slideCount int) (*Activity, error) {
	if len(src.Activities) == 0 {
		return nil, nil
	}

	first := &src.Activities[0]
	if len(src.Activities) > 1 && first.Kind != manifest.ActivityQuestions {
		return nil, services.Wrap(services.ErrInvariant, "slides", "activities",
			fmt.Sprintf("game %s slide %s has %d activities of kind %d", gameID, slideID, len(src.Activities), first.Kind), nil)
	}

	switch first.Kind {
	case manifest.ActivityQuestions:
		return c.convertQuestions(ctx, gameID, baseURL, slideID, src.Activities)
	case manifest.ActivitySaySomething:
		return c.convertSaySomething(ctx, gameID, baseURL, slideID, first, slideCount)
	case manifest.ActivitySoundboard:
		return c.convertSoundboard(ctx, gameID, baseURL, slideID, first, slideCount)
	case manifest.ActivityVideo:
		return c.convertVideo(ctx, gameID, baseURL, slideID, first)
	case manifest.ActivityPuzzle:
		return c.convertPuzzle(ctx, gameID, baseURL, slideID, first, slideCount)
	case manifest.ActivityTalkType:
		return c.convertTalkType(ctx, gameID, baseURL, slideID, first, slideCount)
	default:
		return nil, services.Wrap(services.ErrInvariant, "slides", "activities",
			fmt.Sprintf("game %s slide %s has unknown activity kind %d", gameID, slideID, first.Kind), nil)
	}
}

func (c *Converter) convertQuestions(ctx context.Context, gameID, baseURL, slideID string, activities []manifest.Activity) (*Activity, error) {
	items := make([]QuestionItem, 0, len(activities))
	for i := range activities {
		activity := &activities[i]
		if activity.Settings.BgAudio != "" {
			return nil, services.Wrap(services.ErrInvariant, "slides", "questions",
				fmt.Sprintf("game %s slide %s question has background audio", gameID, slideID), nil)
		}
		if len(activity.Shapes) > 1 {
			return nil, services.Wrap(services.ErrInvariant, "slides", "questions",
				fmt.Sprintf("game %s slide %s question has %d shapes", gameID, slideID, len(activity.Shapes)), nil)
		}
		if len(activity.Shapes) == 0 {
			c.warnf(gameID, "slide %s question without a shape skipped", slideID)
			continue
		}
		shape := &activity.Shapes[0]
		hotspot, ok := c.convertHotspot(gameID, slideID, shape)
		if !ok {
			continue
		}

		question, err := c.audioRef(ctx, gameID, baseURL, slideID, activity.IntroAudio)
		if err != nil {
			return nil, err
		}
		answer, err := c.audioRef(ctx, gameID, baseURL, slideID, shape.Audio)
		if err != nil {
			return nil, err
		}
		wrong, err := c.audioRef(ctx, gameID, baseURL, slideID, shape.Audio2)
		if err != nil {
			return nil, err
		}
		items = append(items, QuestionItem{
			QuestionFilename: question,
			AnswerFilename:   answer,
			WrongFilename:    wrong,
			Hotspot:          hotspot,
		})
	}
	return &Activity{AskQuestions: &AskQuestions{Items: items}}, nil
}

func (c *Converter) convertSaySomething(ctx context.Context, gameID, baseURL, slideID string, activity *manifest.Activity, slideCount int) (*Activity, error) {
	audio, err := c.audioRef(ctx, gameID, baseURL, slideID, activity.IntroAudio)
	if err != nil {
		return nil, err
	}

	trigger := AdvanceTap
	if activity.Settings.Advance != nil && *activity.Settings.Advance {
		trigger = AdvanceAudioEnd
	}

	jump, err := c.jumpIndex(gameID, slideID, activity.Settings.JumpIndex, slideCount)
	if err != nil {
		return nil, err
	}

	return &Activity{SaySomething: &SaySomething{
		AudioFilename:  audio,
		AdvanceTrigger: trigger,
		JumpIndex:      jump,
	}}, nil
}

func (c *Converter) convertSoundboard(ctx context.Context, gameID, baseURL, slideID string, activity *manifest.Activity, slideCount int) (*Activity, error) {
	intro, err := c.audioRef(ctx, gameID, baseURL, slideID, activity.IntroAudio)
	if err != nil {
		return nil, err
	}
	bg, err := c.audioRef(ctx, gameID, baseURL, slideID, activity.Settings.BgAudio)
	if err != nil {
		return nil, err
	}

	oneAtATime := false
	funMode, funModeV2 := activity.Settings.FunMode, activity.Settings.FunModeV2
	switch {
	case funMode != nil && funModeV2 != nil && *funMode != *funModeV2:
		return nil, services.Wrap(services.ErrInvariant, "slides", "soundboard",
			fmt.Sprintf("game %s slide %s has conflicting fun mode flags", gameID, slideID), nil)
	case funMode != nil:
		oneAtATime = !*funMode
	case funModeV2 != nil:
		oneAtATime = !*funModeV2
	}

	showHints := false
	if activity.Settings.HideHints != nil {
		showHints = !*activity.Settings.HideHints
	}

	var highlight *string
	items := make([]SoundboardItem, 0, len(activity.Shapes))
	for i := range activity.Shapes {
		shape := &activity.Shapes[i]

		if shape.Settings != nil && shape.Settings.HighlightColor != nil {
			color := strings.TrimSpace(*shape.Settings.HighlightColor)
			if color != "" {
				if highlight != nil && *highlight != color {
					return nil, services.Wrap(services.ErrInvariant, "slides", "soundboard",
						fmt.Sprintf("game %s slide %s mixes highlight colors %q and %q", gameID, slideID, *highlight, color), nil)
				}
				highlight = &color
			}
		}

		hotspot, ok := c.convertHotspot(gameID, slideID, shape)
		if !ok {
			continue
		}
		audio, err := c.audioRef(ctx, gameID, baseURL, slideID, shape.Audio)
		if err != nil {
			return nil, err
		}
		var text *string
		if shape.Settings != nil && shape.Settings.Text != nil {
			if trimmed := strings.TrimSpace(*shape.Settings.Text); trimmed != "" {
				text = &trimmed
			}
		}
		jump, err := c.jumpIndex(gameID, slideID, shapeJumpIndex(shape), slideCount)
		if err != nil {
			return nil, err
		}
		items = append(items, SoundboardItem{
			AudioFilename: audio,
			Text:          text,
			JumpIndex:     jump,
			Hotspot:       hotspot,
		})
	}

	return &Activity{Soundboard: &Soundboard{
		AudioFilename:   intro,
		BgAudioFilename: bg,
		HighlightColor:  highlight,
		OneAtATime:      oneAtATime,
		ShowHints:       showHints,
		Items:           items,
	}}, nil
}

func (c *Converter) convertVideo(ctx context.Context, gameID, baseURL, slideID string, activity *manifest.Activity) (*Activity, error) {
	url := strings.TrimSpace(activity.Settings.VideoURL)
	if url == "" {
		c.errorf(gameID, "slide %s video activity has no URL", slideID)
		return nil, nil
	}
	url = strings.TrimPrefix(url, "local://")
	if rest, ok := strings.CutPrefix(url, "http://"); ok {
		url = "https://" + rest
	}

	var src VideoSource
	if videoID, ok := parseYouTubeID(url); ok {
		src = VideoSource{YouTube: &videoID}
	} else {
		filename := path.Base(url)
		sourceURL := baseURL + "/video/" + filename
		exists, err := c.prober.Exists(ctx, sourceURL)
		if err != nil {
			return nil, err
		}
		if !exists {
			err := services.Wrap(services.ErrNotFound, "slides", "video",
				fmt.Sprintf("game %s slide %s video %q not found at source", gameID, slideID, filename), nil)
			if c.opts.AllowMissingVideo {
				c.warnf(gameID, "slide %s video %q not found at source, dropping activity", slideID, filename)
				return nil, nil
			}
			return nil, err
		}
		dest := stem(filename) + ".mp4"
		c.medias.Add(media.Ref{
			GameID:    gameID,
			SourceURL: sourceURL,
			BasePath:  "slides/" + slideID + "/activity",
			Filename:  dest,
			Transcode: media.TranscodeVideo,
		})
		src = VideoSource{Direct: &dest}
	}

	video := &Video{Src: src}
	if len(activity.Settings.Transform) == 6 {
		matrix := FromLegacy(activity.Settings.Transform)
		video.TransformMatrix = &matrix
	}
	if r, ok := parseRange(activity.Settings.VideoRange); ok {
		video.Range = &r
	}
	return &Activity{Video: video}, nil
}

func (c *Converter) convertPuzzle(ctx context.Context, gameID, baseURL, slideID string, activity *manifest.Activity, slideCount int) (*Activity, error) {
	audio, err := c.audioRef(ctx, gameID, baseURL, slideID, activity.IntroAudio)
	if err != nil {
		return nil, err
	}

	jump, err := c.jumpIndex(gameID, slideID, activity.Settings.JumpIndex, slideCount)
	if err != nil {
		return nil, err
	}

	theme := ThemeRegular
	if (activity.Settings.Theme != nil && *activity.Settings.Theme == 0) ||
		(activity.Settings.ThemeV2 != nil && *activity.Settings.ThemeV2) {
		theme = ThemeExtrude
	}

	hintsDisabled := true
	if activity.Settings.HintsDisabled != nil {
		hintsDisabled = *activity.Settings.HintsDisabled
	}
	showHints := !hintsDisabled

	flyBack := true
	if activity.Settings.PuzzleFunMode != nil && *activity.Settings.PuzzleFunMode {
		flyBack = false
	}

	showPreview := (activity.Settings.ShowShape != nil && *activity.Settings.ShowShape) ||
		(activity.Settings.ShowShapeV2 != nil && *activity.Settings.ShowShapeV2)

	items := make([]PuzzleItem, 0, len(activity.Shapes))
	for i := range activity.Shapes {
		shape := &activity.Shapes[i]
		hotspot, ok := c.convertHotspot(gameID, slideID, shape)
		if !ok {
			continue
		}
		shapeAudio, err := c.audioRef(ctx, gameID, baseURL, slideID, shape.Audio)
		if err != nil {
			return nil, err
		}
		items = append(items, PuzzleItem{AudioFilename: shapeAudio, Hotspot: hotspot})
	}

	return &Activity{Puzzle: &Puzzle{
		AudioFilename:   audio,
		JumpIndex:       jump,
		Theme:           theme,
		FlyBackToOrigin: flyBack,
		ShowPreview:     showPreview,
		ShowHints:       showHints,
		Items:           items,
	}}, nil
}

func (c *Converter) convertTalkType(ctx context.Context, gameID, baseURL, slideID string, activity *manifest.Activity, slideCount int) (*Activity, error) {
	audio, err := c.audioRef(ctx, gameID, baseURL, slideID, activity.IntroAudio)
	if err != nil {
		return nil, err
	}

	jump, err := c.jumpIndex(gameID, slideID, activity.Settings.JumpIndex, slideCount)
	if err != nil {
		return nil, err
	}

	showHints := activity.Settings.Tooltip != nil && *activity.Settings.Tooltip

	items := make([]TalkTypeItem, 0, len(activity.Shapes))
	for i := range activity.Shapes {
		shape := &activity.Shapes[i]
		hotspot, ok := c.convertHotspot(gameID, slideID, shape)
		if !ok {
			continue
		}

		var texts []string
		var inputLanguage *string
		answerKind := AnswerText
		if shape.Settings != nil {
			for _, answer := range shape.Settings.TextAnswers {
				texts = append(texts, strings.TrimSpace(answer))
			}
			inputLanguage = shape.Settings.TextInputLanguage
			if shape.Settings.SpeakingMode != nil && *shape.Settings.SpeakingMode {
				answerKind = AnswerAudio
			}
		}

		shapeAudio, err := c.audioRef(ctx, gameID, baseURL, slideID, shape.Audio)
		if err != nil {
			return nil, err
		}
		items = append(items, TalkTypeItem{
			Texts:         texts,
			InputLanguage: inputLanguage,
			AnswerKind:    answerKind,
			AudioFilename: shapeAudio,
			Hotspot:       hotspot,
		})
	}

	return &Activity{TalkType: &TalkType{
		AudioFilename: audio,
		JumpIndex:     jump,
		ShowHints:     showHints,
		Items:         items,
	}}, nil
}

func (c *Converter) convertLayers(ctx context.Context, gameID, baseURL, slideID string, src *manifest.Slide, out *Slide) error {
	for i := range src.Layers {
		layer := &src.Layers[i]
		filename := path.Base(strings.TrimSpace(layer.Filename))
		if filename == "." || filename == "/" {
			filename = ""
		}

		switch layer.Kind {
		case manifest.LayerBackground:
			if filename == "" {
				c.warnf(gameID, "slide %s background layer without filename skipped", slideID)
				continue
			}
			c.addLayerImage(gameID, baseURL, slideID, filename)
			out.Design.Bgs = append(out.Design.Bgs, filename)

		case manifest.LayerText, manifest.LayerImage, manifest.LayerAnimation:
			if filename == "" {
				// Text layers sometimes carry only raw HTML; the player
				// renders those from a sentinel sticker.
				if layer.Kind == manifest.LayerText && strings.TrimSpace(layer.HTML) != "" {
					out.Design.Stickers = append(out.Design.Stickers, Sticker{
						Filename:        "",
						Kind:            StickerText,
						TransformMatrix: layerTransform(layer),
						Hide:            layer.ShowKind == manifest.ShowOnTap,
						HideToggle:      hideToggle(layer),
					})
					continue
				}
				c.warnf(gameID, "slide %s layer of kind %d without filename skipped", slideID, layer.Kind)
				continue
			}

			sticker := Sticker{
				Filename:        filename,
				Kind:            stickerKind(layer.Kind),
				TransformMatrix: layerTransform(layer),
				Hide:            layer.ShowKind == manifest.ShowOnTap,
				HideToggle:      hideToggle(layer),
			}
			if layer.Kind == manifest.LayerAnimation {
				sticker.Animation = &Animation{
					Once: layer.Loop == manifest.LoopOnce,
					Tap:  layer.Loop == manifest.LoopTap,
				}
			}
			if layer.Width != nil && layer.Height != nil {
				sticker.OverrideSize = &[2]float64{*layer.Width / StageWidth, *layer.Height / StageHeight}
			}
			if layer.Audio != "" {
				audio, err := c.layerAudioRef(ctx, gameID, baseURL, slideID, layer.Audio)
				if err != nil {
					return err
				}
				sticker.AudioFilename = audio
			}
			c.addLayerImage(gameID, baseURL, slideID, filename)
			out.Design.Stickers = append(out.Design.Stickers, sticker)

		default:
			c.warnf(gameID, "slide %s layer of unknown kind %d skipped", slideID, layer.Kind)
		}
	}
	return nil
}

func (c *Converter) addLayerImage(gameID, baseURL, slideID, filename string) {
	c.medias.Add(media.Ref{
		GameID:    gameID,
		SourceURL: baseURL + "/" + slideID + "/layers/" + filename,
		BasePath:  "slides/" + slideID,
		Filename:  filename,
	})
}

func stickerKind(kind manifest.LayerKind) StickerKind {
	switch kind {
	case manifest.LayerText:
		return StickerText
	case manifest.LayerAnimation:
		return StickerAnimation
	default:
		return StickerImage
	}
}

func layerTransform(layer *manifest.Layer) Matrix4 {
	if len(layer.Transform) != 6 {
		return Identity()
	}
	return FromLegacy(layer.Transform)
}

func hideToggle(layer *manifest.Layer) *HideToggle {
	if layer.ShowKind == manifest.ShowOnLoad {
		return nil
	}
	toggle := ToggleOnce
	if layer.ToggleShow != nil && *layer.ToggleShow {
		toggle = ToggleAlways
	}
	return &toggle
}

// convertHotspot maps a legacy shape outline into normalized path commands.
// Shapes with fewer than two points cannot form an outline and are skipped
// with a warning.
func (c *Converter) convertHotspot(gameID, slideID string, shape *manifest.Shape) (Hotspot, bool) {
	if len(shape.Path) < 2 {
		c.warnf(gameID, "slide %s shape with %d path points skipped", slideID, len(shape.Path))
		return Hotspot{}, false
	}

	commands := make([]PathCommandEntry, 0, len(shape.Path))
	for _, point := range shape.Path {
		x, y := point.X/StageWidth, point.Y/StageHeight
		cp1x, cp1y := point.CP1X/StageWidth, point.CP1Y/StageHeight
		cp2x, cp2y := point.CP2X/StageWidth, point.CP2Y/StageHeight

		var command PathCommand
		switch point.Kind {
		case manifest.PathMoveToPoint:
			command = PathCommand{Kind: MoveTo, Points: []float64{x, y}}
		case manifest.PathAddLineToPoint:
			command = PathCommand{Kind: LineTo, Points: []float64{x, y}}
		case manifest.PathAddQuadCurve:
			command = PathCommand{Kind: QuadCurveTo, Points: []float64{cp1x, cp1y, x, y}}
		case manifest.PathAddCurve:
			command = PathCommand{Kind: CurveTo, Points: []float64{cp1x, cp1y, cp2x, cp2y, x, y}}
		case manifest.PathCloseSubPath:
			command = PathCommand{Kind: ClosePath}
		default:
			c.warnf(gameID, "slide %s shape with unknown path element %d skipped", slideID, point.Kind)
			return Hotspot{}, false
		}
		commands = append(commands, PathCommandEntry{Command: command, Absolute: true})
	}

	hotspot := Hotspot{Shape: Shape{PathCommands: commands}}

	if shape.Settings != nil {
		transform := shape.Settings.Transform
		if len(transform) == 0 {
			transform = shape.Settings.OriginTransform
		}
		if len(transform) == 6 && !IsIdentityLegacy(transform) {
			matrix := FromLegacy(transform)
			hotspot.TransformMatrix = &matrix
		}
	}
	return hotspot, true
}

func shapeJumpIndex(shape *manifest.Shape) *int {
	if shape.Settings == nil {
		return nil
	}
	return shape.Settings.JumpIndex
}

// audioRef probes the extension cascade for an activity audio stem. Exports
// keep these at the game root even though the migrated copy lands under the
// slide's activity directory. Missing audio is always tolerated with a
// warning, matching how unreliable the legacy exports are.
func (c *Converter) audioRef(ctx context.Context, gameID, baseURL, slideID, filename string) (*string, error) {
	return c.probeAudio(ctx, gameID, baseURL, "slides/"+slideID+"/activity", slideID, filename)
}

// layerAudioRef is audioRef for design layers, which live one directory over.
func (c *Converter) layerAudioRef(ctx context.Context, gameID, baseURL, slideID, filename string) (*string, error) {
	return c.probeAudio(ctx, gameID, baseURL+"/"+slideID+"/layers", "slides/"+slideID, slideID, filename)
}

func (c *Converter) probeAudio(ctx context.Context, gameID, sourceBase, basePath, slideID, filename string) (*string, error) {
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, nil
	}
	base := stem(filename)

	for _, ext := range audioExtensions {
		candidate := base
		if ext != "" {
			candidate += "." + ext
		}
		url := sourceBase + "/" + candidate
		exists, err := c.prober.Exists(ctx, url)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		dest := base + ".mp3"
		c.medias.Add(media.Ref{
			GameID:    gameID,
			SourceURL: url,
			BasePath:  basePath,
			Filename:  dest,
			Transcode: media.TranscodeAudio,
		})
		return &dest, nil
	}

	c.warnf(gameID, "slide %s audio %q not found under any extension", slideID, filename)
	return nil, nil
}

func (c *Converter) jumpIndex(gameID, slideID string, index *int, slideCount int) (*int, error) {
	if index == nil {
		return nil, nil
	}
	if *index >= 0 && *index < slideCount {
		value := *index
		return &value, nil
	}
	if c.opts.AllowBadJumpIndex {
		c.warnf(gameID, "slide %s jump index %d out of range (%d slides), dropping", slideID, *index, slideCount)
		return nil, nil
	}
	return nil, services.Wrap(services.ErrInvariant, "slides", "jump-index",
		fmt.Sprintf("game %s slide %s jump index %d out of range (%d slides)", gameID, slideID, *index, slideCount), nil)
}

// parseYouTubeID recognizes the hosted URL shapes the legacy data contains.
func parseYouTubeID(url string) (string, bool) {
	for _, prefix := range []string{
		"https://www.youtube.com/watch?v=",
		"https://youtube.com/watch?v=",
		"https://m.youtube.com/watch?v=",
		"https://youtu.be/",
		"https://www.youtube.com/embed/",
	} {
		if rest, ok := strings.CutPrefix(url, prefix); ok {
			if idx := strings.IndexAny(rest, "?&"); idx >= 0 {
				rest = rest[:idx]
			}
			if rest != "" {
				return rest, true
			}
		}
	}
	return "", false
}

// parseRange reads the legacy "{start, end}" clip range notation.
func parseRange(raw string) ([2]float64, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") || !strings.HasSuffix(raw, "}") {
		return [2]float64{}, false
	}
	parts := strings.Split(raw[1:len(raw)-1], ",")
	if len(parts) != 2 {
		return [2]float64{}, false
	}
	var out [2]float64
	for i, part := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%g", &out[i]); err != nil {
			return [2]float64{}, false
		}
	}
	return out, true
}

func stem(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

func (c *Converter) warnf(gameID, format string, args ...any) {
	c.logger.Warn(fmt.Sprintf(format, args...), logging.FieldGameID, gameID)
	if c.logs != nil {
		c.logs.Warnf(gameID, format, args...)
	}
}

func (c *Converter) errorf(gameID, format string, args ...any) {
	c.logger.Error(fmt.Sprintf(format, args...), logging.FieldGameID, gameID)
	if c.logs != nil {
		c.logs.Errorf(gameID, format, args...)
	}
}
