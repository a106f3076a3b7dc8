package slide_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"jigport/internal/manifest"
	"jigport/internal/media"
	"jigport/internal/services"
	"jigport/internal/slide"
)

const (
	testGameID  = "7"
	testBaseURL = "https://cdn.example.com/games/7"
)

type fakeProber struct {
	mu     sync.Mutex
	exists map[string]bool
	calls  []string
}

func (p *fakeProber) Exists(_ context.Context, url string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, url)
	return p.exists[url], nil
}

func boolPtr(v bool) *bool    { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func rectPath() []manifest.PathPoint {
	return []manifest.PathPoint{
		{Kind: manifest.PathMoveToPoint, X: 0, Y: 0},
		{Kind: manifest.PathAddLineToPoint, X: 512, Y: 384},
		{Kind: manifest.PathCloseSubPath},
	}
}

func newConverter(prober *fakeProber, opts slide.Options) (*slide.Converter, *media.Collector) {
	collector := media.NewCollector()
	return slide.NewConverter(prober, collector, nil, nil, opts), collector
}

func convertOne(t *testing.T, converter *slide.Converter, src *manifest.Slide, slideCount int) *slide.Slide {
	t.Helper()
	out, err := converter.Convert(context.Background(), testGameID, testBaseURL, src, slideCount)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	return out
}

func TestAudioCascadeNormalizesToMP3(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{
		testBaseURL + "/intro.wav": true,
	}}
	converter, collector := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/slide1/",
		Activities: []manifest.Activity{{
			Kind:       manifest.ActivitySaySomething,
			IntroAudio: "intro.wav",
		}},
	}
	out := convertOne(t, converter, src, 3)

	say := out.Activity.SaySomething
	if say == nil {
		t.Fatal("expected SaySomething activity")
	}
	if say.AudioFilename == nil || *say.AudioFilename != "intro.mp3" {
		t.Fatalf("expected canonical mp3 name, got %v", say.AudioFilename)
	}

	refs := collector.Refs()
	if len(refs) != 1 {
		t.Fatalf("expected 1 media ref, got %d", len(refs))
	}
	ref := refs[0]
	if ref.SourceURL != testBaseURL+"/intro.wav" {
		t.Fatalf("unexpected source URL: %s", ref.SourceURL)
	}
	if ref.Transcode != media.TranscodeAudio {
		t.Fatalf("expected audio transcode, got %q", ref.Transcode)
	}
	if ref.Key() != "7/media/slides/slide1/activity/intro.mp3" {
		t.Fatalf("unexpected target key: %s", ref.Key())
	}

	// Cascade must try mp3 and aac before finding the wav, and the exports
	// keep activity audio at the game root, not under the slide.
	want := []string{
		testBaseURL + "/intro.mp3",
		testBaseURL + "/intro.aac",
		testBaseURL + "/intro.wav",
	}
	if len(prober.calls) != len(want) {
		t.Fatalf("unexpected probes: %v", prober.calls)
	}
	for i, url := range want {
		if prober.calls[i] != url {
			t.Fatalf("probe %d = %s, want %s", i, prober.calls[i], url)
		}
	}
}

func TestMissingAudioIsToleratedWithWarning(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, collector := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/slide1/",
		Activities: []manifest.Activity{{
			Kind:       manifest.ActivitySaySomething,
			IntroAudio: "ghost.mp3",
		}},
	}
	out := convertOne(t, converter, src, 1)
	if out.Activity.SaySomething.AudioFilename != nil {
		t.Fatal("expected nil audio for missing file")
	}
	if collector.Len() != 0 {
		t.Fatalf("expected no media refs, got %d", collector.Len())
	}
}

func TestYouTubeVideoIsClassifiedWithoutProbing(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, collector := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/v/",
		Activities: []manifest.Activity{{
			Kind: manifest.ActivityVideo,
			Settings: manifest.ActivitySettings{
				VideoURL:   "http://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10",
				VideoRange: "{1.5, 4}",
			},
		}},
	}
	out := convertOne(t, converter, src, 1)

	video := out.Activity.Video
	if video == nil {
		t.Fatal("expected video activity")
	}
	if video.Src.YouTube == nil || *video.Src.YouTube != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected video source: %+v", video.Src)
	}
	if video.Src.Direct != nil {
		t.Fatal("YouTube video must not have a direct source")
	}
	if video.Range == nil || video.Range[0] != 1.5 || video.Range[1] != 4 {
		t.Fatalf("unexpected range: %v", video.Range)
	}
	if len(prober.calls) != 0 {
		t.Fatalf("hosted video must not be probed, got %v", prober.calls)
	}
	if collector.Len() != 0 {
		t.Fatalf("hosted video must not be transferred, got %d refs", collector.Len())
	}
}

func TestDirectVideoTranscodesToMP4(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{
		testBaseURL + "/video/clip.mov": true,
	}}
	converter, collector := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/v/",
		Activities: []manifest.Activity{{
			Kind:     manifest.ActivityVideo,
			Settings: manifest.ActivitySettings{VideoURL: "local://media/clip.mov"},
		}},
	}
	out := convertOne(t, converter, src, 1)

	video := out.Activity.Video
	if video.Src.Direct == nil || *video.Src.Direct != "clip.mp4" {
		t.Fatalf("unexpected direct source: %+v", video.Src)
	}
	refs := collector.Refs()
	if len(refs) != 1 || refs[0].Transcode != media.TranscodeVideo {
		t.Fatalf("expected one video transcode ref, got %+v", refs)
	}
	if refs[0].Filename != "clip.mp4" {
		t.Fatalf("unexpected target filename: %s", refs[0].Filename)
	}
}

func TestVideoKeepsTransformMatrix(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/v/",
		Activities: []manifest.Activity{{
			Kind: manifest.ActivityVideo,
			Settings: manifest.ActivitySettings{
				VideoURL:  "https://youtu.be/dQw4w9WgXcQ",
				Transform: []float64{2, 0, 0, 2, 100, 50},
			},
		}},
	}
	out := convertOne(t, converter, src, 1)

	matrix := out.Activity.Video.TransformMatrix
	if matrix == nil {
		t.Fatal("expected transform matrix on video")
	}
	if matrix[0] != 2 || matrix[12] != 100.0/1024.0 {
		t.Fatalf("unexpected matrix: %v", matrix)
	}

	// Unlike hotspots, the identity transform is carried through verbatim.
	src.Activities[0].Settings.Transform = []float64{1, 0, 0, 1, 0, 0}
	out = convertOne(t, converter, src, 1)
	if out.Activity.Video.TransformMatrix == nil {
		t.Fatal("expected identity matrix kept on video")
	}
}

func TestMissingDirectVideoIsFatal(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/v/",
		Activities: []manifest.Activity{{
			Kind:     manifest.ActivityVideo,
			Settings: manifest.ActivitySettings{VideoURL: "https://cdn.example.com/clip.mov"},
		}},
	}
	_, err := converter.Convert(context.Background(), testGameID, testBaseURL, src, 1)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	// With the policy flag set, the activity is dropped instead.
	converter, _ = newConverter(prober, slide.Options{AllowMissingVideo: true})
	out := convertOne(t, converter, src, 1)
	if out.Activity != nil {
		t.Fatalf("expected activity dropped, got %+v", out.Activity)
	}
}

func TestEmptyVideoURLDropsActivity(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath:   "/v/",
		Activities: []manifest.Activity{{Kind: manifest.ActivityVideo}},
	}
	out := convertOne(t, converter, src, 1)
	if out.Activity != nil {
		t.Fatalf("expected no activity for empty URL, got %+v", out.Activity)
	}
}

func TestSoundboardHighlightConflictIsFatal(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/s/",
		Activities: []manifest.Activity{{
			Kind: manifest.ActivitySoundboard,
			Shapes: []manifest.Shape{
				{Path: rectPath(), Settings: &manifest.ShapeSettings{HighlightColor: strPtr("#ff0000")}},
				{Path: rectPath(), Settings: &manifest.ShapeSettings{HighlightColor: strPtr("#00ff00")}},
			},
		}},
	}
	_, err := converter.Convert(context.Background(), testGameID, testBaseURL, src, 1)
	if !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestSoundboardDerivesFlags(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/s/",
		Activities: []manifest.Activity{{
			Kind: manifest.ActivitySoundboard,
			Settings: manifest.ActivitySettings{
				FunMode:   boolPtr(false),
				HideHints: boolPtr(false),
			},
			Shapes: []manifest.Shape{
				{Path: rectPath(), Settings: &manifest.ShapeSettings{HighlightColor: strPtr("  #ff0000  ")}},
				{Path: rectPath(), Settings: &manifest.ShapeSettings{HighlightColor: strPtr("#ff0000")}},
			},
		}},
	}
	out := convertOne(t, converter, src, 1)

	board := out.Activity.Soundboard
	if board == nil {
		t.Fatal("expected soundboard activity")
	}
	if !board.OneAtATime {
		t.Fatal("fun mode off must force one-at-a-time")
	}
	if !board.ShowHints {
		t.Fatal("hide hints off must show hints")
	}
	if board.HighlightColor == nil || *board.HighlightColor != "#ff0000" {
		t.Fatalf("expected trimmed highlight color, got %v", board.HighlightColor)
	}
	if len(board.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(board.Items))
	}
}

func TestConflictingFunModeFlagsAreFatal(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/s/",
		Activities: []manifest.Activity{{
			Kind: manifest.ActivitySoundboard,
			Settings: manifest.ActivitySettings{
				FunMode:   boolPtr(true),
				FunModeV2: boolPtr(false),
			},
		}},
	}
	_, err := converter.Convert(context.Background(), testGameID, testBaseURL, src, 1)
	if !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestBadJumpIndexPolicy(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}

	src := &manifest.Slide{
		FilePath: "/s/",
		Activities: []manifest.Activity{{
			Kind:     manifest.ActivitySaySomething,
			Settings: manifest.ActivitySettings{JumpIndex: intPtr(9)},
		}},
	}

	converter, _ := newConverter(prober, slide.Options{AllowBadJumpIndex: true})
	out := convertOne(t, converter, src, 3)
	if out.Activity.SaySomething.JumpIndex != nil {
		t.Fatalf("expected out-of-range jump dropped, got %v", *out.Activity.SaySomething.JumpIndex)
	}

	converter, _ = newConverter(prober, slide.Options{AllowBadJumpIndex: false})
	_, err := converter.Convert(context.Background(), testGameID, testBaseURL, src, 3)
	if !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error for bad jump, got %v", err)
	}

	// In-range jumps always survive.
	src.Activities[0].Settings.JumpIndex = intPtr(2)
	converter, _ = newConverter(prober, slide.Options{})
	out = convertOne(t, converter, src, 3)
	if out.Activity.SaySomething.JumpIndex == nil || *out.Activity.SaySomething.JumpIndex != 2 {
		t.Fatalf("expected jump index 2, got %v", out.Activity.SaySomething.JumpIndex)
	}
}

func TestMultipleActivitiesOnlyLegalForQuestions(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/s/",
		Activities: []manifest.Activity{
			{Kind: manifest.ActivitySoundboard},
			{Kind: manifest.ActivitySoundboard},
		},
	}
	_, err := converter.Convert(context.Background(), testGameID, testBaseURL, src, 1)
	if !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestQuestionsBuildOneItemPerActivity(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{
		testBaseURL + "/question1.mp3": true,
		testBaseURL + "/right1.mp3":    true,
		testBaseURL + "/wrong1.mp3":    true,
		testBaseURL + "/question2.mp3": true,
	}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/q/",
		Activities: []manifest.Activity{
			{
				Kind:       manifest.ActivityQuestions,
				IntroAudio: "question1.mp3",
				Shapes:     []manifest.Shape{{Audio: "right1.mp3", Audio2: "wrong1.mp3", Path: rectPath()}},
			},
			{
				Kind:       manifest.ActivityQuestions,
				IntroAudio: "question2.mp3",
				Shapes:     []manifest.Shape{{Path: rectPath()}},
			},
			{
				// No shape: skipped with a warning, not fatal.
				Kind:       manifest.ActivityQuestions,
				IntroAudio: "question3.mp3",
			},
		},
	}
	out := convertOne(t, converter, src, 1)

	questions := out.Activity.AskQuestions
	if questions == nil {
		t.Fatal("expected questions activity")
	}
	if len(questions.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(questions.Items))
	}
	first := questions.Items[0]
	if first.QuestionFilename == nil || *first.QuestionFilename != "question1.mp3" {
		t.Fatalf("unexpected question audio: %v", first.QuestionFilename)
	}
	if first.AnswerFilename == nil || *first.AnswerFilename != "right1.mp3" {
		t.Fatalf("unexpected answer audio: %v", first.AnswerFilename)
	}
	if first.WrongFilename == nil || *first.WrongFilename != "wrong1.mp3" {
		t.Fatalf("unexpected wrong audio: %v", first.WrongFilename)
	}
}

func TestQuestionInvariants(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	withBgAudio := &manifest.Slide{
		FilePath: "/q/",
		Activities: []manifest.Activity{{
			Kind:     manifest.ActivityQuestions,
			Settings: manifest.ActivitySettings{BgAudio: "music.mp3"},
			Shapes:   []manifest.Shape{{Path: rectPath()}},
		}},
	}
	if _, err := converter.Convert(context.Background(), testGameID, testBaseURL, withBgAudio, 1); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error for question bg audio, got %v", err)
	}

	withTwoShapes := &manifest.Slide{
		FilePath: "/q/",
		Activities: []manifest.Activity{{
			Kind:   manifest.ActivityQuestions,
			Shapes: []manifest.Shape{{Path: rectPath()}, {Path: rectPath()}},
		}},
	}
	if _, err := converter.Convert(context.Background(), testGameID, testBaseURL, withTwoShapes, 1); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error for multi-shape question, got %v", err)
	}
}

func TestPuzzleDerivesFlags(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/p/",
		Activities: []manifest.Activity{{
			Kind: manifest.ActivityPuzzle,
			Settings: manifest.ActivitySettings{
				ThemeV2:       boolPtr(true),
				HintsDisabled: boolPtr(false),
				PuzzleFunMode: boolPtr(true),
				ShowShapeV2:   boolPtr(true),
			},
			Shapes: []manifest.Shape{{Path: rectPath()}},
		}},
	}
	out := convertOne(t, converter, src, 1)

	puzzle := out.Activity.Puzzle
	if puzzle == nil {
		t.Fatal("expected puzzle activity")
	}
	if puzzle.Theme != slide.ThemeExtrude {
		t.Fatalf("expected Extrude theme, got %q", puzzle.Theme)
	}
	if !puzzle.ShowHints {
		t.Fatal("hints enabled must show hints")
	}
	if puzzle.FlyBackToOrigin {
		t.Fatal("fun mode on must disable fly-back")
	}
	if !puzzle.ShowPreview {
		t.Fatal("show shape v2 must enable preview")
	}
	if len(puzzle.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(puzzle.Items))
	}
}

func TestPuzzleDefaults(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath:   "/p/",
		Activities: []manifest.Activity{{Kind: manifest.ActivityPuzzle}},
	}
	out := convertOne(t, converter, src, 1)

	puzzle := out.Activity.Puzzle
	if puzzle.Theme != slide.ThemeRegular {
		t.Fatalf("expected Regular theme by default, got %q", puzzle.Theme)
	}
	if puzzle.ShowHints {
		t.Fatal("hints default to disabled")
	}
	if !puzzle.FlyBackToOrigin {
		t.Fatal("fly-back defaults to on")
	}
	if puzzle.ShowPreview {
		t.Fatal("preview defaults to off")
	}
}

func TestPuzzleAndTalkTypeCarryJumpIndex(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	puzzle := &manifest.Slide{
		FilePath: "/p/",
		Activities: []manifest.Activity{{
			Kind:     manifest.ActivityPuzzle,
			Settings: manifest.ActivitySettings{JumpIndex: intPtr(1)},
		}},
	}
	out := convertOne(t, converter, puzzle, 3)
	if out.Activity.Puzzle.JumpIndex == nil || *out.Activity.Puzzle.JumpIndex != 1 {
		t.Fatalf("expected puzzle jump index 1, got %v", out.Activity.Puzzle.JumpIndex)
	}

	talk := &manifest.Slide{
		FilePath: "/t/",
		Activities: []manifest.Activity{{
			Kind:     manifest.ActivityTalkType,
			Settings: manifest.ActivitySettings{JumpIndex: intPtr(2)},
		}},
	}
	out = convertOne(t, converter, talk, 3)
	if out.Activity.TalkType.JumpIndex == nil || *out.Activity.TalkType.JumpIndex != 2 {
		t.Fatalf("expected talk-type jump index 2, got %v", out.Activity.TalkType.JumpIndex)
	}
}

func TestSoundboardItemsCarryTextAndJumpIndex(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/s/",
		Activities: []manifest.Activity{{
			Kind: manifest.ActivitySoundboard,
			Shapes: []manifest.Shape{
				{
					Path:     rectPath(),
					Settings: &manifest.ShapeSettings{Text: strPtr("  tap me  "), JumpIndex: intPtr(1)},
				},
				{Path: rectPath()},
			},
		}},
	}
	out := convertOne(t, converter, src, 3)

	items := out.Activity.Soundboard.Items
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Text == nil || *items[0].Text != "tap me" {
		t.Fatalf("expected trimmed text, got %v", items[0].Text)
	}
	if items[0].JumpIndex == nil || *items[0].JumpIndex != 1 {
		t.Fatalf("expected item jump index 1, got %v", items[0].JumpIndex)
	}
	if items[1].Text != nil || items[1].JumpIndex != nil {
		t.Fatalf("bare shape must have neither text nor jump, got %+v", items[1])
	}
}

func TestTalkTypeAnswerKinds(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/t/",
		Activities: []manifest.Activity{{
			Kind:     manifest.ActivityTalkType,
			Settings: manifest.ActivitySettings{Tooltip: boolPtr(true)},
			Shapes: []manifest.Shape{
				{
					Path: rectPath(),
					Settings: &manifest.ShapeSettings{
						TextAnswers:       []string{"  shalom  ", "shalom!"},
						TextInputLanguage: strPtr("he"),
						SpeakingMode:      boolPtr(true),
					},
				},
				{
					Path:     rectPath(),
					Settings: &manifest.ShapeSettings{TextAnswers: []string{"boker tov"}},
				},
			},
		}},
	}
	out := convertOne(t, converter, src, 1)

	talk := out.Activity.TalkType
	if talk == nil {
		t.Fatal("expected talk-type activity")
	}
	if !talk.ShowHints {
		t.Fatal("tooltip on must show hints")
	}
	if len(talk.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(talk.Items))
	}
	spoken := talk.Items[0]
	if spoken.AnswerKind != slide.AnswerAudio {
		t.Fatalf("speaking mode must use audio answers, got %q", spoken.AnswerKind)
	}
	if len(spoken.Texts) != 2 || spoken.Texts[0] != "shalom" || spoken.Texts[1] != "shalom!" {
		t.Fatalf("expected trimmed answers, got %v", spoken.Texts)
	}
	if spoken.InputLanguage == nil || *spoken.InputLanguage != "he" {
		t.Fatalf("unexpected input language: %v", spoken.InputLanguage)
	}
	typed := talk.Items[1]
	if typed.AnswerKind != slide.AnswerText {
		t.Fatalf("no speaking mode must use text answers, got %q", typed.AnswerKind)
	}
	if len(typed.Texts) != 1 || typed.Texts[0] != "boker tov" {
		t.Fatalf("unexpected answers: %v", typed.Texts)
	}
}

func TestCoverImageFallsBackToGameRoot(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{
		testBaseURL + "/thumbs/cover.jpg": true,
	}}
	converter, collector := newConverter(prober, slide.Options{})

	src := &manifest.Slide{FilePath: "/slide1/", Image: "/thumbs/cover.jpg"}
	out := convertOne(t, converter, src, 1)

	// The fallback keeps the export's own path, slashes and all.
	if out.ImageFull != "thumbs/cover.jpg" {
		t.Fatalf("unexpected cover: %q", out.ImageFull)
	}
	want := []string{
		testBaseURL + "/slide1/cover.jpg",
		testBaseURL + "/thumbs/cover.jpg",
	}
	if len(prober.calls) != 2 || prober.calls[0] != want[0] || prober.calls[1] != want[1] {
		t.Fatalf("unexpected probes: %v", prober.calls)
	}
	refs := collector.Refs()
	if len(refs) != 1 {
		t.Fatalf("expected 1 ref, got %d", len(refs))
	}
	if refs[0].SourceURL != testBaseURL+"/thumbs/cover.jpg" {
		t.Fatalf("expected fallback URL, got %s", refs[0].SourceURL)
	}
	if refs[0].Transcode != media.TranscodeNone {
		t.Fatal("cover image must not be transcoded")
	}
	if refs[0].Key() != "7/media/slides/slide1/thumbs/cover.jpg" {
		t.Fatalf("unexpected key: %s", refs[0].Key())
	}
}

func TestCoverThumbnailTransfersAlongsideFullImage(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{
		testBaseURL + "/slide1/cover.jpg":       true,
		testBaseURL + "/slide1/cover_thumb.jpg": true,
	}}
	converter, collector := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath:   "/slide1/",
		Image:      "/thumbs/cover.jpg",
		ImageThumb: "/thumbs/cover_thumb.jpg",
	}
	out := convertOne(t, converter, src, 1)

	if out.ImageFull != "cover.jpg" {
		t.Fatalf("unexpected cover: %q", out.ImageFull)
	}
	if out.ImageThumb == nil || *out.ImageThumb != "cover_thumb.jpg" {
		t.Fatalf("unexpected thumbnail: %v", out.ImageThumb)
	}
	refs := collector.Refs()
	if len(refs) != 2 {
		t.Fatalf("expected full and thumb refs, got %d", len(refs))
	}
	if refs[1].Key() != "7/media/slides/slide1/cover_thumb.jpg" {
		t.Fatalf("unexpected thumb key: %s", refs[1].Key())
	}
}

func TestLayersBecomeBackgroundsAndStickers(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{
		testBaseURL + "/d/layers/pop.mp3": true,
	}}
	converter, collector := newConverter(prober, slide.Options{})

	width, height := 256.0, 192.0
	src := &manifest.Slide{
		FilePath: "/d/",
		Layers: []manifest.Layer{
			{Kind: manifest.LayerBackground, Filename: "bg.png"},
			{
				Kind:       manifest.LayerImage,
				Filename:   "cat.png",
				Audio:      "pop.mp3",
				ShowKind:   manifest.ShowOnTap,
				ToggleShow: boolPtr(true),
				Transform:  []float64{2, 0, 0, 2, 0, 0},
				Width:      &width,
				Height:     &height,
			},
			{Kind: manifest.LayerAnimation, Filename: "fly.gif", Loop: manifest.LoopTap},
			{Kind: manifest.LayerText, HTML: "<b>hi</b>"},
			{Kind: manifest.LayerText},
		},
	}
	out := convertOne(t, converter, src, 1)

	if len(out.Design.Bgs) != 1 || out.Design.Bgs[0] != "bg.png" {
		t.Fatalf("unexpected backgrounds: %v", out.Design.Bgs)
	}
	if len(out.Design.Stickers) != 3 {
		t.Fatalf("expected 3 stickers, got %d", len(out.Design.Stickers))
	}

	image := out.Design.Stickers[0]
	if image.Kind != slide.StickerImage || !image.Hide {
		t.Fatalf("unexpected image sticker: %+v", image)
	}
	if image.HideToggle == nil || *image.HideToggle != slide.ToggleAlways {
		t.Fatalf("expected Always toggle, got %v", image.HideToggle)
	}
	if image.AudioFilename == nil || *image.AudioFilename != "pop.mp3" {
		t.Fatalf("unexpected sticker audio: %v", image.AudioFilename)
	}
	if image.OverrideSize == nil || image.OverrideSize[0] != 0.25 || image.OverrideSize[1] != 0.25 {
		t.Fatalf("unexpected override size: %v", image.OverrideSize)
	}

	animation := out.Design.Stickers[1]
	if animation.Kind != slide.StickerAnimation || animation.Animation == nil {
		t.Fatalf("unexpected animation sticker: %+v", animation)
	}
	if animation.Animation.Once || !animation.Animation.Tap {
		t.Fatalf("unexpected loop flags: %+v", animation.Animation)
	}
	if animation.Hide || animation.HideToggle != nil {
		t.Fatalf("on-load sticker must be visible with no toggle: %+v", animation)
	}

	sentinel := out.Design.Stickers[2]
	if sentinel.Kind != slide.StickerText || sentinel.Filename != "" {
		t.Fatalf("expected sentinel text sticker, got %+v", sentinel)
	}

	// bg.png, cat.png, fly.gif images plus pop.mp3 audio.
	if collector.Len() != 4 {
		t.Fatalf("expected 4 media refs, got %d", collector.Len())
	}
}

func TestHotspotTransformElidedWhenIdentity(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/s/",
		Activities: []manifest.Activity{{
			Kind: manifest.ActivitySoundboard,
			Shapes: []manifest.Shape{
				{Path: rectPath(), Settings: &manifest.ShapeSettings{Transform: []float64{1, 0, 0, 1, 0, 0}}},
				{Path: rectPath(), Settings: &manifest.ShapeSettings{Transform: []float64{1, 0, 0, 1, 100, 50}}},
			},
		}},
	}
	out := convertOne(t, converter, src, 1)

	items := out.Activity.Soundboard.Items
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Hotspot.TransformMatrix != nil {
		t.Fatal("identity transform must be elided")
	}
	if items[1].Hotspot.TransformMatrix == nil {
		t.Fatal("non-identity transform must be kept")
	}
	if got := items[1].Hotspot.TransformMatrix[12]; got != 100.0/1024.0 {
		t.Fatalf("unexpected normalized translation: %v", got)
	}
}

func TestHotspotCoordinatesAreNormalized(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/s/",
		Activities: []manifest.Activity{{
			Kind:   manifest.ActivitySoundboard,
			Shapes: []manifest.Shape{{Path: rectPath()}},
		}},
	}
	out := convertOne(t, converter, src, 1)

	commands := out.Activity.Soundboard.Items[0].Hotspot.Shape.PathCommands
	if len(commands) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(commands))
	}
	line := commands[1].Command
	if line.Kind != slide.LineTo || line.Points[0] != 0.5 || line.Points[1] != 0.5 {
		t.Fatalf("unexpected line command: %+v", line)
	}
	if commands[2].Command.Kind != slide.ClosePath {
		t.Fatalf("expected close, got %+v", commands[2].Command)
	}
}

func TestDegenerateHotspotSkipsItem(t *testing.T) {
	prober := &fakeProber{exists: map[string]bool{}}
	converter, _ := newConverter(prober, slide.Options{})

	src := &manifest.Slide{
		FilePath: "/s/",
		Activities: []manifest.Activity{{
			Kind: manifest.ActivitySoundboard,
			Shapes: []manifest.Shape{
				{Path: []manifest.PathPoint{{Kind: manifest.PathMoveToPoint}}},
				{Path: rectPath()},
			},
		}},
	}
	out := convertOne(t, converter, src, 1)
	if got := len(out.Activity.Soundboard.Items); got != 1 {
		t.Fatalf("expected degenerate shape skipped, got %d items", got)
	}
}
