package syncer

import (
	_ "embed"
	"encoding/json"
	"strings"
)

// The legacy player shipped a fixed set of background tracks; games reference
// them by loosely spelled filenames. The table maps filename substrings to the
// platform's legacy background variants.
//
//go:embed audio_backgrounds.json
var audioBackgroundsJSON []byte

type backgroundRule struct {
	Contains   []string `json:"contains"`
	Background string   `json:"background"`
}

var backgroundRules = mustLoadBackgroundRules()

func mustLoadBackgroundRules() []backgroundRule {
	var rules []backgroundRule
	if err := json.Unmarshal(audioBackgroundsJSON, &rules); err != nil {
		panic("syncer: invalid audio_backgrounds.json: " + err.Error())
	}
	return rules
}

// AudioBackground maps a legacy music filename to a platform background
// variant. The second return is false when the filename names no background
// at all (empty or silence); an unrecognized name also maps to no background
// but reports known=false through the third return so callers can track it.
func AudioBackground(musicFile string) (background string, found bool, known bool) {
	name := strings.ToLower(strings.TrimSpace(musicFile))
	if name == "" || strings.Contains(name, "silence") {
		return "", false, true
	}
	for _, rule := range backgroundRules {
		for _, fragment := range rule.Contains {
			if strings.Contains(name, fragment) {
				return rule.Background, true, true
			}
		}
	}
	return "", false, false
}
