package pipeline

import (
	"captionmux/internal/config"
	"captionmux/internal/language"
)

// Fixed workspace entry names.
const (
	InputName    = "input.mp4"
	CaptionsName = "captions.vtt"
	OutputName   = "output.mp4"
	OutputMIME   = "video/mp4"
)

// Recipe holds the subtitle track parameters of the remux.
type Recipe struct {
	// Language is the ISO 639-2 code written to the track metadata.
	Language           string
	Title              string
	Codec              string
	IntermediateFormat string
}

// DefaultRecipe is the English mov_text recipe.
func DefaultRecipe() Recipe {
	return Recipe{Language: "eng", Title: "English Subtitles", Codec: "mov_text", IntermediateFormat: "srt"}
}

// RecipeFromConfig builds a recipe from subtitle settings.
func RecipeFromConfig(cfg config.Subtitles) Recipe {
	r := DefaultRecipe()
	if code := language.ToISO3(cfg.Language); code != "" && code != "und" {
		r.Language = code
	}
	if cfg.Title != "" {
		r.Title = cfg.Title
	}
	if cfg.Codec != "" {
		r.Codec = cfg.Codec
	}
	if cfg.IntermediateFormat != "" {
		r.IntermediateFormat = cfg.IntermediateFormat
	}
	return r
}

// IntermediateName is the converted caption file, e.g. captions.srt.
func (r Recipe) IntermediateName() string {
	return "captions." + r.IntermediateFormat
}

// WorkspaceEntries lists every fixed name a run may create.
func (r Recipe) WorkspaceEntries() []string {
	return []string{InputName, CaptionsName, r.IntermediateName(), OutputName}
}

// ConvertArgs converts the uploaded captions to the intermediate format.
func (r Recipe) ConvertArgs() []string {
	return []string{"-i", CaptionsName, "-y", r.IntermediateName()}
}

// RemuxArgs stream-copies video and audio from the input and adds captions
// from subtitleInput as a single subtitle track.
func (r Recipe) RemuxArgs(subtitleInput string) []string {
	return []string{
		"-i", InputName,
		"-i", subtitleInput,
		"-c:v", "copy",
		"-c:a", "copy",
		"-c:s", r.Codec,
		"-metadata:s:s:0", "language=" + r.Language,
		"-metadata:s:s:0", "title=" + r.Title,
		"-map", "0:v",
		"-map", "0:a",
		"-map", "1",
		"-y",
		OutputName,
	}
}
