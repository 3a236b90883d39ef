package intake

import "fmt"

// InputSet is the pair of inputs a run consumes.
type InputSet struct {
	Video    *Video
	Captions *Captions
}

// IsReady reports whether a run may start: a video is present and caption
// text is non-empty.
func (s InputSet) IsReady() bool {
	return s.Video != nil && s.Captions != nil && s.Captions.Text != ""
}

// Info describes the inputs for status display.
type Info struct {
	Video          string `json:"video,omitempty"`
	Captions       string `json:"captions,omitempty"`
	CaptionSummary string `json:"caption_summary,omitempty"`
}

// Info renders the current inputs.
func (s InputSet) Info() Info {
	var info Info
	if s.Video != nil {
		info.Video = fmt.Sprintf("%s (%.2f MB)", s.Video.Name, float64(s.Video.Size)/(1024*1024))
	}
	if s.Captions != nil {
		switch s.Captions.Source {
		case SourceFile:
			info.Captions = fmt.Sprintf("%s (%.2f KB)", s.Captions.FileName, float64(s.Captions.Size)/1024)
		default:
			info.Captions = "Text input"
		}
		info.CaptionSummary = s.Captions.Info.String()
	}
	return info
}
