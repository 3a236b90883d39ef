// Package present publishes a run's artifact for playback and download.
//
// Present writes the output video and a display-only WebVTT track into the
// output directory under the run ID, then releases whatever was presented
// before. The artifact itself is never modified: the caption track next to
// the video is a copy of the caption text the run consumed.
package present
