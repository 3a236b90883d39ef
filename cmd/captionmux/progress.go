package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"captionmux/internal/events"
)

const progressBarWidth = 24

// progressRenderer draws session events. On a terminal it redraws one
// progress line in place; otherwise it prints a line per status change.
type progressRenderer struct {
	out     io.Writer
	tty     bool
	message string
	percent int
	drawn   bool
}

func newProgressRenderer(out io.Writer) *progressRenderer {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &progressRenderer{out: out, tty: tty}
}

func (r *progressRenderer) render(event events.Event) {
	switch event.Type {
	case events.TypeStatus:
		if event.Kind != events.StatusLoading || event.Message == r.message {
			return
		}
		r.message = event.Message
		if !r.tty {
			fmt.Fprintf(r.out, "[%3d%%] %s\n", r.percent, r.message)
			return
		}
	case events.TypeProgress:
		if event.Percent == r.percent && r.drawn {
			return
		}
		r.percent = event.Percent
		if !r.tty {
			return
		}
	default:
		return
	}
	r.draw()
}

func (r *progressRenderer) draw() {
	filled := r.percent * progressBarWidth / 100
	bar := strings.Repeat("#", filled) + strings.Repeat("-", progressBarWidth-filled)
	fmt.Fprintf(r.out, "\r\033[K[%s] %3d%% %s", bar, r.percent, r.message)
	r.drawn = true
}

// finish ends the in-place line so following output starts clean.
func (r *progressRenderer) finish() {
	if r.tty && r.drawn {
		fmt.Fprintln(r.out)
	}
	r.drawn = false
}
