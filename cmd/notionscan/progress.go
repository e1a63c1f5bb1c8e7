package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// progress shows a spinner with the number of blocks fetched so far.
// It is inert when the output is not a terminal.
type progress struct {
	s *spinner.Spinner
}

func newProgress(w io.Writer, quiet bool) *progress {
	f, ok := w.(*os.File)
	if quiet || !ok || !isatty.IsTerminal(f.Fd()) {
		return &progress{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " resolving root"
	return &progress{s: s}
}

func (p *progress) Start() {
	if p.s != nil {
		p.s.Start()
	}
}

// Update is passed to the crawler and may be called concurrently.
func (p *progress) Update(blocks int64) {
	if p.s == nil {
		return
	}
	p.s.Lock()
	p.s.Suffix = fmt.Sprintf(" crawling: %d blocks", blocks)
	p.s.Unlock()
}

func (p *progress) Stop() {
	if p.s != nil {
		p.s.Stop()
	}
}
