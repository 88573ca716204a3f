package main

import (
	"fmt"
	"io"
	"time"

	"github.com/nguyentantai21042004/subflow/internal/progress"
	"github.com/schollz/progressbar/v2"
)

// progressUI renders batch events: a file-count bar plus a periodic line
// with elapsed time, ETA and media duration done/left/total.
type progressUI struct {
	out       io.Writer
	est       *progress.Estimator
	bar       *progressbar.ProgressBar
	lineEvery time.Duration
	lastLine  time.Time
	now       func() time.Time
}

func newProgressUI(out io.Writer) *progressUI {
	return &progressUI{
		out:       out,
		est:       progress.NewEstimator(),
		lineEvery: 5 * time.Second,
		now:       time.Now,
	}
}

// consume drains events until the done event closes the stream.
func (u *progressUI) consume(events <-chan progress.Event) {
	for ev := range events {
		switch ev.Kind {
		case progress.KindStatus:
			fmt.Fprintf(u.out, "\n%s: %s\n", ev.Stage, ev.Detail)
		case progress.KindProgress:
			u.onSample(ev.Sample)
		case progress.KindDone:
			if u.bar != nil {
				_ = u.bar.Finish()
			}
			fmt.Fprintln(u.out)
		}
	}
}

func (u *progressUI) onSample(s progress.Sample) {
	snap := u.est.Observe(s)

	if u.bar == nil && s.FilesTotal > 0 {
		u.bar = progressbar.NewOptions(s.FilesTotal,
			progressbar.OptionSetWriter(u.out),
			progressbar.OptionSetDescription("Subtitles"),
			progressbar.OptionSetWidth(40),
		)
	}
	if u.bar != nil {
		_ = u.bar.Set(s.FilesDone)
	}

	now := u.now()
	if s.FilesDone == s.FilesTotal || now.Sub(u.lastLine) >= u.lineEvery {
		fmt.Fprintf(u.out, "\n%s\n", statusLine(snap))
		u.lastLine = now
	}
}

func statusLine(snap progress.Snapshot) string {
	line := fmt.Sprintf("Files: %d/%d | Elapsed: %s | ETA: %s",
		snap.FilesDone, snap.FilesTotal, progress.FormatHMS(snap.Elapsed.Seconds()), snap.ETA())
	if snap.WorkTotal > 0 {
		return line + fmt.Sprintf(" | Duration: %s done / %s left (of %s)",
			progress.FormatHMS(snap.WorkDone), progress.FormatHMS(snap.WorkLeft), progress.FormatHMS(snap.WorkTotal))
	}
	return line + fmt.Sprintf(" | Duration: %s done", progress.FormatHMS(snap.WorkDone))
}
