package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Printer writes the line-oriented progress report.
type Printer struct {
	out     io.Writer
	section *color.Color
	warn    *color.Color
	fail    *color.Color
}

func NewPrinter(out io.Writer, colorize bool) *Printer {
	p := &Printer{
		out:     out,
		section: color.New(color.Bold),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.section, p.warn, p.fail} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Section(title string) {
	p.section.Fprintln(p.out, "=> "+title)
}

func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Warnf(format string, args ...any) {
	p.warn.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Fail(f *Failure) {
	p.fail.Fprintln(p.out, f.Message)
	for _, d := range f.Details {
		fmt.Fprintln(p.out, "  - "+d)
	}
}

func (p *Printer) Summary(warnings int) {
	if warnings > 0 {
		p.warn.Fprintf(p.out, "%d warning!\n", warnings)
		return
	}
	fmt.Fprintln(p.out, "Everything is ok!")
}

func (p *Printer) Aborted() {
	fmt.Fprint(p.out, "\n\n=> Check aborted\n\n")
}
