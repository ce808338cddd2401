package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/x/term"
	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/liangyou/mcvm/internal/download"
)

var (
	stableColor = color.New(color.FgGreen).SprintFunc()
	titleColor  = color.New(color.Bold).SprintFunc()
	warnColor   = color.New(color.FgYellow).SprintFunc()
)

func applyColor(disabled bool) {
	if disabled {
		color.NoColor = true
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

type outputFlags struct {
	json bool
	yaml bool
}

func (o *outputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "print JSON")
	cmd.Flags().BoolVar(&o.yaml, "yaml", false, "print YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

func (o outputFlags) structured() bool {
	return o.json || o.yaml
}

func (o outputFlags) write(w io.Writer, v any) error {
	if o.yaml {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "cli: encode yaml")
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "cli: encode json")
}

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

const barWidth = 30

// progressPrinter 在终端中原地刷新进度条，非终端输出时不打印中间进度。
type progressPrinter struct {
	out     io.Writer
	enabled bool
	drawn   bool
}

func newProgressPrinter(out io.Writer, enabled bool) *progressPrinter {
	return &progressPrinter{out: out, enabled: enabled}
}

func (p *progressPrinter) update(pr download.Progress) {
	if !p.enabled {
		return
	}
	p.drawn = true
	fmt.Fprintf(p.out, "\r%s", renderProgress(pr))
}

func (p *progressPrinter) finish() {
	if p.drawn {
		fmt.Fprintln(p.out)
	}
}

func renderProgress(p download.Progress) string {
	f := p.Fraction()
	if f < 0 {
		return fmt.Sprintf("%s downloaded", units.BytesSize(float64(p.Downloaded)))
	}
	filled := int(f * barWidth)
	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-filled-1)
	}
	return fmt.Sprintf("[%s] %3.0f%% %s / %s", bar, f*100,
		units.BytesSize(float64(p.Downloaded)), units.BytesSize(float64(p.Total)))
}
