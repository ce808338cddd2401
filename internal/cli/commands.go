package cli

import (
	"fmt"
	"strings"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/liangyou/mcvm/internal/catalog"
	"github.com/liangyou/mcvm/internal/download"
	"github.com/liangyou/mcvm/pkg/models"
)

var (
	errUnavailable    = errors.New("cli: catalog is unavailable")
	errNotInteractive = errors.New("cli: browse requires an interactive terminal")
)

type listFlags struct {
	filter     string
	constraint string
	stable     bool
	limit      int
	format     outputFlags
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", "only show versions containing this text")
	cmd.Flags().StringVarP(&f.constraint, "constraint", "c", "", `semver constraint, e.g. ">=1.20, <1.21"`)
	cmd.Flags().BoolVarP(&f.stable, "stable", "s", false, "only show stable versions")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "maximum number of versions to show")
	f.format.bind(cmd)
}

func (f *listFlags) query() catalog.Query {
	return catalog.Query{Filter: f.filter, Constraint: f.constraint, StableOnly: f.stable, Limit: f.limit}
}

func (a *App) sourcesCommand() *cobra.Command {
	var format outputFlags
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the available ecosystems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.setup(cmd)
			if err != nil {
				return err
			}
			list := svc.Catalog.Sources()
			if format.structured() {
				return format.write(a.out, list)
			}
			rows := make([][]string, len(list))
			for i, src := range list {
				rows[i] = []string{src.Name, src.Title}
			}
			return writeTable(a.out, []string{"NAME", "TITLE"}, rows)
		},
	}
	format.bind(cmd)
	return cmd
}

func (a *App) gamesCommand() *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:     "games <source>",
		Aliases: []string{"ls"},
		Short:   "List game versions supported by an ecosystem",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.setup(cmd)
			if err != nil {
				return err
			}
			games, err := svc.Catalog.Games(cmd.Context(), args[0], flags.query())
			if err != nil {
				return err
			}
			return a.printEntries(flags.format, games, "No game versions found.")
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *App) variantsCommand() *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "variants <source> <game>",
		Short: "List loader builds or artifacts for a game version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.setup(cmd)
			if err != nil {
				return err
			}
			variants, err := svc.Catalog.Variants(cmd.Context(), args[0], args[1], flags.query())
			if err != nil {
				return err
			}
			return a.printEntries(flags.format, variants, fmt.Sprintf("No builds found for %s.", args[1]))
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *App) infoCommand() *cobra.Command {
	var (
		technical bool
		format    outputFlags
	)
	cmd := &cobra.Command{
		Use:   "info <source> <game> [variant]",
		Short: "Show details for a build; defaults to the newest stable one",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.setup(cmd)
			if err != nil {
				return err
			}
			source, game := args[0], args[1]
			variant, err := svc.Catalog.ResolveVariant(cmd.Context(), source, game, optionalArg(args, 2))
			if err != nil {
				return err
			}
			details, err := svc.Catalog.Details(cmd.Context(), source, game, variant)
			if err != nil {
				return err
			}
			if format.structured() {
				return format.write(a.out, details)
			}
			a.printDetails(details, technical)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&technical, "technical", "t", false, "include technical details")
	format.bind(cmd)
	return cmd
}

func (a *App) downloadCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <source> <game> [variant]",
		Short: "Download the installer for a build; defaults to the newest stable one",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.setup(cmd)
			if err != nil {
				return err
			}
			if svc.Downloader == nil {
				return errUnavailable
			}
			ctx := cmd.Context()
			source, game := args[0], args[1]
			variant, err := svc.Catalog.ResolveVariant(ctx, source, game, optionalArg(args, 2))
			if err != nil {
				return err
			}
			artifact, err := svc.Catalog.Installer(ctx, source, game, variant)
			if err != nil {
				return err
			}
			if artifact.Note != "" {
				fmt.Fprintln(a.errOut, warnColor(artifact.Note))
			}

			name := artifact.FileName
			if name == "" {
				name = download.SuggestName(artifact.URL)
			}
			dest := download.ResolveDest(output, svc.DownloadDir, name)
			fmt.Fprintf(a.out, "Downloading %s\n", catalog.FormatArtifact(artifact))

			bar := newProgressPrinter(a.out, a.terminal())
			res, err := svc.Downloader.Download(ctx, download.Request{
				URL:          artifact.URL,
				Dest:         dest,
				Checksum:     artifact.Checksum,
				ChecksumType: artifact.ChecksumType,
				Size:         artifact.Size,
			}, bar.update)
			bar.finish()
			if err != nil {
				return errors.Wrapf(err, "download %s", artifact.URL)
			}
			fmt.Fprintf(a.out, "Saved to %s (%s)\n", res.Path, units.HumanSize(float64(res.Size)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file or directory")
	return cmd
}

func (a *App) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [source]",
		Short: "Open the interactive browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.terminal() {
				return errNotInteractive
			}
			svc, err := a.setup(cmd)
			if err != nil {
				return err
			}
			if svc.Browse == nil {
				return errUnavailable
			}
			return svc.Browse(cmd.Context(), strings.ToLower(optionalArg(args, 0)))
		},
	}
}

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the mcvm version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "mcvm version %s\n", a.version)
		},
	}
}

func (a *App) printEntries(format outputFlags, list []models.Entry, empty string) error {
	if format.structured() {
		return format.write(a.out, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, empty)
		return nil
	}
	for _, e := range list {
		line := catalog.FormatEntry(e)
		if e.Stable {
			line += " " + stableColor("[stable]")
		}
		fmt.Fprintf(a.out, "  %s\n", line)
	}
	return nil
}

func (a *App) printDetails(d models.Details, technical bool) {
	if d.Title != "" {
		fmt.Fprintln(a.out, titleColor(d.Title))
	}
	for _, line := range d.Lines {
		fmt.Fprintf(a.out, "  %s\n", line)
	}
	if technical && len(d.Technical) > 0 {
		fmt.Fprintln(a.out, titleColor("Technical"))
		for _, line := range d.Technical {
			fmt.Fprintf(a.out, "  %s\n", line)
		}
	}
	if len(d.Artifacts) > 0 {
		fmt.Fprintln(a.out, titleColor("Downloads"))
		for _, art := range d.Artifacts {
			fmt.Fprintf(a.out, "  %s\n", catalog.FormatArtifact(art))
		}
	}
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return strings.TrimSpace(args[i])
	}
	return ""
}
