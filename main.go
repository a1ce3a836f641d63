package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/mallet/pkg/config"
	"github.com/chazu/mallet/pkg/part"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// globals holds the persistent flags and what they resolve to.
type globals struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

// setup loads the configuration and installs the logger. Log output goes to
// the command's error stream.
func (g *globals) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	g.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if g.configPath == "" {
		g.cfg = config.Default()
		return nil
	}
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	g.cfg = cfg
	return nil
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "mallet",
		Short:         "mallet: procedural solid modeling",
		Long:          "mallet builds solids from primitives and boolean operations, driven by scripts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "path to mallet.yaml")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd(g))
	cmd.AddCommand(newValidateCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mallet %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func newRunCmd(g *globals) *cobra.Command {
	var (
		stlPath   string
		jsonPath  string
		modelPath string
	)
	cmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Run a modeling script",
		Long: `Run a modeling script and report the resulting model.

The script starts from an empty model, or from --model if given. With --stl
the model is written as one binary STL file; with --json the part collection
is written as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}

			app := NewApp(g.cfg, g.logger)
			if modelPath != "" {
				data, err := os.ReadFile(modelPath)
				if err != nil {
					return fmt.Errorf("read model: %w", err)
				}
				if err := app.ImportParts(data); err != nil {
					return fmt.Errorf("load model: %w", err)
				}
			}

			res := app.RunScript(string(source))
			if len(res.Errors) > 0 {
				printErrors(cmd.ErrOrStderr(), args[0], res.Errors)
				return fmt.Errorf("%s: %d error(s)", args[0], len(res.Errors))
			}
			printScene(cmd.OutOrStdout(), res.Scene)

			if jsonPath != "" {
				data, err := app.ExportParts()
				if err != nil {
					return err
				}
				if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
					return fmt.Errorf("write json: %w", err)
				}
			}
			if stlPath != "" {
				if err := app.ExportSTL(stlPath); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stlPath, "stl", "", "write the model to this STL file")
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the part collection to this JSON file")
	cmd.Flags().StringVar(&modelPath, "model", "", "start from this JSON part collection")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a JSON part collection for problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read model: %w", err)
			}
			parts, err := decodeParts(data)
			if err != nil {
				return err
			}

			res := part.Validate(parts)
			out := cmd.OutOrStdout()
			for _, f := range res.Errors {
				fmt.Fprintln(out, f.Error())
			}
			for _, f := range res.Warnings {
				fmt.Fprintln(out, f.Error())
			}
			if !res.OK() {
				return fmt.Errorf("%s: %d error(s), %d warning(s)", args[0], len(res.Errors), len(res.Warnings))
			}
			fmt.Fprintf(out, "%s: %d part(s) ok, %d warning(s)\n", args[0], len(parts), len(res.Warnings))
			return nil
		},
	}
}

func printErrors(w io.Writer, name string, errs []ErrorData) {
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(w, "%s:%d: %s\n", name, e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "%s: %s\n", name, e.Message)
		}
	}
}

func printScene(w io.Writer, s SceneData) {
	triangles := 0
	for _, m := range s.Meshes {
		triangles += len(m.Indices) / 3
	}
	fmt.Fprintf(w, "%d part(s), %d triangle(s), kernel %s\n", len(s.Parts), triangles, s.Kernel)
	for i, p := range s.Parts {
		fmt.Fprintf(w, "  %d  %-8s %s  at %s\n", i, p.Kind, p.ID, p.Position)
	}
	for _, wn := range s.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", wn.Message)
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
