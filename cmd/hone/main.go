// Command hone is the Hone compiler CLI (spec.md §6.2), built on cobra +
// pflag following the teacher's cli/main.go command-tree wiring
// (persistent flags, SilenceErrors, explicit exit-code mapping) but with
// the subcommands spec.md names instead of the teacher's single shell
// executor: compile, check, format, diff.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/honelang/hone/internal/compiler"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/depgraph"
	"github.com/honelang/hone/internal/diff"
	"github.com/honelang/hone/internal/emit"
	"github.com/honelang/hone/internal/format"
	"github.com/honelang/hone/internal/genschema"
	"github.com/honelang/hone/internal/resolver"
)

var (
	flagFormat         string
	flagSet            []string
	flagVariant        []string
	flagAllowEnv       bool
	flagIgnorePolicies bool
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:           "hone",
		Short:         "Compile .hone configuration sources to JSON/YAML/TOML/dotenv",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json, json-pretty, yaml, toml, dotenv")
	root.PersistentFlags().StringSliceVar(&flagSet, "set", nil, "bind an args value, k=v[,k=v...]")
	root.PersistentFlags().StringSliceVar(&flagVariant, "variant", nil, "select a variant case, name=case[,...]")
	root.PersistentFlags().BoolVar(&flagAllowEnv, "allow-env", false, "permit the env/file builtins")
	root.PersistentFlags().BoolVar(&flagIgnorePolicies, "ignore-policies", false, "skip policy evaluation")

	root.AddCommand(newCompileCmd(), newCheckCmd(), newFormatCmd(), newDiffCmd(), newGenSchemaCmd(), newGraphCmd())

	if err := root.Execute(); err != nil {
		if err != errDiffFound {
			printErr(err)
		}
		return 1
	}
	return 0
}

func printErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
}

func compilerOptions() compiler.Options {
	variants := map[string]string{}
	for _, v := range flagVariant {
		for i := 0; i < len(v); i++ {
			if v[i] == '=' {
				variants[v[:i]] = v[i+1:]
				break
			}
		}
	}
	return compiler.Options{
		Set:            flagSet,
		Variants:       variants,
		AllowEnv:       flagAllowEnv,
		AllowFile:      flagAllowEnv,
		IgnorePolicies: flagIgnorePolicies,
	}
}

// openSource resolves a `<file | ->` argument into a resolver.FS and a
// root path Compile can use; "-" reads all of stdin into a synthetic
// single-file virtual filesystem (imports are unsupported from stdin).
func openSource(arg string) (resolver.FS, string, error) {
	if arg == "-" {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", err
		}
		return resolver.NewVirtualFS(map[string]string{"/<stdin>": string(src)}), "/<stdin>", nil
	}
	return resolver.PhysicalFS{}, arg, nil
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file | ->",
		Short: "Compile a source file and write the emitted document to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, path, err := openSource(args[0])
			if err != nil {
				return err
			}
			f, err := emit.ParseFormat(flagFormat)
			if err != nil {
				return err
			}
			res, err := compiler.Compile(fs, path, compilerOptions())
			if err != nil {
				return err
			}
			out, err := renderResult(res, f)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, out)
			printWarnings(res.Warnings)
			return nil
		},
	}
}

func renderResult(res *compiler.Result, f emit.Format) (string, error) {
	if len(res.Documents) == 0 {
		return emit.One(res.Root, f)
	}
	docs := append([]emit.Document{{Value: res.Root}}, res.Documents...)
	return emit.Many(docs, f)
}

func printWarnings(w *diag.Warnings) {
	if w == nil {
		return
	}
	for _, item := range w.Items() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", item.Message)
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file | ->",
		Short: "Parse, evaluate and type-check a source file without emitting output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, path, err := openSource(args[0])
			if err != nil {
				return err
			}
			res, err := compiler.Compile(fs, path, compilerOptions())
			if err != nil {
				return err
			}
			printWarnings(res.Warnings)
			fmt.Fprintln(os.Stdout, "OK")
			return nil
		},
	}
}

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <file>",
		Short: "Print a source file's canonical formatting (idempotent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, err := format.Format(string(src), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, out)
			return nil
		},
	}
}

func newDiffCmd() *cobra.Command {
	var against string
	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Compare two evaluations of a source file, optionally at a different Git ref",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], against, compilerOptions())
		},
	}
	cmd.Flags().StringVar(&against, "against", "HEAD", "a Git ref to compare the current working tree against")
	return cmd
}

// runDiff compiles path as it sits in the working tree and as it was
// recorded at the ref, then prints the structural difference between the
// two evaluated documents (spec.md §6.2 "compares two evaluations,
// optionally at different Git refs"). No VCS library appears anywhere in
// the retrieval pack, so the ref's content is read with a `git show`
// subprocess exactly as the ref argument names it, following the pack's own
// posture on shelling out for external-tool concerns rather than inventing
// a library that was never there.
func runDiff(path, ref string, opts compiler.Options) error {
	currentFS, currentPath, err := openSource(path)
	if err != nil {
		return err
	}
	currentRes, err := compiler.Compile(currentFS, currentPath, opts)
	if err != nil {
		return fmt.Errorf("compiling working tree %s: %w", path, err)
	}

	priorSrc, err := gitShow(ref, path)
	if err != nil {
		return fmt.Errorf("reading %s at %s: %w", path, ref, err)
	}
	priorFS := resolver.NewVirtualFS(map[string]string{})
	priorCanon, err := priorFS.Canonical(path)
	if err != nil {
		return err
	}
	priorFS.Files[priorCanon] = priorSrc
	priorRes, err := compiler.Compile(priorFS, priorCanon, opts)
	if err != nil {
		return fmt.Errorf("compiling %s at %s: %w", path, ref, err)
	}

	result := diff.Compare(priorRes.Root, currentRes.Root)
	useColor := isTerminal(os.Stdout)
	fmt.Fprint(os.Stdout, diff.Format(result, useColor))
	if !result.Equal() {
		return errDiffFound
	}
	return nil
}

// newGenSchemaCmd exposes the JSON-Schema -> hone schema source generator
// (spec.md §1 "the JSON-Schema -> schema source generator ... as interfaces
// the core exposes"; internal/genschema).
func newGenSchemaCmd() *cobra.Command {
	var rootName string
	cmd := &cobra.Command{
		Use:   "gen-schema <file.json>",
		Short: "Generate a hone `schema` declaration from a JSON Schema document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, err := genschema.Generate("schema://"+filepath.Base(args[0]), src, rootName)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&rootName, "name", "Root", "name for the generated root schema (a top-level title in the document takes precedence)")
	return cmd
}

// newGraphCmd exposes the import dependency-graph printer (spec.md §1 "the
// dependency-graph printer ... as interfaces the core exposes";
// internal/depgraph).
func newGraphCmd() *cobra.Command {
	var formatName string
	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Print the import dependency graph for a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := depgraph.ParseFormat(formatName)
			if err != nil {
				return err
			}
			fs, path, err := openSource(args[0])
			if err != nil {
				return err
			}
			res := resolver.New(fs)
			order, err := res.TopoOrder(path)
			if err != nil {
				return err
			}
			canon, err := fs.Canonical(path)
			if err != nil {
				return err
			}
			out, err := depgraph.Generate(order, canon, f)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&formatName, "format", "text", "graph output format: dot, json, text")
	return cmd
}

// errDiffFound carries no message of its own; run() maps any non-nil RunE
// error to exit code 1, which is the conventional `diff`-family signal that
// differences were found rather than that the command itself failed.
var errDiffFound = fmt.Errorf("")

func gitShow(ref, path string) (string, error) {
	top, err := runGit("rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(strings.TrimSpace(top), abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	return runGit("show", ref+":"+rel)
}

func runGit(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
