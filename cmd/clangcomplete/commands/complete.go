package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/clangcomplete/assist"
	"github.com/teranos/clangcomplete/clangbackend"
	"github.com/teranos/clangcomplete/communicator"
	"github.com/teranos/clangcomplete/config"
	"github.com/teranos/clangcomplete/logger"
	"github.com/teranos/clangcomplete/parser/treesitter"
	"github.com/teranos/clangcomplete/proposal"
	"github.com/teranos/clangcomplete/workspace"
	"gopkg.in/yaml.v3"
)

// cliProjectPart is the part synthesized from --include and --define.
const cliProjectPart = "clangcomplete-cli"

// CompleteCmd represents the complete command
var CompleteCmd = &cobra.Command{
	Use:   "complete FILE",
	Short: "Complete code at a position in a file",
	Long: `Complete code at a position in a C or C++ file.

The position is either a byte offset (--offset) or the first occurrence of a
marker string (--marker), which is removed from the buffer before completing.
Candidates are filtered by the identifier typed before the position.

Examples:
  clangcomplete complete main.cpp --marker @
  clangcomplete complete main.cpp --offset 120 -I include -D DEBUG
  clangcomplete complete src/a.cpp --marker @ --project project.toml --format json
  clangcomplete complete main.cpp --marker @ --in-process --stats`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

var completeOpts struct {
	offset    int
	marker    string
	project   string
	includes  []string
	defines   []string
	format    string
	inProcess bool
	stats     bool
}

func init() {
	f := CompleteCmd.Flags()
	f.IntVar(&completeOpts.offset, "offset", -1, "Byte offset of the completion position")
	f.StringVar(&completeOpts.marker, "marker", "", "Complete at the first occurrence of this string")
	f.StringVar(&completeOpts.project, "project", "", "Project description file (TOML)")
	f.StringSliceVarP(&completeOpts.includes, "include", "I", nil, "Include search directory (repeatable)")
	f.StringSliceVarP(&completeOpts.defines, "define", "D", nil, "Preprocessor define NAME or NAME=VALUE (repeatable)")
	f.StringVar(&completeOpts.format, "format", "table", "Output format: table, json, yaml")
	f.BoolVar(&completeOpts.inProcess, "in-process", false, "Run the backend inside this process instead of launching clangbackend")
	f.BoolVar(&completeOpts.stats, "stats", false, "Print backend process statistics after completing")
	CompleteCmd.MarkFlagsMutuallyExclusive("offset", "marker")
}

func runComplete(cmd *cobra.Command, args []string) error {
	if completeOpts.offset < 0 && completeOpts.marker == "" {
		return fmt.Errorf("one of --offset or --marker is required")
	}
	switch completeOpts.format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", completeOpts.format)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	comm, err := communicator.New(cfg.Backend, newLauncher(cfg), communicator.WithLogger(logger.ComponentLogger("communicator")))
	if err != nil {
		return err
	}
	if err := comm.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := comm.End(); err != nil {
			logger.Warnw("backend did not end cleanly", logger.FieldError, err)
		}
	}()

	ws := workspace.New(comm, workspace.WithLogger(logger.ComponentLogger("workspace")))
	doc, offset, err := openDocument(ws, args[0])
	if err != nil {
		return err
	}

	completer := assist.NewCompleter(comm, cfg.Completion.Timeout(), logger.ComponentLogger("assist"))
	model, err := completer.RequestCompletion(ctx, doc, offset, completeOpts.includes)
	if err != nil {
		return err
	}
	model = model.FilterPrefix(identifierPrefix(doc.Content, offset))

	out := cmd.OutOrStdout()
	if err := writeProposals(out, model, completeOpts.format); err != nil {
		return err
	}

	if completeOpts.stats {
		stats, err := comm.BackendStats()
		if err != nil {
			return fmt.Errorf("failed to read backend stats: %w", err)
		}
		return writeStats(out, stats, completeOpts.format)
	}
	return nil
}

func newLauncher(cfg *config.Config) communicator.Launcher {
	if completeOpts.inProcess {
		engine := treesitter.New(treesitter.WithLogger(logger.ComponentLogger("parser")))
		return communicator.NewInProcessLauncher(engine, clangbackend.WithLogger(logger.ComponentLogger("backend")))
	}
	return communicator.NewExecLauncher(cfg.Backend, logger.ComponentLogger("launcher"))
}

// openDocument registers the project and the file and resolves the
// completion position.
func openDocument(ws *workspace.Workspace, file string) (assist.Document, int, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return assist.Document{}, 0, fmt.Errorf("failed to resolve %s: %w", file, err)
	}

	switch {
	case completeOpts.project != "":
		project, err := workspace.LoadProjectFile(completeOpts.project)
		if err != nil {
			return assist.Document{}, 0, err
		}
		if err := ws.LoadProject(project); err != nil {
			return assist.Document{}, 0, err
		}
	case len(completeOpts.includes) > 0 || len(completeOpts.defines) > 0:
		includes := make([]string, 0, len(completeOpts.includes))
		for _, dir := range completeOpts.includes {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return assist.Document{}, 0, fmt.Errorf("failed to resolve %s: %w", dir, err)
			}
			includes = append(includes, abs)
		}
		err := ws.UpdateProjectPart(workspace.ProjectPart{
			ID:           cliProjectPart,
			Files:        []string{path},
			Defines:      completeOpts.defines,
			IncludePaths: includes,
		})
		if err != nil {
			return assist.Document{}, 0, err
		}
	}

	doc, err := ws.Open(path)
	if err != nil {
		return assist.Document{}, 0, err
	}

	if completeOpts.marker == "" {
		if completeOpts.offset > len(doc.Content) {
			return assist.Document{}, 0, fmt.Errorf("offset %d is past the end of %s (%d bytes)", completeOpts.offset, file, len(doc.Content))
		}
		return doc, completeOpts.offset, nil
	}

	content, offset, ok := cutMarker(doc.Content, completeOpts.marker)
	if !ok {
		return assist.Document{}, 0, fmt.Errorf("marker %q not found in %s", completeOpts.marker, file)
	}
	doc, err = ws.Edit(path, content)
	if err != nil {
		return assist.Document{}, 0, err
	}
	return doc, offset, nil
}

// cutMarker removes the first occurrence of marker and returns its offset.
func cutMarker(content, marker string) (string, int, bool) {
	before, after, found := strings.Cut(content, marker)
	if !found {
		return content, 0, false
	}
	return before + after, len(before), true
}

// identifierPrefix returns the identifier characters immediately before offset.
func identifierPrefix(content string, offset int) string {
	start := offset
	for start > 0 {
		c := content[start-1]
		if c != '_' && !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') && !('0' <= c && c <= '9') {
			break
		}
		start--
	}
	return content[start:offset]
}

func writeProposals(w io.Writer, model *proposal.Model, format string) error {
	items := model.Items()
	switch format {
	case "json":
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal completions to JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal completions to YAML: %w", err)
		}
		fmt.Fprint(w, string(data))
	default:
		if len(items) == 0 {
			fmt.Fprintln(w, "no completions")
			return nil
		}
		data := pterm.TableData{{"Completion", "Kind", "Insert"}}
		for _, item := range items {
			insert := item.Data
			if item.Snippet {
				insert += " (snippet)"
			}
			data = append(data, []string{item.Text, item.Kind.String(), insert})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
	}
	return nil
}

func writeStats(w io.Writer, stats communicator.BackendStats, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal backend stats to JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(stats)
		if err != nil {
			return fmt.Errorf("failed to marshal backend stats to YAML: %w", err)
		}
		fmt.Fprint(w, string(data))
	default:
		data := pterm.TableData{
			{"State", stats.State.String()},
			{"Pid", fmt.Sprint(stats.Pid)},
			{"Session", stats.SessionID},
			{"Protocol", stats.Protocol},
			{"Uptime", stats.Uptime.String()},
			{"Restarts", fmt.Sprint(stats.Restarts)},
			{"RSS", fmt.Sprintf("%d bytes", stats.RSSBytes)},
			{"CPU", fmt.Sprintf("%.1f%%", stats.CPUPercent)},
			{"Threads", fmt.Sprint(stats.Threads)},
		}
		return pterm.DefaultTable.WithData(data).WithWriter(w).Render()
	}
	return nil
}
