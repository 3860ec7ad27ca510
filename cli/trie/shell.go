package trie

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adenium-io/adenium-go/pkg/config"
	"github.com/adenium-io/adenium-go/pkg/core/index"
	"github.com/adenium-io/adenium-go/pkg/services/metrics"
	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/urfave/cli"
)

const indexKey = "index"

// errExit is returned by the exit command to stop the shell.
var errExit = errors.New("exit")

// lineReader reads user input line by line.
type lineReader interface {
	Readline() (string, error)
}

// Shell is an interactive shell working with an opened index.
type Shell struct {
	in    lineReader
	shell *cli.App
}

func shellCommands() []cli.Command {
	return append(indexCommands(fromMetadata, []cli.Flag{hexFlag}), cli.Command{
		Name:   "exit",
		Usage:  "Exit the shell",
		Action: func(*cli.Context) error { return errExit },
	})
}

func newCompleter() *readline.PrefixCompleter {
	var pcItems []readline.PrefixCompleterInterface
	for _, c := range shellCommands() {
		var flagsItems []readline.PrefixCompleterInterface
		for _, f := range c.Flags {
			names := strings.SplitN(f.GetName(), ", ", 2) // only long name will be offered
			flagsItems = append(flagsItems, readline.PcItem("--"+names[0]))
		}
		pcItems = append(pcItems, readline.PcItem(c.Name, flagsItems...))
	}
	return readline.NewPrefixCompleter(pcItems...)
}

// NewShell creates a shell reading commands from in.
func NewShell(idx *index.Index, in lineReader, w, errW io.Writer) *Shell {
	ctl := cli.NewApp()
	ctl.Name = "trie"
	// Note: need to set empty `ctl.HelpName` and `ctl.UsageText`, otherwise
	// `filepath.Base(os.Args[0])` will be used.
	ctl.HelpName = ""
	ctl.UsageText = ""
	ctl.Writer = w
	ctl.ErrWriter = errW
	ctl.Version = config.Version
	ctl.Usage = "Interactive index shell"
	// Override default error handler in order not to exit on error.
	ctl.ExitErrHandler = func(*cli.Context, error) {}
	ctl.Commands = shellCommands()
	ctl.Metadata = map[string]any{indexKey: idx}
	return &Shell{in: in, shell: ctl}
}

func fromMetadata(h handler) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		return h(ctx, ctx.App.Metadata[indexKey].(*index.Index))
	}
}

// Run waits for user input and executes the passed commands until EOF,
// interrupt or exit command.
func (s *Shell) Run() error {
	for {
		line, err := s.in.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil // OK, stop execution.
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err) // Critical error, stop execution.
		}

		args, err := shellquote.Split(line)
		if err != nil {
			writeErr(s.shell.ErrWriter, fmt.Errorf("failed to parse arguments: %w", err))
			continue // Not a critical error, continue execution.
		}
		if len(args) == 0 {
			continue
		}

		err = s.shell.Run(append([]string{"trie"}, args...))
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			writeErr(s.shell.ErrWriter, err) // Various command/flags parsing errors and execution errors.
		}
	}
}

func writeErr(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", err)
}

func startShell(ctx *cli.Context) error {
	idx, log, cfg, err := openIndex(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() {
		if err := idx.Close(); err != nil {
			writeErr(ctx.App.ErrWriter, err)
		}
		_ = log.Sync()
	}()

	prometheus := metrics.NewPrometheusService(cfg.ApplicationConfiguration.Prometheus, log)
	prometheus.Start()
	defer prometheus.ShutDown()

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mtrie>\033[0m ", // green prompt ^^
		AutoComplete:    newCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to create readline instance: %w", err), 1)
	}
	defer l.Close()

	if err := NewShell(idx, l, l.Stdout(), l.Stderr()).Run(); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}
