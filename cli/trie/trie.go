/*
Package trie contains commands working with the persistent trie index.
*/
package trie

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adenium-io/adenium-go/cli/options"
	"github.com/adenium-io/adenium-go/pkg/config"
	"github.com/adenium-io/adenium-go/pkg/core/index"
	"github.com/adenium-io/adenium-go/pkg/core/mpt"
	"github.com/adenium-io/adenium-go/pkg/core/storage"
	"github.com/adenium-io/adenium-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// Various errors.
var (
	ErrMissingParameter = errors.New("missing argument")
	ErrTooManyArgs      = errors.New("too many arguments")
	ErrKeyNotFound      = errors.New("key not found")
	ErrInvalidProof     = errors.New("proof is not valid")
)

var hexFlag = cli.BoolFlag{
	Name:  "hex",
	Usage: "keys are given (and printed) in hex",
}

var outFlag = cli.StringFlag{
	Name:  "out, o",
	Usage: "output file (stdout by default)",
}

var nodeFlags = []cli.Flag{options.Config, options.ConfigFile, options.Debug, hexFlag}

// KVPair is a dumped key-value pair.
type KVPair struct {
	Key   string       `json:"key"`
	Value util.Uint256 `json:"value"`
}

// ProofResult is the output of the proof command.
type ProofResult struct {
	Root  util.Uint256 `json:"root"`
	Key   string       `json:"key"`
	Proof []string     `json:"proof"`
}

// handler is a command working with an opened index.
type handler func(ctx *cli.Context, idx *index.Index) error

// indexCommands returns commands working with an index, they're shared by
// the command line and the shell.
func indexCommands(wrap func(handler) func(*cli.Context) error, flags []cli.Flag) []cli.Command {
	return []cli.Command{
		{
			Name:      "put",
			Usage:     "Set the value for the key",
			UsageText: "put KEY VALUE",
			Action:    wrap(handlePut),
			Flags:     flags,
		},
		{
			Name:      "get",
			Usage:     "Print the value for the key",
			UsageText: "get KEY",
			Action:    wrap(handleGet),
			Flags:     flags,
		},
		{
			Name:      "delete",
			Usage:     "Remove the key",
			UsageText: "delete KEY",
			Action:    wrap(handleDelete),
			Flags:     flags,
		},
		{
			Name:   "root",
			Usage:  "Print the current root hash",
			Action: wrap(handleRoot),
			Flags:  flags,
		},
		{
			Name:        "dump",
			Usage:       "Dump all key-value pairs as JSON lines",
			UsageText:   "dump [--out file]",
			Description: "Dumps pairs in ascending key order, one JSON object per line.",
			Action:      wrap(handleDump),
			Flags:       append([]cli.Flag{outFlag}, flags...),
		},
		{
			Name:      "proof",
			Usage:     "Print the proof of the key",
			UsageText: "proof KEY",
			Action:    wrap(handleProof),
			Flags:     flags,
		},
	}
}

// NewCommands returns 'trie' command.
func NewCommands() []cli.Command {
	subs := indexCommands(withIndex, nodeFlags)
	subs = append(subs,
		cli.Command{
			Name:        "verify",
			Usage:       "Verify the proof of the key against the root",
			UsageText:   "verify ROOT KEY PROOF...",
			Description: "Proof nodes are hex-encoded, the value is printed if the proof is valid.",
			Action:      handleVerify,
			Flags:       []cli.Flag{hexFlag},
		},
		cli.Command{
			Name:   "shell",
			Usage:  "Start an interactive shell working with the index",
			Action: startShell,
			Flags:  []cli.Flag{options.Config, options.ConfigFile, options.Debug},
		},
	)
	return []cli.Command{{
		Name:        "trie",
		Usage:       "Work with the authenticated index",
		Subcommands: subs,
	}}
}

// openIndex opens the index configured via the context flags.
func openIndex(ctx *cli.Context) (*index.Index, *zap.Logger, config.Config, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, nil, cfg, err
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, nil, cfg, err
	}
	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("failed to open DB: %w", err)
	}
	idx, err := index.Open(store, cfg.ApplicationConfiguration.Trie, log)
	if err != nil {
		_ = store.Close()
		return nil, nil, cfg, err
	}
	return idx, log, cfg, nil
}

func withIndex(h handler) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		idx, log, _, err := openIndex(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer func() { _ = log.Sync() }()

		err = h(ctx, idx)
		if cerr := idx.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close index: %w", cerr)
		}
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	}
}

func checkArgs(ctx *cli.Context, n int) error {
	switch args := ctx.Args(); {
	case len(args) < n:
		return ErrMissingParameter
	case len(args) > n:
		return fmt.Errorf("%w: %s", ErrTooManyArgs, strings.Join(args[n:], " "))
	}
	return nil
}

func parseKey(ctx *cli.Context, s string) ([]byte, error) {
	if !ctx.Bool("hex") {
		return []byte(s), nil
	}
	key, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	return key, nil
}

func formatKey(ctx *cli.Context, key []byte) string {
	if ctx.Bool("hex") {
		return hex.EncodeToString(key)
	}
	return string(key)
}

func handlePut(ctx *cli.Context, idx *index.Index) error {
	if err := checkArgs(ctx, 2); err != nil {
		return err
	}
	key, err := parseKey(ctx, ctx.Args().Get(0))
	if err != nil {
		return err
	}
	val, err := util.Uint256DecodeString(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	if err := idx.Put(key, val); err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, idx.Root())
	return nil
}

func handleGet(ctx *cli.Context, idx *index.Index) error {
	if err := checkArgs(ctx, 1); err != nil {
		return err
	}
	key, err := parseKey(ctx, ctx.Args().First())
	if err != nil {
		return err
	}
	val, ok, err := idx.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}
	fmt.Fprintln(ctx.App.Writer, val)
	return nil
}

func handleDelete(ctx *cli.Context, idx *index.Index) error {
	if err := checkArgs(ctx, 1); err != nil {
		return err
	}
	key, err := parseKey(ctx, ctx.Args().First())
	if err != nil {
		return err
	}
	ok, err := idx.Delete(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}
	fmt.Fprintln(ctx.App.Writer, idx.Root())
	return nil
}

func handleRoot(ctx *cli.Context, idx *index.Index) error {
	if err := checkArgs(ctx, 0); err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, idx.Root())
	return nil
}

// createFile opens dump output files.
var createFile = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func handleDump(ctx *cli.Context, idx *index.Index) (err error) {
	if err := checkArgs(ctx, 0); err != nil {
		return err
	}
	w := ctx.App.Writer
	if out := ctx.String("out"); out != "" {
		f, ferr := createFile(out)
		if ferr != nil {
			return fmt.Errorf("can't create file: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("can't close file: %w", cerr)
			}
		}()
		w = f
	}
	return dumpPairs(ctx, idx, w)
}

func dumpPairs(ctx *cli.Context, idx *index.Index, w io.Writer) error {
	encoder := json.NewEncoder(w)
	var encErr error
	err := idx.Walk(func(k []byte, v util.Uint256) bool {
		encErr = encoder.Encode(KVPair{Key: formatKey(ctx, k), Value: v})
		return encErr == nil
	})
	if err != nil {
		return err
	}
	return encErr
}

func handleProof(ctx *cli.Context, idx *index.Index) error {
	if err := checkArgs(ctx, 1); err != nil {
		return err
	}
	key, err := parseKey(ctx, ctx.Args().First())
	if err != nil {
		return err
	}
	proof, err := idx.Proof(key)
	if err != nil {
		return err
	}
	res := ProofResult{
		Root:  idx.Root(),
		Key:   formatKey(ctx, key),
		Proof: make([]string, len(proof)),
	}
	for i := range proof {
		res.Proof[i] = hex.EncodeToString(proof[i])
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, string(b))
	return nil
}

func handleVerify(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 3 {
		return cli.NewExitError(ErrMissingParameter, 1)
	}
	root, err := util.Uint256DecodeString(args[0])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid root: %w", err), 1)
	}
	key, err := parseKey(ctx, args[1])
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	proof := make([][]byte, 0, len(args)-2)
	for _, s := range args[2:] {
		b, err := hex.DecodeString(s)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid proof node: %w", err), 1)
		}
		proof = append(proof, b)
	}
	val, ok := mpt.VerifyProof(root, key, proof)
	if !ok {
		return cli.NewExitError(ErrInvalidProof, 1)
	}
	fmt.Fprintln(ctx.App.Writer, val)
	return nil
}
