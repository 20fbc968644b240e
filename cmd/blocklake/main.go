package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/blocklake/blocklake/internal/logger"
	"github.com/blocklake/blocklake/pkg/block"
	"github.com/blocklake/blocklake/pkg/blockstore"
	"github.com/blocklake/blocklake/pkg/config"
)

const usage = `Usage: blocklake [flags] <command> [args]

Commands:
  stat <id>              print metadata for a block
  get <id> [dest]        write a block's content to dest (default stdout)
  put <file>             store a file as a block, print its id
  delete <id>            remove a block
  list [list-flags]      stream stored block ids and sizes
  erase -force           remove every block in the store

Flags:
`

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	storeURI := flag.String("uri", "", "Store URI (mem://, file://, s3://); overrides -config")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	algo := flag.String("algo", "sha256", "Hash algorithm for put (sha1, sha256, sha512)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Cancel the context on SIGINT/SIGTERM so a long list or put aborts
	// cleanly instead of leaving a half-consumed stream.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("Interrupt received, aborting...")
		cancel()
	}()

	store, err := openStore(ctx, *configPath, *storeURI, *logLevel)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	if err := store.Start(ctx); err != nil {
		log.Fatalf("Failed to start store: %v", err)
	}
	defer func() {
		if err := store.Stop(); err != nil {
			logger.Warn("Stopping store: %v", err)
		}
	}()

	if err := runCommand(ctx, store, *algo, flag.Args()); err != nil {
		log.Fatalf("%v", err)
	}
}

// openStore builds the store from a URI when given, else from configuration.
func openStore(ctx context.Context, configPath, storeURI, logLevel string) (blockstore.LifecycleStore, error) {
	if storeURI != "" {
		if logLevel != "" {
			logger.SetLevel(logLevel)
		}
		return config.FromURI(ctx, storeURI, nil)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
	logger.SetLevel(logLevel)
	return config.CreateStore(ctx, cfg, nil)
}

func runCommand(ctx context.Context, store blockstore.LifecycleStore, algo string, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "stat":
		return runStat(ctx, store, rest)
	case "get":
		return runGet(ctx, store, rest)
	case "put":
		return runPut(ctx, store, algo, rest)
	case "delete":
		return runDelete(ctx, store, rest)
	case "list":
		return runList(ctx, store, rest)
	case "erase":
		return runErase(ctx, store, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func parseIDArg(args []string, cmd string) (block.ID, error) {
	if len(args) < 1 {
		return block.ID{}, fmt.Errorf("%s: block id required", cmd)
	}
	id, err := block.ParseID(args[0])
	if err != nil {
		return block.ID{}, fmt.Errorf("%s: %w", cmd, err)
	}
	return id, nil
}

func runStat(ctx context.Context, store blockstore.Store, args []string) error {
	id, err := parseIDArg(args, "stat")
	if err != nil {
		return err
	}
	stats, err := store.Stat(ctx, id)
	if err != nil {
		return err
	}
	if stats == nil {
		return fmt.Errorf("stat: block %s not found", id)
	}
	fmt.Printf("id:        %s\n", stats.ID)
	fmt.Printf("size:      %d\n", stats.Size)
	fmt.Printf("stored-at: %s\n", stats.StoredAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Printf("location:  %s\n", stats.Location)
	return nil
}

func runGet(ctx context.Context, store blockstore.Store, args []string) error {
	id, err := parseIDArg(args, "get")
	if err != nil {
		return err
	}
	b, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("get: block %s not found", id)
	}

	var dest io.Writer = os.Stdout
	if len(args) > 1 {
		f, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		defer f.Close()
		dest = f
	}

	src, err := b.Open(ctx)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(dest, src)
	return err
}

func runPut(ctx context.Context, store blockstore.Store, algo string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("put: file required")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	b, err := block.FromBytes(algo, data)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	stored, err := store.Put(ctx, b)
	if err != nil {
		return err
	}
	fmt.Println(stored.ID)
	return nil
}

func runDelete(ctx context.Context, store blockstore.Store, args []string) error {
	id, err := parseIDArg(args, "delete")
	if err != nil {
		return err
	}
	return store.Delete(ctx, id)
}

func runList(ctx context.Context, store blockstore.Store, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Maximum number of blocks to print (0 = all)")
	after := fs.String("after", "", "Exclusive lower digest cursor")
	before := fs.String("before", "", "Exclusive upper digest bound")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := blockstore.ListQuery{Limit: *limit, After: *after, Before: *before}
	for res := range store.List(ctx, q) {
		if res.Err != nil {
			return res.Err
		}
		fmt.Printf("%s\t%d\n", res.Stats.ID, res.Stats.Size)
	}
	return nil
}

func runErase(ctx context.Context, store blockstore.Store, args []string) error {
	fs := flag.NewFlagSet("erase", flag.ContinueOnError)
	force := fs.Bool("force", false, "Confirm removal of every block")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*force {
		return fmt.Errorf("erase: refusing to remove all blocks without -force")
	}
	return store.Erase(ctx)
}
