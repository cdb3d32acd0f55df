package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/memento"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/listing"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to generate")
	adapter := flag.String("adapter", "fs", "Storage adapter to benchmark (fs, sqlite, memory)")
	keep := flag.Bool("keep", false, "Keep the benchmark data directory after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "memento_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	app, err := memento.New(ctx, benchDir,
		memento.WithAdapter(*adapter),
		memento.WithLogger(logger),
	)
	if err != nil {
		panic(err)
	}

	// Bulk generation goes through SaveAll; Upsert rewrites the whole
	// collection on every call and is measured separately below.
	fmt.Printf("Generating %d notes in %s (%s)...\n", *count, benchDir, *adapter)
	startGen := time.Now()
	notes := make([]core.Note, 0, *count)
	for i := 0; i < *count; i++ {
		notes = append(notes, core.Note{
			ID:        fmt.Sprintf("note-%d", i),
			Title:     fmt.Sprintf("Note %d", i),
			Content:   fmt.Sprintf("This is benchmark note %d.", i),
			Timestamp: time.Now().UnixMilli() - int64(i),
			Pinned:    i%10 == 0,
		})
	}
	if err := app.Notes.SaveAll(ctx, notes); err != nil {
		panic(err)
	}
	genDuration := time.Since(startGen)
	_ = app.Close()

	// Re-open to simulate a new CLI invocation.
	app, err = memento.New(ctx, benchDir, memento.WithAdapter(*adapter), memento.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	defer app.Close()

	startLoad := time.Now()
	loaded := app.Notes.LoadAll(ctx)
	loadDuration := time.Since(startLoad)

	startFilter := time.Now()
	filtered := listing.FilterAndSort(loaded, "note 9")
	filterDuration := time.Since(startFilter)

	startUpsert := time.Now()
	if _, err := app.Notes.Upsert(ctx, core.Note{Title: "extra", Content: "one more"}); err != nil {
		panic(err)
	}
	upsertDuration := time.Since(startUpsert)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d notes, %s):\n", *count, *adapter)
	fmt.Printf("  SaveAll:       %v\n", genDuration)
	fmt.Printf("  LoadAll:       %v (items: %d)\n", loadDuration, len(loaded))
	fmt.Printf("  FilterAndSort: %v (matches: %d)\n", filterDuration, len(filtered))
	fmt.Printf("  Upsert:        %v\n", upsertDuration)
	fmt.Printf("--------------------------------------------------\n")
}
