// Command filtercachedemo exercises a Manager against an in-memory
// source: it pages through a small dataset under a composite filter,
// prints what got cached, then serialises and reloads a snapshot to
// show the round trip.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/lindenhollow/filtercache"
	"github.com/lindenhollow/filtercache/filter"
	"github.com/lindenhollow/filtercache/memsource"
)

type employee struct {
	ID     int
	Name   string
	Salary int
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	registry := filter.NewRegistry(logger)
	filter.Register[employee](registry, "employee", "name", func(e employee) any { return e.Name })
	filter.Register[employee](registry, "employee", "salary", func(e employee) any { return e.Salary })

	employees := make([]employee, 0, 100)
	for i := 1; i <= 100; i++ {
		employees = append(employees, employee{ID: i, Name: fmt.Sprintf("employee-%d", i), Salary: 2000 + i*30})
	}
	src := memsource.New[int](employees, func(e employee) int { return e.ID })

	composite, err := filter.NewBuilder[employee](registry, "employee").
		Where("salary", filter.Min(2500)).
		Build()
	if err != nil {
		logger.Error("build filter", "error", err)
		os.Exit(1)
	}

	manager := filtercache.NewManager[int, employee](
		filtercache.WithLogger[int, employee](filtercache.SlogLogger{L: logger}),
		filtercache.WithOnInsert[int, employee](func(id int, e employee) {
			logger.Info("observed entity", "id", id, "name", e.Name)
		}),
	)

	ctx := context.Background()
	page1, err := manager.GetData(ctx, composite, 1, 10, src)
	if err != nil {
		logger.Error("get page 1", "error", err)
		os.Exit(1)
	}
	fmt.Printf("page 1: %d entities\n", len(page1))

	page2, err := manager.GetData(ctx, composite, 2, 10, src)
	if err != nil {
		logger.Error("get page 2", "error", err)
		os.Exit(1)
	}
	fmt.Printf("page 2: %d entities\n", len(page2))

	snap := manager.Snapshot()
	encoded, err := json.MarshalIndent(snapshotView(snap), "", "  ")
	if err != nil {
		logger.Error("marshal snapshot", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))

	restored := filtercache.RestoreManager[int, employee](snap)
	fmt.Printf("restored cached data: %d entities\n", len(restored.CachedData()))
}

// snapshotView flattens the handful of fields worth printing; the full
// snapshot holds every cached entity and id slot, which marshals fine
// but is noisy in a demo transcript.
func snapshotView(snap filtercache.Snapshot[int, employee]) map[string]any {
	fingerprints := make([]string, 0, len(snap.FilterPages))
	for fp := range snap.FilterPages {
		fingerprints = append(fingerprints, fp)
	}
	return map[string]any{
		"knownCount":   snap.EntityStore.KnownCount,
		"fingerprints": fingerprints,
	}
}
