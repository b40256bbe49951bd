// Package main provides a fixture-driven CLI for exercising the planning
// pipeline without a server: load a library, history, and user context from
// JSON files, run Plan, and print the resulting session as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/forgelift/planner/internal/model"
	"github.com/forgelift/planner/internal/planner"
)

func main() {
	libraryPath := flag.String("library", "", "path to a JSON array of exercises (required)")
	historyPath := flag.String("history", "", "path to a JSON array of workout history entries (optional)")
	baselinesPath := flag.String("baselines", "", "path to a JSON array of baselines (optional)")
	userPath := flag.String("user", "", "path to a JSON user context (required)")
	intentPath := flag.String("intent", "", "path to a JSON intent (optional; derived from history when absent)")
	seed := flag.Int64("seed", 0, "deterministic tie-break seed (0 disables cold-start reshuffling)")
	flag.Parse()

	if *libraryPath == "" || *userPath == "" {
		log.Fatal("usage: planfixture -library <path> -user <path> [-history <path>] [-baselines <path>] [-intent <path>] [-seed <n>]")
	}

	var library []model.Exercise
	mustLoadJSON(*libraryPath, &library)

	var user model.UserContext
	mustLoadJSON(*userPath, &user)

	var history []model.WorkoutHistoryEntry
	if *historyPath != "" {
		mustLoadJSON(*historyPath, &history)
	}

	var baselines []model.Baseline
	if *baselinesPath != "" {
		mustLoadJSON(*baselinesPath, &baselines)
	}

	var intent *model.Intent
	if *intentPath != "" {
		intent = &model.Intent{}
		mustLoadJSON(*intentPath, intent)
	}

	plan, err := planner.Plan(context.Background(), library, user, history, baselines, intent, *seed)
	if err != nil {
		log.Fatalf("plan: %v", err)
	}
	// Plan itself stays pure/deterministic and never assigns an ID; this CLI
	// stamps one only when handing the result to something that needs one
	// (printing here, a store row elsewhere).
	plan.ID = uuid.New().String()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		log.Fatalf("encode plan: %v", err)
	}
}

func mustLoadJSON(path string, v any) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		log.Fatalf("decode %s: %v", path, err)
	}
}
