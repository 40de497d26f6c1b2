/*
Package parley is a question/answer interview engine for collecting structured data through dynamic, scriptable dialogs.

An interview is a YAML document of typed questions and guarded steps. The engine walks the steps in order, backward-chains to whichever question can supply a value a step is missing, and folds the answers into an immutable state until the document completes.

# Concept

Parley separates the interview document (questions, steps) from the running state (context, data, answered questions). Each update is a pure fold: a state snapshot plus responses produces a new snapshot and a piece of content to render, either a question schema or an exit message. Snapshots are content-addressed, so storage writes are idempotent and no state is ever mutated in place.

# Key Features

  - Deterministic Updates: given the same snapshot and responses, the outcome is always reproducible.
  - Backward Chaining: steps never name the question to ask; the engine finds the question that provides the missing value.
  - Typed Questions: text, number, select and date fields with validation, rendered as JSON schema.
  - Content-Addressed State: snapshots are keyed by hash, stored in memory or Redis with TTL housekeeping.
  - Sub-Interviews: a step can suspend the parent and run a child interview, folding its result back in.

# Usage

Initialize the engine with an interview config file, then drive the Start/Update loop. Responses come from whatever frontend renders the question schemas.

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/parley"
		"github.com/aretw0/parley/pkg/interview"
	)

	func main() {
		eng, err := parley.New("interviews.yml")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		key, _, err := eng.Start(ctx, "registration", "https://example.net/register", nil, nil)
		if err != nil {
			log.Fatal(err)
		}

		// Main loop: Update -> render content -> collect responses
		var responses map[string]any
		var content interview.Content
		for {
			key, content, err = eng.Update(ctx, key, responses)
			if err != nil {
				log.Fatal(err)
			}
			switch c := content.(type) {
			case *interview.AskContent:
				// Render c.Schema and gather field responses...
				responses = map[string]any{"field_0": "some answer"}
			case *interview.ExitContent:
				log.Println("Exited:", c.Title)
				return
			case nil:
				result, err := eng.Result(ctx, key)
				if err != nil {
					log.Fatal(err)
				}
				log.Println("Completed:", result.Data)
				return
			}
		}
	}
*/
package parley
