// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models_cmd.go - Model listing command handler.
//
// Handles "cadence models" which lists the models the configured
// endpoint offers.
//
// Examples:
//   cadence models                 List all models
//   cadence models claude          Filter by substring
//   cadence models --free          Only zero-cost models

package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/cadence/internal/api"
	"github.com/jeranaias/cadence/internal/config"
)

// HandleModels handles the "models" command.
func HandleModels(args Args) error {
	cfg := config.Global()
	client := NewClientFromConfig(cfg, args)
	if err := RequireConfigured(client); err != nil {
		return err
	}

	parser := NewArgParser(args.Raw)
	filter := strings.ToLower(args.Subcommand)
	freeOnly := parser.BoolFlag("free")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	models, err := client.ListModels(ctx)
	if err != nil {
		return WrapError(err, "cannot list models")
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})

	current := client.GetModel()
	shown := 0

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("Available models"))
	}

	for _, m := range models {
		if filter != "" && !strings.Contains(strings.ToLower(m.ID), filter) &&
			!strings.Contains(strings.ToLower(m.Name), filter) {
			continue
		}
		if freeOnly && !isFreeModel(m) {
			continue
		}

		marker := "  "
		id := m.ID
		if m.ID == current {
			marker = HighlightStyle.Render("* ")
			id = HighlightStyle.Render(id)
		}

		if args.Quiet {
			fmt.Println(m.ID)
		} else {
			fmt.Printf("%s%s %s\n",
				marker,
				id,
				DimStyle.Render(fmt.Sprintf("(ctx %s)", formatContextSize(m.ContextSize))))
		}
		shown++
	}

	if shown == 0 {
		return NewNotFoundError("model", filter)
	}

	if !args.Quiet {
		fmt.Println()
		fmt.Printf("%s %d models | current marked with *\n", DimStyle.Render("[info]"), shown)
	}

	return nil
}

// isFreeModel reports whether both prompt and completion pricing are
// zero.
func isFreeModel(m api.ModelInfo) bool {
	isZero := func(s string) bool {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return err == nil && f == 0
	}
	return strings.HasSuffix(m.ID, ":free") || (isZero(m.Pricing.Prompt) && isZero(m.Pricing.Completion))
}

// formatContextSize renders a context window as 8k/128k/1m.
func formatContextSize(n int) string {
	switch {
	case n >= 1000000:
		return fmt.Sprintf("%dm", n/1000000)
	case n >= 1000:
		return fmt.Sprintf("%dk", n/1000)
	case n > 0:
		return fmt.Sprintf("%d", n)
	default:
		return "?"
	}
}
