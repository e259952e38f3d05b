// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command handler.
//
// Handles "cadence config" with get/set/list/path subcommands. Keys use
// dot notation matching the TOML layout (api.model, typing.base_delay_ms).
//
// Examples:
//   cadence config list
//   cadence config get api.model
//   cadence config set api.model anthropic/claude-3.5-sonnet
//   cadence config set typing.base_delay_ms 50
//   cadence config path

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/cadence/internal/api"
	"github.com/jeranaias/cadence/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "list", "":
		return configList()
	case "get":
		return configGet(args.ConfigKey)
	case "set":
		return configSet(args.ConfigKey, args.ConfigVal)
	case "path":
		return configPath()
	default:
		return NewValidationErrorWithExample(
			"subcommand",
			args.Subcommand,
			"must be one of: get, set, list, path",
			"cadence config set api.model anthropic/claude-3.5-sonnet",
		)
	}
}

// configList prints every key and its current value.
func configList() error {
	cfg := config.Global()

	fmt.Println(TitleStyle.Render("cadence configuration"))

	for _, key := range config.GetAllKeys() {
		val, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("  %s %s\n",
			RenderLabel(key, 28),
			ValueStyle.Render(displayValue(key, val)))
	}

	return nil
}

// configGet prints one value.
func configGet(key string) error {
	if key == "" {
		return ErrMissingArgument("key", "cadence config get api.model")
	}

	cfg := config.Global()
	val, err := cfg.Get(key)
	if err != nil {
		return NewNotFoundError("config key", key)
	}

	fmt.Println(displayValue(key, val))
	return nil
}

// configSet writes one value and persists the file.
func configSet(key, value string) error {
	if key == "" || value == "" {
		return ErrMissingArgument("key and value", "cadence config set api.model anthropic/claude-3.5-sonnet")
	}

	cfg := config.Global()

	if err := cfg.Set(key, coerceValue(value)); err != nil {
		return WrapError(err, "cannot set config value")
	}

	if err := cfg.Validate(); err != nil {
		return WrapError(err, "rejected")
	}

	if err := config.Save(cfg); err != nil {
		return WrapError(err, "cannot save config")
	}

	fmt.Printf("%s %s = %s\n",
		SuccessStyle.Render("[OK]"),
		key,
		displayValue(key, value))
	return nil
}

// configPath prints the config file location.
func configPath() error {
	path, err := config.ConfigPath()
	if err != nil {
		return WrapError(err, "cannot determine config path")
	}
	fmt.Println(path)
	return nil
}

// displayValue formats a value for display, masking secrets.
func displayValue(key string, val interface{}) string {
	if strings.HasSuffix(key, ".key") {
		if s, ok := val.(string); ok {
			return api.MaskKey(s)
		}
	}
	return fmt.Sprintf("%v", val)
}

// coerceValue converts string input to the natural Go type so reflection
// based Set can assign ints and bools.
func coerceValue(s string) interface{} {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if b, err := ParseBoolString(s); err == nil {
		return b
	}
	return s
}
