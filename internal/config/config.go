// Package config loads run profiles: CUE files that preset the options of a
// property run.
//
// A profile is unified with an embedded schema that closes every struct and
// supplies defaults, so typos and out-of-range values are rejected with a
// file position.
//
//	check: {
//		property: "metering_parity"
//		cases:    5000
//	}
//	store: path: "runs.db"
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// Config is a decoded run profile.
type Config struct {
	Check CheckConfig `json:"check"`
	Store StoreConfig `json:"store"`
}

// CheckConfig presets `hostval check`.
type CheckConfig struct {
	Property string `json:"property"`
	Cases    int    `json:"cases"`
	Seed     int    `json:"seed"`
	Workers  int    `json:"workers"`
	Budget   uint64 `json:"budget"`
	MaxDepth int    `json:"max_depth"`
}

// StoreConfig locates the run store.
type StoreConfig struct {
	Path string `json:"path"`
}

// Error is a profile error with its position, when CUE reports one.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the profile that an empty file produces.
func Default() (*Config, error) {
	return Parse("default.cue", nil)
}

// Load reads and decodes a profile file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes profile source. filename is only used in error positions.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	return &cfg, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &Error{Message: firstErr.Error(), Pos: positions[0]}
	}
	return &Error{Message: firstErr.Error()}
}
