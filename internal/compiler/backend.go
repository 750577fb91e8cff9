// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/parser"
	lru "github.com/hashicorp/golang-lru/v2"
	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/livecmd/internal/cueutil"
	"github.com/invowk/livecmd/internal/discovery"
	"github.com/invowk/livecmd/internal/module"
)

// DefaultCacheSize is the number of compiled files kept between cycles.
const DefaultCacheSize = 512

//go:embed command_schema.cue
var commandSchema []byte

type (
	// CUEBackend compiles CUE command files and shell libraries.
	// Per-file results are cached by path and content digest, so a cycle
	// only re-parses files that changed.
	CUEBackend struct {
		mu          sync.Mutex
		cache       *lru.Cache[string, *unit]
		maxFileSize int64
		logger      *slog.Logger
	}

	// CUEOption configures a CUEBackend.
	CUEOption func(*CUEBackend)

	// unit is the cached compilation of one file.
	unit struct {
		parsed   bool
		commands []module.CommandDecl
		library  module.Library
		diags    []discovery.Diagnostic
	}

	commandFile struct {
		Commands map[string]commandSpec `json:"commands"`
	}

	commandSpec struct {
		Description      string            `json:"description"`
		Script           string            `json:"script"`
		Runtime          string            `json:"runtime"`
		Accepts          string            `json:"accepts"`
		RequiresArgument bool              `json:"requires_argument"`
		Timeout          string            `json:"timeout"`
		Env              map[string]string `json:"env"`
		EnvFile          string            `json:"env_file"`
	}
)

// WithCacheSize sets the number of cached file units. Zero disables caching.
func WithCacheSize(n int) CUEOption {
	return func(b *CUEBackend) {
		if n <= 0 {
			b.cache = nil
			return
		}
		b.cache, _ = lru.New[string, *unit](n)
	}
}

// WithMaxFileSize limits the size of command files.
func WithMaxFileSize(n int64) CUEOption {
	return func(b *CUEBackend) { b.maxFileSize = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CUEOption {
	return func(b *CUEBackend) { b.logger = logger }
}

// NewCUEBackend creates a backend with a DefaultCacheSize cache.
func NewCUEBackend(opts ...CUEOption) *CUEBackend {
	cache, _ := lru.New[string, *unit](DefaultCacheSize)
	b := &CUEBackend{
		cache:       cache,
		maxFileSize: cueutil.DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compile parses and checks every source and reference, then writes the
// artifact to outputPath when no error diagnostic was produced.
func (b *CUEBackend) Compile(ctx context.Context, sources []discovery.SourceFile, refs discovery.ReferenceSet, outputPath string) (*CompilationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	result := &CompilationResult{ParseSuccess: true}

	var (
		cueCtx *cue.Context
		schema cue.Value
		decls  []module.CommandDecl
		paths  []string
		hits   int
	)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(src.Path)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, discovery.Diagnostic{
				Severity: discovery.SeverityError,
				Code:     CodeSourceUnreadable,
				Message:  fmt.Sprintf("cannot read source: %v", err),
				Path:     src.Path,
				Cause:    err,
			})
			continue
		}

		key := "cue\x00" + src.Path + "\x00" + discovery.Fingerprint(data)
		u, ok := b.lookup(key)
		if ok {
			hits++
		} else {
			if cueCtx == nil {
				cueCtx = cuecontext.New()
				schema = cueCtx.CompileBytes(commandSchema).LookupPath(cue.ParsePath("#Module"))
				if err := schema.Err(); err != nil {
					return nil, fmt.Errorf("internal error: compile command schema: %w", err)
				}
			}
			u = b.compileSource(cueCtx, schema, src.Path, data)
			b.store(key, u)
		}

		paths = append(paths, src.Path)
		decls = append(decls, u.commands...)
		result.Diagnostics = append(result.Diagnostics, u.diags...)
		if !u.parsed {
			result.ParseSuccess = false
		}
	}

	var libs []module.Library
	for _, ref := range refs.Paths() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(ref)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, discovery.Diagnostic{
				Severity: discovery.SeverityError,
				Code:     CodeReferenceError,
				Message:  fmt.Sprintf("cannot read library: %v", err),
				Path:     ref,
				Cause:    err,
			})
			continue
		}

		key := "sh\x00" + ref + "\x00" + discovery.Fingerprint(data)
		u, ok := b.lookup(key)
		if ok {
			hits++
		} else {
			u = compileLibrary(ref, data)
			b.store(key, u)
		}
		result.Diagnostics = append(result.Diagnostics, u.diags...)
		if u.parsed {
			libs = append(libs, u.library)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if result.ParseSuccess && !discovery.HasErrors(result.Diagnostics) {
		handle, err := module.Write(outputPath, module.New(paths, libs, decls))
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, discovery.Diagnostic{
				Severity: discovery.SeverityError,
				Code:     CodeEmitFailed,
				Message:  err.Error(),
				Path:     outputPath,
				Cause:    err,
			})
		} else {
			result.EmitSuccess = true
			result.Artifact = &handle
		}
	}

	b.logger.Debug("compilation finished",
		"sources", len(sources),
		"references", refs.Len(),
		"cached", hits,
		"commands", len(decls),
		"diagnostics", len(result.Diagnostics),
		"duration", time.Since(start))

	return result, nil
}

func (b *CUEBackend) lookup(key string) (*unit, bool) {
	if b.cache == nil {
		return nil, false
	}
	return b.cache.Get(key)
}

func (b *CUEBackend) store(key string, u *unit) {
	if b.cache != nil {
		b.cache.Add(key, u)
	}
}

// compileSource parses one command file, validates it against #Module and
// checks every script.
func (b *CUEBackend) compileSource(cueCtx *cue.Context, schema cue.Value, path string, data []byte) *unit {
	u := &unit{}

	if err := cueutil.CheckFileSize(data, b.maxFileSize, path); err != nil {
		u.diags = append(u.diags, errorAt(CodeParseError, path, cueutil.Issue{Message: err.Error()}, err))
		return u
	}

	file, err := parser.ParseFile(path, data)
	if err != nil {
		for _, issue := range cueutil.Issues(err) {
			u.diags = append(u.diags, errorAt(CodeParseError, path, issue, err))
		}
		return u
	}
	u.parsed = true

	value := schema.Unify(cueCtx.BuildFile(file))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		for _, issue := range cueutil.Issues(err) {
			u.diags = append(u.diags, errorAt(CodeSchemaError, path, issue, err))
		}
		return u
	}

	var decoded commandFile
	if err := value.Decode(&decoded); err != nil {
		u.diags = append(u.diags, errorAt(CodeSchemaError, path, cueutil.Issue{Message: err.Error()}, err))
		return u
	}

	names := make([]string, 0, len(decoded.Commands))
	for name := range decoded.Commands {
		names = append(names, name)
	}
	slices.Sort(names)

	shParser := syntax.NewParser()
	for _, name := range names {
		spec := decoded.Commands[name]
		at := func(f, format string, args ...any) cueutil.Issue {
			issue := cueutil.Issue{Message: fmt.Sprintf("commands.%s.%s: ", name, f) + fmt.Sprintf(format, args...)}
			pos := value.LookupPath(cue.MakePath(cue.Str("commands"), cue.Str(name), cue.Str(f))).Pos()
			if pos.IsValid() {
				issue.Line, issue.Column = pos.Line(), pos.Column()
			}
			return issue
		}

		failed := false
		if _, err := shParser.Parse(strings.NewReader(spec.Script), name); err != nil {
			u.diags = append(u.diags, errorAt(CodeScriptSyntaxError, path, at("script", "%v", err), err))
			failed = true
		}
		if spec.Accepts != "" {
			if _, err := regexp.Compile(spec.Accepts); err != nil {
				u.diags = append(u.diags, errorAt(CodeInvalidAccepts, path, at("accepts", "%v", err), err))
				failed = true
			}
		}
		if spec.Timeout != "" {
			if d, err := time.ParseDuration(spec.Timeout); err != nil || d <= 0 {
				u.diags = append(u.diags, errorAt(CodeInvalidTimeout, path, at("timeout", "%q must be a positive duration", spec.Timeout), err))
				failed = true
			}
		}
		if failed {
			continue
		}

		u.commands = append(u.commands, module.CommandDecl{
			Name:             name,
			Origin:           path,
			Description:      spec.Description,
			Script:           spec.Script,
			Runtime:          spec.Runtime,
			Accepts:          spec.Accepts,
			RequiresArgument: spec.RequiresArgument,
			Timeout:          spec.Timeout,
			Env:              spec.Env,
			EnvFile:          spec.EnvFile,
		})
	}
	return u
}

// compileLibrary parses a shell library and lists its top-level functions.
func compileLibrary(path string, data []byte) *unit {
	u := &unit{}

	file, err := syntax.NewParser().Parse(strings.NewReader(string(data)), path)
	if err != nil {
		issue := cueutil.Issue{Message: err.Error()}
		var perr syntax.ParseError
		if errors.As(err, &perr) {
			issue.Line, issue.Column = int(perr.Pos.Line()), int(perr.Pos.Col())
			issue.Message = perr.Text
		}
		u.diags = append(u.diags, errorAt(CodeReferenceError, path, issue, err))
		return u
	}
	u.parsed = true

	var functions []string
	for _, stmt := range file.Stmts {
		if fn, ok := stmt.Cmd.(*syntax.FuncDecl); ok {
			functions = append(functions, fn.Name.Value)
		}
	}
	u.library = module.Library{Path: path, Source: string(data), Functions: functions}
	return u
}

func errorAt(code, path string, issue cueutil.Issue, cause error) discovery.Diagnostic {
	return discovery.Diagnostic{
		Severity: discovery.SeverityError,
		Code:     code,
		Message:  issue.String(),
		Path:     path,
		Line:     issue.Line,
		Column:   issue.Column,
		Cause:    cause,
	}
}
