// Package render expands the inline expressions of static HTML pages.
//
// A page is first placed into the site shell at its #{CONTENT} placeholder.
// Every #{...} span of the result is then evaluated once, left to right, and
// replaced by the string form of its value.
package render

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// ContentPlaceholder marks where the page goes inside the shell.
	ContentPlaceholder = "#{CONTENT}"

	exprOpen = "#{"
)

// Expander evaluates page expressions. Compiled programs are cached by
// source text, so an Expander should be shared.
type Expander struct {
	programs sync.Map // string -> *vm.Program
}

// NewExpander returns an Expander with an empty program cache.
func NewExpander() *Expander {
	return &Expander{}
}

// Expand inserts content into shell and evaluates every expression against
// env. Output of an expression is never scanned again. The first failure
// aborts the whole render.
func (e *Expander) Expand(ctx context.Context, shell, content string, env Env) (string, error) {
	s := strings.Replace(shell, ContentPlaceholder, content, 1)

	var out strings.Builder
	out.Grow(len(s))
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		start := strings.Index(s, exprOpen)
		if start < 0 {
			out.WriteString(s)
			return out.String(), nil
		}
		out.WriteString(s[:start])

		end := closingBrace(s, start+1)
		if end < 0 {
			log.Error().Str("expression", s[start:]).Msg("unterminated page expression")
			return "", apperrors.Wrapf(apperrors.ErrUnbalancedExpression, "expression at offset %d", out.Len())
		}

		code := s[start+len(exprOpen) : end]
		value, err := e.eval(code, env)
		if err != nil {
			log.Err(err).Str("expression", code).Msg("evaluating page expression")
			return "", err
		}
		out.WriteString(value)
		s = s[end+1:]
	}
}

// closingBrace returns the index of the brace matching the one at open, or -1.
func closingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (e *Expander) eval(code string, env Env) (string, error) {
	program, err := e.compile(code)
	if err != nil {
		return "", err
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return "", errors.Wrap(err, "[Expander.eval] running expression")
	}
	if result == nil {
		return "", nil
	}
	return fmt.Sprint(result), nil
}

func (e *Expander) compile(code string) (*vm.Program, error) {
	if cached, ok := e.programs.Load(code); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(code, expr.Env(Env{}))
	if err != nil {
		return nil, errors.Wrap(err, "[Expander.compile] compiling expression")
	}
	e.programs.Store(code, program)
	return program, nil
}
