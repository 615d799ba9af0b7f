package rego

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	oparego "github.com/open-policy-agent/opa/rego"
)

// Query is evaluated once per appliance descriptor. It must produce an
// object with "deny" and "warn" collections of messages.
const Query = "data.applint.appliance.result"

type Input struct {
	File      string `json:"file"`
	Appliance any    `json:"appliance"`
}

type Result struct {
	Deny []string `json:"deny"`
	Warn []string `json:"warn"`
}

type Engine struct {
	query oparego.PreparedEvalQuery
}

func Load(ctx context.Context, policyPath string) (*Engine, error) {
	raw, err := os.ReadFile(policyPath)
	if err != nil {
		return nil, fmt.Errorf("read rego policy: %w", err)
	}

	query, err := oparego.New(
		oparego.Query(Query),
		oparego.Module(filepath.Base(policyPath), string(raw)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare rego query: %w", err)
	}
	return &Engine{query: query}, nil
}

func (e *Engine) Evaluate(ctx context.Context, input Input) (Result, error) {
	rs, err := e.query.Eval(ctx, oparego.EvalInput(input))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("eval rego policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Result{}, fmt.Errorf("rego policy returned no result")
	}
	return decodeResult(rs[0].Expressions[0].Value)
}

func decodeResult(v any) (Result, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Result{}, fmt.Errorf("rego result must be object")
	}
	deny := decodeMessages(obj["deny"])
	warn := decodeMessages(obj["warn"])
	sort.Strings(deny)
	sort.Strings(warn)
	return Result{Deny: deny, Warn: warn}, nil
}

func decodeMessages(v any) []string {
	out := []string{}
	switch raw := v.(type) {
	case []any:
		for _, item := range raw {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case map[string]any:
		for key := range raw {
			if key != "" {
				out = append(out, key)
			}
		}
	case map[any]any:
		for key := range raw {
			if s, ok := key.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
