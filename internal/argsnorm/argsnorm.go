// Package argsnorm implements the argument normalizer (spec.md §4.1): it
// merges three token layers — defaults, config-file tokens, and
// command-line tokens, lowest to highest priority — into a schema.Selection,
// classifying positional tokens into path-like/test-like/production-like/
// bare-name categories along the way.
package argsnorm

import (
	"strconv"
	"strings"

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/schema"
)

// PathClass identifies how a positional token was classified.
type PathClass int

// Positional token classes, per spec.md §4.1.
const (
	ClassBareName PathClass = iota
	ClassPathLike
	ClassTestLike
	ClassProductionLike
)

// Classify applies the spec.md §4.1 positional classification rules.
func Classify(token string) PathClass {
	if !schema.LooksPathLike(token) {
		return ClassBareName
	}
	if schema.IsTestPath(token) {
		return ClassTestLike
	}
	return ClassProductionLike
}

// FileFinder resolves a bare name to zero or more production-like candidate
// paths, restricted to non-vendor, non-coverage locations. In production
// this is backed by a filesystem walk; tests supply a stub.
type FileFinder func(token string) []string

// DeriveArgs merges layers of tokens, lowest-to-highest priority (defaults,
// config-file tokens, command-line tokens), and produces the effective
// Selection. Tokens after a literal "--" are forwarded to the child runner
// verbatim and excluded from flag/positional parsing.
func DeriveArgs(layers [][]string, find FileFinder) (schema.Selection, error) {
	sel := schema.Selection{Coverage: &schema.CoverageOptions{Mode: schema.CoverageAuto}}
	var detailErr error

	for _, tokens := range layers {
		forwarded, rest := splitForwarded(tokens)
		sel.Forwarded = append(sel.Forwarded[:0:0], append(sel.Forwarded, forwarded...)...)

		positionals, err := applyFlags(&sel, rest)
		if err != nil {
			detailErr = err
		}
		for _, p := range positionals {
			classifyAndAppend(&sel, p, find)
		}
	}

	if sel.ChangedMode != "" && sel.ChangedDepth == 0 {
		sel.ChangedDepth = contract.DefaultChangeDepth
	}
	return sel, detailErr
}

// splitForwarded separates tokens after a literal "--" from the rest.
func splitForwarded(tokens []string) (forwarded, rest []string) {
	for i, t := range tokens {
		if t == "--" {
			return tokens[i+1:], tokens[:i]
		}
	}
	return nil, tokens
}

// applyFlags scans tokens for recognized flags, mutating sel in place, and
// returns the remaining bare positional tokens. Any unrecognized token that
// starts with "-" is forwarded to the child runner directly (spec.md §4.1:
// "unknown tokens are also forwarded") rather than classified as a path.
func applyFlags(sel *schema.Selection, tokens []string) ([]string, error) {
	var positionals []string
	var detailErr error

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		name, value, hasValue := splitFlag(tok)

		switch {
		case name == "--runner":
			sel.RunnerID = takeValue(value, hasValue, tokens, &i)
		case name == "--coverage":
			sel.Coverage.Enabled = true
		case strings.HasPrefix(name, "--coverage."):
			key := strings.TrimPrefix(name, "--coverage.")
			v := takeValue(value, hasValue, tokens, &i)
			if err := applyCoverageKey(sel.Coverage, key, v); err != nil {
				detailErr = err
			}
		case name == "--coverage-ui":
			sel.CoverageUI = takeValue(value, hasValue, tokens, &i)
		case name == "--changed":
			if hasValue {
				sel.ChangedMode = schema.ChangedMode(value)
			} else {
				sel.ChangedMode = schema.ChangedAll
			}
			sel.Specified = true
		case name == "--changed.depth":
			v := takeValue(value, hasValue, tokens, &i)
			if n, err := strconv.Atoi(v); err == nil {
				sel.ChangedDepth = n
			}
		case name == "--onlyFailures":
			sel.OnlyFailures = true
		case name == "--showLogs":
			sel.ShowLogs = true
		case name == "--sequential":
			sel.Sequential = true
		case name == "--verbose":
			sel.Verbose = true
		case name == "--ci":
			sel.CI = true
		case name == "--no-cache":
			sel.NoCache = true
		case name == "--watch":
			sel.Watch = true
		case name == "--keep-artifacts":
			sel.KeepArtifacts = true
		case name == "--bootstrapCommand":
			sel.BootstrapCmd = takeValue(value, hasValue, tokens, &i)
		case name == "--editor":
			sel.EditorCmd = takeValue(value, hasValue, tokens, &i)
		case name == "-t" || name == "--testNamePattern":
			sel.NamePattern = takeValue(value, hasValue, tokens, &i)
		default:
			if strings.HasPrefix(tok, "-") {
				sel.Forwarded = append(sel.Forwarded, tok)
			} else {
				positionals = append(positionals, tok)
			}
		}
		i++
	}
	return positionals, detailErr
}

// splitFlag splits "--key=value" into ("--key", "value", true), or
// ("--key", "", false) when there is no "=".
func splitFlag(tok string) (name, value string, hasValue bool) {
	if !strings.HasPrefix(tok, "-") {
		return tok, "", false
	}
	if idx := strings.Index(tok, "="); idx >= 0 {
		return tok[:idx], tok[idx+1:], true
	}
	return tok, "", false
}

// takeValue resolves a flag's value, either from an inline "=value" or by
// consuming the next token, advancing i accordingly.
func takeValue(value string, hasValue bool, tokens []string, i *int) string {
	if hasValue {
		return value
	}
	if *i+1 < len(tokens) {
		*i++
		return tokens[*i]
	}
	return ""
}

// applyCoverageKey applies one `--coverage.<key>=<value>` keyed option.
// Malformed `detail` values are reported and default to "auto", per
// spec.md §4.1's error-condition note.
func applyCoverageKey(opts *schema.CoverageOptions, key, value string) error {
	opts.Enabled = true
	switch key {
	case "abortOnFailure":
		opts.AbortOnFailure = value == "" || truthy(value)
	case "mode":
		opts.Mode = schema.CoverageMode(value)
	case "pageFit":
		opts.PageFit = value == "" || truthy(value)
	case "detail":
		detail, err := contract.ParseCoverageDetail(value)
		opts.Detail = detail
		return err
	case "showCode":
		opts.ShowCode = value == "" || truthy(value)
	case "maxFiles":
		if n, err := strconv.Atoi(value); err == nil {
			opts.MaxFiles = n
		}
	case "maxHotspots":
		if n, err := strconv.Atoi(value); err == nil {
			opts.MaxHotspots = n
		}
	case "include":
		opts.Include = splitCommaList(value)
	case "exclude":
		opts.Exclude = splitCommaList(value)
	case "threshold":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			opts.ThresholdGlobal = f
		}
	case "parquet":
		opts.ParquetPath = value
	}
	return nil
}

func truthy(v string) bool {
	ok, err := contract.ParseBoolString(v)
	return err == nil && ok
}

func splitCommaList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// classifyAndAppend classifies a positional token and folds it into sel,
// expanding bare names via find and keeping only production-like results.
func classifyAndAppend(sel *schema.Selection, token string, find FileFinder) {
	switch Classify(token) {
	case ClassBareName:
		sel.Specified = true
		if find == nil {
			return
		}
		for _, candidate := range find(token) {
			if Classify(candidate) == ClassProductionLike {
				sel.Paths = append(sel.Paths, candidate)
			}
		}
	case ClassTestLike, ClassPathLike, ClassProductionLike:
		sel.Specified = true
		sel.Paths = append(sel.Paths, token)
	}
}
