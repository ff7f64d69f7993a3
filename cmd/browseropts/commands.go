package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	opts "github.com/goliatone/go-browser-opts"
	"github.com/goliatone/go-browser-opts/browser"
	"github.com/goliatone/go-browser-opts/config"
	"github.com/goliatone/go-browser-opts/fixtures"
	"github.com/goliatone/go-browser-opts/internal/metrics"
	"github.com/goliatone/go-browser-opts/schema/openapi"
)

func newFlagSet(name string, env *cliEnv) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(env.stderr)
	return flags
}

func parseFlags(flags *pflag.FlagSet, args []string) (bool, error) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, nil
		}
		return false, &exitError{code: 2, message: err.Error()}
	}
	return true, nil
}

func fileArg(flags *pflag.FlagSet) (string, error) {
	if flags.NArg() != 1 {
		return "", &exitError{code: 2, message: fmt.Sprintf("%s: expected exactly one FILE argument", flags.Name())}
	}
	return flags.Arg(0), nil
}

type ruleFlags struct {
	rule   string
	engine string
	ci     bool
	tty    bool
}

func (r *ruleFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&r.rule, "rule", "", `headless default rule, e.g. "`+browser.RunnerHeadlessRule+`"`)
	flags.StringVar(&r.engine, "engine", "expr", "rule engine: expr, cel or js")
	flags.BoolVar(&r.ci, "ci", false, "override CI detection for the rule")
	flags.BoolVar(&r.tty, "tty", false, "override terminal detection for the rule")
}

// options builds resolver options. The expr engine is left to the resolver so
// rule helpers such as getenv stay available.
func (r *ruleFlags) options(flags *pflag.FlagSet) ([]browser.ResolverOption, error) {
	if r.rule == "" {
		return nil, nil
	}
	var evaluator opts.Evaluator
	if r.engine != "expr" {
		var err error
		evaluator, err = opts.NewEvaluator(r.engine, opts.NewProgramCache(), nil)
		if err != nil {
			return nil, err
		}
	}
	env := browser.DetectEnvironment()
	if flags.Changed("ci") {
		env.CI = r.ci
	}
	if flags.Changed("tty") {
		env.TTY = r.tty
	}
	return []browser.ResolverOption{
		browser.WithHeadlessRule(r.rule, evaluator),
		browser.WithEnvironment(env),
	}, nil
}

func loadOptions(strict bool, env *cliEnv) []config.LoadOption {
	options := []config.LoadOption{config.WithLogger(env.logger)}
	if strict {
		options = append(options, config.WithStrict())
	}
	return options
}

type resolveReport struct {
	Source     string             `json:"source" yaml:"source"`
	SnapshotID string             `json:"snapshotId" yaml:"snapshotId"`
	Resolution browser.Resolution `json:"resolution" yaml:"resolution"`
}

func runResolve(ctx context.Context, args []string, env *cliEnv) error {
	flags := newFlagSet("resolve", env)
	output := flags.StringP("output", "o", "json", "output format: json or yaml")
	strict := flags.Bool("strict", false, "reject unknown keys in the browser section")
	var (
		rules  ruleFlags
		stored storeFlags
	)
	rules.register(flags)
	stored.register(flags)
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	path, err := fileArg(flags)
	if err != nil {
		return err
	}
	if err := checkOutput(*output, "json", "yaml"); err != nil {
		return err
	}

	file, err := config.LoadFile(path, loadOptions(*strict, env)...)
	if err != nil {
		return err
	}
	resolver, closeStore, err := newResolver(flags, env, &rules, &stored)
	if err != nil {
		return err
	}
	defer closeStore()
	resolution, err := resolver.Resolve(ctx, file.Browser)
	if err != nil {
		return err
	}
	return writeOutput(env.stdout, *output, resolveReport{
		Source:     path,
		SnapshotID: file.SnapshotID,
		Resolution: resolution,
	})
}

func runExplain(ctx context.Context, args []string, env *cliEnv) error {
	flags := newFlagSet("explain", env)
	instance := flags.StringP("instance", "i", "", "instance name (required)")
	path := flags.StringP("path", "p", "headless", "setting path, e.g. headless or viewport.width")
	output := flags.StringP("output", "o", "text", "output format: text or json")
	var (
		rules  ruleFlags
		stored storeFlags
	)
	rules.register(flags)
	stored.register(flags)
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	file, err := fileArg(flags)
	if err != nil {
		return err
	}
	if *instance == "" {
		return &exitError{code: 2, message: "explain: --instance is required"}
	}
	if err := checkOutput(*output, "text", "json"); err != nil {
		return err
	}

	loaded, err := config.LoadFile(file, loadOptions(false, env)...)
	if err != nil {
		return err
	}
	resolver, closeStore, err := newResolver(flags, env, &rules, &stored)
	if err != nil {
		return err
	}
	defer closeStore()
	trace, err := resolver.Explain(ctx, loaded.Browser, *instance, *path)
	if err != nil {
		return err
	}

	if *output == "json" {
		payload, err := trace.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(env.stdout, string(payload))
		return err
	}
	writeTrace(env.stdout, env.styles, *instance, trace)
	return nil
}

func newResolver(flags *pflag.FlagSet, env *cliEnv, rules *ruleFlags, stored *storeFlags) (*browser.Resolver, func() error, error) {
	ruleOptions, err := rules.options(flags)
	if err != nil {
		return nil, nil, err
	}
	storeOptions, closeStore, err := stored.options(env)
	if err != nil {
		return nil, nil, err
	}
	options := append(ruleOptions, storeOptions...)
	options = append(options, browser.WithLogger(env.logger))
	return browser.NewResolver(options...), closeStore, nil
}

func checkOutput(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return &exitError{code: 2, message: fmt.Sprintf("unsupported output %q, want %s", format, strings.Join(allowed, " or "))}
}

func writeTrace(w io.Writer, st styles, instance string, trace opts.Trace) {
	fmt.Fprintln(w, st.heading.Render(fmt.Sprintf("%s for %s", trace.Path, instance)))
	winner, hasWinner := trace.Winner()
	for _, layer := range trace.Layers {
		value := st.muted.Render("unset")
		if layer.Found {
			value = fmt.Sprint(layer.Value)
		}
		line := fmt.Sprintf("  %-9s %4d  %s", layer.Scope.Name, layer.Scope.Priority, value)
		if layer.SnapshotID != "" {
			line += st.muted.Render("  @" + layer.SnapshotID)
		}
		if hasWinner && layer.Scope.Name == winner.Scope.Name {
			line += "  " + st.winner.Render("<- effective")
		}
		fmt.Fprintln(w, line)
	}
}

type checkCase struct {
	label  string
	data   []byte
	format config.Format
	expect map[string]bool
}

func runCheck(ctx context.Context, args []string, env *cliEnv) error {
	flags := newFlagSet("check", env)
	expects := flags.StringArrayP("expect", "e", nil, "expected headless value as NAME=BOOL (repeatable)")
	strict := flags.Bool("strict", false, "reject unknown keys in the browser section")
	metricsFile := flags.String("metrics-file", "", "write resolution counters to this Prometheus textfile")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}

	cases, err := checkCases(flags, *expects)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	resolver := browser.NewResolver(
		browser.WithObserver(metrics.New(registry)),
		browser.WithLogger(env.logger),
	)
	loadOpts := loadOptions(*strict, env)

	failed := 0
	for _, tc := range cases {
		diff, err := runCheckCase(ctx, resolver, tc, loadOpts)
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(env.stdout, "%s %s: %v\n", env.styles.fail.Render("FAIL"), tc.label, err)
		case diff != "":
			failed++
			fmt.Fprintf(env.stdout, "%s %s\n%s", env.styles.fail.Render("FAIL"), tc.label, diff)
		default:
			fmt.Fprintf(env.stdout, "%s %s\n", env.styles.pass.Render("PASS"), tc.label)
		}
	}

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, registry); err != nil {
			return fmt.Errorf("check: writing metrics: %w", err)
		}
	}
	if failed > 0 {
		return &exitError{code: 1, message: fmt.Sprintf("%d of %d checks failed", failed, len(cases))}
	}
	fmt.Fprintln(env.stdout, env.styles.muted.Render(fmt.Sprintf("%d checks passed", len(cases))))
	return nil
}

func checkCases(flags *pflag.FlagSet, expects []string) ([]checkCase, error) {
	if flags.NArg() == 0 {
		if len(expects) > 0 {
			return nil, &exitError{code: 2, message: "check: --expect needs a FILE"}
		}
		var cases []checkCase
		for _, scenario := range fixtures.Scenarios() {
			for _, ext := range fixtures.Extensions {
				data, err := scenario.Read(ext)
				if err != nil {
					return nil, err
				}
				format, err := config.FormatFromPath(scenario.File(ext))
				if err != nil {
					return nil, err
				}
				cases = append(cases, checkCase{
					label:  scenario.Name + ext,
					data:   data,
					format: format,
					expect: scenario.Expect,
				})
			}
		}
		return cases, nil
	}

	path, err := fileArg(flags)
	if err != nil {
		return nil, err
	}
	if len(expects) == 0 {
		return nil, &exitError{code: 2, message: "check: at least one --expect NAME=BOOL is required with a FILE"}
	}
	expect := make(map[string]bool, len(expects))
	for _, raw := range expects {
		name, value, ok := strings.Cut(raw, "=")
		if !ok || name == "" {
			return nil, &exitError{code: 2, message: fmt.Sprintf("check: invalid --expect %q, want NAME=BOOL", raw)}
		}
		headless, err := strconv.ParseBool(value)
		if err != nil {
			return nil, &exitError{code: 2, message: fmt.Sprintf("check: invalid --expect %q: %v", raw, err)}
		}
		expect[name] = headless
	}
	format, err := config.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return []checkCase{{label: path, format: format, expect: expect}}, nil
}

func runCheckCase(ctx context.Context, resolver *browser.Resolver, tc checkCase, loadOpts []config.LoadOption) (string, error) {
	var (
		file *config.File
		err  error
	)
	if tc.data != nil {
		file, err = config.Parse(tc.data, tc.format, loadOpts...)
	} else {
		file, err = config.LoadFile(tc.label, loadOpts...)
	}
	if err != nil {
		return "", err
	}
	resolution, err := resolver.Resolve(ctx, file.Browser)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(tc.expect))
	for name := range tc.expect {
		names = append(names, name)
	}
	sort.Strings(names)
	var want, got strings.Builder
	for _, name := range names {
		fmt.Fprintf(&want, "%s headless=%t\n", name, tc.expect[name])
		effective, ok := resolution.Instance(name)
		if !ok {
			fmt.Fprintf(&got, "%s missing\n", name)
			continue
		}
		fmt.Fprintf(&got, "%s headless=%t (from %s)\n", name, effective.Headless, effective.HeadlessSource)
	}
	return headlessDiff(want.String(), got.String(), tc.expect, resolution)
}

// headlessDiff compares only the instance and value; the source annotation is
// shown in the diff but never causes a mismatch on its own.
func headlessDiff(want, got string, expect map[string]bool, resolution browser.Resolution) (string, error) {
	mismatch := false
	for name, headless := range expect {
		effective, ok := resolution.Instance(name)
		if !ok || effective.Headless != headless {
			mismatch = true
			break
		}
	}
	if !mismatch {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "expected",
		ToFile:   "resolved",
		Context:  3,
	})
}

type fileSchema struct {
	Test struct {
		Browser browser.Config `json:"browser"`
	} `json:"test"`
}

func runSchema(_ context.Context, args []string, env *cliEnv) error {
	flags := newFlagSet("schema", env)
	output := flags.StringP("output", "o", "json", "output format: json or yaml")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	doc, err := opts.New(fileSchema{}, openapi.Option(
		openapi.WithOperation("/test/browser", "put", "Validate a browser test configuration"),
	)).Schema()
	if err != nil {
		return err
	}
	return writeOutput(env.stdout, *output, doc.Document)
}

func writeOutput(w io.Writer, format string, value any) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return &exitError{code: 2, message: fmt.Sprintf("unsupported output %q, want json or yaml", format)}
	}
}
