package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fixall/internal/analysis"
	"fixall/internal/diagfmt"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [directory]",
	Short: "List the built-in rules and their fixes",
	Long:  `List every built-in rule with its severity, fix keys and whether the workspace manifest enables it`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRules,
}

// ruleInfo is one row of `fixall rules`.
type ruleInfo struct {
	Code     string   `json:"code" yaml:"code"`
	Title    string   `json:"title" yaml:"title"`
	Severity string   `json:"severity" yaml:"severity"`
	Level    string   `json:"level" yaml:"level"`
	Keys     []string `json:"keys" yaml:"keys"`
	Enabled  bool     `json:"enabled" yaml:"enabled"`
}

func runRules(cmd *cobra.Command, args []string) error {
	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	s, err := openSession(cmd, targetDir(args), opts, false)
	if err != nil {
		return err
	}

	infos := collectRules(s.host)
	out := cmd.OutOrStdout()
	switch opts.format {
	case "json":
		return diagfmt.WriteJSON(out, infos)
	case "yaml":
		return diagfmt.WriteYAML(out, infos)
	}
	renderRulesPretty(out, infos, opts.color)
	return nil
}

func collectRules(host *analysis.Host) []ruleInfo {
	enabled := host.EnabledCodes()
	sevs := host.Severities()
	infos := make([]ruleInfo, 0, len(analysis.Rules()))
	for _, r := range analysis.Rules() {
		level := "document"
		if r.ProjectLevel() {
			level = "project"
		}
		infos = append(infos, ruleInfo{
			Code:     r.Code.ID(),
			Title:    r.Code.Title(),
			Severity: sevs[r.Code].String(),
			Level:    level,
			Keys:     append([]string(nil), r.Keys...),
			Enabled:  enabled.Has(r.Code),
		})
	}
	return infos
}

func renderRulesPretty(out io.Writer, infos []ruleInfo, useColor bool) {
	off := color.New(color.Faint)
	code := color.New(color.Bold)
	for _, c := range []*color.Color{off, code} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	for _, info := range infos {
		line := fmt.Sprintf("%s  %-8s %-8s %-40s %s",
			code.Sprint(info.Code), info.Severity, info.Level, info.Title, strings.Join(info.Keys, ", "))
		if !info.Enabled {
			line = off.Sprint(line + "  (disabled)")
		}
		fmt.Fprintln(out, line)
	}
}
