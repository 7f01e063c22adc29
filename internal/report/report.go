// Package report turns aggregated complexity statistics into renderable
// reports.
package report

import (
	"fmt"
	"strconv"

	"github.com/pygenii/genii/internal/output"
	"github.com/pygenii/genii/pkg/analyzer/complexity"
	"github.com/pygenii/genii/pkg/stats"
)

// Report messages and table titles.
const (
	MsgNoFiles     = "No python files to parse!"
	MsgAllGood     = "This code looks all good!"
	TitleCritical  = "Critical functions"
	TitleReport    = "Complexity Report"
	TitleSummary   = "Total cumulative statistics"
	TitleModules   = "Module statistics"
	TitleSpread    = "Complexity distribution"
	emptyCellValue = "-"
)

// Options selects the optional tables.
type Options struct {
	// Threshold is the complexity above which functions are critical.
	Threshold    int
	Complexity   bool
	Summary      bool
	Modules      bool
	Distribution bool
}

// All enables every optional table.
func (o Options) All() Options {
	o.Complexity = true
	o.Summary = true
	o.Modules = true
	o.Distribution = true
	return o
}

// Data is the structured form of a report, used for JSON and TOON output.
type Data struct {
	Message      string                 `json:"message,omitempty" toon:"message,omitempty"`
	Threshold    int                    `json:"threshold" toon:"threshold"`
	Critical     []complexity.Record    `json:"critical" toon:"critical"`
	Complexity   []complexity.Record    `json:"complexity,omitempty" toon:"complexity,omitempty"`
	Summary      []stats.SummaryRow     `json:"summary,omitempty" toon:"summary,omitempty"`
	Modules      []stats.ModuleRow      `json:"modules,omitempty" toon:"modules,omitempty"`
	Distribution *stats.Distribution    `json:"distribution,omitempty" toon:"distribution,omitempty"`
	Failed       []complexity.FileError `json:"failed,omitempty" toon:"failed,omitempty"`
}

// Build assembles the report for s. The critical-functions result (or a
// message standing in for it) always comes first; the optional tables follow
// in the order complexity, summary, modules, distribution. Nothing but the
// "no files" message is produced when s holds no records.
func Build(s *stats.Stats, failed []complexity.FileError, opts Options) *output.Report {
	data := &Data{Threshold: opts.Threshold, Critical: []complexity.Record{}, Failed: failed}
	r := &output.Report{Data: data}

	if s.Len() == 0 {
		data.Message = MsgNoFiles
		r.Sections = append(r.Sections, output.NewMessage(output.LevelWarning, MsgNoFiles))
		return r
	}

	if critical := s.Critical(opts.Threshold); len(critical) == 0 {
		data.Message = MsgAllGood
		r.Sections = append(r.Sections, output.NewMessage(output.LevelSuccess, MsgAllGood))
	} else {
		data.Critical = critical
		r.Sections = append(r.Sections, recordTable(TitleCritical, critical))
	}

	if opts.Complexity {
		data.Complexity = s.ComplexityTable()
		r.Sections = append(r.Sections, recordTable(TitleReport, data.Complexity))
	}
	if opts.Summary {
		data.Summary = s.SummaryRows()
		r.Sections = append(r.Sections, summaryTable(data.Summary))
	}
	if opts.Modules {
		data.Modules = s.ModuleTable()
		r.Sections = append(r.Sections, moduleTable(data.Modules))
	}
	if opts.Distribution {
		d := s.Distribution()
		data.Distribution = &d
		r.Sections = append(r.Sections, distributionTable(d))
	}
	return r
}

func recordTable(title string, records []complexity.Record) *output.Table {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{string(rec.Kind), rec.Name, strconv.Itoa(rec.Complexity)}
	}
	return output.NewTable(title, []string{"Type", "Name", "Complexity"}, rows, records)
}

func summaryTable(summary []stats.SummaryRow) *output.Table {
	rows := make([][]string, len(summary))
	for i, row := range summary {
		rows[i] = []string{string(row.Kind), strconv.Itoa(row.Count), strconv.Itoa(row.Sum)}
	}
	return output.NewTable(TitleSummary, []string{"Type", "Count", "Complexity"}, rows, summary)
}

// moduleTable renders the columns as Name Count Sum Min Avg Max. A module
// without functions shows a zero count and dashes.
func moduleTable(modules []stats.ModuleRow) *output.Table {
	rows := make([][]string, len(modules))
	for i, m := range modules {
		if m.Empty {
			rows[i] = []string{m.Name, "0", emptyCellValue, emptyCellValue, emptyCellValue, emptyCellValue}
			continue
		}
		rows[i] = []string{
			m.Name,
			strconv.Itoa(m.Count),
			strconv.Itoa(m.Sum),
			strconv.Itoa(m.Min),
			strconv.Itoa(m.Avg),
			strconv.Itoa(m.Max),
		}
	}
	return output.NewTable(TitleModules, []string{"Name", "Count", "Sum", "Min", "Avg", "Max"}, rows, modules)
}

func distributionTable(d stats.Distribution) *output.Table {
	rows := [][]string{
		{"Count", strconv.Itoa(d.Count)},
		{"Mean", fmt.Sprintf("%.2f", d.Mean)},
		{"StdDev", fmt.Sprintf("%.2f", d.StdDev)},
		{"Median", fmt.Sprintf("%.0f", d.Median)},
		{"P90", fmt.Sprintf("%.0f", d.P90)},
		{"Max", fmt.Sprintf("%.0f", d.Max)},
	}
	return output.NewTable(TitleSpread, []string{"Metric", "Value"}, rows, d)
}
