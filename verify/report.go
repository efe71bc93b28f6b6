package verify

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/pimgen/backend"
	"github.com/sarchlab/pimgen/isa"
)

// VerificationReport represents a complete verification report
type VerificationReport struct {
	Kernel         string
	Dims           backend.Dims
	Instructions   int
	LintIssues     []Issue
	StructIssues   []Issue
	EncodingIssues []Issue
	LimitIssues    []Issue
	Histogram      map[isa.Opcode]int
	Arch           *ArchInfo
}

// GenerateReport runs the lint checks and collects them in a report
func GenerateReport(kernel string, stream *isa.Stream, d backend.Dims, arch *ArchInfo) *VerificationReport {
	report := &VerificationReport{
		Kernel:       kernel,
		Dims:         d,
		Instructions: stream.Len(),
		Histogram:    stream.Histogram(),
		Arch:         arch,
	}

	report.LintIssues = RunLint(stream, d, arch)

	for _, issue := range report.LintIssues {
		switch issue.Type {
		case IssueStruct:
			report.StructIssues = append(report.StructIssues, issue)
		case IssueEncoding:
			report.EncodingIssues = append(report.EncodingIssues, issue)
		case IssueLimit:
			report.LimitIssues = append(report.LimitIssues, issue)
		}
	}

	return report
}

// Passed reports whether the stream has no STRUCT or LIMIT issues.
// Encoding issues are warnings: the stream is still well formed.
func (r *VerificationReport) Passed() bool {
	return len(r.StructIssues) == 0 && len(r.LimitIssues) == 0
}

// WriteReport writes a formatted report to a writer
func (r *VerificationReport) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "KERNEL %s VERIFICATION REPORT\n", strings.ToUpper(r.Kernel))
	fmt.Fprintln(w, separator)

	fmt.Fprintf(w, "\n✓ %d instructions for %s\n", r.Instructions, r.Dims)

	ops := make([]isa.Opcode, 0, len(r.Histogram))
	for op := range r.Histogram {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	hist := table.NewWriter()
	hist.AppendHeader(table.Row{"Opcode", "Count"})
	for _, op := range ops {
		hist.AppendRow(table.Row{op.String(), r.Histogram[op]})
	}
	fmt.Fprintln(w, hist.Render())

	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "STATIC LINT CHECKS")
	fmt.Fprintln(w, separator)

	if len(r.LintIssues) == 0 {
		fmt.Fprintln(w, "✓ No lint issues found!")
	} else {
		fmt.Fprintf(w, "⚠ Found %d lint issues:\n\n", len(r.LintIssues))
		writeIssues(w, "STRUCT ISSUES", r.StructIssues)
		writeIssues(w, "LIMIT ISSUES", r.LimitIssues)
		writeIssues(w, "ENCODING ISSUES", r.EncodingIssues)
	}

	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "VERIFICATION SUMMARY")
	fmt.Fprintln(w, separator)

	fmt.Fprintf(w, "Lint Result: %d issues detected (%d STRUCT, %d LIMIT, %d ENCODING)\n",
		len(r.LintIssues), len(r.StructIssues), len(r.LimitIssues), len(r.EncodingIssues))

	if r.Passed() {
		fmt.Fprintln(w, "✓ KERNEL PASSED ALL CHECKS")
	} else {
		fmt.Fprintln(w, "⚠ KERNEL FAILED VERIFICATION")
	}

	fmt.Fprintln(w)
}

func writeIssues(w io.Writer, title string, issues []Issue) {
	if len(issues) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s (%d)", title, len(issues)))
	t.AppendHeader(table.Row{"#", "Inst", "Phase", "Message"})

	for i, issue := range issues {
		idx := "-"
		if issue.Index >= 0 {
			idx = fmt.Sprint(issue.Index)
		}

		t.AppendRow(table.Row{i + 1, idx, issue.Phase, issue.Message})
	}

	fmt.Fprintln(w, t.Render())
}

// SaveReportToFile saves the report to a file
func (r *VerificationReport) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r.WriteReport(file)
	return nil
}
