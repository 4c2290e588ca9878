package app

import (
	"fmt"
	"strings"

	"vision-diagnostics/internal/domain/entity"
)

// FormatReport собирает текст отчёта для сообщения в чат.
func FormatReport(record *entity.DiagnosisRecord) string {
	report := record.Report
	var b strings.Builder

	fmt.Fprintf(&b, "Report %s\n\n", record.ID)
	b.WriteString(report.OverallSummary)
	b.WriteString("\n")

	for i, a := range report.IndividualAnalyses {
		fmt.Fprintf(&b, "\n📷 %d. %s\n%s\n", i+1, a.FileName, a.OverallDescription)
		for _, issue := range a.PrimaryIssues {
			fmt.Fprintf(&b, "  • %s\n", issue)
		}
	}

	if len(report.CommonIssues) > 0 {
		fmt.Fprintf(&b, "\nCommon issues: %s\n", strings.Join(report.CommonIssues, ", "))
	}

	for _, rc := range report.RootCauseAnalysis {
		fmt.Fprintf(&b, "\n🔎 %s (severity: %s, confidence %.0f%%)\n%s\n",
			rc.Category, rc.Severity, rc.Confidence*100, rc.Description)
	}

	b.WriteString("\n🛠 Action plan:\n")
	for _, s := range report.PrioritizedSolutions {
		fmt.Fprintf(&b, "%d. %s (cost %s, %s, effectiveness %.0f%%)\n",
			s.Priority, s.Title, s.EstimatedCost, s.TimeToImplement, s.EffectivenessScore*100)
	}

	if record.Narrative != "" {
		b.WriteString("\n💬 ")
		b.WriteString(record.Narrative)
		b.WriteString("\n")
	}

	return b.String()
}
