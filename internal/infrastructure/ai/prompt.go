package ai

import (
	"fmt"
	"strings"

	"vision-diagnostics/internal/domain/entity"
)

const systemPrompt = `You are a maintenance engineer reviewing an automated visual inspection of industrial equipment.
You receive findings computed from image statistics, not from a trained model, so treat them as hints.
Write a short plain-text explanation for the operator: what was found, how urgent it is, and what to do first.
Do not invent findings that are not in the input. Keep it under 200 words.`

// buildUserPrompt сжимает отчёт до списка фактов для модели.
func buildUserPrompt(report *entity.DiagnosticReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary: %s\n", report.OverallSummary)

	for i, a := range report.IndividualAnalyses {
		fmt.Fprintf(&b, "Image %d (%s): %s\n", i+1, a.FileName, a.OverallDescription)
		for _, issue := range a.PrimaryIssues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
	}
	if len(report.CommonIssues) > 0 {
		fmt.Fprintf(&b, "Issue frequency: %s\n", strings.Join(report.CommonIssues, "; "))
	}
	for _, rc := range report.RootCauseAnalysis {
		fmt.Fprintf(&b, "Root cause: %s (severity %s, confidence %.2f, images %v)\n",
			rc.Category, rc.Severity, rc.Confidence, oneBased(rc.AffectedImages))
	}
	for _, s := range report.PrioritizedSolutions {
		fmt.Fprintf(&b, "Plan %d: %s [%s, cost %s]\n", s.Priority, s.Title, s.TimeToImplement, s.EstimatedCost)
	}
	return b.String()
}

func oneBased(indices []int) []int {
	out := make([]int, len(indices))
	for i, v := range indices {
		out[i] = v + 1
	}
	return out
}
