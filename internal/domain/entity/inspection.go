package entity

// ImageAnalysis хранит итог анализа одного изображения.
type ImageAnalysis struct {
	FileName           string           `json:"fileName"`
	FileSize           int64            `json:"fileSize"`
	AnalysisResults    []RegionAnalysis `json:"analysisResults"`    // ячейки сетки построчно
	OverallDescription string           `json:"overallDescription"` // сводка по изображению
	PrimaryIssues      []string         `json:"primaryIssues"`      // находки по ячейкам
	Recommendations    []string         `json:"recommendations"`    // уникальные решения
}

// Anomalies возвращает ячейки, классифицированные не как норма.
func (a *ImageAnalysis) Anomalies() []RegionAnalysis {
	out := make([]RegionAnalysis, 0, len(a.AnalysisResults))
	for _, r := range a.AnalysisResults {
		if r.IsAnomaly() {
			out = append(out, r)
		}
	}
	return out
}

// HasSeverity сообщает, есть ли ячейка с заданным уровнем риска.
func (a *ImageAnalysis) HasSeverity(s Severity) bool {
	for _, r := range a.AnalysisResults {
		if r.IsAnomaly() && r.Severity == s {
			return true
		}
	}
	return false
}

// RootCause — гипотеза о первопричине по нескольким изображениям.
type RootCause struct {
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	AffectedImages []int    `json:"affectedImages"`
	Severity       Severity `json:"severity"`
	Confidence     float64  `json:"confidence"`
}

// Cost — оценка стоимости мероприятия.
type Cost string

const (
	CostLow    Cost = "low"
	CostMedium Cost = "medium"
	CostHigh   Cost = "high"
)

// Horizon — срок внедрения мероприятия.
type Horizon string

const (
	HorizonImmediate Horizon = "immediate"
	HorizonShortTerm Horizon = "short-term"
	HorizonLongTerm  Horizon = "long-term"
)

// PrioritizedSolution — пункт плана устранения.
type PrioritizedSolution struct {
	Priority           int      `json:"priority"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	EstimatedCost      Cost     `json:"estimatedCost"`
	TimeToImplement    Horizon  `json:"timeToImplement"`
	EffectivenessScore float64  `json:"effectivenessScore"`
	AffectedIssues     []string `json:"affectedIssues"`
}

// DiagnosticReport — полный результат одного запуска диагностики.
type DiagnosticReport struct {
	IndividualAnalyses   []ImageAnalysis       `json:"individualAnalyses"`
	OverallSummary       string                `json:"overallSummary"`
	CommonIssues         []string              `json:"commonIssues"`
	RootCauseAnalysis    []RootCause           `json:"rootCauseAnalysis"`
	PrioritizedSolutions []PrioritizedSolution `json:"prioritizedSolutions"`
}

// AnomalyCount возвращает общее число аномальных ячеек.
func (r *DiagnosticReport) AnomalyCount() int {
	n := 0
	for i := range r.IndividualAnalyses {
		n += len(r.IndividualAnalyses[i].Anomalies())
	}
	return n
}

// AiDescription — текстовое описание дефектов от ИИ.
type AiDescription struct {
	Text  string
	Model string
}
