package entity

// Rect — прямоугольная область изображения
type Rect struct {
	X      int `json:"x"`      // координата X левого верхнего угла
	Y      int `json:"y"`      // координата Y левого верхнего угла
	Width  int `json:"width"`  // ширина области в пикселях
	Height int `json:"height"` // высота области в пикселях
}

// Area возвращает площадь области
func (r Rect) Area() int {
	return r.Width * r.Height
}

// Empty сообщает, что у области нет ни одного пикселя
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within проверяет, что область целиком лежит внутри w×h
func (r Rect) Within(w, h int) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= w && r.Y+r.Height <= h
}

// AnomalyType — класс аномалии в области.
type AnomalyType string

const (
	AnomalyCorrosion AnomalyType = "corrosion"
	AnomalyCrack     AnomalyType = "crack"
	AnomalyLoose     AnomalyType = "loose"
	AnomalyWear      AnomalyType = "wear"
	AnomalyLeak      AnomalyType = "leak"
	AnomalyOverheat  AnomalyType = "overheat"
	AnomalyNormal    AnomalyType = "normal"
	AnomalyOther     AnomalyType = "other" // размытие или лёгкое изменение цвета
)

// Severity — уровень риска.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ChannelAverages — средние значения каналов.
type ChannelAverages struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// RegionFeatures — статистика пикселей одной области.
type RegionFeatures struct {
	Region                Rect            `json:"region"`
	PixelCount            int             `json:"pixelCount"`
	RedPixelRatio         float64         `json:"redPixelRatio"`
	DarkPixelRatio        float64         `json:"darkPixelRatio"`
	AverageBrightness     float64         `json:"averageBrightness"`
	ChannelAverages       ChannelAverages `json:"perChannelAverages"`
	TextureVariationRatio float64         `json:"textureVariationRatio"`
	MetallicRatio         float64         `json:"metallicRatio"`
}

// Contrast — |Σred − Σblue| / pixelCount.
func (f RegionFeatures) Contrast() float64 {
	d := f.ChannelAverages.Red - f.ChannelAverages.Blue
	if d < 0 {
		return -d
	}
	return d
}

// RegionAnalysis — результат классификации одной ячейки сетки.
type RegionAnalysis struct {
	Region              Rect        `json:"region"`
	Description         string      `json:"description"`
	DetailedDescription string      `json:"detailedDescription"`
	Confidence          float64     `json:"confidence"`
	AnomalyType         AnomalyType `json:"anomalyType"`
	Severity            Severity    `json:"severity"`
	Solution            string      `json:"solution"`
}

// IsAnomaly сообщает, что область не в норме.
func (a RegionAnalysis) IsAnomaly() bool {
	return a.AnomalyType != AnomalyNormal
}
