package strategy

import (
	"math"

	"raccoonbt/model"
)

// Prediction : 외부 모델이 미리 계산한 라벨 컬럼을 그대로 시그널로 바꾼다
// label > 0 매수, label < 0 숏(AllowShort) 또는 청산, 0 은 관망
type Prediction struct {
	LabelColumn      string
	ConfidenceColumn string
	// confidence 가 이 값보다 낮으면 관망
	MinConfidence float64
	AllowShort    bool
	Warmup        int
}

func NewPrediction(labelColumn string) *Prediction {
	if labelColumn == "" {
		labelColumn = "prediction"
	}
	return &Prediction{LabelColumn: labelColumn}
}

func (p *Prediction) Name() string {
	return "prediction_" + p.LabelColumn
}

func (p *Prediction) WarmupPeriod() int {
	return p.Warmup
}

func (p *Prediction) RequiredColumns() []string {
	if p.ConfidenceColumn != "" {
		return []string{p.LabelColumn, p.ConfidenceColumn}
	}
	return []string{p.LabelColumn}
}

func (p *Prediction) OnBar(df *model.Dataframe) model.Signal {
	label := df.Metadata[p.LabelColumn].Last(0)
	if p.ConfidenceColumn != "" {
		confidence := df.Metadata[p.ConfidenceColumn].Last(0)
		if math.IsNaN(confidence) || confidence < p.MinConfidence {
			return model.HoldSignal()
		}
	}

	switch {
	case label > 0:
		return model.EnterLong("model predicts up")
	case label < 0 && p.AllowShort:
		return model.EnterShort("model predicts down")
	case label < 0:
		return model.ExitSignal("model predicts down")
	}
	return model.HoldSignal()
}
