package classifier

import (
	"fmt"

	"github.com/nao1215/phishscan/internal/model"
)

// Score compares predicted labels against expected ones and returns
// per-label precision, recall, F1 and support together with accuracy and
// the unweighted mean F1. Ratios with a zero denominator are reported as 0.
func Score(want, got []model.Label) (*model.Evaluation, error) {
	if len(want) != len(got) {
		return nil, fmt.Errorf("%w: %d expected, %d predicted", ErrLengthMismatch, len(want), len(got))
	}

	eval := &model.Evaluation{}
	correct := 0
	for i := range want {
		if want[i] == got[i] {
			correct++
		}
	}
	if len(want) > 0 {
		eval.Accuracy = float64(correct) / float64(len(want))
	}

	var f1Sum float64
	for _, l := range model.Labels() {
		var tp, fp, fn int
		for i := range want {
			switch {
			case want[i] == l && got[i] == l:
				tp++
			case want[i] != l && got[i] == l:
				fp++
			case want[i] == l && got[i] != l:
				fn++
			}
		}

		m := model.LabelMetrics{
			Label:     l,
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			Support:   tp + fn,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		f1Sum += m.F1
		eval.Labels = append(eval.Labels, m)
	}
	eval.MacroF1 = f1Sum / float64(len(eval.Labels))

	return eval, nil
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}
