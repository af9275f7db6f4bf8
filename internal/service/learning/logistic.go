package learning

import (
	"context"
	"math"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
)

type sample struct {
	x []float64
	y float64
}

type fitResult struct {
	weights  []float64
	bias     float64
	epochs   int
	logLoss  float64
	accuracy float64
}

// fitLogistic runs full-batch gradient descent with L2 regularisation from
// zero weights, so the same samples always give the same model. The
// context is checked before every epoch.
func fitLogistic(ctx context.Context, samples []sample, cfg TrainingConfig) (fitResult, error) {
	dims := len(samples[0].x)
	w := make([]float64, dims)
	b := 0.0
	n := float64(len(samples))

	prev := math.Inf(1)
	epoch := 0
	for epoch < cfg.Epochs {
		if err := ctx.Err(); err != nil {
			return fitResult{}, errors.Wrap(err, "training cancelled")
		}
		epoch++

		gw := make([]float64, dims)
		gb := 0.0
		for _, s := range samples {
			diff := feedback.Sigmoid(dot(w, s.x)+b) - s.y
			for j, v := range s.x {
				gw[j] += diff * v
			}
			gb += diff
		}
		for j := range w {
			w[j] -= cfg.LearningRate * (gw[j]/n + cfg.L2*w[j])
		}
		b -= cfg.LearningRate * gb / n

		loss := logLoss(samples, w, b)
		if math.Abs(prev-loss) < cfg.Tolerance {
			break
		}
		prev = loss
	}

	return fitResult{
		weights:  w,
		bias:     b,
		epochs:   epoch,
		logLoss:  logLoss(samples, w, b),
		accuracy: accuracy(samples, w, b),
	}, nil
}

func dot(w, x []float64) float64 {
	z := 0.0
	for i := range w {
		z += w[i] * x[i]
	}
	return z
}

func logLoss(samples []sample, w []float64, b float64) float64 {
	const eps = 1e-12
	total := 0.0
	for _, s := range samples {
		p := feedback.Sigmoid(dot(w, s.x) + b)
		p = math.Min(math.Max(p, eps), 1-eps)
		total -= s.y*math.Log(p) + (1-s.y)*math.Log(1-p)
	}
	return total / float64(len(samples))
}

func accuracy(samples []sample, w []float64, b float64) float64 {
	correct := 0
	for _, s := range samples {
		predicted := 0.0
		if feedback.Sigmoid(dot(w, s.x)+b) >= 0.5 {
			predicted = 1
		}
		if predicted == s.y {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}
