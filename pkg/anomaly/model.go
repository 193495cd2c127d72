/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: model.go
Description: Autoencoder model for anomaly detection. A conventional
single-hidden-layer feed-forward network trained to reconstruct normal
campaign metric vectors; the tensor math is delegated entirely to gonum.
High reconstruction error marks a vector the network has not seen the likes
of during training.
*/

package anomaly

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Autoencoder is a sigmoid feed-forward network with one hidden layer,
// trained by stochastic gradient descent to reproduce its input
type Autoencoder struct {
	inputDim  int
	hiddenDim int

	w1 *mat.Dense    // hiddenDim x inputDim
	b1 *mat.VecDense // hiddenDim
	w2 *mat.Dense    // inputDim x hiddenDim
	b2 *mat.VecDense // inputDim
}

// NewAutoencoder creates an autoencoder with small random weights. The seed
// makes training reproducible.
func NewAutoencoder(inputDim, hiddenDim int, seed int64) *Autoencoder {
	rng := rand.New(rand.NewSource(seed))

	randomDense := func(rows, cols int) *mat.Dense {
		data := make([]float64, rows*cols)
		for i := range data {
			data[i] = rng.NormFloat64() * 0.1
		}
		return mat.NewDense(rows, cols, data)
	}

	return &Autoencoder{
		inputDim:  inputDim,
		hiddenDim: hiddenDim,
		w1:        randomDense(hiddenDim, inputDim),
		b1:        mat.NewVecDense(hiddenDim, nil),
		w2:        randomDense(inputDim, hiddenDim),
		b2:        mat.NewVecDense(inputDim, nil),
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// applySigmoid maps the vector through the sigmoid in place
func applySigmoid(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, sigmoid(v.AtVec(i)))
	}
}

// forward runs one pass and returns the hidden activation and the
// reconstruction
func (a *Autoencoder) forward(x *mat.VecDense) (hidden, output *mat.VecDense) {
	hidden = mat.NewVecDense(a.hiddenDim, nil)
	hidden.MulVec(a.w1, x)
	hidden.AddVec(hidden, a.b1)
	applySigmoid(hidden)

	output = mat.NewVecDense(a.inputDim, nil)
	output.MulVec(a.w2, hidden)
	output.AddVec(output, a.b2)
	applySigmoid(output)
	return hidden, output
}

// Train fits the network to the samples with plain SGD and mean squared
// error. Every sample must have the configured input dimension.
func (a *Autoencoder) Train(samples [][]float64, epochs int, learningRate float64) error {
	for i, s := range samples {
		if len(s) != a.inputDim {
			return fmt.Errorf("sample %d has dimension %d, expected %d", i, len(s), a.inputDim)
		}
	}

	for epoch := 0; epoch < epochs; epoch++ {
		for _, sample := range samples {
			x := mat.NewVecDense(a.inputDim, sample)
			hidden, output := a.forward(x)

			// Output layer delta: (a2 - x) * a2 * (1 - a2)
			delta2 := mat.NewVecDense(a.inputDim, nil)
			for i := 0; i < a.inputDim; i++ {
				out := output.AtVec(i)
				delta2.SetVec(i, (out-x.AtVec(i))*out*(1-out))
			}

			// Hidden layer delta: (w2^T delta2) * a1 * (1 - a1)
			delta1 := mat.NewVecDense(a.hiddenDim, nil)
			delta1.MulVec(a.w2.T(), delta2)
			for i := 0; i < a.hiddenDim; i++ {
				h := hidden.AtVec(i)
				delta1.SetVec(i, delta1.AtVec(i)*h*(1-h))
			}

			// Gradient steps: W -= lr * delta outer activation
			var gradW2 mat.Dense
			gradW2.Outer(learningRate, delta2, hidden)
			a.w2.Sub(a.w2, &gradW2)

			var gradW1 mat.Dense
			gradW1.Outer(learningRate, delta1, x)
			a.w1.Sub(a.w1, &gradW1)

			a.b2.AddScaledVec(a.b2, -learningRate, delta2)
			a.b1.AddScaledVec(a.b1, -learningRate, delta1)
		}
	}
	return nil
}

// ReconstructionError returns the mean squared error between the input and
// its reconstruction
func (a *Autoencoder) ReconstructionError(sample []float64) (float64, error) {
	if len(sample) != a.inputDim {
		return 0, fmt.Errorf("sample has dimension %d, expected %d", len(sample), a.inputDim)
	}

	x := mat.NewVecDense(a.inputDim, sample)
	_, output := a.forward(x)

	var sum float64
	for i := 0; i < a.inputDim; i++ {
		diff := output.AtVec(i) - x.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(a.inputDim), nil
}
