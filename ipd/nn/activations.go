package nn

import "math"

// Sigmoid is the logistic function 1 / (1 + e^-x). The OUTPUT node squashes
// its value with it so a Brain always answers in (0, 1).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Tanh squashes the product carried by a connection leaving a non-INPUT node.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}
