// Package bmi computes body mass index from the free-text weight and
// height fields captured with the visit vitals.
package bmi

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result holds the computed BMI, formatted to one decimal place, and its
// classification.
type Result struct {
	Value  string `json:"value"`
	Status string `json:"status"`
}

// Classification bands. Overweight is the half-open interval [25, 30);
// 30 and above is Obese.
const (
	StatusUnderweight = "Underweight"
	StatusNormal      = "Normal"
	StatusOverweight  = "Overweight"
	StatusObese       = "Obese"
)

// Calculate returns the BMI for a weight in kilograms and a height in
// centimeters. ok is false when either input is missing, non-numeric or
// not positive.
func Calculate(weightKg, heightCm string) (Result, bool) {
	weight, err := strconv.ParseFloat(strings.TrimSpace(weightKg), 64)
	if err != nil || weight <= 0 {
		return Result{}, false
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(heightCm), 64)
	if err != nil || height <= 0 {
		return Result{}, false
	}

	meters := height / 100
	value := weight / (meters * meters)
	rounded := math.Round(value*10) / 10

	status := StatusObese
	switch {
	case rounded < 18.5:
		status = StatusUnderweight
	case rounded < 25:
		status = StatusNormal
	case rounded < 30:
		status = StatusOverweight
	}

	return Result{
		Value:  fmt.Sprintf("%.1f", rounded),
		Status: status,
	}, true
}
