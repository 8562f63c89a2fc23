// Package stat implements the numeric primitives shared by the analyzers:
// moments, quantiles, correlation, simple regression and the distribution
// functions backing p-values and confidence intervals.
package stat

import (
	"errors"
	"math"
	"sort"
)

var ErrInsufficientData = errors.New("insufficient data")

func Sum(data []float64) float64 {
	var s float64
	for _, v := range data {
		s += v
	}
	return s
}

func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return Sum(data) / float64(len(data))
}

// Std is the sample standard deviation (n-1 denominator).
func Std(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}
	m := Mean(data)
	var ss float64
	for _, v := range data {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// PopStd is the population standard deviation (n denominator), used for
// z-scores.
func PopStd(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	m := Mean(data)
	var ss float64
	for _, v := range data {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

// Quantile interpolates linearly between order statistics, q in [0,1].
// The input need not be sorted.
func Quantile(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Skewness is the adjusted Fisher-Pearson coefficient, matching what
// dataframe libraries report. Zero when fewer than 3 points or no spread.
func Skewness(data []float64) float64 {
	n := float64(len(data))
	if n < 3 {
		return 0
	}
	m := Mean(data)
	var m2, m3 float64
	for _, v := range data {
		d := v - m
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}

// Kurtosis is the adjusted excess kurtosis. Zero when fewer than 4 points
// or no spread.
func Kurtosis(data []float64) float64 {
	n := float64(len(data))
	if n < 4 {
		return 0
	}
	m := Mean(data)
	var m2, m4 float64
	for _, v := range data {
		d := v - m
		m2 += d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}
	g2 := m4/(m2*m2) - 3
	return ((n-1)/((n-2)*(n-3)))*((n+1)*g2+6)
}

// Correlation is the Pearson coefficient of two equal-length series.
// Zero when either side has no spread.
func Correlation(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}
	mx, my := Mean(x), Mean(y)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// ZScores standardizes against the population deviation. A flat series
// yields all zeros.
func ZScores(data []float64) []float64 {
	scores := make([]float64, len(data))
	sd := PopStd(data)
	if sd == 0 {
		return scores
	}
	m := Mean(data)
	for i, v := range data {
		scores[i] = (v - m) / sd
	}
	return scores
}

// Regression holds a simple least-squares fit of y against x, with the
// two-sided p-value of the slope.
type Regression struct {
	Slope     float64
	Intercept float64
	R         float64
	PValue    float64
}

// LinReg fits y = a + b*x and tests the correlation with a t-test on
// n-2 degrees of freedom.
func LinReg(x, y []float64) (Regression, error) {
	n := len(x)
	if n != len(y) || n < 3 {
		return Regression{}, ErrInsufficientData
	}
	mx, my := Mean(x), Mean(y)
	var sxy, sxx float64
	for i := 0; i < n; i++ {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
	}
	if sxx == 0 {
		return Regression{}, ErrInsufficientData
	}

	r := Correlation(x, y)
	slope := sxy / sxx
	reg := Regression{
		Slope:     slope,
		Intercept: my - slope*mx,
		R:         r,
	}

	df := float64(n - 2)
	if 1-r*r <= 0 {
		reg.PValue = 0
		return reg, nil
	}
	t := r * math.Sqrt(df/(1-r*r))
	reg.PValue = 2 * StudentTSF(math.Abs(t), df)
	return reg, nil
}

// JarqueBera tests departure from normality via skewness and kurtosis.
// The statistic is asymptotically chi-squared with 2 degrees of freedom,
// whose survival function has the closed form exp(-x/2).
func JarqueBera(data []float64) (statistic, pValue float64, err error) {
	n := float64(len(data))
	if n < 4 {
		return 0, 0, ErrInsufficientData
	}
	m := Mean(data)
	var m2, m3, m4 float64
	for _, v := range data {
		d := v - m
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m3 /= n
	m4 /= n
	if m2 == 0 {
		return 0, 0, ErrInsufficientData
	}

	s := m3 / math.Pow(m2, 1.5)
	k := m4/(m2*m2) - 3
	jb := n / 6 * (s*s + k*k/4)
	return jb, math.Exp(-jb / 2), nil
}

// TCritical95 approximates the 97.5% quantile of Student's t via a
// Cornish-Fisher expansion around the normal quantile.
func TCritical95(df int) float64 {
	if df <= 0 {
		return math.NaN()
	}
	const z = 1.9599639845400545
	v := float64(df)
	z3 := z * z * z
	z5 := z3 * z * z
	z7 := z5 * z * z
	g1 := (z3 + z) / 4
	g2 := (5*z5 + 16*z3 + 3*z) / 96
	g3 := (3*z7 + 19*z5 + 17*z3 - 15*z) / 384
	return z + g1/v + g2/(v*v) + g3/(v*v*v)
}

// StudentTSF is the upper-tail probability P(T > t) for t >= 0.
func StudentTSF(t, df float64) float64 {
	if t < 0 {
		return 1 - StudentTSF(-t, df)
	}
	x := df / (df + t*t)
	return 0.5 * incompleteBeta(df/2, 0.5, x)
}

// incompleteBeta is the regularized incomplete beta I_x(a, b), evaluated
// with the Lentz continued fraction.
func incompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	la, _ := math.Lgamma(a + b)
	lb, _ := math.Lgamma(a)
	lc, _ := math.Lgamma(b)
	front := math.Exp(la - lb - lc + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		tiny          = 1e-300
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		delta := d * c
		h *= delta

		if math.Abs(delta-1) < epsilon {
			break
		}
	}

	return h
}
