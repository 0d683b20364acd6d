package linear

// Option は LinearRegression の設定オプション
type Option func(*LinearRegression)

// WithFitIntercept は切片を推定するかどうかを設定する
func WithFitIntercept(fit bool) Option {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// WithRcond は特異値を0とみなす相対閾値を設定する
func WithRcond(rcond float64) Option {
	return func(lr *LinearRegression) {
		lr.rcond = rcond
	}
}
