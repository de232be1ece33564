package domain

// QueryCategory is the kind of information a user message asks for.
type QueryCategory string

const (
	CategoryPriceInformation   QueryCategory = "price_information"
	CategoryTradingStrategy    QueryCategory = "trading_strategy"
	CategoryTechnicalAnalysis  QueryCategory = "technical_analysis"
	CategoryGeneralInformation QueryCategory = "general_information"
	CategoryRecentNews         QueryCategory = "recent_news"
)

// String returns the string representation of QueryCategory.
func (c QueryCategory) String() string {
	return string(c)
}

// IsValid checks if the category is one of the closed set.
func (c QueryCategory) IsValid() bool {
	switch c {
	case CategoryPriceInformation, CategoryTradingStrategy, CategoryTechnicalAnalysis,
		CategoryGeneralInformation, CategoryRecentNews:
		return true
	}
	return false
}

// Label returns the human phrase used when describing the category to a language model.
func (c QueryCategory) Label() string {
	switch c {
	case CategoryPriceInformation:
		return "price information"
	case CategoryTradingStrategy:
		return "trading strategy"
	case CategoryTechnicalAnalysis:
		return "technical analysis"
	case CategoryRecentNews:
		return "recent news and developments"
	default:
		return "general information"
	}
}

// Intent is a finer-grained question type than QueryCategory.
type Intent string

const (
	IntentPricePrediction Intent = "price_prediction"
	IntentTradingStrategy Intent = "trading_strategy"
	IntentTimingAdvice    Intent = "timing_advice"
	IntentRiskAssessment  Intent = "risk_assessment"
	IntentChartAnalysis   Intent = "chart_analysis"
	IntentNewsUpdate      Intent = "news_update"
	IntentGeneralInfo     Intent = "general_info"
	IntentUnknown         Intent = "unknown"
)

// String returns the string representation of Intent.
func (i Intent) String() string {
	return string(i)
}
