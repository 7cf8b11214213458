package templates

// Kind names the physical field a product describes, as told apart by the
// JMA products this package is used with.
type Kind int

const (
	KindUnknown Kind = iota
	KindTemperature
	KindMinTemperature
	KindMaxTemperature
	KindWeather
	KindTotalPrecipitation
	KindSnowDepth
	KindNowcastIntensityAnalysis
	KindNowcastIntensityForecast
	KindNowcastIntensityAnalysis5Min
	KindNowcastIntensityForecast5Min
	KindNowcastError
)

var kindNames = [...]string{
	KindUnknown:                      "Unknown",
	KindTemperature:                  "Temperature",
	KindMinTemperature:               "Min temperature",
	KindMaxTemperature:               "Max temperature",
	KindWeather:                      "Weather",
	KindTotalPrecipitation:           "Total precipitation",
	KindSnowDepth:                    "Snow depth",
	KindNowcastIntensityAnalysis:     "High-Res Nowcast Intensity Analysis",
	KindNowcastIntensityForecast:     "High-Res Nowcast Intensity Forecast",
	KindNowcastIntensityAnalysis5Min: "High-Res Nowcast Intensity Analysis (5-min)",
	KindNowcastIntensityForecast5Min: "High-Res Nowcast Intensity Forecast (5-min)",
	KindNowcastError:                 "High-Res Nowcast Error",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

type statisticalKey struct {
	category, number, process uint8
}

var statisticalKinds = map[statisticalKey]Kind{
	{191, 192, 196}: KindWeather,
	{1, 204, 1}:     KindTotalPrecipitation,
	{1, 233, 1}:     KindSnowDepth,
	{0, 0, 0}:       KindTemperature,
	{0, 0, 3}:       KindMinTemperature,
	{0, 0, 2}:       KindMaxTemperature,
}

// backgroundProcessNowcast is the JMA background generating process of the
// high-resolution precipitation nowcast.
const backgroundProcessNowcast = 151

type nowcastKey struct {
	category, number, generatingProcess, background uint8
}

var nowcastKinds = map[nowcastKey]Kind{
	{1, 8, 0, backgroundProcessNowcast}:   KindNowcastIntensityAnalysis5Min,
	{1, 8, 2, backgroundProcessNowcast}:   KindNowcastIntensityForecast5Min,
	{1, 203, 0, backgroundProcessNowcast}: KindNowcastIntensityAnalysis,
	{1, 203, 2, backgroundProcessNowcast}: KindNowcastIntensityForecast,
	{1, 214, 0, backgroundProcessNowcast}: KindNowcastError,
}

// Classify returns the kind of field t describes. Template 4.0 is keyed on
// (category, number), 4.8 on (category, number, first statistical process)
// and 4.50011 on (category, number, generating process, background
// process).
func Classify(t ProductTemplate) Kind {
	switch t := t.(type) {
	case *AnalysisForecast:
		if t.ParameterCategory == 0 && t.ParameterNumber == 0 {
			return KindTemperature
		}
	case *StatisticalProduct:
		process, ok := t.StatisticalProcess()
		if !ok {
			return KindUnknown
		}
		return statisticalKinds[statisticalKey{t.ParameterCategory, t.ParameterNumber, process}]
	case *LocalStatisticalProduct:
		return nowcastKinds[nowcastKey{t.ParameterCategory, t.ParameterNumber, t.TypeOfGeneratingProcess, t.BackgroundProcess}]
	}
	return KindUnknown
}
