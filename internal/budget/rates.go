package budget

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ModelRate holds per-model token pricing in USD per million tokens.
type ModelRate struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// Rates maps model ids to pricing. Unknown models fall back to the
// "default" entry so spend is always counted, if imprecisely.
type Rates map[string]ModelRate

// DefaultRates returns compiled-in pricing for the models integrations
// commonly configure.
func DefaultRates() Rates {
	return Rates{
		"gpt-4o":                     {Input: 5.00, Output: 15.00},
		"gpt-4o-mini":                {Input: 0.15, Output: 0.60},
		"gemini-1.5-flash-001":       {Input: 0.075, Output: 0.30},
		"gemini-2.0-flash":           {Input: 0.10, Output: 0.40},
		"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
		"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		"default":                    {Input: 5.00, Output: 15.00},
	}
}

// LoadRates reads a YAML rate table, merged over the defaults.
func LoadRates(path string) (Rates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "budget: read rates %s", path)
	}
	var wrapper struct {
		Rates Rates `yaml:"rates"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "budget: parse rates")
	}
	rates := DefaultRates()
	for model, r := range wrapper.Rates {
		rates[model] = r
	}
	return rates, nil
}

// Cost computes the USD cost of one call.
func (r Rates) Cost(model string, promptTokens, completionTokens int) float64 {
	rate, ok := r[model]
	if !ok {
		rate = r["default"]
	}
	return (float64(promptTokens)/1e6)*rate.Input + (float64(completionTokens)/1e6)*rate.Output
}
