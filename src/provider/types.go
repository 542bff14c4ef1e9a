package provider

import (
	"fmt"
	"time"

	"clee/src/report"
)

// BuildSummary is one entry of a job's build list
type BuildSummary struct {
	Number    int
	Result    string
	Building  bool
	Cause     string
	Timestamp time.Time
}

// Parameter is a build parameter as recorded on a build
type Parameter struct {
	Name  string
	Value any
}

// Action is a build action; only parameter actions carry data we use
type Action struct {
	Parameters []Parameter
}

// Build represents a fetched build with its test report
type Build struct {
	Job      string
	Number   string
	URL      string
	Building bool
	Result   string
	Actions  []Action
	Report   report.RawReport
	// Err is set by batch fetches for a build that could not be retrieved.
	Err error
}

// TestResults returns the build in the form the report aggregator consumes.
func (b *Build) TestResults() report.BuildReport {
	return report.BuildReport{
		Number:   b.Number,
		Building: b.Building,
		Report:   b.Report,
		Err:      b.Err,
	}
}

// ParametersWith returns the parameters of the first action that defines the
// named parameter.
func (b *Build) ParametersWith(name string) (map[string]string, bool) {
	for _, action := range b.Actions {
		if len(action.Parameters) == 0 {
			continue
		}
		found := false
		for _, p := range action.Parameters {
			if p.Name == name {
				found = true
				break
			}
		}
		if !found {
			continue
		}

		params := make(map[string]string, len(action.Parameters))
		for _, p := range action.Parameters {
			params[p.Name] = formatValue(p.Value)
		}
		return params, true
	}
	return nil, false
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
