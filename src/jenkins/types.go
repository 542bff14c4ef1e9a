package jenkins

// Wire types for the Jenkins JSON API. Only the fields clee reads are declared;
// the tree parameter on each request trims the payload to match.

type jobList struct {
	Jobs []jobInfo `json:"jobs"`
}

type jobInfo struct {
	Name string `json:"name"`
}

type buildList struct {
	Builds []BuildInfo `json:"builds"`
}

// BuildInfo is a build as returned by /job/NAME/NUMBER/api/json.
type BuildInfo struct {
	Number    int      `json:"number"`
	URL       string   `json:"url"`
	Result    *string  `json:"result"`
	Building  bool     `json:"building"`
	Timestamp int64    `json:"timestamp"`
	Actions   []Action `json:"actions"`
}

// Action is a build action. Jenkins returns many action classes; causes and
// parameters are the only ones clee reads.
type Action struct {
	Class      string      `json:"_class,omitempty"`
	Causes     []Cause     `json:"causes,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

type Cause struct {
	ShortDescription string `json:"shortDescription"`
}

type Parameter struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// ResultString returns the build result, or "" while the build has none.
func (b BuildInfo) ResultString() string {
	if b.Result == nil {
		return ""
	}
	return *b.Result
}

// Cause returns the first recorded cause description.
func (b BuildInfo) Cause() string {
	for _, a := range b.Actions {
		for _, c := range a.Causes {
			if c.ShortDescription != "" {
				return c.ShortDescription
			}
		}
	}
	return ""
}
