package events

// StartEvent is emitted once the input report has been parsed.
type StartEvent struct {
	BaseEvent
	Input           string        `json:"input"`
	FormatVersion   int           `json:"format_version"`
	CppcheckVersion string        `json:"cppcheck_version,omitempty"`
	TotalIssues     int           `json:"total_issues"`
	Config          MappingConfig `json:"config"`
}

// MappingConfig records the JUnit mapping options of the run.
type MappingConfig struct {
	Grouping    string `json:"grouping"`
	Information string `json:"information"`
	Element     string `json:"element"`
	Layout      string `json:"layout"`
	Strict      bool   `json:"strict"`
	Baseline    string `json:"baseline,omitempty"`
	PathBase    string `json:"path_base,omitempty"`
}
