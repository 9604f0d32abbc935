package fetch

import (
	"strings"
	"time"
)

// Config holds the options of one bnet-fetch invocation.
type Config struct {
	Endpoint   string        // Endpoint name for a single lookup
	Params     []string      // Parameters for a single lookup, in template order
	BatchFile  string        // YAML file listing calls; overrides Endpoint
	OutputFile string        // Destination for JSON output; stdout when empty
	Region     string        // Overrides the configured region
	Timeout    time.Duration // Overrides the configured per-request timeout
	Workers    int           // Overrides the configured concurrency limit
	LogFile    string        // Optional log file in addition to stderr
	LogFormat  string        // text, json or pretty
	List       bool          // Print the endpoint catalog instead of fetching
	Verbose    bool          // Enable debug logging
}

// ParamList collects a repeatable -param flag.
type ParamList []string

// String implements flag.Value.
func (p *ParamList) String() string {
	return strings.Join(*p, ",")
}

// Set implements flag.Value.
func (p *ParamList) Set(v string) error {
	*p = append(*p, v)
	return nil
}
