package fetch

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v4"

	service "github.com/okian/bnet/internal/app"
)

// batchFile is the YAML document accepted by -batch:
//
//	calls:
//	  - endpoint: realm
//	    params: [tarren-mill]
type batchFile struct {
	Calls []service.Call `yaml:"calls"`
}

// LoadBatch reads the calls listed in a YAML batch file.
func LoadBatch(path string) ([]service.Call, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBatchFile, err)
	}
	return ParseBatch(data)
}

// ParseBatch decodes a YAML batch document.
func ParseBatch(data []byte) ([]service.Call, error) {
	var doc batchFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBatchFile, err)
	}
	if len(doc.Calls) == 0 {
		return nil, fmt.Errorf("%w: no calls", ErrBatchFile)
	}
	for i, c := range doc.Calls {
		if strings.TrimSpace(c.Endpoint) == "" {
			return nil, fmt.Errorf("%w: call %d has no endpoint", ErrBatchFile, i)
		}
	}
	return doc.Calls, nil
}
