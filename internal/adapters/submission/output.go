package submission

import (
	"fmt"
	"os"
	"strings"
)

// Output is one key=value pair exported to the workflow.
type Output struct {
	Key   string
	Value string
}

// ExportOutputs appends the pairs to the file named by the configured
// output variable. When the variable is unset it does nothing.
func (g *Gatekeeper) ExportOutputs(outputs ...Output) error {
	path := g.getenv(g.outputEnv)
	if path == "" {
		return nil
	}
	return AppendOutputs(path, outputs...)
}

// AppendOutputs writes key=value lines to path, creating it if needed.
func AppendOutputs(path string, outputs ...Output) (err error) {
	var b strings.Builder
	for _, o := range outputs {
		if strings.ContainsAny(o.Key, "=\n") || strings.Contains(o.Value, "\n") {
			return fmt.Errorf("output %q: newline or '=' in key or value", o.Key)
		}
		fmt.Fprintf(&b, "%s=%s\n", o.Key, o.Value)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err = f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}
