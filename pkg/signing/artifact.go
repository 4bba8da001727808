package signing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// WriteFile persists a signed report as indented, human-readable JSON.
// The indentation is a property of the on-disk wrapper only; the signature
// covers the canonical bytes, not this rendering.
func WriteFile(path string, sr *SignedReport) error {
	// Serialize first so a marshal failure cannot leave a truncated file.
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sr); err != nil {
		return fmt.Errorf("encode signed report: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write signed report %q: %w", path, err)
	}
	return nil
}

// ReadFile loads a previously persisted signed report.
func ReadFile(path string) (*SignedReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signed report %q: %w", path, err)
	}

	var sr SignedReport
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("decode signed report %q: %w", path, err)
	}
	return &sr, nil
}
