package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/soc-pilot/drc/internal/diagram"
)

// readInput reads a file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required (file path or - for stdin)")
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// decodeInput accepts either a bare diagram or {"diagram": ..., "components": [...]}.
func decodeInput(data []byte) (*diagram.Diagram, []diagram.ArchitecturalComponent, error) {
	var envelope struct {
		Diagram    json.RawMessage                  `json:"diagram"`
		Components []diagram.ArchitecturalComponent `json:"components"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", diagram.ErrInvalidDiagram, err)
	}
	raw := bytes.TrimSpace(envelope.Diagram)
	if len(raw) == 0 {
		d, err := diagram.Decode(data)
		return d, nil, err
	}
	d, err := diagram.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	return d, envelope.Components, nil
}

// writeOutput writes to a file, or to w when path is "" or "-".
func writeOutput(path string, w io.Writer, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
