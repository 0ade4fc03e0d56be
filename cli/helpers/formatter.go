// Package helpers holds small pieces shared by every cli/cmd/*
// subcommand: JSON rendering and human/machine output-mode detection.
package helpers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"
)

// JSONError is the error shape embedded in a command's JSON output
// (diff's `{success:false, error:{code,message,details}}`).
type JSONError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// JSONFormatter renders a command's own result struct as JSON. Each
// subcommand defines its own top-level key set per its output
// contract (validate's `{valid,...}` differs from diff's
// `{success,data:{...}}`); the formatter only owns encoding/pretty-printing,
// not the shape.
type JSONFormatter struct {
	Pretty bool
}

func NewJSONFormatter(pretty bool) *JSONFormatter {
	return &JSONFormatter{Pretty: pretty}
}

// Write marshals v and writes it to w, followed by a trailing newline.
func (f *JSONFormatter) Write(w io.Writer, v any) error {
	data, err := f.marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, data)
	return err
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("helpers: marshal json: %w", err)
	}
	if f.Pretty {
		data = pretty.Pretty(data)
	}
	return string(data), nil
}
