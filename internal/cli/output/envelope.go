// Package output renders machine-readable CLI responses.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

const SchemaVersion = "1.0.0"

type Meta struct {
	Command       string    `json:"command"`
	SchemaVersion string    `json:"schema_version"`
	Version       string    `json:"version,omitempty"`
	DurationMS    float64   `json:"duration_ms,omitempty"`
	TS            time.Time `json:"ts"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Ok    bool      `json:"ok"`
	Error ErrorBody `json:"error"`
	Meta  Meta      `json:"meta"`
}

type SuccessEnvelope struct {
	Ok   bool `json:"ok"`
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

func NewMeta(command, version string) Meta {
	return Meta{
		Command:       command,
		SchemaVersion: SchemaVersion,
		Version:       version,
		TS:            time.Now().UTC(),
	}
}

func WithDuration(meta Meta, start time.Time) Meta {
	meta.DurationMS = float64(time.Since(start).Milliseconds())
	return meta
}

func WriteSuccess(w io.Writer, meta Meta, data any) error {
	return write(w, SuccessEnvelope{Ok: true, Data: data, Meta: meta})
}

func WriteError(w io.Writer, meta Meta, code, message string) error {
	return write(w, ErrorEnvelope{Ok: false, Error: ErrorBody{Code: code, Message: message}, Meta: meta})
}

func write(w io.Writer, envelope any) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}
