// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package views renders FaultLab error and result pages.
//
// Pages are negotiated: browsers get the embedded HTML templates, clients
// sending Accept: application/json get the same data as JSON. Install must
// be called on the engine before any HTML is rendered.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianFaultLab/services/faultlab/failures"
	"github.com/gin-gonic/gin"
)

// Template names.
const (
	ErrorTemplate  = "error.html"
	ResultTemplate = "result.html"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"timestamp": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}

// ErrorPage is the data behind the error view.
type ErrorPage struct {
	Status     int           `json:"status"`
	Title      string        `json:"error"`
	Kind       failures.Kind `json:"kind"`
	Message    string        `json:"message"`
	Path       string        `json:"path"`
	IncidentID string        `json:"incident_id"`
	TraceID    string        `json:"trace_id,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// ResultPage is the data behind the result view, used by triggers that can
// succeed (ParseFailure with a valid literal, ParamVariant with any other
// value, a deadlock invocation that ran alone).
type ResultPage struct {
	Operation failures.Operation `json:"operation"`
	Message   string             `json:"message"`
	Result    any                `json:"result"`
	Path      string             `json:"path"`
}

// Templates parses the embedded template set.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("faultlab").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse view templates: %w", err)
	}
	return tmpl, nil
}

// Install parses the embedded templates and sets them on the engine.
func Install(engine *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	engine.SetHTMLTemplate(tmpl)
	return nil
}

// NewErrorPage fills the title and timestamp for a status.
func NewErrorPage(status int, kind failures.Kind, message, path string) ErrorPage {
	return ErrorPage{
		Status:    status,
		Title:     http.StatusText(status),
		Kind:      kind,
		Message:   message,
		Path:      path,
		Timestamp: time.Now(),
	}
}

// Error writes page with its status, as HTML unless the client prefers JSON.
func Error(c *gin.Context, page ErrorPage) {
	render(c, page.Status, ErrorTemplate, page)
}

// Result writes page with 200.
func Result(c *gin.Context, page ResultPage) {
	render(c, http.StatusOK, ResultTemplate, page)
}

// render negotiates between HTML and JSON. An empty or wildcard Accept
// header gets HTML.
func render(c *gin.Context, status int, name string, data any) {
	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(status, data)
	default:
		c.HTML(status, name, data)
	}
}
