package scan

import (
	"context"
	"sort"

	"github.com/morozRed/toolbelt/internal/report"
)

// templates are the documents template-gen can emit, keyed by name.
var templates = map[string]string{
	"issue": `# Issue Template

## Summary
Describe the issue concisely.

## Steps to Reproduce
1. ...

## Expected Behavior

## Actual Behavior

## Additional Context
- OS: 
- Version: 
`,
	"pr": `# Pull Request Template

## Summary
What does this PR change?

## Motivation

## Changes
- ...

## Checklist
- [ ] Tests added/updated
- [ ] Docs updated
`,
	"bug-report": `# Bug Report

## Description

## Steps to Reproduce

## Expected

## Actual

## Logs / Screenshots

## Environment

`,
	"feature-request": `# Feature Request

## Problem

## Proposal

## Alternatives

## Additional Context

`,
	"code-review-checklist": `# Code Review Checklist

- [ ] Correctness
- [ ] Tests
- [ ] Performance
- [ ] Security
- [ ] Readability
- [ ] Documentation
`,
	"security-report": `# Security Report

## Summary

## Impact

## Affected Components

## Reproduction

## Mitigation

`,
	"release-notes": `# Release Notes

## Version X.Y.Z — YYYY-MM-DD

### Highlights
- ...

### Changes
- ...

### Migration Notes
- ...
`,
	"testing-plan": `# Testing Plan

## Scope

## Test Cases
- ...

## Environments

## Risks

`,
	"adr": `# Architecture Decision Record (ADR)

## Context

## Decision

## Consequences

`,
	"contributing": `# Contributing

Thanks for contributing!

## Development Setup

## Pull Requests

## Coding Standards

`,
	"roadmap": `# Roadmap

## Q1
- ...

## Q2
- ...

`,
	"design-doc": `# Design Document

## Background

## Goals

## Non-Goals

## Design

## Alternatives

`,
	"api-spec": `# API Spec

## Overview

## Endpoints
- GET /...
- POST /...

## Models

`,
	"sprint-planning": `# Sprint Planning

## Goals

## Stories
- ...

## Risks

`,
	"meeting-notes": `# Meeting Notes

- Date: 
- Attendees: 

## Notes
- ...

## Actions
- [ ] ...
`,
}

// TemplateNames lists the known template names in order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns the template called name. Unknown names produce a short
// report saying so.
func Template(ctx context.Context, name string) (string, error) {
	if tpl, ok := templates[name]; ok {
		return tpl, ctx.Err()
	}
	return report.H1("Template Generator") + "Unknown template: " + name + "\n", ctx.Err()
}
