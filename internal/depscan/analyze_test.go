package depscan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_ImportForms(t *testing.T) {
	code := `
import React from 'react';
import { format } from "date-fns";
import * as d3 from 'd3';
import 'normalize.css';
import styles from './styles.css';
import Button from '@/components/Button';
`
	deps := Analyze(code)

	names := make(map[string]Dependency)
	for _, d := range deps {
		names[d.Name] = d
	}

	require.Contains(t, names, "react")
	assert.Equal(t, TypeBuiltin, names["react"].Type)

	require.Contains(t, names, "date-fns")
	assert.Equal(t, TypePackage, names["date-fns"].Type)
	assert.Equal(t, SourceImport, names["date-fns"].Source)
	assert.True(t, names["date-fns"].Required)

	require.Contains(t, names, "d3")
	require.Contains(t, names, "normalize.css")

	// Project-alias imports are builtin, relative paths are skipped.
	require.Contains(t, names, "@/components/Button")
	assert.Equal(t, TypeBuiltin, names["@/components/Button"].Type)
	assert.NotContains(t, names, "./styles.css")
}

func TestAnalyze_SubpathsNormalizeToPackageRoot(t *testing.T) {
	code := `
import { createRoot } from 'react-dom/client';
import { jsx } from 'react/jsx-runtime';
import merge from 'lodash/merge';
import { Dialog } from '@radix-ui/react-dialog';
`
	deps := Analyze(code)
	require.Len(t, deps, 4)

	assert.Equal(t, "react-dom", deps[0].Name)
	assert.Equal(t, TypeBuiltin, deps[0].Type)
	assert.Equal(t, "react", deps[1].Name)
	assert.Equal(t, TypeBuiltin, deps[1].Type)
	assert.Equal(t, "lodash", deps[2].Name)
	assert.Equal(t, TypePackage, deps[2].Type)
	assert.Equal(t, "@radix-ui/react-dialog", deps[3].Name)
	assert.Equal(t, TypePackage, deps[3].Type)
}

func TestAnalyze_VersionPins(t *testing.T) {
	code := `import confetti from 'canvas-confetti@1.6.0';`
	deps := Analyze(code)
	require.Len(t, deps, 1)
	assert.Equal(t, "canvas-confetti", deps[0].Name)
	assert.Equal(t, "1.6.0", deps[0].Version)
}

func TestAnalyze_RequireCalls(t *testing.T) {
	code := `
const express = require('express');
const path = require("./local");
`
	deps := Analyze(code)
	require.Len(t, deps, 1)
	assert.Equal(t, "express", deps[0].Name)
	assert.Equal(t, SourceRequire, deps[0].Source)
}

func TestAnalyze_ImportWinsOverRequire(t *testing.T) {
	code := `
import axios from 'axios';
const axios2 = require('axios');
`
	deps := Analyze(code)
	require.Len(t, deps, 1)
	assert.Equal(t, "axios", deps[0].Name)
	assert.Equal(t, SourceImport, deps[0].Source, "first occurrence wins, imports scan first")
}

func TestAnalyze_CDNScriptTags(t *testing.T) {
	code := `
<script src="https://unpkg.com/react@18.2.0/umd/react.production.min.js"></script>
<script src="https://cdn.jsdelivr.net/npm/lodash@4.17.21/lodash.min.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/moment.js/2.29.4/moment.min.js"></script>
<script src="https://cdn.tailwindcss.com"></script>
<script src="https://example.com/whatever.js"></script>
`
	deps := Analyze(code)
	require.Len(t, deps, 4)

	want := []Dependency{
		{Name: "react", Version: "18.2.0", Type: TypeCDN, Required: true, Source: SourceScriptTag},
		{Name: "lodash", Version: "4.17.21", Type: TypeCDN, Required: true, Source: SourceScriptTag},
		{Name: "moment.js", Version: "2.29.4", Type: TypeCDN, Required: true, Source: SourceScriptTag},
		{Name: "tailwindcss", Type: TypeCDN, Required: true, Source: SourceScriptTag},
	}
	if diff := cmp.Diff(want, deps); diff != "" {
		t.Errorf("unexpected dependencies (-want +got):\n%s", diff)
	}
}

func TestAnalyze_ScopedCDNPath(t *testing.T) {
	code := `<script src="https://unpkg.com/@tanstack/react-query@5.0.0/build/umd/index.js"></script>`
	deps := Analyze(code)
	require.Len(t, deps, 1)
	assert.Equal(t, "@tanstack/react-query", deps[0].Name)
	assert.Equal(t, "5.0.0", deps[0].Version)
}

func TestAnalyze_Idempotent(t *testing.T) {
	code := `
import React from 'react';
import axios from 'axios';
const fs = require('fs-extra');
<script src="https://cdn.tailwindcss.com"></script>
`
	first := Analyze(code)
	second := Analyze(code)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("analysis is not idempotent (-first +second):\n%s", diff)
	}
}

func TestAnalyze_EmptyFragment(t *testing.T) {
	assert.Empty(t, Analyze(""))
	assert.Empty(t, Analyze("const local = 1; // nothing referenced"))
}

func TestInstallList(t *testing.T) {
	code := `
import React from 'react';
import axios from 'axios';
import dayjs from 'dayjs';
<script src="https://cdn.tailwindcss.com"></script>
`
	deps := Analyze(code)
	install := InstallList(deps)
	require.Len(t, install, 2)
	assert.Equal(t, "axios", install[0].Name)
	assert.Equal(t, "dayjs", install[1].Name)

	cdn := CDNResources(deps)
	require.Len(t, cdn, 1)
	assert.Equal(t, "tailwindcss", cdn[0].Name)
}
