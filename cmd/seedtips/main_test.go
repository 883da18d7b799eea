package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tips.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTips(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	path := writeFile(t, `[
		{"id":"quake-1","category":" Earthquake","title":"Drop, cover, hold on","steps":["Drop","Cover","Hold on"]},
		{"id":"fire-1","category":"fire","title":"Stay low","body":"Smoke rises."}
	]`)

	tips, err := readTips(path, now)
	require.NoError(t, err)
	require.Len(t, tips, 2)
	assert.Equal(t, "earthquake", tips[0].Category)
	assert.Equal(t, []string{"Drop", "Cover", "Hold on"}, tips[0].Steps)
	assert.Equal(t, now, tips[1].UpdatedAt)
}

func TestReadTips_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"not json", `{`, "parse"},
		{"missing title", `[{"id":"a","category":"fire"}]`, "tip 0"},
		{"duplicate id", `[{"id":"a","category":"fire","title":"x"},{"id":"a","category":"flood","title":"y"}]`, `duplicate id "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readTips(writeFile(t, tt.content), time.Now())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := readTips(filepath.Join(t.TempDir(), "missing.json"), time.Now())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
