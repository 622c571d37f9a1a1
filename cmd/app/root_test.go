package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobflow/jobflow-backend/internal/period"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	require.ElementsMatch(t, []string{"serve", "migrate", "accrue"}, names)
}

func TestAccrueRejectsBadPeriod(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"accrue", "--from", "2025-02-01", "--to", "2025-01-01"})

	err := cmd.Execute()
	require.ErrorIs(t, err, period.ErrInvalidRange)
}
