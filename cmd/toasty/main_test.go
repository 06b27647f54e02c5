package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/toasty/config"
	"github.com/vinodismyname/toasty/internal/export"
	"github.com/vinodismyname/toasty/internal/registry"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	cmd.SetArgs(append([]string{"--config", missing, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEval_PrintsResults(t *testing.T) {
	out, _, err := execute(t, "eval", "2 + 2", "-2 ^ 2", "sqrt(16)")
	require.NoError(t, err)
	require.Equal(t, "2 + 2 = 4\n-2 ^ 2 = -4\nsqrt(16) = 4\n", out)
}

func TestEval_FailureExitsNonZero(t *testing.T) {
	out, errOut, err := execute(t, "eval", "1 + 1", "1 / 0")
	require.ErrorIs(t, err, errReported)
	require.Equal(t, "1 + 1 = 2\n", out)
	require.True(t, strings.HasPrefix(errOut, "1 / 0: "), errOut)
}

func TestEval_NoExpressions(t *testing.T) {
	_, _, err := execute(t, "eval")
	require.Error(t, err)
	require.False(t, errors.Is(err, errReported))
}

func TestEval_FileAndXLSX(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "exprs.txt")
	require.NoError(t, os.WriteFile(in, []byte("# totals\n3 * 4\n\n10 % 4\nfoo\n"), 0o600))
	xlsx := filepath.Join(dir, "out.xlsx")

	out, _, err := execute(t, "eval", "--file", in, "--xlsx", xlsx, "1 + 2")
	require.ErrorIs(t, err, errReported)
	require.Equal(t, "1 + 2 = 3\n3 * 4 = 12\n10 % 4 = 2\n", out)

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.Equal(t, "foo", rows[4][0])
	require.Contains(t, rows[4][2], "foo")
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "loud", "eval", "1"})
	require.Error(t, cmd.Execute())
}

func TestRoot_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_expression_bytes: 4\n"), 0o600))

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", path, "--log-level", "error", "eval", "1 + 2", "1+2"})
	require.ErrorIs(t, cmd.Execute(), errReported)
	require.Equal(t, "1+2 = 3\n", stdout.String())
	require.Contains(t, stderr.String(), "size limit")
}

func TestNewMCPServer_RegistersTools(t *testing.T) {
	cfg := config.Default()
	logger, err := newLogger(cfg.Logging, &bytes.Buffer{})
	require.NoError(t, err)

	_, reg := newMCPServer(newApp(cfg, logger))
	require.Equal(t, []string{
		registry.ToolActivateResult,
		registry.ToolEvaluateExpression,
		registry.ToolGetInitialResultSet,
		registry.ToolGetResultMetas,
		registry.ToolGetSubsearchResultSet,
		registry.ToolLaunchSearch,
	}, reg.Names())
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	logger.Info().Msg("hello")
	logger.Debug().Msg("hidden")
	require.Contains(t, buf.String(), `"service":"toasty"`)
	require.NotContains(t, buf.String(), "hidden")
}
