package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunScript_WritesPNGPerSaveCanvas(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "a.pprs", `
def main(){ create_canvas(2,2); put(0,0,#ff0000); save_canvas(); }
`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	require.NoError(t, runScript(script, "img", "png", "mp4", false))

	_, err = os.Stat(filepath.Join(dir, "canvas0.png"))
	assert.NoError(t, err)
}

func TestRunScript_RejectsNonPprsPath(t *testing.T) {
	err := runScript("/tmp/whatever.txt", "img", "png", "mp4", false)
	assert.Error(t, err)
}

func TestRunScript_ReportsCompileDiagnostics(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "bad.pprs", `def main(){ undefined_function(1,2); }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	err = runScript(script, "img", "png", "mp4", false)
	assert.Error(t, err)
}

func TestRunScript_FaultsOnMissingCanvas(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "nocanvas.pprs", `def main(){ put(0,0,#ff0000); }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	err = runScript(script, "img", "png", "mp4", false)
	assert.Error(t, err)
}

func TestRunScript_VideoModeFallsBackToFrameSequence(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "a.pprs", `
def main(){ create_canvas(1,1); fill(#00ff00); save_canvas(); }
`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	require.NoError(t, runScript(script, "vid", "png", "mp4", true))

	_, err = os.Stat(filepath.Join(dir, "frames", "frame0.png"))
	assert.NoError(t, err)
}
