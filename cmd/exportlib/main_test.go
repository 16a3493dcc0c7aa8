// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/exportlib/pkg/export"
)

// 🧪 runCmd executes the root command with args and returns its stdout
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "creating parent dir")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "writing %s", path)
}

func TestRootDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "tests", "target", "debug", "librustcraft_test.so"), "built")
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "build", "out"), 0755))
	t.Chdir(tmpDir)

	out, err := runCmd(t)
	require.NoError(t, err)
	assert.Contains(t, out, "exported librustcraft_test.so")

	got, err := os.ReadFile(filepath.Join(tmpDir, "build", "out", "librustcraft_test.so"))
	require.NoError(t, err)
	assert.Equal(t, "built", string(got))
}

func TestRootDefaultsIgnoreConfigFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "tests", "target", "debug", "librustcraft_test.so"), "built")
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "build", "out"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "elsewhere"), 0755))
	for _, name := range []string{"exportlib.yaml", ".exportlib.yaml", "exportlib.hcl", "exportlib.json"} {
		writeFile(t, filepath.Join(tmpDir, name), "filename: other.so\ndestination: elsewhere\n")
	}
	t.Chdir(tmpDir)

	_, err := runCmd(t)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, "build", "out", "librustcraft_test.so"))
	require.NoError(t, err, "built-in destination should be used")
	entries, err := os.ReadDir(filepath.Join(tmpDir, "elsewhere"))
	require.NoError(t, err)
	assert.Empty(t, entries, "config files in the working directory should be ignored")
}

func TestRootReportsUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.so"), "same")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
	args := []string{"-f", "a.so", "-s", filepath.Join(dir, "src"), "-o", filepath.Join(dir, "out")}

	out, err := runCmd(t, args...)
	require.NoError(t, err)
	assert.NotContains(t, out, "already matched")

	out, err = runCmd(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "already matched the exported content")
}

func TestRoot(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, dir string) []string
		wantErr  error
		validate func(t *testing.T, dir string)
	}{
		{
			name: "flags",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "src", "a.so"), "flags")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
				return []string{
					"--filename", "a.so",
					"--source", filepath.Join(dir, "src"),
					"--destination", filepath.Join(dir, "out"),
				}
			},
			validate: func(t *testing.T, dir string) {
				got, err := os.ReadFile(filepath.Join(dir, "out", "a.so"))
				require.NoError(t, err)
				assert.Equal(t, "flags", string(got))
			},
		},
		{
			name: "config_file",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "src", "b.so"), "config")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
				cfgPath := filepath.Join(dir, "exportlib.yaml")
				writeFile(t, cfgPath, "filename: b.so\nsource: "+filepath.Join(dir, "src")+"\ndestination: "+filepath.Join(dir, "out")+"\n")
				return []string{"-c", cfgPath}
			},
			validate: func(t *testing.T, dir string) {
				got, err := os.ReadFile(filepath.Join(dir, "out", "b.so"))
				require.NoError(t, err)
				assert.Equal(t, "config", string(got))
			},
		},
		{
			name: "flag_overrides_config",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "src", "b.so"), "config")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
				require.NoError(t, os.Mkdir(filepath.Join(dir, "other"), 0755))
				cfgPath := filepath.Join(dir, "exportlib.hcl")
				writeFile(t, cfgPath, `filename = "b.so"
source = "`+filepath.ToSlash(filepath.Join(dir, "src"))+`"
destination = "`+filepath.ToSlash(filepath.Join(dir, "out"))+`"
`)
				return []string{"-c", cfgPath, "-o", filepath.Join(dir, "other")}
			},
			validate: func(t *testing.T, dir string) {
				_, err := os.Stat(filepath.Join(dir, "other", "b.so"))
				require.NoError(t, err, "flag destination should win")
				_, err = os.Stat(filepath.Join(dir, "out", "b.so"))
				assert.ErrorIs(t, err, os.ErrNotExist)
			},
		},
		{
			name: "missing_source",
			setup: func(t *testing.T, dir string) []string {
				require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
				return []string{"-f", "a.so", "-s", filepath.Join(dir, "src"), "-o", filepath.Join(dir, "out")}
			},
			wantErr: export.ErrSourceNotFound,
			validate: func(t *testing.T, dir string) {
				entries, err := os.ReadDir(filepath.Join(dir, "out"))
				require.NoError(t, err)
				assert.Empty(t, entries, "destination should remain empty")
			},
		},
		{
			name: "missing_destination",
			setup: func(t *testing.T, dir string) []string {
				writeFile(t, filepath.Join(dir, "src", "a.so"), "x")
				return []string{"-f", "a.so", "-s", filepath.Join(dir, "src"), "-o", filepath.Join(dir, "out")}
			},
			wantErr: export.ErrDestinationUnavailable,
			validate: func(t *testing.T, dir string) {
				_, err := os.Stat(filepath.Join(dir, "out"))
				assert.ErrorIs(t, err, os.ErrNotExist, "destination should not be created")
			},
		},
		{
			name: "invalid_filename_flag",
			setup: func(t *testing.T, dir string) []string {
				return []string{"-f", "../a.so"}
			},
			wantErr: export.ErrInvalidFilename,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			args := tt.setup(t, dir)

			_, err := runCmd(t, args...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			if tt.validate != nil {
				tt.validate(t, dir)
			}
		})
	}
}

func TestRootRejectsArgs(t *testing.T) {
	_, err := runCmd(t, "extra")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version")
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestFormatVersion(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	out, err := FormatVersion(&VersionInfo{
		Version:  "v1.2.3",
		Revision: "abc123",
		Modified: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, "abc123 (modified)")
}
