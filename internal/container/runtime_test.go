// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor answers LookPath and RunSilent from tables and records piped runs.
type fakeExecutor struct {
	onPath   map[string]bool
	succeeds map[string]bool
	piped    []string
	pipe     func(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (f *fakeExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := strings.Join(append([]string{name}, args...), " ")
	if f.succeeds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (f *fakeExecutor) RunPiped(_ context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.piped = append(f.piped, strings.Join(append([]string{name}, args...), " "))
	if f.pipe != nil {
		return f.pipe(name, args, stdin, stdout)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *fakeExecutor
		wantName string
		wantErr  bool
	}{
		{
			name:     "docker preferred",
			exec:     &fakeExecutor{onPath: map[string]bool{"docker": true, "podman": true}, succeeds: map[string]bool{"docker info": true, "podman info": true}},
			wantName: "docker",
		},
		{
			name:     "podman when docker info fails",
			exec:     &fakeExecutor{onPath: map[string]bool{"docker": true, "podman": true}, succeeds: map[string]bool{"podman info": true}},
			wantName: "podman",
		},
		{
			name:    "nothing installed",
			exec:    &fakeExecutor{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := DetectRuntime(context.Background(), tt.exec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rt.Name())
		})
	}
}

func TestImageExists(t *testing.T) {
	ex := &fakeExecutor{
		onPath:   map[string]bool{"podman": true},
		succeeds: map[string]bool{"podman info": true, "podman image exists markitdown:latest": true},
	}
	rt, err := DetectRuntime(context.Background(), ex)
	require.NoError(t, err)

	assert.NoError(t, rt.ImageExists(context.Background(), "markitdown:latest"))
	err = rt.ImageExists(context.Background(), "missing:latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing:latest")
}

func TestRunPipesThroughContainer(t *testing.T) {
	ex := &fakeExecutor{
		onPath:   map[string]bool{"docker": true},
		succeeds: map[string]bool{"docker info": true},
		pipe: func(_ string, _ []string, stdin io.Reader, stdout io.Writer) error {
			_, err := io.Copy(stdout, stdin)
			return err
		},
	}
	rt, err := DetectRuntime(context.Background(), ex)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, rt.Run(context.Background(), "img", strings.NewReader("pdf bytes"), &out))
	assert.Equal(t, "pdf bytes", out.String())
	assert.Equal(t, []string{"docker run --rm -i img"}, ex.piped)

	ex.pipe = func(string, []string, io.Reader, io.Writer) error { return errors.New("exit 1") }
	assert.Error(t, rt.Run(context.Background(), "img", strings.NewReader(""), &out))
}

func TestBinary(t *testing.T) {
	ex := &fakeExecutor{
		onPath: map[string]bool{"pdftotext": true},
		pipe: func(_ string, args []string, _ io.Reader, stdout io.Writer) error {
			_, err := io.WriteString(stdout, strings.Join(args, ","))
			return err
		},
	}
	b := Binary{Bin: "pdftotext", Exec: ex}
	assert.True(t, b.Available())
	assert.False(t, Binary{Bin: "nope", Exec: ex}.Available())

	var out strings.Builder
	require.NoError(t, b.Run(context.Background(), []string{"-layout", "a.pdf", "-"}, &out))
	assert.Equal(t, "-layout,a.pdf,-", out.String())
}
