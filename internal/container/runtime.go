// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs external text-extraction tools, either as local
// binaries or inside a docker/podman container.
package container

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime runs images through a container engine.
type Runtime interface {
	// Name returns "docker" or "podman".
	Name() string

	// Available reports whether the binary is on PATH and answers "info".
	Available(ctx context.Context) bool

	// ImageExists returns nil when image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Run starts image with stdin attached and copies its stdout.
	Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error
}

// Executor runs commands. The OS implementation uses os/exec; tests
// substitute a fake.
type Executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// OSExecutor is the production Executor.
type OSExecutor struct{}

func (OSExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (OSExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (OSExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

// runtime serves both docker and podman; they differ in binary name and
// the image check subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string
	exec          Executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string(nil), r.imageCheckCmd...), image)
	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	args := []string{"run", "--rm", "-i", image}
	if err := r.exec.RunPiped(ctx, r.bin, args, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

// DetectRuntime tries docker first and falls back to podman.
func DetectRuntime(ctx context.Context, ex Executor) (Runtime, error) {
	if ex == nil {
		ex = OSExecutor{}
	}
	candidates := []*runtime{
		{bin: binDocker, imageCheckCmd: []string{"image", "inspect"}, exec: ex},
		{bin: binPodman, imageCheckCmd: []string{"image", "exists"}, exec: ex},
	}
	for _, rt := range candidates {
		if rt.Available(ctx) {
			return rt, nil
		}
	}
	return nil, fmt.Errorf("no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman)
}

// Binary is a local command-line tool.
type Binary struct {
	Bin  string
	Exec Executor
}

// Available reports whether the binary is on PATH.
func (b Binary) Available() bool {
	_, err := b.executor().LookPath(b.Bin)
	return err == nil
}

// Run invokes the binary with args and copies its stdout.
func (b Binary) Run(ctx context.Context, args []string, stdout io.Writer) error {
	if err := b.executor().RunPiped(ctx, b.Bin, args, nil, stdout); err != nil {
		return fmt.Errorf("running %s: %w", b.Bin, err)
	}
	return nil
}

func (b Binary) executor() Executor {
	if b.Exec == nil {
		return OSExecutor{}
	}
	return b.Exec
}
