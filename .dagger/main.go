// Zaguan CI
//
// Package main runs the zaguan-go tests and builds locally and in GitHub
// actions.
package main

import (
	"context"

	"dagger/zaguan/internal/dagger"
)

// Zaguan is the CI module for the zaguan-go client and CLI
type Zaguan struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Zaguan CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Zaguan {
	return &Zaguan{
		Source: source,
	}
}

// goContainer returns a Go container with module and build caches and the
// project source mounted. The client is pure Go, so CGO stays off.
func (z *Zaguan) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", z.Source)
}

// Test runs the unit tests with ginkgo's race detector enabled.
//
// +check
func (z *Zaguan) Test(ctx context.Context) (string, error) {
	return z.goContainer().
		WithEnvVariable("CGO_ENABLED", "1").
		WithExec([]string{"apk", "add", "--no-cache", "gcc", "musl-dev"}).
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}

// Vet runs "go vet" over every package.
//
// +check
func (z *Zaguan) Vet(ctx context.Context) (string, error) {
	return z.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)
}
