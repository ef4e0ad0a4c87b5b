package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Services manages the local containers the agent talks to.
type Services mg.Namespace

// service is one docker container started by Services:Up.
type service struct {
	name  string
	image string
	ports []string
}

var services = []service{
	{name: "research-qdrant", image: "qdrant/qdrant:v1.16.2", ports: []string{"6333:6333", "6334:6334"}},
	{name: "research-redis", image: "redis:7-alpine", ports: []string{"6379:6379"}},
	{name: "research-ollama", image: "ollama/ollama:latest", ports: []string{"11434:11434"}},
}

// Up starts Qdrant, Redis and Ollama, skipping containers already running.
func (Services) Up() error {
	for _, s := range services {
		running, _ := sh.Output("docker", "ps", "-q", "--filter", "name=^"+s.name+"$")
		if running != "" {
			fmt.Printf("  %s already running\n", s.name)
			continue
		}
		_ = sh.Run("docker", "rm", "-f", s.name)
		args := []string{"run", "-d", "--name", s.name}
		for _, p := range s.ports {
			args = append(args, "-p", p)
		}
		args = append(args, s.image)
		if err := sh.RunV("docker", args...); err != nil {
			return fmt.Errorf("starting %s: %w", s.name, err)
		}
	}
	return nil
}

// Down stops and removes the service containers.
func (Services) Down() error {
	for _, s := range services {
		if err := sh.Run("docker", "rm", "-f", s.name); err != nil {
			fmt.Printf("  %s: %v\n", s.name, err)
		}
	}
	return nil
}

// Ingest builds the binary and runs one ingestion pass with the configured
// defaults.
func Ingest() error {
	mg.Deps(Build)
	return sh.RunV("./bin/research-agent", "ingest")
}
