//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

const binary = "bin/softsim"

type Build mg.Namespace

// Compiles the softsim CLI into bin/.
func (Build) CLI() error {
	_, err := executeCmd("go", withArgs("build", "-o", binary, "./cmd/softsim"), withStream())
	return err
}

// Runs the unit and scenario suites.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./internal/..."), withStream())
	return err
}

// Runs the solver benchmarks.
func Bench() error {
	_, err := executeCmd("go", withArgs("test", "-run", "^$", "-bench", ".", "./internal/physics/", "./internal/integrators/"), withStream())
	return err
}

// Runs go vet on every package.
func Lint() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Builds the CLI and opens the preset menu.
func Live() error {
	mg.Deps(Build.CLI)
	_, err := executeCmd(binary, withStream())
	return err
}
