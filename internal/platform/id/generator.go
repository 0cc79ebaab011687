package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs, used to tag pipeline runs and published sheets.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// Static always returns the same ID. Handy for tests and dry runs.
type Static string

func (s Static) NewID() (string, error) {
	return string(s), nil
}
