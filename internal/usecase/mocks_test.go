//go:build !integration

package usecase_test

import (
	"io"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/domain/ports/gateway/gatewaytest"
)

type MockGateway = gatewaytest.Memory

var NewMockGateway = gatewaytest.NewMemory

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
