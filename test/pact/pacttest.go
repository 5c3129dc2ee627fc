//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "repairshop-api"
	ConsumerName = "repair-board"

	StateOrderInReception = "order in reception exists"
	StateOrderMissing     = "no order with the missing id"
)

// Fixed identities shared by both sides of the contract.
const (
	TenantID       = "8f0c2a64-3d7e-4b59-9d1a-2f4e6c8b0a11"
	UserID         = "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"
	CustomerID     = "3c5f1e2a-7b84-4d6e-a0f9-5e2d8c7b4a60"
	ExistingOrder  = "6a2f41a0-7c3e-4e8b-9a35-0d1c2b3e4f50"
	MissingOrder   = "00000000-0000-4000-8000-000000000404"
	ProblemSummary = "Pantalla no enciende"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the pact file path for the board consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
