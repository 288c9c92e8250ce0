package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"

	qadashsdk "qadash/sdk/go"
)

func TestSetEnvValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := setEnvValue(path, "QADASH_TOKEN", "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("read env: %v", err)
	}
	if env["QADASH_TOKEN"] != "first" {
		t.Fatalf("expected token in new file, got %v", env)
	}

	if err := os.WriteFile(path, []byte("QADASH_SERVER=http://localhost:9000\nQADASH_TOKEN=first\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := setEnvValue(path, "QADASH_TOKEN", "second"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	env, err = godotenv.Read(path)
	if err != nil {
		t.Fatalf("read env: %v", err)
	}
	if len(env) != 2 || env["QADASH_TOKEN"] != "second" || env["QADASH_SERVER"] != "http://localhost:9000" {
		t.Fatalf("unexpected env %v", env)
	}
}

func TestPrintProjectsTable(t *testing.T) {
	last := "2025-03-12T09:30:00Z"
	var buf bytes.Buffer
	printProjects(&buf, []qadashsdk.Project{
		{ID: "MOB-001", Name: "Mobile Beta", Department: "Engineering", Status: "Active"},
		{ID: "FIN-001", Name: "Ledger", Department: "Finance", Status: "Active", LastRun: &last, TotalRuns: 4},
	})
	out := buf.String()
	for _, want := range []string{"MOB-001", "Mobile Beta", "Never", "FIN-001", "LAST RUN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "{") {
		t.Fatalf("expected a table, got JSON:\n%s", out)
	}
}
