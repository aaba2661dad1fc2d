package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setSimEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("FMCGSIM_SQLITE_PATH", filepath.Join(dir, "warehouse.db"))
	t.Setenv("FMCGSIM_EXPORT_DIR", filepath.Join(dir, "exports"))
	t.Setenv("FMCGSIM_SEED", "12345")
	t.Setenv("FMCGSIM_EMPLOYEES", "20")
	t.Setenv("FMCGSIM_PRODUCTS", "15")
	t.Setenv("FMCGSIM_RETAILERS", "30")
	t.Setenv("FMCGSIM_CAMPAIGNS", "5")
	t.Setenv("FMCGSIM_INITIAL_AMOUNT", "150000")
	t.Setenv("FMCGSIM_DAILY_AMOUNT", "15000")
	t.Setenv("FMCGSIM_START_DATE", time.Now().AddDate(0, 0, -10).Format(time.DateOnly))
	t.Setenv("FMCGSIM_EXPORT_S3_BUCKET", "")
}

func TestRunInitThenDaily(t *testing.T) {
	dir := t.TempDir()
	setSimEnv(t, dir)

	if err := run([]string{"init"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "warehouse.db")); err != nil {
		t.Fatalf("warehouse not created: %v", err)
	}
	initSummary := filepath.Join(dir, "exports", "init",
		"run_summary_"+time.Now().Format("20060102")+".json")
	if _, err := os.Stat(initSummary); err != nil {
		t.Fatalf("init summary missing: %v", err)
	}

	if err := run([]string{"daily"}); err != nil {
		t.Fatalf("daily: %v", err)
	}
	csvPath := filepath.Join(dir, "exports", "daily",
		"fact_sales_"+time.Now().Format("20060102")+".csv")
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("daily extract missing: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse extract: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("extract has no data rows")
	}
	if rows[0][0] != "sale_key" {
		t.Fatalf("extract header: %v", rows[0])
	}

	// Replaying the same day must not duplicate sale keys.
	if err := run([]string{"daily"}); err != nil {
		t.Fatalf("daily replay: %v", err)
	}
}

func TestRunReconcile(t *testing.T) {
	dir := t.TempDir()
	setSimEnv(t, dir)

	if err := run([]string{"init"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := run([]string{"reconcile"}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
}

func TestRunDailyWithoutInit(t *testing.T) {
	dir := t.TempDir()
	setSimEnv(t, dir)

	err := run([]string{"daily"})
	if err == nil || !strings.Contains(err.Error(), "run init first") {
		t.Fatalf("got %v, want empty-warehouse error", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	dir := t.TempDir()
	setSimEnv(t, dir)

	err := run([]string{"resynthesize"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("got %v, want unknown command error", err)
	}
}

func TestRunMissingConfigFile(t *testing.T) {
	dir := t.TempDir()
	setSimEnv(t, dir)

	if err := run([]string{"-config", filepath.Join(dir, "absent.yaml"), "daily"}); err == nil {
		t.Fatalf("missing config file must fail")
	}
}
