package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"plantary/internal/core"
	"plantary/pkg/domain"
	"strings"
	"testing"
	"time"
)

var _ core.Logger = (*Logger)(nil)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "plantary", "debug")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Error("core operation failed", "operation", "mint_plant", "error", errors.New("unpaid"))
	logger.Debug("dangling", "orphan")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	first := lines[0]
	if first["level"] != "error" || first["message"] != "core operation failed" || first["app"] != "plantary" {
		t.Fatalf("unexpected line %v", first)
	}
	if first["operation"] != "mint_plant" || first["error"] != "unpaid" {
		t.Fatalf("expected fields carried, got %v", first)
	}
	if _, ok := lines[1]["orphan"]; !ok {
		t.Fatalf("expected trailing key kept, got %v", lines[1])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "plantary", "WARN")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["message"] != "shown" {
		t.Fatalf("expected only warn line, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel(""); err != nil || lvl.String() != "info" {
		t.Fatalf("expected info default, got %v %v", lvl, err)
	}
	if _, err := New(&bytes.Buffer{}, "plantary", "chatty"); err == nil {
		t.Fatalf("expected unknown level error")
	}
}

func TestLoggerDrivesServiceLogs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "plantary", "debug")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(),
		core.WithLogger(logger),
		core.WithClock(core.ClockFunc(func() time.Time { return fixed })),
		core.WithAdmins("plantary.testnet"),
	)
	ctx := core.WithCaller(context.Background(), "plantary.testnet")
	if _, _, err := svc.CreateSeed(ctx, core.SeedInput{Kind: domain.KindPlant, Category: domain.CategoryOracle, Descriptor: "ipfs://seed", Rarity: 2}); err != nil {
		t.Fatalf("create seed: %v", err)
	}
	if _, _, err := svc.MintPlant(core.WithCaller(context.Background(), "alice.testnet"), domain.CategoryOracle); err == nil {
		t.Fatalf("expected unpaid mint to fail")
	}
	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 service log lines, got %s", buf.String())
	}
	if lines[0]["level"] != "debug" || lines[0]["operation"] != "create_seed" {
		t.Fatalf("unexpected success line %v", lines[0])
	}
	if lines[1]["level"] != "error" || lines[1]["operation"] != "mint_plant" {
		t.Fatalf("unexpected failure line %v", lines[1])
	}
}

func TestInitLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := InitLogger(&buf, "plantary", "info")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	logger.Info("ledger ready", "driver", "sqlite")
	out := buf.String()
	if !strings.Contains(out, "ledger ready") || !strings.Contains(out, "sqlite") {
		t.Fatalf("unexpected console output %q", out)
	}
	if _, err := InitLogger(&buf, "plantary", "loud"); err == nil {
		t.Fatalf("expected level error")
	}
}
