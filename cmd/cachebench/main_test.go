// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSelectJobs(t *testing.T) {
	tests := []struct {
		scenario string
		want     []string
		wantErr  bool
	}{
		{"all", []string{"flipflop", "ordered", "shuffled"}, false},
		{"shuffled", []string{"shuffled"}, false},
		{"bogus", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			jobs, err := selectJobs(config{scenario: tt.scenario})
			if (err != nil) != tt.wantErr {
				t.Fatalf("selectJobs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(jobs) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(jobs), len(tt.want))
			}
			for i, j := range jobs {
				if j.name != tt.want[i] {
					t.Errorf("job %d = %q, want %q", i, j.name, tt.want[i])
				}
			}
		})
	}
}

func TestNewSourceUnknownDevice(t *testing.T) {
	if _, _, err := newSource("vulkan"); err == nil {
		t.Error("expected error for unknown device")
	}
}

func TestRun(t *testing.T) {
	for _, device := range []string{"memory", "noop"} {
		t.Run(device, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			cfg := config{scenario: "all", frames: 6, budget: 10, seed: 3, device: device}

			if err := run(context.Background(), cfg, logger); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if n := strings.Count(buf.String(), "scenario finished"); n != 3 {
				t.Errorf("logged %d reports, want 3:\n%s", n, buf.String())
			}
		})
	}
}
