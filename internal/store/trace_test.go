package store

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	runDir := filepath.Join(t.TempDir(), "run")

	writer, err := NewTraceWriter(runDir, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	entries := []TraceEntry{
		{Iteration: 0, BestFitness: 10, Evaluations: 30, Timestamp: time.Now()},
		{Iteration: 1, BestFitness: 8, Evaluations: 60, Timestamp: time.Now()},
		{Iteration: 2, BestFitness: 8, Evaluations: 88, Timestamp: time.Now()},
	}
	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	if writer.Path() != filepath.Join(runDir, TraceFile) {
		t.Errorf("Unexpected trace path %s", writer.Path())
	}

	reader, err := NewTraceReader(runDir)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	read, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(read) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(read))
	}
	for i, entry := range read {
		if entry.Iteration != entries[i].Iteration || entry.BestFitness != entries[i].BestFitness {
			t.Errorf("Entry %d mismatch: got %+v", i, entry)
		}
		if entry.Evaluations != entries[i].Evaluations {
			t.Errorf("Entry %d: expected %d evaluations, got %d", i, entries[i].Evaluations, entry.Evaluations)
		}
	}
}

func TestTraceWriter_Append(t *testing.T) {
	runDir := t.TempDir()

	for i := 0; i < 2; i++ {
		writer, err := NewTraceWriter(runDir, true)
		if err != nil {
			t.Fatalf("Failed to create trace writer: %v", err)
		}
		writer.Write(TraceEntry{Iteration: i, BestFitness: Number(10 - i)})
		if err := writer.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		writer.Close()
	}

	reader, err := NewTraceReader(runDir)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	read, _ := reader.ReadAll()
	if len(read) != 2 {
		t.Fatalf("Expected 2 entries after append, got %d", len(read))
	}
}

func TestTraceWriter_NonFinite(t *testing.T) {
	runDir := t.TempDir()

	writer, _ := NewTraceWriter(runDir, false)
	if err := writer.Write(TraceEntry{BestFitness: Number(math.Inf(1))}); err != nil {
		t.Fatalf("Write of Inf fitness failed: %v", err)
	}
	writer.Close()

	reader, _ := NewTraceReader(runDir)
	defer reader.Close()

	entry, err := reader.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(float64(entry.BestFitness)) {
		t.Errorf("Expected NaN, got %v", entry.BestFitness)
	}
	if _, err := reader.Read(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(filepath.Join(t.TempDir(), "nothing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTraceReader_CorruptedLine(t *testing.T) {
	runDir := t.TempDir()
	os.WriteFile(filepath.Join(runDir, TraceFile), []byte("{\"iteration\":1}\nnot-json\n"), 0644)

	reader, err := NewTraceReader(runDir)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	if _, err := reader.ReadAll(); err == nil {
		t.Error("Expected error for corrupted line")
	}
}
