package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"clee/src/report"
)

func TestBuild_ParametersWith(t *testing.T) {
	b := &Build{
		Actions: []Action{
			{},
			{Parameters: []Parameter{{Name: "other", Value: "x"}}},
			{Parameters: []Parameter{
				{Name: "system_tests_branch", Value: "master"},
				{Name: "retries", Value: float64(3)},
				{Name: "debug", Value: true},
			}},
		},
	}

	params, ok := b.ParametersWith("system_tests_branch")
	if !ok {
		t.Fatal("ParametersWith() found nothing")
	}
	want := map[string]string{"system_tests_branch": "master", "retries": "3", "debug": "true"}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("params[%q] = %q, want %q", k, params[k], v)
		}
	}
	if len(params) != len(want) {
		t.Errorf("len(params) = %d, want %d", len(params), len(want))
	}

	if _, ok := b.ParametersWith("missing"); ok {
		t.Error("ParametersWith(missing) = true, want false")
	}
}

func TestBuild_TestResults(t *testing.T) {
	b := &Build{Number: "7", Building: true, Report: report.RawReport{Status: report.StatusOK}}
	got := b.TestResults()
	if got.Number != "7" || !got.Building || got.Report.Status != report.StatusOK {
		t.Errorf("TestResults() = %+v", got)
	}
}

type sliceStream struct {
	chunks []string
	err    error
}

func (s *sliceStream) Next(ctx context.Context) (string, error) {
	if len(s.chunks) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

func TestCopyLogs(t *testing.T) {
	var buf bytes.Buffer
	stream := &sliceStream{chunks: []string{"Started\n", "Running tests\n", "Finished: SUCCESS\n"}}

	if err := CopyLogs(context.Background(), &buf, stream); err != nil {
		t.Fatalf("CopyLogs() error = %v", err)
	}
	if buf.String() != "Started\nRunning tests\nFinished: SUCCESS\n" {
		t.Errorf("CopyLogs() wrote %q", buf.String())
	}

	// A consumed stream stays at its end.
	if _, err := stream.Next(context.Background()); err != io.EOF {
		t.Errorf("Next() after end = %v, want io.EOF", err)
	}
}

func TestCopyLogs_Error(t *testing.T) {
	boom := errors.New("boom")
	err := CopyLogs(context.Background(), io.Discard, &sliceStream{chunks: []string{"a"}, err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("CopyLogs() error = %v, want %v", err, boom)
	}
}
