package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/luminedu/assess-engine/internal/engine"
	"github.com/luminedu/assess-engine/internal/model"
)

func registryExam() *model.ExamDefinition {
	return &model.ExamDefinition{
		ID:              uuid.New(),
		Title:           "Registry drill",
		Format:          model.FormatMultipleChoice,
		DurationMinutes: 30,
		TotalMarks:      10,
		Questions: []model.Question{
			{ID: uuid.New(), Text: "Q1", Marks: 10, Options: []string{"a", "b"}, CorrectOption: 0},
		},
	}
}

func TestEvict_MeasuresRetentionFromSessionEnd(t *testing.T) {
	running := engine.NewSession(registryExam(), model.Participant{ID: 1}, nil, zerolog.Nop())
	if err := running.Start(); err != nil {
		t.Fatalf("Start running: %v", err)
	}
	t.Cleanup(running.Abandon)

	finished := engine.NewSession(registryExam(), model.Participant{ID: 2}, nil, zerolog.Nop())
	if err := finished.Start(); err != nil {
		t.Fatalf("Start finished: %v", err)
	}
	if _, err := finished.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	svc := NewSessionService(nil, nil, nil, nil, zerolog.Nop())
	svc.sessions[running.ID] = running
	svc.sessions[finished.ID] = finished

	// The session just ended, so the full retention window applies no
	// matter how long the attempt itself ran.
	if n := svc.Evict(30 * time.Minute); n != 0 {
		t.Fatalf("Evict(30m) removed %d sessions, want 0", n)
	}

	// A cutoff past the end time removes terminal sessions only.
	if n := svc.Evict(-time.Second); n != 1 {
		t.Fatalf("Evict(-1s) removed %d sessions, want 1", n)
	}
	if _, ok := svc.get(finished.ID); ok {
		t.Fatal("finalized session still registered after eviction")
	}
	if _, ok := svc.get(running.ID); !ok {
		t.Fatal("running session was evicted")
	}
}
