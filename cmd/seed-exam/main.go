package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/luminedu/assess-engine/internal/config"
	"github.com/luminedu/assess-engine/internal/database"
	"github.com/luminedu/assess-engine/internal/logger"
	"github.com/luminedu/assess-engine/internal/model"
	"github.com/luminedu/assess-engine/internal/repository"
)

// seed-exam provisions a demo exam plus a participant and a grader account
// so a fresh install can run an attempt end to end.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	participantRepo := repository.NewParticipantRepository(pool)
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Seed Demo Exam ===")

	// Participant
	fmt.Print("Participant number (default P-0001): ")
	participantNo, _ := reader.ReadString('\n')
	participantNo = strings.TrimSpace(participantNo)
	if participantNo == "" {
		participantNo = "P-0001"
	}

	fmt.Print("Participant name (default Demo Participant): ")
	displayName, _ := reader.ReadString('\n')
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "Demo Participant"
	}

	fmt.Print("Participant access code: ")
	codeBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil || len(codeBytes) < 6 {
		fmt.Println("Error: access code must be at least 6 characters")
		return
	}

	participantHash, err := bcrypt.GenerateFromPassword(codeBytes, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash access code")
	}

	participant := &model.ParticipantAccount{
		ParticipantNo:  participantNo,
		DisplayName:    displayName,
		AccessCodeHash: string(participantHash),
	}
	if err := participantRepo.Create(ctx, participant); err != nil {
		log.Fatal().Err(err).Msg("Failed to create participant")
	}
	fmt.Printf("Created participant '%s' with ID: %d\n", participant.ParticipantNo, participant.ID)

	// Grader
	fmt.Print("Grader email (default grader@example.com): ")
	graderEmail, _ := reader.ReadString('\n')
	graderEmail = strings.TrimSpace(graderEmail)
	if graderEmail == "" {
		graderEmail = "grader@example.com"
	}

	fmt.Print("Grader access code: ")
	graderCodeBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil || len(graderCodeBytes) < 6 {
		fmt.Println("Error: access code must be at least 6 characters")
		return
	}

	graderHash, err := bcrypt.GenerateFromPassword(graderCodeBytes, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash access code")
	}

	grader := &model.GraderAccount{
		Name:           "Demo Grader",
		Email:          graderEmail,
		AccessCodeHash: string(graderHash),
	}
	if err := participantRepo.CreateGrader(ctx, grader); err != nil {
		log.Fatal().Err(err).Msg("Failed to create grader")
	}
	fmt.Printf("Created grader '%s' with ID: %d\n", grader.Email, grader.ID)

	// Demo exams, one per format.
	mcExamID := seedMultipleChoiceExam(ctx, pool, log)
	wuExamID := seedWrittenUploadExam(ctx, pool, log)

	fmt.Printf("\nSeed completed!\n")
	fmt.Printf("  Multiple choice exam: %s\n", mcExamID)
	fmt.Printf("  Written upload exam:  %s\n", wuExamID)
}

func seedMultipleChoiceExam(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) uuid.UUID {
	examID := uuid.New()

	_, err := pool.Exec(ctx,
		`INSERT INTO exams (id, title, format, duration_minutes, total_marks, negative_marks_per_wrong)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		examID, "Demo Mathematics Quiz", model.FormatMultipleChoice, 30, 10.0, 0.5)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create multiple choice exam")
	}

	questions := []struct {
		text    string
		marks   float64
		options []string
		correct int
	}{
		{"What is 7 x 8?", 5.0, []string{"54", "56", "58", "64"}, 1},
		{"What is the square root of 144?", 5.0, []string{"10", "11", "12", "14"}, 2},
	}

	for i, q := range questions {
		options, _ := json.Marshal(q.options)
		_, err := pool.Exec(ctx,
			`INSERT INTO questions (id, exam_id, text, marks, options, correct_option, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), examID, q.text, q.marks, options, q.correct, i+1)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
	}

	return examID
}

func seedWrittenUploadExam(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) uuid.UUID {
	examID := uuid.New()

	_, err := pool.Exec(ctx,
		`INSERT INTO exams (id, title, format, duration_minutes, total_marks, negative_marks_per_wrong)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		examID, "Demo Essay Paper", model.FormatWrittenUpload, 60, 20.0, 0.0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create written upload exam")
	}

	questions := []struct {
		text  string
		marks float64
	}{
		{"Derive the quadratic formula and show every step.", 10.0},
		{"Prove that the sum of the first n odd numbers is n squared.", 10.0},
	}

	for i, q := range questions {
		_, err := pool.Exec(ctx,
			`INSERT INTO questions (id, exam_id, text, marks, correct_option, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), examID, q.text, q.marks, 0, i+1)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
	}

	return examID
}
