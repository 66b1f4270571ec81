package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/database"
	"github.com/hadirku/hadirku-backend/internal/logger"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
	"github.com/hadirku/hadirku-backend/internal/service"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	classRepo := repository.NewClassRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	classService := service.NewClassService(classRepo)
	studentService := service.NewStudentService(studentRepo)

	fmt.Println("=== Seeding Demo Roster ===")

	gradeLevel := "XI"
	majorCode := "RPL"
	groupNumber := 1

	// Find or create the demo class
	var classID int

	var existingClass model.Class
	err = pool.QueryRow(ctx, "SELECT id, grade_level, major_code, group_number FROM classes WHERE grade_level = $1 AND major_code = $2 AND group_number = $3", gradeLevel, majorCode, groupNumber).Scan(&existingClass.ID, &existingClass.GradeLevel, &existingClass.MajorCode, &existingClass.GroupNumber)

	if err != nil {
		if err == pgx.ErrNoRows {
			fmt.Println("Class XI RPL 1 not found. Creating it...")
			newClass := &model.Class{
				GradeLevel:  gradeLevel,
				MajorCode:   majorCode,
				GroupNumber: groupNumber,
			}
			if err := classService.Create(ctx, newClass); err != nil {
				log.Fatal().Err(err).Msg("Failed to create class")
			}
			classID = newClass.ID
			fmt.Printf("Created class with ID: %d\n", classID)
		} else {
			log.Fatal().Err(err).Msg("Failed to check existing class")
		}
	} else {
		classID = existingClass.ID
		fmt.Printf("Found existing class with ID: %d\n", classID)
	}

	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
		"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
		"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
		"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
		"Wahyu Hidayat", "Xena Maharani", "Yudi Pratama", "Zaki Anwar", "Alifia Zahra",
	}

	// All demo accounts share one password
	hash, err := bcrypt.GenerateFromPassword([]byte("hadirku123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	successCount := 0
	for i, name := range names {
		student := &model.Student{
			NISN:         fmt.Sprintf("00245%05d", i+1),
			Name:         name,
			ClassID:      classID,
			PasswordHash: string(hash),
		}

		if err := studentService.Create(ctx, student); err != nil {
			fmt.Printf("Error creating student %s (NISN: %s): %v\n", student.Name, student.NISN, err)
		} else {
			successCount++
			if (i+1)%10 == 0 {
				fmt.Printf("Created %d students...\n", i+1)
			}
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, len(names))
}
