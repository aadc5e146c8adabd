package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthagent/health-agent-server/internal/db"
	"github.com/healthagent/health-agent-server/internal/schedule"
)

var specializations = []string{
	"General Physician",
	"Cardiologist",
	"Nutritionist",
	"Orthopedic",
	"Endocrinologist",
	"Psychiatrist",
	"Dermatologist",
	"Physiotherapist",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	store := schedule.NewPgStore(pool)

	if err := seedDoctors(context.Background(), pool, store, 20); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, store *schedule.PgStore, count int) error {
	log.Printf("seeding %d doctors", count)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specializations[gofakeit.Number(0, len(specializations)-1)]
		fee := gofakeit.Number(400, 800)

		_, err := pool.Exec(ctx, `
			INSERT INTO doctors (id, name, email, specialization, consultation_fee, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, name, gofakeit.Email(), spec, fee)
		if err != nil {
			return err
		}

		// Monday through Saturday, one window per day.
		rows := make([]schedule.RecurringAvailability, 0, 6)
		for day := 1; day <= 6; day++ {
			rows = append(rows, schedule.RecurringAvailability{
				ID:          uuid.New(),
				DoctorID:    id,
				DayOfWeek:   day,
				StartTime:   "09:00",
				EndTime:     "17:00",
				SlotMinutes: 30,
				IsActive:    true,
			})
		}
		if err := store.ReplaceAvailability(ctx, id, rows); err != nil {
			return err
		}

		log.Printf("created doctor %s (%s)", name, spec)
	}

	log.Println("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
