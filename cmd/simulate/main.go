package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthagent/health-agent-server/internal/config"
	"github.com/healthagent/health-agent-server/internal/db"
)

type simConfig struct {
	APIBaseURL  string
	Workers     int
	Rounds      int
	PostgresDSN string
}

type metrics struct {
	total     int64
	booked    int64
	conflicts int64
	errors    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *metrics) record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case err != nil:
		atomic.AddInt64(&m.errors, 1)
	case status == http.StatusCreated:
		atomic.AddInt64(&m.booked, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflicts, 1)
	default:
		atomic.AddInt64(&m.errors, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := simConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Workers:     getInt("SIM_WORKERS", 16),
		Rounds:      getInt("SIM_ROUNDS", 10),
		PostgresDSN: baseCfg.PostgresDSN,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	doctors, err := loadIDs(ctx, pgPool, `SELECT id FROM doctors LIMIT 50`)
	if err != nil {
		log.Fatalf("load doctors: %v", err)
	}
	patients, err := loadIDs(ctx, pgPool, `SELECT id FROM patients LIMIT 500`)
	if err != nil {
		log.Fatalf("load patients: %v", err)
	}
	if len(doctors) == 0 || len(patients) == 0 {
		log.Fatal("no doctors or patients found, run cmd/seed first")
	}

	log.Printf("loaded %d doctors, %d patients", len(doctors), len(patients))

	client := &http.Client{Timeout: 10 * time.Second}
	var m metrics

	// Each round sends every worker at the same interval, so at most one
	// booking per round can succeed.
	date := nextMonday().Format("2006-01-02")
	for round := 0; round < cfg.Rounds; round++ {
		doctorID := doctors[rand.Intn(len(doctors))]
		slot := fmt.Sprintf("%02d:00", 9+round%8)

		var wg sync.WaitGroup
		for w := 0; w < cfg.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				patientID := patients[rand.Intn(len(patients))]
				book(client, cfg.APIBaseURL, doctorID, patientID, date, slot, &m)
			}()
		}
		wg.Wait()
	}

	printReport(cfg, &m)
}

func book(client *http.Client, baseURL string, doctorID, patientID uuid.UUID, date, slot string, m *metrics) {
	body, _ := json.Marshal(map[string]string{
		"doctor_id":  doctorID.String(),
		"patient_id": patientID.String(),
		"date":       date,
		"time":       slot,
	})

	start := time.Now()

	req, _ := http.NewRequest(http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	latency := time.Since(start)

	status := 0
	if err == nil {
		status = resp.StatusCode
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	m.record(latency, status, err)
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func nextMonday() time.Time {
	now := time.Now()
	delta := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return now.AddDate(0, 0, delta)
}

func printReport(cfg simConfig, m *metrics) {
	m.mu.Lock()
	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	m.mu.Unlock()

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	fmt.Println("\nSIMULATION REPORT")
	fmt.Printf("Rounds: %d  Workers per round: %d\n", cfg.Rounds, cfg.Workers)
	fmt.Printf("Total requests: %d\n", m.total)
	fmt.Printf("Booked: %d  Conflicts: %d  Errors: %d\n", m.booked, m.conflicts, m.errors)

	if len(latencies) > 0 {
		avg := sum / time.Duration(len(latencies))
		p95 := latencies[len(latencies)*95/100]
		fmt.Printf("Latency: avg=%s p95=%s max=%s\n",
			avg.Round(time.Millisecond), p95.Round(time.Millisecond),
			latencies[len(latencies)-1].Round(time.Millisecond))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
