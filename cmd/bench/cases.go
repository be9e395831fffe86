// README: Bench cases walking the ride lifecycle end to end, plus DB, Redis, race and throughput checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sahayog/internal/infra"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	run     string
	tokens  map[string]string
	rideID  string
	vehicle string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

// apiResponse is the decoded body of one call.
type apiResponse struct {
	Status int
	Body   map[string]any
	Raw    []byte
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: 10 * time.Second},
		run:    strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		tokens: map[string]string{},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

// token returns a cached bearer token for a bench actor.
func (r *Runner) token(name, role string, admin bool) (string, error) {
	key := fmt.Sprintf("%s/%s/%t", name, role, admin)
	if tok, ok := r.tokens[key]; ok {
		return tok, nil
	}
	tok, err := infra.MintToken([]byte(r.cfg.JWTSecret), name+"-"+r.run, role, admin, time.Hour)
	if err != nil {
		return "", err
	}
	r.tokens[key] = tok
	return tok, nil
}

func (r *Runner) call(ctx context.Context, method, path, tok string, body any, headers map[string]string) (apiResponse, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return apiResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return apiResponse{}, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := apiResponse{Status: resp.StatusCode, Raw: raw}
	_ = json.Unmarshal(raw, &out.Body)
	return out, nil
}

// step runs one authenticated call and checks the status code.
func (r *Runner) step(ctx context.Context, actor, role string, admin bool, method, path string, body any, want int) (apiResponse, Result) {
	if r.cfg.JWTSecret == "" {
		return apiResponse{}, Result{Status: "SKIP", Note: "jwt secret not configured"}
	}
	tok, err := r.token(actor, role, admin)
	if err != nil {
		return apiResponse{}, Result{Status: "FAIL", Note: err.Error()}
	}
	start := time.Now()
	resp, err := r.call(ctx, method, path, tok, body, nil)
	if err != nil {
		return resp, Result{Status: "FAIL", Note: err.Error()}
	}
	latency := time.Since(start)
	if resp.Status != want {
		return resp, Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d body=%s", resp.Status, resp.Raw)}
	}
	return resp, Result{Status: "PASS", Latency: latency}
}

func rideBody() map[string]any {
	return map[string]any{
		"pickup_latitude":   12.90,
		"pickup_longitude":  77.59,
		"pickup_address":    "MG Road",
		"dropoff_latitude":  12.95,
		"dropoff_longitude": 77.60,
		"dropoff_address":   "Indiranagar",
		"estimated_fare":    "150.00",
	}
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: "FAIL", Note: "db not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Env: Redis connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: "FAIL", Note: "redis not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Migration: apply (optional)", Run: func(ctx context.Context, r *Runner) Result {
			if !r.cfg.ApplyMigration {
				return Result{Status: "SKIP", Note: "apply-migration=false"}
			}
			if r.db == nil {
				return Result{Status: "FAIL", Note: "db not configured"}
			}
			sql, err := os.ReadFile(r.cfg.MigrationPath)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			for _, s := range splitSQL(string(sql)) {
				if _, err := r.db.Exec(ctx, s); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Migration: tables exist", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: "FAIL", Note: "db not configured"}
			}
			tables, err := extractTables(r.cfg.MigrationPath)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			for _, t := range tables {
				var exists bool
				err := r.db.QueryRow(ctx,
					"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", t,
				).Scan(&exists)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if !exists {
					return Result{Status: "FAIL", Note: "missing table: " + t}
				}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			resp, err := r.call(ctx, http.MethodGet, "/health", "", nil, nil)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if resp.Status != http.StatusOK {
				return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.Status)}
			}
			return Result{Status: "PASS", Latency: time.Since(start)}
		}},
		{Name: "Auth: missing token -> 401", Run: func(ctx context.Context, r *Runner) Result {
			resp, err := r.call(ctx, http.MethodGet, "/rides/", "", nil, nil)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if resp.Status != http.StatusUnauthorized {
				return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.Status)}
			}
			return Result{Status: "PASS"}
		}},

		{Name: "Ride: customer creates ride", Run: func(ctx context.Context, r *Runner) Result {
			resp, res := r.step(ctx, "cust", "customer", false, http.MethodPost, "/rides/", rideBody(), http.StatusCreated)
			if res.Status != "PASS" {
				return res
			}
			if resp.Body["status"] != "requested" || resp.Body["driver"] != nil {
				return Result{Status: "FAIL", Note: string(resp.Raw)}
			}
			r.rideID, _ = resp.Body["id"].(string)
			return res
		}},
		{Name: "Ride: idempotent replay", Run: func(ctx context.Context, r *Runner) Result {
			if r.cfg.JWTSecret == "" {
				return Result{Status: "SKIP", Note: "jwt secret not configured"}
			}
			tok, _ := r.token("cust", "customer", false)
			headers := map[string]string{"Idempotency-Key": "bench-" + r.run}
			first, err := r.call(ctx, http.MethodPost, "/rides/", tok, rideBody(), headers)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			second, err := r.call(ctx, http.MethodPost, "/rides/", tok, rideBody(), headers)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if first.Status != http.StatusCreated || second.Body["id"] != first.Body["id"] {
				return Result{Status: "FAIL", Note: fmt.Sprintf("first=%d ids %v vs %v", first.Status, first.Body["id"], second.Body["id"])}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Ride: accept without vehicle -> 400", Run: func(ctx context.Context, r *Runner) Result {
			resp, res := r.step(ctx, "drv", "driver", false, http.MethodPost, "/rides/"+r.rideID+"/accept/", nil, http.StatusBadRequest)
			if res.Status == "PASS" && resp.Body["error"] != "no_eligible_vehicle" {
				return Result{Status: "FAIL", Note: string(resp.Raw)}
			}
			return res
		}},
		{Name: "Vehicle: driver registers vehicle", Run: func(ctx context.Context, r *Runner) Result {
			body := map[string]any{
				"vehicle_type": "auto", "make": "Bajaj", "model": "RE", "year": 2021,
				"license_plate": "KA01" + strings.ToUpper(r.run), "fuel_type": "cng", "seating_capacity": 3,
			}
			resp, res := r.step(ctx, "drv", "driver", false, http.MethodPost, "/vehicles/", body, http.StatusCreated)
			r.vehicle, _ = resp.Body["id"].(string)
			return res
		}},
		{Name: "Admin: verify vehicle", Run: func(ctx context.Context, r *Runner) Result {
			_, res := r.step(ctx, "ops", "", true, http.MethodPost, "/admin/vehicles/"+r.vehicle+"/verify/", nil, http.StatusOK)
			return res
		}},
		{Name: "Concurrency: multi accept same ride", Run: func(ctx context.Context, r *Runner) Result {
			return concurrentAccept(ctx, r)
		}},
		{Name: "Ride: invalid transition -> 409", Run: func(ctx context.Context, r *Runner) Result {
			_, res := r.step(ctx, "drv", "driver", false, http.MethodPost, "/rides/"+r.rideID+"/status/",
				map[string]any{"status": "in_progress"}, http.StatusConflict)
			return res
		}},
		{Name: "Ride: stranger status update -> 403", Run: func(ctx context.Context, r *Runner) Result {
			_, res := r.step(ctx, "stranger", "customer", false, http.MethodPost, "/rides/"+r.rideID+"/status/",
				map[string]any{"status": "cancelled"}, http.StatusForbidden)
			return res
		}},
		{Name: "Ride: picked up", Run: func(ctx context.Context, r *Runner) Result {
			_, res := r.step(ctx, "drv", "driver", false, http.MethodPost, "/rides/"+r.rideID+"/status/",
				map[string]any{"status": "picked_up"}, http.StatusOK)
			return res
		}},
		{Name: "Ride: completed with actual fare", Run: func(ctx context.Context, r *Runner) Result {
			resp, res := r.step(ctx, "drv", "driver", false, http.MethodPost, "/rides/"+r.rideID+"/status/",
				map[string]any{"status": "completed", "actual_fare": "180.00"}, http.StatusOK)
			if res.Status == "PASS" && resp.Body["actual_fare"] != "180.00" {
				return Result{Status: "FAIL", Note: string(resp.Raw)}
			}
			return res
		}},
		{Name: "Ride: completed cannot cancel", Run: func(ctx context.Context, r *Runner) Result {
			_, res := r.step(ctx, "cust", "customer", false, http.MethodPost, "/rides/"+r.rideID+"/status/",
				map[string]any{"status": "cancelled"}, http.StatusConflict)
			return res
		}},
		{Name: "Rating: customer rates driver", Run: func(ctx context.Context, r *Runner) Result {
			_, res := r.step(ctx, "cust", "customer", false, http.MethodPost, "/rides/"+r.rideID+"/rate/",
				map[string]any{"rating": 5, "comment": "smooth ride"}, http.StatusCreated)
			return res
		}},
		{Name: "Rating: second rating -> already_rated", Run: func(ctx context.Context, r *Runner) Result {
			_, res := r.step(ctx, "drv", "driver", false, http.MethodPost, "/rides/"+r.rideID+"/rate/",
				map[string]any{"rating": 4}, http.StatusBadRequest)
			return res
		}},
		{Name: "Driver: average rating refreshed", Run: func(ctx context.Context, r *Runner) Result {
			resp, res := r.step(ctx, "drv", "driver", false, http.MethodGet, "/driver-profile/", nil, http.StatusOK)
			if res.Status != "PASS" {
				return res
			}
			if avg, _ := resp.Body["average_rating"].(float64); avg != 5 {
				return Result{Status: "FAIL", Note: string(resp.Raw)}
			}
			return res
		}},
		{Name: "Driver: go online near pickup", Run: func(ctx context.Context, r *Runner) Result {
			body := map[string]any{"is_online": true, "current_latitude": 12.91, "current_longitude": 77.59}
			if _, res := r.step(ctx, "drv", "driver", false, http.MethodPut, "/driver-profile/", body, http.StatusOK); res.Status != "PASS" {
				return res
			}
			_, res := r.step(ctx, "ops", "", true, http.MethodPost, "/admin/drivers/drv-"+r.run+"/verify/", nil, http.StatusOK)
			return res
		}},
		{Name: "Proximity: nearby drivers includes driver", Run: func(ctx context.Context, r *Runner) Result {
			if r.cfg.JWTSecret == "" {
				return Result{Status: "SKIP", Note: "jwt secret not configured"}
			}
			tok, _ := r.token("cust", "customer", false)
			start := time.Now()
			resp, err := r.call(ctx, http.MethodGet, "/nearby-drivers/?latitude=12.90&longitude=77.59", tok, nil, nil)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			var drivers []map[string]any
			if err := json.Unmarshal(resp.Raw, &drivers); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			for _, d := range drivers {
				if d["driver_id"] == "drv-"+r.run {
					return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("distance=%v", d["distance"])}
				}
			}
			return Result{Status: "FAIL", Note: fmt.Sprintf("driver missing from %d results", len(drivers))}
		}},
		{Name: "Consistency: state events recorded", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil || r.rideID == "" {
				return Result{Status: "SKIP", Note: "db or ride not available"}
			}
			var n int
			if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ride_state_events WHERE ride_id = $1`, r.rideID).Scan(&n); err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if n != 4 {
				return Result{Status: "FAIL", Note: fmt.Sprintf("events=%d want 4", n)}
			}
			return Result{Status: "PASS"}
		}},
		{Name: "Perf: request ride throughput", Run: func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r)
		}},
	}
}

// concurrentAccept fires Concurrency accepts at the ride; exactly one may win.
func concurrentAccept(ctx context.Context, r *Runner) Result {
	if r.cfg.JWTSecret == "" || r.rideID == "" {
		return Result{Status: "SKIP", Note: "jwt secret or ride not available"}
	}
	tok, err := r.token("drv", "driver", false)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succ, notFound := 0, 0
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := r.call(ctx, http.MethodPost, "/rides/"+r.rideID+"/accept/", tok, nil, nil)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch resp.Status {
			case http.StatusOK:
				succ++
			case http.StatusNotFound:
				notFound++
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("success=%d not_found=%d", succ, notFound)
	if succ == 1 && notFound == r.cfg.Concurrency-1 {
		return Result{Status: "PASS", Note: note}
	}
	return Result{Status: "FAIL", Note: note}
}

func perfLoad(ctx context.Context, r *Runner) Result {
	if r.cfg.JWTSecret == "" {
		return Result{Status: "SKIP", Note: "jwt secret not configured"}
	}
	tok, err := r.token("loadcust", "customer", false)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}

	end := time.Now().Add(r.cfg.Duration)
	var count, errCount, limited int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				resp, err := r.call(ctx, http.MethodPost, "/rides/", tok, rideBody(), nil)
				mu.Lock()
				switch {
				case err != nil:
					errCount++
				case resp.Status == http.StatusTooManyRequests:
					limited++
				default:
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d rate_limited=%d", rps, errCount, limited)}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
