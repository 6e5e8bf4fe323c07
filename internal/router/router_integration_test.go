//go:build integration

package router_test

// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"net/http"
	"testing"
	"time"

	"gstbilling/internal/infra"
	"gstbilling/internal/metrics"
	"gstbilling/internal/repository"
	"gstbilling/internal/router"
	"gstbilling/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestE2E_PostgresRedis_BillRenderedByWorker(t *testing.T) {
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("billing_test"),
		tcPostgres.WithUsername("billing"),
		tcPostgres.WithPassword("billing"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.DatabaseURL = pgURL
	cfg.RedisURL = rdURL
	cfg.WorkerPoolSize = 1

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	m := metrics.New()
	bills := repository.NewBillRepository(db)
	dispatcher := worker.NewDispatcher(rdb)

	runCtx, cancel := context.WithCancel(ctx)
	pool := worker.StartWorkerPool(runCtx, rdb, worker.WorkerHandlers{
		PDF: worker.NewPDFWorker(bills, dispatcher, infra.CompanyFromConfig(cfg), cfg.PDFStoragePath),
	}, cfg.WorkerPoolSize, m)
	t.Cleanup(func() {
		cancel()
		pool.Wait()
	})

	gin.SetMode(gin.TestMode)
	app := router.New(cfg, router.Deps{
		DB:      db,
		Redis:   rdb,
		Words:   infra.IndianWords{},
		Jobs:    dispatcher,
		Metrics: m,
	})
	c := &client{t: t, engine: app.Engine}

	w := c.call(http.MethodPost, "/v1/auth/register", map[string]string{
		"username": "owner", "email": "owner@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c.token = login(c, "owner", "secret123")

	w = c.call(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"connected"`)
	assert.Contains(t, w.Body.String(), `"jobs:invoice_pdf"`)

	// Words conversions are cached in Redis.
	require.Equal(t, http.StatusOK, c.call(http.MethodGet, "/v1/number-to-words/913183", nil).Code)
	cached, err := rdb.Get(ctx, "words:913183.00").Result()
	require.NoError(t, err)
	assert.Equal(t, "Nine Lakh Thirteen Thousand One Hundred and Eighty Three Rupees Only", cached)

	w = c.call(http.MethodPost, "/v1/bills", map[string]any{
		"invoice_no": "INV-E2E-1", "invoice_date": "2024-04-01", "customer_name": "Sharma Traders",
		"payment_status": "paid",
		"items": []map[string]any{
			{"name": "Cement 50kg", "hsn": "2523", "qty": "10", "rate": "380", "cgst_percent": "9", "sgst_percent": "9"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var bill struct {
		ID          string  `json:"id"`
		PaymentDate *string `json:"payment_date"`
	}
	decode(t, w, &bill)
	assert.NotNil(t, bill.PaymentDate)

	// The PDF worker picks up the job and records the file on the bill.
	id := uuid.MustParse(bill.ID)
	require.Eventually(t, func() bool {
		b, err := bills.FindByID(ctx, id)
		return err == nil && b.PDFPath != nil
	}, 20*time.Second, 200*time.Millisecond)

	w = c.call(http.MethodGet, "/v1/bills/"+bill.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_pdf":true`)

	w = c.call(http.MethodGet, "/v1/analytics/monthly-sales?year=2024", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"month":"2024-04"`)
}
