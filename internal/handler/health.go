package handler

import (
	"context"
	"net/http"
	"time"

	"gstbilling/internal/infra"
	"gstbilling/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports DB and Redis connectivity, job queue depths and the words
// breaker state. A nil Redis client reports "disabled" without failing the
// check. An open breaker only degrades words, so it never fails the check.
func Health(db *gorm.DB, rdb *redis.Client, wordsCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		var queues map[string]worker.QueueStat
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else if stats, err := worker.Stats(ctx, rdb); err == nil {
				queues = stats
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if queues != nil {
			body["queues"] = queues
		}
		if wordsCB != nil {
			body["words_service"] = wordsCB.State().String()
		}
		c.JSON(status, body)
	}
}
