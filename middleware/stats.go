package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-insight/backend/stats"
)

// AnalyzeTargetKey is set by the analyze handler to the page URL being
// analyzed, so the stats middleware can attribute the request to it.
const AnalyzeTargetKey = "analyzeTarget"

// Stats tracks visitors and analysis requests. Statistics are flushed to
// disk asynchronously every hundred analysis requests.
func Stats(tracker *stats.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		tracker.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.URL.Path != "/api/analyze" || c.Request.Method != "POST" {
			return
		}

		elapsed := float64(time.Since(start).Milliseconds())
		tracker.TrackAnalysis(c.GetString(AnalyzeTargetKey), elapsed, c.Writer.Status() >= 400)

		if snapshot := tracker.Snapshot(); snapshot["totalRequests"].(int)%100 == 0 {
			go tracker.Save()
		}
	}
}
