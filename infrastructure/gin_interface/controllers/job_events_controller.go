package controllers

import (
	"net/http"
	"time"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"

	"github.com/gin-gonic/gin"
)

const jobEventPollInterval = 2 * time.Second

type JobEventsController interface {
	StreamJobEvents(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type jobEventsController struct {
	logger   outbound.LoggerPort
	jobStore outbound.JobStorePort
}

func NewJobEventsController(logger outbound.LoggerPort, jobStore outbound.JobStorePort) JobEventsController {
	return &jobEventsController{
		logger:   logger,
		jobStore: jobStore,
	}
}

// StreamJobEvents pushes the job's status over SSE every time it changes,
// and closes the stream once the job reaches a terminal state or the client
// goes away.
func (j *jobEventsController) StreamJobEvents(c *gin.Context) {
	jobID := c.Param("id")

	job, err := j.jobStore.Get(c, jobID)
	if err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			j.logger.Error(err, "failed to abort with error")
		}
		return
	}
	if job == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	ticker := time.NewTicker(jobEventPollInterval)
	defer ticker.Stop()

	lastStatus := domain.JobStatus("")
	for {
		if job.Status != lastStatus {
			lastStatus = job.Status
			c.SSEvent("status", toJobResponse(job))
			c.Writer.Flush()
		}
		if job.Status == domain.JobCompleted || job.Status == domain.JobFailed {
			return
		}

		select {
		case <-clientGone:
			return
		case <-ticker.C:
			job, err = j.jobStore.Get(c, jobID)
			if err != nil {
				j.logger.ErrorWithFields(err, "failed to poll job for event stream", map[string]interface{}{
					"job_id": jobID,
				})
				c.SSEvent("error", "internal server error")
				return
			}
			if job == nil {
				c.SSEvent("error", "job disappeared")
				return
			}
		}
	}
}

func (j *jobEventsController) RegisterRoutes(g *gin.Engine) {
	g.GET("/podcasts/:id/events", j.StreamJobEvents)
}
