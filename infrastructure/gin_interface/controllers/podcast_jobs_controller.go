package controllers

import (
	"net/http"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"
	"podcast-video-pipeline/infrastructure/gin_interface/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultNumTurns = 8

type PodcastJobsController interface {
	CreatePodcast(c *gin.Context)
	GetPodcast(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type podcastJobsController struct {
	logger   outbound.LoggerPort
	jobStore outbound.JobStorePort
}

func NewPodcastJobsController(logger outbound.LoggerPort, jobStore outbound.JobStorePort) PodcastJobsController {
	return &podcastJobsController{
		logger:   logger,
		jobStore: jobStore,
	}
}

// CreatePodcast enqueues a job and returns immediately; the batch runner
// picks it up on its next poll.
func (p *podcastJobsController) CreatePodcast(c *gin.Context) {
	var req dto.CreatePodcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.AbortWithError(http.StatusBadRequest, err); err != nil {
			p.logger.Error(err, "failed to abort with error")
		}
		return
	}
	if req.NumTurns == 0 {
		req.NumTurns = defaultNumTurns
	}

	job := domain.NewPodcastJob(uuid.NewString(), req.Profile, req.Topic, req.Mood, req.NumTurns)
	if err := p.jobStore.Save(c, job); err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			p.logger.Error(err, "failed to abort with error")
		}
		return
	}

	p.logger.InfoWithFields("podcast job enqueued", map[string]interface{}{
		"job_id":  job.ID,
		"profile": job.Profile,
	})

	c.JSON(http.StatusAccepted, dto.CreatePodcastResponse{
		JobID:  job.ID,
		Status: string(job.Status),
	})
}

func (p *podcastJobsController) GetPodcast(c *gin.Context) {
	job, err := p.jobStore.Get(c, c.Param("id"))
	if err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			p.logger.Error(err, "failed to abort with error")
		}
		return
	}
	if job == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, toJobResponse(job))
}

func (p *podcastJobsController) RegisterRoutes(g *gin.Engine) {
	g.POST("/podcasts", p.CreatePodcast)
	g.GET("/podcasts/:id", p.GetPodcast)
}

func toJobResponse(job *domain.PodcastJob) dto.PodcastJobResponse {
	return dto.PodcastJobResponse{
		JobID:     job.ID,
		Profile:   job.Profile,
		Topic:     job.Topic,
		Mood:      job.Mood,
		NumTurns:  job.NumTurns,
		Status:    string(job.Status),
		StepError: job.StepError,
		VideoKey:  job.VideoKey,
		ThumbKeys: job.ThumbKeys,
	}
}
