package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/application/services"
	"podcast-video-pipeline/config"
	"podcast-video-pipeline/infrastructure/adapters"
	"podcast-video-pipeline/infrastructure/gin_interface/controllers"
	"podcast-video-pipeline/middleware"
	mockproviders "podcast-video-pipeline/mock"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

func main() {
	// Local runs keep their settings in a .env file; in deployment the
	// environment is already populated and the file is absent.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	zeroLogger := adapters.NewZerologWrapper()

	pipelineConfig, err := config.GetPipelineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get pipeline config")
	}

	encodeConfig, err := config.GetEncodeConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get encode config")
	}

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	audioPool, err := ants.NewPool(pipelineConfig.AudioWorkers, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create audio worker pool")
	}
	defer audioPool.Release()

	// One whole job per video worker: each holds decoded PCM and transient
	// ffmpeg outputs in memory and on disk.
	videoPool, err := ants.NewPool(pipelineConfig.VideoWorkers, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create video worker pool")
	}
	defer videoPool.Release()

	trackCodec := adapters.NewFFmpegTrackCodec(zeroLogger)
	segmentBuilder := adapters.NewFFmpegSegmentBuilder(zeroLogger, encodeConfig)
	concatenator := adapters.NewFFmpegVideoConcatenator(zeroLogger, encodeConfig)
	thumbnailer := adapters.NewFFmpegThumbnailer(zeroLogger)

	mockMode := os.Getenv("MOCK_MODE") == "true"

	var (
		jobStore              outbound.JobStorePort
		conversationGenerator outbound.ConversationGeneratorPort
		speechGenerator       outbound.SpeechGeneratorPort
		avatarRenderer        outbound.AvatarRendererPort
		publisher             outbound.VideoPublisherPort
	)
	if mockMode {
		zeroLogger.Warn("MOCK_MODE is on: using local providers, nothing will be billed or uploaded")
		jobStore = mockproviders.NewMemoryJobStore()
		conversationGenerator = mockproviders.NewMockConversationGenerator(zeroLogger)
		speechGenerator = mockproviders.NewMockSpeechGenerator(zeroLogger)
		avatarRenderer = mockproviders.NewMockAvatarRenderer(zeroLogger)
		publisher = mockproviders.NewLocalVideoPublisher(zeroLogger, filepath.Join(pipelineConfig.WorkRoot, "published"))
	} else {
		gptConfig, err := config.GetGptConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get gpt config")
		}
		elevenLabsConfig, err := config.GetElevenLabsConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get eleven labs config")
		}
		heyGenConfig, err := config.GetHeyGenConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get heygen config")
		}
		s3Config, err := config.GetS3Config()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get s3 config")
		}
		dynamoConfig, err := config.GetDynamoConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get dynamo config")
		}

		sess := session.Must(session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		}))
		s3Client := s3.New(sess)
		dynamoClient := dynamodb.New(sess)

		contentFetcher := adapters.NewContentFetcher(zeroLogger)

		jobStore = adapters.NewDynamoJobStore(zeroLogger, dynamoClient, dynamoConfig)
		conversationGenerator = adapters.NewConversationGenerator(gptConfig, zeroLogger)
		speechGenerator = adapters.NewSpeechGenerator(contentFetcher, zeroLogger, elevenLabsConfig)
		avatarRenderer = adapters.NewAvatarRenderer(contentFetcher, zeroLogger, heyGenConfig)
		publisher = adapters.NewS3VideoPublisher(zeroLogger, s3Client, s3Config)
	}

	mixer := services.NewConversationMixer(zeroLogger, trackCodec)
	turnAudioRenderer := services.NewTurnAudioRenderer(zeroLogger, speechGenerator, audioPool)
	assembler := services.NewVideoAssembler(zeroLogger, segmentBuilder, concatenator)

	jobRunner := services.NewPodcastJobRunner(
		zeroLogger,
		pipelineConfig,
		jobStore,
		conversationGenerator,
		turnAudioRenderer,
		mixer,
		trackCodec,
		assembler,
		thumbnailer,
		publisher,
		avatarRenderer,
		videoPool,
		audioPool,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go jobRunner.Run(ctx)

	router := gin.Default()
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	if !mockMode {
		jwksUrl := os.Getenv("JWKS_URL")
		if jwksUrl == "" {
			log.Fatal().Msg("JWKS_URL is not set!")
		}
		authHandler, err := middleware.NewAuthHandler(jwksUrl)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth handler!")
		}
		router.Use(authHandler.AuthMiddleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	controllers.NewPodcastJobsController(zeroLogger, jobStore).RegisterRoutes(router)
	controllers.NewJobEventsController(zeroLogger, jobStore).RegisterRoutes(router)

	if err := router.Run(":8080"); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}
