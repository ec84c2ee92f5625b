package adapters

import (
	"context"
	"strconv"
	"time"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/config"
	"podcast-video-pipeline/domain"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

type dynamoJobItem struct {
	JobId     string   `dynamodbav:"job_id"`
	Profile   string   `dynamodbav:"profile"`
	Topic     string   `dynamodbav:"topic"`
	Mood      string   `dynamodbav:"mood"`
	NumTurns  int      `dynamodbav:"num_turns"`
	Status    string   `dynamodbav:"status"`
	StepError string   `dynamodbav:"step_error,omitempty"`
	VideoKey  string   `dynamodbav:"video_key,omitempty"`
	ThumbKeys []string `dynamodbav:"thumb_keys,omitempty"`
	CreatedAt int64    `dynamodbav:"created_at"`
	UpdatedAt int64    `dynamodbav:"updated_at"`
}

type dynamoJobStore struct {
	logger       outbound.LoggerPort
	dynamoSvc    *dynamodb.DynamoDB
	dynamoConfig *config.DynamoConfig
}

func NewDynamoJobStore(logger outbound.LoggerPort, dynamoSvc *dynamodb.DynamoDB,
	dynamoConfig *config.DynamoConfig) outbound.JobStorePort {
	return &dynamoJobStore{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (s *dynamoJobStore) Save(ctx context.Context, job domain.PodcastJob) error {
	av, err := dynamodbattribute.MarshalMap(toItem(job))
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to marshal job item", map[string]interface{}{
			"job_id": job.ID,
		})
		return err
	}

	_, err = s.dynamoSvc.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(s.dynamoConfig.JobsTableName),
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to save job item", map[string]interface{}{
			"job_id": job.ID,
		})
	}
	return err
}

func (s *dynamoJobStore) Get(ctx context.Context, jobID string) (*domain.PodcastJob, error) {
	out, err := s.dynamoSvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.dynamoConfig.JobsTableName),
		Key:       jobKey(jobID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var item dynamoJobItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	job := fromItem(item)
	return &job, nil
}

// NextPending scans for pending jobs and returns the oldest of the page, or
// nil when the backlog is empty. A scan is acceptable here: the table only
// ever holds a small working set of jobs.
func (s *dynamoJobStore) NextPending(ctx context.Context) (*domain.PodcastJob, error) {
	out, err := s.dynamoSvc.ScanWithContext(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.dynamoConfig.JobsTableName),
		FilterExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]*string{
			"#status": aws.String("status"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pending": {S: aws.String(string(domain.JobPending))},
		},
		Limit: aws.Int64(25),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var oldest *dynamoJobItem
	for _, raw := range out.Items {
		var item dynamoJobItem
		if err := dynamodbattribute.UnmarshalMap(raw, &item); err != nil {
			return nil, err
		}
		if oldest == nil || item.CreatedAt < oldest.CreatedAt {
			cp := item
			oldest = &cp
		}
	}
	job := fromItem(*oldest)
	return &job, nil
}

// Claim moves a pending job to downloading_inputs. The conditional write is
// what keeps two pollers from both running the same job.
func (s *dynamoJobStore) Claim(ctx context.Context, jobID string) error {
	_, err := s.dynamoSvc.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.dynamoConfig.JobsTableName),
		Key:                 jobKey(jobID),
		UpdateExpression:    aws.String("SET #status = :claimed, updated_at = :now"),
		ConditionExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]*string{
			"#status": aws.String("status"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pending": {S: aws.String(string(domain.JobPending))},
			":claimed": {S: aws.String(string(domain.JobDownloadingInputs))},
			":now":     {N: aws.String(nowEpoch())},
		},
	})
	return err
}

func (s *dynamoJobStore) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, stepError string) error {
	_, err := s.dynamoSvc.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.dynamoConfig.JobsTableName),
		Key:              jobKey(jobID),
		UpdateExpression: aws.String("SET #status = :status, step_error = :step_error, updated_at = :now"),
		ExpressionAttributeNames: map[string]*string{
			"#status": aws.String("status"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":status":     {S: aws.String(string(status))},
			":step_error": {S: aws.String(stepError)},
			":now":        {N: aws.String(nowEpoch())},
		},
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to update job status", map[string]interface{}{
			"job_id": jobID,
			"status": string(status),
		})
	}
	return err
}

func (s *dynamoJobStore) SetOutputs(ctx context.Context, jobID string, videoKey string, thumbKeys []string) error {
	values := map[string]*dynamodb.AttributeValue{
		":video_key": {S: aws.String(videoKey)},
		":now":       {N: aws.String(nowEpoch())},
	}
	update := "SET video_key = :video_key, updated_at = :now"
	if len(thumbKeys) > 0 {
		list, err := dynamodbattribute.Marshal(thumbKeys)
		if err != nil {
			return err
		}
		values[":thumb_keys"] = list
		update += ", thumb_keys = :thumb_keys"
	}

	_, err := s.dynamoSvc.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.dynamoConfig.JobsTableName),
		Key:                       jobKey(jobID),
		UpdateExpression:          aws.String(update),
		ExpressionAttributeValues: values,
	})
	return err
}

func jobKey(jobID string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"job_id": {S: aws.String(jobID)},
	}
}

func nowEpoch() string {
	return strconv.FormatInt(time.Now().UTC().UnixMilli(), 10)
}

func toItem(job domain.PodcastJob) dynamoJobItem {
	return dynamoJobItem{
		JobId:     job.ID,
		Profile:   job.Profile,
		Topic:     job.Topic,
		Mood:      job.Mood,
		NumTurns:  job.NumTurns,
		Status:    string(job.Status),
		StepError: job.StepError,
		VideoKey:  job.VideoKey,
		ThumbKeys: job.ThumbKeys,
		CreatedAt: job.CreatedAt.UnixMilli(),
		UpdatedAt: job.UpdatedAt.UnixMilli(),
	}
}

func fromItem(item dynamoJobItem) domain.PodcastJob {
	return domain.PodcastJob{
		ID:        item.JobId,
		Profile:   item.Profile,
		Topic:     item.Topic,
		Mood:      item.Mood,
		NumTurns:  item.NumTurns,
		Status:    domain.JobStatus(item.Status),
		StepError: item.StepError,
		VideoKey:  item.VideoKey,
		ThumbKeys: item.ThumbKeys,
		CreatedAt: time.UnixMilli(item.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(item.UpdatedAt).UTC(),
	}
}
