package config

import (
	"fmt"
	"os"
)

type DynamoConfig struct {
	JobsTableName string
}

func GetDynamoConfig() (*DynamoConfig, error) {
	tableName := os.Getenv("JOBS_TABLE_NAME")
	if tableName == "" {
		return nil, fmt.Errorf("JOBS_TABLE_NAME must be set")
	}

	return &DynamoConfig{
		JobsTableName: tableName,
	}, nil
}
