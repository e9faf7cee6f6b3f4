package db

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"

	"github.com/jsphweid/boomparts/config"
	"github.com/jsphweid/boomparts/model"
)

// BatchGetItem accepts at most this many keys per call.
const maxBatchKeys = 100

// MetadataStore looks up score metadata by score file name.
type MetadataStore struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

func New(cfg config.Metadata) (*MetadataStore, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not create a new DynamoDB session")
	}
	return NewWithClient(dynamodb.New(sess), cfg.Table), nil
}

func NewWithClient(client dynamodbiface.DynamoDBAPI, table string) *MetadataStore {
	return &MetadataStore{client: client, table: table}
}

// GetScoreMetadatas returns whatever the table knows about the given files,
// keyed by file name. Files with no entry are left out.
func (s *MetadataStore) GetScoreMetadatas(filenames []string) (map[string]model.ScoreMetadata, error) {
	res := make(map[string]model.ScoreMetadata)

	for start := 0; start < len(filenames); start += maxBatchKeys {
		end := start + maxBatchKeys
		if end > len(filenames) {
			end = len(filenames)
		}

		var keys []map[string]*dynamodb.AttributeValue
		for _, filename := range filenames[start:end] {
			keys = append(keys, map[string]*dynamodb.AttributeValue{
				"PK": {S: aws.String(filename)},
			})
		}

		input := &dynamodb.BatchGetItemInput{
			RequestItems: map[string]*dynamodb.KeysAndAttributes{
				s.table: {Keys: keys},
			},
		}
		dbres, err := s.client.BatchGetItem(input)
		if err != nil {
			return nil, errors.Wrap(err, "error from DynamoDB")
		}

		for _, v := range dbres.Responses[s.table] {
			key, md, ok := parseItem(v)
			if ok {
				res[key] = md
			}
		}
	}

	return res, nil
}

func parseItem(v map[string]*dynamodb.AttributeValue) (string, model.ScoreMetadata, bool) {
	pk := stringAttr(v, "PK")
	if pk == "" {
		return "", model.ScoreMetadata{}, false
	}
	var md model.ScoreMetadata
	if a := v["Year"]; a != nil && a.N != nil {
		year, _ := strconv.ParseUint(*a.N, 10, 32)
		md.Year = uint(year)
	}
	md.Title = stringAttr(v, "Title")
	md.Composer = stringAttr(v, "Composer")
	md.Arranger = stringAttr(v, "Arranger")
	return pk, md, true
}

func stringAttr(v map[string]*dynamodb.AttributeValue, name string) string {
	if a := v[name]; a != nil && a.S != nil {
		return *a.S
	}
	return ""
}

// Apply fills in whatever the score file itself left blank. A title that was
// only derived from the file name gives way to the catalogue's.
func Apply(s *model.Score, md model.ScoreMetadata, derivedTitle string) {
	if md.Title != "" && (s.Title == "" || s.Title == derivedTitle) {
		s.Title = md.Title
	}
	if s.Composer == "" {
		s.Composer = md.Composer
	}
}
