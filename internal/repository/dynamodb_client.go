package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"greetings/internal/domain"
	"greetings/internal/logging"
)

const pkPrefixCountry = "COUNTRY#"

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client wraps a DynamoDB table of country greetings.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// greetingItem is the stored shape of a CountryGreeting. The key is kept
// alongside the record's own fields.
type greetingItem struct {
	PK       string `dynamodbav:"PK"`
	Country  string `dynamodbav:"country"`
	Greeting string `dynamodbav:"greeting"`
}

// countryPK returns the DynamoDB partition key for a country.
func countryPK(country string) string {
	return pkPrefixCountry + country
}

func keyFor(country string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: countryPK(country)},
	}
}

// GetCountryGreeting reads the greeting stored for country. It returns nil
// and no error when nothing is stored.
func (c *Client) GetCountryGreeting(ctx context.Context, country string) (*domain.CountryGreeting, error) {
	log := logging.FromContext(ctx)
	in := &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key:       keyFor(country),
	}
	log.Debug("getting country greeting", "table", c.tableName, "pk", countryPK(country))

	out, err := c.api.GetItem(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: GetCountryGreeting: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		log.Debug("country greeting not found", "pk", countryPK(country))
		return nil, nil
	}

	g, err := itemToGreeting(out.Item)
	if err != nil {
		return nil, fmt.Errorf("repository: GetCountryGreeting unmarshal: %w", err)
	}
	log.Debug("got country greeting", "country", g.Country, "greeting", g.Greeting)
	return &g, nil
}

// PutCountryGreeting writes greeting unconditionally, replacing any greeting
// already stored for the country. The replaced greeting is returned when
// there was one.
func (c *Client) PutCountryGreeting(ctx context.Context, greeting domain.CountryGreeting) (*domain.CountryGreeting, error) {
	if greeting.Country == "" {
		return nil, errors.New("repository: PutCountryGreeting: country is required")
	}
	item, err := attributevalue.MarshalMap(greetingItem{
		PK:       countryPK(greeting.Country),
		Country:  greeting.Country,
		Greeting: greeting.Greeting,
	})
	if err != nil {
		return nil, fmt.Errorf("repository: PutCountryGreeting marshal: %w", err)
	}

	log := logging.FromContext(ctx)
	log.Debug("putting country greeting", "table", c.tableName, "pk", countryPK(greeting.Country))

	out, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:    aws.String(c.tableName),
		Item:         item,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("repository: PutCountryGreeting: %w", err)
	}
	if out == nil || len(out.Attributes) == 0 {
		log.Debug("put country greeting", "replaced", false)
		return nil, nil
	}

	prev, err := itemToGreeting(out.Attributes)
	if err != nil {
		return nil, fmt.Errorf("repository: PutCountryGreeting unmarshal previous: %w", err)
	}
	log.Debug("put country greeting", "replaced", true, "previous", prev.Greeting)
	return &prev, nil
}

// itemToGreeting drops the key attributes and decodes the remaining fields.
func itemToGreeting(item map[string]types.AttributeValue) (domain.CountryGreeting, error) {
	var it greetingItem
	if err := attributevalue.UnmarshalMap(item, &it); err != nil {
		return domain.CountryGreeting{}, err
	}
	return domain.CountryGreeting{Country: it.Country, Greeting: it.Greeting}, nil
}
