package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"shop-assistant/internal/domain"
)

const (
	skProfile      = "PROFILE"
	skPrefixChat   = "CHAT#"
	skPrefixAnswer = "ANSWER#"
	skPrefixPhrase = "PHRASE#"
	pkGreetings    = "GREETING"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStore.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore keeps profiles, chat history, stored answers and the greeting
// corpus in a single DynamoDB table keyed by PK/SK.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// NewDynamoStore creates a knowledge store backed by tableName.
func NewDynamoStore(api dynamodbAPI, tableName string) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &DynamoStore{api: api, tableName: tableName, now: time.Now}, nil
}

func userPK(userID string) string {
	return "USER#" + userID
}

// qaPK hashes the question so arbitrarily long utterances fit the key size limit.
func qaPK(question string) string {
	sum := sha256.Sum256([]byte(question))
	return "QA#" + hex.EncodeToString(sum[:])
}

// timeSK orders items chronologically and stays unique for equal timestamps.
func timeSK(prefix string, ts time.Time) string {
	return prefix + ts.UTC().Format(time.RFC3339Nano) + "#" + uuid.NewString()
}

// UserName returns the stored display name of userID.
func (s *DynamoStore) UserName(ctx context.Context, userID string) (string, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("repository: UserName get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return "", false, nil
	}
	name, err := strAttr(out.Item, "name")
	if err != nil {
		return "", false, fmt.Errorf("repository: UserName decode: %w", err)
	}
	return name, name != "", nil
}

// SetUserName creates the profile on first use and replaces the name afterwards.
func (s *DynamoStore) SetUserName(ctx context.Context, userID, name string) error {
	if userID == "" {
		return errors.New("repository: SetUserName: user id is required")
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK":        &types.AttributeValueMemberS{Value: skProfile},
			"userId":    &types.AttributeValueMemberS{Value: userID},
			"name":      &types.AttributeValueMemberS{Value: name},
			"updatedAt": &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: SetUserName: %w", err)
	}
	return nil
}

// AppendChatTurn writes one history entry. Entries are never overwritten.
func (s *DynamoStore) AppendChatTurn(ctx context.Context, turn domain.ChatTurn) error {
	if turn.UserID == "" {
		return errors.New("repository: AppendChatTurn: user id is required")
	}
	ts := turn.CreatedAt
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: userPK(turn.UserID)},
			"SK":        &types.AttributeValueMemberS{Value: timeSK(skPrefixChat, ts)},
			"message":   &types.AttributeValueMemberS{Value: turn.Message},
			"reply":     &types.AttributeValueMemberS{Value: turn.Reply},
			"createdAt": &types.AttributeValueMemberS{Value: ts.UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: AppendChatTurn: %w", err)
	}
	return nil
}

// ChatHistory returns up to limit of the user's most recent turns, oldest first.
func (s *DynamoStore) ChatHistory(ctx context.Context, userID string, limit int) ([]domain.ChatTurn, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixChat},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	out, err := s.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: ChatHistory query: %w", err)
	}

	turns := make([]domain.ChatTurn, 0, len(out.Items))
	for _, item := range out.Items {
		msg, err := strAttr(item, "message")
		if err != nil {
			return nil, fmt.Errorf("repository: ChatHistory decode: %w", err)
		}
		reply, _ := strAttr(item, "reply")
		created, _ := strAttr(item, "createdAt")
		ts, _ := time.Parse(time.RFC3339Nano, created)
		turns = append(turns, domain.ChatTurn{UserID: userID, Message: msg, Reply: reply, CreatedAt: ts})
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// RecordQA stores a question and its answer. Identical questions may be stored
// more than once; lookups return the newest.
func (s *DynamoStore) RecordQA(ctx context.Context, qa domain.QAPair) error {
	if strings.TrimSpace(qa.Question) == "" {
		return errors.New("repository: RecordQA: question is required")
	}
	if strings.TrimSpace(qa.Answer) == "" {
		return errors.New("repository: RecordQA: answer is required")
	}
	ts := qa.CreatedAt
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: qaPK(qa.Question)},
			"SK":        &types.AttributeValueMemberS{Value: timeSK(skPrefixAnswer, ts)},
			"userId":    &types.AttributeValueMemberS{Value: qa.UserID},
			"question":  &types.AttributeValueMemberS{Value: qa.Question},
			"answer":    &types.AttributeValueMemberS{Value: qa.Answer},
			"createdAt": &types.AttributeValueMemberS{Value: ts.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: RecordQA: %w", err)
	}
	return nil
}

// FindStoredAnswer returns the newest answer whose question equals question exactly.
func (s *DynamoStore) FindStoredAnswer(ctx context.Context, question string) (string, bool, error) {
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: qaPK(question)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixAnswer},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return "", false, fmt.Errorf("repository: FindStoredAnswer query: %w", err)
	}
	for _, item := range out.Items {
		stored, err := strAttr(item, "question")
		if err != nil {
			return "", false, fmt.Errorf("repository: FindStoredAnswer decode: %w", err)
		}
		if stored != question {
			continue
		}
		answer, err := strAttr(item, "answer")
		if err != nil {
			return "", false, fmt.Errorf("repository: FindStoredAnswer decode: %w", err)
		}
		return answer, true, nil
	}
	return "", false, nil
}

// PutGreeting adds or replaces one greeting corpus entry.
func (s *DynamoStore) PutGreeting(ctx context.Context, entry domain.GreetingEntry) error {
	if strings.TrimSpace(entry.Phrase) == "" {
		return errors.New("repository: PutGreeting: phrase is required")
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":     &types.AttributeValueMemberS{Value: pkGreetings},
			"SK":     &types.AttributeValueMemberS{Value: skPrefixPhrase + entry.Phrase},
			"phrase": &types.AttributeValueMemberS{Value: entry.Phrase},
			"reply":  &types.AttributeValueMemberS{Value: entry.Reply},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: PutGreeting: %w", err)
	}
	return nil
}

// ListGreetings returns the whole greeting corpus ordered by phrase.
func (s *DynamoStore) ListGreetings(ctx context.Context) ([]domain.GreetingEntry, error) {
	var (
		entries []domain.GreetingEntry
		start   map[string]types.AttributeValue
	)
	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: pkGreetings},
				":prefix": &types.AttributeValueMemberS{Value: skPrefixPhrase},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: ListGreetings query: %w", err)
		}
		for _, item := range out.Items {
			phrase, err := strAttr(item, "phrase")
			if err != nil {
				return nil, fmt.Errorf("repository: ListGreetings decode: %w", err)
			}
			reply, _ := strAttr(item, "reply")
			entries = append(entries, domain.GreetingEntry{Phrase: phrase, Reply: reply})
		}
		if len(out.LastEvaluatedKey) == 0 {
			return entries, nil
		}
		start = out.LastEvaluatedKey
	}
}

// ListGreetingPhrases returns the distinct corpus phrases.
func (s *DynamoStore) ListGreetingPhrases(ctx context.Context) ([]string, error) {
	entries, err := s.ListGreetings(ctx)
	if err != nil {
		return nil, err
	}
	return phrases(entries), nil
}

// GreetingReply returns the canned reply for an exact corpus phrase.
func (s *DynamoStore) GreetingReply(ctx context.Context, phrase string) (string, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pkGreetings},
			"SK": &types.AttributeValueMemberS{Value: skPrefixPhrase + phrase},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("repository: GreetingReply get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return "", false, nil
	}
	reply, err := strAttr(out.Item, "reply")
	if err != nil {
		return "", false, fmt.Errorf("repository: GreetingReply decode: %w", err)
	}
	return reply, true, nil
}

func phrases(entries []domain.GreetingEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Phrase]; ok {
			continue
		}
		seen[e.Phrase] = struct{}{}
		out = append(out, e.Phrase)
	}
	return out
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
