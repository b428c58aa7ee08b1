package services

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/savaki/abbey/internal/errors"
)

// SQSAPI is the subset of the SQS client used for status messages
type SQSAPI interface {
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Message is a received status message
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type SQSService struct {
	client SQSAPI
}

func NewSQSService(client SQSAPI) *SQSService {
	return &SQSService{client: client}
}

// EnsureQueue creates the queue if it does not exist and returns its URL.
// CreateQueue without attributes returns the existing queue unchanged.
func (s *SQSService) EnsureQueue(ctx context.Context, name string) (string, error) {
	result, err := s.client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(name),
	})
	if err != nil {
		return "", errors.Classify("create queue "+name, err)
	}
	return aws.ToString(result.QueueUrl), nil
}

// Send publishes body as a raw text message
func (s *SQSService) Send(ctx context.Context, queueURL, body string) error {
	_, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(body),
	})
	return errors.Classify("send message", err)
}

// Receive returns up to 10 available messages; an empty slice when none are available
func (s *SQSService) Receive(ctx context.Context, queueURL string) ([]Message, error) {
	result, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: 10,
	})
	if err != nil {
		return nil, errors.Classify("receive message", err)
	}

	messages := make([]Message, 0, len(result.Messages))
	for _, m := range result.Messages {
		messages = append(messages, Message{
			ID:            aws.ToString(m.MessageId),
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return messages, nil
}

// Delete acknowledges a received message
func (s *SQSService) Delete(ctx context.Context, queueURL, receiptHandle string) error {
	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	return errors.Classify("delete message", err)
}
