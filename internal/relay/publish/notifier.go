package publish

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sns"

	commonaws "visitor-relay/internal/common/aws"
	"visitor-relay/internal/common/config"
	"visitor-relay/internal/common/slack"
)

// Notifier is the optional chat channel behind the publisher.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// SlackNotifier sends through a Slack-style incoming webhook.
type SlackNotifier struct {
	client *slack.WebhookClient
}

func NewSlackNotifier(webhookURL string, timeout int) *SlackNotifier {
	return &SlackNotifier{
		client: slack.NewWebhookClient(webhookURL, config.GetDuration(timeout)),
	}
}

func (n *SlackNotifier) Notify(ctx context.Context, message string) error {
	return n.client.SendMessage(ctx, message)
}

// SNSNotifier publishes to an SNS topic instead of a webhook.
type SNSNotifier struct {
	client   *commonaws.SNSClient
	topicARN string
}

func NewSNSNotifier(client *commonaws.SNSClient, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (n *SNSNotifier) Notify(ctx context.Context, message string) error {
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &n.topicARN,
		Message:  &message,
	})
	return err
}
