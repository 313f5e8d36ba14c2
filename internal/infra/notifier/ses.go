package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"bakery/internal/config"
	"bakery/internal/usecase"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SendEmailだけ使う
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Amazon SES経由のメール通知
type SESNotifier struct {
	client SESClient
	sender string
	logger *slog.Logger
}

func NewSESNotifier(client SESClient, sender string, logger *slog.Logger) *SESNotifier {
	return &SESNotifier{client: client, sender: sender, logger: logger}
}

// 設定からSESクライアントを作る（キーが空ならデフォルトの認証チェーン）
func NewSESClient(ctx context.Context, cfg config.Config) (*ses.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ses.NewFromConfig(awsCfg), nil
}

func (n *SESNotifier) OrderPlaced(ctx context.Context, msg usecase.OrderPlacedMessage) error {
	subject := fmt.Sprintf("Order %s confirmed", msg.OrderNumber)
	text := orderPlacedText(msg)
	return n.send(ctx, msg.To, subject, text)
}

func (n *SESNotifier) OrderAssigned(ctx context.Context, msg usecase.OrderAssignedMessage) error {
	subject := fmt.Sprintf("New delivery: %s", msg.OrderNumber)
	text := orderAssignedText(msg)
	return n.send(ctx, msg.To, subject, text)
}

func (n *SESNotifier) PasswordReset(ctx context.Context, to, name, link string) error {
	return n.send(ctx, to, "Reset your password", passwordResetText(name, link))
}

func (n *SESNotifier) send(ctx context.Context, to, subject, text string) error {
	if to == "" {
		return fmt.Errorf("recipient email address is empty")
	}

	input := &ses.SendEmailInput{
		Source: aws.String(n.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String("<html><body><pre>" + html.EscapeString(text) + "</pre></body></html>"),
				},
				Text: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(text),
				},
			},
		},
	}

	out, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	n.logger.Info("email sent", "to", to, "subject", subject, "message_id", aws.ToString(out.MessageId))
	return nil
}
