package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/content-worker/internal/domain"
	"github.com/shaiso/content-worker/internal/message"
)

// RequestPublisher публикует запрос в очередь. Реализуется *mq.Publisher.
type RequestPublisher interface {
	PublishRequest(ctx context.Context, item *domain.WorkItem) (string, error)
}

// PublisherFn лениво создаёт publisher; close освобождает соединение.
type PublisherFn func() (p RequestPublisher, close func(), err error)

// NewSendTestCmd создаёт команду отправки тестового запроса.
func NewSendTestCmd(publisherFn PublisherFn, outputFn func() *Output) *cobra.Command {
	opts := DefaultSampleOptions()
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Publish a sample content generation request",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			item := SampleRequest(opts)

			if dryRun {
				out.JSON(message.FromWorkItem(item))
				return nil
			}

			publisher, closeFn, err := publisherFn()
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := publisher.PublishRequest(cmd.Context(), item)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Test message sent (message id %s)", id))
			out.Print(
				[]string{"WORK_ID", "CATEGORY", "SITE", "CRAWLED"},
				[][]string{{
					strconv.FormatInt(item.WorkID, 10),
					strings.Join(item.TrendCategory.Levels(), " > "),
					item.SiteURL,
					strconv.FormatBool(item.HasCrawledItems),
				}},
				map[string]any{"messageId": id, "workId": item.WorkID},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.WebhookBase, "webhook-base", opts.WebhookBase, "Base URL of backend webhooks")
	cmd.Flags().StringVar(&opts.Secret, "secret", opts.Secret, "Webhook secret")
	cmd.Flags().StringVar(&opts.SiteURL, "site-url", opts.SiteURL, "Site to search products on")
	cmd.Flags().StringVar(&opts.Category, "category", opts.Category, "Trend category levels separated by '>'")
	cmd.Flags().BoolVar(&opts.CrawledProducts, "with-products", false, "Attach crawled products (select_product branch)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the message instead of publishing")

	return cmd
}

// NewDecodeCmd создаёт команду проверки файла сообщения.
func NewDecodeCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "decode FILE",
		Short: "Validate a request message and print the decoded work item",
		Long:  "Validate a request message with the worker codec. Use '-' to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			body, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			item, err := message.Decode(body)
			if err != nil {
				return err
			}

			endpoints := "keyword, product, content"
			if item.WebhookURLs.AirflowLog != "" {
				endpoints += ", log"
			}

			headers := []string{"WORK_ID", "BRANCH", "CATEGORY", "SITE", "PRODUCTS", "WEBHOOKS", "TEST"}
			rows := [][]string{{
				strconv.FormatInt(item.WorkID, 10),
				branch(item),
				strings.Join(item.TrendCategory.Levels(), " > "),
				item.SiteURL,
				strconv.Itoa(len(item.CrawledProducts)),
				endpoints,
				strconv.FormatBool(item.IsTest),
			}}

			out.Print(headers, rows, message.FromWorkItem(item))
			return nil
		},
	}
}

// NewStatusCmd создаёт команду проверки состояния воркера.
func NewStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show worker health and broker readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			health, err := client.Health()
			if err != nil {
				return err
			}
			readiness, ready, err := client.Ready()
			if err != nil {
				return err
			}

			out.Print(
				[]string{"HEALTH", "BROKER", "UPTIME"},
				[][]string{{health.Status, readiness.Status, health.Uptime}},
				map[string]any{"health": health.Status, "ready": ready, "uptime": health.Uptime},
			)
			if !ready {
				return fmt.Errorf("worker is not connected to the broker")
			}
			return nil
		},
	}
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	return body, nil
}

func branch(item *domain.WorkItem) string {
	if item.HasCrawledItems {
		return "select_product"
	}
	return "find_product"
}
