// Content CLI — утилита оператора content-worker.
//
// Использование:
//
//	content-cli [--env-file PATH] [--worker-url URL] [--json] <command> [flags]
//
// Команды:
//
//	send-test  Отправить тестовый запрос в очередь
//	decode     Проверить файл сообщения
//	status     Состояние воркера
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/content-worker/internal/cli"
	"github.com/shaiso/content-worker/internal/config"
	"github.com/shaiso/content-worker/internal/mq"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var envFile string
	var workerURL string
	var jsonOutput bool
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "content-cli",
		Short:         "Content worker CLI — publish and inspect generation requests",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVar(&workerURL, "worker-url", "http://localhost:8083", "Worker service URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log broker activity to stderr")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	clientFn := func() *cli.Client { return cli.NewClient(workerURL) }

	publisherFn := func() (cli.RequestPublisher, func(), error) {
		cfg, err := config.Load(envFile)
		if err != nil {
			return nil, nil, err
		}

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if verbose {
			logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
		}

		conn := mq.NewConnection(mq.Config{
			Host:           cfg.RabbitMQ.Host,
			Port:           cfg.RabbitMQ.Port,
			Username:       cfg.RabbitMQ.Username,
			Password:       cfg.RabbitMQ.Password,
			Vhost:          cfg.RabbitMQ.Vhost,
			UseTLS:         cfg.RabbitMQ.UseSSL,
			Queue:          cfg.RabbitMQ.Queue,
			ConnectionName: "content-cli",
		}, logger)

		return mq.NewPublisher(conn, logger), conn.Stop, nil
	}

	rootCmd.AddCommand(
		cli.NewSendTestCmd(publisherFn, outputFn),
		cli.NewDecodeCmd(outputFn),
		cli.NewStatusCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
