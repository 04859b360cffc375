// Package cli реализует инструмент командной строки content-worker.
//
// # Обзор
//
// CLI — утилита оператора: отправляет тестовый запрос в очередь,
// проверяет файл сообщения кодеком воркера и опрашивает служебные
// endpoints запущенного воркера.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для /healthz и /readyz воркера.
//
//	client := cli.NewClient("http://localhost:8083")
//	status, ready, err := client.Ready()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: content-cli decode msg.json --json | jq .
//
// ## Commands
//
//   - send-test: публикует пример запроса (workId 99999, isTest)
//   - decode: проверяет и выводит сообщение из файла
//   - status: состояние воркера
//
// Команды создаются фабричными функциями (NewSendTestCmd и т.д.),
// принимающими замыкания для ленивого создания зависимостей
// после парсинга PersistentFlags.
package cli
