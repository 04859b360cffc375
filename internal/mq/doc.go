// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — ConnectionManager: подключение, QoS, объявление очереди, закрытие
//   - topology.go   — объявление durable очереди заданий
//   - consumer.go   — цикл потребления и обработка одной доставки (ack/nack)
//   - publisher.go  — публикация запросов в очередь (CLI, тесты)
//
// Обработка строго последовательная: одна доставка обрабатывается целиком,
// включая все webhooks, прежде чем будет взята следующая.
//
// Решение по доставке:
//   - успех пайплайна                 → ack
//   - ошибка формата / шага пайплайна → nack без requeue
//   - потеря соединения               → ни ack, ни nack; ошибка уходит наверх,
//     supervisor переподключается, broker доставит сообщение повторно
package mq
