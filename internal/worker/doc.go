// Package worker держит потребление очереди запущенным.
//
// # Обзор
//
// Supervisor — внешний цикл воркера. На каждой итерации он создаёт
// consumer (mq.Consumer поверх одного соединения и одного канала)
// и блокируется, пока тот работает. Одна доставка обрабатывается
// целиком, включая все webhooks, прежде чем будет взята следующая.
//
//	sup := worker.New(worker.Config{
//	    NewConsumer: func() worker.Consumer {
//	        return mq.NewConsumer(conn, mq.ConsumerConfig{Runner: orch, Logger: logger})
//	    },
//	    RetryDelay: 5 * time.Second,
//	    Logger:     logger,
//	})
//
//	if err := sup.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Перезапуски
//
// Потеря соединения с RabbitMQ логируется как Warn, любая другая ошибка
// (включая panic в пайплайне) как Error со стеком. В обоих случаях
// Supervisor ждёт фиксированную паузу и создаёт consumer заново.
// Сообщение, оставшееся без ack, broker доставит повторно.
//
// # Остановка
//
// Остановка кооперативная: отмена ctx (SIGINT/SIGTERM) завершает цикл
// consumer, тот закрывает соединение, и Run возвращает nil без
// переподключения. Пауза перед перезапуском тоже прерывается отменой ctx.
package worker
