// Package pipeline выполняет конвейер генерации контента для одного WorkItem.
//
// # Шаги
//
//	crawler → keyword_select (+ webhook keywordSelect)
//	        → select_product | find_product (+ webhook productSelect)
//	        → generate_content (+ webhook contentGenerate)
//	        → finalize (webhook airflowLog, best effort)
//
// Ветка select_product/find_product определяется только флагом
// WorkItem.HasCrawledItems. Первая ошибка шага завершает выполнение:
// оставшиеся шаги не запускаются, повторов внутри одного запуска нет.
//
// # Журнал выполнения
//
// ExecutionLog создаётся в начале запуска и принадлежит только ему.
// Каждый шаг пишет started, затем completed или failed с длительностью.
// Журнал отправляется на airflowLog в любом исходе; ошибка этой отправки
// только логируется и не меняет результат запуска.
//
// # Ошибки
//
// Ошибка шага возвращается как *StepError с Kind:
//   - KindConfig — не задан webhook URL обязательного шага
//   - KindBusiness — пустые ключевые слова/кандидаты/контент, не выбран товар
//   - KindDelivery — обязательный webhook не доставлен
//   - KindCanceled — запуск прерван остановкой воркера
//   - KindUnexpected — ошибка внешнего компонента (crawler, OpenAI, ...)
//
// Решение ack/nack принимает вызывающий код (пакет mq) по Kind.
package pipeline
