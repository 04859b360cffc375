// Package message декодирует входящие сообщения очереди в domain.WorkItem.
//
// Формат сообщения — JSON с именами полей в camelCase (сторона backend на Java):
//
//	{
//	  "workId": 99999,
//	  "hasCrawledItems": false,
//	  "recentTrendKeywords": ["AI"],
//	  "crawledProducts": null,
//	  "recentlyUsedProducts": [],
//	  "webhookSecret": "secret",
//	  "webhookUrls": {
//	    "keywordSelect": "...", "productSelect": "...",
//	    "contentGenerate": "...", "airflowLog": "..."
//	  },
//	  "siteUrl": "https://www.coupang.com",
//	  "trendCategory": {"category1": "A", "category2": "B", "category3": "C"},
//	  "isTest": true
//	}
//
// Проверяется только наличие и тип полей. Отсутствие обязательного поля
// возвращает *FormatError с именем ключа.
package message
