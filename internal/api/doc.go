// Package api 處理 HTTP 請求路由和處理。
//
// 這個包包含了所有的 HTTP 處理器（handlers）與 WebSocket 事件分派。
// 它負責將請求轉換為適當的服務調用，並把結果包成統一的回應格式。
package api
