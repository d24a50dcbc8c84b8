// Package store 提供 core.Store / core.KeyValueStore / core.InteractionLog 的实现。
//
// 此包只包含实现，接口定义在 core 包：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	var log core.InteractionLog = store.NewKVInteractionLog(kv, "")
//	var durable core.InteractionLog, _ = store.NewSQLiteLog("foryou.db")
package store
