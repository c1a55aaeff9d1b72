// Package events publishes and consumes table change notifications.
//
// Every successful write through the table API, an RPC function or the
// storage API produces a Change naming the company, table and affected row
// ids. Changes are published to Kafka keyed by company id, so all changes
// of one tenant land on the same partition in order. Consumers such as
// client caches use them to invalidate data written by other processes.
//
// When no brokers are configured the server falls back to LogPublisher.
package events
