// Package homework watches the Yandex Praktikum homework API for review
// status changes on the most recent submission, and relays a readable
// message through one or more notifiers (a Telegram bot first of all).
//
// The watcher is a single poll loop: fetch, parse, notify, sleep. Nothing
// runs concurrently with a poll except the status server reading the
// latest snapshot.
package homework
