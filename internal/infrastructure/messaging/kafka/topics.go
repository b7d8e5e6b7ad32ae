// Package kafka carries patent domain events between the API and the
// notification worker.
package kafka

// TopicPatentEvents receives every patent lifecycle event
// (created/updated/deleted). The worker group consumes it to record
// notifications.
const TopicPatentEvents = "ipfolio.patent.events"
