// Package kafka is the messaging core of the service template: a topic →
// handler registry, an at-least-once consumer loop whose commits are driven
// by handler verdicts, and a synchronous producer. The whole package is
// switched off as a unit when the deployment runs without a broker; see
// Manager.
package kafka
