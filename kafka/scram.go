package kafka

import (
	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

// scramClient adapts an xdg/scram conversation to sarama's SCRAMClient so
// SCRAM-SHA-256/512 brokers can authenticate the group and producer clients.
type scramClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

func newScramSHA256Client() sarama.SCRAMClient {
	return &scramClient{HashGeneratorFcn: scram.SHA256}
}

func newScramSHA512Client() sarama.SCRAMClient {
	return &scramClient{HashGeneratorFcn: scram.SHA512}
}

func (c *scramClient) Begin(user, password, authzID string) error {
	client, err := c.HashGeneratorFcn.NewClient(user, password, authzID)
	if err != nil {
		return err
	}
	c.Client = client
	c.ClientConversation = c.Client.NewConversation()
	return nil
}

func (c *scramClient) Step(challenge string) (string, error) {
	return c.ClientConversation.Step(challenge)
}

func (c *scramClient) Done() bool {
	return c.ClientConversation.Done()
}
