package client

import (
	"context"
)

// Client bundles the external connections a service holds for its
// lifetime. Fields are nil until the corresponding Set* call.
type Client struct {
	Mongo *MongoClient
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) GracefulShutdown() {
	if c.Mongo != nil {
		_ = c.Mongo.Client.Disconnect(context.Background())
	}
}
