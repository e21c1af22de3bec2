package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client wraps the document-store connection. Constructed once at service
// start and closed at shutdown; handed down explicitly to repositories.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewClient connects to the document store and verifies the connection
func NewClient(ctx context.Context, uri, database string) (*Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return &Client{
		client: client,
		db:     client.Database(database),
	}, nil
}

// Database returns the underlying database handle
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Close disconnects from the document store
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
