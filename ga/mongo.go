package ga

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResultDoc 优化结果的数据库文档
type ResultDoc struct {
	Scenario    string    `bson:"scenario"`
	BestConfig  Candidate `bson:"best_config"`
	BestFitness float64   `bson:"best_fitness"`
	Params      Params    `bson:"optimization_params"`
	CreatedAt   time.Time `bson:"created_at"`
}

// ResultCollection 优化结果的持久化接口
type ResultCollection interface {
	InsertResult(ctx context.Context, doc ResultDoc) error
}

// MongoResultCollection MongoDB结果集合
type MongoResultCollection struct {
	Collection *mongo.Collection
}

// ConnectMongo 连接MongoDB
// 参数：uri-连接串
// 返回：已通过连通性检查的客户端和错误信息
func ConnectMongo(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// InsertResult 写入一条优化结果
func (c *MongoResultCollection) InsertResult(ctx context.Context, doc ResultDoc) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.InsertOne(ctx, doc)
	return err
}
