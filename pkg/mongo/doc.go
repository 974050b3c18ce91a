// Package mongo connects to the MongoDB instance backing durable audit event
// storage. Configuration comes from MONGODB_* environment variables.
//
//	db, err := mongo.ConnectDatabase(ctx, cfg)
//	storage, err := audit.NewMongoStorage(db)
package mongo
